package service

import (
	"errors"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/qrcode"
)

var (
	ErrMalformedPayload  = qrcode.ErrMalformedPayload
	ErrIntegrityMismatch = qrcode.ErrIntegrityMismatch
	ErrExpired           = errors.New("expired")
	ErrDriverNotFound    = errors.New("driver not found")
	ErrVehicleMismatch   = errors.New("vehicle mismatch")
	ErrPersistence       = errors.New("persistence error")
	ErrDriverClaimed     = errors.New("driver is being scanned at another gate")

	// Admission results. The scanner did not run.
	ErrScannerBusy = errors.New("scanner busy")
	ErrDebounced   = errors.New("duplicate scan ignored")

	ErrScannerClosed = errors.New("scanner closed")
	ErrUnknownGate   = errors.New("unknown gate")

	ErrInvalidDeviceID = errors.New("device_id is required")
	ErrInvalidGate     = errors.New("gate is required")
	ErrInvalidGuardID  = errors.New("guard_id is required")
	ErrInvalidUserID   = errors.New("user_id is required")
)

// VehicleMismatchError is returned when an exit scan carries a different
// vehicle than the open session.
type VehicleMismatchError struct {
	Expected string
	Got      string
}

func (e *VehicleMismatchError) Error() string {
	return "vehicle mismatch, expected " + e.Expected
}

func (e *VehicleMismatchError) Unwrap() error { return ErrVehicleMismatch }
