package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Kushanz7/VaultPark-sub001/internal/logging"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/clock"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/types"
)

// ScanService is the gate-facing entry point: it checks the gate, routes
// the scan to the device's scanner and appends an audit event for every
// resolved scan.
type ScanService struct {
	registry   *GateRegistry
	pool       *ScannerPool
	eventStore store.ScanEventStore
	clock      clock.Clock
	log        logging.Logger
}

func NewScanService(reg *GateRegistry, pool *ScannerPool, es store.ScanEventStore, clk clock.Clock, log logging.Logger) *ScanService {
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &ScanService{
		registry:   reg,
		pool:       pool,
		eventStore: es,
		clock:      clk,
		log:        log.With("module", "scan_service"),
	}
}

// Scan returns the scanner state after the scan. A non-nil error is either
// a request validation error, ErrUnknownGate, or an admission result
// (ErrScannerBusy, ErrDebounced); the response is still filled in for the
// latter two.
func (s *ScanService) Scan(ctx context.Context, req types.ScanRequest) (types.ScanResponse, error) {
	deviceID := strings.TrimSpace(req.DeviceID)
	gate := strings.TrimSpace(req.Gate)
	guardID := strings.TrimSpace(req.GuardID)

	if deviceID == "" {
		return types.ScanResponse{}, ErrInvalidDeviceID
	}
	if gate == "" {
		return types.ScanResponse{}, ErrInvalidGate
	}
	if guardID == "" {
		return types.ScanResponse{}, ErrInvalidGuardID
	}

	known, err := s.registry.IsKnown(ctx, gate)
	if err != nil {
		return types.ScanResponse{}, err
	}
	if err := s.registry.NoteSeen(ctx, gate); err != nil {
		s.log.Warn(ctx, "gate last-seen update failed", "gate", gate, "err", err)
	}

	if !known {
		st := State{Phase: PhaseError, Err: ErrUnknownGate, At: s.clock.Now()}
		s.recordEvent(ctx, deviceID, gate, guardID, st)
		return ScanResponse(deviceID, gate, st, s.clock.Now()), ErrUnknownGate
	}

	in := ScanInput{
		Raw:      strings.TrimSpace(req.Raw),
		Gate:     gate,
		Operator: Operator{ID: guardID, Name: strings.TrimSpace(req.GuardName)},
	}

	st, err := s.pool.Get(deviceID).Scan(ctx, in)
	if errors.Is(err, ErrScannerClosed) {
		// Reaped between Get and Scan; a fresh scanner takes over.
		st, err = s.pool.Get(deviceID).Scan(ctx, in)
	}
	if err != nil {
		resp := ScanResponse(deviceID, gate, st, s.clock.Now())
		resp.OK = false
		resp.Reason = ReasonFor(err)
		resp.Message = err.Error()
		return resp, err
	}

	s.recordEvent(ctx, deviceID, gate, guardID, st)
	return ScanResponse(deviceID, gate, st, s.clock.Now()), nil
}

// State reports the device's scanner state. Devices that have never
// scanned are idle.
func (s *ScanService) State(_ context.Context, deviceID string) (types.ScanResponse, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return types.ScanResponse{}, ErrInvalidDeviceID
	}
	now := s.clock.Now()
	sc, ok := s.pool.Lookup(deviceID)
	if !ok {
		return ScanResponse(deviceID, "", State{Phase: PhaseIdle, At: now}, now), nil
	}
	return ScanResponse(deviceID, "", sc.State(), now), nil
}

// Reset acknowledges the device's last result.
func (s *ScanService) Reset(ctx context.Context, deviceID string) (types.ScanResponse, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return types.ScanResponse{}, ErrInvalidDeviceID
	}
	if sc, ok := s.pool.Lookup(deviceID); ok {
		if sc.Reset() {
			s.log.Debug(ctx, "scanner reset", "device_id", deviceID)
		}
	}
	return s.State(ctx, deviceID)
}

// Subscribe streams the device's state transitions. The scanner is created
// if needed so a display can attach before the first scan.
func (s *ScanService) Subscribe(deviceID string) (<-chan State, func(), error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, nil, ErrInvalidDeviceID
	}
	ch, cancel := s.pool.Get(deviceID).Subscribe(8)
	return ch, cancel, nil
}

// recordEvent persists the scan result to the audit log.  Errors are not
// returned to the caller; a failed audit write never changes the outcome
// the gate device sees.
func (s *ScanService) recordEvent(ctx context.Context, deviceID, gate, guardID string, st State) {
	rec := store.ScanEventRecord{
		DeviceID:   deviceID,
		Gate:       gate,
		GuardID:    guardID,
		DriverID:   st.DriverID,
		RecordedAt: st.At,
	}
	switch {
	case st.Phase == PhaseError:
		rec.Outcome = store.OutcomeError
		rec.Reason = ReasonFor(st.Err)
	case st.Outcome == OutcomeExit:
		rec.Outcome = store.OutcomeExit
		rec.Reason = string(OutcomeExit)
	default:
		rec.Outcome = store.OutcomeEntry
		rec.Reason = string(OutcomeEntry)
	}
	if st.Session != nil {
		rec.SessionID = st.Session.ID
	}

	if err := s.eventStore.RecordEvent(ctx, rec); err != nil {
		s.log.Warn(ctx, "scan event not recorded", "device_id", deviceID, "outcome", rec.Outcome, "err", err)
	}
}
