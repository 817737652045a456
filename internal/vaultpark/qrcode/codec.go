// Package qrcode encodes and decodes the driver QR payload:
//
//	VAULTPARK|<userId>|<issuedAtMillis>|<vehicleNumber>|<hash>
//
// The hash is 8 lowercase hex characters computed over the first four fields.
package qrcode

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Issuer    = "VAULTPARK"
	Delimiter = "|"
	numFields = 5

	// DefaultValidityWindow is how long a freshly issued code is accepted.
	DefaultValidityWindow = 2 * time.Minute
)

var (
	ErrMalformedPayload  = errors.New("malformed QR payload")
	ErrIntegrityMismatch = errors.New("QR payload integrity mismatch")
	ErrInvalidField      = errors.New("field must be non-empty and must not contain the delimiter")
)

// Payload is the decoded content of a scanned code.
type Payload struct {
	Issuer        string
	UserID        string
	IssuedAt      time.Time
	VehicleNumber string
	Hash          string
}

// Codec pairs the wire format with a Hasher. The zero value is not usable;
// use New or Default.
type Codec struct {
	hasher Hasher
}

// New returns a codec that tags payloads with h. A nil h falls back to
// FNVHasher.
func New(h Hasher) *Codec {
	if h == nil {
		h = FNVHasher{}
	}
	return &Codec{hasher: h}
}

// Default returns a codec using the unkeyed FNV hasher.
func Default() *Codec { return New(FNVHasher{}) }

// Encode builds the wire string for a driver code issued at issuedAt,
// truncated to milliseconds. Fields must be non-empty and free of the
// delimiter.
func (c *Codec) Encode(userID, vehicleNumber string, issuedAt time.Time) (string, error) {
	if !validField(userID) {
		return "", fmt.Errorf("user id: %w", ErrInvalidField)
	}
	if !validField(vehicleNumber) {
		return "", fmt.Errorf("vehicle number: %w", ErrInvalidField)
	}
	body := strings.Join([]string{
		Issuer,
		userID,
		strconv.FormatInt(issuedAt.UnixMilli(), 10),
		vehicleNumber,
	}, Delimiter)
	return body + Delimiter + c.hasher.Sum(body), nil
}

// Decode parses raw and verifies its tag. Structural problems wrap
// ErrMalformedPayload; a wrong tag is ErrIntegrityMismatch. Expiry is
// checked separately with IsExpired.
func (c *Codec) Decode(raw string) (Payload, error) {
	fields := strings.Split(raw, Delimiter)
	if len(fields) != numFields {
		return Payload{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedPayload, numFields, len(fields))
	}
	if fields[0] != Issuer {
		return Payload{}, fmt.Errorf("%w: unknown issuer", ErrMalformedPayload)
	}
	if fields[1] == "" || fields[3] == "" {
		return Payload{}, fmt.Errorf("%w: empty field", ErrMalformedPayload)
	}
	ms, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: bad timestamp", ErrMalformedPayload)
	}

	body := strings.Join(fields[:4], Delimiter)
	want := c.hasher.Sum(body)
	if subtle.ConstantTimeCompare([]byte(want), []byte(fields[4])) != 1 {
		return Payload{}, ErrIntegrityMismatch
	}

	return Payload{
		Issuer:        fields[0],
		UserID:        fields[1],
		IssuedAt:      time.UnixMilli(ms).UTC(),
		VehicleNumber: fields[3],
		Hash:          fields[4],
	}, nil
}

// IsExpired reports whether more than window has elapsed between issuance
// and now, compared at millisecond resolution.
func IsExpired(p Payload, now time.Time, window time.Duration) bool {
	return now.UnixMilli()-p.IssuedAt.UnixMilli() > window.Milliseconds()
}

// ExpiresAt is the last instant at which p is still accepted.
func ExpiresAt(p Payload, window time.Duration) time.Time {
	return p.IssuedAt.Add(window)
}

func validField(s string) bool {
	return s != "" && !strings.Contains(s, Delimiter)
}
