package service

import (
	"context"
	"strings"
	"time"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/clock"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/qrcode"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/types"
)

// QRService issues payloads for drivers to present at a gate.
type QRService struct {
	codec  *qrcode.Codec
	users  store.UserStore
	clock  clock.Clock
	window time.Duration
}

func NewQRService(codec *qrcode.Codec, users store.UserStore, clk clock.Clock, window time.Duration) *QRService {
	if codec == nil {
		codec = qrcode.Default()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if window <= 0 {
		window = qrcode.DefaultValidityWindow
	}
	return &QRService{codec: codec, users: users, clock: clk, window: window}
}

func (s *QRService) Issue(ctx context.Context, userID string) (types.QRResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return types.QRResponse{}, ErrInvalidUserID
	}

	u, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return types.QRResponse{}, persistenceErr(err)
	}
	if u == nil || u.Role != store.RoleDriver {
		return types.QRResponse{}, ErrDriverNotFound
	}

	now := s.clock.Now()
	raw, err := s.codec.Encode(u.ID, u.VehicleNumber, now)
	if err != nil {
		return types.QRResponse{}, err
	}

	p, err := s.codec.Decode(raw)
	if err != nil {
		return types.QRResponse{}, err
	}
	return types.QRResponse{
		OK:        true,
		UserID:    u.ID,
		Payload:   raw,
		IssuedAt:  p.IssuedAt.UTC().Format(time.RFC3339Nano),
		ExpiresAt: qrcode.ExpiresAt(p, s.window).UTC().Format(time.RFC3339Nano),
	}, nil
}
