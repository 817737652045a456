package service

import (
	"context"
	"strings"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/types"
)

// SessionService answers read-only session queries for history screens.
type SessionService struct {
	sessions store.SessionStore
}

func NewSessionService(st store.SessionStore) *SessionService {
	return &SessionService{sessions: st}
}

func (s *SessionService) Active(ctx context.Context, driverID string) (types.ActiveSessionResponse, error) {
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return types.ActiveSessionResponse{}, ErrInvalidUserID
	}

	sess, err := s.sessions.FindActiveSession(ctx, driverID)
	if err != nil {
		return types.ActiveSessionResponse{}, persistenceErr(err)
	}

	resp := types.ActiveSessionResponse{OK: true, DriverID: driverID}
	if sess != nil {
		v := SessionView(*sess)
		resp.Active = true
		resp.Session = &v
	}
	return resp, nil
}

func (s *SessionService) List(ctx context.Context, f store.SessionFilter) (types.SessionListResponse, error) {
	f = f.Normalized()

	rows, err := s.sessions.ListRecent(ctx, f)
	if err != nil {
		return types.SessionListResponse{}, persistenceErr(err)
	}

	out := make([]types.SessionView, 0, len(rows))
	for _, r := range rows {
		out = append(out, SessionView(r))
	}
	return types.SessionListResponse{OK: true, Sessions: out, Limit: f.Limit, Offset: f.Offset}, nil
}
