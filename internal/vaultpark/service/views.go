package service

import (
	"time"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/billing"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/types"
)

func SessionView(s store.ParkingSession) types.SessionView {
	v := types.SessionView{
		ID:               s.ID,
		DriverID:         s.DriverID,
		DriverName:       s.DriverName,
		VehicleNumber:    s.VehicleNumber,
		EntryTime:        s.EntryTime.UTC().Format(time.RFC3339Nano),
		GateLocation:     s.GateLocation,
		ScannedByGuardID: s.ScannedByGuardID,
		GuardName:        s.GuardName,
		ExitGate:         s.ExitGate,
		ExitGuardID:      s.ExitGuardID,
		ExitGuardName:    s.ExitGuardName,
		Status:           string(s.Status),
	}
	if s.ExitTime != nil {
		v.ExitTime = s.ExitTime.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func BillingView(q billing.Quote) types.BillingView {
	return types.BillingView{
		DurationMs: q.Elapsed.Milliseconds(),
		Hours:      q.Breakdown.Hours,
		Minutes:    q.Breakdown.Minutes,
		Seconds:    q.Breakdown.Seconds,
		Amount:     q.Amount,
		Tier:       q.Tier,
	}
}

// ScanResponse renders a scanner state for the wire.
func ScanResponse(deviceID, gate string, st State, now time.Time) types.ScanResponse {
	resp := types.ScanResponse{
		OK:         st.Phase != PhaseError,
		DeviceID:   deviceID,
		Gate:       gate,
		Phase:      string(st.Phase),
		Outcome:    string(st.Outcome),
		Reason:     ReasonFor(st.Err),
		Message:    st.Message(),
		ServerTime: now.UTC().Format(time.RFC3339Nano),
	}
	if st.Session != nil {
		v := SessionView(*st.Session)
		resp.Session = &v
	}
	if st.Quote != nil {
		b := BillingView(*st.Quote)
		resp.Billing = &b
	}
	return resp
}
