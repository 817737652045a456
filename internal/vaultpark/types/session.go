package types

type SessionView struct {
	ID               string `json:"id"`
	DriverID         string `json:"driver_id"`
	DriverName       string `json:"driver_name"`
	VehicleNumber    string `json:"vehicle_number"`
	EntryTime        string `json:"entry_time"`
	ExitTime         string `json:"exit_time,omitempty"`
	GateLocation     string `json:"gate_location"`
	ScannedByGuardID string `json:"scanned_by_guard_id"`
	GuardName        string `json:"guard_name,omitempty"`
	ExitGate         string `json:"exit_gate,omitempty"`
	ExitGuardID      string `json:"exit_guard_id,omitempty"`
	ExitGuardName    string `json:"exit_guard_name,omitempty"`
	Status           string `json:"status"`
}

type ActiveSessionResponse struct {
	OK       bool         `json:"ok"`
	DriverID string       `json:"driver_id"`
	Active   bool         `json:"active"`
	Session  *SessionView `json:"session,omitempty"`
}

type SessionListResponse struct {
	OK       bool          `json:"ok"`
	Sessions []SessionView `json:"sessions"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}
