package types

type ScanRequest struct {
	DeviceID  string `json:"device_id"`
	Gate      string `json:"gate"`
	GuardID   string `json:"guard_id"`
	GuardName string `json:"guard_name,omitempty"`
	Raw       string `json:"raw"`
}

// ScanResponse describes the scanner state after a scan. Phase is one of
// idle, processing, success or error; Outcome is entry or exit on success.
type ScanResponse struct {
	OK         bool         `json:"ok"`
	DeviceID   string       `json:"device_id"`
	Gate       string       `json:"gate,omitempty"`
	Phase      string       `json:"phase"`
	Outcome    string       `json:"outcome,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Message    string       `json:"message,omitempty"`
	Session    *SessionView `json:"session,omitempty"`
	Billing    *BillingView `json:"billing,omitempty"`
	ServerTime string       `json:"server_time"`
}

type ResetRequest struct {
	DeviceID string `json:"device_id"`
}

type BillingView struct {
	DurationMs int64   `json:"duration_ms"`
	Hours      int64   `json:"hours"`
	Minutes    int64   `json:"minutes"`
	Seconds    int64   `json:"seconds"`
	Amount     float64 `json:"amount"`
	Tier       string  `json:"tier,omitempty"`
}
