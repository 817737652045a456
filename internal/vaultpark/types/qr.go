package types

type QRRequest struct {
	UserID string `json:"user_id"`
}

type QRResponse struct {
	OK        bool   `json:"ok"`
	UserID    string `json:"user_id"`
	Payload   string `json:"payload"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
}
