package dto

// SessionResponse is an anonymous student session.
type SessionResponse struct {
	Token     string `json:"token"`
	StudentID string `json:"student_id"`
	ExpiresIn int    `json:"expires_in"` // seconds
}
