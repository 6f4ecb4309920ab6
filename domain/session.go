package domain

import "time"

// Session represents a login session stored in Redis. A revoked or expired
// session invalidates every token issued for it.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// BelongsTo reports whether the session was issued to userID.
func (s *Session) BelongsTo(userID string) bool {
	return s != nil && userID != "" && s.UserID == userID
}
