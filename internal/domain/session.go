package domain

import (
	"context"

	"github.com/google/uuid"
)

// Session is everything one visitor owns: their lists and the flash
// messages waiting to be shown on the next rendered page.
type Session struct {
	Lists   []List `json:"lists"`
	Error   string `json:"error,omitempty"`
	Success string `json:"success,omitempty"`
}

// NewSession returns an empty session, as created on a visitor's first request.
func NewSession() *Session {
	return &Session{Lists: []List{}}
}

// TakeFlash returns the pending messages and clears them.
func (s *Session) TakeFlash() (errMsg, successMsg string) {
	errMsg, successMsg = s.Error, s.Success
	s.Error, s.Success = "", ""
	return errMsg, successMsg
}

// SessionRepository persists session state server-side, keyed by an opaque
// session ID held in the visitor's cookie. Get returns ErrSessionNotFound for
// unknown or expired IDs and ErrSessionCorrupt for state that no longer
// decodes. Implementations store copies: callers may keep
// mutating the *Session they passed to Save.
type SessionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, id uuid.UUID, session *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}
