package state

import (
	"context"
	"time"
)

// Session is the conversation slot of one user.
// An empty Flow means the user is idle.
type Session struct {
	Flow      string            `json:"flow,omitempty"`
	Step      int               `json:"step"`
	Data      map[string]string `json:"data,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Active reports whether a flow is in progress.
func (s Session) Active() bool {
	return s.Flow != ""
}

// Clone returns a copy that does not share Data with s.
func (s Session) Clone() Session {
	out := s
	if s.Data != nil {
		out.Data = make(map[string]string, len(s.Data))
		for k, v := range s.Data {
			out.Data[k] = v
		}
	}
	return out
}

// Store persists sessions. Get returns an idle Session when nothing is stored.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, error)
	Set(ctx context.Context, userID int64, s Session) error
	Clear(ctx context.Context, userID int64) error
}
