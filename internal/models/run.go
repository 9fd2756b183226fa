package models

import (
	"fmt"
	"time"
)

// ConversationRun is one invocation of the hosted assistant against the
// deployment's persistent thread. CompletedAt stays nil until the service
// reports a completion timestamp; once set it never moves backwards.
type ConversationRun struct {
	ThreadID    string     `json:"thread_id"`
	RunID       string     `json:"run_id"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Reply       string     `json:"reply,omitempty"`
	FailReason  string     `json:"fail_reason,omitempty"`
}

// Elapsed formats completed_at - created_at as HH:MM:SS for logs. It
// returns an empty string while the run is still open.
func (r *ConversationRun) Elapsed() string {
	if r.CompletedAt == nil {
		return ""
	}
	d := r.CompletedAt.Sub(r.CreatedAt)
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
