package convo

import (
	"context"
	"time"
)

// Status is the tracker-level outcome of one run poll.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// RunInfo mirrors the service's view of a run. CompletedAt is nil until
// the run reaches a terminal state; its presence is the success signal.
type RunInfo struct {
	RunID       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// ThreadMessage is one entry of the thread, as ordered by the service.
type ThreadMessage struct {
	ID        string
	Role      string
	Text      string
	CreatedAt time.Time
}

// ThreadAPI is the hosted conversation service. Thread and assistant are
// pre-provisioned externally; this interface never creates either.
type ThreadAPI interface {
	AppendMessage(ctx context.Context, threadID, role, text string) (string, error)
	StartRun(ctx context.Context, threadID, assistantID, instructions string) (RunInfo, error)
	GetRun(ctx context.Context, threadID, runID string) (RunInfo, error)
	ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error)
}

// RunHandle is the opaque handle returned by Submit.
type RunHandle struct {
	ThreadID  string
	RunID     string
	CreatedAt time.Time
}

// Result is one poll outcome. Reply is set only on success, Reason only
// on failure.
type Result struct {
	Status  Status
	Reply   string
	Reason  string
	Elapsed string
}
