package worker

import (
	"context"
	"time"

	"memowriter/internal/convo"
	"memowriter/internal/models"
)

// RunWaiter blocks the calling worker until an assistant run reaches a
// terminal state, sleeping a fixed interval between status checks. The
// poll budget bounds the wait; exhausting it surfaces ErrRunTimeout with
// no partial reply.
type RunWaiter struct {
	tracker  *convo.Tracker
	interval time.Duration
	maxPolls int
}

// NewRunWaiter configures the blocking run wait.
func NewRunWaiter(tracker *convo.Tracker, interval time.Duration, maxPolls int) *RunWaiter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}
	return &RunWaiter{
		tracker:  tracker,
		interval: interval,
		maxPolls: maxPolls,
	}
}

// Wait polls the run until it succeeds, fails, or the budget runs out.
func (w *RunWaiter) Wait(ctx context.Context, handle convo.RunHandle) (convo.Result, error) {
	for attempt := 1; attempt <= w.maxPolls; attempt++ {
		res, err := w.tracker.Poll(ctx, handle)
		if err != nil {
			return convo.Result{}, err
		}
		if res.Status != convo.StatusPending {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return convo.Result{}, ctx.Err()
		case <-time.After(w.interval):
		}
	}
	return convo.Result{}, models.ErrRunTimeout
}
