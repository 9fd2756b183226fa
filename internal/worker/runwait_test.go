package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"memowriter/internal/convo"
	"memowriter/internal/models"
)

// slowRunThread completes the run after a fixed number of status reads.
type slowRunThread struct {
	mu          sync.Mutex
	getCalls    int
	pendingFor  int
	startedAt   time.Time
	replyText   string
	neverFinish bool
}

func (f *slowRunThread) AppendMessage(ctx context.Context, threadID, role, text string) (string, error) {
	return "msg-1", nil
}

func (f *slowRunThread) StartRun(ctx context.Context, threadID, assistantID, instructions string) (convo.RunInfo, error) {
	f.startedAt = time.Now().UTC()
	return convo.RunInfo{RunID: "run-1", CreatedAt: f.startedAt}, nil
}

func (f *slowRunThread) GetRun(ctx context.Context, threadID, runID string) (convo.RunInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.neverFinish || f.getCalls <= f.pendingFor {
		return convo.RunInfo{RunID: runID}, nil
	}
	done := time.Now().UTC()
	return convo.RunInfo{RunID: runID, CompletedAt: &done}, nil
}

func (f *slowRunThread) ListMessages(ctx context.Context, threadID string) ([]convo.ThreadMessage, error) {
	return []convo.ThreadMessage{{ID: "m2", Role: "assistant", Text: f.replyText}}, nil
}

func TestRunWaiterBlocksUntilTerminal(t *testing.T) {
	api := &slowRunThread{pendingFor: 2, replyText: "Memo draft."}
	tracker := convo.NewTracker(api, "thread-1", "asst-1", "")
	handle, err := tracker.Submit(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	waiter := NewRunWaiter(tracker, time.Millisecond, 10)
	res, err := waiter.Wait(context.Background(), handle)
	if err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if res.Status != convo.StatusSucceeded || res.Reply != "Memo draft." {
		t.Fatalf("unexpected result: %#v", res)
	}
	if api.getCalls != 3 {
		t.Fatalf("expected 3 status reads, got %d", api.getCalls)
	}
}

func TestRunWaiterBudgetExhausted(t *testing.T) {
	api := &slowRunThread{neverFinish: true}
	tracker := convo.NewTracker(api, "thread-1", "asst-1", "")
	handle, _ := tracker.Submit(context.Background(), "prompt")

	waiter := NewRunWaiter(tracker, time.Millisecond, 3)
	_, err := waiter.Wait(context.Background(), handle)
	if !errors.Is(err, models.ErrRunTimeout) {
		t.Fatalf("expected run timeout, got %v", err)
	}
	if api.getCalls != 3 {
		t.Fatalf("budget of 3 must yield 3 status reads, got %d", api.getCalls)
	}
}

func TestRunWaiterContextCancel(t *testing.T) {
	api := &slowRunThread{neverFinish: true}
	tracker := convo.NewTracker(api, "thread-1", "asst-1", "")
	handle, _ := tracker.Submit(context.Background(), "prompt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	waiter := NewRunWaiter(tracker, time.Hour, 10)
	if _, err := waiter.Wait(ctx, handle); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
