package convo

import (
	"context"
	"errors"
	"fmt"
	"log"

	"memowriter/internal/models"
)

const userRole = "user"

// Tracker appends prompts to the deployment's persistent thread and
// follows assistant runs to completion, one status read per Poll.
type Tracker struct {
	api          ThreadAPI
	threadID     string
	assistantID  string
	instructions string
}

// NewTracker binds the tracker to the pre-provisioned thread and assistant.
func NewTracker(api ThreadAPI, threadID, assistantID, instructions string) *Tracker {
	return &Tracker{
		api:          api,
		threadID:     threadID,
		assistantID:  assistantID,
		instructions: instructions,
	}
}

// Submit appends one user message to the thread and starts a run with the
// fixed instruction, returning immediately with the run handle.
func (t *Tracker) Submit(ctx context.Context, promptText string) (RunHandle, error) {
	if promptText == "" {
		return RunHandle{}, errors.New("prompt text required")
	}
	if _, err := t.api.AppendMessage(ctx, t.threadID, userRole, promptText); err != nil {
		return RunHandle{}, fmt.Errorf("append message: %w", err)
	}
	info, err := t.api.StartRun(ctx, t.threadID, t.assistantID, t.instructions)
	if err != nil {
		return RunHandle{}, fmt.Errorf("start run: %w", err)
	}
	return RunHandle{ThreadID: t.threadID, RunID: info.RunID, CreatedAt: info.CreatedAt}, nil
}

// Poll retrieves the run once. Terminal success is the presence of a
// completion timestamp; the reply is then the text of the single newest
// thread entry in the service's own ordering. Lookup failures surface as
// a failed result so the caller can offer a retry, never as a retry here.
func (t *Tracker) Poll(ctx context.Context, handle RunHandle) (Result, error) {
	if handle.RunID == "" {
		return Result{}, errors.New("run handle required")
	}
	info, err := t.api.GetRun(ctx, handle.ThreadID, handle.RunID)
	if err != nil {
		return Result{Status: StatusFailed, Reason: fmt.Sprintf("retrieve run: %v", err)}, nil
	}
	if info.CompletedAt == nil {
		return Result{Status: StatusPending}, nil
	}

	run := models.ConversationRun{
		ThreadID:    handle.ThreadID,
		RunID:       handle.RunID,
		CreatedAt:   handle.CreatedAt,
		CompletedAt: info.CompletedAt,
	}
	elapsed := run.Elapsed()
	log.Printf("run %s completed in %s", handle.RunID, elapsed)

	messages, err := t.api.ListMessages(ctx, handle.ThreadID)
	if err != nil {
		return Result{Status: StatusFailed, Reason: fmt.Sprintf("list messages: %v", err)}, nil
	}
	if len(messages) == 0 {
		return Result{Status: StatusFailed, Reason: "thread has no messages"}, nil
	}
	// The thread also holds our own appended message and prior turns; the
	// newest entry is the assistant's reply.
	return Result{Status: StatusSucceeded, Reply: messages[0].Text, Elapsed: elapsed}, nil
}
