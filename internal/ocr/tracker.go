package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Tracker starts asynchronous detection jobs and turns their paginated
// results into a single text blob. It never blocks waiting for a job:
// each Poll performs exactly one status read, so it is safe to drive from
// a request/response cycle that re-enters on a timer.
type Tracker struct {
	api DetectionAPI

	mu   sync.Mutex
	done map[string]string // jobID -> assembled text
}

// NewTracker wraps a detection API.
func NewTracker(api DetectionAPI) *Tracker {
	return &Tracker{
		api:  api,
		done: make(map[string]string),
	}
}

// Start issues one detection request and returns the opaque handle.
func (t *Tracker) Start(ctx context.Context, ref DocumentRef) (JobHandle, error) {
	if ref.Key == "" {
		return JobHandle{}, errors.New("document key required")
	}
	jobID, err := t.api.StartDetection(ctx, ref)
	if err != nil {
		return JobHandle{}, fmt.Errorf("start detection for %s: %w", ref.Key, err)
	}
	return JobHandle{JobID: jobID, Ref: ref}, nil
}

// Poll reads the job status once. On success it fetches every result page
// and caches the assembled text, so polling a finished job again returns
// the identical text without re-reading pages. Failure carries the
// service-provided reason and is never retried here.
func (t *Tracker) Poll(ctx context.Context, handle JobHandle) (Result, error) {
	if handle.JobID == "" {
		return Result{}, errors.New("job handle required")
	}

	t.mu.Lock()
	if text, ok := t.done[handle.JobID]; ok {
		t.mu.Unlock()
		return Result{Status: StatusSucceeded, Text: text}, nil
	}
	t.mu.Unlock()

	status, reason, err := t.api.JobStatus(ctx, handle.JobID)
	if err != nil {
		return Result{}, fmt.Errorf("job status %s: %w", handle.JobID, err)
	}
	switch status {
	case StatusPending:
		return Result{Status: StatusPending}, nil
	case StatusFailed:
		return Result{Status: StatusFailed, Reason: reason}, nil
	case StatusSucceeded:
		text, err := t.collectText(ctx, handle.JobID)
		if err != nil {
			return Result{}, err
		}
		t.mu.Lock()
		t.done[handle.JobID] = text
		t.mu.Unlock()
		return Result{Status: StatusSucceeded, Text: text}, nil
	default:
		return Result{}, fmt.Errorf("unexpected job status %q", status)
	}
}

// Forget drops the cached text for a job, e.g. when its slot is reset.
func (t *Tracker) Forget(jobID string) {
	t.mu.Lock()
	delete(t.done, jobID)
	t.mu.Unlock()
}

// collectText walks every result page in order and joins each line-type
// fragment with a trailing line break, preserving top-to-bottom order
// within a page and natural page order across pages.
func (t *Tracker) collectText(ctx context.Context, jobID string) (string, error) {
	var sb strings.Builder
	token := ""
	for {
		page, err := t.api.ResultPage(ctx, jobID, token)
		if err != nil {
			return "", fmt.Errorf("fetch results %s: %w", jobID, err)
		}
		for _, line := range page.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		if page.NextToken == "" {
			return sb.String(), nil
		}
		token = page.NextToken
	}
}
