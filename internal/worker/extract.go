package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"memowriter/internal/models"
	"memowriter/internal/ocr"
	"memowriter/internal/session"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxPolls     = 60
)

// Extractor is the blocking counterpart of the tick-driven reconciler:
// it runs one worker per slot, each poll-sleeping until its job reaches a
// terminal state, and returns only when every worker has finished. Each
// worker writes only its own slot key, so no two writers ever touch the
// same slot.
type Extractor struct {
	tracker  *ocr.Tracker
	interval time.Duration
	maxPolls int
}

// NewExtractor configures the blocking extraction path.
func NewExtractor(tracker *ocr.Tracker, interval time.Duration, maxPolls int) *Extractor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}
	return &Extractor{
		tracker:  tracker,
		interval: interval,
		maxPolls: maxPolls,
	}
}

// ExtractAll drives every named slot to a terminal phase and joins all
// workers before returning, so prompt assembly never sees a partially
// extracted document. Slots already terminal or still idle are left alone.
func (e *Extractor) ExtractAll(ctx context.Context, state *session.State, slotIDs []string) {
	var wg sync.WaitGroup
	for _, slotID := range slotIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			e.extractSlot(ctx, state, id)
		}(slotID)
	}
	wg.Wait()
}

func (e *Extractor) extractSlot(ctx context.Context, state *session.State, slotID string) {
	snapshot, ok := state.Slot(slotID)
	if !ok {
		return
	}

	if snapshot.Phase == models.PhaseUploading {
		handle, err := e.tracker.Start(ctx, ocr.DocumentRef{Bucket: snapshot.Bucket, Key: snapshot.Key})
		if err != nil {
			log.Printf("slot %s: start extraction failed: %v", slotID, err)
			_ = state.UpdateSlot(slotID, func(slot *models.UploadSlot) {
				slot.MarkFailed(fmt.Sprintf("%v: %v", models.ErrExtractionFailed, err))
			})
			return
		}
		_ = state.UpdateSlot(slotID, func(slot *models.UploadSlot) {
			slot.MarkPending(handle.JobID)
		})
		snapshot, _ = state.Slot(slotID)
	}

	if snapshot == nil || snapshot.Phase != models.PhaseExtractionPending {
		return
	}
	handle := ocr.JobHandle{
		JobID: snapshot.JobID,
		Ref:   ocr.DocumentRef{Bucket: snapshot.Bucket, Key: snapshot.Key},
	}

	for attempt := 1; attempt <= e.maxPolls; attempt++ {
		res, err := e.tracker.Poll(ctx, handle)
		if err != nil {
			_ = state.UpdateSlot(slotID, func(slot *models.UploadSlot) {
				slot.MarkFailed(fmt.Sprintf("%v: %v", models.ErrExtractionFailed, err))
			})
			return
		}
		switch res.Status {
		case ocr.StatusSucceeded:
			_ = state.UpdateSlot(slotID, func(slot *models.UploadSlot) {
				slot.MarkDone(res.Text)
			})
			// The slot holds the text now; release the tracker's copy.
			e.tracker.Forget(handle.JobID)
			return
		case ocr.StatusFailed:
			_ = state.UpdateSlot(slotID, func(slot *models.UploadSlot) {
				slot.MarkFailed(fmt.Sprintf("%v: %s", models.ErrExtractionFailed, res.Reason))
			})
			e.tracker.Forget(handle.JobID)
			return
		}

		select {
		case <-ctx.Done():
			_ = state.UpdateSlot(slotID, func(slot *models.UploadSlot) {
				slot.MarkFailed(fmt.Sprintf("%v: %v", models.ErrExtractionFailed, ctx.Err()))
			})
			return
		case <-time.After(e.interval):
		}
	}

	e.tracker.Forget(handle.JobID)
	_ = state.UpdateSlot(slotID, func(slot *models.UploadSlot) {
		slot.MarkFailed(fmt.Sprintf("%v after %d polls", models.ErrExtractionTimeout, e.maxPolls))
	})
}
