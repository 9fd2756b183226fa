package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"memowriter/internal/models"
	"memowriter/internal/ocr"
)

const (
	DefaultMaxExtractionPolls = 60
	DefaultTickRetryDelay     = 3 * time.Second
)

// Reconciler drives every slot's extraction lifecycle across the UI's
// repeated request cycle. Each Tick starts jobs for freshly uploaded
// documents and polls each pending handle exactly once; the UI re-enters
// after RetryAfter while anything is still pending. It is the only
// writer of slot state in this model.
type Reconciler struct {
	tracker    *ocr.Tracker
	maxPolls   int
	retryDelay time.Duration
}

// TickReport is the snapshot handed back to the UI after one cycle.
type TickReport struct {
	Slots      []*models.UploadSlot
	Pending    bool
	RetryAfter time.Duration
}

// NewReconciler wires the reconciler to the OCR tracker. maxPolls bounds
// how many cycles a job may stay pending before it is abandoned as timed
// out; retryDelay is the re-entry hint reported while work is pending.
func NewReconciler(tracker *ocr.Tracker, maxPolls int, retryDelay time.Duration) *Reconciler {
	if maxPolls <= 0 {
		maxPolls = DefaultMaxExtractionPolls
	}
	if retryDelay <= 0 {
		retryDelay = DefaultTickRetryDelay
	}
	return &Reconciler{
		tracker:    tracker,
		maxPolls:   maxPolls,
		retryDelay: retryDelay,
	}
}

// Tick runs one reconciliation cycle over the session's slots. Ticks for
// the same session never overlap, so no handle is polled twice in one
// cycle and no job is started while a handle is still recorded.
func (r *Reconciler) Tick(ctx context.Context, state *State) TickReport {
	state.tickMu.Lock()
	defer state.tickMu.Unlock()

	for _, snapshot := range state.Slots() {
		switch snapshot.Phase {
		case models.PhaseUploading:
			r.startJob(ctx, state, snapshot)
		case models.PhaseExtractionPending:
			r.pollJob(ctx, state, snapshot)
		}
	}

	report := TickReport{Slots: state.Slots()}
	for _, slot := range report.Slots {
		if slot.Phase == models.PhaseUploading || slot.Phase == models.PhaseExtractionPending {
			report.Pending = true
			report.RetryAfter = r.retryDelay
			break
		}
	}
	return report
}

func (r *Reconciler) startJob(ctx context.Context, state *State, snapshot *models.UploadSlot) {
	handle, err := r.tracker.Start(ctx, ocr.DocumentRef{Bucket: snapshot.Bucket, Key: snapshot.Key})
	if err != nil {
		log.Printf("slot %s: start extraction failed: %v", snapshot.SlotID, err)
		_ = state.UpdateSlot(snapshot.SlotID, func(slot *models.UploadSlot) {
			slot.MarkFailed(fmt.Sprintf("%v: %v", models.ErrExtractionFailed, err))
		})
		return
	}
	_ = state.UpdateSlot(snapshot.SlotID, func(slot *models.UploadSlot) {
		// The slot may have been re-uploaded between the snapshot and now;
		// only record the handle if it is still waiting for one.
		if slot.Phase == models.PhaseUploading {
			slot.MarkPending(handle.JobID)
		}
	})
}

func (r *Reconciler) pollJob(ctx context.Context, state *State, snapshot *models.UploadSlot) {
	handle := ocr.JobHandle{
		JobID: snapshot.JobID,
		Ref:   ocr.DocumentRef{Bucket: snapshot.Bucket, Key: snapshot.Key},
	}
	res, err := r.tracker.Poll(ctx, handle)
	if err != nil {
		_ = state.UpdateSlot(snapshot.SlotID, func(slot *models.UploadSlot) {
			slot.MarkFailed(fmt.Sprintf("%v: %v", models.ErrExtractionFailed, err))
		})
		return
	}

	settled := false
	_ = state.UpdateSlot(snapshot.SlotID, func(slot *models.UploadSlot) {
		if slot.JobID != handle.JobID {
			// Slot was reset mid-poll; drop this job's outcome.
			settled = true
			return
		}
		switch res.Status {
		case ocr.StatusSucceeded:
			slot.MarkDone(res.Text)
			settled = true
		case ocr.StatusFailed:
			slot.MarkFailed(fmt.Sprintf("%v: %s", models.ErrExtractionFailed, res.Reason))
			settled = true
		case ocr.StatusPending:
			slot.PollCount++
			if slot.PollCount >= r.maxPolls {
				slot.MarkFailed(fmt.Sprintf("%v after %d polls", models.ErrExtractionTimeout, slot.PollCount))
				settled = true
			}
		}
	})
	if settled {
		// The slot has absorbed or abandoned this job; MarkDone dropped the
		// JobID, so the cached text must be released here or never.
		r.tracker.Forget(handle.JobID)
	}
}
