package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"memowriter/internal/convo"
	"memowriter/internal/models"
	"memowriter/internal/prompt"
)

const syncMemoTimeout = 10 * time.Minute

type memoRequest struct {
	Question string `json:"question"`
}

// submitMemo assembles the prompt from every finished slot and starts an
// assistant run, returning immediately. Failed slots are simply left out:
// an extraction failure never blocks submission with the slots that
// succeeded. A re-submission replaces any earlier run handle.
func (h *Handler) submitMemo(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	var req memoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	assembled := h.assembler.Assemble(h.doneSections(state.Slots()), question)
	handle, err := h.runs.Submit(c.Request.Context(), assembled)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": models.ErrRunFailed.Error() + ": " + err.Error()})
		return
	}
	state.SetRun(handle)
	c.JSON(http.StatusAccepted, gin.H{"run_id": handle.RunID})
}

// pollMemo reads the run state once per call. Terminal outcomes are
// cached on the session so the UI can re-read them without another
// service round trip.
func (h *Handler) pollMemo(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	if res, ok := state.RunResult(); ok {
		h.writeRunResult(c, res)
		return
	}
	handle, ok := state.Run()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run submitted"})
		return
	}

	res, err := h.runs.Poll(c.Request.Context(), handle)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if res.Status == convo.StatusPending {
		if state.IncRunPolls() >= h.maxRunPolls {
			res = convo.Result{Status: convo.StatusFailed, Reason: models.ErrRunTimeout.Error()}
			state.SetRunResult(res)
			h.writeRunResult(c, res)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": convo.StatusPending})
		return
	}
	state.SetRunResult(res)
	h.writeRunResult(c, res)
}

// writeMemoSync is the blocking path: extract every outstanding document
// on its own worker, join, assemble, then wait out the run in-process.
func (h *Handler) writeMemoSync(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	var req memoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), syncMemoTimeout)
	defer cancel()

	slots := state.Slots()
	slotIDs := make([]string, 0, len(slots))
	for _, slot := range slots {
		slotIDs = append(slotIDs, slot.SlotID)
	}
	h.extractor.ExtractAll(ctx, state, slotIDs)

	assembled := h.assembler.Assemble(h.doneSections(state.Slots()), question)
	handle, err := h.runs.Submit(ctx, assembled)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": models.ErrRunFailed.Error() + ": " + err.Error()})
		return
	}
	state.SetRun(handle)

	res, err := h.runWaiter.Wait(ctx, handle)
	if err != nil {
		if errors.Is(err, models.ErrRunTimeout) {
			res = convo.Result{Status: convo.StatusFailed, Reason: models.ErrRunTimeout.Error()}
			state.SetRunResult(res)
		}
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	state.SetRunResult(res)
	if res.Status == convo.StatusFailed {
		c.JSON(http.StatusBadGateway, gin.H{"error": res.Reason, "slots": state.Slots()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply":   res.Reply,
		"elapsed": res.Elapsed,
		"slots":   state.Slots(),
	})
}

func (h *Handler) writeRunResult(c *gin.Context, res convo.Result) {
	switch res.Status {
	case convo.StatusSucceeded:
		c.JSON(http.StatusOK, gin.H{
			"status":  res.Status,
			"reply":   res.Reply,
			"elapsed": res.Elapsed,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status": convo.StatusFailed,
			"error":  res.Reason,
		})
	}
}

func (h *Handler) doneSections(slots []*models.UploadSlot) []prompt.Section {
	sections := make([]prompt.Section, 0, len(slots))
	for _, slot := range slots {
		if slot.Phase != models.PhaseExtractionDone {
			continue
		}
		sections = append(sections, prompt.Section{Label: slot.Label, Text: slot.ExtractedText})
	}
	return sections
}
