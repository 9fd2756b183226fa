package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"memowriter/internal/convo"
	"memowriter/internal/docstore"
	"memowriter/internal/gate"
	"memowriter/internal/models"
	"memowriter/internal/prompt"
	"memowriter/internal/session"
	"memowriter/internal/worker"
)

// Handler wires HTTP routes to the session manager and the job trackers.
type Handler struct {
	sessions   *session.Manager
	reconciler *session.Reconciler
	gate       *gate.Service
	store      docstore.Store
	bucket     string
	runs       *convo.Tracker
	assembler  *prompt.Assembler
	extractor  *worker.Extractor
	runWaiter  *worker.RunWaiter

	maxRunPolls int
}

// HandlerConfig collects the collaborators the handler needs.
type HandlerConfig struct {
	Sessions    *session.Manager
	Reconciler  *session.Reconciler
	Gate        *gate.Service
	Store       docstore.Store
	Bucket      string
	Runs        *convo.Tracker
	Assembler   *prompt.Assembler
	Extractor   *worker.Extractor
	RunWaiter   *worker.RunWaiter
	MaxRunPolls int
}

// NewHandler constructs a Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	maxRunPolls := cfg.MaxRunPolls
	if maxRunPolls <= 0 {
		maxRunPolls = worker.DefaultMaxPolls
	}
	return &Handler{
		sessions:    cfg.Sessions,
		reconciler:  cfg.Reconciler,
		gate:        cfg.Gate,
		store:       cfg.Store,
		bucket:      cfg.Bucket,
		runs:        cfg.Runs,
		assembler:   cfg.Assembler,
		extractor:   cfg.Extractor,
		runWaiter:   cfg.RunWaiter,
		maxRunPolls: maxRunPolls,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/gate", h.enterGate)

	sessions := api.Group("/sessions")
	sessions.Use(h.gate.Middleware())
	sessions.POST("", h.createSession)
	sessions.DELETE("/:id", h.deleteSession)
	sessions.POST("/:id/slots/:slot_id/upload", h.uploadDocument)
	sessions.POST("/:id/tick", h.tick)
	sessions.POST("/:id/memo", h.submitMemo)
	sessions.GET("/:id/memo", h.pollMemo)
	sessions.POST("/:id/memo/sync", h.writeMemoSync)
}

func (h *Handler) enterGate(c *gin.Context) {
	var req struct {
		AccessCode string `json:"access_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	token, err := h.gate.Authenticate(c.Request.Context(), req.AccessCode)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) createSession(c *gin.Context) {
	state, err := h.sessions.Create()
	if err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": state.ID,
		"slots":      state.Slots(),
	})
}

func (h *Handler) deleteSession(c *gin.Context) {
	h.sessions.Destroy(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) sessionState(c *gin.Context) (*session.State, bool) {
	state, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return state, true
}

const maxUploadBytes = 10 << 20 // 10 MB

var allowedContentTypes = []string{
	"application/pdf",
	"application/zip", // docx containers sniff as zip
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/png",
	"image/jpeg",
}

func isAllowedContentType(ct string) bool {
	for _, allowed := range allowedContentTypes {
		if strings.HasPrefix(ct, allowed) {
			return true
		}
	}
	return false
}

// uploadDocument stores the file bytes and resets the slot for a fresh
// extraction. Re-uploading into a finished slot clears its prior text
// here, before any new job exists, so stale context can never leak into
// an assembled prompt.
func (h *Handler) uploadDocument(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	slotID := c.Param("slot_id")
	if _, ok := state.Slot(slotID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrSlotUnknown.Error()})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return
	}
	sniffLen := len(body)
	if sniffLen > 512 {
		sniffLen = 512
	}
	contentType := http.DetectContentType(body[:sniffLen])
	if !isAllowedContentType(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}

	// The original file name is the storage key; a same-named re-upload
	// overwrites the stored object.
	key := filepath.Base(file.Filename)
	if err := h.store.Put(c.Request.Context(), key, body, contentType); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err := state.UpdateSlot(slotID, func(slot *models.UploadSlot) {
		slot.MarkUploaded(key, h.bucket, key)
	}); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	slot, _ := state.Slot(slotID)
	c.JSON(http.StatusCreated, gin.H{
		"slot": slot,
		"size": file.Size,
		"mime": contentType,
	})
}

// tick runs one reconciliation cycle and reports the slot snapshot. The
// UI re-enters after retry_after_ms while anything is still pending.
func (h *Handler) tick(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	report := h.reconciler.Tick(c.Request.Context(), state)
	resp := gin.H{
		"slots":   report.Slots,
		"pending": report.Pending,
	}
	if report.Pending {
		resp["retry_after_ms"] = report.RetryAfter.Milliseconds()
	}
	c.JSON(http.StatusOK, resp)
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrRunTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrSlotUnknown):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
