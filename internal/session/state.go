package session

import (
	"sync"
	"time"

	"memowriter/internal/config"
	"memowriter/internal/convo"
	"memowriter/internal/models"
)

// State is the explicit per-session state object that survives the UI's
// re-entrant request cycle: one upload slot per configured position plus
// the in-flight assistant run, if any. It replaces the ambient session
// dictionary the tool grew up with; everything in here has defined
// initial values and dies with the session.
type State struct {
	ID string

	// tickMu serializes reconciliation so a handle is polled at most once
	// per UI cycle even if the browser double-fires.
	tickMu sync.Mutex

	mu         sync.RWMutex
	slots      map[string]*models.UploadSlot
	order      []string
	run        *convo.RunHandle
	runResult  *convo.Result
	runPolls   int
	lastActive time.Time
}

func newState(id string, slotCfgs []config.SlotConfig) *State {
	s := &State{
		ID:         id,
		slots:      make(map[string]*models.UploadSlot, len(slotCfgs)),
		order:      make([]string, 0, len(slotCfgs)),
		lastActive: time.Now().UTC(),
	}
	for _, cfg := range slotCfgs {
		label := cfg.Label
		if label == "" {
			label = cfg.ID
		}
		s.slots[cfg.ID] = models.NewUploadSlot(cfg.ID, label)
		s.order = append(s.order, cfg.ID)
	}
	return s
}

// Slot returns a copy of one slot.
func (s *State) Slot(slotID string) (*models.UploadSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return nil, false
	}
	return slot.Clone(), true
}

// Slots returns copies of every slot in configured order.
func (s *State) Slots() []*models.UploadSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UploadSlot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.slots[id].Clone())
	}
	return out
}

// UpdateSlot runs fn on the live slot under the state lock. Callers must
// not block inside fn; service calls happen outside and feed their
// outcome back through another UpdateSlot.
func (s *State) UpdateSlot(slotID string, fn func(*models.UploadSlot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return models.ErrSlotUnknown
	}
	fn(slot)
	s.lastActive = time.Now().UTC()
	return nil
}

// SetRun records the in-flight run handle, replacing any prior one, and
// clears the previous result.
func (s *State) SetRun(handle convo.RunHandle) {
	s.mu.Lock()
	s.run = &handle
	s.runResult = nil
	s.runPolls = 0
	s.lastActive = time.Now().UTC()
	s.mu.Unlock()
}

// Run returns the stored run handle, if any.
func (s *State) Run() (convo.RunHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.run == nil {
		return convo.RunHandle{}, false
	}
	return *s.run, true
}

// SetRunResult stores a terminal poll outcome so later reads do not hit
// the service again.
func (s *State) SetRunResult(res convo.Result) {
	s.mu.Lock()
	s.runResult = &res
	s.lastActive = time.Now().UTC()
	s.mu.Unlock()
}

// RunResult returns the cached terminal outcome, if any.
func (s *State) RunResult() (convo.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.runResult == nil {
		return convo.Result{}, false
	}
	return *s.runResult, true
}

// RunPolls counts poll attempts for the current run.
func (s *State) RunPolls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runPolls
}

// IncRunPolls bumps and returns the poll attempt counter.
func (s *State) IncRunPolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runPolls++
	return s.runPolls
}

func (s *State) touch() {
	s.mu.Lock()
	s.lastActive = time.Now().UTC()
	s.mu.Unlock()
}

func (s *State) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}
