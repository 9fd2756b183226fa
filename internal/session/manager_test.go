package session

import (
	"errors"
	"testing"
	"time"

	"memowriter/internal/models"
)

func TestManagerCreateGetDestroy(t *testing.T) {
	mgr := NewManager(testSlots(), time.Hour)

	state, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if state.ID == "" {
		t.Fatalf("expected session id")
	}
	slots := state.Slots()
	if len(slots) != 2 || slots[0].SlotID != "term_sheet" || slots[1].SlotID != "appraisal" {
		t.Fatalf("slots not created in configured order: %#v", slots)
	}
	for _, slot := range slots {
		if slot.Phase != models.PhaseIdle {
			t.Fatalf("fresh slot must be idle: %#v", slot)
		}
	}

	got, err := mgr.Get(state.ID)
	if err != nil || got.ID != state.ID {
		t.Fatalf("Get failed: %v", err)
	}

	mgr.Destroy(state.ID)
	if _, err := mgr.Get(state.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("expected not found after destroy, got %v", err)
	}
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	mgr := NewManager(testSlots(), 20*time.Millisecond)

	stale, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	fresh, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	fresh.touch()
	mgr.cleanupExpired()

	if _, err := mgr.Get(stale.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("idle session should have expired, got %v", err)
	}
	if _, err := mgr.Get(fresh.ID); err != nil {
		t.Fatalf("active session must survive cleanup: %v", err)
	}
	if mgr.Len() != 1 {
		t.Fatalf("expected one live session, got %d", mgr.Len())
	}
}

func TestManagerGetTouchesSession(t *testing.T) {
	mgr := NewManager(testSlots(), 20*time.Millisecond)
	state, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	time.Sleep(15 * time.Millisecond)
	if _, err := mgr.Get(state.ID); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	time.Sleep(15 * time.Millisecond)
	mgr.cleanupExpired()
	if _, err := mgr.Get(state.ID); err != nil {
		t.Fatalf("touched session should not expire: %v", err)
	}
}

func TestManagerSessionCap(t *testing.T) {
	mgr := NewManager(testSlots(), time.Hour)
	for i := 0; i < maxSessions; i++ {
		if _, err := mgr.Create(); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := mgr.Create(); err == nil {
		t.Fatalf("expected cap error at %d sessions", maxSessions)
	}
}
