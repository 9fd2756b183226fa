package models

import (
	"testing"
	"time"
)

func TestRunElapsedFormat(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		offset time.Duration
		want   string
	}{
		{0, "00:00:00"},
		{42 * time.Second, "00:00:42"},
		{5*time.Minute + 3*time.Second, "00:05:03"},
		{2*time.Hour + 7*time.Minute + 9*time.Second, "02:07:09"},
	}
	for _, tc := range cases {
		done := start.Add(tc.offset)
		run := ConversationRun{CreatedAt: start, CompletedAt: &done}
		if got := run.Elapsed(); got != tc.want {
			t.Fatalf("Elapsed(%s) = %q, want %q", tc.offset, got, tc.want)
		}
	}
}

func TestRunElapsedOpenRun(t *testing.T) {
	run := ConversationRun{CreatedAt: time.Now().UTC()}
	if got := run.Elapsed(); got != "" {
		t.Fatalf("open run must report no elapsed time, got %q", got)
	}
}
