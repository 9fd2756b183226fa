package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAssembleOrderAndLabels(t *testing.T) {
	asm := NewAssembler("You are a loan analyst.", 0)
	got := asm.Assemble([]Section{
		{Label: "Term Sheet", Text: "Loan Amount: $5M"},
		{Label: "Appraisal", Text: "Value: $8M"},
	}, "Draft the memo.")

	want := "You are a loan analyst.\n\n" +
		"--- Term Sheet ---\nLoan Amount: $5M\n\n" +
		"--- Appraisal ---\nValue: $8M\n\n" +
		"Draft the memo."
	if got != want {
		t.Fatalf("assembled prompt mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestAssembleSkipsEmptySections(t *testing.T) {
	asm := NewAssembler("", 0)
	got := asm.Assemble([]Section{
		{Label: "Term Sheet", Text: ""},
		{Label: "Appraisal", Text: "Value: $8M"},
	}, "Question?")
	if strings.Contains(got, "Term Sheet") {
		t.Fatalf("empty section should be skipped: %q", got)
	}
	if !strings.Contains(got, "--- Appraisal ---") {
		t.Fatalf("non-empty section missing: %q", got)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	asm := NewAssembler("role", 100)
	sections := []Section{{Label: "A", Text: strings.Repeat("x", 200)}}
	first := asm.Assemble(sections, "q")
	second := asm.Assemble(sections, "q")
	if first != second {
		t.Fatalf("identical inputs produced different prompts")
	}
}

func TestTruncateRuneCap(t *testing.T) {
	// Multi-byte text must be cut at rune boundaries, never mid-character.
	text := strings.Repeat("日", 50)
	got := Truncate(text, 10)
	want := strings.Repeat("日", 10) + TruncationMarker
	if got != want {
		t.Fatalf("truncate mismatch: got %q want %q", got, want)
	}
	if gotLen := utf8.RuneCountInString(got); gotLen != 10+utf8.RuneCountInString(TruncationMarker) {
		t.Fatalf("truncated length %d, want cap plus marker", gotLen)
	}
}

func TestTruncateAtOrUnderLimit(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("text under the cap must pass through: %q", got)
	}
	exact := strings.Repeat("a", 10)
	if got := Truncate(exact, 10); got != exact {
		t.Fatalf("text exactly at the cap must pass through: %q", got)
	}
}

func TestTruncateDisabled(t *testing.T) {
	long := strings.Repeat("a", 5000)
	if got := Truncate(long, 0); got != long {
		t.Fatalf("non-positive limit must disable truncation")
	}
}
