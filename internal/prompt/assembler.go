package prompt

import "strings"

// TruncationMarker is appended to a section whose text was cut at the cap.
const TruncationMarker = "...[truncated]"

// Section is one labeled block of extracted document text.
type Section struct {
	Label string
	Text  string
}

// Assembler concatenates the fixed role description, the extracted
// document sections, and the user's free-form text into one outbound
// message. It holds no state beyond its configuration, so identical
// inputs always yield the identical string.
type Assembler struct {
	roleDescription string
	sectionLimit    int
}

// NewAssembler configures the assembler. sectionLimit caps each section's
// text in runes; a non-positive limit disables truncation.
func NewAssembler(roleDescription string, sectionLimit int) *Assembler {
	return &Assembler{
		roleDescription: roleDescription,
		sectionLimit:    sectionLimit,
	}
}

// Assemble builds the outbound prompt. Sections appear in the order given,
// each under its label, each individually truncated, followed by the user
// text. Sections with empty text are skipped.
func (a *Assembler) Assemble(sections []Section, userText string) string {
	var sb strings.Builder
	if a.roleDescription != "" {
		sb.WriteString(a.roleDescription)
		sb.WriteString("\n\n")
	}
	for _, section := range sections {
		if section.Text == "" {
			continue
		}
		sb.WriteString("--- ")
		sb.WriteString(section.Label)
		sb.WriteString(" ---\n")
		sb.WriteString(Truncate(section.Text, a.sectionLimit))
		sb.WriteString("\n\n")
	}
	sb.WriteString(userText)
	return sb.String()
}

// Truncate cuts text to limit runes and appends the marker when it cut
// anything, bounding prompt size regardless of document length.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + TruncationMarker
}
