package models

import "time"

// SlotPhase is the lifecycle phase of one upload slot.
type SlotPhase string

const (
	PhaseIdle              SlotPhase = "idle"
	PhaseUploading         SlotPhase = "uploading"
	PhaseExtractionPending SlotPhase = "extraction_pending"
	PhaseExtractionDone    SlotPhase = "extraction_done"
	PhaseExtractionFailed  SlotPhase = "extraction_failed"
)

// Terminal reports whether no further transition can occur for the phase.
func (p SlotPhase) Terminal() bool {
	return p == PhaseExtractionDone || p == PhaseExtractionFailed
}

// UploadSlot tracks one named upload position through its extraction
// lifecycle. The phase decides which of JobID and ExtractedText is
// populated: JobID only while extraction_pending, ExtractedText only once
// extraction_done, neither otherwise. Callers must go through the
// mutators so the pairing cannot drift.
type UploadSlot struct {
	SlotID        string    `json:"slot_id"`
	Label         string    `json:"label"`
	FileName      string    `json:"file_name,omitempty"`
	Phase         SlotPhase `json:"phase"`
	JobID         string    `json:"job_id,omitempty"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	FailReason    string    `json:"fail_reason,omitempty"`
	PollCount     int       `json:"poll_count,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Bucket/Key locate the stored bytes while an upload awaits a job.
	Bucket string `json:"-"`
	Key    string `json:"-"`
}

// NewUploadSlot returns an idle slot for the given position.
func NewUploadSlot(slotID, label string) *UploadSlot {
	return &UploadSlot{
		SlotID:    slotID,
		Label:     label,
		Phase:     PhaseIdle,
		UpdatedAt: time.Now().UTC(),
	}
}

// MarkUploaded records the stored document and clears any prior result so
// a re-upload can never leak the previous file's text into a prompt.
func (s *UploadSlot) MarkUploaded(fileName, bucket, key string) {
	s.FileName = fileName
	s.Bucket = bucket
	s.Key = key
	s.Phase = PhaseUploading
	s.JobID = ""
	s.ExtractedText = ""
	s.FailReason = ""
	s.PollCount = 0
	s.UpdatedAt = time.Now().UTC()
}

// MarkPending records the detection job handle returned by the OCR service.
func (s *UploadSlot) MarkPending(jobID string) {
	s.Phase = PhaseExtractionPending
	s.JobID = jobID
	s.ExtractedText = ""
	s.FailReason = ""
	s.PollCount = 0
	s.UpdatedAt = time.Now().UTC()
}

// MarkDone stores the assembled text and discards the job handle.
func (s *UploadSlot) MarkDone(text string) {
	s.Phase = PhaseExtractionDone
	s.ExtractedText = text
	s.JobID = ""
	s.FailReason = ""
	s.UpdatedAt = time.Now().UTC()
}

// MarkFailed discards the job handle and records the reason. The slot
// stays usable: a later upload resets it through MarkUploaded.
func (s *UploadSlot) MarkFailed(reason string) {
	s.Phase = PhaseExtractionFailed
	s.JobID = ""
	s.ExtractedText = ""
	s.FailReason = reason
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a copy safe to hand outside the state lock.
func (s *UploadSlot) Clone() *UploadSlot {
	cp := *s
	return &cp
}
