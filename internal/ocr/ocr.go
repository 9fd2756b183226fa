package ocr

import "context"

// Status is the external job state reported by the detection service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// DocumentRef addresses a stored document.
type DocumentRef struct {
	Bucket string
	Key    string
}

// Page is one page of detection results. NextToken is empty on the last page.
type Page struct {
	Lines     []string
	NextToken string
}

// DetectionAPI is the asynchronous text-detection service. JobStatus and
// ResultPage are plain reads; StartDetection is the only call with a side
// effect.
type DetectionAPI interface {
	StartDetection(ctx context.Context, ref DocumentRef) (string, error)
	JobStatus(ctx context.Context, jobID string) (Status, string, error)
	ResultPage(ctx context.Context, jobID, pageToken string) (Page, error)
}

// JobHandle is the opaque handle returned by Start.
type JobHandle struct {
	JobID string
	Ref   DocumentRef
}

// Result is one poll outcome. Text is set only when Status is succeeded,
// Reason only when it is failed.
type Result struct {
	Status Status
	Text   string
	Reason string
}
