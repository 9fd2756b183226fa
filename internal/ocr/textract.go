package ocr

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// TextractAPI implements DetectionAPI on the Textract asynchronous
// text-detection endpoints.
type TextractAPI struct {
	client *textract.Client
}

// NewTextractAPI wraps a Textract client.
func NewTextractAPI(client *textract.Client) *TextractAPI {
	return &TextractAPI{client: client}
}

// StartDetection kicks off document text detection against the stored object.
func (t *TextractAPI) StartDetection(ctx context.Context, ref DocumentRef) (string, error) {
	out, err := t.client.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(ref.Bucket),
				Name:   aws.String(ref.Key),
			},
		},
	})
	if err != nil {
		return "", err
	}
	if out.JobId == nil {
		return "", fmt.Errorf("textract returned no job id for %s", ref.Key)
	}
	return *out.JobId, nil
}

// JobStatus reads the current job status without consuming result pages.
func (t *TextractAPI) JobStatus(ctx context.Context, jobID string) (Status, string, error) {
	out, err := t.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
		JobId:      aws.String(jobID),
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return "", "", err
	}
	reason := aws.ToString(out.StatusMessage)
	switch out.JobStatus {
	case types.JobStatusInProgress:
		return StatusPending, "", nil
	case types.JobStatusSucceeded, types.JobStatusPartialSuccess:
		return StatusSucceeded, "", nil
	case types.JobStatusFailed:
		if reason == "" {
			reason = "text detection failed"
		}
		return StatusFailed, reason, nil
	default:
		return "", "", fmt.Errorf("unexpected textract status %q", out.JobStatus)
	}
}

// ResultPage fetches one page of LINE blocks following the continuation token.
func (t *TextractAPI) ResultPage(ctx context.Context, jobID, pageToken string) (Page, error) {
	input := &textract.GetDocumentTextDetectionInput{
		JobId: aws.String(jobID),
	}
	if pageToken != "" {
		input.NextToken = aws.String(pageToken)
	}
	out, err := t.client.GetDocumentTextDetection(ctx, input)
	if err != nil {
		return Page{}, err
	}
	page := Page{NextToken: aws.ToString(out.NextToken)}
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		page.Lines = append(page.Lines, *block.Text)
	}
	return page, nil
}
