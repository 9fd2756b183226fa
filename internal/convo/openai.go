package convo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"memowriter/internal/config"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient implements ThreadAPI on the Assistants v2 REST endpoints.
type OpenAIClient struct {
	http *resty.Client
}

// NewOpenAIClient builds the REST client from app config.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("OpenAI-Beta", "assistants=v2").
		SetHeader("Content-Type", "application/json")
	return &OpenAIClient{http: client}
}

type apiRun struct {
	ID          string `json:"id"`
	CreatedAt   int64  `json:"created_at"`
	CompletedAt *int64 `json:"completed_at"`
	Status      string `json:"status"`
}

type apiMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	Content   []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

// AppendMessage adds one message to the thread.
func (c *OpenAIClient) AppendMessage(ctx context.Context, threadID, role, text string) (string, error) {
	var out apiMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"role": role, "content": text}).
		SetResult(&out).
		Post(fmt.Sprintf("/threads/%s/messages", threadID))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("append message: status %d: %s", resp.StatusCode(), resp.String())
	}
	return out.ID, nil
}

// StartRun creates a run of the assistant against the thread.
func (c *OpenAIClient) StartRun(ctx context.Context, threadID, assistantID, instructions string) (RunInfo, error) {
	body := map[string]string{"assistant_id": assistantID}
	if instructions != "" {
		body["instructions"] = instructions
	}
	var out apiRun
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/threads/%s/runs", threadID))
	if err != nil {
		return RunInfo{}, err
	}
	if resp.IsError() {
		return RunInfo{}, fmt.Errorf("start run: status %d: %s", resp.StatusCode(), resp.String())
	}
	return out.toRunInfo(), nil
}

// GetRun retrieves the run's current timestamps.
func (c *OpenAIClient) GetRun(ctx context.Context, threadID, runID string) (RunInfo, error) {
	var out apiRun
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/threads/%s/runs/%s", threadID, runID))
	if err != nil {
		return RunInfo{}, err
	}
	if resp.IsError() {
		return RunInfo{}, fmt.Errorf("get run: status %d: %s", resp.StatusCode(), resp.String())
	}
	return out.toRunInfo(), nil
}

// ListMessages returns the thread's messages newest first, the service's
// own ordering.
func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	var out struct {
		Data []apiMessage `json:"data"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/threads/%s/messages", threadID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list messages: status %d: %s", resp.StatusCode(), resp.String())
	}
	messages := make([]ThreadMessage, 0, len(out.Data))
	for _, m := range out.Data {
		messages = append(messages, m.toThreadMessage())
	}
	return messages, nil
}

func (r apiRun) toRunInfo() RunInfo {
	info := RunInfo{
		RunID:     r.ID,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.CompletedAt != nil {
		completed := time.Unix(*r.CompletedAt, 0).UTC()
		info.CompletedAt = &completed
	}
	return info
}

func (m apiMessage) toThreadMessage() ThreadMessage {
	msg := ThreadMessage{
		ID:        m.ID,
		Role:      m.Role,
		CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
	}
	for _, part := range m.Content {
		if part.Type == "text" {
			msg.Text = part.Text.Value
			break
		}
	}
	return msg
}
