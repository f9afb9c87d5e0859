package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Slack posts alerts to an incoming webhook.
type Slack struct {
	Webhook  string
	Username string // optional display name override
	Client   *http.Client
}

// NewSlack returns nil for an empty webhook so callers can skip it.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook:  webhook,
		Username: "statuscheck",
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s == nil || s.Webhook == "" {
		return errors.New("slack disabled")
	}
	body, err := json.Marshal(slackMessage{Text: "*" + title + "*\n" + text, Username: s.Username})
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
