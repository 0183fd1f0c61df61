package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"atelier-hq/vigil/pkg/monitor/alert"
)

// SlackChannel posts alerts to a Slack incoming webhook.
type SlackChannel struct {
	webhookURL string
	client     *http.Client
}

// NewSlackChannel creates a Slack channel. A nil client uses
// http.DefaultClient; attempt timeouts come from the dispatcher's
// context.
func NewSlackChannel(webhookURL string, client *http.Client) *SlackChannel {
	if client == nil {
		client = http.DefaultClient
	}
	return &SlackChannel{webhookURL: webhookURL, client: client}
}

func (c *SlackChannel) Name() string { return "slack" }

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields,omitempty"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func (c *SlackChannel) Send(ctx context.Context, ev alert.Event) error {
	color := "#f2c744" // warning yellow
	if ev.Severity == alert.SeverityCritical {
		color = "#d63031"
	}

	payload := slackPayload{
		Text: fmt.Sprintf(":rotating_light: *%s* alert for *%s*", ev.Severity, ev.Component),
		Attachments: []slackAttachment{{
			Color: color,
			Title: ev.Type,
			Text:  ev.Message,
			Fields: []slackField{
				{Title: "Component", Value: ev.Component, Short: true},
				{Title: "Severity", Value: string(ev.Severity), Short: true},
				{Title: "Value", Value: fmt.Sprintf("%.2f", ev.Value), Short: true},
				{Title: "Limit", Value: fmt.Sprintf("%.2f", ev.Limit), Short: true},
			},
			Ts: ev.TriggeredAt.Unix(),
		}},
	}

	return postJSON(ctx, c.client, c.webhookURL, payload, nil)
}

// postJSON posts a JSON body and treats any non-2xx status as failure.
func postJSON(ctx context.Context, client *http.Client, url string, payload any, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
