package notify

import (
	"context"
	"net/http"

	"atelier-hq/vigil/pkg/monitor/alert"
)

// WebhookChannel posts the alert event as JSON to an arbitrary endpoint,
// for integrations Vigil does not know about (paging services, chat ops
// bridges, incident trackers).
type WebhookChannel struct {
	url       string
	authToken string
	client    *http.Client
}

// NewWebhookChannel creates a generic webhook channel. authToken, when
// non-empty, is sent as a bearer token.
func NewWebhookChannel(url, authToken string, client *http.Client) *WebhookChannel {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookChannel{url: url, authToken: authToken, client: client}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Send(ctx context.Context, ev alert.Event) error {
	var headers map[string]string
	if c.authToken != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.authToken}
	}
	return postJSON(ctx, c.client, c.url, ev, headers)
}
