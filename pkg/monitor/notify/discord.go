package notify

import (
	"context"
	"fmt"
	"net/http"

	"atelier-hq/vigil/pkg/monitor/alert"
)

// DiscordChannel posts alerts to a Discord webhook as embeds.
type DiscordChannel struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordChannel creates a Discord channel.
func NewDiscordChannel(webhookURL string, client *http.Client) *DiscordChannel {
	if client == nil {
		client = http.DefaultClient
	}
	return &DiscordChannel{webhookURL: webhookURL, client: client}
}

func (c *DiscordChannel) Name() string { return "discord" }

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (c *DiscordChannel) Send(ctx context.Context, ev alert.Event) error {
	color := 0xF2C744 // warning yellow
	if ev.Severity == alert.SeverityCritical {
		color = 0xD63031
	}

	payload := discordPayload{
		Embeds: []discordEmbed{{
			Title:       fmt.Sprintf("%s alert: %s", ev.Severity, ev.Component),
			Description: ev.Message,
			Color:       color,
			Fields: []discordField{
				{Name: "Type", Value: ev.Type, Inline: true},
				{Name: "Value", Value: fmt.Sprintf("%.2f", ev.Value), Inline: true},
				{Name: "Limit", Value: fmt.Sprintf("%.2f", ev.Limit), Inline: true},
			},
			Timestamp: ev.TriggeredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}},
	}

	return postJSON(ctx, c.client, c.webhookURL, payload, nil)
}
