package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"atelier-hq/vigil/pkg/monitor/alert"
)

// EmailChannel sends alerts over SMTP.
type EmailChannel struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// EmailConfig configures the SMTP channel.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// NewEmailChannel creates an SMTP channel.
func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		send:     smtp.SendMail,
	}
}

func (c *EmailChannel) Name() string { return "email" }

// Send delivers the alert by email. smtp.SendMail has no context
// support, so the send runs in a goroutine and an expired ctx abandons
// it; the dispatcher records the timeout as a failed attempt.
func (c *EmailChannel) Send(ctx context.Context, ev alert.Event) error {
	msg := c.buildMessage(ev)
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.send(addr, auth, c.from, c.to, msg)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *EmailChannel) buildMessage(ev alert.Event) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "From: %s\r\n", c.from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(c.to, ", "))
	fmt.Fprintf(&sb, "Subject: [%s] %s alert: %s\r\n", strings.ToUpper(string(ev.Severity)), ev.Type, ev.Component)
	sb.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&sb, "%s\r\n\r\n", ev.Message)
	fmt.Fprintf(&sb, "Component: %s\r\n", ev.Component)
	fmt.Fprintf(&sb, "Severity:  %s\r\n", ev.Severity)
	fmt.Fprintf(&sb, "Value:     %.2f\r\n", ev.Value)
	fmt.Fprintf(&sb, "Limit:     %.2f\r\n", ev.Limit)
	fmt.Fprintf(&sb, "Time:      %s\r\n", ev.TriggeredAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&sb, "Alert ID:  %s\r\n", ev.ID)

	return []byte(sb.String())
}
