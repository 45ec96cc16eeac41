// Package email delivers queued notices over SMTP.
package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"stagewatch/internal/application/notify"
	sharedConfig "stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
)

// SMTPTransport implements the dispatch transport over SMTP. One message per
// queue entry; the queue owns retries, so a failed send is just reported.
type SMTPTransport struct {
	cfg    sharedConfig.EmailConfig
	dialer *gomail.Dialer
}

func NewSMTPTransport(cfg sharedConfig.EmailConfig) *SMTPTransport {
	return &SMTPTransport{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (t *SMTPTransport) Send(ctx context.Context, target string, payload json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return errors.NewDeliveryFailureError("send cancelled", err.Error())
	}

	var notice notify.Notice
	if err := json.Unmarshal(payload, &notice); err != nil {
		return errors.NewDeliveryFailureError("malformed notice payload", err.Error())
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(t.cfg.FromAddress, t.cfg.FromName))
	m.SetHeader("To", target)
	m.SetHeader("Subject", subjectFor(&notice))
	m.SetBody("text/plain", plainBody(&notice))
	m.AddAlternative("text/html", htmlBody(&notice))

	if err := t.dialer.DialAndSend(m); err != nil {
		return errors.NewDeliveryFailureError("failed to send notice email", err.Error())
	}
	return nil
}

func subjectFor(n *notify.Notice) string {
	switch n.Kind {
	case "created":
		return fmt.Sprintf("New show listed (play #%d)", n.PlayID)
	case "cancelled":
		return fmt.Sprintf("Show cancelled (play #%d)", n.PlayID)
	case "sold_out":
		return fmt.Sprintf("Show sold out (play #%d)", n.PlayID)
	case "resumed":
		return fmt.Sprintf("Tickets available again (play #%d)", n.PlayID)
	default:
		return fmt.Sprintf("Show updated (play #%d)", n.PlayID)
	}
}

func plainBody(n *notify.Notice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A %s change was observed for play #%d via %s.\n", n.Kind, n.PlayID, n.Source)
	if n.City != "" {
		fmt.Fprintf(&b, "City: %s\n", n.City)
	}
	if n.TicketID != "" {
		fmt.Fprintf(&b, "Ticket: %s\n", n.TicketID)
	}
	fmt.Fprintf(&b, "Observed at: %s\n", n.ObservedAt.Format("2006-01-02 15:04:05 MST"))
	if len(n.Delta) > 0 {
		b.WriteString("\nChanges:\n")
		for field, change := range n.Delta {
			fmt.Fprintf(&b, "  %s: %v -> %v\n", field, change.Old, change.New)
		}
	}
	return b.String()
}

func htmlBody(n *notify.Notice) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>%s</h2>", subjectFor(n))
	fmt.Fprintf(&b, "<p>A <b>%s</b> change was observed for play #%d via %s.</p>", n.Kind, n.PlayID, n.Source)
	if n.City != "" {
		fmt.Fprintf(&b, "<p>City: %s</p>", n.City)
	}
	if n.TicketID != "" {
		fmt.Fprintf(&b, "<p>Ticket: %s</p>", n.TicketID)
	}
	if len(n.Delta) > 0 {
		b.WriteString("<ul>")
		for field, change := range n.Delta {
			fmt.Fprintf(&b, "<li>%s: %v &rarr; %v</li>", field, change.Old, change.New)
		}
		b.WriteString("</ul>")
	}
	fmt.Fprintf(&b, "<p><small>Observed at %s</small></p>", n.ObservedAt.Format("2006-01-02 15:04:05 MST"))
	b.WriteString("</body></html>")
	return b.String()
}
