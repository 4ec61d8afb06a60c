package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"pricewatch/internal/tracker"
	"pricewatch/pkg/errors"
)

// SMTPNotifier sends one plain-text email per alert over implicit TLS
// (port 465, the Gmail app-password setup).
type SMTPNotifier struct {
	host      string
	port      int
	sender    string
	recipient string
	password  string
}

var _ Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a new SMTP notifier.
func NewSMTPNotifier(host string, port int, sender, recipient, password string) *SMTPNotifier {
	return &SMTPNotifier{
		host:      host,
		port:      port,
		sender:    sender,
		recipient: recipient,
		password:  password,
	}
}

// Notify sends the alert email.
func (n *SMTPNotifier) Notify(ctx context.Context, event tracker.AlertEvent) error {
	subject := fmt.Sprintf("Price Alert: %s is now %.2f!", event.Name, event.NewPrice)
	body := buildBody(event)

	msg := strings.Join([]string{
		"From: " + n.sender,
		"To: " + n.recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := n.send(ctx, msg); err != nil {
		return errors.NewNotify(event.ProductID, "failed to send email alert", err)
	}
	return nil
}

func buildBody(event tracker.AlertEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Price drop detected for '%s'!\n\n", event.Name)
	fmt.Fprintf(&b, "Current Price: %.2f\n", event.NewPrice)
	fmt.Fprintf(&b, "Target Price: %.2f\n", event.TargetPrice)
	if event.OldPrice != nil {
		fmt.Fprintf(&b, "Last Known Price: %.2f\n", *event.OldPrice)
	}
	fmt.Fprintf(&b, "\nURL: %s\n", event.URL)
	return b.String()
}

// send dials the SMTP server with implicit TLS and submits the message. The
// context bounds the whole exchange via the connection deadline.
func (n *SMTPNotifier) send(ctx context.Context, msg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: n.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", n.sender, n.password, n.host)
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(n.sender); err != nil {
		return err
	}
	if err := client.Rcpt(n.recipient); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
