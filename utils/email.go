package utils

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"

	"tour-backend/config"
)

// Email is one outbound message. Text is optional; it is derived from HTML when empty.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends multipart (plain + HTML) emails over SMTP.
type Mailer struct {
	cfg  config.EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// Configured reports whether real SMTP delivery is enabled.
func (m *Mailer) Configured() bool {
	return m.cfg.SMTPHost != "" && m.cfg.SMTPUsername != "" && m.cfg.SMTPPassword != ""
}

// AdminInbox is where staff copies of bookings and contact messages go.
func (m *Mailer) AdminInbox() string {
	if m.cfg.AdminInbox != "" {
		return m.cfg.AdminInbox
	}
	return m.fromAddress()
}

func (m *Mailer) fromAddress() string {
	if m.cfg.FromEmail != "" {
		return m.cfg.FromEmail
	}
	return m.cfg.SMTPUsername
}

// Send delivers e. Without SMTP credentials the message is logged and treated as sent.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := safeHeader(e.To)
	if to == "" {
		return fmt.Errorf("email recipient is empty")
	}

	if !m.Configured() {
		log.Printf("[MOCK EMAIL] to:%s subject:%s", to, e.Subject)
		return nil
	}

	msg := buildMIME(fmt.Sprintf("%s <%s>", safeHeader(m.cfg.FromName), m.fromAddress()), to, safeHeader(e.Subject), e.textBody(), e.HTML)
	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)

	errCh := make(chan error, 1)
	go func() { errCh <- m.send(addr, auth, m.fromAddress(), []string{to}, msg) }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("❌ Failed to send email to %s: %v", to, err)
			return fmt.Errorf("send email: %w", err)
		}
		log.Printf("📨 Email sent to %s (%s)", to, e.Subject)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e Email) textBody() string {
	if strings.TrimSpace(e.Text) != "" {
		return e.Text
	}
	return StripTags(e.HTML)
}

func safeHeader(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func buildMIME(from, to, subject, plainBody, htmlBody string) []byte {
	boundary := "----=_TOURS_EMAIL_BOUNDARY"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(plainBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(htmlBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(sb.String())
}

// StripTags is a rough HTML → text conversion for the plain-text part.
func StripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

// EmailLayout wraps body HTML in the shared card template.
func EmailLayout(title, bodyHTML, siteName string) string {
	return fmt.Sprintf(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { background:#f5f7fb; font-family:Arial, Helvetica, sans-serif; color:#222; }
.container { max-width:640px; margin:20px auto; }
.card { background:#fff; border:1px solid #e6eef6; padding:24px; border-radius:8px; }
.label { font-weight:700; width:160px; display:inline-block; vertical-align:top; }
</style>
</head>
<body>
<div class="container">
  <div class="card">
    <h2>%s</h2>
    %s
    <p>Best regards,<br>%s</p>
  </div>
</div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(title), bodyHTML, html.EscapeString(siteName))
}
