package outbound

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/hebbarp/todo-management/internal/core/messaging"
)

// SubjectPrefix is prepended to every email subject.
const SubjectPrefix = "[Todo System] "

var htmlBody = template.Must(template.New("email").Parse(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h2 style="color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px;">Todo Management System</h2>
      <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
        {{- range $i, $line := .Lines }}{{ if $i }}<br>{{ end }}{{ $line }}{{ end -}}
      </div>
      <div style="margin-top: 30px; padding: 15px; background: #e8f4f8; border-radius: 5px;">
        <p style="margin: 0; font-size: 14px; color: #666;">
          This is an automated message from your Todo Management System.
          <br>Reply to this email to add new todos to your list.
        </p>
      </div>
    </div>
  </body>
</html>
`))

// SMTPOptions configures the SMTP relay.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender delivers messages as HTML email through an SMTP relay, upgrading
// to TLS when the server offers STARTTLS.
type SMTPSender struct {
	opts SMTPOptions
	now  func() time.Time
}

var _ messaging.Sender = (*SMTPSender)(nil)

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(opts SMTPOptions) *SMTPSender {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &SMTPSender{opts: opts, now: time.Now}
}

// Send delivers msg to msg.Recipient.
func (s *SMTPSender) Send(ctx context.Context, msg messaging.Outbound) error {
	if msg.Recipient == "" {
		return errors.New("smtp: recipient is required")
	}

	body, err := s.compose(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.opts.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.opts.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if s.opts.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.opts.Username, s.opts.Password, s.opts.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(s.opts.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(msg.Recipient); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	return c.Quit()
}

func (s *SMTPSender) compose(msg messaging.Outbound) ([]byte, error) {
	var html bytes.Buffer
	lines := strings.Split(msg.Body, "\n")
	if err := htmlBody.Execute(&html, map[string]any{"Lines": lines}); err != nil {
		return nil, fmt.Errorf("render email body: %w", err)
	}

	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", s.opts.From)
	header("To", msg.Recipient)
	header("Subject", mime.QEncoding.Encode("utf-8", SubjectPrefix+msg.Subject))
	header("Date", s.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="utf-8"`)
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(html.String(), "\n", "\r\n"))

	return b.Bytes(), nil
}
