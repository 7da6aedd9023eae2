package todosync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/synclog"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/pkg/tmpl"
)

// DefaultDigestTemplate renders the daily digest body.
const DefaultDigestTemplate = `Your Daily Todo Digest

Multi-Channel Summary:
- Total todos: {{ .Total }} ({{ .Pending }} pending, {{ .Completed }} completed)
{{- range .Channels }}
- {{ title .Name }}: {{ if .Unavailable }}unavailable{{ else }}{{ .Pending }} pending, {{ .Completed }} completed{{ end }}
{{- end }}
{{ range .Channels }}{{ if not .Unavailable }}
Recent {{ title .Name }} Activity:
{{- range .Recent }}
  - #{{ .ID }}: {{ truncate 80 .Description }}
{{- else }}
  - none
{{- end }}
{{ end }}{{ end }}
Last sync: {{ .LastSync }}

Reply to this email to add new todos to your list!
`

// ReportSource produces the data a digest summarizes.
type ReportSource interface {
	Collect(ctx context.Context) (Snapshot, []error)
	SyncLog(ctx context.Context) (synclog.Log, error)
}

var _ ReportSource = (*Engine)(nil)

// Digest renders a summary of every channel and hands it to the send
// capability.
type Digest struct {
	source   ReportSource
	reporter *Reporter
	sender   messaging.Sender
	template string
	recent   int
	now      func() time.Time
	log      zerolog.Logger
}

// NewDigest creates a digest sender. An empty template uses
// DefaultDigestTemplate.
func NewDigest(source ReportSource, reporter *Reporter, sender messaging.Sender, template string, recent int) *Digest {
	if template == "" {
		template = DefaultDigestTemplate
	}
	if recent <= 0 {
		recent = 3
	}
	return &Digest{
		source:   source,
		reporter: reporter,
		sender:   sender,
		template: template,
		recent:   recent,
		now:      time.Now,
		log:      logging.Component("digest"),
	}
}

// Subject returns the digest subject for the current day.
func (d *Digest) Subject() string {
	return "Daily Todo Digest - " + d.now().Format("January 02, 2006")
}

// Render builds the digest body from the current state. Unreadable channels
// are shown as unavailable.
func (d *Digest) Render(ctx context.Context) (string, error) {
	snap, errs := d.source.Collect(ctx)
	for _, err := range errs {
		d.log.Warn().Err(err).Msg("channel unavailable for digest")
	}

	history, err := d.source.SyncLog(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("sync log unavailable for digest")
	}

	rep := d.reporter.Build(snap, history)
	body, err := tmpl.Render(d.template, newReportView(rep, d.recent))
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return body, nil
}

// Send renders the digest and delivers it to recipient by email. It reports
// false, never an error, when rendering or sending fails.
func (d *Digest) Send(ctx context.Context, recipient string) bool {
	body, err := d.Render(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("digest not sent")
		return false
	}

	err = d.sender.Send(ctx, messaging.Outbound{
		Channel:   todo.ChannelEmail,
		Recipient: recipient,
		Subject:   d.Subject(),
		Body:      body,
	})
	if err != nil {
		d.log.Warn().Err(err).Str("recipient", recipient).Msg("digest send failed")
		return false
	}

	d.log.Info().Str("recipient", recipient).Msg("digest sent")
	return true
}
