package todosync

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hebbarp/todo-management/internal/core/synclog"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/pkg/fsutil"
	"github.com/hebbarp/todo-management/pkg/tmpl"
)

// Snapshot holds every readable partition keyed by channel. Channels missing
// from the map could not be read.
type Snapshot map[todo.Channel][]todo.Todo

// Counts tallies the snapshot of ch.
func (s Snapshot) Counts(ch todo.Channel) synclog.Counts {
	var c synclog.Counts
	for _, t := range s[ch] {
		if t.Status == todo.StatusCompleted {
			c.Completed++
		} else {
			c.Pending++
		}
	}
	return c
}

// ChannelReport is one channel's section of a Report.
type ChannelReport struct {
	Channel     todo.Channel   `json:"channel"`
	Counts      synclog.Counts `json:"counts"`
	Total       int            `json:"total"`
	Recent      []todo.Todo    `json:"recent"`
	Unavailable bool           `json:"unavailable,omitempty"`
}

// Summary totals a Report across channels.
type Summary struct {
	TotalTodos int `json:"total_todos"`
	Pending    int `json:"pending"`
	Completed  int `json:"completed"`
}

// Report is the unified cross-channel view. It is derived at generation time
// and never read back as a source of truth.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     Summary         `json:"summary"`
	Channels    []ChannelReport `json:"channels"`
	SyncStatus  synclog.Log     `json:"sync_status"`
}

// Channel returns the section for ch.
func (r *Report) Channel(ch todo.Channel) (ChannelReport, bool) {
	for _, c := range r.Channels {
		if c.Channel == ch {
			return c, true
		}
	}
	return ChannelReport{}, false
}

// ReportFiles are the paths written by Persist.
type ReportFiles struct {
	JSON    string `json:"json"`
	Summary string `json:"summary"`
}

// Reporter builds unified reports and writes them to a reports directory.
type Reporter struct {
	dir    string
	window int
	now    func() time.Time
}

// NewReporter creates a reporter keeping the last window todos per channel.
func NewReporter(dir string, window int) *Reporter {
	if window <= 0 {
		window = 10
	}
	return &Reporter{dir: dir, window: window, now: time.Now}
}

// Build assembles a report from snap and the current sync log.
func (r *Reporter) Build(snap Snapshot, log synclog.Log) Report {
	rep := Report{
		GeneratedAt: r.now(),
		Channels:    make([]ChannelReport, 0, len(todo.Channels)),
		SyncStatus:  log,
	}

	for _, ch := range todo.Channels {
		todos, ok := snap[ch]
		if !ok {
			rep.Channels = append(rep.Channels, ChannelReport{Channel: ch, Recent: []todo.Todo{}, Unavailable: true})
			continue
		}

		counts := snap.Counts(ch)
		rep.Channels = append(rep.Channels, ChannelReport{
			Channel: ch,
			Counts:  counts,
			Total:   counts.Total(),
			Recent:  todo.Last(todos, r.window),
		})

		rep.Summary.TotalTodos += counts.Total()
		rep.Summary.Pending += counts.Pending
		rep.Summary.Completed += counts.Completed
	}

	return rep
}

// Persist writes the JSON report and the text summary.
func (r *Reporter) Persist(rep Report) (ReportFiles, error) {
	stamp := rep.GeneratedAt.Format("20060102_150405")
	files := ReportFiles{
		JSON:    filepath.Join(r.dir, fmt.Sprintf("unified_todo_report_%s.json", stamp)),
		Summary: filepath.Join(r.dir, fmt.Sprintf("unified_summary_%s.txt", stamp)),
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return ReportFiles{}, fmt.Errorf("encode report: %w", err)
	}
	if err := fsutil.WriteFileAtomic(files.JSON, data, 0o644); err != nil {
		return ReportFiles{}, fmt.Errorf("write report: %w", err)
	}

	summary, err := RenderSummary(rep)
	if err != nil {
		return ReportFiles{}, err
	}
	if err := fsutil.WriteFileAtomic(files.Summary, []byte(summary), 0o644); err != nil {
		return ReportFiles{}, fmt.Errorf("write summary: %w", err)
	}

	return files, nil
}

const summaryTemplate = `UNIFIED TODO REPORT
================================
Generated: {{ date "2006-01-02 15:04:05" .GeneratedAt }}

Summary:
- Total todos across all channels: {{ .Total }} ({{ .Pending }} pending, {{ .Completed }} completed)
{{- range .Channels }}
- {{ title .Name }} todos: {{ if .Unavailable }}unavailable{{ else }}{{ .Total }}{{ end }}
{{- end }}

Last sync: {{ .LastSync }}
{{ range .Channels }}{{ if not .Unavailable }}
Recent {{ title .Name }} Todos:
{{- range .Recent }}
  [{{ if .Done }}x{{ else }} {{ end }}] #{{ .ID }}: {{ .Description }}
{{- else }}
  (none)
{{- end }}
{{ end }}{{ end }}`

const markdownTemplate = `# Unified Todo Report

Generated {{ date "2006-01-02 15:04:05" .GeneratedAt }}. Last sync: {{ .LastSync }}.

| Channel | Pending | Completed | Total |
|---|---|---|---|
{{- range .Channels }}
| {{ title .Name }} | {{ if .Unavailable }}-{{ else }}{{ .Pending }}{{ end }} | {{ if .Unavailable }}-{{ else }}{{ .Completed }}{{ end }} | {{ if .Unavailable }}unavailable{{ else }}{{ .Total }}{{ end }} |
{{- end }}
| **All** | {{ .Pending }} | {{ .Completed }} | {{ .Total }} |
{{ range .Channels }}{{ if not .Unavailable }}
## {{ title .Name }}
{{ range .Recent }}
- [{{ if .Done }}x{{ else }} {{ end }}] #{{ .ID }} {{ .Description }}
{{- else }}
_No todos._
{{- end }}
{{ end }}{{ end }}`

type reportItemView struct {
	ID          int
	Description string
	Done        bool
}

type reportChannelView struct {
	Name        string
	Pending     int
	Completed   int
	Total       int
	Unavailable bool
	Recent      []reportItemView
}

type reportView struct {
	GeneratedAt time.Time
	Total       int
	Pending     int
	Completed   int
	LastSync    string
	Channels    []reportChannelView
}

func newReportView(rep Report, recent int) reportView {
	v := reportView{
		GeneratedAt: rep.GeneratedAt,
		Total:       rep.Summary.TotalTodos,
		Pending:     rep.Summary.Pending,
		Completed:   rep.Summary.Completed,
		LastSync:    "Never",
	}
	if rep.SyncStatus.LastSync != nil {
		v.LastSync = rep.SyncStatus.LastSync.Format("2006-01-02 15:04:05")
	}

	for _, c := range rep.Channels {
		cv := reportChannelView{
			Name:        string(c.Channel),
			Pending:     c.Counts.Pending,
			Completed:   c.Counts.Completed,
			Total:       c.Total,
			Unavailable: c.Unavailable,
		}
		for _, t := range todo.Last(c.Recent, recent) {
			cv.Recent = append(cv.Recent, reportItemView{
				ID:          t.ID,
				Description: t.Description,
				Done:        t.Status == todo.StatusCompleted,
			})
		}
		v.Channels = append(v.Channels, cv)
	}

	return v
}

// RenderSummary renders the plain-text summary of rep.
func RenderSummary(rep Report) (string, error) {
	out, err := tmpl.Render(summaryTemplate, newReportView(rep, 5))
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return out, nil
}

// RenderMarkdown renders rep as a markdown document.
func RenderMarkdown(rep Report) (string, error) {
	out, err := tmpl.Render(markdownTemplate, newReportView(rep, 5))
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
