// Package printer writes styled, line-oriented command output.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines the semantic colors used by the printer.
type Palette struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// TokyoNight is the default palette.
var TokyoNight = Palette{
	Primary: lipgloss.Color("#7aa2f7"),
	Muted:   lipgloss.Color("#565f89"),
	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
}

// Printer writes status lines to w. Colors are dropped automatically when w
// is not a terminal.
type Printer struct {
	w io.Writer

	header  lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

// New creates a printer for w using the default palette.
func New(w io.Writer) *Printer {
	return NewWithPalette(w, TokyoNight)
}

// NewWithPalette creates a printer for w using p.
func NewWithPalette(w io.Writer, p Palette) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		header:  r.NewStyle().Foreground(p.Primary).Bold(true),
		muted:   r.NewStyle().Foreground(p.Muted),
		success: r.NewStyle().Foreground(p.Success),
		warning: r.NewStyle().Foreground(p.Warning),
		failure: r.NewStyle().Foreground(p.Error).Bold(true),
	}
}

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Headerf writes a section heading.
func (p *Printer) Headerf(format string, args ...any) {
	p.line(p.header.Render(fmt.Sprintf(format, args...)))
}

// Successf writes a line prefixed with a check mark.
func (p *Printer) Successf(format string, args ...any) {
	p.line(p.success.Render("✓") + " " + fmt.Sprintf(format, args...))
}

// Infof writes a muted informational line.
func (p *Printer) Infof(format string, args ...any) {
	p.line(p.muted.Render("•") + " " + fmt.Sprintf(format, args...))
}

// Warnf writes a line prefixed with a warning marker.
func (p *Printer) Warnf(format string, args ...any) {
	p.line(p.warning.Render("!") + " " + fmt.Sprintf(format, args...))
}

// Errorf writes a line prefixed with a cross.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(p.failure.Render("✗") + " " + fmt.Sprintf(format, args...))
}

// Muted returns s styled as secondary text.
func (p *Printer) Muted(s string) string {
	return p.muted.Render(s)
}

func (p *Printer) line(s string) {
	_, _ = io.WriteString(p.w, strings.TrimRight(s, "\n")+"\n")
}
