package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/gitrdm/gocstn/internal/parallel"
	"github.com/gitrdm/gocstn/pkg/cstn"
)

// Result palette, shared by check and batch output.
var (
	colorGood = lipgloss.Color("#2CD7C7")
	colorBad  = lipgloss.Color("#E74C3C")
	colorWarn = lipgloss.Color("#F4D03F")
	colorDim  = lipgloss.Color("#5C6A72")
)

// renderer paints verdict lines: styled when the destination is a
// terminal, plain when it is a pipe or a CI log.
type renderer struct {
	good lipgloss.Style
	bad  lipgloss.Style
	warn lipgloss.Style
	dim  lipgloss.Style
}

// newRenderer builds a renderer for the given destination file.
func newRenderer(f *os.File) *renderer {
	r := &renderer{
		good: lipgloss.NewStyle(),
		bad:  lipgloss.NewStyle(),
		warn: lipgloss.NewStyle(),
		dim:  lipgloss.NewStyle(),
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		r.good = r.good.Foreground(colorGood).Bold(true)
		r.bad = r.bad.Foreground(colorBad).Bold(true)
		r.warn = r.warn.Foreground(colorWarn)
		r.dim = r.dim.Foreground(colorDim)
	}
	return r
}

// verdictLine formats the one-line outcome of a single check.
func (r *renderer) verdictLine(name string, s *cstn.RunStatus) string {
	switch s.State {
	case cstn.StateConsistent:
		return fmt.Sprintf("%s: %s %s", name, r.good.Render("controllable"), r.dim.Render(elapsed(s)))
	case cstn.StateInconsistent:
		return fmt.Sprintf("%s: %s %s", name, r.bad.Render("NOT controllable"), r.dim.Render(elapsed(s)))
	default:
		return fmt.Sprintf("%s: %s %s", name, r.warn.Render("timeout"), r.dim.Render(elapsed(s)))
	}
}

// jobLine formats one batch result with a status glyph.
func (r *renderer) jobLine(res parallel.Result) string {
	switch {
	case res.Err != nil || res.Status == nil:
		return fmt.Sprintf("%s %s: %v", r.bad.Render("!"), res.Name, res.Err)
	case res.Status.State == cstn.StateConsistent:
		return fmt.Sprintf("%s %s: controllable %s", r.good.Render("✓"), res.Name, r.dim.Render(elapsed(res.Status)))
	case res.Status.State == cstn.StateInconsistent:
		return fmt.Sprintf("%s %s: NOT controllable %s", r.bad.Render("✗"), res.Name, r.dim.Render(elapsed(res.Status)))
	default:
		return fmt.Sprintf("%s %s: timeout %s", r.warn.Render("⚠"), res.Name, r.dim.Render(elapsed(res.Status)))
	}
}

// summaryLine formats the batch tally.
func (r *renderer) summaryLine(t parallel.Tally, total int) string {
	line := fmt.Sprintf("checked %d networks: %d controllable, %d uncontrollable, %d timed out, %d failed",
		total, t.Consistent, t.Inconsistent, t.Timeout, t.Errored)
	if t.AllConsistent() {
		return r.good.Render(line)
	}
	return r.warn.Render(line)
}

// stats formats the rule counter block of a finished run, dimmed.
func (r *renderer) stats(s *cstn.RunStatus) string {
	return r.dim.Render(s.String())
}

// elapsed renders a run's wall-clock time in parentheses.
func elapsed(s *cstn.RunStatus) string {
	return fmt.Sprintf("(%s)", s.Elapsed.Round(time.Microsecond))
}
