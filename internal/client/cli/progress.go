package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/avifconv/internal/conversion"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// statusStyle picks the style a task status is printed with.
func statusStyle(status string) lipgloss.Style {
	switch {
	case strings.HasPrefix(status, "completed"):
		return okStyle
	case status == "failed":
		return errorStyle
	case status == "processing":
		return runningStyle
	default:
		return mutedStyle
	}
}

const (
	minBarWidth = 20
	maxBarWidth = 60
)

// progressView draws the batch progress on a single terminal line.
type progressView struct {
	mu   sync.Mutex
	out  io.Writer
	bar  progress.Model
	last int
}

func newProgressView(out io.Writer, termWidth int) *progressView {
	width := termWidth - 24
	if width > maxBarWidth {
		width = maxBarWidth
	}
	if width < minBarWidth {
		width = minBarWidth
	}
	return &progressView{
		out:  out,
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(width)),
		last: -1,
	}
}

// render redraws the line. Repeated values are skipped.
func (v *progressView) render(percent float64, stage conversion.Stage) {
	v.mu.Lock()
	defer v.mu.Unlock()

	whole := int(percent)
	if whole == v.last {
		return
	}
	v.last = whole
	fmt.Fprintf(v.out, "\r%s %s", v.bar.ViewAs(percent/100), mutedStyle.Render(fmt.Sprintf("%-10s", stage)))
}

// finish ends the progress line so the next output starts clean.
func (v *progressView) finish() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last >= 0 {
		fmt.Fprintln(v.out)
	}
	v.last = -1
}
