package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles renders command output. The renderer drops colors when out is not
// a terminal.
type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	muted lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	if noColor {
		plain := r.NewStyle()
		return styles{
			title: plain.Bold(true),
			label: plain,
			ok:    plain,
			warn:  plain,
			bad:   plain,
			muted: plain,
		}
	}
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginTop(1),
		label: r.NewStyle().Foreground(lipgloss.Color("245")),
		ok:    r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("9")),
		muted: r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// row renders "label value" with labels padded to a common column.
func (s styles) row(label, value string) string {
	return s.label.Render(fmt.Sprintf("%-14s", label)) + " " + value + "\n"
}
