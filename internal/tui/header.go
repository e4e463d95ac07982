package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adorostkar/gorate/internal/library"
	"github.com/adorostkar/gorate/internal/ui"
)

// HeaderState is what the right side of the header reports.
type HeaderState struct {
	Loading   bool
	Completed int
	Total     int
	Stats     library.Stats
}

func RenderHeader(roots []string, state HeaderState, width int) string {
	left := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(fmt.Sprintf(" gorate | %s", strings.Join(roots, ", ")))

	var right string
	switch {
	case state.Loading && state.Total > 0:
		right = ui.StyleWarning.Render(fmt.Sprintf("Enriching %d/%d ", state.Completed, state.Total))
	case state.Loading:
		right = ui.StyleWarning.Render("Scanning... ")
	case state.Stats.Failed > 0:
		right = ui.StyleFailure.Render(fmt.Sprintf("%d/%d enriched, %d failed ",
			state.Stats.Enriched, state.Stats.Scanned, state.Stats.Failed))
	default:
		right = ui.StyleSuccess.Render(fmt.Sprintf("%d/%d enriched ",
			state.Stats.Enriched, state.Stats.Scanned))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#1F2937")).
		Width(width).
		Render(left + padding + right)
}
