// Package components provides reusable render-only helpers (not
// tea.Model) used by the TUI models to compose views.
package components

import (
	"strings"

	"bhmc/ggbridge/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Header renders the application header bar.
//
//	┌──────────────────────────────────────────┐
//	│  ggbridge > dashboard          event 42  │
//	└──────────────────────────────────────────┘
func Header(width int, breadcrumb string, context string) string {
	if width < 10 {
		return ""
	}

	leftStyle := styles.Title.Foreground(styles.Green)
	left := leftStyle.Render("ggbridge")
	if breadcrumb != "" {
		left += styles.MutedText.Render(" > ") + styles.Title.Render(breadcrumb)
	}

	right := ""
	if context != "" {
		right = styles.Subtitle.Render(context)
	}

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)
	innerWidth := width - 4
	gap := max(innerWidth-leftLen-rightLen, 1)

	content := left + strings.Repeat(" ", gap) + right

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(content)
}
