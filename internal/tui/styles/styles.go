// Package styles provides the centralized color palette and style
// definitions for the ggbridge TUI. All visual constants live here so
// the rest of the TUI code can reference a single source of truth.
package styles

import "github.com/charmbracelet/lipgloss"

// --- Color palette ---

var (
	// Core text
	White   = lipgloss.Color("#E2E2E2")
	Gray    = lipgloss.Color("#888888")
	Muted   = lipgloss.Color("#555555")
	DimGray = lipgloss.Color("#444444")

	// Accent
	Green     = lipgloss.Color("#5FD787")
	DimGreen  = lipgloss.Color("#3A7050")
	Yellow    = lipgloss.Color("#FFD787")
	Red       = lipgloss.Color("#FF8787")
	Blue      = lipgloss.Color("#5FAFFF")
)

// --- Typography ---

var (
	// Title is the main header text style.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(White)

	// Subtitle is used for secondary headings.
	Subtitle = lipgloss.NewStyle().
			Foreground(Gray)

	// MutedText is for help text, hints, and less important info.
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	// AccentText is for highlighted interactive elements.
	AccentText = lipgloss.NewStyle().
			Foreground(Green)

	// ErrorText is for error messages.
	ErrorText = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// SuccessText is for success messages.
	SuccessText = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// WarningText is for warning messages.
	WarningText = lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true)
)

// --- Run status badges ---

// RunIndicator returns a colored dot + label for an action's most
// recent run: done, failed, or never run.
func RunIndicator(ran, ok bool) string {
	switch {
	case !ran:
		s := lipgloss.NewStyle().Foreground(Muted)
		return s.Render("○") + " " + s.Render("not run")
	case ok:
		s := lipgloss.NewStyle().Foreground(Green)
		return s.Render("●") + " " + s.Render("done")
	default:
		s := lipgloss.NewStyle().Foreground(Red)
		return s.Render("●") + " " + s.Render("failed")
	}
}

// --- Layout components ---

var (
	// Card is a rounded-border panel for content sections.
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray).
		Padding(1, 2)
)

// --- Key binding hint styles ---

var (
	// KeyStyle is used for key labels in the footer (e.g. "q").
	KeyStyle = lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true)

	// KeyDescStyle is used for key descriptions in the footer (e.g. "quit").
	KeyDescStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// KeySepStyle is used for separators between key bindings.
	KeySepStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// FormatKeyBinding formats a single key binding for the footer.
func FormatKeyBinding(key, desc string) string {
	return KeyStyle.Render(key) + " " + KeyDescStyle.Render(desc)
}
