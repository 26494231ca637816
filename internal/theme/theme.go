// Package theme styles the command-line reports.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/duetask/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

// HeaderStyle marks a date heading.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// ItemStyle indents one line under a heading.
var ItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// MutedStyle is used for ids, timestamps and empty-state text.
var MutedStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// OKStyle, WarnStyle and ErrorStyle color outcome counts.
var (
	OKStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)
	WarnStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorYellow)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
)

// TagStyle returns a color-coded style for a reminder slot tag.
func TagStyle(tag model.Tag) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Width(16)

	switch tag {
	case model.TagEveningBefore:
		return base.Foreground(ColorMagenta)
	case model.TagMorningOf:
		return base.Foreground(ColorYellow)
	case model.TagEveningOf:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}
