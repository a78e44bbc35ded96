/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package render

import "github.com/charmbracelet/lipgloss"

var (
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#d1d5db", Dark: "#374151"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#4ade80"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#fbbf24"}
	colorError   = lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"}
)

type styles struct {
	Box       lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Reasoning lipgloss.Style
	Source    lipgloss.Style
	Skeleton  lipgloss.Style
	Updating  lipgloss.Style
	Code      lipgloss.Style
	Quote     lipgloss.Style
	Error     lipgloss.Style
	Done      lipgloss.Style
	Unknown   lipgloss.Style
}

func newStyles() styles {
	return styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(colorMuted),
		Reasoning: lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorBorder),
		Source: lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true),
		Skeleton: lipgloss.NewStyle().
			Foreground(colorBorder),
		Updating: lipgloss.NewStyle().
			Foreground(colorWarning).
			Italic(true),
		Code: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
		Quote: lipgloss.NewStyle().
			Italic(true).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(colorAccent),
		Error: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),
		Done: lipgloss.NewStyle().
			Foreground(colorSuccess),
		Unknown: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorWarning).
			Padding(0, 1),
	}
}

func alertColor(variant string) lipgloss.TerminalColor {
	switch variant {
	case "success":
		return colorSuccess
	case "warning":
		return colorWarning
	case "error", "destructive":
		return colorError
	}
	return colorAccent
}
