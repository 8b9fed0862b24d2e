// SPDX-License-Identifier: Apache-2.0

package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	statusUpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusDownStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusPartialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("201"))

	outputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// statusStyle picks the style matching an overall or container status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "UP":
		return statusUpStyle
	case "DOWN":
		return statusDownStyle
	case "PARTIAL":
		return statusPartialStyle
	case "ERROR":
		return statusErrorStyle
	default:
		return subtleStyle
	}
}
