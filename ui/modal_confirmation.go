package ui

import (
	"github.com/charmbracelet/lipgloss"
)

type ConfirmationState struct {
	Active  bool
	Title   string
	Message string
	// Target is the id the confirmed action applies to.
	Target string
}

func RenderConfirmationModal(state ConfirmationState, width, height int) string {
	content := modalSections(state.Title, warningColor, state.Message, FormatFooter("y", "Yes", "n", "No"), width)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
