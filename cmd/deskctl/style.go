package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/studiodesk/studio-desk/internal/client"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder(), false, true, false, false)
)

func stat(label string, value int) string {
	return statStyle.Render(fmt.Sprintf("%s %d", mutedStyle.Render(label), value))
}

// renderError formats API failures with their code, flagging retryable ones.
func renderError(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return errorStyle.Render("error: ") + err.Error()
	}
	msg := errorStyle.Render(apiErr.Code) + " " + apiErr.Message
	if apiErr.Retryable() {
		msg += mutedStyle.Render(" (temporary, try again)")
	}
	if problems, ok := apiErr.Details["problems"].([]any); ok {
		for _, p := range problems {
			msg += fmt.Sprintf("\n  - %v", p)
		}
	}
	return msg
}
