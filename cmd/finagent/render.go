package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mtlprog/finagent/internal/orchestrator"
)

var (
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	responseStyle = lipgloss.NewStyle().MarginTop(1)
)

// renderLine formats one orchestrator line for a terminal.
func renderLine(raw string) string {
	line, ok := orchestrator.ParseLine(raw)
	if !ok {
		return raw
	}

	switch line.Kind {
	case orchestrator.KindStatus:
		return statusStyle.Render("… " + line.Text)
	case orchestrator.KindAgentStart:
		return agentStyle.Render("▶ "+line.Agent) + " " + line.Text
	case orchestrator.KindAgentDone:
		return doneStyle.Render("✓ "+line.Agent) + " " + line.Text
	case orchestrator.KindAgentError:
		return errorStyle.Render("✗ "+line.Agent) + " " + line.Text
	default:
		return responseStyle.Render(line.Text)
	}
}
