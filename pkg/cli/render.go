package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/platinummonkey/pluginlinks/pkg/plugins"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	networkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// renderPluginTable lays the list out as aligned columns
func renderPluginTable(list []plugins.Descriptor) string {
	if len(list) == 0 {
		return dimStyle.Render("No plugins installed.")
	}

	nameWidth, fileWidth := len("NAME"), len("FILE")
	for _, d := range list {
		nameWidth = max(nameWidth, lipgloss.Width(d.Name))
		fileWidth = max(fileWidth, lipgloss.Width(d.File))
	}

	name := lipgloss.NewStyle().Width(nameWidth + 2)
	file := lipgloss.NewStyle().Width(fileWidth + 2)

	rows := []string{
		headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
			name.Render("NAME"), file.Render("FILE"), "STATUS")),
	}
	for _, d := range list {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			name.Render(d.Name), file.Render(d.File), renderStatus(d)))
	}

	rows = append(rows, dimStyle.Render(fmt.Sprintf("%d plugins, %d active", len(list), countActive(list))))
	return strings.Join(rows, "\n")
}

func renderStatus(d plugins.Descriptor) string {
	status := inactiveStyle.Render(string(d.Status))
	if d.IsActive() {
		status = activeStyle.Render(string(d.Status))
	}
	if d.NetworkStatus != plugins.NetworkNone {
		status += " " + networkStyle.Render("("+string(d.NetworkStatus)+")")
	}
	return status
}

func countActive(list []plugins.Descriptor) int {
	n := 0
	for _, d := range list {
		if d.IsActive() {
			n++
		}
	}
	return n
}
