package listing

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	name    lipgloss.Style
	id      lipgloss.Style
	key     lipgloss.Style
	detail  lipgloss.Style
	secret  lipgloss.Style
	warning lipgloss.Style
	section lipgloss.Style
	empty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		name:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		id:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(11),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		secret:  lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
	}
}
