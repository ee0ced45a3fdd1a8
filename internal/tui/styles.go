package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	header       lipgloss.Style
	unit         lipgloss.Style
	unitSelected lipgloss.Style
	pane         lipgloss.Style
	paneFocused  lipgloss.Style
	entity       lipgloss.Style
	entityCursor lipgloss.Style
	entityActive lipgloss.Style
	query        lipgloss.Style
	muted        lipgloss.Style
	pager        lipgloss.Style
	errorNotice  lipgloss.Style
	okNotice     lipgloss.Style
	table        table.Styles
}

func defaultStyles() styles {
	accent := lipgloss.Color("63")
	border := lipgloss.Color("240")

	t := table.DefaultStyles()
	t.Header = t.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(border).
		BorderBottom(true).
		Bold(true)
	t.Selected = t.Selected.
		Foreground(lipgloss.Color("229")).
		Background(accent)

	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return styles{
		header:       lipgloss.NewStyle().Bold(true).Padding(0, 1),
		unit:         lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245")),
		unitSelected: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("230")).Background(accent),
		pane:         pane,
		paneFocused:  pane.BorderForeground(accent),
		entity:       lipgloss.NewStyle(),
		entityCursor: lipgloss.NewStyle().Foreground(accent),
		entityActive: lipgloss.NewStyle().Bold(true).Foreground(accent),
		query:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		pager:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		errorNotice:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		okNotice:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		table:        t,
	}
}
