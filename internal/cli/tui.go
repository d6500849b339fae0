package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/depchase/depchase/pkg/locate"
)

var (
	listTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// LocationListModel is the bubbletea model for picking one of several
// ranked symbol locations.
type LocationListModel struct {
	Symbol    string
	Locations []locate.Location
	Cursor    int
	Selected  *locate.Location
}

// NewLocationListModel creates a location picker for the given symbol.
func NewLocationListModel(symbol string, locations []locate.Location) LocationListModel {
	return LocationListModel{Symbol: symbol, Locations: locations}
}

func (m LocationListModel) Init() tea.Cmd {
	return nil
}

func (m LocationListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Locations)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = &m.Locations[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m LocationListModel) View() string {
	var b strings.Builder

	b.WriteString(listTitleStyle.Render("Implementations of " + m.Symbol))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, loc := range m.Locations {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		line := fmt.Sprintf("%s%-50s %s", cursor,
			fmt.Sprintf("%s:%d", loc.Path, loc.Line),
			listDimStyle.Render(fmt.Sprintf("confidence %d", loc.Confidence)))

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")

		if i == m.Cursor && loc.Snippet != "" {
			for _, sl := range strings.Split(strings.TrimRight(loc.Snippet, "\n"), "\n") {
				b.WriteString(listDimStyle.Render("      " + sl))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Locations))))

	return b.String()
}

// pickLocation runs the interactive picker and returns the chosen
// location, or nil if the user quit without selecting.
func pickLocation(symbol string, locations []locate.Location) (*locate.Location, error) {
	p := tea.NewProgram(NewLocationListModel(symbol, locations))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm, ok := finalModel.(LocationListModel)
	if !ok {
		return nil, nil
	}
	return fm.Selected, nil
}
