package tui

import (
	"casaideal/internal/compare"
	"casaideal/internal/core"
	"casaideal/internal/pipeline"
	"casaideal/internal/render"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the state of the listings browser
type Model struct {
	properties  []core.Property // Main listings followed by alternatives
	primaryLen  int             // How many of properties are main listings
	selectedIdx int             // Cursor position
	marked      []string        // IDs marked for comparison, in marking order
	comparison  *compare.Comparison
	status      string
	width       int
	height      int
	quitting    bool
}

var (
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	listStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(0, 1)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewModel returns a browser over the listings of result
func NewModel(result *pipeline.SearchResult) Model {
	properties := make([]core.Property, 0, len(result.Listings)+len(result.Similar))
	properties = append(properties, result.Listings...)
	properties = append(properties, result.Similar...)

	return Model{
		properties: properties,
		primaryLen: len(result.Listings),
	}
}

// Init is the first command that will be run. We don't need any.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and window resizes
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.comparison != nil {
			return m.updateComparison(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "left", "h", "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "right", "l", "down", "j":
			if m.selectedIdx < len(m.properties)-1 {
				m.selectedIdx++
			}
		case " ", "space":
			m.toggleMark()
		case "c":
			m.openComparison()
		}
	}

	return m, nil
}

func (m Model) updateComparison(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "esc", "c", "backspace":
		m.comparison = nil
		m.status = ""
	}
	return m, nil
}

func (m *Model) toggleMark() {
	if len(m.properties) == 0 {
		return
	}
	id := m.properties[m.selectedIdx].ID

	for i, marked := range m.marked {
		if marked == id {
			m.marked = append(m.marked[:i:i], m.marked[i+1:]...)
			m.status = ""
			return
		}
	}

	if len(m.marked) >= compare.MaxProperties {
		m.status = fmt.Sprintf("Você pode comparar no máximo %d imóveis.", compare.MaxProperties)
		return
	}
	m.marked = append(m.marked, id)
	m.status = ""
}

func (m *Model) openComparison() {
	selected, err := compare.Select(m.properties, m.marked)
	if err == nil {
		m.comparison, err = compare.Build(selected)
	}
	if err != nil {
		m.status = fmt.Sprintf("Selecione de %d a %d imóveis para comparar.", compare.MinProperties, compare.MaxProperties)
		return
	}
	m.status = ""
}

// Marked returns the IDs currently marked for comparison
func (m Model) Marked() []string {
	return append([]string(nil), m.marked...)
}

// Selected returns the listing under the cursor
func (m Model) Selected() (core.Property, bool) {
	if len(m.properties) == 0 {
		return core.Property{}, false
	}
	return m.properties[m.selectedIdx], true
}

// Comparing reports whether the comparison view is open
func (m Model) Comparing() bool {
	return m.comparison != nil
}

// View renders the browser
func (m Model) View() string {
	if m.quitting {
		return "Até logo!\n"
	}

	if len(m.properties) == 0 {
		return docStyle.Render("Nenhum imóvel encontrado para esses critérios.\n\n" + helpStyle.Render("[q] Sair"))
	}

	if m.comparison != nil {
		content := render.ComparisonTable(m.comparison)
		return docStyle.Render(content + "\n" + helpStyle.Render("[esc/c] Voltar | [q] Sair"))
	}

	var list strings.Builder
	list.WriteString(sectionStyle.Render("Recomendados"))
	list.WriteString("\n")
	for i, p := range m.properties {
		if i == m.primaryLen {
			list.WriteString("\n")
			list.WriteString(sectionStyle.Render("Alternativas"))
			list.WriteString("\n")
		}

		cursor := " "
		if i == m.selectedIdx {
			cursor = ">"
		}
		mark := "[ ]"
		if m.isMarked(p.ID) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s %s", cursor, mark, p.Title)
		if i == m.selectedIdx {
			line = cursorStyle.Render(line)
		}
		list.WriteString(line)
		list.WriteString("\n")
	}

	listPane := listStyle.Render(strings.TrimRight(list.String(), "\n"))
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, listPane, " ", render.Card(m.properties[m.selectedIdx]))

	footer := fmt.Sprintf("%d/%d · %d marcados para comparar", m.selectedIdx+1, len(m.properties), len(m.marked))
	if m.status != "" {
		footer += "\n" + statusStyle.Render(m.status)
	}
	help := helpStyle.Render("[←/→] Navegar | [espaço] Marcar | [c] Comparar | [q] Sair")

	return docStyle.Render(mainContent + "\n\n" + footer + "\n" + help)
}

func (m Model) isMarked(id string) bool {
	for _, marked := range m.marked {
		if marked == id {
			return true
		}
	}
	return false
}

// Run starts the browser in the alternate screen and blocks until it quits
func Run(result *pipeline.SearchResult) error {
	p := tea.NewProgram(NewModel(result), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running browser: %w", err)
	}
	return nil
}
