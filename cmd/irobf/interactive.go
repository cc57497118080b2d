package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/irobf/ir"
	"github.com/wippyai/irobf/policy"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	declStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateFilter
	stateShowExplanation
)

type interactiveModel struct {
	resolver *policy.Resolver
	unit     string
	funcs    []*ir.Function
	visible  []*ir.Function
	filter   textinput.Model
	selected int
	state    modelState
}

func newInteractiveModel(unit string, r *policy.Resolver, funcs []*ir.Function) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "function name"
	ti.Prompt = "filter: "
	ti.Width = 40
	return &interactiveModel{
		resolver: r,
		unit:     unit,
		funcs:    funcs,
		visible:  funcs,
		filter:   ti,
		state:    stateSelectFunc,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateFilter {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter", "esc":
			m.filter.Blur()
			m.state = stateSelectFunc
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.state == stateSelectFunc && m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.state == stateSelectFunc && m.selected < len(m.visible)-1 {
			m.selected++
		}

	case "/":
		if m.state == stateSelectFunc {
			m.state = stateFilter
			return m, m.filter.Focus()
		}

	case "enter":
		switch m.state {
		case stateSelectFunc:
			if len(m.visible) > 0 {
				m.state = stateShowExplanation
			}
		case stateShowExplanation:
			m.state = stateSelectFunc
		}

	case "esc":
		m.state = stateSelectFunc
	}
	return m, nil
}

func (m *interactiveModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0:0]
	for _, f := range m.funcs {
		if strings.Contains(strings.ToLower(f.Name), q) {
			m.visible = append(m.visible, f)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("irobf explain"))
	b.WriteString(" ")
	b.WriteString(m.unit)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc, stateFilter:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no matching functions"))
			b.WriteString("\n")
		}
		for i, f := range m.visible {
			line := m.formatFunc(f)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(helpStyle.Render("type to filter • enter/esc done"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • / filter • enter explain • q quit"))
		}

	case stateShowExplanation:
		b.WriteString(renderExplanation(m.resolver.Explain(m.visible[m.selected])))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter/esc back • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatFunc(f *ir.Function) string {
	name := funcStyle.Render(f.Name)
	if !policy.Eligible(f) {
		return name + " " + declStyle.Render("(not eligible)")
	}
	if len(f.Annotations) > 0 {
		return name + " " + declStyle.Render(fmt.Sprintf("[%s]", strings.Join(f.Annotations, " ")))
	}
	return name
}

func runInteractive(unit string, r *policy.Resolver, funcs []*ir.Function) error {
	p := tea.NewProgram(newInteractiveModel(unit, r, funcs), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
