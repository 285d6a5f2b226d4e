// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/john-rice/Ice/internal/icedbus"
)

const refreshInterval = time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	nameStyle = lipgloss.NewStyle().
			Width(16)

	shownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Width(8)

	hiddenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(8)

	changedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

type tickMsg time.Time

type sectionsMsg []icedbus.SectionState

type errMsg struct{ err error }

// Model is the TUI state.
type Model struct {
	client *icedbus.Client
	keys   KeyMap
	help   help.Model

	sections []icedbus.SectionState
	changed  map[string]time.Time
	err      error
}

// New creates a TUI backed by client.
func New(client *icedbus.Client) Model {
	return Model{
		client:  client,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		changed: make(map[string]time.Time),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchSections, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSections() tea.Msg {
	sections, err := m.client.ListSections()
	if err != nil {
		return errMsg{err}
	}
	return sectionsMsg(sections)
}

func (m Model) toggle(name string) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.ToggleSection(name); err != nil {
			return errMsg{err}
		}
		return m.fetchSections()
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetchSections
		case key.Matches(msg, m.keys.ToggleVisible):
			return m, m.toggle("visible")
		case key.Matches(msg, m.keys.ToggleHidden):
			return m, m.toggle("hidden")
		case key.Matches(msg, m.keys.ToggleAlwaysHidden):
			return m, m.toggle("always-hidden")
		}

	case tickMsg:
		return m, tea.Batch(m.fetchSections, tick())

	case sectionsMsg:
		m.err = nil
		now := time.Now()
		for _, sec := range msg {
			prev, seen := m.lookup(sec.Name)
			if seen && prev.Hidden != sec.Hidden {
				m.changed[sec.Name] = now
			}
		}
		m.sections = msg
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	}

	return m, nil
}

// lookup finds a section in the current snapshot.
func (m Model) lookup(name string) (icedbus.SectionState, bool) {
	for _, sec := range m.sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return icedbus.SectionState{}, false
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Ice menu bar sections"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if len(m.sections) == 0 {
		b.WriteString(changedStyle.Render("waiting for daemon..."))
		b.WriteString("\n")
	}

	for i, sec := range m.sections {
		state := shownStyle.Render("shown")
		if sec.Hidden {
			state = hiddenStyle.Render("hidden")
		}

		changed := ""
		if at, ok := m.changed[sec.Name]; ok {
			changed = changedStyle.Render(humanize.Time(at))
		}

		b.WriteString(fmt.Sprintf("%d  %s%s %s\n",
			i+1, nameStyle.Render(sec.Name), state, changed))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run starts the TUI and blocks until the user quits.
func Run(client *icedbus.Client) error {
	p := tea.NewProgram(New(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
