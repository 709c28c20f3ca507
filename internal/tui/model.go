// Package tui is the terminal version of the glucose form. The session is the
// lifetime of the program: the log starts empty and is gone on exit.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jwulff/glucotrack/internal/bloodsugar"
	"github.com/jwulff/glucotrack/internal/render"
	"github.com/jwulff/glucotrack/internal/session"
)

// Chart size in terminal cells.
const (
	chartWidth  = 64
	chartHeight = 32
)

const pushTimeout = 5 * time.Second

// Pusher mirrors the log to a display after each calculation.
type Pusher interface {
	Push(ctx context.Context, entries []session.Entry) error
}

// pushDoneMsg reports the outcome of a mirror push.
type pushDoneMsg struct{ err error }

const (
	fieldFasting = iota
	fieldPostprandial
	fieldCount
)

// Model is the bubbletea model for the glucose form.
type Model struct {
	inputs [fieldCount]textinput.Model
	focus  int

	log    *session.Log
	result *session.Result
	err    error

	mirror     Pusher
	pushStatus string
	now        func() time.Time
}

// New creates the form with an empty session log. mirror may be nil.
func New(mirror Pusher) Model {
	m := Model{
		log:    session.NewLog(),
		mirror: mirror,
		now:    time.Now,
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = "0"
		ti.CharLimit = 5
		ti.Width = 8
		ti.Prompt = ""
		m.inputs[i] = ti
	}
	m.inputs[fieldFasting].Focus()
	return m
}

// Log returns the session log so far.
func (m Model) Log() *session.Log {
	return m.log
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			cmd := m.setFocus((m.focus + 1) % fieldCount)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, cmd
		case "enter":
			return m.calculate()
		}
	case pushDoneMsg:
		if msg.err != nil {
			m.pushStatus = "display not updated: " + msg.err.Error()
		} else {
			m.pushStatus = "display updated"
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

// calculate validates the inputs and appends one entry on success.
func (m Model) calculate() (tea.Model, tea.Cmd) {
	reading, err := session.ParseReading(m.inputs[fieldFasting].Value(), m.inputs[fieldPostprandial].Value())
	if err != nil {
		m.err = err
		return m, nil
	}

	result, log := session.Calculate(m.log, reading, m.now())
	m.log = log
	m.result = &result
	m.err = nil
	m.pushStatus = ""

	focus := m.setFocus(fieldFasting)
	if m.mirror == nil {
		return m, focus
	}
	return m, tea.Batch(focus, pushCmd(m.mirror, m.log.Snapshot()))
}

func pushCmd(mirror Pusher, entries []session.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		return pushDoneMsg{err: mirror.Push(ctx, entries)}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Blood Glucose & HbA1c Tracker"))
	b.WriteString("\n")
	b.WriteString(headingStyle.Render("Enter Your Glucose Levels"))
	b.WriteString("\n\n")
	b.WriteString(m.inputRow(fieldFasting, "Fasting Glucose (mg/dL)"))
	b.WriteString(m.inputRow(fieldPostprandial, "Postprandial Glucose (mg/dL)"))
	b.WriteString(hintStyle.Render("enter: Calculate HbA1c • tab: next field • esc: quit"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	if m.result != nil {
		b.WriteString("\n")
		b.WriteString(headingStyle.Render("Results"))
		b.WriteString("\n")
		b.WriteString("Estimated HbA1c: " + hba1cStyle.Render(m.result.Formatted))
		b.WriteString("\n")
		b.WriteString(adviceStyle(m.result.Advice).Render(m.result.Message))
		b.WriteString("\n")
		if m.pushStatus != "" {
			b.WriteString(hintStyle.Render(m.pushStatus))
			b.WriteString("\n")
		}
	}

	if m.log.State() == session.StateNonEmpty {
		entries := m.log.Snapshot()

		b.WriteString("\n")
		b.WriteString(headingStyle.Render("Glucose Level Trends"))
		b.WriteString("\n")
		frame := render.ComposeTrendFrame(entries, chartWidth, chartHeight)
		b.WriteString(chartStyle.Render(render.FrameASCII(frame)))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(colorFasting).Render("── Fasting"))
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Foreground(colorPostprandial).Render("── Postprandial"))
		b.WriteString("\n\n")

		b.WriteString(headingStyle.Render("Recorded Data"))
		b.WriteString("\n")
		b.WriteString(entriesTable(entries))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) inputRow(field int, label string) string {
	style := labelStyle
	if m.focus == field {
		style = focusedLabelStyle
	}
	return style.Render(label) + m.inputs[field].View() + "\n"
}

// entriesTable renders the recorded data with mmol/L alongside mg/dL.
func entriesTable(entries []session.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			glucoseCell(e.Fasting),
			glucoseCell(e.Postprandial),
			bloodsugar.FormatHbA1c(e.HbA1c),
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("#", "Fasting", "Postprandial", "HbA1c").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			switch col {
			case 1:
				return style.Foreground(colorFasting)
			case 2:
				return style.Foreground(colorPostprandial)
			}
			return style
		}).
		String()
}

func glucoseCell(mgdl int) string {
	return fmt.Sprintf("%d (%.1f)", mgdl, bloodsugar.MgdlToMmol(mgdl))
}
