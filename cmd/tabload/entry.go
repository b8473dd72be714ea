package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/tabload/internal/core"
)

/* ----------------------------------------
	ROW ENTRY MODEL
---------------------------------------- */

type entryPhase int

const (
	phaseField    entryPhase = iota // asking for the next missing field
	phaseContinue                   // asking whether to enter another row
	phaseDone
)

// entryModel drives manual entry: one prompt per missing field, re-asked
// until the value fits the column, then one insert per row.
//
// Inserts run inside Update, so keys typed ahead of a slow insert still
// apply to the next row in order.
type entryModel struct {
	ctx     context.Context
	session *core.ManualSession
	title   string

	draft   *core.RowDraft
	input   textinput.Model
	phase   entryPhase
	invalid string   // last rejected value's reason
	history []string // one line per attempted row
	lastKey string
}

func newEntryModel(ctx context.Context, s *core.ManualSession, title string) *entryModel {
	in := textinput.New()
	in.Prompt = ""
	in.Focus()

	m := &entryModel{ctx: ctx, session: s, title: title, input: in}
	m.startRow()
	return m
}

func (m *entryModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *entryModel) startRow() {
	m.draft = m.session.NewRow()
	m.phase = phaseField
	m.invalid = ""
	m.input.Reset()
}

// current returns the column being asked for.
func (m *entryModel) current() (core.ColumnSpec, bool) {
	missing := m.draft.Missing()
	if len(missing) == 0 {
		return core.ColumnSpec{}, false
	}
	return m.session.Schema().Column(missing[0])
}

func (m *entryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		prev := m.lastKey
		m.lastKey = key.String()
		switch m.lastKey {
		case "ctrl+c", "ctrl+d", "esc":
			m.phase = phaseDone
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "ctrl+j":
			// \n arrives as ctrl+j; right after \r it ends a CRLF already submitted.
			if prev == "enter" {
				return m, nil
			}
			return m.submit()
		}
	}

	if m.phase == phaseDone {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *entryModel) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	m.input.Reset()

	switch m.phase {
	case phaseField:
		col, ok := m.current()
		if !ok {
			return m, nil
		}
		if err := m.draft.Set(col.Name, value); err != nil {
			m.invalid = err.Error()
			return m, nil
		}
		m.invalid = ""
		if len(m.draft.Missing()) > 0 {
			return m, nil
		}
		out := m.session.Insert(m.ctx, m.draft)
		m.history = append(m.history, outcomeLine(out))
		m.phase = phaseContinue
		return m, nil

	case phaseContinue:
		if isYes(value) {
			m.startRow()
			return m, nil
		}
		m.phase = phaseDone
		return m, tea.Quit
	}
	return m, nil
}

func (m *entryModel) View() string {
	if m.phase == phaseDone {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.title + "\n\n")
	for _, line := range m.history {
		b.WriteString(line + "\n")
	}

	switch m.phase {
	case phaseField:
		col, _ := m.current()
		if m.invalid != "" {
			b.WriteString("  invalid value: " + m.invalid + "\n")
		}
		b.WriteString(fieldLabel(col) + m.input.View() + "\n")
	case phaseContinue:
		b.WriteString("Insert another row? (s/n): " + m.input.View() + "\n")
	}
	b.WriteString("\n(esc or ctrl+d to finish)\n")
	return b.String()
}

func fieldLabel(col core.ColumnSpec) string {
	return fmt.Sprintf("%s (%s/%s): ", col.Name, col.CatalogType, col.Category)
}

func outcomeLine(o core.InsertOutcome) string {
	if o.Success {
		return fmt.Sprintf("Row %d inserted.", o.Index)
	}
	line := fmt.Sprintf("Row %d failed: %s", o.Index, o.Message)
	if core.IsUserFacing(o.Err) {
		line += "\n  " + core.FormatUserError(o.Err)
	}
	return line
}

// isYes accepts "s" (sí) as well as "y".
func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}
