package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/session"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listPromptStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	listErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// quickAddKeys maps keys to the relation they quick-add.
var quickAddKeys = map[string]editor.Relation{
	"c": editor.RelationChild,
	"s": editor.RelationSpouse,
	"b": editor.RelationSibling,
	"p": editor.RelationParent,
}

// =============================================================================
// TreeModel - Interactive tree editor
// =============================================================================

// opDoneMsg reports the end of an editor operation started from the TUI.
type opDoneMsg struct {
	status string
	selID  string // person to move the cursor to, if any
	err    error
}

// confirmPrompt is a pending yes/no question. run starts the operation on
// "y".
type confirmPrompt struct {
	question string
	run      func() opDoneMsg
}

// TreeModel is the bubbletea model for editing a tree. The editor it drives
// must not ask for confirmation itself; the model asks before starting an
// operation that needs it.
type TreeModel struct {
	ctx    context.Context
	editor *editor.Editor

	rows   []personRow
	Cursor int
	Offset int
	Height int

	busy     bool
	spin     spinner.Model
	confirm  *confirmPrompt
	renaming string // ID of the person being renamed
	input    textinput.Model

	status    string
	statusErr bool
}

// NewTreeModel creates a model over a loaded editor.
func NewTreeModel(ctx context.Context, e *editor.Editor) TreeModel {
	in := textinput.New()
	in.Placeholder = "First Surname"
	in.CharLimit = 120

	m := TreeModel{
		ctx:    ctx,
		editor: e,
		Height: 15,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:  in,
	}
	m.refresh(e.Session().Selected())
	return m
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case opDoneMsg:
		m.busy = false
		m.status, m.statusErr = msg.status, false
		if msg.err != nil {
			m.status, m.statusErr = errors.UserMessage(msg.err), true
		}
		sel := msg.selID
		if sel == "" {
			sel = m.current()
		}
		m.refresh(sel)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.renaming != "" {
			return m.updateRename(msg)
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m TreeModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter":
		id := m.current()
		m.editor.SelectNode(id)
		m.status, m.statusErr = "", false
	case "l":
		mode := m.editor.ToggleMode()
		m.status, m.statusErr = "Mode: "+string(mode), false
	case "r":
		return m.start(func() opDoneMsg {
			if err := m.editor.Relayout(m.ctx); err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{status: "Relayout done, press w to save"}
		})
	case "w":
		return m.start(func() opDoneMsg {
			if err := m.editor.SavePositions(m.ctx); err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{status: "Positions saved"}
		})
	case "d":
		id := m.current()
		p, ok := m.editor.Person(id)
		if !ok {
			return m, nil
		}
		m.confirm = &confirmPrompt{
			question: fmt.Sprintf("Delete %s?", p.FullName()),
			run: func() opDoneMsg {
				if err := m.editor.DeletePerson(m.ctx, id); err != nil {
					return opDoneMsg{err: err}
				}
				return opDoneMsg{status: "Deleted " + p.FullName()}
			},
		}
	case "e":
		p, ok := m.editor.Person(m.current())
		if !ok {
			return m, nil
		}
		if err := m.editor.Session().Allow(session.ActionEdit); err != nil {
			m.status, m.statusErr = errors.UserMessage(err), true
			return m, nil
		}
		m.renaming = p.ID
		m.input.SetValue(p.FullName())
		return m, m.input.Focus()
	default:
		if rel, ok := quickAddKeys[key]; ok {
			return m.quickAdd(rel)
		}
	}
	return m, nil
}

func (m TreeModel) quickAdd(rel editor.Relation) (tea.Model, tea.Cmd) {
	anchor, ok := m.editor.Person(m.current())
	if !ok {
		return m, nil
	}
	run := func() opDoneMsg {
		id, err := m.editor.QuickAdd(m.ctx, anchor.ID, rel)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("Added %s of %s", rel, anchor.FullName()), selID: id}
	}
	if _, hasSpouse := m.editor.Graph().Spouse(anchor.ID); rel == editor.RelationChild && !hasSpouse && !m.editor.Session().Locked() {
		m.confirm = &confirmPrompt{
			question: fmt.Sprintf("%s has no spouse. Add a child with a single parent?", anchor.FullName()),
			run:      run,
		}
		return m, nil
	}
	return m.start(run)
}

func (m TreeModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prompt := m.confirm
	m.confirm = nil
	switch msg.String() {
	case "y", "Y":
		return m.start(prompt.run)
	}
	m.status, m.statusErr = "Cancelled", false
	return m, nil
}

func (m TreeModel) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.renaming = ""
		m.input.Blur()
		return m, nil
	case "enter":
		id := m.renaming
		first, surname, _ := strings.Cut(strings.TrimSpace(m.input.Value()), " ")
		surname = strings.TrimSpace(surname)
		m.renaming = ""
		m.input.Blur()
		return m.start(func() opDoneMsg {
			err := m.editor.UpdatePerson(m.ctx, id, family.Fields{FirstName: &first, Surname: &surname})
			if err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{status: "Renamed to " + strings.TrimSpace(first+" "+surname)}
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start runs op in the background and shows the spinner until it is done.
func (m TreeModel) start(op func() opDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status, m.statusErr = "", false
	return m, tea.Batch(m.spin.Tick, func() tea.Msg { return op() })
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Tree " + m.editor.TreeID()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  ⏎ select  c/s/b/p add child/spouse/sibling/parent  e rename  d delete  l lock  r relayout  w save  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	b.WriteString(renderPeopleTable(m.rows[m.Offset:end], m.current()))
	b.WriteString("\n")

	cached := m.editor.LayoutCached()
	b.WriteString(statsLine(m.editor.View(), m.editor.Graph().RelationshipCount(), cached))
	if m.editor.Unsaved() {
		b.WriteString(StyleWarning.Render("  unsaved positions"))
	}
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(m.spin.View() + " Working...")
	case m.renaming != "":
		b.WriteString(listPromptStyle.Render("Name: ") + m.input.View())
	case m.confirm != nil:
		b.WriteString(listPromptStyle.Render(m.confirm.question + " [y/N]"))
	case m.statusErr:
		b.WriteString(listErrorStyle.Render(iconError + " " + m.status))
	case m.status != "":
		b.WriteString(StyleSuccess.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

// refresh rebuilds the rows and puts the cursor on id when it exists.
func (m *TreeModel) refresh(id string) {
	m.rows = peopleRows(m.editor)
	for i, r := range m.rows {
		if r.ID == id {
			m.Cursor = i
			break
		}
	}
	m.Cursor = min(m.Cursor, max(len(m.rows)-1, 0))
	m.scroll()
}

func (m *TreeModel) move(delta int) {
	m.Cursor = min(max(m.Cursor+delta, 0), max(len(m.rows)-1, 0))
	m.scroll()
}

func (m *TreeModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m TreeModel) current() string {
	if m.Cursor < 0 || m.Cursor >= len(m.rows) {
		return ""
	}
	return m.rows[m.Cursor].ID
}
