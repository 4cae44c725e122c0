package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tcx/internal/formatter"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/desertthunder/tcx/internal/tasks"
	"github.com/desertthunder/tcx/internal/tonie"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TonieListView ViewState = iota
	ChapterListView
	ConfirmView
	ActionView
	ResultView
)

// pendingAction is the operation awaiting confirmation.
type pendingAction int

const (
	actionNone pendingAction = iota
	actionShuffle
	actionClear
)

func (a pendingAction) String() string {
	switch a {
	case actionShuffle:
		return "shuffle"
	case actionClear:
		return "clear"
	default:
		return ""
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	api         tasks.TonieAPI
	householdID string

	width  int
	height int

	tonieList   list.Model
	tonies      []tonie.CreativeTonie
	selected    *tonie.CreativeTonie
	chapterList list.Model

	pending pendingAction
	result  *tonie.CreativeTonie
	err     error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model. When householdID is empty the account's
// first household is used.
func NewModel(ctx context.Context, api tasks.TonieAPI, householdID string) *Model {
	return &Model{
		ctx:         ctx,
		view:        TonieListView,
		api:         api,
		householdID: householdID,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init initializes the TUI by fetching the household's Creative Tonies.
func (m *Model) Init() tea.Cmd {
	return m.fetchTonies()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.tonieList.Width() == 0 {
			m.tonieList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.chapterList.Width() == 0 {
			m.chapterList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TonieListView:
			return m.handleTonieListKeys(msg)
		case ChapterListView:
			return m.handleChapterListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case toniesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.householdID = msg.householdID
		m.tonies = msg.tonies
		items := make([]list.Item, len(msg.tonies))
		for i, t := range msg.tonies {
			items[i] = tonieItem{tonie: t}
		}
		m.tonieList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.tonieList.Title = "Creative Tonies"
		m.tonieList.SetSize(m.width-4, m.height-8)
		m.view = TonieListView
		return m, nil

	case actionCompleteMsg:
		m.result = msg.tonie
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TonieListView:
		return m.renderTonieList()
	case ChapterListView:
		return m.renderChapterList()
	case ConfirmView:
		return m.renderConfirm()
	case ActionView:
		return m.renderAction()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTonieListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected, ok := m.tonieList.SelectedItem().(tonieItem); ok {
			m.selectTonie(selected.tonie)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.tonieList, cmd = m.tonieList.Update(msg)
	return m, cmd
}

func (m *Model) handleChapterListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = TonieListView
		return m, nil
	case "s":
		m.pending = actionShuffle
		m.view = ConfirmView
		return m, nil
	case "c":
		m.pending = actionClear
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.chapterList, cmd = m.chapterList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.pending = actionNone
		m.view = ChapterListView
		return m, nil
	case "y":
		m.view = ActionView
		return m, m.runAction()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.selected = nil
		m.result = nil
		m.err = nil
		m.pending = actionNone
		m.view = TonieListView
		return m, m.fetchTonies()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TonieListView:
		m.tonieList, cmd = m.tonieList.Update(msg)
	case ChapterListView:
		m.chapterList, cmd = m.chapterList.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectTonie(t tonie.CreativeTonie) {
	m.selected = &t
	items := make([]list.Item, len(t.Chapters))
	for i, ch := range t.Chapters {
		items[i] = chapterItem{chapter: ch}
	}
	m.chapterList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.chapterList.Title = fmt.Sprintf("Chapters on '%s'", t.Name)
	m.chapterList.SetSize(m.width-4, m.height-8)
	m.view = ChapterListView
}

func (m *Model) fetchTonies() tea.Cmd {
	return func() tea.Msg {
		householdID := m.householdID
		if householdID == "" {
			households, err := m.api.Households(m.ctx)
			if err != nil {
				return toniesFetchedMsg{err: err}
			}
			if len(households) == 0 {
				return toniesFetchedMsg{err: shared.ErrHouseholdNotFound}
			}
			householdID = households[0].ID
		}

		tonies, err := m.api.CreativeTonies(m.ctx, householdID)
		return toniesFetchedMsg{householdID: householdID, tonies: tonies, err: err}
	}
}

func (m *Model) runAction() tea.Cmd {
	action := m.pending
	householdID := m.householdID
	tonieID := m.selected.ID

	return func() tea.Msg {
		var t *tonie.CreativeTonie
		var err error
		switch action {
		case actionShuffle:
			t, err = m.api.ShuffleChapters(m.ctx, householdID, tonieID)
		case actionClear:
			t, err = m.api.ClearChapters(m.ctx, householdID, tonieID)
		}
		return actionCompleteMsg{tonie: t, err: err}
	}
}

func (m *Model) renderTonieList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.tonieList.View(), helpView)
}

func (m *Model) renderChapterList() string {
	helpKeys := []key.Binding{m.keys.shuffle, m.keys.clear, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.chapterList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	var question string
	switch m.pending {
	case actionShuffle:
		question = fmt.Sprintf("Shuffle the chapters of '%s'?", m.selected.Name)
	case actionClear:
		question = fmt.Sprintf("Remove all %d chapters from '%s'?", len(m.selected.Chapters), m.selected.Name)
	}
	title := styles.title.Render(question)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s", title, helpView)
}

func (m *Model) renderAction() string {
	title := styles.title.Render("Working")
	return fmt.Sprintf("%s\n\nRunning %s on '%s'...", title, m.pending, m.selected.Name)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Operation failed: %v\n\nPress r to retry, q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Done")
	info := fmt.Sprintf(
		"\n%s now has %d chapters (%s remaining)",
		m.result.Name,
		len(m.result.Chapters),
		formatter.FormatSeconds(m.result.SecondsRemaining),
	)

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
