package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stemhub/internal/formatter"
	"github.com/desertthunder/stemhub/internal/guard"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/store"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	SignedOutView
	ProjectListView
	ProjectDetailView
)

// Tab is a section of the project detail view.
type Tab int

const (
	VersionsTab Tab = iota
	SamplesTab
	ActivityTab
)

var tabNames = [...]string{"Versions", "Samples", "Activity"}

func (t Tab) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return ""
}

// Stores are the state containers the TUI reads from.
type Stores struct {
	Session  *store.Session
	Projects *store.Projects
	Versions *store.Versions
	Samples  *store.Samples
	Activity *store.Activity
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	stores   Stores
	view     ViewState
	gate     guard.Gate
	width    int
	height   int
	projects list.Model
	selected *models.Project
	tab      Tab
	pending  map[Tab]bool
	errs     map[Tab]error
	err      error
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	sessions chan store.SessionState
	cancel   func()
}

// NewModel creates a new TUI model over the given stores.
//
// The model follows every session snapshot; call [Model.Close] when the program exits.
func NewModel(ctx context.Context, stores Stores) *Model {
	m := &Model{
		ctx:      ctx,
		stores:   stores,
		view:     LoadingView,
		projects: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		pending:  map[Tab]bool{},
		errs:     map[Tab]error{},
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     newKeyMap(),
		sessions: make(chan store.SessionState, 8),
	}
	m.projects.Title = "Projects"

	m.cancel = stores.Session.Subscribe(func(s store.SessionState) {
		select {
		case m.sessions <- s:
		default:
		}
	})
	return m
}

// Close stops following the session.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Init bootstraps the session and starts listening for session changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bootstrap(), m.waitForSession())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.projects.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case LoadingView, SignedOutView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ProjectListView:
			return m.handleProjectListKeys(msg)
		case ProjectDetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgBootstrapped:
		return m, m.applySession(msg.data.(store.SessionState))

	case MsgSession:
		return m, tea.Batch(m.applySession(msg.data.(store.SessionState)), m.waitForSession())

	case MsgProjectsFetched:
		data := msg.data.(projectsFetched)
		m.err = data.err
		if data.err == nil {
			m.projects.SetItems(projectItems(data.projects))
		}
		return m, nil

	case MsgDetailFetched:
		data := msg.data.(detailFetched)
		if m.selected == nil || data.project != m.selected.ID {
			return m, nil
		}
		m.pending[data.tab] = false
		m.errs[data.tab] = data.err
		return m, nil
	}
	return m, nil
}

// applySession moves between the gated views. Leaving for the signed-out view happens once per sign-out.
func (m *Model) applySession(state store.SessionState) tea.Cmd {
	decision, navigate := m.gate.Step(state)
	switch decision {
	case guard.Placeholder:
		return nil
	case guard.Redirect:
		if navigate {
			m.view = SignedOutView
			m.selected = nil
		}
		return nil
	}

	if m.view == LoadingView || m.view == SignedOutView {
		m.view = ProjectListView
		return m.fetchProjects()
	}
	return nil
}

func (m *Model) handleProjectListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.projects.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.projects, cmd = m.projects.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchProjects()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.projects.SelectedItem().(projectItem); ok {
			p := item.project
			m.selected = &p
			m.tab = VersionsTab
			m.view = ProjectDetailView
			return m, m.fetchDetail(p.ID)
		}
	}

	var cmd tea.Cmd
	m.projects, cmd = m.projects.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ProjectListView
		m.selected = nil
	case key.Matches(msg, m.keys.tab):
		m.tab = (m.tab + 1) % Tab(len(tabNames))
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchDetail(m.selected.ID)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == ProjectListView {
		m.projects, cmd = m.projects.Update(msg)
	}
	return m, cmd
}

func (m *Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		return bootstrappedMsg(guard.Bootstrap(m.stores.Session))
	}
}

func (m *Model) waitForSession() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.sessions:
			return sessionMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) fetchProjects() tea.Cmd {
	return func() tea.Msg {
		projects, err := m.stores.Projects.List(m.ctx)
		return projectsFetchedMsg(projects, err)
	}
}

func (m *Model) fetchDetail(id models.ID) tea.Cmd {
	for _, t := range []Tab{VersionsTab, SamplesTab, ActivityTab} {
		m.pending[t] = true
		m.errs[t] = nil
	}
	return tea.Batch(
		func() tea.Msg {
			_, err := m.stores.Versions.List(m.ctx, id)
			return detailFetchedMsg(id, VersionsTab, err)
		},
		func() tea.Msg {
			_, err := m.stores.Samples.List(m.ctx, id)
			return detailFetchedMsg(id, SamplesTab, err)
		},
		func() tea.Msg {
			_, err := m.stores.Activity.ListProject(m.ctx, id, 0, "")
			return detailFetchedMsg(id, ActivityTab, err)
		},
	)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Loading session...\n\n%s", m.spinner.View(), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	case SignedOutView:
		return m.renderSignedOut()
	case ProjectListView:
		return m.renderProjectList()
	case ProjectDetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) renderSignedOut() string {
	title := styles.title.Render("Not signed in")
	body := "Run `stemhub auth login` in another terminal, then restart the dashboard."
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderProjectList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit})
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), m.projects.View(), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.projects.View(), helpView)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs[i] = styles.active.Render(name)
		} else {
			tabs[i] = styles.tab.Render(name)
		}
	}
	return strings.Join(tabs, " ")
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.selected.Name))
	b.WriteString("\n")
	if m.selected.Description != "" {
		b.WriteString(styles.help.Render(m.selected.Description) + "\n")
	}
	b.WriteString(m.renderTabs() + "\n\n")

	switch {
	case m.pending[m.tab]:
		b.WriteString(m.spinner.View() + " Loading...\n")
	case m.errs[m.tab] != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.errs[m.tab])) + "\n")
	default:
		b.WriteString(m.renderTab())
	}

	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.tab, m.keys.refresh, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderTab() string {
	id := m.selected.ID
	var lines []string

	switch m.tab {
	case VersionsTab:
		state := m.stores.Versions.Snapshot()
		for _, v := range state.Versions.Get(id) {
			line := fmt.Sprintf("v%d  %s", v.VersionNumber, v.Message)
			if name := v.Author.Username(); name != "" {
				line += styles.help.Render("  by " + name)
			}
			lines = append(lines, line)
		}
		if state.Push != nil && state.Push.Project == id {
			label := "push " + state.Push.ID.String() + ": " + styles.status(string(state.Push.Status))
			if !state.PushConfirmed {
				label += styles.help.Render(" (unconfirmed)")
			}
			lines = append(lines, "", label)
		}
	case SamplesTab:
		for _, s := range m.stores.Samples.Snapshot().Samples.Get(id) {
			line := s.Name
			if s.Duration > 0 {
				line += "  " + formatter.Duration(s.Duration)
			}
			if s.FileSize > 0 {
				line += "  " + formatter.FileSize(s.FileSize)
			}
			if len(s.Tags) > 0 {
				line += styles.help.Render("  #" + strings.Join(s.Tags, " #"))
			}
			lines = append(lines, line)
		}
	case ActivityTab:
		text := formatter.ActivityToText("", m.stores.Activity.Snapshot().Project.Get(id))
		return string(text)
	}

	if len(lines) == 0 {
		return styles.help.Render("Nothing here yet.") + "\n"
	}
	return strings.Join(lines, "\n") + "\n"
}
