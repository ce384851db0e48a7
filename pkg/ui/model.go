// Package ui implements the terminal knowledge browser: a filterable
// category sidebar next to a reading pane for Markdown articles with
// inline diagrams and tabbed code samples.
package ui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bluerabbit/kcore/pkg/catalog"
	"github.com/bluerabbit/kcore/pkg/debug"
	"github.com/bluerabbit/kcore/pkg/docstore"
)

// SplitViewThreshold is the minimum terminal width for showing the
// sidebar and the reading pane side by side. Below it the shell shows
// one pane at a time and hides the sidebar once a topic is picked.
const SplitViewThreshold = 80

const sidebarWidth = 32

// FileChangedMsg reports that an article changed on disk.
type FileChangedMsg struct {
	Name string
}

// WatchChangesCmd relays one change from the watcher channel into the
// program. Reissue it after each message to keep listening.
func WatchChangesCmd(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return FileChangedMsg{Name: <-ch}
	}
}

type focusArea int

const (
	focusSidebar focusArea = iota
	focusContent
)

// Model is the top-level shell wiring the sidebar and reading pane.
type Model struct {
	theme   Theme
	sidebar Sidebar
	content Content

	changes <-chan string // watcher events, nil when not watching

	focus       focusArea
	showSidebar bool
	width       int
	height      int
	statusMsg   string
	quitting    bool
}

// Option configures the shell.
type Option func(*Model)

// WithWatcher wires a watcher change channel into the shell so the open
// article re-renders when its file changes.
func WithWatcher(ch <-chan string) Option {
	return func(m *Model) { m.changes = ch }
}

// WithSidebarHidden starts with the navigation pane collapsed.
func WithSidebarHidden(hidden bool) Option {
	return func(m *Model) { m.showSidebar = !hidden }
}

// WithContentWidth caps the rendered prose width regardless of how wide
// the terminal is. Zero means use the full pane.
func WithContentWidth(width int) Option {
	return func(m *Model) { m.content.maxWrap = width }
}

// NewModel builds the shell over a catalog and a document store.
func NewModel(theme Theme, cats []catalog.Category, store docstore.Store, searchFn SearchFunc, opts ...Option) Model {
	m := Model{
		theme:       theme,
		sidebar:     NewSidebar(theme, cats, searchFn),
		content:     NewContent(theme, store),
		focus:       focusSidebar,
		showSidebar: true,
		width:       80,
		height:      24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Selected returns the article currently open in the reading pane.
func (m Model) Selected() string {
	return m.content.Name()
}

// SidebarVisible reports whether the navigation pane is shown.
func (m Model) SidebarVisible() bool {
	return m.showSidebar
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.changes != nil {
		return WatchChangesCmd(m.changes)
	}
	return nil
}

// OpenTopic loads an article into the reading pane. In a narrow
// terminal the sidebar gives way to the content so the article gets the
// full width.
func (m Model) OpenTopic(topic catalog.Topic) (Model, tea.Cmd) {
	cmd := m.content.Load(topic.FileName)
	m.focus = focusContent
	if m.width < SplitViewThreshold {
		m.showSidebar = false
	}
	m.statusMsg = ""
	return m, cmd
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case TopicSelectedMsg:
		return m.OpenTopic(msg.Topic)

	case FileChangedMsg:
		cmds := []tea.Cmd{WatchChangesCmd(m.changes)}
		if msg.Name == m.content.Name() {
			debug.Log("shell: reloading %s after change", msg.Name)
			if cmd := m.content.Reload(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	case docLoadedMsg, spinner.TickMsg:
		var cmd tea.Cmd
		m.content, cmd = m.content.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While typing a query every printable key belongs to the input.
	if m.showSidebar && m.focus == focusSidebar && m.sidebar.Searching() {
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "b":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.focus = focusSidebar
		} else {
			m.focus = focusContent
		}
		m.layout()
		return m, nil

	case "y":
		if raw := m.content.Raw(); raw != "" {
			if err := clipboard.WriteAll(raw); err != nil {
				m.statusMsg = fmt.Sprintf("clipboard error: %v", err)
			} else {
				m.statusMsg = fmt.Sprintf("copied %s", m.content.Name())
			}
		}
		return m, nil

	case "left", "h":
		if m.focus == focusContent && m.showSidebar {
			m.focus = focusSidebar
			return m, nil
		}
		if m.focus == focusContent && !m.showSidebar {
			m.showSidebar = true
			m.focus = focusSidebar
			m.layout()
			return m, nil
		}
	}

	if m.showSidebar && m.focus == focusSidebar {
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return m, cmd
}

// layout recomputes pane sizes from the window and sidebar visibility.
func (m *Model) layout() {
	bodyHeight := max(m.height-1, 1)
	if m.showSidebar && m.width >= SplitViewThreshold {
		m.sidebar.SetSize(sidebarWidth, bodyHeight)
		m.content.SetSize(m.width-sidebarWidth-1, bodyHeight)
		return
	}
	m.sidebar.SetSize(m.width, bodyHeight)
	m.content.SetSize(m.width, bodyHeight)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	body := m.bodyView()
	return body + "\n" + m.statusBar()
}

func (m Model) bodyView() string {
	narrow := m.width < SplitViewThreshold

	if m.showSidebar && !narrow {
		side := m.theme.SidebarPane.
			Width(sidebarWidth).
			Height(max(m.height-1, 1)).
			Render(m.sidebar.View(m.content.Name()))
		return lipgloss.JoinHorizontal(lipgloss.Top, side, m.content.View())
	}
	if m.showSidebar {
		return m.sidebar.View(m.content.Name())
	}
	return m.content.View()
}

func (m Model) statusBar() string {
	if m.statusMsg != "" {
		return m.theme.StatusBar.Render(m.statusMsg)
	}

	hints := "/ filter · f search · b sidebar · y copy · q quit"
	name := m.content.Name()
	if name == "" {
		return m.theme.StatusBar.Render(hints)
	}
	left := truncate(name, max(m.width/2, 16))
	return m.theme.StatusBar.Render(left + "  " + hints)
}
