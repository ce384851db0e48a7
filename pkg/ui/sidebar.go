package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bluerabbit/kcore/pkg/catalog"
	"github.com/bluerabbit/kcore/pkg/search"
)

// TopicSelectedMsg is emitted when the user picks an article to read.
type TopicSelectedMsg struct {
	Topic catalog.Topic
}

type rowKind int

const (
	rowCategory rowKind = iota
	rowTopic
	rowHit
)

type sidebarRow struct {
	kind     rowKind
	category string
	topic    catalog.Topic
	snippet  string
}

// SearchFunc resolves a full-text query to content hits. Wired to the
// search index by the shell; nil disables full-text mode.
type SearchFunc func(query string, limit int) ([]search.Hit, error)

// Sidebar is the navigation pane: the category tree with a title filter,
// plus an optional full-text mode backed by the content index.
type Sidebar struct {
	theme Theme
	cats  []catalog.Category

	// Only explicit toggles are stored; absent means default (expanded).
	// Keyed by category title so the state survives filtering.
	collapsed map[string]bool

	input     textinput.Model
	searching bool // input focused
	fulltext  bool // input queries content instead of titles
	searchFn  SearchFunc
	searchErr error

	cursor int
	width  int
	height int
}

// NewSidebar builds the navigation pane over the given catalog.
func NewSidebar(theme Theme, cats []catalog.Category, searchFn SearchFunc) Sidebar {
	input := textinput.New()
	input.Placeholder = "filter topics"
	input.Prompt = "/ "
	input.CharLimit = 64

	return Sidebar{
		theme:     theme,
		cats:      cats,
		collapsed: map[string]bool{},
		input:     input,
		searchFn:  searchFn,
	}
}

// SetSize updates the pane dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.input.Width = max(width-4, 8)
}

// SetCatalog swaps the category tree, keeping filter and open state.
func (s *Sidebar) SetCatalog(cats []catalog.Category) {
	s.cats = cats
	s.clampCursor()
}

// Query returns the current filter text.
func (s *Sidebar) Query() string {
	return s.input.Value()
}

// Searching reports whether the filter input has focus.
func (s *Sidebar) Searching() bool {
	return s.searching
}

// IsOpen reports whether a category's topics are visible. Categories
// start expanded.
func (s *Sidebar) IsOpen(title string) bool {
	return !s.collapsed[title]
}

// Toggle flips one category between expanded and collapsed. Toggling
// twice always restores the starting state, and the stored state is
// shared across filtered and unfiltered views.
func (s *Sidebar) Toggle(title string) {
	if s.collapsed[title] {
		delete(s.collapsed, title)
	} else {
		s.collapsed[title] = true
	}
	s.clampCursor()
}

// visible returns the category tree after applying the title filter.
func (s *Sidebar) visible() []catalog.Category {
	return catalog.Filter(s.input.Value(), s.cats)
}

// rows flattens the visible tree (or full-text hits) into cursor targets.
func (s *Sidebar) rows() []sidebarRow {
	if s.fulltext {
		return s.hitRows()
	}

	var rows []sidebarRow
	for _, cat := range s.visible() {
		rows = append(rows, sidebarRow{kind: rowCategory, category: cat.Title})
		if !s.IsOpen(cat.Title) {
			continue
		}
		for _, topic := range cat.Topics {
			rows = append(rows, sidebarRow{kind: rowTopic, category: cat.Title, topic: topic})
		}
	}
	return rows
}

func (s *Sidebar) hitRows() []sidebarRow {
	if s.searchFn == nil || strings.TrimSpace(s.input.Value()) == "" {
		return nil
	}
	hits, err := s.searchFn(s.input.Value(), 20)
	s.searchErr = err
	if err != nil {
		return nil
	}

	var rows []sidebarRow
	for _, hit := range hits {
		topic, ok := catalog.FindTopic(s.cats, hit.Name)
		if !ok {
			topic = catalog.Topic{Title: hit.Title, FileName: hit.Name}
		}
		rows = append(rows, sidebarRow{kind: rowHit, topic: topic, snippet: hit.Snippet})
	}
	return rows
}

func (s *Sidebar) clampCursor() {
	n := len(s.rows())
	if n == 0 {
		s.cursor = 0
		return
	}
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// Update handles key input while the sidebar has focus.
func (s Sidebar) Update(msg tea.Msg) (Sidebar, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.searching {
		switch keyMsg.String() {
		case "esc":
			s.searching = false
			s.fulltext = false
			s.input.Blur()
			s.input.SetValue("")
			s.clampCursor()
			return s, nil
		case "enter", "down":
			s.searching = false
			s.input.Blur()
			s.cursor = 0
			return s, nil
		default:
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			s.clampCursor()
			return s, cmd
		}
	}

	switch keyMsg.String() {
	case "/":
		s.fulltext = false
		s.searching = true
		s.input.Prompt = "/ "
		s.input.Placeholder = "filter topics"
		return s, s.input.Focus()

	case "f":
		if s.searchFn == nil {
			return s, nil
		}
		s.fulltext = true
		s.searching = true
		s.input.Prompt = "? "
		s.input.Placeholder = "search content"
		s.input.SetValue("")
		return s, s.input.Focus()

	case "esc":
		if s.input.Value() != "" || s.fulltext {
			s.input.SetValue("")
			s.fulltext = false
			s.clampCursor()
		}
		return s, nil

	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
		return s, nil

	case "down", "j":
		if s.cursor < len(s.rows())-1 {
			s.cursor++
		}
		return s, nil

	case "enter", " ", "right", "l":
		rows := s.rows()
		if s.cursor >= len(rows) {
			return s, nil
		}
		row := rows[s.cursor]
		if row.kind == rowCategory {
			s.Toggle(row.category)
			return s, nil
		}
		topic := row.topic
		return s, func() tea.Msg { return TopicSelectedMsg{Topic: topic} }
	}

	return s, nil
}

// View renders the pane.
func (s Sidebar) View(selected string) string {
	var b strings.Builder

	b.WriteString(s.theme.Header.Render("Topics"))
	b.WriteString("\n")
	b.WriteString(s.input.View())
	b.WriteString("\n")

	rows := s.rows()
	if len(rows) == 0 {
		if s.searchErr != nil {
			b.WriteString(s.theme.MutedText.Render("search unavailable"))
		} else if s.fulltext {
			b.WriteString(s.theme.MutedText.Render("no content matches"))
		} else {
			b.WriteString(s.theme.MutedText.Render("no matches"))
		}
		return b.String()
	}

	innerWidth := max(s.width-3, 10)
	start := 0
	visible := rows
	maxRows := s.height - 3
	if maxRows > 0 && len(visible) > maxRows {
		if s.cursor >= maxRows {
			start = s.cursor - maxRows + 1
		}
		visible = visible[start:min(start+maxRows, len(visible))]
	}

	for i, row := range visible {
		absolute := i + start

		var line string
		switch row.kind {
		case rowCategory:
			marker := "▾"
			if !s.IsOpen(row.category) {
				marker = "▸"
			}
			line = s.theme.CategoryText.Render(fmt.Sprintf("%s %s", marker, truncate(row.category, innerWidth-2)))
		case rowTopic:
			text := truncate(row.topic.Title, innerWidth-4)
			style := s.theme.TopicText
			if row.topic.FileName == selected {
				style = s.theme.CategoryText
			}
			line = "  " + style.Render(text)
		case rowHit:
			line = s.theme.TopicText.Render(truncate(row.topic.Title, innerWidth-2))
			if row.snippet != "" {
				line += "\n  " + s.theme.MutedText.Render(truncate(row.snippet, innerWidth-2))
			}
		}

		if absolute == s.cursor {
			first, rest, found := strings.Cut(line, "\n")
			line = s.theme.Selected.Render(first)
			if found {
				line += "\n" + rest
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
