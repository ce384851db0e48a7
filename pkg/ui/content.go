package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/bluerabbit/kcore/pkg/debug"
	"github.com/bluerabbit/kcore/pkg/diagram"
	"github.com/bluerabbit/kcore/pkg/docstore"
	"github.com/bluerabbit/kcore/pkg/document"
)

const loadTimeout = 10 * time.Second

// docLoadedMsg carries one finished document fetch. seq ties it to the
// request that started it so stale responses can be dropped.
type docLoadedMsg struct {
	name string
	seq  uint64
	text string
	err  error
}

// Content is the reading pane: it loads an article, splits it into
// segments, and renders prose, diagrams, and tabbed code samples.
type Content struct {
	theme Theme
	store docstore.Store

	name    string
	raw     string
	seq     uint64 // request generation; only the latest response lands
	loading bool
	errText string

	doc           document.Document
	groups        []*document.TabGroup
	groupIdx      int
	restoreOffset int // scroll position to keep across a reload, -1 when unset

	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	width    int
	height   int
	maxWrap  int // configured cap on prose width, 0 = pane width
}

// NewContent builds the reading pane over the given document store.
func NewContent(theme Theme, store docstore.Store) Content {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.CategoryText

	return Content{
		theme:         theme,
		store:         store,
		viewport:      viewport.New(80, 24),
		spinner:       sp,
		restoreOffset: -1,
	}
}

// Name returns the article currently shown (or being loaded).
func (c *Content) Name() string {
	return c.name
}

// Raw returns the source text of the loaded article.
func (c *Content) Raw() string {
	return c.raw
}

// Loading reports whether a fetch is in flight.
func (c *Content) Loading() bool {
	return c.loading
}

// ErrText returns the current error panel text, empty when none.
func (c *Content) ErrText() string {
	return c.errText
}

// SetSize updates the pane dimensions and re-renders at the new width.
func (c *Content) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.viewport.Width = width
	c.viewport.Height = max(height-1, 1)
	c.renderer = nil // word wrap depends on width
	c.refresh()
}

// Load starts fetching an article. Starting a new load while one is in
// flight abandons the old one: whichever response does not match the
// latest request is discarded, so rapid selection can never show a
// previously requested article.
func (c *Content) Load(name string) tea.Cmd {
	c.seq++
	seq := c.seq
	c.name = name
	c.loading = true
	c.errText = ""
	c.restoreOffset = -1
	store := c.store

	debug.Log("content: load %s seq=%d", name, seq)
	return tea.Batch(
		c.spinner.Tick,
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			text, err := store.Load(ctx, name)
			return docLoadedMsg{name: name, seq: seq, text: text, err: err}
		},
	)
}

// Reload refetches the current article, keeping the scroll position.
func (c *Content) Reload() tea.Cmd {
	if c.name == "" {
		return nil
	}
	offset := c.viewport.YOffset
	cmd := c.Load(c.name)
	c.restoreOffset = offset
	return cmd
}

// Update handles load results and key input for the reading pane.
func (c Content) Update(msg tea.Msg) (Content, tea.Cmd) {
	switch msg := msg.(type) {
	case docLoadedMsg:
		if msg.seq != c.seq {
			debug.Log("content: drop stale %s seq=%d (current %d)", msg.name, msg.seq, c.seq)
			return c, nil
		}
		c.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, docstore.ErrNotFound) {
				c.errText = fmt.Sprintf("cannot resolve %s", msg.name)
			} else {
				c.errText = msg.err.Error()
			}
			c.raw = ""
			c.doc = document.Document{}
			c.groups = nil
			c.refresh()
			return c, nil
		}
		c.raw = msg.text
		c.setDocument(document.Parse(msg.text))
		if c.restoreOffset >= 0 {
			c.viewport.SetYOffset(c.restoreOffset)
			c.restoreOffset = -1
		} else {
			c.viewport.GotoTop()
		}
		return c, nil

	case spinner.TickMsg:
		if !c.loading {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			c.cycleTab(1)
			return c, nil
		case "shift+tab":
			c.cycleTab(-1)
			return c, nil
		case "n":
			if len(c.groups) > 0 {
				c.groupIdx = (c.groupIdx + 1) % len(c.groups)
				c.refresh()
			}
			return c, nil
		}
		var cmd tea.Cmd
		c.viewport, cmd = c.viewport.Update(msg)
		return c, cmd
	}

	return c, nil
}

func (c *Content) setDocument(doc document.Document) {
	c.doc = doc
	c.groups = nil
	c.groupIdx = 0
	for i := range doc.Segments {
		if doc.Segments[i].Kind == document.KindTabGroup {
			c.groups = append(c.groups, doc.Segments[i].Tabs)
		}
	}
	c.refresh()
}

// cycleTab moves the active tab of the focused group only. Every other
// group keeps its own selection.
func (c *Content) cycleTab(delta int) {
	if len(c.groups) == 0 {
		return
	}
	group := c.groups[c.groupIdx]
	if len(group.Tabs) == 0 {
		return
	}
	next := (group.Active + delta + len(group.Tabs)) % len(group.Tabs)
	group.Activate(next)
	c.refresh()
}

// refresh re-renders the viewport content from the current document.
func (c *Content) refresh() {
	c.viewport.SetContent(c.renderDocument())
}

func (c *Content) markdownRenderer() *glamour.TermRenderer {
	if c.renderer == nil {
		wrap := c.width - 2
		if c.maxWrap > 0 && wrap > c.maxWrap {
			wrap = c.maxWrap
		}
		if wrap < 20 {
			wrap = 20
		}
		c.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
	}
	return c.renderer
}

func (c *Content) renderDocument() string {
	if c.errText != "" {
		return c.theme.ErrorPanel.Render(c.errText)
	}
	if len(c.doc.Segments) == 0 {
		return c.theme.MutedText.Render("Select a topic to start reading.")
	}

	groupIdx := 0
	var parts []string
	for _, seg := range c.doc.Segments {
		switch seg.Kind {
		case document.KindMarkdown:
			parts = append(parts, c.renderMarkdown(seg.Markdown))
		case document.KindDiagram:
			parts = append(parts, c.renderDiagram(seg.Source))
		case document.KindTabGroup:
			parts = append(parts, c.renderTabGroup(seg.Tabs, groupIdx == c.groupIdx))
			groupIdx++
		}
	}
	return strings.Join(parts, "\n")
}

func (c *Content) renderMarkdown(text string) string {
	renderer := c.markdownRenderer()
	if renderer == nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// renderDiagram renders one diagram block. A syntax error degrades that
// block to an error panel over its source; the rest of the article is
// unaffected.
func (c *Content) renderDiagram(source string) string {
	graph, err := diagram.Parse(source)
	if err != nil {
		panel := c.theme.ErrorPanel.Render(err.Error())
		return panel + "\n" + c.theme.MutedText.Render(source)
	}
	return diagram.RenderASCII(graph)
}

func (c *Content) renderTabGroup(group *document.TabGroup, focused bool) string {
	if group == nil || len(group.Tabs) == 0 {
		return ""
	}

	var bar []string
	for i, tab := range group.Tabs {
		style := c.theme.TabInactive
		if i == group.Active {
			style = c.theme.TabActive
		}
		bar = append(bar, style.Render(tab.Label))
	}
	header := strings.Join(bar, " ")
	if focused && len(c.groups) > 1 {
		header += " " + c.theme.MutedText.Render("(tab to switch)")
	}

	code := group.Tabs[group.Active].Code
	body := c.theme.Base.Render(strings.TrimRight(code, "\n"))
	return header + "\n" + body + "\n"
}

// View renders the pane.
func (c Content) View() string {
	if c.loading {
		return fmt.Sprintf("%s loading %s", c.spinner.View(), c.name)
	}
	return c.viewport.View()
}
