package ui

import (
	"context"
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bluerabbit/kcore/pkg/catalog"
	"github.com/bluerabbit/kcore/pkg/docstore"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// mapStore serves documents from a map, for tests.
type mapStore map[string]string

func (s mapStore) Load(_ context.Context, name string) (string, error) {
	text, ok := s[name]
	if !ok {
		return "", docstore.ErrNotFound
	}
	return text, nil
}

func testCatalog() []catalog.Category {
	return []catalog.Category{
		{Title: "Networking", Topics: []catalog.Topic{
			{Title: "How DNS Resolution Works", FileName: "networking/dns.md"},
			{Title: "Forward and Reverse Proxies", FileName: "networking/proxies.md"},
		}},
		{Title: "Architecture", Topics: []catalog.Topic{
			{Title: "Caching Strategies", FileName: "architecture/caching.md"},
		}},
	}
}

func testStore() mapStore {
	return mapStore{
		"networking/dns.md":       "# DNS\n\nresolver walk\n",
		"networking/proxies.md":   "# Proxies\n\nreverse proxy\n",
		"architecture/caching.md": "# Caching\n\ncache aside\n",
	}
}

func newTestModel(opts ...Option) Model {
	m := NewModel(TestTheme(), testCatalog(), testStore(), nil, opts...)
	m.width = 120
	m.height = 40
	m.layout()
	return m
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	c := NewContent(TestTheme(), testStore())

	c.Load("networking/dns.md")     // seq 1, abandoned
	c.Load("networking/proxies.md") // seq 2

	// The slow first response arrives after the second request started.
	c, _ = c.Update(docLoadedMsg{name: "networking/dns.md", seq: 1, text: "# DNS\n"})
	if !c.Loading() {
		t.Fatal("stale response ended the in-flight load")
	}
	if strings.Contains(c.renderDocument(), "DNS") {
		t.Fatal("stale document was rendered")
	}

	c, _ = c.Update(docLoadedMsg{name: "networking/proxies.md", seq: 2, text: "# Proxies\n\nreverse proxy\n"})
	if c.Loading() {
		t.Fatal("matching response did not finish the load")
	}
	if !strings.Contains(stripANSI(c.renderDocument()), "Proxies") {
		t.Fatal("latest document not rendered")
	}
}

func TestStaleErrorIsDiscarded(t *testing.T) {
	c := NewContent(TestTheme(), testStore())

	c.Load("missing.md")        // seq 1
	c.Load("networking/dns.md") // seq 2

	c, _ = c.Update(docLoadedMsg{name: "missing.md", seq: 1, err: docstore.ErrNotFound})
	if c.ErrText() != "" {
		t.Fatalf("stale error surfaced: %q", c.ErrText())
	}
}

func TestUnresolvableDocumentError(t *testing.T) {
	c := NewContent(TestTheme(), testStore())

	c.Load("networking/nope.md")
	c, _ = c.Update(docLoadedMsg{name: "networking/nope.md", seq: 1, err: docstore.ErrNotFound})

	if got, want := c.ErrText(), "cannot resolve networking/nope.md"; got != want {
		t.Errorf("ErrText = %q, want %q", got, want)
	}
	if !strings.Contains(stripANSI(c.renderDocument()), "cannot resolve networking/nope.md") {
		t.Error("error panel missing from rendered output")
	}
}

func TestBrokenDiagramDoesNotPoisonArticle(t *testing.T) {
	text := "intro prose\n\n```mermaid\nthis is not a diagram\n```\n\n```mermaid\ngraph TD\n    a[Start] --> b[End]\n```\n\nclosing prose\n"

	c := NewContent(TestTheme(), testStore())
	c.Load("x.md")
	c, _ = c.Update(docLoadedMsg{name: "x.md", seq: 1, text: text})

	out := stripANSI(c.renderDocument())
	if !strings.Contains(out, "diagram syntax error") {
		t.Error("broken diagram did not produce an error panel")
	}
	if !strings.Contains(out, "Start") || !strings.Contains(out, "End") {
		t.Error("healthy diagram was not rendered")
	}
	if !strings.Contains(out, "closing prose") {
		t.Error("prose after the broken diagram is missing")
	}
}

func TestTabGroupsSwitchIndependently(t *testing.T) {
	text := `<div class="code-tabs">
  <button class="tab-button active" data-lang="go">Go</button>
  <button class="tab-button" data-lang="python">Python</button>
  <pre data-lang="go">first go</pre>
  <pre data-lang="python">first py</pre>
</div>

middle

<div class="code-tabs">
  <button class="tab-button active" data-lang="go">Go</button>
  <button class="tab-button" data-lang="rust">Rust</button>
  <pre data-lang="go">second go</pre>
  <pre data-lang="rust">second rs</pre>
</div>
`
	c := NewContent(TestTheme(), testStore())
	c.Load("x.md")
	c, _ = c.Update(docLoadedMsg{name: "x.md", seq: 1, text: text})

	if len(c.groups) != 2 {
		t.Fatalf("expected 2 tab groups, got %d", len(c.groups))
	}

	// Switch the first group to Python; the second keeps Go.
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyTab})
	out := stripANSI(c.renderDocument())
	if !strings.Contains(out, "first py") {
		t.Error("first group did not switch to python")
	}
	if !strings.Contains(out, "second go") {
		t.Error("second group changed without being focused")
	}

	// Focus the second group and switch it; the first keeps Python.
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyTab})
	out = stripANSI(c.renderDocument())
	if !strings.Contains(out, "first py") {
		t.Error("first group lost its selection")
	}
	if !strings.Contains(out, "second rs") {
		t.Error("second group did not switch")
	}
}

func TestToggleCategoryInvolution(t *testing.T) {
	s := NewSidebar(TestTheme(), testCatalog(), nil)

	if !s.IsOpen("Networking") {
		t.Fatal("categories should start expanded")
	}
	s.Toggle("Networking")
	if s.IsOpen("Networking") {
		t.Fatal("toggle did not collapse")
	}
	s.Toggle("Networking")
	if !s.IsOpen("Networking") {
		t.Fatal("double toggle did not restore the starting state")
	}
}

func TestCollapseStateSurvivesFiltering(t *testing.T) {
	s := NewSidebar(TestTheme(), testCatalog(), nil)
	s.Toggle("Architecture")

	// Filter down to the other category and back.
	s.input.SetValue("dns")
	if got := len(s.rows()); got != 2 { // category + one topic
		t.Fatalf("filtered rows = %d, want 2", got)
	}
	s.input.SetValue("")

	if s.IsOpen("Architecture") {
		t.Error("collapse state lost after filtering")
	}
	if !s.IsOpen("Networking") {
		t.Error("untouched category changed state")
	}
}

func TestCollapsedCategoryHidesTopics(t *testing.T) {
	s := NewSidebar(TestTheme(), testCatalog(), nil)

	before := len(s.rows())
	s.Toggle("Networking")
	after := len(s.rows())

	if after != before-2 {
		t.Errorf("collapsing Networking: rows %d -> %d, want %d", before, after, before-2)
	}
}

func TestSidebarEnterOnTopicEmitsSelection(t *testing.T) {
	s := NewSidebar(TestTheme(), testCatalog(), nil)
	s.cursor = 1 // first topic under Networking

	s, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a selection command")
	}
	msg, ok := cmd().(TopicSelectedMsg)
	if !ok {
		t.Fatalf("expected TopicSelectedMsg, got %T", cmd())
	}
	if msg.Topic.FileName != "networking/dns.md" {
		t.Errorf("selected %s, want networking/dns.md", msg.Topic.FileName)
	}
}

func TestNarrowViewportHidesSidebarOnSelection(t *testing.T) {
	m := newTestModel()

	var model tea.Model
	model, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	m = model.(Model)

	model, cmd := m.Update(TopicSelectedMsg{Topic: catalog.Topic{Title: "DNS", FileName: "networking/dns.md"}})
	m = model.(Model)
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	if m.SidebarVisible() {
		t.Error("sidebar still visible after selection in a narrow viewport")
	}
}

func TestWideViewportKeepsSidebarOnSelection(t *testing.T) {
	m := newTestModel()

	var model tea.Model
	model, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = model.(Model)

	model, _ = m.Update(TopicSelectedMsg{Topic: catalog.Topic{Title: "DNS", FileName: "networking/dns.md"}})
	m = model.(Model)
	if !m.SidebarVisible() {
		t.Error("sidebar hidden after selection in a wide viewport")
	}
}

func TestSidebarToggleKey(t *testing.T) {
	m := newTestModel()

	var model tea.Model
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	m = model.(Model)
	if m.SidebarVisible() {
		t.Fatal("b did not hide the sidebar")
	}

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	m = model.(Model)
	if !m.SidebarVisible() {
		t.Fatal("b did not restore the sidebar")
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", cmd())
	}
}

func TestFileChangeReloadsOpenArticle(t *testing.T) {
	ch := make(chan string, 1)
	m := newTestModel(WithWatcher(ch))

	var model tea.Model
	model, _ = m.Update(TopicSelectedMsg{Topic: catalog.Topic{FileName: "networking/dns.md"}})
	m = model.(Model)

	_, cmd := m.Update(FileChangedMsg{Name: "networking/dns.md"})
	if cmd == nil {
		t.Fatal("expected reload plus rearm command")
	}
}

func TestHelpersTruncateAndPad(t *testing.T) {
	if got := truncate("hello world", 8); got != "hello w…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate should not touch short strings, got %q", got)
	}
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
}
