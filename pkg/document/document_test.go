package document

import (
	"strings"
	"testing"
)

const sampleArticle = `# DNS Resolution

Intro prose.

` + "```mermaid" + `
graph TD
    a --> b
` + "```" + `

More prose with a normal code block:

` + "```go" + `
fmt.Println("not a diagram")
` + "```" + `

<div class="code-tabs">
  <button class="tab-button" data-lang="go">Go</button>
  <button class="tab-button active" data-lang="python">Python</button>
  <pre data-lang="go"><code>resolver.LookupHost(ctx, name)</code></pre>
  <pre data-lang="python"><code>socket.gethostbyname(name)</code></pre>
</div>

Closing prose.
`

func TestParseSegments(t *testing.T) {
	doc := Parse(sampleArticle)

	var kinds []Kind
	for _, seg := range doc.Segments {
		kinds = append(kinds, seg.Kind)
	}
	want := []Kind{KindMarkdown, KindDiagram, KindMarkdown, KindTabGroup, KindMarkdown}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d segments, got %d: %v", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("segment %d: expected kind %v, got %v", i, want[i], kinds[i])
		}
	}
}

func TestParseDiagramSource(t *testing.T) {
	doc := Parse(sampleArticle)
	diag := doc.Segments[1]

	if !strings.Contains(diag.Source, "graph TD") || !strings.Contains(diag.Source, "a --> b") {
		t.Errorf("unexpected diagram source %q", diag.Source)
	}
	// The closing fence must not leak into the source.
	if strings.Contains(diag.Source, "```") {
		t.Errorf("fence leaked into diagram source %q", diag.Source)
	}
}

func TestParseKeepsNormalCodeBlocksAsProse(t *testing.T) {
	doc := Parse(sampleArticle)
	prose := doc.Segments[2]

	if !strings.Contains(prose.Markdown, "```go") || !strings.Contains(prose.Markdown, "not a diagram") {
		t.Errorf("go code block should stay in prose, got %q", prose.Markdown)
	}
}

func TestParseTabGroup(t *testing.T) {
	doc := Parse(sampleArticle)
	group := doc.Segments[3].Tabs

	if group == nil {
		t.Fatal("expected tab group")
	}
	if len(group.Tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(group.Tabs))
	}
	if group.Tabs[0].Label != "Go" || group.Tabs[0].Lang != "go" {
		t.Errorf("unexpected first tab: %+v", group.Tabs[0])
	}
	if !strings.Contains(group.Tabs[1].Code, "gethostbyname") {
		t.Errorf("unexpected python panel: %q", group.Tabs[1].Code)
	}
	// The pre-marked active button wins the initial state.
	if group.Active != 1 {
		t.Errorf("expected python tab pre-activated, got %d", group.Active)
	}
}

func TestActivate(t *testing.T) {
	g := &TabGroup{Tabs: []Tab{{Lang: "go"}, {Lang: "rust"}, {Lang: "python"}}}

	g.Activate(2)
	if g.Active != 2 {
		t.Errorf("expected active 2, got %d", g.Active)
	}

	// Out-of-range activations are ignored.
	g.Activate(-1)
	g.Activate(3)
	if g.Active != 2 {
		t.Errorf("expected active to stay 2, got %d", g.Active)
	}
}

func TestGroupsAreIndependent(t *testing.T) {
	src := `<div class="code-tabs">
  <button class="tab-button active" data-lang="go">Go</button>
  <button class="tab-button" data-lang="rust">Rust</button>
  <pre data-lang="go">a</pre>
  <pre data-lang="rust">b</pre>
</div>

middle prose

<div class="code-tabs">
  <button class="tab-button active" data-lang="go">Go</button>
  <button class="tab-button" data-lang="rust">Rust</button>
  <pre data-lang="go">c</pre>
  <pre data-lang="rust">d</pre>
</div>
`
	doc := Parse(src)

	var groups []*TabGroup
	for _, seg := range doc.Segments {
		if seg.Kind == KindTabGroup {
			groups = append(groups, seg.Tabs)
		}
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 tab groups, got %d", len(groups))
	}

	groups[0].Activate(1)
	if groups[0].Active != 1 {
		t.Error("first group did not activate")
	}
	if groups[1].Active != 0 {
		t.Error("activating the first group changed the second group")
	}
}

func TestParseUnclosedTabGroupFallsBackToProse(t *testing.T) {
	src := "<div class=\"code-tabs\">\n  <button class=\"tab-button\" data-lang=\"go\">Go</button>\n"
	doc := Parse(src)

	if len(doc.Segments) != 1 || doc.Segments[0].Kind != KindMarkdown {
		t.Fatalf("expected single prose segment, got %+v", doc.Segments)
	}
}

func TestParseEmptyTabGroupFallsBackToProse(t *testing.T) {
	src := "<div class=\"code-tabs\">\n</div>\n"
	doc := Parse(src)

	for _, seg := range doc.Segments {
		if seg.Kind == KindTabGroup {
			t.Fatal("empty container should not become a tab group")
		}
	}
}

func TestParseUnterminatedDiagram(t *testing.T) {
	src := "intro\n\n```mermaid\ngraph TD\n  a --> b\n"
	doc := Parse(src)

	last := doc.Segments[len(doc.Segments)-1]
	if last.Kind != KindDiagram {
		t.Fatalf("expected trailing diagram segment, got %v", last.Kind)
	}
	if !strings.Contains(last.Source, "a --> b") {
		t.Errorf("unexpected source %q", last.Source)
	}
}

func TestParseEmptyInput(t *testing.T) {
	doc := Parse("")
	if len(doc.Segments) != 0 {
		t.Errorf("expected no segments for empty input, got %d", len(doc.Segments))
	}
}
