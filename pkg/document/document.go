// Package document splits raw article Markdown into the segments the
// content viewer renders independently: regular prose (handed to the
// Markdown renderer), mermaid diagram blocks, and tabbed code-sample
// containers.
//
// Segmentation happens once per document text. Each special segment keeps a
// stable index, so renderers can mark a segment processed exactly once and
// safely re-run on unrelated updates (resize, tab switches).
package document

import (
	"strings"

	"golang.org/x/net/html"
)

// Kind discriminates segment types.
type Kind int

const (
	KindMarkdown Kind = iota
	KindDiagram
	KindTabGroup
)

// Tab is one labeled code panel inside a tab-group.
type Tab struct {
	Label string // Button text, e.g. "Go"
	Lang  string // Language tag from data-lang
	Code  string // Panel contents
}

// TabGroup is a bundle of code panels of which exactly one is visible.
// Active starts at the pre-marked button (or 0) and changes only on
// explicit user interaction.
type TabGroup struct {
	Tabs   []Tab
	Active int
}

// Activate marks tab i active, deactivating its siblings. Out-of-range
// indices are ignored. Groups are independent: activating a tab in one
// group never touches another group.
func (g *TabGroup) Activate(i int) {
	if i < 0 || i >= len(g.Tabs) {
		return
	}
	g.Active = i
}

// Segment is one renderable slice of a document.
type Segment struct {
	Kind     Kind
	Markdown string    // KindMarkdown: prose passed to the Markdown renderer
	Source   string    // KindDiagram: raw diagram description
	Tabs     *TabGroup // KindTabGroup
}

// Document is an ordered list of segments.
type Document struct {
	Segments []Segment
}

const (
	diagramFence  = "```mermaid"
	fenceClose    = "```"
	tabGroupOpen  = `<div class="code-tabs">`
	tabGroupClose = `</div>`
)

// Parse splits raw Markdown into segments. It never fails: malformed
// special blocks degrade to plain Markdown so the renderer still shows
// their source.
func Parse(raw string) Document {
	var doc Document
	var prose []string

	flushProse := func() {
		if len(prose) == 0 {
			return
		}
		text := strings.Join(prose, "\n")
		prose = nil
		if strings.TrimSpace(text) == "" {
			return
		}
		doc.Segments = append(doc.Segments, Segment{Kind: KindMarkdown, Markdown: text})
	}

	lines := strings.Split(raw, "\n")
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case trimmed == diagramFence:
			var body []string
			j := i + 1
			for ; j < len(lines); j++ {
				if strings.TrimSpace(lines[j]) == fenceClose {
					break
				}
				body = append(body, lines[j])
			}
			flushProse()
			doc.Segments = append(doc.Segments, Segment{
				Kind:   KindDiagram,
				Source: strings.Join(body, "\n"),
			})
			i = j // skip closing fence (or end of input)

		case trimmed == tabGroupOpen:
			var block []string
			block = append(block, lines[i])
			j := i + 1
			closed := false
			for ; j < len(lines); j++ {
				block = append(block, lines[j])
				if strings.TrimSpace(lines[j]) == tabGroupClose {
					closed = true
					break
				}
			}
			group := (*TabGroup)(nil)
			if closed {
				group = parseTabGroup(strings.Join(block, "\n"))
			}
			if group == nil {
				// Unclosed or malformed container: keep the raw lines as prose.
				prose = append(prose, block...)
				i = j
				continue
			}
			flushProse()
			doc.Segments = append(doc.Segments, Segment{Kind: KindTabGroup, Tabs: group})
			i = j

		default:
			prose = append(prose, lines[i])
		}
	}

	flushProse()
	return doc
}

// parseTabGroup extracts buttons and panels from a code-tabs container:
//
//	<div class="code-tabs">
//	  <button class="tab-button active" data-lang="go">Go</button>
//	  <pre data-lang="go"><code>...</code></pre>
//	</div>
//
// Returns nil when the markup yields no usable tabs.
func parseTabGroup(src string) *TabGroup {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil
	}

	type button struct {
		label  string
		lang   string
		active bool
	}
	var buttons []button
	panels := make(map[string]string)
	var panelOrder []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "button":
				if hasClass(n, "tab-button") {
					buttons = append(buttons, button{
						label:  strings.TrimSpace(textContent(n)),
						lang:   attr(n, "data-lang"),
						active: hasClass(n, "active"),
					})
				}
			case "pre":
				if lang := attr(n, "data-lang"); lang != "" {
					if _, seen := panels[lang]; !seen {
						panelOrder = append(panelOrder, lang)
					}
					panels[lang] = strings.Trim(textContent(n), "\n")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	group := &TabGroup{}

	if len(buttons) > 0 {
		for _, b := range buttons {
			code, ok := panels[b.lang]
			if !ok {
				continue
			}
			label := b.label
			if label == "" {
				label = b.lang
			}
			group.Tabs = append(group.Tabs, Tab{Label: label, Lang: b.lang, Code: code})
			if b.active {
				group.Active = len(group.Tabs) - 1
			}
		}
	} else {
		// Panels without selector buttons: tabs labeled by language tag.
		for _, lang := range panelOrder {
			group.Tabs = append(group.Tabs, Tab{Label: lang, Lang: lang, Code: panels[lang]})
		}
	}

	if len(group.Tabs) == 0 {
		return nil
	}
	return group
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
