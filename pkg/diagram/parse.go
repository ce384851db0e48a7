// Package diagram parses the Mermaid flowchart subset used by knowledge-base
// articles and renders the resulting graph for the terminal or for SVG/PNG
// export.
//
// Supported syntax:
//
//	graph TD            (also TB, LR; "flowchart" accepted for "graph")
//	%% comment
//	id[Square label]    id(Round label)    id{Decision label}
//	a --> b             a -.-> b           a ==> b
//	a -->|edge label| b
//	classDef / class / style / linkStyle   (accepted and ignored)
//
// Anything else is a syntax error carrying the offending line number. One
// malformed diagram must never take down its siblings, so parse errors are
// ordinary values callers turn into inline error panels.
package diagram

import (
	"fmt"
	"regexp"
	"strings"
)

// Direction is the flow direction from the diagram header.
type Direction int

const (
	TopDown Direction = iota
	LeftRight
)

// NodeShape mirrors the Mermaid bracket style of a node declaration.
type NodeShape int

const (
	ShapeSquare NodeShape = iota
	ShapeRound
	ShapeDecision
)

// Node is a named box in the flowchart.
type Node struct {
	ID    string
	Label string
	Shape NodeShape
}

// EdgeStyle mirrors the Mermaid arrow variants.
type EdgeStyle int

const (
	EdgeSolid  EdgeStyle = iota // -->
	EdgeDotted                  // -.->
	EdgeThick                   // ==>
)

// Edge is a directed connection between two nodes.
type Edge struct {
	From  string
	To    string
	Label string
	Style EdgeStyle
}

// Graph is a parsed flowchart.
type Graph struct {
	Direction Direction
	Nodes     []Node // declaration order
	Edges     []Edge

	byID map[string]int
}

// ParseError is a diagram syntax error with a 1-based source line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("diagram syntax error at line %d: %s", e.Line, e.Msg)
}

var (
	headerRe = regexp.MustCompile(`^(graph|flowchart)\s+(TD|TB|LR)\s*$`)
	// id optionally followed by a bracketed label
	nodeRe = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*(\[[^\]]*\]|\([^)]*\)|\{[^}]*\})?$`)
	// lhs ARROW [|label|] rhs
	edgeRe = regexp.MustCompile(`^(.+?)\s*(-->|-\.->|==>)\s*(?:\|([^|]*)\|\s*)?(.+)$`)
)

// ignored statement prefixes: styling hooks we accept without effect.
var ignoredPrefixes = []string{"classDef ", "class ", "style ", "linkStyle "}

// Parse parses diagram source into a Graph or a *ParseError.
func Parse(src string) (*Graph, error) {
	g := &Graph{byID: make(map[string]int)}

	lines := strings.Split(src, "\n")
	sawHeader := false

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}

		if !sawHeader {
			m := headerRe.FindStringSubmatch(line)
			if m == nil {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("expected 'graph TD' or 'graph LR' header, got %q", line)}
			}
			if m[2] == "LR" {
				g.Direction = LeftRight
			}
			sawHeader = true
			continue
		}

		if hasIgnoredPrefix(line) {
			continue
		}

		if m := edgeRe.FindStringSubmatch(line); m != nil {
			from, err := g.addNodeDecl(strings.TrimSpace(m[1]), lineNo)
			if err != nil {
				return nil, err
			}
			to, err := g.addNodeDecl(strings.TrimSpace(m[4]), lineNo)
			if err != nil {
				return nil, err
			}
			g.Edges = append(g.Edges, Edge{
				From:  from,
				To:    to,
				Label: strings.TrimSpace(m[3]),
				Style: arrowStyle(m[2]),
			})
			continue
		}

		if nodeRe.MatchString(line) {
			if _, err := g.addNodeDecl(line, lineNo); err != nil {
				return nil, err
			}
			continue
		}

		return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("cannot parse statement %q", line)}
	}

	if !sawHeader {
		return nil, &ParseError{Line: 1, Msg: "empty diagram"}
	}
	if len(g.Nodes) == 0 {
		return nil, &ParseError{Line: 1, Msg: "diagram has no nodes"}
	}

	return g, nil
}

func hasIgnoredPrefix(line string) bool {
	for _, p := range ignoredPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func arrowStyle(arrow string) EdgeStyle {
	switch arrow {
	case "-.->":
		return EdgeDotted
	case "==>":
		return EdgeThick
	default:
		return EdgeSolid
	}
}

// addNodeDecl registers a node reference like `id`, `id[Label]`, `id(Label)`
// or `id{Label}` and returns the node ID. Later declarations may attach a
// label to a node first seen bare.
func (g *Graph) addNodeDecl(decl string, lineNo int) (string, error) {
	m := nodeRe.FindStringSubmatch(decl)
	if m == nil {
		return "", &ParseError{Line: lineNo, Msg: fmt.Sprintf("invalid node %q", decl)}
	}

	id := m[1]
	label := id
	shape := ShapeSquare
	if m[2] != "" {
		body := m[2][1 : len(m[2])-1]
		if strings.TrimSpace(body) != "" {
			label = strings.TrimSpace(body)
		}
		switch m[2][0] {
		case '(':
			shape = ShapeRound
		case '{':
			shape = ShapeDecision
		}
	}

	if idx, ok := g.byID[id]; ok {
		// Upgrade a bare reference with label/shape from a full declaration.
		if m[2] != "" {
			g.Nodes[idx].Label = label
			g.Nodes[idx].Shape = shape
		}
		return id, nil
	}

	g.byID[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, Label: label, Shape: shape})
	return id, nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[idx], true
}

// Ranks groups node IDs into layers by longest path from the sources.
// Nodes on cycles fall into the layer where they were first reached.
func (g *Graph) Ranks() [][]string {
	indeg := make(map[string]int, len(g.Nodes))
	adj := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		indeg[n.ID] = 0
	}
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
		indeg[e.To]++
	}

	// Kahn's algorithm; rank is the longest path from any source.
	rank := make(map[string]int, len(g.Nodes))
	var queue []string
	for _, n := range g.Nodes {
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	processed := make(map[string]bool, len(g.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed[id] = true
		for _, next := range adj[id] {
			if rank[id]+1 > rank[next] {
				rank[next] = rank[id] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	maxRank := 0
	for id, r := range rank {
		if processed[id] && r > maxRank {
			maxRank = r
		}
	}
	// Nodes stuck on cycles never reach indegree zero; park them one layer
	// below the acyclic part, in declaration order.
	cycleRank := -1
	for _, n := range g.Nodes {
		if !processed[n.ID] {
			if cycleRank < 0 {
				cycleRank = maxRank + 1
				if len(processed) == 0 {
					cycleRank = 0
				}
				maxRank = cycleRank
			}
			rank[n.ID] = cycleRank
		}
	}

	ranks := make([][]string, maxRank+1)
	for _, n := range g.Nodes {
		r := rank[n.ID]
		ranks[r] = append(ranks[r], n.ID)
	}
	return ranks
}
