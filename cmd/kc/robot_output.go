package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/bluerabbit/kcore/pkg/catalog"
	"github.com/bluerabbit/kcore/pkg/docstore"
	"github.com/bluerabbit/kcore/pkg/document"
	"github.com/bluerabbit/kcore/pkg/related"
	"github.com/bluerabbit/kcore/pkg/search"
	"github.com/bluerabbit/kcore/pkg/version"
)

// Robot outputs are stable JSON for scripts and agents driving kc
// non-interactively.

type robotTopic struct {
	Title string `json:"title"`
	Name  string `json:"name"`
}

type robotCategory struct {
	Title  string       `json:"title"`
	Topics []robotTopic `json:"topics"`
}

type robotCatalogOutput struct {
	GeneratedAt string          `json:"generated_at"`
	Version     string          `json:"version"`
	Categories  []robotCategory `json:"categories"`
}

type robotDocOutput struct {
	GeneratedAt string `json:"generated_at"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Markdown    string `json:"markdown"`
	Diagrams    int    `json:"diagrams"`
	TabGroups   int    `json:"tab_groups"`
}

type robotSearchOutput struct {
	GeneratedAt string       `json:"generated_at"`
	Query       string       `json:"query"`
	Results     []search.Hit `json:"results"`
}

type robotRelatedOutput struct {
	GeneratedAt string               `json:"generated_at"`
	Name        string               `json:"name"`
	Results     []related.Suggestion `json:"results"`
}

func encodeRobot(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeRobotCatalog(w io.Writer, cats []catalog.Category) error {
	out := robotCatalogOutput{
		GeneratedAt: nowStamp(),
		Version:     version.Version,
		Categories:  make([]robotCategory, 0, len(cats)),
	}
	for _, cat := range cats {
		rc := robotCategory{Title: cat.Title, Topics: make([]robotTopic, 0, len(cat.Topics))}
		for _, t := range cat.Topics {
			rc.Topics = append(rc.Topics, robotTopic{Title: t.Title, Name: t.FileName})
		}
		out.Categories = append(out.Categories, rc)
	}
	return encodeRobot(w, out)
}

func writeRobotDoc(w io.Writer, a *app, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, err := a.store.Load(ctx, name)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("cannot resolve %s", name)
		}
		return err
	}

	out := robotDocOutput{
		GeneratedAt: nowStamp(),
		Name:        name,
		Markdown:    text,
	}
	if topic, ok := catalog.FindTopic(a.cats, name); ok {
		out.Title = topic.Title
	}
	for _, seg := range document.Parse(text).Segments {
		switch seg.Kind {
		case document.KindDiagram:
			out.Diagrams++
		case document.KindTabGroup:
			out.TabGroups++
		}
	}
	return encodeRobot(w, out)
}

func writeRobotSearch(w io.Writer, a *app, query string) error {
	if a.index == nil {
		return errors.New("search index unavailable")
	}
	hits, err := a.index.Search(query, 20)
	if err != nil {
		return err
	}
	return encodeRobot(w, robotSearchOutput{
		GeneratedAt: nowStamp(),
		Query:       query,
		Results:     hits,
	})
}

func writeRobotRelated(w io.Writer, a *app, name string) error {
	if a.corpus == nil {
		return errors.New("similarity corpus unavailable")
	}
	if _, ok := catalog.FindTopic(a.cats, name); !ok {
		return fmt.Errorf("cannot resolve %s", name)
	}
	return encodeRobot(w, robotRelatedOutput{
		GeneratedAt: nowStamp(),
		Name:        name,
		Results:     a.corpus.Related(name, 10),
	})
}
