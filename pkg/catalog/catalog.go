// Package catalog defines the static category/topic tree that drives the
// kc sidebar, plus the pure filtering applied to it while the user types.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topic is a single navigable document: a display title plus the file
// identifier resolved by the document store. Topics are immutable after load.
type Topic struct {
	Title    string `yaml:"title"`
	FileName string `yaml:"file"`
}

// Category is a named, independently collapsible grouping of topics.
type Category struct {
	Title  string  `yaml:"title"`
	Topics []Topic `yaml:"topics"`
}

// Filter returns the categories visible for the given search term.
//
// Matching is a case-insensitive substring test. A category is retained if
// its own title matches (all of its topics are kept) or if at least one of
// its topics matches (only the matching topics are kept). The input is never
// mutated; retained-via-topic categories get a fresh topic slice. An empty
// term returns the input unchanged.
func Filter(term string, cats []Category) []Category {
	if term == "" {
		return cats
	}

	needle := strings.ToLower(term)
	var out []Category

	for _, cat := range cats {
		if strings.Contains(strings.ToLower(cat.Title), needle) {
			out = append(out, cat)
			continue
		}

		var matched []Topic
		for _, topic := range cat.Topics {
			if strings.Contains(strings.ToLower(topic.Title), needle) {
				matched = append(matched, topic)
			}
		}
		if len(matched) > 0 {
			out = append(out, Category{Title: cat.Title, Topics: matched})
		}
	}

	return out
}

// FindTopic returns the first topic whose file identifier matches name.
func FindTopic(cats []Category, name string) (Topic, bool) {
	for _, cat := range cats {
		for _, topic := range cat.Topics {
			if topic.FileName == name {
				return topic, true
			}
		}
	}
	return Topic{}, false
}

// Topics returns every topic of every category in catalog order.
func Topics(cats []Category) []Topic {
	var out []Topic
	for _, cat := range cats {
		out = append(out, cat.Topics...)
	}
	return out
}

// LoadFile reads a catalog override from a YAML file:
//
//	categories:
//	  - title: Networking
//	    topics:
//	      - title: DNS
//	        file: dns.md
func LoadFile(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := Validate(doc.Categories); err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

// Validate checks a catalog for empty titles and missing file references.
func Validate(cats []Category) error {
	for _, cat := range cats {
		if strings.TrimSpace(cat.Title) == "" {
			return fmt.Errorf("catalog: category with empty title")
		}
		for _, topic := range cat.Topics {
			if strings.TrimSpace(topic.Title) == "" {
				return fmt.Errorf("catalog: topic with empty title in %q", cat.Title)
			}
			if strings.TrimSpace(topic.FileName) == "" {
				return fmt.Errorf("catalog: topic %q has no file reference", topic.Title)
			}
		}
	}
	return nil
}

// Default returns the built-in catalog covering the embedded article set.
func Default() []Category {
	return []Category{
		{
			Title: "Networking",
			Topics: []Topic{
				{Title: "DNS Resolution", FileName: "networking/dns.md"},
				{Title: "Forward & Reverse Proxies", FileName: "networking/proxies.md"},
				{Title: "Load Balancing", FileName: "networking/load-balancing.md"},
			},
		},
		{
			Title: "Architecture",
			Topics: []Topic{
				{Title: "The Event Loop", FileName: "architecture/event-loop.md"},
				{Title: "Caching Strategies", FileName: "architecture/caching.md"},
			},
		},
		{
			Title: "Languages",
			Topics: []Topic{
				{Title: "Error Handling Patterns", FileName: "languages/error-handling.md"},
			},
		},
	}
}
