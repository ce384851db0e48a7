// Package related suggests articles similar to the one being read.
// It builds TF-IDF vectors over the whole corpus and ranks by cosine
// similarity, which is plenty for a few hundred documents.
package related

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Suggestion is one related article with its similarity score in [0, 1].
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Corpus holds the TF-IDF vectors for a fixed set of documents.
type Corpus struct {
	names   []string
	vectors map[string][]float64
}

var wordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9]+`)

// stop words that would otherwise dominate short technical articles
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "with": true,
	"that": true, "this": true, "from": true, "can": true, "its": true,
	"not": true, "you": true, "your": true, "when": true, "then": true,
	"has": true, "have": true, "was": true, "will": true, "which": true,
	"into": true, "than": true, "each": true, "all": true, "but": true,
}

func tokenize(text string) []string {
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// NewCorpus builds TF-IDF vectors for docs, a map of document name to body.
func NewCorpus(docs map[string]string) *Corpus {
	tokens := make(map[string][]string, len(docs))
	df := make(map[string]int)
	var names []string
	for name, body := range docs {
		names = append(names, name)
		ts := tokenize(body)
		tokens[name] = ts
		seen := make(map[string]bool, len(ts))
		for _, t := range ts {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	sort.Strings(names)

	// stable term -> dimension assignment
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	dim := make(map[string]int, len(terms))
	for i, t := range terms {
		dim[t] = i
	}

	n := float64(len(docs))
	vectors := make(map[string][]float64, len(docs))
	for name, ts := range tokens {
		vec := make([]float64, len(terms))
		for _, t := range ts {
			vec[dim[t]]++
		}
		for t, i := range dim {
			if vec[i] > 0 {
				idf := math.Log(n/float64(df[t])) + 1
				vec[i] = vec[i] / float64(len(ts)) * idf
			}
		}
		if norm := floats.Norm(vec, 2); norm > 0 {
			floats.Scale(1/norm, vec)
		}
		vectors[name] = vec
	}

	return &Corpus{names: names, vectors: vectors}
}

// Related returns up to limit suggestions for name, most similar first.
// Documents with zero similarity are omitted, as is name itself. An
// unknown name yields nil.
func (c *Corpus) Related(name string, limit int) []Suggestion {
	query, ok := c.vectors[name]
	if !ok {
		return nil
	}

	var out []Suggestion
	for _, other := range c.names {
		if other == name {
			continue
		}
		score := floats.Dot(query, c.vectors[other])
		if score > 0 {
			out = append(out, Suggestion{Name: other, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
