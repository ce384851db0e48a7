package catalog

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// genCatalog draws small random catalogs with printable titles.
func genCatalog() *rapid.Generator[[]Category] {
	title := rapid.StringMatching(`[a-zA-Z ]{1,12}`)
	topic := rapid.Custom(func(t *rapid.T) Topic {
		return Topic{
			Title:    title.Draw(t, "topicTitle"),
			FileName: rapid.StringMatching(`[a-z]{1,8}\.md`).Draw(t, "fileName"),
		}
	})
	return rapid.Custom(func(t *rapid.T) []Category {
		n := rapid.IntRange(0, 5).Draw(t, "nCats")
		cats := make([]Category, 0, n)
		for i := 0; i < n; i++ {
			cats = append(cats, Category{
				Title:  title.Draw(t, "catTitle"),
				Topics: rapid.SliceOfN(topic, 0, 6).Draw(t, "topics"),
			})
		}
		return cats
	})
}

// Every returned category matches by title or contains at least one matching
// topic, and topic-match categories contain only matching topics.
func TestFilterResultProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cats := genCatalog().Draw(t, "cats")
		term := rapid.StringMatching(`[a-zA-Z]{1,4}`).Draw(t, "term")
		needle := strings.ToLower(term)

		for _, cat := range Filter(term, cats) {
			titleMatch := strings.Contains(strings.ToLower(cat.Title), needle)
			if titleMatch {
				continue
			}
			if len(cat.Topics) == 0 {
				t.Fatalf("category %q retained without title or topic match", cat.Title)
			}
			for _, topic := range cat.Topics {
				if !strings.Contains(strings.ToLower(topic.Title), needle) {
					t.Fatalf("non-matching topic %q kept under topic-matched category %q",
						topic.Title, cat.Title)
				}
			}
		}
	})
}

// Filtering is a read-only derivation: the source catalog is bit-for-bit
// unchanged afterwards, for any term.
func TestFilterPurityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cats := genCatalog().Draw(t, "cats")

		before := make([]Category, len(cats))
		for i, cat := range cats {
			before[i] = Category{Title: cat.Title, Topics: append([]Topic(nil), cat.Topics...)}
		}

		term := rapid.String().Draw(t, "term")
		Filter(term, cats)

		for i, cat := range cats {
			if cat.Title != before[i].Title || len(cat.Topics) != len(before[i].Topics) {
				t.Fatalf("category %d mutated by Filter(%q)", i, term)
			}
			for j, topic := range cat.Topics {
				if topic != before[i].Topics[j] {
					t.Fatalf("topic %d/%d mutated by Filter(%q)", i, j, term)
				}
			}
		}
	})
}

// Filtering is idempotent: applying the same term twice yields the same view.
func TestFilterIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cats := genCatalog().Draw(t, "cats")
		term := rapid.StringMatching(`[a-zA-Z]{1,4}`).Draw(t, "term")

		once := Filter(term, cats)
		twice := Filter(term, once)

		if len(once) != len(twice) {
			t.Fatalf("idempotence violated: %d vs %d categories", len(once), len(twice))
		}
		for i := range once {
			if once[i].Title != twice[i].Title || len(once[i].Topics) != len(twice[i].Topics) {
				t.Fatalf("idempotence violated at category %d", i)
			}
		}
	})
}
