package docstore

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ScanResult is the outcome of loading a single document during a bulk scan.
type ScanResult struct {
	Name string // Document identifier
	Text string // Raw Markdown (empty on error)
	Err  error  // Set when the document could not be loaded
}

// ScanAll loads every named document concurrently. Individual load failures
// are captured per-result and never abort the scan; results come back in
// input order. The search index and the related-articles corpus are built
// from the successful entries.
func ScanAll(ctx context.Context, store Store, names []string) ([]ScanResult, error) {
	results := make([]ScanResult, len(names))

	g, ctx := errgroup.WithContext(ctx)
	// Limit concurrency to avoid file-descriptor exhaustion on large catalogs.
	g.SetLimit(16)

	for i, name := range names {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = ScanResult{Name: name, Err: ctx.Err()}
				return nil
			default:
			}

			text, err := store.Load(ctx, name)
			results[i] = ScanResult{Name: name, Text: text, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Texts collects the successful scan results into a name -> body map.
func Texts(results []ScanResult) map[string]string {
	out := make(map[string]string, len(results))
	for _, r := range results {
		if r.Err == nil {
			out[r.Name] = r.Text
		}
	}
	return out
}
