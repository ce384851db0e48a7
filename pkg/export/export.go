// Package export writes the diagrams of an article to image files so
// they can be shared outside the terminal.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bluerabbit/kcore/pkg/debug"
	"github.com/bluerabbit/kcore/pkg/diagram"
	"github.com/bluerabbit/kcore/pkg/document"
)

// FormatSVG and FormatPNG are the supported output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Options controls a diagram export run.
type Options struct {
	Format string // FormatSVG or FormatPNG
	OutDir string // created if missing
}

// Result describes one exported diagram.
type Result struct {
	Path  string // written file
	Index int    // diagram position within the article, starting at 1
}

// Diagrams renders every diagram in the article text to one file each.
// Output names derive from the article name: "networking/dns.md" with
// two diagrams yields dns-1.svg and dns-2.svg. A parse failure in one
// diagram skips that diagram and is reported alongside the successes.
func Diagrams(name, text string, opts Options) ([]Result, []error) {
	switch opts.Format {
	case FormatSVG, FormatPNG:
	default:
		return nil, []error{fmt.Errorf("unsupported format %q", opts.Format)}
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, []error{fmt.Errorf("cannot create output directory: %w", err)}
	}

	base := strings.TrimSuffix(filepath.Base(filepath.FromSlash(name)), filepath.Ext(name))

	var (
		results []Result
		errs    []error
		index   int
	)
	for _, seg := range document.Parse(text).Segments {
		if seg.Kind != document.KindDiagram {
			continue
		}
		index++

		graph, err := diagram.Parse(seg.Source)
		if err != nil {
			errs = append(errs, fmt.Errorf("diagram %d: %w", index, err))
			continue
		}

		path := filepath.Join(opts.OutDir, fmt.Sprintf("%s-%d.%s", base, index, opts.Format))
		switch opts.Format {
		case FormatSVG:
			err = diagram.SaveSVG(path, graph)
		case FormatPNG:
			err = diagram.SavePNG(path, graph)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("diagram %d: %w", index, err))
			continue
		}

		debug.Log("export: wrote %s", path)
		results = append(results, Result{Path: path, Index: index})
	}

	if index == 0 {
		errs = append(errs, fmt.Errorf("%s contains no diagrams", name))
	}
	return results, errs
}
