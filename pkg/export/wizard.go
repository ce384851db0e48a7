package export

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/bluerabbit/kcore/pkg/catalog"
)

// WizardResult is what the interactive export flow collects.
type WizardResult struct {
	Article string // article name, e.g. "networking/dns.md"
	Format  string // FormatSVG or FormatPNG
	OutDir  string
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// RunWizard walks the user through choosing an article, an output
// format, and a destination directory. defaults prefill the format and
// directory fields.
func RunWizard(cats []catalog.Category, defaults Options) (*WizardResult, error) {
	topics := catalog.Topics(cats)
	if len(topics) == 0 {
		return nil, fmt.Errorf("catalog has no articles to export")
	}

	articleOpts := make([]huh.Option[string], 0, len(topics))
	for _, t := range topics {
		articleOpts = append(articleOpts, huh.NewOption(t.Title, t.FileName))
	}

	result := &WizardResult{
		Format: defaults.Format,
		OutDir: defaults.OutDir,
	}
	if result.Format == "" {
		result.Format = FormatSVG
	}
	if result.OutDir == "" {
		result.OutDir = "."
	}

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which article?").
				Options(articleOpts...).
				Value(&result.Article),
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("SVG (scalable, best for docs)", FormatSVG),
					huh.NewOption("PNG (raster, drops into chat)", FormatPNG),
				).
				Value(&result.Format),
			huh.NewInput().
				Title("Output directory").
				Value(&result.OutDir).
				Placeholder("."),
		),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}
	if result.OutDir == "" {
		result.OutDir = "."
	}
	return result, nil
}
