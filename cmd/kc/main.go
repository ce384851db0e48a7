package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bluerabbit/kcore/pkg/catalog"
	"github.com/bluerabbit/kcore/pkg/config"
	"github.com/bluerabbit/kcore/pkg/content"
	"github.com/bluerabbit/kcore/pkg/debug"
	"github.com/bluerabbit/kcore/pkg/docstore"
	"github.com/bluerabbit/kcore/pkg/export"
	"github.com/bluerabbit/kcore/pkg/related"
	"github.com/bluerabbit/kcore/pkg/search"
	"github.com/bluerabbit/kcore/pkg/ui"
	"github.com/bluerabbit/kcore/pkg/version"
	"github.com/bluerabbit/kcore/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	docsDirFlag := flag.String("docs-dir", "", "Directory of Markdown articles (overrides config)")
	catalogFlag := flag.String("catalog", "", "Catalog YAML file (defaults to <docs-dir>/catalog.yaml)")
	noWatch := flag.Bool("no-watch", false, "Disable live reload of changed articles")
	robotCatalog := flag.Bool("robot-catalog", false, "Print the catalog as JSON and exit")
	robotDoc := flag.String("robot-doc", "", "Print one article as JSON and exit")
	robotSearch := flag.String("robot-search", "", "Print full-text search hits as JSON and exit")
	robotRelated := flag.String("robot-related", "", "Print related articles as JSON and exit")
	exportDoc := flag.String("export", "", "Export an article's diagrams to image files and exit")
	exportFormat := flag.String("export-format", "", "Export format: svg or png (default from config)")
	exportOut := flag.String("export-out", "", "Export output directory (default from config)")
	exportWizard := flag.Bool("export-wizard", false, "Interactive export flow")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: kc [options]")
		fmt.Println("\nA terminal browser for a Markdown knowledge base.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("kc %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *docsDirFlag != "" {
		cfg.DocsDir = *docsDirFlag
	}
	if *catalogFlag != "" {
		cfg.CatalogPath = *catalogFlag
	}

	app, err := buildApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	switch {
	case *robotCatalog:
		err = writeRobotCatalog(os.Stdout, app.cats)
	case *robotDoc != "":
		err = writeRobotDoc(os.Stdout, app, *robotDoc)
	case *robotSearch != "":
		err = writeRobotSearch(os.Stdout, app, *robotSearch)
	case *robotRelated != "":
		err = writeRobotRelated(os.Stdout, app, *robotRelated)
	case *exportDoc != "" || *exportWizard:
		err = runExport(app, cfg, *exportDoc, *exportFormat, *exportOut, *exportWizard)
	default:
		err = runBrowser(app, cfg, *noWatch)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything the subcommands share: the catalog, the
// document store, and the derived search structures.
type app struct {
	cats    []catalog.Category
	store   docstore.Store
	docsDir string // empty when serving the embedded articles
	index   *search.Index
	corpus  *related.Corpus
}

func (a *app) Close() {
	if a.index != nil {
		a.index.Close()
	}
}

func buildApp(cfg config.Config) (*app, error) {
	a := &app{}

	if cfg.DocsDir != "" {
		store, err := docstore.NewDirStore(cfg.DocsDir)
		if err != nil {
			return nil, err
		}
		a.store = store
		a.docsDir = store.Root()
	} else {
		a.store = docstore.NewFSStore(content.FS())
	}

	a.cats = loadCatalog(cfg)

	if err := a.buildSearch(); err != nil {
		// Search is an enhancement; the browser works without it.
		debug.Log("main: search index unavailable: %v", err)
		a.index = nil
		a.corpus = nil
	}
	return a, nil
}

// loadCatalog picks the first catalog that exists: the configured file,
// catalog.yaml in the docs directory, then the built-in set.
func loadCatalog(cfg config.Config) []catalog.Category {
	if cfg.CatalogPath != "" {
		cats, err := catalog.LoadFile(cfg.CatalogPath)
		if err == nil {
			return cats
		}
		fmt.Fprintf(os.Stderr, "Warning: cannot load catalog %s: %v\n", cfg.CatalogPath, err)
	}
	if cfg.DocsDir != "" {
		path := filepath.Join(cfg.DocsDir, "catalog.yaml")
		if cats, err := catalog.LoadFile(path); err == nil {
			return cats
		}
	}
	return catalog.Default()
}

// buildSearch indexes every article for full-text search and builds the
// similarity corpus for related-article suggestions.
func (a *app) buildSearch() error {
	idx, err := search.NewIndex()
	if err != nil {
		return err
	}

	topics := catalog.Topics(a.cats)
	names := make([]string, 0, len(topics))
	titles := make(map[string]string, len(topics))
	for _, t := range topics {
		names = append(names, t.FileName)
		titles[t.FileName] = t.Title
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := docstore.ScanAll(ctx, a.store, names)
	if err != nil {
		idx.Close()
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			debug.Log("main: skip %s: %v", res.Name, res.Err)
			continue
		}
		if err := idx.Add(res.Name, titles[res.Name], res.Text); err != nil {
			idx.Close()
			return err
		}
	}

	a.index = idx
	a.corpus = related.NewCorpus(docstore.Texts(results))
	return nil
}

func runExport(a *app, cfg config.Config, name, format, outDir string, wizard bool) error {
	opts := export.Options{Format: cfg.Export.Format, OutDir: cfg.Export.OutputDir}
	if format != "" {
		opts.Format = format
	}
	if outDir != "" {
		opts.OutDir = outDir
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}

	if wizard {
		result, err := export.RunWizard(a.cats, opts)
		if err != nil {
			return err
		}
		name = result.Article
		opts.Format = result.Format
		opts.OutDir = result.OutDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	text, err := a.store.Load(ctx, name)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("cannot resolve %s", name)
		}
		return err
	}

	results, errs := export.Diagrams(name, text, opts)
	for _, r := range results {
		fmt.Println(r.Path)
	}
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", e)
	}
	if len(results) == 0 && len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func runBrowser(a *app, cfg config.Config, noWatch bool) error {
	var searchFn ui.SearchFunc
	if a.index != nil {
		searchFn = a.index.Search
	}

	opts := []ui.Option{
		ui.WithSidebarHidden(cfg.UI.SidebarHidden),
		ui.WithContentWidth(cfg.UI.ContentWidth),
	}

	var w *watcher.Watcher
	if !noWatch && a.docsDir != "" {
		var err error
		w, err = watcher.New(a.docsDir)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			debug.Log("main: watcher disabled: %v", err)
			w = nil
		}
	}
	if w != nil {
		defer w.Stop()
		opts = append(opts, ui.WithWatcher(w.Changed()))
	}

	m := ui.NewModel(ui.DefaultTheme(lipgloss.NewRenderer(os.Stdout)), a.cats, a.store, searchFn, opts...)

	var initial tea.Cmd
	if name := cfg.UI.DefaultDocument; name != "" {
		if topic, ok := catalog.FindTopic(a.cats, name); ok {
			m, initial = m.OpenTopic(topic)
		}
	}

	return runTUIProgram(m, initial)
}

func runTUIProgram(m ui.Model, initial tea.Cmd) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)
	if initial != nil {
		go func() {
			if msg := initial(); msg != nil {
				p.Send(msg)
			}
		}()
	}

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set KC_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("KC_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
