package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"crossref/internal/callgraph"
	"crossref/internal/config"
	"crossref/internal/core/errors"
	"crossref/internal/engine"
	"crossref/internal/extract"
	"crossref/internal/registry"
	"crossref/internal/storage"
	"crossref/internal/watch"
)

type App struct {
	cfg    *config.Config
	log    *slog.Logger
	engine *engine.Engine
	store  *storage.Store

	watcher *watch.Watcher

	mu     sync.Mutex
	latest *engine.Report
}

func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	reg, err := registry.Build(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		log:    log,
		engine: engine.New(cfg, reg, log),
	}

	if cfg.Storage.Path != "" {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	return a, nil
}

func (a *App) Close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Scan walks the configured roots, runs the pipeline and persists the
// outcome when storage is configured.
func (a *App) Scan(ctx context.Context) (*engine.Report, error) {
	files, err := a.engine.ScanDirectories(a.cfg.ScanPaths, a.cfg.Exclude.Dirs, a.cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}

	report, err := a.engine.Run(ctx, files)
	if err != nil {
		return nil, err
	}

	for _, issue := range report.QueryIssues {
		a.log.Warn("query template failed to compile; its results are missing",
			"language", issue.Language, "kind", string(issue.Kind), "error", issue.Err)
	}
	for _, file := range report.Degraded {
		a.log.Debug("partial parse, results are low confidence", "path", file)
	}

	if a.store != nil {
		root := strings.Join(a.cfg.ScanPaths, ",")
		if _, err := a.store.SaveRun(root, len(report.Results), report.Index, report.Graph); err != nil {
			a.log.Warn("failed to persist run", "error", err)
		}
	}

	a.mu.Lock()
	a.latest = report
	a.mu.Unlock()
	return report, nil
}

// LatestReport returns the most recent pipeline output, if any.
func (a *App) LatestReport() *engine.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// StartWatcher begins watch mode: any batch of file changes triggers a
// full re-scan. Partial updates are deliberately not attempted; a full
// run is cheap enough and keeps output identical to a cold start.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watch.New(
		a.cfg.Watch.Debounce,
		a.cfg.Watch.RebuildsPerMinute,
		a.cfg.Exclude.Dirs,
		a.cfg.Exclude.Files,
		func(paths []string) {
			a.log.Info("changes detected, rebuilding", "files", len(paths))
			if _, err := a.Scan(ctx); err != nil {
				a.log.Error("rebuild failed", "error", err)
				return
			}
			fmt.Print(a.FormatSummary(a.LatestReport()))
		},
	)
	if err != nil {
		return err
	}
	a.watcher = w
	return w.Watch(ctx, a.cfg.ScanPaths)
}

func (a *App) FormatSummary(report *engine.Report) string {
	var b strings.Builder

	b.WriteString("Cross-reference summary\n")
	b.WriteString("=======================\n")
	b.WriteString(fmt.Sprintf("Files analyzed:    %d\n", len(report.Results)))
	b.WriteString(fmt.Sprintf("Definitions:       %d\n", report.Index.Len()))
	b.WriteString(fmt.Sprintf("Call edges:        %d\n", report.Graph.EdgeCount()))
	b.WriteString(fmt.Sprintf("Unresolved edges:  %d\n", report.Graph.UnresolvedCount()))
	b.WriteString(fmt.Sprintf("Duration:          %s\n", report.Duration.Round(time.Millisecond)))

	if len(report.Degraded) > 0 {
		b.WriteString(fmt.Sprintf("\nDegraded files (%d, low confidence)\n", len(report.Degraded)))
		for _, file := range report.Degraded {
			b.WriteString(fmt.Sprintf("- %s\n", file))
		}
	}
	if len(report.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\nSkipped files (%d)\n", len(report.Skipped)))
		for _, skip := range report.Skipped {
			b.WriteString(fmt.Sprintf("- %s (%s)\n", skip.Path, skip.Reason))
		}
	}

	return b.String()
}

// FormatLookup prints where a symbol is defined, or every candidate
// when the locator is ambiguous.
func (a *App) FormatLookup(report *engine.Report, locator string) string {
	res := report.Graph.Lookup(parseLocator(locator))

	switch {
	case res.NotFound():
		return fmt.Sprintf("symbol %q not found\n", locator)
	case res.Ambiguous():
		var b strings.Builder
		b.WriteString(fmt.Sprintf("symbol %q is ambiguous (%d candidates)\n", locator, len(res.Candidates)))
		for _, d := range res.Candidates {
			b.WriteString(fmt.Sprintf("- %s\n", describeDefinition(d)))
		}
		return b.String()
	default:
		var b strings.Builder
		b.WriteString(describeDefinition(res.Definition))
		b.WriteString("\n")
		if res.Definition.Doc != "" {
			b.WriteString(res.Definition.Doc)
			b.WriteString("\n")
		}
		return b.String()
	}
}

// FormatTraversal resolves the locator, walks the graph and renders the
// result indented by depth.
func (a *App) FormatTraversal(report *engine.Report, locator string, callers bool, maxDepth int) (string, error) {
	res := report.Graph.Lookup(parseLocator(locator))
	if res.NotFound() {
		return "", errors.New(errors.CodeNotFound, fmt.Sprintf("symbol %q not found", locator))
	}
	if res.Ambiguous() {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("symbol %q is ambiguous, pick one:\n", locator))
		for _, d := range res.Candidates {
			b.WriteString(fmt.Sprintf("- %s\n", describeDefinition(d)))
		}
		return "", errors.New(errors.CodeAmbiguousSymbol, b.String())
	}

	direction := callgraph.Callees
	heading := "Callees"
	if callers {
		direction = callgraph.Callers
		heading = "Callers"
	}

	entries, err := report.Graph.Traverse(res.Definition.ID, direction, maxDepth)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s of %s (depth %d)\n", heading, res.Definition.QualifiedName(), maxDepth))
	for _, entry := range entries {
		indent := strings.Repeat("  ", entry.Depth)
		switch {
		case entry.Definition != nil:
			b.WriteString(fmt.Sprintf("%s%s\n", indent, describeDefinition(entry.Definition)))
		default:
			b.WriteString(fmt.Sprintf("%s%s (unresolved)\n", indent, entry.RawName))
		}
	}
	return b.String(), nil
}

func describeDefinition(d *extract.Definition) string {
	return fmt.Sprintf("%s [%s] %s:%d", d.QualifiedName(), d.Kind, d.Span.File, d.Span.StartLine)
}

// parseLocator understands "FILE:LINE" and falls back to a plain or
// dotted symbol name.
func parseLocator(raw string) callgraph.Locator {
	if i := strings.LastIndex(raw, ":"); i > 0 {
		if line, err := strconv.Atoi(raw[i+1:]); err == nil && line > 0 {
			return callgraph.Locator{File: raw[:i], Line: line}
		}
	}
	return callgraph.Locator{Name: raw}
}
