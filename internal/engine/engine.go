// Package engine runs the extraction pipeline: fan out files to a
// worker pool, aggregate per-file results, then build the symbol index
// and the call graph. Aggregation happens in a single goroutine over a
// channel; workers share nothing but the registry and the parser pools.
package engine

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"crossref/internal/callgraph"
	"crossref/internal/config"
	"crossref/internal/core/errors"
	"crossref/internal/extract"
	"crossref/internal/index"
	"crossref/internal/registry"
	"crossref/internal/shared/observability"
)

// SkippedFile records a file that produced no extraction result and why.
type SkippedFile struct {
	Path   string
	Reason string
	Err    error
}

// QueryIssue is a query template that failed to compile for one
// language and query kind. Reported once per run, not per file.
type QueryIssue struct {
	Language string
	Kind     registry.QueryKind
	Err      error
}

// Report is the complete output of one pipeline run.
type Report struct {
	Results     []*extract.Result
	Index       *index.Index
	Graph       *callgraph.Graph
	Skipped     []SkippedFile
	QueryIssues []QueryIssue
	Degraded    []string
	Duration    time.Duration
}

type Engine struct {
	cfg       *config.Config
	reg       *registry.Registry
	extractor *extract.Extractor
	log       *slog.Logger
}

func New(cfg *config.Config, reg *registry.Registry, log *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		reg:       reg,
		extractor: extract.New(),
		log:       log,
	}
}

// Registry exposes the language registry the engine runs with.
func (e *Engine) Registry() *registry.Registry { return e.reg }

type fileOutcome struct {
	result *extract.Result
	skip   *SkippedFile
}

// Run extracts every file, indexes the definitions and builds the call
// graph. Output is deterministic regardless of worker scheduling:
// results are sorted by file path before indexing.
func (e *Engine) Run(ctx context.Context, files []string) (*Report, error) {
	start := time.Now()
	ctx, span := observability.Tracer.Start(ctx, "engine.Run")
	defer span.End()

	report := &Report{QueryIssues: e.queryIssues()}

	outcomes, err := e.extractAll(ctx, files)
	if err != nil {
		return nil, err
	}
	for _, out := range outcomes {
		switch {
		case out.skip != nil:
			report.Skipped = append(report.Skipped, *out.skip)
			observability.FilesProcessedTotal.WithLabelValues("skipped").Inc()
		case out.result != nil:
			report.Results = append(report.Results, out.result)
			if out.result.Degraded {
				report.Degraded = append(report.Degraded, out.result.File)
				observability.FilesProcessedTotal.WithLabelValues("degraded").Inc()
			} else {
				observability.FilesProcessedTotal.WithLabelValues("ok").Inc()
			}
		}
	}

	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].File < report.Results[j].File })
	sort.Slice(report.Skipped, func(i, j int) bool { return report.Skipped[i].Path < report.Skipped[j].Path })
	sort.Strings(report.Degraded)

	indexStart := time.Now()
	report.Index = index.Build(report.Results)
	observability.PhaseDuration.WithLabelValues("index").Observe(time.Since(indexStart).Seconds())

	graphStart := time.Now()
	report.Graph = callgraph.Build(report.Index, report.Results)
	observability.PhaseDuration.WithLabelValues("graph").Observe(time.Since(graphStart).Seconds())

	observability.DefinitionsIndexed.Set(float64(report.Index.Len()))
	observability.GraphEdges.Set(float64(report.Graph.EdgeCount()))
	observability.GraphEdgesUnresolved.Set(float64(report.Graph.UnresolvedCount()))

	report.Duration = time.Since(start)
	e.log.Info("pipeline finished",
		"files", len(report.Results),
		"skipped", len(report.Skipped),
		"degraded", len(report.Degraded),
		"definitions", report.Index.Len(),
		"edges", report.Graph.EdgeCount(),
		"unresolved", report.Graph.UnresolvedCount(),
		"duration", report.Duration)
	return report, nil
}

// extractAll fans files out to cfg.Workers workers and collects every
// outcome. Workers never touch shared state; all aggregation happens
// here on the outcome channel.
func (e *Engine) extractAll(ctx context.Context, files []string) ([]fileOutcome, error) {
	ctx, span := observability.Tracer.Start(ctx, "engine.extract")
	defer span.End()
	phaseStart := time.Now()
	defer func() {
		observability.PhaseDuration.WithLabelValues("extract").Observe(time.Since(phaseStart).Seconds())
	}()

	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	outcomes := make(chan fileOutcome)
	done := make(chan struct{})

	var collected []fileOutcome
	go func() {
		defer close(done)
		for out := range outcomes {
			collected = append(collected, out)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				outcomes <- e.extractOne(path)
			}
		}()
	}

	var canceled error
feed:
	for _, path := range files {
		select {
		case jobs <- path:
		case <-ctx.Done():
			canceled = ctx.Err()
			break feed
		}
	}
	close(jobs)

	wg.Wait()
	close(outcomes)
	<-done

	if canceled != nil {
		return nil, errors.Wrap(canceled, errors.CodeInternal, "extraction canceled")
	}
	return collected, nil
}

func (e *Engine) extractOne(path string) fileOutcome {
	spec, ok := e.reg.Resolve(path)
	if !ok {
		err := errors.New(errors.CodeUnsupportedLanguage, "no language registered for extension")
		return fileOutcome{skip: &SkippedFile{Path: path, Reason: "unsupported language", Err: errors.AddContext(err, errors.CtxPath, path)}}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn("read failed", "path", path, "error", err)
		return fileOutcome{skip: &SkippedFile{Path: path, Reason: "read failed", Err: err}}
	}

	start := time.Now()
	res, err := e.extractor.Extract(path, content, spec)
	observability.ExtractionDuration.WithLabelValues(spec.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		e.log.Warn("extraction failed", "path", path, "error", err)
		return fileOutcome{skip: &SkippedFile{Path: path, Reason: "extraction failed", Err: err}}
	}
	if res.Degraded {
		e.log.Debug("degraded parse", "path", path, "language", spec.Name)
	}
	return fileOutcome{result: res}
}

// queryIssues reports every query template that failed to compile,
// once per language and kind.
func (e *Engine) queryIssues() []QueryIssue {
	var issues []QueryIssue
	for _, name := range e.reg.Names() {
		spec, ok := e.reg.Get(name)
		if !ok {
			continue
		}
		for _, kind := range registry.QueryKinds {
			if _, err := spec.Query(kind); err != nil {
				issues = append(issues, QueryIssue{Language: name, Kind: kind, Err: err})
			}
		}
	}
	return issues
}
