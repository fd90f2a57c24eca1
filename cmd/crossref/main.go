package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"crossref/internal/config"
	"crossref/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./crossref.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single scan and exit")
	watchMode  = flag.Bool("watch", false, "Keep running and rebuild on file changes")
	callersOf  = flag.String("callers", "", "Print the callers of a symbol")
	calleesOf  = flag.String("callees", "", "Print the callees of a symbol")
	lookupSym  = flag.String("lookup", "", "Locate a symbol (NAME, Scope.NAME or FILE:LINE)")
	depth      = flag.Int("depth", 3, "Traversal depth for -callers/-callees")
	metricsAt  = flag.String("metrics", "", "Serve /metrics and /health on this address (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("crossref v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./crossref.toml" {
			cfg, err = config.Load("./crossref.example.toml")
		}
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if flag.NArg() > 0 {
		cfg.ScanPaths = flag.Args()
	}

	if *callersOf != "" && *calleesOf != "" {
		fmt.Fprintln(os.Stderr, "-callers and -callees cannot be used together")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	app, err := NewApp(cfg, logger)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *metricsAt != "" {
		cfg.Observability.MetricsAddr = *metricsAt
	}

	var obsServer *ObservabilityServer
	if cfg.Observability.MetricsAddr != "" {
		obsServer = NewObservabilityServer(cfg.Observability.MetricsAddr, app)
		if err := obsServer.Start(ctx); err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer func() { _ = obsServer.Stop(context.Background()) }()
	}

	report, err := app.Scan(ctx)
	if err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(1)
	}

	switch {
	case *lookupSym != "":
		fmt.Print(app.FormatLookup(report, *lookupSym))
	case *callersOf != "":
		out, err := app.FormatTraversal(report, *callersOf, true, *depth)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Print(out)
	case *calleesOf != "":
		out, err := app.FormatTraversal(report, *calleesOf, false, *depth)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Print(out)
	default:
		fmt.Print(app.FormatSummary(report))
	}

	if *once || !*watchMode {
		return
	}

	if err := app.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
}
