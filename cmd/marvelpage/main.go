package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marvelpage/config"
	"marvelpage/generator"
	"marvelpage/marvel"
	"marvelpage/scheduler"
	"marvelpage/storage"
)

func main() {
	name := flag.String("name", "", "randomly select a story from the given character")
	storyID := flag.Int("id", 0, "generate the page for a specific story ID")
	out := flag.String("out", "", "output HTML file (overrides config output_path)")
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	historyN := flag.Int("history", 0, "print the last N generations and exit")
	daemon := flag.Bool("daemon", false, "keep running and refresh the page daily at refresh_time")
	flag.Parse()

	// Structured JSON logging to stderr; the HTML output may go to stdout-adjacent paths.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch cfg.LogLevel {
	case "debug":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	case "warn":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	case "error":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *historyN > 0 {
		printHistory(store, *historyN)
		return
	}

	if (*name == "") == (*storyID == 0) {
		fmt.Fprintln(os.Stderr, "exactly one of -name or -id is required")
		flag.Usage()
		os.Exit(2)
	}

	outputPath := cfg.OutputPath
	if *out != "" {
		outputPath = *out
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second}
	client := marvel.NewClientWithBaseURL(httpClient, marvel.Credentials{
		PublicKey:  cfg.PublicKey,
		PrivateKey: cfg.PrivateKey,
	}, cfg.BaseURL)
	gen := generator.New(client, &historyAdapter{store: store}, outputPath)

	run := func(ctx context.Context) error {
		if *name != "" {
			slog.Info("looking for a story", "character", *name)
			return gen.FromCharacterName(ctx, *name)
		}
		return gen.FromStoryID(ctx, *storyID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		exitOnError(err)
	}

	if !*daemon {
		return
	}

	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	refresh := func() {
		if err := run(context.Background()); err != nil {
			slog.Error("refresh failed", "error", err)
		}
	}
	if err := sched.Schedule(cfg.RefreshTime, refresh); err != nil {
		slog.Error("failed to schedule refresh", "error", err)
		os.Exit(1)
	}
	sched.Start()
	slog.Info("daemon running", "refresh_time", cfg.RefreshTime, "timezone", cfg.Timezone)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	sched.Stop()
	slog.Info("shutdown complete")
}

// exitOnError reports the failure and terminates. Not-found conditions
// are the expected user mistakes (typoed name, unknown story ID) and
// are reported as such; everything else is a communication problem.
func exitOnError(err error) {
	var notFound *marvel.NotFoundError
	if errors.As(err, &notFound) {
		slog.Error("nothing matched", "error", err)
	} else {
		slog.Error("page generation failed", "error", err)
	}
	os.Exit(1)
}

func printHistory(store *storage.Store, limit int) {
	recent, err := store.Recent(limit)
	if err != nil {
		slog.Error("failed to read history", "error", err)
		os.Exit(1)
	}
	for _, g := range recent {
		when := time.Unix(g.GeneratedAt, 0).Format(time.RFC3339)
		if g.CharacterName != "" {
			fmt.Printf("%s  story %d  %q  (character %s)  -> %s\n", when, g.StoryID, g.Title, g.CharacterName, g.OutputPath)
		} else {
			fmt.Printf("%s  story %d  %q  -> %s\n", when, g.StoryID, g.Title, g.OutputPath)
		}
	}
}

// historyAdapter bridges storage.Store to generator.History.
type historyAdapter struct {
	store *storage.Store
}

func (a *historyAdapter) Add(rec generator.Record) error {
	return a.store.Add(&storage.Generation{
		StoryID:       rec.StoryID,
		Title:         rec.Title,
		CharacterName: rec.CharacterName,
		OutputPath:    rec.OutputPath,
	})
}
