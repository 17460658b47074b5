// ABOUTME: mcphub binary - connects the configured tool providers, then answers
// ABOUTME: queries read from stdin, one turn per line, until an empty line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/2389-research/mcphub/catalog"
	"github.com/2389-research/mcphub/config"
	"github.com/2389-research/mcphub/history"
	"github.com/2389-research/mcphub/lifecycle"
	"github.com/2389-research/mcphub/llm"
	"github.com/2389-research/mcphub/orchestrator"
	"github.com/2389-research/mcphub/provider"
	"github.com/2389-research/mcphub/tool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mcphub:", err)
		os.Exit(1)
	}
}

func run() (err error) {
	serversPath := flag.String("servers", config.DefaultServersPath, "provider file (JSON or YAML with an mcpServers mapping)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run", uuid.NewString())

	settings, err := config.LoadSettings(*envFile)
	if err != nil {
		return err
	}
	servers, err := config.LoadServers(*serversPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
		logger.Info("interrupt received, exiting after the current turn (send EOF to stop waiting for input)")
	}()

	client, err := llm.New(ctx, settings.LLM())
	if err != nil {
		return fmt.Errorf("model backend: %w", err)
	}

	manager := lifecycle.New(lifecycle.Config{
		Servers:        servers,
		ConnectTimeout: settings.ConnectTimeout,
		Prompt:         "> ",
		Logger:         logger,
	})
	sessions, err := manager.ConnectAll(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := manager.Shutdown(); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown: %w", shutdownErr))
		}
	}()

	cat, err := discover(ctx, sessions, settings, logger)
	if err != nil {
		return err
	}
	logger.Info("catalog ready", "providers", len(sessions), "tools", cat.Len(), "shadowed", len(cat.Notes()))

	var source tool.Source = cat
	if len(settings.AllowedTools) > 0 || len(settings.DeniedTools) > 0 {
		source = tool.NewFiltered(cat, settings.AllowedTools, settings.DeniedTools)
	}
	router := tool.NewRouter(source, tool.RouterConfig{InvokeTimeout: settings.InvokeTimeout, Logger: logger})

	hist, err := openHistory(settings)
	if err != nil {
		return err
	}
	// Saved on every exit path so turns answered before a failure are kept.
	defer func() {
		err = errors.Join(err, saveHistory(settings, hist))
	}()

	orch := orchestrator.New(client, router, hist, orchestrator.Config{
		MaxRounds:    settings.MaxRounds,
		SystemPrompt: settings.SystemPrompt,
		Model:        settings.Model,
		MaxTokens:    settings.MaxTokens,
		Parallel:     settings.ParallelTools,
		Logger:       logger,
	})
	defer orch.Close()

	if err := manager.Run(ctx, os.Stdin, os.Stdout, orch); err != nil {
		return err
	}

	usage := orch.Usage()
	logger.Info("session finished", "usage", usage.String())
	return nil
}

// saveHistory writes the window to the configured history file, if any.
func saveHistory(settings config.Settings, hist *history.Window) error {
	if settings.HistoryFile == "" {
		return nil
	}
	if err := hist.SaveTranscript(settings.HistoryFile); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// discover builds the catalog, bounding tools/list on every provider by the
// connect timeout.
func discover(ctx context.Context, sessions []*provider.Session, settings config.Settings, logger *slog.Logger) (*catalog.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, settings.ConnectTimeout)
	defer cancel()
	return catalog.Build(ctx, sessions, logger)
}

// openHistory resumes the saved window when a history file is configured
// and present; otherwise it starts empty.
func openHistory(settings config.Settings) (*history.Window, error) {
	if settings.HistoryFile == "" {
		return history.New(settings.HistorySize), nil
	}
	hist, err := history.LoadTranscript(settings.HistoryFile, settings.HistorySize)
	if errors.Is(err, fs.ErrNotExist) {
		return history.New(settings.HistorySize), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return hist, nil
}
