package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"git.home.luguber.info/inful/doxbuilder/internal/build"
	"git.home.luguber.info/inful/doxbuilder/internal/config"
	"git.home.luguber.info/inful/doxbuilder/internal/daemon"
	"git.home.luguber.info/inful/doxbuilder/internal/doxygen"
	dberrors "git.home.luguber.info/inful/doxbuilder/internal/errors"
	"git.home.luguber.info/inful/doxbuilder/internal/history"
	"git.home.luguber.info/inful/doxbuilder/internal/version"
)

func runGenerate() error {
	cfg, err := config.LoadOrDefault(CLI.Config)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CategoryConfig, dberrors.SeverityFatal, err.Error())
	}
	applyGenerateFlags(cfg)

	formats, err := requestedFormats(cfg)
	if err != nil {
		return err
	}

	service := build.NewService(cfg)
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("Build history disabled", "error", err)
		} else {
			defer store.Close()
			service.WithHistory(store)
		}
	}

	_, err = service.Run(context.Background(), formats, CLI.Generate.Version)
	return err
}

// applyGenerateFlags lets command-line flags override the configured paths.
func applyGenerateFlags(cfg *config.Config) {
	if CLI.Generate.ConfigPath != "" {
		cfg.Docs.ConfigPath = CLI.Generate.ConfigPath
	}
	if CLI.Generate.Output != "" {
		cfg.Docs.Output = CLI.Generate.Output
	}
	if CLI.Generate.Source != "" {
		cfg.Docs.Source = CLI.Generate.Source
	}
	if CLI.Generate.StrictLinks {
		cfg.Docs.StrictLinks = true
	}
}

// requestedFormats resolves the formats to build: explicit flags win, the
// configured formats otherwise.
func requestedFormats(cfg *config.Config) ([]doxygen.Format, error) {
	var formats []doxygen.Format
	if CLI.Generate.HTML {
		formats = append(formats, doxygen.FormatHTML)
	}
	if CLI.Generate.RTF {
		formats = append(formats, doxygen.FormatRTF)
	}
	if len(formats) > 0 {
		return formats, nil
	}

	for _, name := range cfg.Docs.Formats {
		format, err := doxygen.ParseFormat(name)
		if err != nil {
			return nil, dberrors.ValidationFailed("docs.formats", err.Error())
		}
		formats = append(formats, format)
	}
	if len(formats) == 0 {
		return nil, dberrors.ValidationFailed("formats", "documentation type isn't specified (use --html or --rtf)")
	}
	return formats, nil
}

func runInit() error {
	slog.Info("Initializing configuration", "path", CLI.Config, "force", CLI.Init.Force)
	if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
		return dberrors.Wrap(err, dberrors.CategoryConfig, dberrors.SeverityFatal, err.Error())
	}
	return nil
}

func runHistory() error {
	cfg, err := config.LoadOrDefault(CLI.Config)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CategoryConfig, dberrors.SeverityFatal, err.Error())
	}
	if cfg.History.Path == "" {
		return dberrors.New(dberrors.CategoryConfig, dberrors.SeverityFatal, "build history is not configured (set history.path)")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CategoryInternal, dberrors.SeverityFatal, "failed to open build history")
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), CLI.History.Limit)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CategoryInternal, dberrors.SeverityFatal, "failed to read build history")
	}

	if len(records) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	for _, rec := range records {
		line := fmt.Sprintf("%s  %-8s  %-10s  %s  [%s]",
			rec.FinishedAt.Format(time.RFC3339),
			rec.Outcome,
			rec.Version,
			rec.BuildID,
			strings.Join(rec.Formats, ","))
		if rec.Error != "" {
			line += "  " + rec.Error
		}
		fmt.Println(line)
	}
	return nil
}

func runDaemon() error {
	cfg, err := config.LoadOrDefault(CLI.Config)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CategoryConfig, dberrors.SeverityFatal, err.Error())
	}

	// Create main context for the daemon
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg)
	if err != nil {
		return dberrors.DaemonError("startup", err)
	}

	// Start daemon in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	slog.Info("Daemon started, waiting for shutdown signal...")

	// Wait for either error or shutdown signal
	select {
	case err := <-errChan:
		if err != nil {
			return dberrors.DaemonError("run", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	// Stop daemon gracefully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return dberrors.DaemonError("shutdown", err)
	}

	slog.Info("Daemon stopped successfully")
	return nil
}

func runVersion() {
	fmt.Printf("doxbuilder %s\n", version.Version)
	fmt.Printf("  build time: %s\n", version.BuildTime)
	fmt.Printf("  git commit: %s\n", version.GitCommit)
	if dv := doxygen.DetectVersion(context.Background()); dv != "" {
		fmt.Printf("  doxygen:    %s\n", dv)
	}
}
