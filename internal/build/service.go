// Package build orchestrates documentation generation runs: version
// resolution, per-format doxygen invocations, post-build report and link
// verification, metrics, and history.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/doxbuilder/internal/config"
	"git.home.luguber.info/inful/doxbuilder/internal/doxygen"
	dberrors "git.home.luguber.info/inful/doxbuilder/internal/errors"
	"git.home.luguber.info/inful/doxbuilder/internal/gitver"
	"git.home.luguber.info/inful/doxbuilder/internal/history"
	"git.home.luguber.info/inful/doxbuilder/internal/metrics"
	"git.home.luguber.info/inful/doxbuilder/internal/report"
	"git.home.luguber.info/inful/doxbuilder/internal/verify"
)

// FormatOutcome is the result of one format's generation run.
type FormatOutcome struct {
	Format    doxygen.Format
	Duration  time.Duration
	Warnings  int
	OutputDir string
	Err       error
}

// Result is the result of a complete build.
type Result struct {
	BuildID   string
	Version   string
	StartedAt time.Time
	Duration  time.Duration
	Formats   []FormatOutcome
	Canceled  bool
}

// Outcome returns the final build status label: success, failed, or canceled.
func (r *Result) Outcome() string {
	if r.Canceled {
		return "canceled"
	}
	for _, f := range r.Formats {
		if f.Err != nil {
			return "failed"
		}
	}
	return "success"
}

// Err returns the first per-format error, wrapped for CLI classification.
func (r *Result) Err() error {
	for _, f := range r.Formats {
		if f.Err != nil {
			return dberrors.GenerationFailed(string(f.Format), f.Err)
		}
	}
	return nil
}

// Service runs documentation builds.
type Service struct {
	cfg      *config.Config
	runner   doxygen.Runner
	recorder metrics.Recorder
	store    *history.Store
}

// NewService creates a build service with the binary runner and no metrics.
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:      cfg,
		runner:   &doxygen.BinaryRunner{},
		recorder: metrics.NoopRecorder{},
	}
}

// WithRunner injects a custom doxygen runner (fluent helper).
func (s *Service) WithRunner(r doxygen.Runner) *Service {
	if r != nil {
		s.runner = r
	}
	return s
}

// WithRecorder injects a metrics recorder (fluent helper).
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory injects a build history store (fluent helper).
func (s *Service) WithHistory(store *history.Store) *Service {
	s.store = store
	return s
}

// ResolveVersion determines the PROJECT_NUMBER for a build: an explicit
// override wins, then the configured project version, then the source
// tree's git tag.
func (s *Service) ResolveVersion(override string) string {
	if override != "" {
		return override
	}
	if s.cfg.Project.Version != "" {
		return s.cfg.Project.Version
	}
	return gitver.Resolve(s.cfg.Docs.Source)
}

// Run generates documentation for the requested formats. A failing format
// does not prevent the remaining formats from being attempted; the returned
// Result carries per-format outcomes.
func (s *Service) Run(ctx context.Context, formats []doxygen.Format, versionOverride string) (*Result, error) {
	if len(formats) == 0 {
		return nil, dberrors.ValidationFailed("formats", "documentation type isn't specified")
	}

	result := &Result{
		BuildID:   uuid.New().String(),
		Version:   s.ResolveVersion(versionOverride),
		StartedAt: time.Now(),
	}

	slog.Info("Starting documentation build",
		"build_id", result.BuildID,
		"version", result.Version,
		"formats", formatNames(formats),
		"output", s.cfg.Docs.Output)

	for _, format := range formats {
		outcome := s.runFormat(ctx, format, result.Version)
		result.Formats = append(result.Formats, outcome)
		if errors.Is(outcome.Err, context.Canceled) {
			result.Canceled = true
			break
		}
	}

	result.Duration = time.Since(result.StartedAt)
	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(result.Outcome())

	s.finishBuild(ctx, result)

	if err := result.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) runFormat(ctx context.Context, format doxygen.Format, version string) FormatOutcome {
	outcome := FormatOutcome{
		Format:    format,
		OutputDir: doxygen.OutputDir(s.cfg.Docs.Output, format),
	}

	if s.cfg.Docs.Clean {
		if err := os.RemoveAll(outcome.OutputDir); err != nil {
			outcome.Err = fmt.Errorf("clean output directory: %w", err)
			return outcome
		}
	}

	stream, err := doxygen.StreamFor(format, doxygen.BuildInputs{
		DocsPath:        s.cfg.Docs.ConfigPath,
		Output:          s.cfg.Docs.Output,
		Source:          s.cfg.Docs.Source,
		Version:         version,
		ExcludePatterns: s.cfg.Docs.ExcludePatterns,
	})
	if err != nil {
		outcome.Err = err
		s.recorder.IncGenerateResult(string(format), metrics.ResultFailure)
		return outcome
	}

	slog.Info("Generating documentation", "format", format)
	start := time.Now()
	output, err := s.runner.Run(ctx, stream)
	outcome.Duration = time.Since(start)
	outcome.Warnings = output.Warnings()
	outcome.Err = err

	s.recorder.ObserveGenerateDuration(string(format), outcome.Duration)
	switch {
	case errors.Is(err, context.Canceled):
		s.recorder.IncGenerateResult(string(format), metrics.ResultCanceled)
	case err != nil:
		s.recorder.IncGenerateResult(string(format), metrics.ResultFailure)
		slog.Error("Failed to generate documentation", "format", format, "error", err)
	default:
		s.recorder.IncGenerateResult(string(format), metrics.ResultSuccess)
		absOut, aerr := filepath.Abs(outcome.OutputDir)
		if aerr != nil {
			absOut = outcome.OutputDir
		}
		slog.Info("Documentation is located in", "path", absOut, "warnings", outcome.Warnings)
	}

	if err == nil && format == doxygen.FormatHTML {
		outcome.Err = s.checkLinks(outcome.OutputDir)
	}

	return outcome
}

// checkLinks verifies local references in the HTML output. Broken links are
// warnings unless strict_links is configured.
func (s *Service) checkLinks(outputDir string) error {
	broken, err := verify.CheckOutput(outputDir)
	if err != nil {
		slog.Warn("Link verification skipped", "error", err)
		return nil
	}
	if len(broken) == 0 {
		return nil
	}
	for _, b := range broken {
		slog.Warn("Broken local link in generated output", "page", b.Page, "target", b.Target)
	}
	if s.cfg.Docs.StrictLinks {
		return fmt.Errorf("%d broken local links in generated output", len(broken))
	}
	return nil
}

// finishBuild writes the report and appends history. Neither affects the
// build outcome.
func (s *Service) finishBuild(ctx context.Context, result *Result) {
	if htmlSucceeded(result) {
		data := report.Data{
			Project:    s.cfg.Project.Name,
			Version:    result.Version,
			BuildID:    result.BuildID,
			StartedAt:  result.StartedAt,
			Duration:   result.Duration,
			DoxygenVer: doxygen.DetectVersion(ctx),
		}
		for _, f := range result.Formats {
			data.Formats = append(data.Formats, report.FormatResult{
				Format:   string(f.Format),
				Duration: f.Duration,
				Warnings: f.Warnings,
				Err:      f.Err,
			})
		}
		if err := report.Write(doxygen.OutputDir(s.cfg.Docs.Output, doxygen.FormatHTML), data); err != nil {
			slog.Warn("Failed to write build report", "error", err)
		}
	}

	if s.store != nil {
		rec := history.Record{
			BuildID:    result.BuildID,
			StartedAt:  result.StartedAt,
			FinishedAt: result.StartedAt.Add(result.Duration),
			Version:    result.Version,
			Formats:    formatNames(formatsOf(result)),
			Outcome:    result.Outcome(),
		}
		if err := result.Err(); err != nil {
			rec.Error = err.Error()
		}
		if err := s.store.Append(ctx, rec); err != nil {
			slog.Warn("Failed to append build history", "error", err)
		}
	}
}

func htmlSucceeded(result *Result) bool {
	for _, f := range result.Formats {
		if f.Format == doxygen.FormatHTML && f.Err == nil {
			return true
		}
	}
	return false
}

func formatsOf(result *Result) []doxygen.Format {
	formats := make([]doxygen.Format, 0, len(result.Formats))
	for _, f := range result.Formats {
		formats = append(formats, f.Format)
	}
	return formats
}

func formatNames(formats []doxygen.Format) []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	return names
}
