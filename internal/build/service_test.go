package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doxbuilder/internal/config"
	"git.home.luguber.info/inful/doxbuilder/internal/doxygen"
	dberrors "git.home.luguber.info/inful/doxbuilder/internal/errors"
	"git.home.luguber.info/inful/doxbuilder/internal/history"
)

// fakeRunner records the formats it was asked to generate, derived from the
// stream's GENERATE_* overrides, and can fail selected formats.
type fakeRunner struct {
	runs   []string
	failOn map[string]bool
	stderr string
}

func (f *fakeRunner) Run(ctx context.Context, stream *doxygen.Stream) (doxygen.Output, error) {
	format := "html"
	for _, o := range stream.Overrides() {
		if o.Key == "GENERATE_RTF" && o.Value == "YES" {
			format = "rtf"
		}
	}
	f.runs = append(f.runs, format)
	if f.failOn[format] {
		return doxygen.Output{Stderr: f.stderr}, fmt.Errorf("%w: exit status 1", doxygen.ErrDoxygenFailed)
	}
	return doxygen.Output{Stderr: f.stderr}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	docsPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsPath, doxygen.DoxyfileName), []byte("PROJECT_NAME = TAF\n"), 0644))

	output := t.TempDir()
	// Doxygen creates per-format directories itself; the fake runner does not,
	// so pre-create the html one for the report writer.
	require.NoError(t, os.MkdirAll(filepath.Join(output, "html"), 0755))

	return &config.Config{
		Project: config.ProjectConfig{Name: "TAF", Version: "v2.1"},
		Docs: config.DocsConfig{
			ConfigPath:      docsPath,
			Output:          output,
			Source:          t.TempDir(),
			ExcludePatterns: config.DefaultRTFExcludePatterns,
		},
	}
}

func TestRun_NoFormatsIsValidationError(t *testing.T) {
	service := NewService(testConfig(t)).WithRunner(&fakeRunner{})

	_, err := service.Run(context.Background(), nil, "")
	require.Error(t, err)
	assert.True(t, dberrors.IsCategory(err, dberrors.CategoryValidation))
}

func TestRun_AllFormatsSucceed(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{stderr: "foo.py:1: warning: undocumented\n"}
	service := NewService(cfg).WithRunner(runner)

	result, err := service.Run(context.Background(), []doxygen.Format{doxygen.FormatHTML, doxygen.FormatRTF}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"html", "rtf"}, runner.runs)
	assert.Equal(t, "success", result.Outcome())
	assert.Equal(t, "v2.1", result.Version)
	require.Len(t, result.Formats, 2)
	assert.Equal(t, 1, result.Formats[0].Warnings)

	// Report lands next to the HTML output.
	_, statErr := os.Stat(filepath.Join(cfg.Docs.Output, "html", "report.html"))
	assert.NoError(t, statErr)
}

func TestRun_FailingFormatDoesNotStopOthers(t *testing.T) {
	runner := &fakeRunner{failOn: map[string]bool{"html": true}}
	service := NewService(testConfig(t)).WithRunner(runner)

	result, err := service.Run(context.Background(), []doxygen.Format{doxygen.FormatHTML, doxygen.FormatRTF}, "")
	require.Error(t, err)
	assert.True(t, dberrors.IsCategory(err, dberrors.CategoryDoxygen))

	// Both formats were attempted despite the html failure.
	assert.Equal(t, []string{"html", "rtf"}, runner.runs)
	assert.Equal(t, "failed", result.Outcome())
	assert.Error(t, result.Formats[0].Err)
	assert.NoError(t, result.Formats[1].Err)
}

func TestRun_VersionOverrideWins(t *testing.T) {
	service := NewService(testConfig(t)).WithRunner(&fakeRunner{})

	result, err := service.Run(context.Background(), []doxygen.Format{doxygen.FormatRTF}, "9.9")
	require.NoError(t, err)
	assert.Equal(t, "9.9", result.Version)
}

func TestRun_AppendsHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	service := NewService(testConfig(t)).WithRunner(&fakeRunner{}).WithHistory(store)

	_, err = service.Run(context.Background(), []doxygen.Format{doxygen.FormatHTML}, "")
	require.NoError(t, err)

	last, err := store.Last(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "success", last.Outcome)
	assert.Equal(t, []string{"html"}, last.Formats)
	assert.Equal(t, "v2.1", last.Version)
}

func TestRun_StrictLinksFailsOnBrokenOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Docs.StrictLinks = true
	htmlDir := filepath.Join(cfg.Docs.Output, "html")
	require.NoError(t, os.WriteFile(filepath.Join(htmlDir, "index.html"),
		[]byte(`<html><body><a href="missing.html">x</a></body></html>`), 0644))

	service := NewService(cfg).WithRunner(&fakeRunner{})

	result, err := service.Run(context.Background(), []doxygen.Format{doxygen.FormatHTML}, "")
	require.Error(t, err)
	assert.Equal(t, "failed", result.Outcome())
	assert.Contains(t, result.Formats[0].Err.Error(), "broken local links")
}

func TestResolveVersion_FallsBackToGit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Project.Version = ""
	service := NewService(cfg).WithRunner(&fakeRunner{})

	// Source dir is a plain temp dir: no git metadata, so "unknown".
	assert.Equal(t, "unknown", service.ResolveVersion(""))
	assert.Equal(t, "override", service.ResolveVersion("override"))
}
