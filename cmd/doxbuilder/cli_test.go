package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doxbuilder/internal/config"
	"git.home.luguber.info/inful/doxbuilder/internal/doxygen"
	dberrors "git.home.luguber.info/inful/doxbuilder/internal/errors"
)

func resetCLI(t *testing.T) {
	t.Helper()
	saved := CLI
	t.Cleanup(func() { CLI = saved })
	CLI.Generate.HTML = false
	CLI.Generate.RTF = false
	CLI.Generate.ConfigPath = ""
	CLI.Generate.Output = ""
	CLI.Generate.Source = ""
	CLI.Generate.StrictLinks = false
}

func defaultedConfig() *config.Config {
	cfg, _ := config.LoadOrDefault("/nonexistent/config.yaml")
	return cfg
}

func TestRequestedFormats_FlagsWin(t *testing.T) {
	resetCLI(t)
	CLI.Generate.RTF = true

	cfg := defaultedConfig() // configured formats default to html
	formats, err := requestedFormats(cfg)
	require.NoError(t, err)
	assert.Equal(t, []doxygen.Format{doxygen.FormatRTF}, formats)

	CLI.Generate.HTML = true
	formats, err = requestedFormats(cfg)
	require.NoError(t, err)
	assert.Equal(t, []doxygen.Format{doxygen.FormatHTML, doxygen.FormatRTF}, formats)
}

func TestRequestedFormats_FallsBackToConfig(t *testing.T) {
	resetCLI(t)

	cfg := defaultedConfig()
	cfg.Docs.Formats = []string{"html", "rtf"}

	formats, err := requestedFormats(cfg)
	require.NoError(t, err)
	assert.Equal(t, []doxygen.Format{doxygen.FormatHTML, doxygen.FormatRTF}, formats)
}

func TestRequestedFormats_EmptyIsValidationError(t *testing.T) {
	resetCLI(t)

	cfg := defaultedConfig()
	cfg.Docs.Formats = nil

	_, err := requestedFormats(cfg)
	require.Error(t, err)
	assert.True(t, dberrors.IsCategory(err, dberrors.CategoryValidation))
}

func TestApplyGenerateFlags_OverridesPaths(t *testing.T) {
	resetCLI(t)
	CLI.Generate.ConfigPath = "/docs"
	CLI.Generate.Output = "/out"
	CLI.Generate.Source = "/src"
	CLI.Generate.StrictLinks = true

	cfg := defaultedConfig()
	applyGenerateFlags(cfg)

	assert.Equal(t, "/docs", cfg.Docs.ConfigPath)
	assert.Equal(t, "/out", cfg.Docs.Output)
	assert.Equal(t, "/src", cfg.Docs.Source)
	assert.True(t, cfg.Docs.StrictLinks)
}

func TestApplyGenerateFlags_KeepsConfigWhenUnset(t *testing.T) {
	resetCLI(t)

	cfg := defaultedConfig()
	cfg.Docs.Output = "./site-docs"
	applyGenerateFlags(cfg)

	assert.Equal(t, "./site-docs", cfg.Docs.Output)
}
