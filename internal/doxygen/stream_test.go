package doxygen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoxyfile(t *testing.T, content string) string {
	t.Helper()
	docsPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsPath, DoxyfileName), []byte(content), 0644))
	return docsPath
}

func TestStreamFor_HTMLOverrides(t *testing.T) {
	docsPath := writeDoxyfile(t, "PROJECT_NAME = TAF\n")

	stream, err := StreamFor(FormatHTML, BuildInputs{
		DocsPath: docsPath,
		Output:   "./out",
		Source:   "../",
		Version:  "2.1",
	})
	require.NoError(t, err)

	keys := make([]string, 0)
	for _, o := range stream.Overrides() {
		keys = append(keys, o.Key)
	}
	// Order is significant: doxygen applies last-value-wins.
	assert.Equal(t, []string{
		"OUTPUT_DIRECTORY", "IMAGE_PATH", "PROJECT_NUMBER", "INPUT",
		"GENERATE_HTML", "GENERATE_RTF", "LAYOUT_FILE",
	}, keys)

	var buf bytes.Buffer
	_, err = stream.WriteTo(&buf)
	require.NoError(t, err)

	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "PROJECT_NAME = TAF\n"))
	assert.Contains(t, text, "OUTPUT_DIRECTORY=./out\n")
	assert.Contains(t, text, "IMAGE_PATH="+filepath.Join(docsPath, "images")+"\n")
	assert.Contains(t, text, "PROJECT_NUMBER=2.1\n")
	assert.Contains(t, text, "INPUT=../\n")
	assert.Contains(t, text, "GENERATE_HTML=YES\n")
	assert.Contains(t, text, "GENERATE_RTF=NO\n")
	assert.Contains(t, text, "LAYOUT_FILE="+filepath.Join(docsPath, LayoutFileName)+"\n")
	assert.NotContains(t, text, "RTF_HYPERLINKS")
}

func TestStreamFor_RTFOverrides(t *testing.T) {
	docsPath := writeDoxyfile(t, "PROJECT_NAME = TAF")

	stream, err := StreamFor(FormatRTF, BuildInputs{
		DocsPath:        docsPath,
		Output:          "./out",
		Source:          "../",
		Version:         "2.1",
		ExcludePatterns: []string{"._*", "*/.git/*", "*/tests/*", "*/unittests/*", "__init__.py"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = stream.WriteTo(&buf)
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "GENERATE_HTML=NO\n")
	assert.Contains(t, text, "GENERATE_RTF=YES\n")
	assert.Contains(t, text, "RTF_HYPERLINKS=YES\n")
	assert.Contains(t, text, "EXCLUDE_PATTERNS=._* */.git/* */tests/* */unittests/* __init__.py\n")
	assert.NotContains(t, text, "LAYOUT_FILE")
}

func TestStreamFor_TerminatesBaseWithNewline(t *testing.T) {
	// Base file without trailing newline must not glue onto the first override.
	docsPath := writeDoxyfile(t, "QUIET = YES")

	stream, err := StreamFor(FormatHTML, BuildInputs{DocsPath: docsPath, Output: "o", Source: "s", Version: "v"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = stream.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "QUIET = YES\nOUTPUT_DIRECTORY=o\n")
}

func TestStreamFor_MissingDoxyfile(t *testing.T) {
	_, err := StreamFor(FormatHTML, BuildInputs{DocsPath: t.TempDir(), Output: "o", Source: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doxygen configuration file doesn't exist")
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"html", "rtf"} {
		f, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), f)
	}

	_, err := ParseFormat("pdf")
	require.Error(t, err)
}

func TestOutputWarnings(t *testing.T) {
	out := Output{Stderr: "foo.py:10: warning: missing docstring\nsome note\nbar.py:2: warning: undocumented\n"}
	assert.Equal(t, 2, out.Warnings())

	assert.Equal(t, 0, Output{}.Warnings())
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.9.8\n", "1.9.8"},
		{"1.9.8 (c2fe5c3)", "1.9.8"},
		{"1.8", "1.8"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, parseVersion(tc.in))
	}
}
