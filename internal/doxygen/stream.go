package doxygen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DoxyfileName is the base configuration file expected under the docs path.
const DoxyfileName = "Doxyfile.in"

// LayoutFileName is appended as LAYOUT_FILE for HTML builds.
const LayoutFileName = "DoxygenLayout.xml"

// Override is a single KEY=VALUE line appended after the base configuration.
// Doxygen applies last-value-wins semantics, so append order is significant.
type Override struct {
	Key   string
	Value string
}

// Stream assembles a doxygen configuration: the base Doxyfile followed by
// ordered overrides. It is what gets piped into `doxygen -`.
type Stream struct {
	doxyfilePath string
	overrides    []Override
}

// NewStream creates a stream rooted at the given base Doxyfile.
func NewStream(doxyfilePath string) *Stream {
	return &Stream{doxyfilePath: doxyfilePath}
}

// Set appends a KEY=VALUE override. Returns the stream for chaining.
func (s *Stream) Set(key, value string) *Stream {
	s.overrides = append(s.overrides, Override{Key: key, Value: value})
	return s
}

// Overrides returns the appended overrides in application order.
func (s *Stream) Overrides() []Override {
	return s.overrides
}

// WriteTo writes the base configuration followed by the overrides.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	base, err := os.ReadFile(s.doxyfilePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read doxygen configuration: %w", err)
	}

	var total int64
	n, err := w.Write(base)
	total += int64(n)
	if err != nil {
		return total, err
	}
	if len(base) > 0 && base[len(base)-1] != '\n' {
		m, werr := io.WriteString(w, "\n")
		total += int64(m)
		if werr != nil {
			return total, werr
		}
	}

	for _, o := range s.overrides {
		m, werr := io.WriteString(w, o.Key+"="+o.Value+"\n")
		total += int64(m)
		if werr != nil {
			return total, werr
		}
	}
	return total, nil
}

// BuildInputs carries the per-build values merged into every stream.
type BuildInputs struct {
	DocsPath        string // directory containing Doxyfile.in and images/
	Output          string // OUTPUT_DIRECTORY
	Source          string // INPUT
	Version         string // PROJECT_NUMBER
	ExcludePatterns []string
}

// StreamFor builds the configuration stream for one output format,
// verifying that the base Doxyfile exists before anything is spawned.
func StreamFor(format Format, in BuildInputs) (*Stream, error) {
	docsPath := filepath.Clean(expandUser(in.DocsPath))
	doxyfile := filepath.Join(docsPath, DoxyfileName)
	if _, err := os.Stat(doxyfile); err != nil {
		return nil, fmt.Errorf("doxygen configuration file doesn't exist in %s: %w", docsPath, err)
	}

	s := NewStream(doxyfile).
		Set("OUTPUT_DIRECTORY", in.Output).
		Set("IMAGE_PATH", filepath.Join(docsPath, "images")).
		Set("PROJECT_NUMBER", in.Version).
		Set("INPUT", in.Source)

	switch format {
	case FormatHTML:
		s.Set("GENERATE_HTML", "YES").
			Set("GENERATE_RTF", "NO").
			Set("LAYOUT_FILE", filepath.Join(docsPath, LayoutFileName))
	case FormatRTF:
		s.Set("GENERATE_HTML", "NO").
			Set("GENERATE_RTF", "YES").
			Set("RTF_HYPERLINKS", "YES").
			Set("EXCLUDE_PATTERNS", strings.Join(in.ExcludePatterns, " "))
	default:
		return nil, fmt.Errorf("unknown documentation format: %s", format)
	}

	return s, nil
}

// OutputDir returns where doxygen places the given format's output.
func OutputDir(outputDirectory string, format Format) string {
	return filepath.Join(outputDirectory, string(format))
}

func expandUser(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
