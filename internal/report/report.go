// Package report renders a human-readable generation report next to the
// produced documentation.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// FileName is the report written into the output directory.
const FileName = "report.html"

// FormatResult summarizes one format's generation run for the report.
type FormatResult struct {
	Format   string
	Duration time.Duration
	Warnings int
	Err      error
}

// Data carries everything the report renders.
type Data struct {
	Project    string
	Version    string
	BuildID    string
	StartedAt  time.Time
	Duration   time.Duration
	Formats    []FormatResult
	DoxygenVer string
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{.Body}}
</body>
</html>
`))

// Markdown renders the report source as GitHub-flavored markdown.
func Markdown(d Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s documentation build\n\n", d.Project)
	fmt.Fprintf(&b, "- **Build**: `%s`\n", d.BuildID)
	fmt.Fprintf(&b, "- **Version**: %s\n", d.Version)
	fmt.Fprintf(&b, "- **Started**: %s\n", d.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration**: %s\n", d.Duration.Round(time.Millisecond))
	if d.DoxygenVer != "" {
		fmt.Fprintf(&b, "- **Doxygen**: %s\n", d.DoxygenVer)
	}
	b.WriteString("\n| Format | Duration | Warnings | Result |\n|---|---|---|---|\n")
	for _, f := range d.Formats {
		result := "ok"
		if f.Err != nil {
			result = "failed: " + f.Err.Error()
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n",
			f.Format, f.Duration.Round(time.Millisecond), f.Warnings, result)
	}
	return b.String()
}

// Write renders the report to <outputDir>/report.html.
func Write(outputDir string, d Data) error {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(d)), &body); err != nil {
		return fmt.Errorf("render report markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: d.Project + " documentation build",
		Body:  template.HTML(body.String()), // #nosec G203 -- body is rendered from our own markdown
	})
	if err != nil {
		return fmt.Errorf("render report page: %w", err)
	}

	path := filepath.Join(outputDir, FileName)
	if err := os.WriteFile(path, page.Bytes(), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
