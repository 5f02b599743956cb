package doxygen

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
)

var versionPattern = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// DetectVersion attempts to detect the version of the doxygen binary on PATH.
// Returns the version string (e.g., "1.9.8") or empty string if detection
// fails. This is best-effort and will not error if doxygen is unavailable.
func DetectVersion(ctx context.Context) string {
	doxygenPath, err := exec.LookPath("doxygen")
	if err != nil {
		return ""
	}

	// #nosec G204 -- doxygenPath is from exec.LookPath, not user-controlled
	cmd := exec.CommandContext(ctx, doxygenPath, "--version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}

	return parseVersion(string(output))
}

// parseVersion extracts the numeric version from `doxygen --version` output
// (e.g., "1.9.8 (c2fe5c3...)" or just "1.9.8").
func parseVersion(output string) string {
	if m := versionPattern.FindStringSubmatch(output); len(m) >= 2 {
		return m[1]
	}
	return strings.TrimSpace(output)
}
