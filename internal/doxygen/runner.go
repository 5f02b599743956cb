package doxygen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

var (
	// ErrDoxygenNotFound indicates the doxygen binary is not on PATH.
	ErrDoxygenNotFound = errors.New("doxygen binary not found on PATH")
	// ErrDoxygenFailed indicates the doxygen process exited non-zero.
	ErrDoxygenFailed = errors.New("doxygen execution failed")
)

// Output captures what the doxygen process produced.
type Output struct {
	Stdout string
	Stderr string
}

// Warnings counts warning lines doxygen emitted on stderr.
func (o Output) Warnings() int {
	count := 0
	for _, line := range strings.Split(o.Stderr, "\n") {
		if strings.Contains(line, "warning:") {
			count++
		}
	}
	return count
}

// Runner abstracts how the doxygen invocation is performed. This allows
// swapping the external binary (BinaryRunner) with alternative strategies
// (e.g., no-op for tests) without changing build orchestration.
type Runner interface {
	Run(ctx context.Context, stream *Stream) (Output, error)
}

// BinaryRunner invokes the `doxygen` binary present on PATH, feeding the
// configuration stream to it on stdin (`doxygen -`).
type BinaryRunner struct{}

func (b *BinaryRunner) Run(ctx context.Context, stream *Stream) (Output, error) {
	doxygenPath, err := exec.LookPath("doxygen")
	if err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrDoxygenNotFound, err)
	}

	var cfg bytes.Buffer
	if _, err := stream.WriteTo(&cfg); err != nil {
		return Output{}, err
	}

	// #nosec G204 -- doxygenPath is from exec.LookPath, not user-controlled
	cmd := exec.CommandContext(ctx, doxygenPath, "-")
	cmd.Stdin = &cfg
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("BinaryRunner invoking doxygen", "config_bytes", cfg.Len())

	err = cmd.Run()

	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if out.Stderr != "" {
		slog.Debug("doxygen stderr", "output", out.Stderr)
	}

	if err != nil {
		// Doxygen writes errors to either stream; surface both.
		detail := out.Stderr
		if detail == "" {
			detail = out.Stdout
		}
		if detail != "" {
			return out, fmt.Errorf("%w: %w: %s", ErrDoxygenFailed, err, strings.TrimSpace(detail))
		}
		return out, fmt.Errorf("%w: %w", ErrDoxygenFailed, err)
	}

	return out, nil
}

// NoopRunner performs no invocation; useful in tests or dry runs.
type NoopRunner struct{}

func (n *NoopRunner) Run(ctx context.Context, stream *Stream) (Output, error) {
	slog.Debug("NoopRunner skipping doxygen invocation")
	return Output{}, nil
}
