package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	dberrors "git.home.luguber.info/inful/doxbuilder/internal/errors"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Generate struct {
		HTML        bool   `help:"Generate HTML documentation"`
		RTF         bool   `help:"Generate RTF documentation"`
		Version     string `help:"Project version stamped into the documentation (default: most recent git tag of the source tree)"`
		ConfigPath  string `help:"Directory containing Doxyfile.in" placeholder:"DIR"`
		Output      string `short:"o" help:"Output directory for generated documentation" placeholder:"DIR"`
		Source      string `help:"Path to the source files doxygen should read" placeholder:"DIR"`
		StrictLinks bool   `help:"Fail the build when HTML output contains broken local links"`
	} `cmd:"" help:"Generate documentation with doxygen"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	History struct {
		Limit int `short:"n" help:"Number of builds to show" default:"20"`
	} `cmd:"" help:"Show recent builds from the history store"`

	Daemon struct{} `cmd:"" help:"Watch the source tree and regenerate documentation continuously"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("doxbuilder"),
		kong.Description("Doxygen documentation builder"))

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	var err error
	switch ctx.Command() {
	case "generate":
		err = runGenerate()
	case "init":
		err = runInit()
	case "history":
		err = runHistory()
	case "daemon":
		err = runDaemon()
	case "version":
		runVersion()
	}

	if err != nil {
		adapter := dberrors.NewCLIErrorAdapter(CLI.Verbose, logger)
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}
