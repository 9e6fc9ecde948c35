package main

import (
	"os"

	"github.com/flyberryhq/auditpipe/internal/block"
	"github.com/flyberryhq/auditpipe/internal/logging"
)

// AppContext carries the shared services every subcommand needs.
type AppContext struct {
	Logger   logging.Logger
	Registry *block.Registry
}

// projectRoot resolves the effective project root: the --project-root flag
// when set, the working directory otherwise.
func projectRoot(flags *rootFlags) (string, error) {
	if flags.projectRoot != "" {
		return flags.projectRoot, nil
	}
	return os.Getwd()
}

// loggerFor returns the app logger, swapped for a debug-level one when
// --verbose is set.
func loggerFor(app *AppContext, flags *rootFlags) logging.Logger {
	if !flags.verbose {
		return app.Logger
	}
	verbose, err := logging.New(logging.Options{Level: "debug", Component: "cli"})
	if err != nil {
		return app.Logger
	}
	return verbose
}
