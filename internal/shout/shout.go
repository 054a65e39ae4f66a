// Package shout implements the functionality of the program, the CLI in
// package cmd is simply the entrypoint to exported functions and methods in
// this package.
package shout

import (
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"shout/internal/config"
)

// Shout represents the shout program.
type Shout struct {
	stdout io.Writer   // Normal program output is written here
	stderr io.Writer   // Logs and errors are written here
	logger *log.Logger // The logger for the application
}

// New returns a new [Shout].
func New(debug bool, stdout, stderr io.Writer) Shout {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(stderr, log.Options{
		TimeFormat:      time.RFC3339Nano,
		Level:           level,
		Prefix:          "shout",
		ReportTimestamp: true,
	})

	logger.SetStyles(defaultLogStyles())

	return Shout{
		stdout: stdout,
		stderr: stderr,
		logger: logger,
	}
}

// loadConfig loads the configuration at path, falling back to the defaults
// when no file exists. An empty path means the default filename in the
// current directory.
func (s Shout) loadConfig(path string, logger *log.Logger) (*config.Config, error) {
	if path == "" {
		path = config.DefaultFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			logger.Debug("No config file, using defaults", "path", path)

			return config.Default(), nil
		}

		return nil, err
	}

	logger.Debug("Loaded config", "path", path, "debug", cfg.Debug)

	return cfg, nil
}
