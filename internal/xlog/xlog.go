// Package xlog configures the structured logger used across the indexing
// pipeline.
package xlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Config controls logger construction.
type Config struct {
	// Level is a logrus level name: "debug", "info", "warn", "error".
	Level string
	// JSON selects JSON-formatted output; text output otherwise.
	JSON bool
}

// New builds a logrus.Logger from Config, defaulting to info level text
// output on stderr when Config is the zero value.
func New(cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(parsed)

	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger, nil
}
