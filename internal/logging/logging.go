// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/bantamhq/gitdesk/internal/config"
)

// Setup applies the [log] section. DEBUG=true forces debug level.
func Setup(cfg config.LogConfig, out io.Writer) {
	if out != nil {
		logger.SetOutput(out)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logger.JSONFormatter{})
	default:
		logger.SetFormatter(&logger.TextFormatter{
			ForceColors:   out == nil || out == os.Stderr,
			FullTimestamp: true,
		})
	}

	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		level = logger.InfoLevel
	}
	if os.Getenv("DEBUG") == "true" {
		level = logger.DebugLevel
	}
	logger.SetLevel(level)
}
