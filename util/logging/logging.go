// Package logging configures the zerolog logger used across outaged:
// console output plus an optional rolling log file.
package logging

import (
	"io"
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the configuration of the zerolog logger and writers.
type Config struct {
	// WithConsoleLog enables console logging.
	WithConsoleLog bool

	// WithColor enables console logging coloring.
	WithColor bool

	// Level is the minimum level logged ("debug", "info", "warn", "error").
	Level string

	// WithLogFile makes the framework also log to a rolling file. The
	// fields below are only read when this is true.
	WithLogFile bool

	// Directory is where the logfile is created.
	Directory string

	// Filename is the name of the logfile inside Directory.
	Filename string

	// MaxSizeMB is the max size in MB of the logfile before it's rolled.
	MaxSizeMB int

	// MaxBackups is the max number of rolled files to keep.
	MaxBackups int

	// MaxAgeDays is the max age in days to keep a rolled logfile.
	MaxAgeDays int
}

const TimeFormat = "15:04:05.000"

var consoleWriter = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: TimeFormat}

// Configure sets up the global zerolog logger per cfg and returns it.
func Configure(cfg Config) (zerolog.Logger, error) {
	var writers []io.Writer

	if cfg.WithConsoleLog {
		consoleWriter.NoColor = !cfg.WithColor
		writers = append(writers, consoleWriter)
	}
	if cfg.WithLogFile {
		w, err := newRollingFile(cfg)
		if err != nil {
			return zerolog.Logger{}, err
		}
		writers = append(writers, w)
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Output(io.MultiWriter(writers...)).Level(level)
	log.Logger = logger
	return logger, nil
}

func newRollingFile(cfg Config) (io.Writer, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}
	return &lumberjack.Logger{
		Filename:   path.Join(cfg.Directory, cfg.Filename),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}, nil
}
