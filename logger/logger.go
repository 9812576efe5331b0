// Package logger - Structured logging shared by the pose commands and libraries.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RequestIDKey is the field carrying the id of the request a log line belongs to.
const RequestIDKey = "request_id"

// Fields is an alias so callers do not need to import logrus for simple calls.
type Fields = logrus.Fields

// Options configures a logger.
type Options struct {
	// Level is a logrus level name. Empty means info.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	// File, when set, also writes to a rotated log file.
	File string `json:"file" yaml:"file"`
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `json:"max_backups" yaml:"max_backups" validate:"gte=0"`
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
	// NoColors disables terminal colors.
	NoColors bool `json:"no_colors" yaml:"no_colors"`
	// ReportCaller adds the calling function to every entry.
	ReportCaller bool `json:"report_caller" yaml:"report_caller"`
}

// New builds a logger writing to stderr and, if configured, a lumberjack file.
//
// Arguments:
//   - opts: The logger options.
//
// Returns:
//   - *logrus.Logger: The logger.
//   - error: An error if the level is unknown.
func New(opts Options) (*logrus.Logger, error) {
	return NewWithWriter(os.Stderr, opts)
}

// NewWithWriter is New with the console output replaced by w.
func NewWithWriter(w io.Writer, opts Options) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "2006-01-02 15:04:05.000",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})
	log.SetReportCaller(opts.ReportCaller)

	writers := []io.Writer{w}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxAge:     orDefault(opts.MaxAgeDays, 7),
			MaxBackups: orDefault(opts.MaxBackups, 3),
		})
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
