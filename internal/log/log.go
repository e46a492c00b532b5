package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
	logFile    *os.File
	mu         sync.Mutex
)

// initLogger initializes the global logger to write to stderr with timestamps.
func initLogger() {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000000Z07:00",
		})
		logger.SetLevel(logrus.InfoLevel)
	})
}

// ParseLevel maps a config/flag string onto a Level. Unknown values yield INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	initLogger()
	switch l {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case LevelWarn:
		logger.SetLevel(logrus.WarnLevel)
	case LevelError:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput appends log lines to path. An empty path restores stderr.
func SetOutput(path string) error {
	initLogger()
	mu.Lock()
	defer mu.Unlock()

	if path == "" {
		logger.SetOutput(os.Stderr)
		return closeLogFile()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("log: open %s: %w", path, err)
	}
	logger.SetOutput(f)
	_ = closeLogFile()
	logFile = f
	return nil
}

// setWriter is used by tests to capture output.
func setWriter(w io.Writer) {
	initLogger()
	logger.SetOutput(w)
}

func closeLogFile() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.WithFields(fields(kv...)).Debug(msg)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.WithFields(fields(kv...)).Info(msg)
}

func Warn(msg string, kv ...any) {
	initLogger()
	logger.WithFields(fields(kv...)).Warn(msg)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	f := fields(kv...)
	if err != nil {
		f[logrus.ErrorKey] = err
	}
	logger.WithFields(f).Error(msg)
}

// fields converts key, value, key, value, ... into logrus fields.
// Non-string keys are skipped; an odd trailing value is ignored.
func fields(kv ...any) logrus.Fields {
	out := make(logrus.Fields, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[key] = kv[i+1]
	}
	return out
}
