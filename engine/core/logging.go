package core

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel is the severity threshold of the engine logger.
type LogLevel = log.Level

const (
	DebugLevel = log.DebugLevel
	InfoLevel  = log.InfoLevel
	WarnLevel  = log.WarnLevel
	ErrorLevel = log.ErrorLevel
	FatalLevel = log.FatalLevel
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportCaller:    true,
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "Parcel 📦 ",
				})
				l.SetLevel(log.DebugLevel)
				singleton = &logger{l}
			})
	}
	return singleton
}

// ParseLogLevel converts a level name ("debug", "info", ...) into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	return log.ParseLevel(level)
}

// SetLogLevel changes the level of the engine logger. Loggers created with
// NewLogger afterwards inherit it.
func SetLogLevel(level LogLevel) {
	getLogger().SetLevel(level)
}

// SetLogOutput redirects the engine logger. Loggers created with NewLogger
// afterwards inherit it.
func SetLogOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

// Logger is a contextual logger carrying a prefix and a fixed set of
// key/value pairs, used by subsystems that log their own lifecycle.
type Logger struct {
	*log.Logger
}

func NewLogger(prefix string, keyvals ...interface{}) *Logger {
	l := getLogger().WithPrefix(prefix)
	if len(keyvals) > 0 {
		l = l.With(keyvals...)
	}
	return &Logger{l}
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
