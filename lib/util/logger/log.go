package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Environment variables read at start-up.
const (
	EnvDebug    = "I2SRUN_DEBUG"
	EnvWarnFail = "I2SRUN_WARNFAIL"
)

var (
	log  *Logger
	once sync.Once
)

type Logger struct {
	*logrus.Logger
}

type Entry struct {
	Logger
	entry *logrus.Entry
}

func (l *Logger) Warn(args ...interface{}) {
	warnFatal(args...)
	l.Logger.Warn(args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	l.Logger.Warnf(format, args...)
}

func (l *Logger) Error(args ...interface{}) {
	warnFatal(args...)
	l.Logger.Error(args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	l.Logger.Errorf(format, args...)
}

func (l *Logger) WithField(key string, value interface{}) *Entry {
	entry := l.Logger.WithField(key, value)
	return &Entry{*l, entry}
}

func (l *Logger) WithFields(fields logrus.Fields) *Entry {
	entry := l.Logger.WithFields(fields)
	return &Entry{*l, entry}
}

func (l *Logger) WithError(err error) *Entry {
	entry := l.Logger.WithError(err)
	return &Entry{*l, entry}
}

func (e *Entry) WithField(key string, value interface{}) *Entry {
	return &Entry{e.Logger, e.entry.WithField(key, value)}
}

func (e *Entry) WithFields(fields logrus.Fields) *Entry {
	return &Entry{e.Logger, e.entry.WithFields(fields)}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{e.Logger, e.entry.WithError(err)}
}

func (e *Entry) Debug(args ...interface{}) { e.entry.Debug(args...) }

func (e *Entry) Debugf(format string, args ...interface{}) { e.entry.Debugf(format, args...) }

func (e *Entry) Info(args ...interface{}) { e.entry.Info(args...) }

func (e *Entry) Infof(format string, args ...interface{}) { e.entry.Infof(format, args...) }

func (e *Entry) Warn(args ...interface{}) {
	warnFatal(args...)
	e.entry.Warn(args...)
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	e.entry.Warnf(format, args...)
}

func (e *Entry) Error(args ...interface{}) {
	warnFatal(args...)
	e.entry.Error(args...)
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	e.entry.Errorf(format, args...)
}

func warnFatal(args ...interface{}) {
	if failFast != "" {
		log.Logger.Fatal(args...)
	}
}

func warnFatalf(format string, args ...interface{}) {
	if failFast != "" {
		log.Logger.Fatalf(format, args...)
	}
}

var failFast string

// InitializeLogger sets up the shared logger from the environment. Logging
// is off unless I2SRUN_DEBUG names a level.
func InitializeLogger() {
	once.Do(func() {
		log = &Logger{}
		log.Logger = logrus.New()
		// We do not want to log by default
		log.SetOutput(io.Discard)
		log.SetLevel(logrus.PanicLevel)
		if logLevel := os.Getenv(EnvDebug); logLevel != "" {
			failFast = os.Getenv(EnvWarnFail)
			if failFast != "" {
				logLevel = "debug"
			}
			enable(logLevel)
			log.WithField("level", log.GetLevel()).Debug("Logging enabled.")
		}
	})
}

func enable(level string) {
	log.SetOutput(os.Stderr)
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.DebugLevel)
	}
}

// SetVerbose turns on info-level logging, or debug-level when debug is
// set, unless I2SRUN_DEBUG already chose a level.
func SetVerbose(debug bool) {
	l := GetLogger()
	if os.Getenv(EnvDebug) != "" {
		return
	}
	if debug {
		enable("debug")
	} else {
		enable("info")
	}
	l.WithField("level", l.GetLevel()).Debug("Logging enabled.")
}

// GetLogger returns the initialized Logger
func GetLogger() *Logger {
	if log == nil {
		InitializeLogger()
	}
	return log
}

func init() {
	InitializeLogger()
}
