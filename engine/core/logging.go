package core

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spaghettifunk/sinapsi/engine/containers"
)

// LogLevel is the verbosity threshold carried by the application config.
type LogLevel = log.Level

const (
	DebugLevel LogLevel = log.DebugLevel
	InfoLevel  LogLevel = log.InfoLevel
	WarnLevel  LogLevel = log.WarnLevel
	ErrorLevel LogLevel = log.ErrorLevel
	FatalLevel LogLevel = log.FatalLevel
)

type logger struct {
	*log.Logger
}

// The logger lives in static storage so that the first caller constructs it
// and everyone else reads the same instance, whatever goroutine they are on.
var logStorage = containers.NewStaticStorage(func() logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "Sinapsi 🧠 ",
	})
	l.SetLevel(log.DebugLevel)
	return logger{l}
})

func getLogger() *logger {
	return logStorage.Get()
}

// LogSetLevel changes the minimum level the engine logger emits.
func LogSetLevel(level LogLevel) {
	getLogger().SetLevel(level)
}

// LogSetLevelByName parses a level name such as "info" or "warn" and applies it.
func LogSetLevelByName(name string) error {
	level, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	LogSetLevel(level)
	return nil
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
