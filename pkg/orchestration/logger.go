package orchestration

import (
	"fmt"
	"sort"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// defaultLogger writes structured entries through grove-core logging and
// mirrors Info and Error to the pretty console logger.
type defaultLogger struct {
	prettyLog     *grovelogging.PrettyLogger
	structuredLog *logrus.Entry
}

func NewDefaultLogger() Logger {
	return &defaultLogger{
		prettyLog:     grovelogging.NewPrettyLogger(),
		structuredLog: grovelogging.NewLogger("grove-macrocycle"),
	}
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func (l *defaultLogger) Info(msg string, keysAndValues ...interface{}) {
	if len(keysAndValues) == 0 {
		l.structuredLog.Info(msg)
		l.prettyLog.InfoPretty(msg)
		return
	}
	fields := toFields(keysAndValues)
	l.structuredLog.WithFields(fields).Info(msg)
	l.prettyLog.InfoPretty(fmt.Sprintf("%s [%s]", msg, formatFields(fields)))
}

func (l *defaultLogger) Error(msg string, keysAndValues ...interface{}) {
	if len(keysAndValues) == 0 {
		l.structuredLog.Error(msg)
		l.prettyLog.ErrorPretty(msg, nil)
		return
	}
	fields := toFields(keysAndValues)
	l.structuredLog.WithFields(fields).Error(msg)
	l.prettyLog.ErrorPretty(fmt.Sprintf("%s [%s]", msg, formatFields(fields)), nil)
}

func (l *defaultLogger) Debug(msg string, keysAndValues ...interface{}) {
	if len(keysAndValues) == 0 {
		l.structuredLog.Debug(msg)
		return
	}
	l.structuredLog.WithFields(toFields(keysAndValues)).Debug(msg)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Debug(string, ...interface{}) {}
