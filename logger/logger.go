// Package logger provides the ambient operational logger shared by every
// component of the trade engine. It wraps logrus and is deliberately kept
// separate from the audit package: operational noise never belongs in the
// audit stream, and audit events never belong in the operational log.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the global log level, e.g. "debug", "warn".
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		base.Warnf("logger: unknown level %q, keeping %s", level, base.GetLevel())
		return
	}
	base.SetLevel(lvl)
}

// Component returns a logger scoped to a named component, e.g. "pipeline".
func Component(name string) *logrus.Entry {
	return base.WithField("component", name)
}

func Infof(format string, args ...interface{})  { base.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { base.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { base.Errorf(format, args...) }
func Info(args ...interface{})                  { base.Info(args...) }
func Warn(args ...interface{})                  { base.Warn(args...) }
func Error(args ...interface{})                 { base.Error(args...) }
