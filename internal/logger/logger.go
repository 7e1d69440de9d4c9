package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type contextKey struct{}

var traceIDKey contextKey

// std is the process-wide logger. JSON output is the default; Setup switches
// to text formatting in development mode.
var std = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	return l
}()

func Setup(level, mode string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		std.SetLevel(lvl)
	}
	if mode == "development" {
		std.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	}
}

func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return std.WithFields(fields)
}

// WithResource tags log entries with the resource they concern
func WithResource(resourceID string) *logrus.Entry {
	return std.WithField("resource_id", resourceID)
}

// WithAlert tags log entries with an alert id
func WithAlert(alertID string) *logrus.Entry {
	return std.WithField("alert_id", alertID)
}

func Debug(msg string)                          { std.Debug(msg) }
func Info(msg string)                           { std.Info(msg) }
func Warn(msg string)                           { std.Warn(msg) }
func Error(msg string)                          { std.Error(msg) }
func Fatal(msg string)                          { std.Fatal(msg) }
func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { std.Fatalf(format, args...) }
