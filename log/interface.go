package log

import "io"

// Level constants match logrus.Level's ordering so SetLevel/GetLevel can
// convert between the string and int forms without a translation table.
const (
	LevelPanic = iota
	LevelFatal
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

type level string

const (
	DebugLevel level = "debug"
	InfoLevel  level = "info"
	WarnLevel  level = "warn"
	ErrorLevel level = "error"
	FatalLevel level = "fatal"
	PanicLevel level = "panic"
)

// Logger is the structured-logging surface that cluster, task and nio's
// acceptor and client log through rather than calling logrus directly.
// The channel package does not log, and nio's read loop in handler.go
// writes through the standard log package.
type Logger interface {
	Trace(format string, v ...interface{})
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Fatal(format string, v ...interface{})
	Panic(format string, v ...interface{})

	SetLevel(level string)
	GetLevel() int
	SetOutput(out io.Writer)
	GetOutput() io.Writer
}
