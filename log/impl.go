package log

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LoggerImpl is a logrus.Logger wrapped to satisfy Logger and to decorate
// every line with the caller's file:line and function name, the way a
// raw logrus.Logger would need a hook configured to do.
type LoggerImpl struct {
	mu     sync.Mutex
	logger *logrus.Logger
}

var DefaultLogger *LoggerImpl
var defaultLoggerInit sync.Once

func New() *LoggerImpl {
	l := &LoggerImpl{
		logger: logrus.New(),
	}
	l.SetLevel(string(DebugLevel))
	if DefaultLogger == nil {
		defaultLoggerInit.Do(func() {
			DefaultLogger = l
		})
	}
	return l
}

// decorate walks the stack skip frames up from the caller of Trace/Debug/
// etc. and attaches the originating position and function name as fields,
// trimming the path to its last three components so logs stay readable
// from any GOPATH/module layout.
func (l *LoggerImpl) decorate(skip int) *logrus.Entry {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return logrus.NewEntry(l.logger)
	}
	fName := runtime.FuncForPC(pc).Name()
	path := strings.Split(file, string(os.PathSeparator))
	if len(path) > 3 {
		path = path[len(path)-3:]
	}
	position := fmt.Sprintf("%s:%d", strings.Join(path, string(os.PathSeparator)), line)
	return l.logger.WithField("position", position).WithField("func", fName)
}

func (l *LoggerImpl) Trace(format string, v ...interface{}) {
	l.decorate(2).Tracef(format, v...)
}

func (l *LoggerImpl) Debug(format string, v ...interface{}) {
	l.decorate(2).Debugf(format, v...)
}

func (l *LoggerImpl) Info(format string, v ...interface{}) {
	l.decorate(2).Infof(format, v...)
}

func (l *LoggerImpl) Warn(format string, v ...interface{}) {
	l.decorate(2).Warnf(format, v...)
}

func (l *LoggerImpl) Error(format string, v ...interface{}) {
	l.decorate(2).Errorf(format, v...)
}

func (l *LoggerImpl) Fatal(format string, v ...interface{}) {
	l.decorate(2).Fatalf(format, v...)
}

func (l *LoggerImpl) Panic(format string, v ...interface{}) {
	l.decorate(2).Panicf(format, v...)
}

func (l *LoggerImpl) setLevel(level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Level = logrus.Level(level)
}

func (l *LoggerImpl) SetLevel(lv string) {
	switch strings.ToLower(lv) {
	case string(DebugLevel):
		l.setLevel(LevelDebug)
	case string(InfoLevel):
		l.setLevel(LevelInfo)
	case string(WarnLevel):
		l.setLevel(LevelWarn)
	case string(ErrorLevel):
		l.setLevel(LevelError)
	case string(FatalLevel):
		l.setLevel(LevelFatal)
	case string(PanicLevel):
		l.setLevel(LevelPanic)
	default:
		l.setLevel(LevelInfo)
	}
}

func (l *LoggerImpl) GetLevel() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.logger.Level)
}

func (l *LoggerImpl) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Out = out
}

func (l *LoggerImpl) SetReportCaller(b bool) {
	l.logger.SetReportCaller(b)
}

func (l *LoggerImpl) GetOutput() io.Writer {
	if l.logger != nil && l.logger.Out != nil {
		return l.logger.Out
	}
	return nil
}

func (l *LoggerImpl) SetFormatter(formatter logrus.Formatter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Formatter = formatter
}
