package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	SUCCESS
)

// Logger is a levelled logger writing human readable lines to the console
// and, optionally, JSON lines to a second sink.
type Logger struct {
	mu      sync.Mutex
	zl      zerolog.Logger
	level   LogLevel
	console io.Writer
}

var (
	defaultLogger *Logger
	once          sync.Once
)

func NewLogger(out io.Writer, level LogLevel) *Logger {
	_, isFile := out.(*os.File)
	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.DateTime,
		NoColor:    !isFile,
	}
	return &Logger{
		zl:      newZerolog(console),
		level:   level,
		console: console,
	}
}

func newZerolog(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.TraceLevel).With().Timestamp().Logger()
}

func InitDefaultLogger(level LogLevel) {
	once.Do(func() {
		defaultLogger = NewLogger(os.Stdout, level)
	})
}

func GetDefaultLogger() *Logger {
	if defaultLogger == nil {
		InitDefaultLogger(INFO)
	}
	return defaultLogger
}

// SetDefaultLogger replaces the package level logger.
func SetDefaultLogger(l *Logger) {
	once.Do(func() {})
	defaultLogger = l
}

// ParseLevel maps a config string onto a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARNING, nil
	case "error":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// RotatingFile returns a size-rotated log file sink.
func RotatingFile(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}

// Tee mirrors every entry as JSON into w in addition to the console.
func (l *Logger) Tee(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = newZerolog(zerolog.MultiLevelWriter(l.console, w))
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) logInternal(level LogLevel, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := strings.TrimRight(fmt.Sprintf(format, v...), "\n")
	switch level {
	case DEBUG:
		l.zl.Debug().Msg(msg)
	case INFO:
		l.zl.Info().Msg(msg)
	case WARNING:
		l.zl.Warn().Msg(msg)
	case ERROR:
		l.zl.Error().Msg(msg)
	case SUCCESS:
		l.zl.Info().Bool("ok", true).Msg(msg)
	}
}

func (l *Logger) Debug(format string, v ...any) {
	l.logInternal(DEBUG, format, v...)
}

func (l *Logger) Info(format string, v ...any) {
	l.logInternal(INFO, format, v...)
}

func (l *Logger) Warn(format string, v ...any) {
	l.logInternal(WARNING, format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	l.logInternal(ERROR, format, v...)
}

func (l *Logger) Success(format string, v ...any) {
	l.logInternal(SUCCESS, format, v...)
}

func Debug(format string, v ...any) {
	GetDefaultLogger().Debug(format, v...)
}

func Info(format string, v ...any) {
	GetDefaultLogger().Info(format, v...)
}

func Warn(format string, v ...any) {
	GetDefaultLogger().Warn(format, v...)
}

func Error(format string, v ...any) {
	GetDefaultLogger().Error(format, v...)
}

func Success(format string, v ...any) {
	GetDefaultLogger().Success(format, v...)
}
