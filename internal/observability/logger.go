package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation задаёт параметры ротации файла логов
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Logger struct {
	internal *slog.Logger
	file     io.Closer
}

// NewLogger пишет в stderr и, если задан logPath, в файл с ротацией
func NewLogger(logPath, logLevel string, rotation Rotation) *Logger {
	var out io.Writer = os.Stderr
	var file io.Closer

	if logPath != "" {
		rotating := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    rotation.MaxSizeMB,
			MaxBackups: rotation.MaxBackups,
			MaxAge:     rotation.MaxAgeDays,
			Compress:   rotation.Compress,
		}
		out = io.MultiWriter(os.Stderr, rotating)
		file = rotating
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(logLevel)})

	return &Logger{
		internal: slog.New(handler),
		file:     file,
	}
}

// NewNopLogger глушит весь вывод (тесты)
func NewNopLogger() *Logger {
	return &Logger{internal: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.internal.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.internal.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.internal.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.internal.Error(msg, fields...)
}

// With возвращает логгер с постоянными полями (например run_id)
func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{
		internal: l.internal.With(fields...),
		file:     l.file,
	}
}

// Close закрывает файл логов, если он был открыт
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
