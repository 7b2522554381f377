// Package logger настраивает slog для всех команд.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel переводит строку из конфига в уровень slog. Неизвестное значение - info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New создаёт текстовый логгер с коротким форматом времени.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String("time", a.Value.Time().Format("15:04:05"))
			}
			return a
		},
	})
	return slog.New(handler)
}

// Init пишет в stdout и, если задан logFile, дополнительно в файл.
// Возвращённый логгер становится slog.Default; функция закрывает файл.
func Init(level, logFile string) (*slog.Logger, func() error, error) {
	writers := []io.Writer{os.Stdout}
	closeFn := func() error { return nil }

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		closeFn = f.Close
	}

	log := New(io.MultiWriter(writers...), level)
	slog.SetDefault(log)
	return log, closeFn, nil
}

// Discard возвращает логгер, который ничего не пишет.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
