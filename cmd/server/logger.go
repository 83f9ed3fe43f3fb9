package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// parseLogLevel переводит строковый уровень в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("неизвестный уровень логирования %q: %w", level, err)
	}
	return l, nil
}

// newLogger создает логгер в формате из конфигурации.
func newLogger(w io.Writer, cfg *config) *slog.Logger {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == logFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "lookbook")
}
