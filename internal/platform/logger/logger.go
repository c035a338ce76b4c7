// Package logger はアプリケーション全体で使うslogロガーを構築します。
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New はlevelとformatからロガーを生成し、slogのデフォルトに設定します。
// formatは "json" または "text"。
func New(level, format string) (*slog.Logger, error) {
	l, err := newLogger(os.Stdout, level, format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel は "debug", "info", "warn", "error" を slog.Level に変換します。
// 空文字列は info として扱います。
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return lvl, nil
}
