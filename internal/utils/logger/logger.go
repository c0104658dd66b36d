package logger

import (
	"io"
	"os"
	"strings"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"clinicsync/internal/app/client/config"
	"clinicsync/internal/utils/logger/handlers/slogpretty"
)

// Options параметры журнала компаньона
type Options struct {
	Env   string
	Level string // пусто: уровень по окружению
	File  string // пусто: только stdout
}

// New логгер по окружению: local цветной, dev JSON с debug, prod JSON с info
func New(env string) *slog.Logger {
	return newLogger(os.Stdout, env, levelFor(env, ""))
}

// NewWithFile дублирует журнал в файл с ротацией. Закрыть файл нужно через возвращенный io.Closer.
func NewWithFile(opts Options) (*slog.Logger, io.Closer) {
	level := levelFor(opts.Env, opts.Level)
	if opts.File == "" {
		return newLogger(os.Stdout, opts.Env, level), nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // МБ
		MaxBackups: 5,
		MaxAge:     30, // дней
		Compress:   true,
	}
	// в файл пишется JSON независимо от окружения
	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: level})
	console := newLogger(os.Stdout, opts.Env, level).Handler()

	return slog.New(fanout{console, fileHandler}), rotator
}

func newLogger(out io.Writer, env string, level slog.Level) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(prettyHandler(out, level))
	default:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	}
}

func setupPrettySlog() *slog.Logger {
	return slog.New(prettyHandler(os.Stdout, slog.LevelDebug))
}

func prettyHandler(out io.Writer, level slog.Level) slog.Handler {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: level},
	}
	return opts.NewPrettyHandler(out)
}

func levelFor(env, level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if env == config.EnvProd {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
