package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/TheGojiOG/mcadmin/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu        sync.RWMutex
	logger    *slog.Logger
	logCloser io.Closer
	discard   = slog.New(slog.NewJSONHandler(io.Discard, nil))
)

// Init configures the process-wide logger and routes the standard library
// log package through it. Calling Init again replaces the previous logger.
func Init(cfg config.LoggingConfig) (*slog.Logger, error) {
	return InitTo(cfg, os.Stdout)
}

// InitTo is Init with console output sent to w instead of stdout.
func InitTo(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	output, closer, err := buildOutput(cfg, w)
	if err != nil {
		return nil, err
	}

	options := &slog.HandlerOptions{Level: parseLevel(cfg.Level), AddSource: true}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}

	mu.Lock()
	defer mu.Unlock()

	if logCloser != nil {
		_ = logCloser.Close()
	}
	logCloser = closer
	logger = slog.New(handler)

	slog.SetDefault(logger)
	log.SetFlags(0)
	log.SetOutput(slogWriter{logger: logger})

	return logger, nil
}

// L returns the configured logger, or a discarding logger before Init.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return discard
	}
	return logger
}

// Component returns a child logger tagged with the component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Close flushes and closes the rotating log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

// slogWriter lets log.Printf("[Prefix] ...") calls land in the structured stream.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}
	w.logger.Info(msg)
	return len(p), nil
}

func buildOutput(cfg config.LoggingConfig, console io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(cfg.File) == "" {
		return console, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, err
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}

	return io.MultiWriter(console, fileLogger), fileLogger, nil
}

func parseLevel(level string) slog.Level {
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
