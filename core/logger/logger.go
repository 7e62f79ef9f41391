package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/gatekeeper/core/buildinfo"
	coreconfig "github.com/m3rciful/gatekeeper/core/config"
)

var (
	mu       sync.Mutex
	levelVar slog.LevelVar
	logFile  *os.File

	// L is the base logger; prefer the component helpers below.
	L = slog.Default()

	// DB logs database and journal events.
	DB *slog.Logger
	// MIG logs schema migration events.
	MIG *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// TWire logs route and command wiring.
	TWire *slog.Logger
)

func init() {
	wireComponents()
}

// InitLogger installs the line handler on stdout and, when configured, on a
// log file opened in append mode. Calling it again replaces the previous setup.
func InitLogger(cfg *coreconfig.Config) error {
	mu.Lock()
	defer mu.Unlock()

	var (
		out   io.Writer = os.Stdout
		level           = "info"
		path  string
	)
	if cfg != nil {
		level = cfg.Logging.Level
		path = strings.TrimSpace(cfg.Logging.File)
	}
	levelVar.Set(parseLevel(level))

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("logger: open %s: %w", path, err)
		}
		logFile = f
		out = io.MultiWriter(os.Stdout, f)
	}

	L = slog.New(newLineHandler(out, &levelVar))
	slog.SetDefault(L)
	wireComponents()

	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("log_level", levelVar.Level().String()),
	)
	return nil
}

// Shutdown closes the log file, if one was opened.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

func wireComponents() {
	DB = Component("db")
	MIG = Component("db.migrate")
	TG = Component("tg")
	TWire = Component("tg.wire")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Component returns the base logger tagged with a component name.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	return L.With("component", name)
}

// Event writes one structured event line for component at level.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	Component(component).LogAttrs(ctx, level, "", attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}
