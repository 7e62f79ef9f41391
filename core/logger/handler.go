package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// keyOrder fixes the position of well-known keys; anything else follows
// in alphabetical order.
var keyOrder = []string{
	"ts", "level", "component", "event", "status", "outcome",
	"rid", "update_id", "user_id", "chat_id", "handler",
	"step", "next_step", "reason", "action", "target_user_id", "submission_id",
	"forwarded", "pending", "sessions", "cb_key", "messages", "kb",
	"duration_ms", "err", "err_code",
}

var keyRank = func() map[string]int {
	m := make(map[string]int, len(keyOrder))
	for i, k := range keyOrder {
		m[k] = i
	}
	return m
}()

// outcomeValues lists the accepted outcome values; any other outcome is dropped.
var outcomeValues = map[string]bool{"ok": true, "fail": true, "cancelled": true, "denied": true}

// lineHandler renders each record as a single key=value line.
type lineHandler struct {
	out    *lockedWriter
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) writeLine(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(b)
	return err
}

func newLineHandler(w io.Writer, level slog.Leveler) *lineHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &lineHandler{out: &lockedWriter{w: w}, level: level}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *lineHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := map[string]any{
		"ts":    r.Time.UTC().Format(tsLayout),
		"level": r.Level.String(),
	}
	for _, a := range h.attrs {
		addAttr(fields, h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, h.prefix, a)
		return true
	})
	MetaFrom(ctx).fill(fields)

	if s, _ := fields["event"].(string); s == "" {
		fields["event"] = r.Message
		if r.Message == "" {
			fields["event"] = "unknown"
		}
	}
	if s, _ := fields["component"].(string); s == "" {
		fields["component"] = "app"
	}
	if s, ok := fields["status"].(string); ok {
		fields["status"] = strings.ToLower(s)
	}
	if s, ok := fields["outcome"].(string); ok {
		if s = strings.ToLower(s); outcomeValues[s] {
			fields["outcome"] = s
		} else {
			delete(fields, "outcome")
		}
	}

	return h.out.writeLine(encodeLine(fields))
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}

// addAttr flattens groups and normalizes values. Durations become
// integer milliseconds under a *_ms key; empty values are skipped.
func addAttr(fields map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			addAttr(fields, key, child)
		}
		return
	}
	if key == "" {
		return
	}

	switch v := a.Value.Any().(type) {
	case string:
		if v = strings.TrimSpace(v); v != "" {
			fields[key] = v
		}
	case time.Duration:
		fields[msKey(key)] = RoundMS(v).Milliseconds()
	case time.Time:
		fields[key] = v.UTC().Format(time.RFC3339Nano)
	case error:
		fields[key] = v.Error()
	case nil:
	case bool, int64, uint64, float64:
		fields[key] = v
	default:
		if s := fmt.Sprint(v); s != "" {
			fields[key] = s
		}
	}
}

func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func encodeLine(fields map[string]any) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := keyRank[keys[i]]
		rj, jok := keyRank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return keys[i] < keys[j]
	})

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(fields[k]))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func formatValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
