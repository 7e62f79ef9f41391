package logger

import (
	"context"
	"strconv"
)

type metaKey struct{}

// Meta identifies the Telegram update a log line belongs to.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
}

// NewMeta builds update metadata with a compact base36 request id.
func NewMeta(updateID int, chatID, userID int64) Meta {
	return Meta{
		RID:      RID(updateID, chatID, userID),
		UpdateID: updateID,
		UserID:   userID,
		ChatID:   chatID,
	}
}

// RID joins update, chat and user ids in base36, e.g. "a.-1x2y.3k".
func RID(updateID int, chatID, userID int64) string {
	return strconv.FormatInt(int64(updateID), 36) + "." +
		strconv.FormatInt(chatID, 36) + "." +
		strconv.FormatInt(userID, 36)
}

// WithMeta returns ctx carrying m.
func WithMeta(ctx context.Context, m Meta) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, metaKey{}, m)
}

// MetaFrom returns the metadata stored in ctx, or the zero Meta.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey{}).(Meta)
	return m
}

// WithHandler returns ctx with the handler name added to its metadata.
func WithHandler(ctx context.Context, handler string) context.Context {
	m := MetaFrom(ctx)
	m.Handler = handler
	return WithMeta(ctx, m)
}

// fill copies non-zero metadata into fields without overriding explicit attrs.
func (m Meta) fill(fields map[string]any) {
	set := func(k string, v any, zero bool) {
		if zero {
			return
		}
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	set("rid", m.RID, m.RID == "")
	set("update_id", int64(m.UpdateID), m.UpdateID == 0)
	set("user_id", m.UserID, m.UserID == 0)
	set("chat_id", m.ChatID, m.ChatID == 0)
	set("handler", m.Handler, m.Handler == "")
}
