package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits callback data into a routing key and its payload.
// Telebot-generated buttons encode \f<unique>|<payload>; plain buttons use
// <key>:<payload>.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := cb.Data
	sep := ":"
	if strings.HasPrefix(raw, "\f") {
		raw = strings.TrimPrefix(raw, "\f")
		sep = "|"
	}
	parts := strings.SplitN(raw, sep, 2)
	key := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

// CallbackKey returns the routing key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// RawData returns the callback data exactly as the button carried it, or "" for
// non-callback updates.
func RawData(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		if cb.Data == "" {
			return cb.Unique
		}
		return cb.Unique + "|" + cb.Data
	}
	return strings.TrimPrefix(cb.Data, "\f")
}
