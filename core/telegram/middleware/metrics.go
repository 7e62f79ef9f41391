package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// replyCounters tracks what a handler sent back. Queued replies finish on the
// sender goroutine, so the fields are atomic.
type replyCounters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// countingContext counts successful sends and edits made through c.
type countingContext struct {
	tele.Context
	n *replyCounters
}

func (c countingContext) record(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	c.n.messages.Add(1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				c.n.keyboard.Store(true)
			}
		case *tele.ReplyMarkup:
			if v != nil {
				c.n.keyboard.Store(true)
			}
		}
	}
	return nil
}

func (c countingContext) Send(what interface{}, opts ...interface{}) error {
	return c.record(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what interface{}, opts ...interface{}) error {
	return c.record(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what interface{}, opts ...interface{}) error {
	return c.record(c.Context.Edit(what, opts...), opts)
}

// MessageMetricsMiddleware counts the replies each handler produces.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, ok := c.Get(countersKey).(*replyCounters); ok {
			return next(c)
		}
		n := &replyCounters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// GetCounters returns how many replies were sent so far and whether any
// carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	n, ok := c.Get(countersKey).(*replyCounters)
	if !ok {
		return 0, false
	}
	return int(n.messages.Load()), n.keyboard.Load()
}
