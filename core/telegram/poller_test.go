package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerLongpollDefaults(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "longpoll"})
	lp, ok := p.(*tele.LongPoller)
	if !ok {
		t.Fatalf("expected long poller, got %T", p)
	}
	if lp.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
	var sawPoll bool
	for _, u := range lp.AllowedUpdates {
		if u == "poll_answer" {
			sawPoll = true
		}
	}
	if !sawPoll {
		t.Fatal("poll answers must be requested explicitly")
	}
}

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"},
	})
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("expected webhook, got %T", p)
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://example.org/hook" {
		t.Fatalf("unexpected webhook: %+v", wh)
	}
}
