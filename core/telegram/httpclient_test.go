package telegram

import (
	"net/http"
	"testing"
	"time"
)

func TestBuildHTTPClientHasNoRetryLayer(t *testing.T) {
	c := BuildHTTPClient(10 * time.Second)
	if _, ok := c.Transport.(*http.Transport); !ok {
		t.Fatalf("expected plain *http.Transport, got %T", c.Transport)
	}
	if c.Timeout != requestTimeout {
		t.Fatalf("timeout = %v", c.Timeout)
	}
	if c := BuildHTTPClient(50 * time.Second); c.Timeout != 60*time.Second {
		t.Fatalf("long poll timeout not covered: %v", c.Timeout)
	}
}
