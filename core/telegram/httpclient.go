package telegram

import (
	"net"
	"net/http"
	"time"
)

const (
	dialTimeout     = 5 * time.Second
	tlsTimeout      = 5 * time.Second
	idleConnTimeout = 30 * time.Second
	keepAlive       = 30 * time.Second
	requestTimeout  = 30 * time.Second
	// pollSlack keeps the client timeout above the getUpdates long-poll wait.
	pollSlack = 10 * time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. It never retries:
// createChatInviteLink and sendMessage are not idempotent, so a repeated
// request could hand out a second invite or message the user twice.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	timeout := requestTimeout
	if longPoll+pollSlack > timeout {
		timeout = longPoll + pollSlack
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     idleConnTimeout,
			TLSHandshakeTimeout: tlsTimeout,
		},
	}
}
