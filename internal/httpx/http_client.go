package httpx

import (
	"net/http"
	"time"
)

const (
	defaultTimeout         = 90 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// Settings bound the outbound traffic of every integration.
type Settings struct {
	TimeoutSeconds int
	// MaxConnsPerHost caps open connections to one backend; it follows the
	// classification worker count so idle connections are reused.
	MaxConnsPerHost int
}

var (
	transport = newTransport(1)
	client    = &http.Client{Timeout: defaultTimeout, Transport: transport}
)

// ExternalHTTPClient is shared by the LLM backends and the Slack webhook.
func ExternalHTTPClient() *http.Client {
	return client
}

// Configure applies s to the shared client and returns the effective
// request timeout. Call it before any backend is built.
func Configure(s Settings) time.Duration {
	timeout := defaultTimeout
	if s.TimeoutSeconds > 0 {
		timeout = time.Duration(s.TimeoutSeconds) * time.Second
	}
	client.Timeout = timeout

	conns := s.MaxConnsPerHost
	if conns < 1 {
		conns = 1
	}
	transport.MaxIdleConnsPerHost = conns
	transport.MaxConnsPerHost = conns * 2
	return timeout
}

func newTransport(conns int) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = conns
	t.MaxConnsPerHost = conns * 2
	t.IdleConnTimeout = defaultIdleConnTimeout
	return t
}
