package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused by every pooled client so outbound calls to the
// same host (rerank APIs, webhooks, crawled sites) keep their connections warm.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// NewPooledClient returns an http.Client with the given overall timeout that
// shares the process-wide connection pool.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
