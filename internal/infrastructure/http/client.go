package http

import (
	"net/http"
	"time"
)

// ClientConfig holds configuration for outbound HTTP clients.
type ClientConfig struct {
	Timeout         time.Duration
	MaxConnsPerHost int // 0 uses 50
	Transport       http.RoundTripper
}

// NewClient builds an HTTP client with a pooled transport. The timeout covers
// the whole exchange including reading the body.
func NewClient(cfg ClientConfig) *http.Client {
	transport := cfg.Transport
	if transport == nil {
		transport = NewTransport(cfg.MaxConnsPerHost)
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}

// NewTransport returns a keep-alive transport shared by every call to a host.
func NewTransport(maxConnsPerHost int) *http.Transport {
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = 50
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
