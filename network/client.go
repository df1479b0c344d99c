// Package network holds the HTTP client shared by the release check and the
// title lookup.
package network

import (
	"net/http"
	"time"
)

// Client is the process-wide HTTP client. Both of its users talk to a single
// host with a handful of requests, so the pool stays small.
var Client = &http.Client{
	Timeout:   15 * time.Second,
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 10 * time.Second
	return t
}
