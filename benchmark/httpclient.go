package benchmark

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// newHTTPClient creates a customized HTTP client with optimized transport settings and HTTP/2 support.
// Connection limits are sized for vus concurrent virtual users.
func newHTTPClient(vus int, timeout time.Duration) (*http.Client, error) {
	perHost := vus
	if perHost < 50 {
		perHost = 50
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          4 * perHost,
		MaxIdleConnsPerHost:   perHost,
		MaxConnsPerHost:       2 * perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	// HTTP/2 is only negotiated for https hosts
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configure HTTP/2: %w", err)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	return client, nil
}
