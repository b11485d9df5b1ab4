package benchmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"objbench/metrics"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected http status code")
	ErrObjectExists     = errors.New("object already exists")
	ErrMisdirected      = errors.New("request was directed to the wrong node")
)

// ObjectClient issues the object store requests of all phases.
type ObjectClient struct {
	rest    *resty.Client
	metrics *metrics.Metrics
}

// ClientOptions configures the transport behind an ObjectClient.
type ClientOptions struct {
	VUs         int
	Timeout     time.Duration
	BearerToken string
}

// GetResult describes the outcome of a read. A non-200 status is a result, not an error.
type GetResult struct {
	Status  int
	Bytes   int64
	Latency time.Duration
}

func NewObjectClient(opts ClientOptions, m *metrics.Metrics, sugar *zap.SugaredLogger) (*ObjectClient, error) {
	httpClient, err := newHTTPClient(opts.VUs, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	rest := resty.NewWithClient(httpClient).SetLogger(sugar)
	if opts.BearerToken != "" {
		rest.SetAuthToken(opts.BearerToken)
	}

	return &ObjectClient{rest: rest, metrics: m}, nil
}

// Delete removes the object at url. A missing object is not an error.
func (c *ObjectClient) Delete(ctx context.Context, url string) error {
	start := time.Now()
	resp, err := c.rest.R().SetContext(ctx).Delete(url)
	if err != nil {
		c.metrics.ObserveRequest(http.MethodDelete, 0, time.Since(start))
		return fmt.Errorf("DELETE %v: %w", url, err)
	}
	c.metrics.ObserveRequest(http.MethodDelete, resp.StatusCode(), time.Since(start))

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return statusError(http.MethodDelete, url, resp.StatusCode())
	}
}

// Put uploads payload as the multipart form file "file".
func (c *ObjectClient) Put(ctx context.Context, url string, payload []byte) error {
	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetFileReader("file", "file", bytes.NewReader(payload)).
		Put(url)
	if err != nil {
		c.metrics.ObserveRequest(http.MethodPut, 0, time.Since(start))
		return fmt.Errorf("PUT %v: %w", url, err)
	}
	c.metrics.ObserveRequest(http.MethodPut, resp.StatusCode(), time.Since(start))

	if resp.StatusCode() != http.StatusOK {
		return statusError(http.MethodPut, url, resp.StatusCode())
	}
	return nil
}

// Get reads the object at url and discards its content.
func (c *ObjectClient) Get(ctx context.Context, url string) (GetResult, error) {
	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		c.metrics.ObserveRequest(http.MethodGet, 0, time.Since(start))
		return GetResult{}, fmt.Errorf("GET %v: %w", url, err)
	}

	body := resp.RawBody()
	defer body.Close()

	n, err := drain(body)
	latency := time.Since(start)
	c.metrics.ObserveRequest(http.MethodGet, resp.StatusCode(), latency)
	if err != nil {
		return GetResult{}, fmt.Errorf("GET %v: read body: %w", url, err)
	}

	return GetResult{Status: resp.StatusCode(), Bytes: n, Latency: latency}, nil
}

func statusError(method, url string, status int) error {
	switch status {
	case http.StatusConflict:
		return fmt.Errorf("%v %v: %w", method, url, ErrObjectExists)
	case http.StatusMisdirectedRequest:
		return fmt.Errorf("%v %v: %w", method, url, ErrMisdirected)
	default:
		return fmt.Errorf("%v %v responded with %v: %w", method, url, status, ErrUnexpectedStatus)
	}
}
