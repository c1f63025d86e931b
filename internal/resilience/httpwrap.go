package resilience

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps an *http.Client with retries and an optional circuit
// breaker. Request bodies are buffered so retries can replay them.
type HTTPClient struct {
	client      *http.Client
	breaker     *Breaker
	maxAttempts int
	backoffBase time.Duration
	jitterPct   float64
}

// NewHTTPClient builds a resilient client around base. A nil base falls back
// to a client with a sane timeout.
func NewHTTPClient(base *http.Client, breaker *Breaker, maxAttempts int, backoffBase time.Duration, jitterPct float64) *HTTPClient {
	if base == nil {
		base = &http.Client{Timeout: 10 * time.Second}
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &HTTPClient{
		client:      base,
		breaker:     breaker,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		jitterPct:   jitterPct,
	}
}

// Do performs the request, retrying transient failures. Responses with status
// >= 500 count as failures and are retried; 4xx responses are returned to the
// caller immediately since retrying them cannot succeed.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		body = b
	}

	var lastErr error
	var lastResp *http.Response
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.breaker != nil && !c.breaker.Allow() {
			return nil, ErrOpenCircuit
		}
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			lastResp = nil
			c.report(false)
			if !c.wait(req.Context(), attempt) {
				return nil, req.Context().Err()
			}
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = nil
			lastResp = resp
			c.report(false)
			if attempt < c.maxAttempts {
				drain(resp)
				if !c.wait(req.Context(), attempt) {
					return nil, req.Context().Err()
				}
				continue
			}
			return resp, nil
		}
		c.report(true)
		return resp, nil
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}

func (c *HTTPClient) report(success bool) {
	if c.breaker != nil {
		c.breaker.Report(success)
	}
}

func (c *HTTPClient) wait(ctx context.Context, attempt int) bool {
	if attempt >= c.maxAttempts {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(Backoff(c.backoffBase, attempt, c.jitterPct)):
		return true
	}
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
