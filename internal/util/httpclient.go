package util

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Target string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Target, e.Code)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Target, e.Code, e.Body)
}

// Retryable reports whether err is worth another attempt. Client errors other
// than 429 are not.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// Retry calls fn up to attempts times with doubling backoff capped at ceiling.
// It stops early on errors Retryable rejects.
func Retry(ctx context.Context, attempts int, initial, ceiling time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	d := initial
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
			d = min(d*2, ceiling)
		}
		if err = fn(); err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
	}
	return fmt.Errorf("retry: exhausted after %d attempts: %w", attempts, err)
}
