package tonie

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"
)

// RetryPolicy controls how the session's transport absorbs transient faults.
// It applies to every outbound call the session makes (token endpoint and API
// endpoints alike); per-endpoint code never duplicates retry logic.
type RetryPolicy struct {
	MaxAttempts       int           // total attempts, including the first
	Backoff           time.Duration // initial backoff, doubled after each retry
	RetryStatusCodes  []int
	RespectRetryAfter bool
}

// DefaultRetryPolicy matches the service's documented limits: 3 attempts with
// 1s/2s/4s exponential backoff, retrying 429 and the transient 5xx statuses.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		Backoff:           time.Second,
		RetryStatusCodes:  []int{429, 500, 502, 503, 504},
		RespectRetryAfter: true,
	}
}

func (p RetryPolicy) retryable(status int) bool {
	for _, code := range p.RetryStatusCodes {
		if status == code {
			return true
		}
	}
	return false
}

// retryTransport wraps an http.RoundTripper with the retry policy.
// The sleep function is injectable so tests run without real timers.
type retryTransport struct {
	base   http.RoundTripper
	policy RetryPolicy
	sleep  func(time.Duration)
}

func newRetryTransport(base http.RoundTripper, policy RetryPolicy, sleep func(time.Duration)) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &retryTransport{base: base, policy: policy, sleep: sleep}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	backoff := t.policy.Backoff
	attemptReq := req

	for attempt := 1; ; attempt++ {
		resp, err := t.base.RoundTrip(attemptReq)

		if err == nil && !t.policy.retryable(resp.StatusCode) {
			return resp, nil
		}
		if err != nil && !retryableError(err) {
			return nil, err
		}
		if attempt >= t.policy.MaxAttempts {
			return resp, err
		}
		if req.Context().Err() != nil {
			return resp, err
		}
		// A consumed body cannot be replayed.
		if req.Body != nil && req.GetBody == nil {
			return resp, err
		}

		wait := backoff
		if err == nil {
			if d, ok := retryAfter(resp); ok && t.policy.RespectRetryAfter {
				wait = d
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		// The caller's request is never mutated; each replay gets a clone
		// with a rewound body.
		clone := req.Clone(req.Context())
		if req.GetBody != nil {
			body, rewindErr := req.GetBody()
			if rewindErr != nil {
				return resp, err
			}
			clone.Body = body
		}
		attemptReq = clone

		t.sleep(wait)
		backoff *= 2
	}
}

// retryableError reports whether a transport failure is transient. Context
// cancellation and failed name resolution are permanent for the lifetime of
// the request.
func retryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}
