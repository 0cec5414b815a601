// Package target is the HTTP client for the MIT key-value service and
// the home of outcome classification: every request collapses to
// Success, Failure (with a reason) or NotFound.
package target

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Class is the aggregate bucket an operation lands in.
type Class int

const (
	Success Class = iota
	Failure
	NotFound
)

func (c Class) String() string {
	switch c {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// ReasonTimeout marks operations that exceeded the per-request
// timeout. Timeouts count as failures but are tallied under their own
// reason.
const ReasonTimeout = "timeout"

// Outcome is the classified result of a single operation against the
// target service.
type Outcome struct {
	Class   Class
	Elapsed time.Duration
	Reason  string
}

// Client talks to the MIT key-value service.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client with a connection pool sized to the
// driver's concurrency bound and a per-request timeout.
func NewClient(base string, timeout time.Duration, maxConns int) *Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = maxConns
	t.MaxConnsPerHost = maxConns
	t.MaxIdleConnsPerHost = maxConns

	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: t,
		},
	}
}

// Health performs the pre-flight check. Anything but a 200 is fatal to
// the run, so this returns an error instead of an Outcome.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Insert creates a record.
func (c *Client) Insert(ctx context.Context, id string, value map[string]any) Outcome {
	return c.post(ctx, "/insert", id, value)
}

// Update modifies an existing record.
func (c *Client) Update(ctx context.Context, id string, value map[string]any) Outcome {
	return c.post(ctx, "/update", id, value)
}

// Get reads a record back. A 404 is classified as NotFound rather than
// Failure; reads against ids nothing has written yet are expected.
func (c *Client) Get(ctx context.Context, id string) Outcome {
	start := time.Now()

	u := c.base + "/get?id=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Outcome{Class: Failure, Elapsed: time.Since(start), Reason: err.Error()}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Class: Failure, Elapsed: time.Since(start), Reason: failReason(err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	elapsed := time.Since(start)
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Outcome{Class: Success, Elapsed: elapsed}
	case resp.StatusCode == http.StatusNotFound:
		return Outcome{Class: NotFound, Elapsed: elapsed}
	default:
		return Outcome{Class: Failure, Elapsed: elapsed, Reason: httpReason(resp.StatusCode)}
	}
}

func (c *Client) post(ctx context.Context, endpoint, id string, value map[string]any) Outcome {
	start := time.Now()

	body, err := json.Marshal(map[string]any{"id": id, "value": value})
	if err != nil {
		return Outcome{Class: Failure, Elapsed: time.Since(start), Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{Class: Failure, Elapsed: time.Since(start), Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Class: Failure, Elapsed: time.Since(start), Reason: failReason(err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	elapsed := time.Since(start)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Outcome{Class: Success, Elapsed: elapsed}
	}
	return Outcome{Class: Failure, Elapsed: elapsed, Reason: httpReason(resp.StatusCode)}
}

func httpReason(status int) string {
	return fmt.Sprintf("http %d", status)
}

// failReason collapses transport errors into a stable reason string so
// the failure tally stays readable at high error counts.
func failReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return ReasonTimeout
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return ReasonTimeout
		}
		return "transport: " + uerr.Err.Error()
	}
	return "transport: " + err.Error()
}
