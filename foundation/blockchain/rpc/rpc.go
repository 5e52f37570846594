// Package rpc provides the JSON over HTTP transport nodes use to talk to
// each other. Every call is bounded by a timeout.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is used when a client is constructed without a timeout.
const DefaultTimeout = 5 * time.Second

// maxErrorBody limits how much of a failed response is kept in an error.
const maxErrorBody = 512

// StatusError is returned when a node responds with a non-success status.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (se *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", se.URL, se.StatusCode, se.Message)
}

// GetStatusError returns the StatusError in the chain if one exists.
func GetStatusError(err error) *StatusError {
	var se *StatusError
	if !errors.As(err, &se) {
		return nil
	}
	return se
}

// IsTimeout reports if the error was caused by the call timing out.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// =============================================================================

// Client sends requests to other nodes.
type Client struct {
	http *http.Client
}

// NewClient constructs a client where every call is bounded by the timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Post sends the value as JSON to the url and decodes any response into
// dataRecv when it is not nil. The response status code is returned.
func (c *Client) Post(ctx context.Context, url string, dataSend any, dataRecv any) (int, error) {
	return c.send(ctx, http.MethodPost, url, dataSend, dataRecv)
}

// Get calls the url and decodes the response into dataRecv.
func (c *Client) Get(ctx context.Context, url string, dataRecv any) (int, error) {
	return c.send(ctx, http.MethodGet, url, nil, dataRecv)
}

// send is a helper function to send an HTTP request to a node.
func (c *Client) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) (int, error) {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    readMessage(resp.Body),
		}
	}

	if dataRecv != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// readMessage extracts the error message from a failed response. Nodes
// respond with {"error": "..."} but anything else is returned as text.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return err.Error()
	}

	var er struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &er); err == nil && er.Error != "" {
		return er.Error
	}

	return strings.TrimSpace(string(data))
}
