// Package p2wdb writes documents to the pay-to-write database.
package p2wdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 30 * time.Second

// ErrNoHash is returned when a write is acknowledged without a hash.
var ErrNoHash = errors.New("p2wdb returned no hash")

// Client talks to a P2WDB writer service. The service owns the key paying
// for writes.
type Client struct {
	url  string
	http *fasthttp.Client
}

// New returns a client for the service at url.
func New(url string) *Client {
	return &Client{url: url, http: &fasthttp.Client{}}
}

type writeRequest struct {
	AppID string `json:"appId"`
	Data  string `json:"data"`
}

// Write publishes data under appID and returns the entry hash.
func (c *Client) Write(ctx context.Context, appID string, data interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(writeRequest{AppID: appID, Data: string(raw)})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, "POST", "/entry/write", body)
	if err != nil {
		return "", fmt.Errorf("p2wdb write: %w", err)
	}

	hash, err := jsonparser.GetString(resp, "hash")
	if err != nil || hash == "" {
		return "", ErrNoHash
	}
	return hash, nil
}

// CheckForSufficientFunds reports whether the writer can pay for another entry.
func (c *Client) CheckForSufficientFunds(ctx context.Context) (bool, error) {
	resp, err := c.do(ctx, "GET", "/entry/funds", nil)
	if err != nil {
		return false, fmt.Errorf("p2wdb funds: %w", err)
	}

	ok, err := jsonparser.GetBoolean(resp, "sufficient")
	if err != nil {
		return false, fmt.Errorf("p2wdb funds: %w", err)
	}
	return ok, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.url + path)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	timeout := defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, err
	}

	data := append([]byte(nil), resp.Body()...)
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		if msg, err := jsonparser.GetString(data, "error"); err == nil {
			return nil, fmt.Errorf("status %d: %s", code, msg)
		}
		return nil, fmt.Errorf("status %d", code)
	}
	return data, nil
}
