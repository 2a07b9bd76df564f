// Package webhook registers this service with the P2WDB so that new entries
// are delivered to it.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 15 * time.Second

var errEmptyURL = errors.New("url must be a string")

// RetryPolicy controls WaitUntilSuccess.
type RetryPolicy struct {
	// MaxAttempts of 0 retries until the context is done.
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// Client manages webhooks on the P2WDB webhook service.
type Client struct {
	service string
	appID   string
	http    *fasthttp.Client
}

// New returns a client for the webhook endpoint service.
func New(service, appID string) *Client {
	return &Client{service: service, appID: appID, http: &fasthttp.Client{}}
}

type hook struct {
	AppID string `json:"appId"`
	URL   string `json:"url"`
}

// Create registers url as a target for new entries of the app.
func (c *Client) Create(ctx context.Context, url string) error {
	if url == "" {
		return errEmptyURL
	}
	log.Printf("Webhook will target this url: %s", url)
	return c.send(ctx, "POST", url)
}

// Delete removes a webhook registered for url.
func (c *Client) Delete(ctx context.Context, url string) error {
	if url == "" {
		return errEmptyURL
	}
	return c.send(ctx, "DELETE", url)
}

// WaitUntilSuccess replaces any existing webhook for url with a fresh one,
// retrying per policy. Orders are only seen through the webhook, so callers
// should treat a failure here as fatal.
func (c *Client) WaitUntilSuccess(ctx context.Context, url string, policy RetryPolicy) error {
	backoff := policy.Backoff

	for attempt := 1; ; attempt++ {
		// An old webhook may not exist.
		if err := c.Delete(ctx, url); err != nil {
			log.Debugf("Deleting webhook for %s: %v", url, err)
		}

		err := c.Create(ctx, url)
		if err == nil {
			log.Printf("Webhook created after %d attempt(s)", attempt)
			return nil
		}

		log.Printf("Attempt %d: error trying to create webhook with P2WDB: %v", attempt, err)

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return fmt.Errorf("webhook not created after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		if policy.MaxBackoff > 0 {
			backoff *= 2
			if backoff > policy.MaxBackoff {
				backoff = policy.MaxBackoff
			}
		}
	}
}

func (c *Client) send(ctx context.Context, method, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(hook{AppID: c.appID, URL: url})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.SetRequestURI(c.service)
	req.SetBody(body)

	timeout := defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return err
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("%s %s: status %d", method, c.service, code)
	}
	return nil
}
