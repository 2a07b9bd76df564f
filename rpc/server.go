package rpc

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/buger/jsonparser"
)

// pool stores all ledger node urls with their health.
// Unreachable or unbootstrapped servers are marked false
// until the next refresh.
type pool struct {
	mu      sync.Mutex
	servers map[string]bool
}

func newPool(urls []string) *pool {
	p := &pool{servers: make(map[string]bool)}
	for _, url := range urls {
		p.servers[url] = true
	}
	return p
}

// get randomly returns one of the healthy servers.
func (p *pool) get() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := []string{}

	for url, healthy := range p.servers {
		if !healthy {
			continue
		}
		// Local servers get double weight.
		if strings.Contains(url, "127.0.0.1") ||
			strings.Contains(url, "localhost") {
			candidates = append(candidates, url)
		}
		candidates = append(candidates, url)
	}

	l := len(candidates)
	if l == 0 {
		return "", false
	}

	return candidates[rand.Intn(l)], true
}

func (p *pool) unavailable(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Incase servers were replaced by a refresh meanwhile.
	if _, ok := p.servers[url]; ok {
		p.servers[url] = false
	}
}

func (p *pool) set(servers map[string]bool) {
	p.mu.Lock()
	p.servers = servers
	p.mu.Unlock()
}

// PrintServerStatus logs the health of every ledger node.
func (c *Client) PrintServerStatus() {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()

	for url, healthy := range c.pool.servers {
		log.Printf("%s: bootstrapped=%v", url, healthy)
	}
}

// Refresh replaces the server pool with urls and marks each of them by
// whether its asset chain is bootstrapped. It returns the healthy count.
func (c *Client) Refresh(ctx context.Context, urls []string) int {
	type status struct {
		url     string
		healthy bool
	}

	ch := make(chan status, len(urls))

	for _, url := range urls {
		go func(url string) {
			healthy, err := c.isBootstrapped(ctx, url)
			if err != nil {
				log.Debugf("%s is unavailable: %v", url, err)
			}
			ch <- status{url: url, healthy: healthy}
		}(url)
	}

	servers := make(map[string]bool)
	healthy := 0
	for range urls {
		s := <-ch
		servers[s.url] = s.healthy
		if s.healthy {
			healthy++
		}
	}

	c.pool.set(servers)
	return healthy
}

// TraceServers refreshes the pool every interval until ctx is done.
func (c *Client) TraceServers(ctx context.Context, interval time.Duration, urls func() []string) error {
	for {
		if c.Refresh(ctx, urls()) == 0 {
			log.Printf("No ledger server is bootstrapped")
			c.PrintServerStatus()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *Client) isBootstrapped(ctx context.Context, url string) (bool, error) {
	params := map[string]string{"chain": "X"}
	result, err := c.callServer(ctx, url, infoEndpoint, "info.isBootstrapped", params)
	if err != nil {
		return false, err
	}
	return jsonparser.GetBoolean(result, "isBootstrapped")
}
