package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/buger/jsonparser"
	eParser "github.com/go-errors/errors"
	"github.com/valyala/fasthttp"
)

// Ledger node endpoints, relative to a server base url.
const (
	xChainEndpoint = "/ext/bc/X"
	infoEndpoint   = "/ext/info"
)

const defaultTimeout = 20 * time.Second

// ErrNoServer is returned when every ledger node is marked unavailable.
var ErrNoServer = errors.New("no ledger server available")

// Error is an error object returned by the node.
type Error struct {
	Code    int64
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// Client talks JSON-RPC to a pool of ledger nodes.
type Client struct {
	hrp  string
	pool *pool
	http *fasthttp.Client
}

// New returns a client over the given node base urls. hrp is the address
// prefix used when scanning UTXOs by owner.
func New(urls []string, hrp string) *Client {
	return &Client{
		hrp:  hrp,
		pool: newPool(urls),
		http: &fasthttp.Client{},
	}
}

func requestBody(method string, params interface{}) ([]byte, error) {
	if params == nil {
		params = struct{}{}
	}
	return json.Marshal(request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
}

// call sends one request to a healthy server and returns the raw result.
// A server failing at transport level is marked unavailable; the request is
// not retried.
func (c *Client) call(ctx context.Context, endpoint, method string, params interface{}) ([]byte, error) {
	url, ok := c.pool.get()
	if !ok {
		return nil, ErrNoServer
	}
	return c.callServer(ctx, url, endpoint, method, params)
}

func (c *Client) callServer(ctx context.Context, url, endpoint, method string, params interface{}) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := requestBody(method, params)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/json")
	req.SetRequestURI(url + endpoint)
	req.SetBody(body)

	timeout := defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		c.pool.unavailable(url)
		return nil, fmt.Errorf("%s %s: %w", url, method, err)
	}

	return parseResponse(method, body, append([]byte(nil), resp.Body()...))
}

func parseResponse(method string, reqBody, respBody []byte) ([]byte, error) {
	if errObj, dataType, _, err := jsonparser.Get(respBody, "error"); err == nil && dataType == jsonparser.Object {
		code, _ := jsonparser.GetInt(errObj, "code")
		message, _ := jsonparser.GetString(errObj, "message")
		return nil, &Error{Code: code, Message: message}
	}

	result, _, _, err := jsonparser.Get(respBody, "result")
	if err != nil {
		log.Errorf("%s", eParser.Wrap(err, 0).ErrorStack())
		log.Errorf("Request body: %s", reqBody)
		log.Errorf("Response: %s", respBody)
		return nil, fmt.Errorf("%s: malformed response: %w", method, err)
	}
	return result, nil
}

// getUint reads a number that nodes send either bare or quoted.
func getUint(data []byte, keys ...string) (uint64, error) {
	value, _, _, err := jsonparser.Get(data, keys...)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(value), 10, 64)
}
