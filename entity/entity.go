// Package entity holds the Offer and Order documents exchanged through P2WDB
// and the constructors that validate them at the boundary.
package entity

import (
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

func init() {
	// numTokens travels as a JSON number.
	decimal.MarshalJSONWithoutQuotes = true
}

// ValidationError reports a malformed field of an incoming document.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, v ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, v...)}
}

// Side is the direction of a trade from the maker's view.
type Side string

// Trade sides.
const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Trade holds the fields shared by Offers and Orders.
type Trade struct {
	MessageType       int             `json:"messageType"`
	MessageClass      int             `json:"messageClass"`
	TokenID           string          `json:"tokenId"`
	BuyOrSell         Side            `json:"buyOrSell"`
	RateInSats        uint64          `json:"rateInSats"`
	MinSatsToExchange uint64          `json:"minSatsToExchange"`
	NumTokens         decimal.Decimal `json:"numTokens"`
}

// document reads typed fields out of raw JSON.
type document []byte

func (d document) get(key string) ([]byte, jsonparser.ValueType) {
	value, typ, _, err := jsonparser.Get(d, key)
	if err != nil {
		return nil, jsonparser.NotExist
	}
	return value, typ
}

func (d document) has(key string) bool {
	_, typ := d.get(key)
	return typ != jsonparser.NotExist && typ != jsonparser.Null
}

func (d document) string(key string) (string, error) {
	value, typ := d.get(key)
	if typ != jsonparser.String {
		return "", invalid(key, "Property '%s' must be a string.", key)
	}
	str, err := jsonparser.ParseString(value)
	if err != nil || str == "" {
		return "", invalid(key, "Property '%s' must be a string.", key)
	}
	return str, nil
}

// uint reads a non-negative integer; zero is refused unless allowZero.
func (d document) uint(key string, allowZero bool) (uint64, error) {
	value, typ := d.get(key)
	if typ != jsonparser.Number {
		return 0, invalid(key, "Property '%s' must be an integer number.", key)
	}
	n, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil || (n == 0 && !allowZero) {
		return 0, invalid(key, "Property '%s' must be an integer number.", key)
	}
	return n, nil
}

func (d document) decimal(key string) (decimal.Decimal, error) {
	value, typ := d.get(key)
	if typ != jsonparser.Number {
		return decimal.Zero, invalid(key, "Property '%s' must be a number.", key)
	}
	dec, err := decimal.NewFromString(string(value))
	if err != nil || !dec.IsPositive() {
		return decimal.Zero, invalid(key, "Property '%s' must be a number.", key)
	}
	return dec, nil
}

func parseTrade(d document) (Trade, error) {
	var (
		t   Trade
		err error
		n   uint64
	)

	if n, err = d.uint("messageType", false); err != nil {
		return t, err
	}
	t.MessageType = int(n)

	if n, err = d.uint("messageClass", false); err != nil {
		return t, err
	}
	t.MessageClass = int(n)

	if t.TokenID, err = d.string("tokenId"); err != nil {
		return t, err
	}

	side, err := d.string("buyOrSell")
	if err != nil {
		return t, err
	}
	t.BuyOrSell = Side(side)
	if t.BuyOrSell != Buy && t.BuyOrSell != Sell {
		return t, invalid("buyOrSell", "Property 'buyOrSell' must be 'buy' or 'sell'.")
	}

	if t.RateInSats, err = d.uint("rateInSats", false); err != nil {
		return t, err
	}
	if t.MinSatsToExchange, err = d.uint("minSatsToExchange", false); err != nil {
		return t, err
	}
	if t.NumTokens, err = d.decimal("numTokens"); err != nil {
		return t, err
	}
	return t, nil
}
