package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Constants.
const (
	AVAX       = "AVAX"
	AvaxSymbol = "avax"

	// MaxDenomination bounds the decimal places an asset may declare.
	MaxDenomination = 32
)

var errNegative = errors.New("amount cannot be negative")

// Asset describes a ledger asset and, optionally, a balance in base units.
type Asset struct {
	AssetID      string `json:"assetID"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Denomination uint8  `json:"denomination"`
	Amount       uint64 `json:"amount"`
}

// BaseUnits converts a human quantity to base units of this asset.
func (a Asset) BaseUnits(qty decimal.Decimal) (uint64, error) {
	return ToBaseUnits(qty, a.Denomination)
}

// Human converts base units back to a decimal quantity.
func (a Asset) Human(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(a.Denomination))
}

// ToBaseUnits returns qty * 10^denomination. Quantities that are not an
// exact multiple of the smallest unit are rejected rather than rounded.
func ToBaseUnits(qty decimal.Decimal, denomination uint8) (uint64, error) {
	if denomination > MaxDenomination {
		return 0, fmt.Errorf("denomination %d exceeds %d", denomination, MaxDenomination)
	}
	if qty.IsNegative() {
		return 0, errNegative
	}

	scaled := qty.Shift(int32(denomination))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("quantity %s has more than %d decimal places", qty.String(), denomination)
	}

	n := scaled.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("quantity %s overflows base units", qty.String())
	}
	return n.Uint64(), nil
}
