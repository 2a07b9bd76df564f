package tx

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/util"
)

// IDLen is the byte length of transaction, asset and blockchain ids.
const IDLen = 32

// ID identifies transactions, assets and blockchains.
type ID [IDLen]byte

// Empty is the zero ID.
var Empty ID

// IDFromString parses a cb58 encoded id.
func IDFromString(str string) (ID, error) {
	var id ID
	raw, err := util.DecodeCB58(str)
	if err != nil {
		return id, fmt.Errorf("invalid id %q: %w", str, err)
	}
	if len(raw) != IDLen {
		return id, fmt.Errorf("invalid id %q: %d bytes", str, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// IDFromBytes copies a 32 byte slice into an ID.
func IDFromBytes(raw []byte) (ID, error) {
	var id ID
	if len(raw) != IDLen {
		return id, fmt.Errorf("id must be %d bytes, got %d", IDLen, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the cb58 text form.
func (id ID) String() string {
	return util.EncodeCB58(id[:])
}

// Hex returns the hex text form.
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

// Compare orders ids bytewise.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// ShortID is the 20 byte hash160 behind an address.
type ShortID [util.AddressLen]byte

// ShortIDFromAddress parses "X-hrp1..." into its id.
func ShortIDFromAddress(addr string) (ShortID, error) {
	var sid ShortID
	_, _, raw, err := util.ParseAddress(addr)
	if err != nil {
		return sid, err
	}
	copy(sid[:], raw)
	return sid, nil
}

// Address formats the id as an address on the given chain.
func (s ShortID) Address(chain, hrp string) (string, error) {
	return util.FormatAddress(chain, hrp, s[:])
}

// Compare orders short ids bytewise.
func (s ShortID) Compare(other ShortID) int {
	return bytes.Compare(s[:], other[:])
}

// Hex returns the hex text form.
func (s ShortID) Hex() string {
	return hex.EncodeToString(s[:])
}
