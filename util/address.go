package util

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressLen is the byte length of a short address id.
const AddressLen = 20

// FormatAddress returns "<chain>-<bech32(hrp, id)>".
func FormatAddress(chain, hrp string, id []byte) (string, error) {
	conv, err := bech32.ConvertBits(id, 8, 5, true)
	if err != nil {
		return "", err
	}
	encoded, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", err
	}
	return chain + "-" + encoded, nil
}

// ParseAddress splits a chain address into chain alias, hrp and the 20 byte id.
func ParseAddress(addr string) (string, string, []byte, error) {
	parts := strings.SplitN(addr, "-", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", nil, fmt.Errorf("no chain alias in address %q", addr)
	}

	hrp, data, err := bech32.Decode(parts[1])
	if err != nil {
		return "", "", nil, err
	}
	id, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", "", nil, err
	}
	if len(id) != AddressLen {
		return "", "", nil, fmt.Errorf("address %q has %d bytes, expected %d", addr, len(id), AddressLen)
	}
	return parts[0], hrp, id, nil
}

// AddressValid checks if address is a well formed chain address.
func AddressValid(addr string) bool {
	_, _, _, err := ParseAddress(addr)
	return err == nil
}

// PubKeyToAddressID returns hash160 of the compressed public key.
func PubKeyToAddressID(compressedPubKey []byte) []byte {
	return Hash160(compressedPubKey)
}
