package util

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

var (
	// ErrBadChecksum is returned when a checksummed string does not verify.
	ErrBadChecksum = errors.New("invalid checksum")
	errTooShort    = errors.New("encoded data too short")
)

// EncodeCB58 returns base58(data || checksum).
func EncodeCB58(data []byte) string {
	buf := make([]byte, 0, len(data)+4)
	buf = append(buf, data...)
	buf = append(buf, Checksum(data)...)
	return base58.Encode(buf)
}

// DecodeCB58 reverses EncodeCB58.
func DecodeCB58(str string) ([]byte, error) {
	if str == "" {
		return nil, errTooShort
	}
	raw := base58.Decode(str)
	if len(raw) < 4 {
		return nil, errTooShort
	}

	data, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(sum, Checksum(data)) {
		return nil, ErrBadChecksum
	}
	return data, nil
}

// EncodeBase58 returns plain base58 without checksum.
func EncodeBase58(data []byte) string {
	return base58.Encode(data)
}

// DecodeBase58 returns plain base58 decoded bytes.
func DecodeBase58(str string) ([]byte, error) {
	raw := base58.Decode(str)
	if len(raw) == 0 && str != "" {
		return nil, errors.New("invalid base58 string")
	}
	return raw, nil
}

// EncodeHexChecked returns the node rpc hex format: 0x + hex(data || checksum).
func EncodeHexChecked(data []byte) string {
	buf := make([]byte, 0, len(data)+4)
	buf = append(buf, data...)
	buf = append(buf, Checksum(data)...)
	return "0x" + hex.EncodeToString(buf)
}

// DecodeHexChecked reverses EncodeHexChecked.
func DecodeHexChecked(str string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return nil, err
	}
	if len(raw) < 4 {
		return nil, errTooShort
	}

	data, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(sum, Checksum(data)) {
		return nil, ErrBadChecksum
	}
	return data, nil
}

// EncodeHex returns plain hex without prefix or checksum.
func EncodeHex(data []byte) string {
	return hex.EncodeToString(data)
}

// DecodeHex accepts plain hex with or without 0x.
func DecodeHex(str string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(str, "0x"))
}
