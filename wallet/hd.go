package wallet

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// Derivation path m/44'/9000'/0'/0/i.
const (
	purpose  = 44
	coinType = 9000
	account  = 0
	change   = 0

	seedIterations = 2048
	seedLen        = 64
)

var errBadMnemonic = errors.New("mnemonic must have 12, 15, 18, 21 or 24 words")

// SeedFromMnemonic returns the BIP39 seed of mnemonic.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	words := strings.Fields(mnemonic)
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return nil, errBadMnemonic
	}

	password := norm.NFKD.String(strings.Join(words, " "))
	salt := norm.NFKD.String("mnemonic" + passphrase)
	return pbkdf2.Key([]byte(password), []byte(salt), seedIterations, seedLen, sha512.New), nil
}

// HD derives wallet keys from a mnemonic.
type HD struct {
	chainKey *hdkeychain.ExtendedKey
	hrp      string
}

// NewHD prepares the m/44'/9000'/0'/0 branch of mnemonic.
func NewHD(mnemonic, hrp string) (*HD, error) {
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}

	key := master
	path := []uint32{
		hdkeychain.HardenedKeyStart + purpose,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + account,
		change,
	}
	for _, i := range path {
		key, err = key.Child(i)
		if err != nil {
			return nil, fmt.Errorf("derive %d: %w", i, err)
		}
	}

	return &HD{chainKey: key, hrp: hrp}, nil
}

// Derive returns the key at index i of the address branch.
func (h *HD) Derive(i uint32) (*Key, error) {
	if i >= hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("index %d out of range", i)
	}

	child, err := h.chainKey.Child(i)
	if err != nil {
		return nil, fmt.Errorf("derive %d: %w", i, err)
	}

	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, err
	}

	key, err := NewKey(priv.Serialize(), h.hrp)
	if err != nil {
		return nil, err
	}
	key.HDIndex = i
	return key, nil
}
