package wallet

import (
	"errors"
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/util"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Chain is the alias prefix of asset chain addresses.
const Chain = "X"

// compact signatures carry 27 + 4 (compressed) in the recovery byte.
const compactRecoveryOffset = 27 + 4

// Key is a secp256k1 key able to sign for one address.
type Key struct {
	priv    *secp256k1.PrivateKey
	ShortID tx.ShortID
	Address string
	HDIndex uint32
}

// NewKey wraps 32 private key bytes.
func NewKey(privBytes []byte, hrp string) (*Key, error) {
	if len(privBytes) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key must be %d bytes", secp256k1.PrivKeyBytesLen)
	}

	priv := secp256k1.PrivKeyFromBytes(privBytes)
	var sid tx.ShortID
	copy(sid[:], util.PubKeyToAddressID(priv.PubKey().SerializeCompressed()))

	addr, err := sid.Address(Chain, hrp)
	if err != nil {
		return nil, err
	}

	return &Key{priv: priv, ShortID: sid, Address: addr}, nil
}

// PublicKey returns the compressed public key.
func (k *Key) PublicKey() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

// Sign returns r || s || v over a 32 byte digest.
func (k *Key) Sign(digest []byte) (tx.Signature, error) {
	var sig tx.Signature
	if len(digest) != 32 {
		return sig, errors.New("digest must be 32 bytes")
	}

	compact := ecdsa.SignCompact(k.priv, digest, true)
	copy(sig[:64], compact[1:])
	sig[64] = compact[0] - compactRecoveryOffset
	return sig, nil
}

// RecoverShortID returns the address id that produced sig over digest.
func RecoverShortID(digest []byte, sig tx.Signature) (tx.ShortID, error) {
	var sid tx.ShortID
	if sig[64] > 3 {
		return sid, fmt.Errorf("invalid recovery id %d", sig[64])
	}

	compact := make([]byte, 65)
	compact[0] = sig[64] + compactRecoveryOffset
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return sid, err
	}
	copy(sid[:], util.PubKeyToAddressID(pub.SerializeCompressed()))
	return sid, nil
}
