package swap

import (
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
)

// Keyring finds the signing key of an address.
type Keyring interface {
	Key(addr string) (*wallet.Key, bool)
}

// PartiallySignTx signs every input whose referenced address has a key in
// keys. Other inputs keep the credential of a prior round or stay pending.
func PartiallySignTx(t *tx.Tx, refs AddrReferences, keys Keyring) (*tx.Tx, error) {
	ins := t.Unsigned.Ins
	if t.IsSigned() && len(t.Creds) != len(ins) {
		return nil, fmt.Errorf("transaction has %d credentials for %d inputs", len(t.Creds), len(ins))
	}

	digest := t.Unsigned.Digest()
	fresh := make([]tx.Credential, len(ins))
	for i, in := range ins {
		if _, err := tx.CredentialTypeFor(in.TypeID); err != nil {
			return nil, err
		}

		fresh[i] = tx.Pending()
		addr, ok := refs[in.UTXOID()]
		if !ok {
			continue
		}
		key, ok := keys.Key(addr)
		if !ok {
			continue
		}

		sig, err := key.Sign(digest)
		if err != nil {
			return nil, fmt.Errorf("sign input %d: %w", i, err)
		}
		fresh[i] = tx.Signed(sig)
	}

	return &tx.Tx{
		Unsigned: t.Unsigned,
		Creds:    tx.MergeCredentials(t.Creds, fresh),
	}, nil
}

// CompleteTx runs the final signing round and refuses a transaction that
// still has a pending credential.
func CompleteTx(t *tx.Tx, refs AddrReferences, keys Keyring) (*tx.Tx, error) {
	signed, err := PartiallySignTx(t, refs, keys)
	if err != nil {
		return nil, err
	}
	if !tx.HasAllSignatures(signed.Creds, len(signed.Unsigned.Ins)) {
		return nil, newError(ErrIncompleteSignature, "The transaction is not fully signed")
	}
	return signed, nil
}

// CompleteOfferTxHex runs the final signing round over order but signs only
// the inputs it shares with offerTxHex. Inputs added by the other party are
// never signed, whatever their references claim.
func CompleteOfferTxHex(offerTxHex string, order PartialTx, keys Keyring) (string, error) {
	offerTx, err := tx.ParseHex(offerTxHex)
	if err != nil {
		return "", fmt.Errorf("offer tx: %w", err)
	}
	t, refs, err := order.decode()
	if err != nil {
		return "", err
	}
	signed, err := CompleteTx(t, refs.only(offerTx.Unsigned.Ins), keys)
	if err != nil {
		return "", err
	}
	return signed.Hex(), nil
}

// CompleteTxHex is CompleteTx over the transport form.
func CompleteTxHex(p PartialTx, keys Keyring) (string, error) {
	t, refs, err := p.decode()
	if err != nil {
		return "", err
	}
	signed, err := CompleteTx(t, refs, keys)
	if err != nil {
		return "", err
	}
	return signed.Hex(), nil
}
