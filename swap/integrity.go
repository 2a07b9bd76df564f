package swap

import (
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
)

// Result is the outcome of an integrity check.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Err returns nil for a valid result, an ErrIntegrityViolation otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return newError(ErrIntegrityViolation, "%s", r.Message)
}

// ValidateIntegrity checks that orderTxHex still spends every input and
// pays every output of offerTxHex. Outputs compare by asset, amount,
// locktime, threshold and owner set. The error is only set when a
// transaction cannot be decoded.
func ValidateIntegrity(net Network, offerTxHex, orderTxHex string) (Result, error) {
	offerTx, err := tx.ParseHex(offerTxHex)
	if err != nil {
		return Result{}, fmt.Errorf("offer tx: %w", err)
	}
	orderTx, err := tx.ParseHex(orderTxHex)
	if err != nil {
		return Result{}, fmt.Errorf("order tx: %w", err)
	}

	orderIns := make(map[string]bool, len(orderTx.Unsigned.Ins))
	for _, in := range orderTx.Unsigned.Ins {
		orderIns[in.UTXOID()] = true
	}
	for _, in := range offerTx.Unsigned.Ins {
		if !orderIns[in.UTXOID()] {
			return Result{Message: fmt.Sprintf("UTXO %s is not present in the order", in.UTXOID())}, nil
		}
	}

	for _, want := range offerTx.Unsigned.Outs {
		found := false
		for _, got := range orderTx.Unsigned.Outs {
			if want.Matches(got) {
				found = true
				break
			}
		}
		if !found {
			return Result{Message: fmt.Sprintf("Missing output with asset '%s', amount %d and addresses %v",
				want.AssetID, want.Out.Amount, net.addresses(want.SortedAddrs()))}, nil
		}
	}

	return Result{Valid: true}, nil
}

// ValidateMakerInputs checks that every input order adds to offerTxHex is
// referenced to an address keys cannot sign for.
func ValidateMakerInputs(offerTxHex string, order PartialTx, keys Keyring) (Result, error) {
	offerTx, err := tx.ParseHex(offerTxHex)
	if err != nil {
		return Result{}, fmt.Errorf("offer tx: %w", err)
	}
	orderTx, refs, err := order.decode()
	if err != nil {
		return Result{}, fmt.Errorf("order tx: %w", err)
	}

	offered := make(map[string]bool, len(offerTx.Unsigned.Ins))
	for _, in := range offerTx.Unsigned.Ins {
		offered[in.UTXOID()] = true
	}
	for _, in := range orderTx.Unsigned.Ins {
		id := in.UTXOID()
		if offered[id] {
			continue
		}
		if addr, ok := refs[id]; ok {
			if _, mine := keys.Key(addr); mine {
				return Result{Message: fmt.Sprintf("UTXO %s of %s is not part of the offer", id, addr)}, nil
			}
		}
	}

	return Result{Valid: true}, nil
}
