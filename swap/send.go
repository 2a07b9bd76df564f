package swap

import (
	"context"
	"errors"
	"math"

	"github.com/Permissionless-Software-Foundation/avax-dex/entity"
	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
)

// Receiver is one payment of a Send.
type Receiver struct {
	Address string
	AssetID tx.ID
	Amount  uint64
}

// Send pays receivers from the primary address and returns the ledger id.
func (e *Engine) Send(ctx context.Context, receivers []Receiver) (tx.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fee, err := e.fee(ctx)
	if err != nil {
		return tx.Empty, err
	}
	w, err := e.walletContext(ctx)
	if err != nil {
		return tx.Empty, err
	}

	id, _, err := e.send(ctx, w, fee, receivers)
	return id, err
}

func (e *Engine) send(ctx context.Context, w *wallet.Context, fee uint64, receivers []Receiver) (tx.ID, *tx.Tx, error) {
	if len(receivers) == 0 {
		return tx.Empty, nil, errors.New("no receivers")
	}

	from := w.Primary()
	avax := e.cfg.Network.AvaxAssetID

	var (
		outs   []tx.TransferableOutput
		assets []tx.ID
	)
	needs := map[tx.ID]uint64{}
	need := func(assetID tx.ID, amount uint64) error {
		if _, ok := needs[assetID]; !ok {
			assets = append(assets, assetID)
		}
		if needs[assetID] > math.MaxUint64-amount {
			return errors.New("amount overflows")
		}
		needs[assetID] += amount
		return nil
	}

	for _, r := range receivers {
		to, err := tx.ShortIDFromAddress(r.Address)
		if err != nil {
			return tx.Empty, nil, &entity.ValidationError{Field: "address", Message: err.Error()}
		}
		if r.Amount == 0 {
			return tx.Empty, nil, &entity.ValidationError{Field: "amount", Message: "amount must be greater than 0"}
		}
		outs = append(outs, tx.NewOutput(r.AssetID, r.Amount, to))
		if err := need(r.AssetID, r.Amount); err != nil {
			return tx.Empty, nil, err
		}
	}
	if err := need(avax, fee); err != nil {
		return tx.Empty, nil, err
	}

	refs := AddrReferences{}
	var ins []tx.TransferableInput
	for _, assetID := range assets {
		amount := needs[assetID]
		picked, total, ok := selectCovering(amount, w.UTXOsOfAsset(from.Address, assetID))
		if !ok {
			return tx.Empty, nil, newError(ErrInsufficientFunds, "Not enough %s in the selected address", e.cfg.Network.assetLabel(assetID))
		}
		for _, u := range picked {
			in, err := u.Input(from.ShortID)
			if err != nil {
				return tx.Empty, nil, err
			}
			ins = append(ins, in)
			refs[u.UTXOID()] = from.Address
		}
		if total > amount {
			outs = append(outs, tx.NewOutput(assetID, total-amount, from.ShortID))
		}
	}

	base := tx.BaseTx{
		NetworkID:    e.cfg.Network.NetworkID,
		BlockchainID: e.cfg.Network.BlockchainID,
		Outs:         outs,
		Ins:          ins,
	}
	base.Sort()

	signed, err := CompleteTx(&tx.Tx{Unsigned: base}, refs, w)
	if err != nil {
		return tx.Empty, nil, err
	}

	id, err := e.deps.Ledger.Broadcast(ctx, signed.Hex())
	if err != nil {
		return tx.Empty, nil, newError(ErrBroadcastRejected, "broadcast rejected: %v", err)
	}
	log.Printf("Sent %d outputs from %s in tx %s", len(receivers), from.Address, id)
	return id, signed, nil
}
