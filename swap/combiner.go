package swap

import (
	"errors"
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
)

// TakePartialTx completes a maker's skeleton with the taker's funds from w:
// it pays the requested output, returns change, collects the offered asset
// and signs the taker's inputs.
func TakePartialTx(net Network, fee uint64, partial PartialTx, w *wallet.Context) (*PartialTx, error) {
	skeleton, refs, err := partial.decode()
	if err != nil {
		return nil, err
	}
	refs = refs.clone()
	own := AddrReferences{}
	base := skeleton.Unsigned

	if len(base.Ins) == 0 {
		return nil, errors.New("partial transaction has no inputs")
	}
	offered := base.Ins[0].AssetID
	var offeredIn uint64
	for _, in := range base.Ins {
		if in.AssetID != offered {
			return nil, errors.New("partial transaction inputs mix assets")
		}
		offeredIn += in.In.Amount
	}

	var (
		requested     *tx.TransferableOutput
		offeredChange uint64
	)
	for i, out := range base.Outs {
		if out.AssetID == offered {
			offeredChange += out.Out.Amount
			continue
		}
		if requested != nil {
			return nil, errors.New("partial transaction requests more than one asset")
		}
		requested = &base.Outs[i]
	}
	if requested == nil {
		return nil, errors.New("partial transaction has no requested output")
	}
	if offeredChange > offeredIn {
		return nil, errors.New("partial transaction spends more than its inputs")
	}

	taker := w.Primary()
	if len(w.UTXOsOf(taker.Address)) == 0 {
		return nil, newError(ErrInsufficientUTXO, "wallet doesn't have any UTXOs")
	}

	required := requested.Out.Amount
	if requested.AssetID == net.AvaxAssetID {
		required += fee
	}

	ins := append([]tx.TransferableInput(nil), base.Ins...)
	outs := append([]tx.TransferableOutput(nil), base.Outs...)

	spend := func(assetID tx.ID, amount uint64) error {
		utxo, ok := SelectUTXO(amount, unspent(w.UTXOsOfAsset(taker.Address, assetID), ins))
		if !ok {
			return newError(ErrInsufficientFunds, "Not enough %s in the selected address", net.assetLabel(assetID))
		}
		in, err := utxo.Input(taker.ShortID)
		if err != nil {
			return err
		}
		ins = append(ins, in)
		refs[utxo.UTXOID()] = taker.Address
		own[utxo.UTXOID()] = taker.Address
		if utxo.Amount() > amount {
			outs = append(outs, tx.NewOutput(assetID, utxo.Amount()-amount, taker.ShortID))
		}
		return nil
	}

	if err := spend(requested.AssetID, required); err != nil {
		return nil, err
	}
	if requested.AssetID != net.AvaxAssetID && offered != net.AvaxAssetID {
		if err := spend(net.AvaxAssetID, fee); err != nil {
			return nil, err
		}
	}

	received := offeredIn - offeredChange
	if offered == net.AvaxAssetID {
		if received <= fee {
			return nil, newError(ErrInsufficientFunds, "Not enough avax in the selected address")
		}
		received -= fee
	}
	outs = append(outs, tx.NewOutput(offered, received, taker.ShortID))

	combined := &tx.Tx{Unsigned: tx.BaseTx{
		NetworkID:    base.NetworkID,
		BlockchainID: base.BlockchainID,
		Outs:         outs,
		Ins:          ins,
		Memo:         base.Memo,
	}}
	combined.Unsigned.Sort()

	// Skeleton inputs are the maker's to sign, whatever their references say.
	signed, err := PartiallySignTx(combined, own, w)
	if err != nil {
		return nil, fmt.Errorf("sign taken transaction: %w", err)
	}
	return &PartialTx{TxHex: signed.Hex(), AddrReferences: refs.String()}, nil
}

// unspent drops UTXOs already consumed by ins.
func unspent(utxos []tx.UTXO, ins []tx.TransferableInput) []tx.UTXO {
	used := make(map[string]bool, len(ins))
	for _, in := range ins {
		used[in.UTXOID()] = true
	}

	var free []tx.UTXO
	for _, u := range utxos {
		if !used[u.UTXOID()] {
			free = append(free, u)
		}
	}
	return free
}
