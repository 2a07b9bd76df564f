package swap

import (
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
)

// BuildPartialTx spends the holding address's UTXOs and pays desired to
// the counterparty. The result is unsigned.
func BuildPartialTx(net Network, holding *wallet.Key, utxos []tx.UTXO, desired tx.TransferableOutput) (*PartialTx, error) {
	if len(utxos) == 0 {
		return nil, newError(ErrInsufficientUTXO, "holding address %s doesn't have any UTXOs", holding.Address)
	}

	refs := AddrReferences{}
	base := tx.BaseTx{
		NetworkID:    net.NetworkID,
		BlockchainID: net.BlockchainID,
		Outs:         []tx.TransferableOutput{desired},
	}
	for _, u := range utxos {
		in, err := u.Input(holding.ShortID)
		if err != nil {
			return nil, newError(ErrInsufficientUTXO, "%s", err)
		}
		base.Ins = append(base.Ins, in)
		refs[u.UTXOID()] = holding.Address
	}
	base.Sort()

	t := &tx.Tx{Unsigned: base}
	return &PartialTx{TxHex: t.Hex(), AddrReferences: refs.String()}, nil
}
