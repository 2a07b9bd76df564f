package swap

import (
	"encoding/json"
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
)

// Network identifies the ledger a transaction is built for.
type Network struct {
	NetworkID    uint32
	BlockchainID tx.ID
	AvaxAssetID  tx.ID
	HRP          string
}

// AddrReferences maps UTXO ids to the address controlling them.
type AddrReferences map[string]string

// ParseAddrReferences decodes the JSON transport form. Empty input is an empty map.
func ParseAddrReferences(str string) (AddrReferences, error) {
	refs := AddrReferences{}
	if str == "" {
		return refs, nil
	}
	if err := json.Unmarshal([]byte(str), &refs); err != nil {
		return nil, fmt.Errorf("invalid addrReferences: %w", err)
	}
	return refs, nil
}

// String returns the JSON transport form.
func (r AddrReferences) String() string {
	raw, _ := json.Marshal(map[string]string(r))
	return string(raw)
}

// only keeps the references of ins.
func (r AddrReferences) only(ins []tx.TransferableInput) AddrReferences {
	next := make(AddrReferences, len(ins))
	for _, in := range ins {
		if addr, ok := r[in.UTXOID()]; ok {
			next[in.UTXOID()] = addr
		}
	}
	return next
}

func (r AddrReferences) clone() AddrReferences {
	next := make(AddrReferences, len(r))
	for k, v := range r {
		next[k] = v
	}
	return next
}

// PartialTx is a transaction in transit between the two parties.
type PartialTx struct {
	TxHex          string `json:"txHex"`
	AddrReferences string `json:"addrReferences"`
}

func (p PartialTx) decode() (*tx.Tx, AddrReferences, error) {
	t, err := tx.ParseHex(p.TxHex)
	if err != nil {
		return nil, nil, err
	}
	refs, err := ParseAddrReferences(p.AddrReferences)
	if err != nil {
		return nil, nil, err
	}
	return t, refs, nil
}

func (n Network) assetLabel(id tx.ID) string {
	if id == n.AvaxAssetID {
		return "avax"
	}
	return id.String()
}

func (n Network) addresses(ids []tx.ShortID) []string {
	addrs := make([]string, 0, len(ids))
	for _, id := range ids {
		addr, err := id.Address(wallet.Chain, n.HRP)
		if err != nil {
			addr = id.Hex()
		}
		addrs = append(addrs, addr)
	}
	return addrs
}
