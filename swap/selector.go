package swap

import (
	"sort"

	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
)

// SelectUTXO returns the smallest UTXO holding at least target. Ties keep
// the first seen. ok is false when nothing qualifies.
func SelectUTXO(target uint64, utxos []tx.UTXO) (utxo tx.UTXO, ok bool) {
	for _, u := range utxos {
		if u.Amount() < target {
			continue
		}
		if !ok || u.Amount() < utxo.Amount() {
			utxo, ok = u, true
		}
	}
	return utxo, ok
}

// selectCovering picks UTXOs summing to at least target: a single UTXO when
// one is large enough, otherwise the largest first until covered.
func selectCovering(target uint64, utxos []tx.UTXO) ([]tx.UTXO, uint64, bool) {
	if u, ok := SelectUTXO(target, utxos); ok {
		return []tx.UTXO{u}, u.Amount(), true
	}

	sorted := append([]tx.UTXO(nil), utxos...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount() > sorted[j].Amount() })

	var (
		picked []tx.UTXO
		total  uint64
	)
	for _, u := range sorted {
		picked = append(picked, u)
		total += u.Amount()
		if total >= target {
			return picked, total, true
		}
	}
	return nil, total, false
}
