package swap

import (
	"context"
	"errors"

	"github.com/Permissionless-Software-Foundation/avax-dex/log"
)

// RemoveStaleOrders deletes every Order whose UTXO has been spent. A failure
// on one Order is logged and the sweep goes on. It returns the number removed.
func (e *Engine) RemoveStaleOrders(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	orders, err := e.deps.Store.ListOrders(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("Checking %d orders for spent UTXOs", len(orders))

	removed := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}

		_, stale := e.resolveUTXO(ctx, order.UTXOTxID, order.UTXOVout)
		if stale == nil {
			continue
		}
		if !errors.Is(stale, ErrStaleReference) {
			log.Errorf("check order %s: %v", order.P2WDBHash, stale)
			continue
		}

		if err := e.deps.Store.DeleteOrder(ctx, order.P2WDBHash); err != nil {
			log.Errorf("delete order %s: %v", order.P2WDBHash, err)
			continue
		}
		removed++
		log.Printf("Removed order %s: %v", order.P2WDBHash, stale)
	}
	return removed, nil
}
