package swap

import (
	"context"

	"github.com/Permissionless-Software-Foundation/avax-dex/asset"
	"github.com/Permissionless-Software-Foundation/avax-dex/entity"
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
)

// Ledger is the asset chain as seen by the engine.
type Ledger interface {
	GetUTXOs(ctx context.Context, addr string) ([]tx.UTXO, error)
	// GetTxOut returns nil when the output has been spent.
	GetTxOut(ctx context.Context, txID tx.ID, vout uint32) (*tx.UTXO, error)
	GetAssetDescription(ctx context.Context, assetID tx.ID) (*asset.Asset, error)
	GetTxFee(ctx context.Context) (uint64, error)
	Broadcast(ctx context.Context, signedTxHex string) (tx.ID, error)
}

// Publisher writes documents to the shared P2WDB.
type Publisher interface {
	Write(ctx context.Context, appID string, data interface{}) (string, error)
	CheckForSufficientFunds(ctx context.Context) (bool, error)
}

// Store is the local cache of published Offers and observed Orders.
// Lookups return ErrNotFound when nothing matches.
type Store interface {
	SaveOffer(ctx context.Context, offer *entity.Offer) error
	ListOffers(ctx context.Context) ([]*entity.Offer, error)
	FindOffer(ctx context.Context, hash string) (*entity.Offer, error)

	// SaveOrder keeps an existing record untouched.
	SaveOrder(ctx context.Context, order *entity.Order) error
	ListOrders(ctx context.Context) ([]*entity.Order, error)
	FindOrder(ctx context.Context, hash string) (*entity.Order, error)
	// AdvanceOrder moves an order from one status to the next and fails with
	// ErrInvalidTransition when the order is not in from.
	AdvanceOrder(ctx context.Context, hash string, from, to entity.Status, settlementTxID string) error
	DeleteOrder(ctx context.Context, hash string) error
}

// HDCounter hands out unused HD indexes for holding addresses.
type HDCounter interface {
	NextHDIndex(ctx context.Context) (uint32, error)
}

// Deduper reports whether a key is seen for the first time.
type Deduper interface {
	MarkSeen(ctx context.Context, key string) (bool, error)
}

// Notifier is told about settled trades.
type Notifier interface {
	TradeCompleted(order *entity.Order, txID string)
}
