package swap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Permissionless-Software-Foundation/avax-dex/entity"
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
	"github.com/google/uuid"
)

// Config tunes the engine.
type Config struct {
	Network Network
	AppID   string
	// TxFee overrides the ledger fee when non-zero.
	TxFee uint64
	// BuyFeeMultiplier is the number of fees a buy offer reserves.
	BuyFeeMultiplier uint64
}

// Deps are the collaborators of the engine. Dedup and Notifier are optional.
type Deps struct {
	Ledger    Ledger
	Publisher Publisher
	Store     Store
	Counter   HDCounter
	Dedup     Deduper
	Notifier  Notifier
}

// Engine drives Offers and Orders through posted, taken and accepted.
// Transitions run one at a time.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	deps    Deps
	hd      *wallet.HD
	primary *wallet.Key
}

// NewEngine returns an engine signing with the keys of hd. Index 0 is the
// primary address; holding addresses come from Deps.Counter.
func NewEngine(cfg Config, hd *wallet.HD, deps Deps) (*Engine, error) {
	if deps.Ledger == nil || deps.Publisher == nil || deps.Store == nil || deps.Counter == nil {
		return nil, errors.New("ledger, publisher, store and counter are required")
	}
	if cfg.BuyFeeMultiplier == 0 {
		cfg.BuyFeeMultiplier = 2
	}

	primary, err := hd.Derive(0)
	if err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg, deps: deps, hd: hd, primary: primary}, nil
}

// Address returns the primary address of the wallet.
func (e *Engine) Address() string {
	return e.primary.Address
}

func (e *Engine) fee(ctx context.Context) (uint64, error) {
	if e.cfg.TxFee > 0 {
		return e.cfg.TxFee, nil
	}
	fee, err := e.deps.Ledger.GetTxFee(ctx)
	if err != nil {
		return 0, fmt.Errorf("get tx fee: %w", err)
	}
	return fee, nil
}

// walletContext snapshots the primary address UTXOs.
func (e *Engine) walletContext(ctx context.Context) (*wallet.Context, error) {
	utxos, err := e.deps.Ledger.GetUTXOs(ctx, e.primary.Address)
	if err != nil {
		return nil, fmt.Errorf("get utxos of %s: %w", e.primary.Address, err)
	}
	return wallet.NewContext(e.primary).WithUTXOs(e.primary.Address, utxos), nil
}

// resolveUTXO returns the referenced output or ErrStaleReference when spent.
func (e *Engine) resolveUTXO(ctx context.Context, txID string, vout uint32) (*tx.UTXO, error) {
	id, err := tx.IDFromString(txID)
	if err != nil {
		return nil, &entity.ValidationError{Field: "utxoTxid", Message: "Property 'utxoTxid' must be a valid transaction id."}
	}

	utxo, err := e.deps.Ledger.GetTxOut(ctx, id, vout)
	if err != nil {
		return nil, fmt.Errorf("get tx out %s:%d: %w", txID, vout, err)
	}
	if utxo == nil {
		return nil, newError(ErrStaleReference, "UTXO %s:%d has been spent", txID, vout)
	}
	return utxo, nil
}

func requestID() string {
	return uuid.NewString()[:8]
}
