package swap

import (
	"context"
	"errors"
	"math/bits"

	"github.com/Permissionless-Software-Foundation/avax-dex/entity"
	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
)

// CreateOffer validates a proposal, parks the offered funds on a fresh
// holding address, builds the partial transaction and publishes the Offer.
// It returns the P2WDB hash of the Offer.
func (e *Engine) CreateOffer(ctx context.Context, body []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rid := requestID()
	hash, err := e.createOffer(ctx, rid, body)
	if err != nil {
		log.Errorf("[%s] create offer: %v", rid, err)
		return "", err
	}
	log.Printf("[%s] Offer published as %s", rid, hash)
	return hash, nil
}

func (e *Engine) createOffer(ctx context.Context, rid string, body []byte) (string, error) {
	trade, err := entity.NewOfferInput(body)
	if err != nil {
		return "", err
	}

	net := e.cfg.Network
	tokenID, err := tx.IDFromString(trade.TokenID)
	if err != nil {
		return "", &entity.ValidationError{Field: "tokenId", Message: "Property 'tokenId' must be a valid asset id."}
	}
	if tokenID == net.AvaxAssetID {
		return "", &entity.ValidationError{Field: "tokenId", Message: "Property 'tokenId' must not be the fee asset."}
	}

	fee, err := e.fee(ctx)
	if err != nil {
		return "", err
	}

	desc, err := e.deps.Ledger.GetAssetDescription(ctx, tokenID)
	if err != nil {
		return "", err
	}
	qty, err := desc.BaseUnits(trade.NumTokens)
	if err != nil {
		return "", &entity.ValidationError{Field: "numTokens", Message: err.Error()}
	}
	log.Debugf("[%s] %s %s %s (%d base units) for %d", rid, trade.BuyOrSell, trade.NumTokens, desc.Symbol, qty, trade.RateInSats)

	w, err := e.walletContext(ctx)
	if err != nil {
		return "", err
	}
	if err := e.ensureFunds(w, trade, tokenID, qty, fee); err != nil {
		return "", err
	}

	ok, err := e.deps.Publisher.CheckForSufficientFunds(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newError(ErrInsufficientFunds, "P2WDB writer does not have enough funds to write an entry")
	}

	index, err := e.deps.Counter.NextHDIndex(ctx)
	if err != nil {
		return "", err
	}
	holding, err := e.hd.Derive(index)
	if err != nil {
		return "", err
	}

	// The holding address receives what the taker will collect. A buy offer
	// also parks the fee of the final transaction.
	parked := Receiver{Address: holding.Address, AssetID: tokenID, Amount: qty}
	desired := tx.NewOutput(net.AvaxAssetID, trade.RateInSats, e.primary.ShortID)
	if trade.BuyOrSell == entity.Buy {
		parked = Receiver{Address: holding.Address, AssetID: net.AvaxAssetID, Amount: trade.RateInSats + fee}
		desired = tx.NewOutput(tokenID, qty, e.primary.ShortID)
	}

	txID, sent, err := e.send(ctx, w, fee, []Receiver{parked})
	if err != nil {
		return "", err
	}
	holdingUTXO, err := findOutput(txID, sent, parked.AssetID, parked.Amount, holding.ShortID)
	if err != nil {
		return "", err
	}
	log.Printf("[%s] Moved %d of %s to holding address %s (index %d)", rid, parked.Amount, net.assetLabel(parked.AssetID), holding.Address, index)

	partial, err := BuildPartialTx(net, holding, []tx.UTXO{holdingUTXO}, desired)
	if err != nil {
		return "", err
	}

	offer := &entity.Offer{
		Trade:          trade,
		Name:           desc.Name,
		Symbol:         desc.Symbol,
		UTXOTxID:       txID.String(),
		UTXOVout:       holdingUTXO.OutputIndex,
		TxHex:          partial.TxHex,
		AddrReferences: partial.AddrReferences,
		HDIndex:        index,
		DataType:       entity.DataTypeOffer,
	}

	hash, err := e.deps.Publisher.Write(ctx, e.cfg.AppID, offer)
	if err != nil {
		return "", err
	}
	offer.P2WDBHash = hash

	if err := e.deps.Store.SaveOffer(ctx, offer); err != nil {
		return "", err
	}
	return hash, nil
}

func (e *Engine) ensureFunds(w *wallet.Context, trade entity.Trade, tokenID tx.ID, qty, fee uint64) error {
	addr := w.Primary().Address
	avax := w.Balance(addr, e.cfg.Network.AvaxAssetID)

	if trade.BuyOrSell == entity.Sell {
		if w.Balance(addr, tokenID) < qty {
			return newError(ErrInsufficientFunds, "App wallet does not have enough tokens to satisfy the SELL offer.")
		}
		if avax < fee {
			return newError(ErrInsufficientFunds, "App wallet does not have enough avax to pay the transaction fee.")
		}
		return nil
	}

	// The multiplier is at least 1, so this also bounds the parked rate + fee.
	need, ok := reserve(trade.RateInSats, fee, e.cfg.BuyFeeMultiplier)
	if !ok {
		return &entity.ValidationError{Field: "rateInSats", Message: "Property 'rateInSats' is too large."}
	}
	if avax < need {
		return newError(ErrInsufficientFunds, "App wallet does not have enough avax to satisfy the BUY offer.")
	}
	return nil
}

// reserve returns rate + fee*times and false when it overflows.
func reserve(rate, fee, times uint64) (uint64, bool) {
	hi, fees := bits.Mul64(fee, times)
	if hi != 0 {
		return 0, false
	}
	sum, carry := bits.Add64(rate, fees, 0)
	return sum, carry == 0
}

// findOutput locates the single owner output of a transaction this wallet broadcast.
func findOutput(txID tx.ID, t *tx.Tx, assetID tx.ID, amount uint64, owner tx.ShortID) (tx.UTXO, error) {
	want := tx.NewOutput(assetID, amount, owner)
	for _, u := range tx.UTXOsOf(txID, &t.Unsigned) {
		if want.Matches(tx.TransferableOutput{AssetID: u.AssetID, Out: u.Out}) {
			return u, nil
		}
	}
	return tx.UTXO{}, errors.New("holding output not found in transaction " + txID.String())
}

// ListOffers returns the locally published Offers.
func (e *Engine) ListOffers(ctx context.Context) ([]*entity.Offer, error) {
	return e.deps.Store.ListOffers(ctx)
}

// ListOrders returns the locally tracked Orders.
func (e *Engine) ListOrders(ctx context.Context) ([]*entity.Order, error) {
	return e.deps.Store.ListOrders(ctx)
}

// TakenOrder returns the taken Order answering the Offer published under
// offerHash, or nil while the Offer is still open.
func (e *Engine) TakenOrder(ctx context.Context, offerHash string) (*entity.Order, error) {
	orders, err := e.deps.Store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		if order.OfferHash == offerHash && order.OrderStatus == entity.StatusTaken {
			return order, nil
		}
	}
	return nil, nil
}

// CreateOrder records a proposal delivered by the P2WDB webhook. It returns
// false without error when the proposal is a duplicate or its UTXO is spent.
func (e *Engine) CreateOrder(ctx context.Context, entry []byte) (bool, error) {
	rid := requestID()

	order, err := entity.NewOrder(entry)
	if err != nil {
		log.Errorf("[%s] create order: %v", rid, err)
		return false, err
	}

	if e.deps.Dedup != nil {
		first, err := e.deps.Dedup.MarkSeen(ctx, "p2wdb:"+order.P2WDBHash)
		if err != nil {
			log.Errorf("[%s] dedup %s: %v", rid, order.P2WDBHash, err)
		} else if !first {
			log.Debugf("[%s] Entry %s already delivered", rid, order.P2WDBHash)
			return false, nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.resolveUTXO(ctx, order.UTXOTxID, order.UTXOVout); err != nil {
		if errors.Is(err, ErrStaleReference) {
			log.Printf("[%s] Ignoring entry %s: %v", rid, order.P2WDBHash, err)
			return false, nil
		}
		log.Errorf("[%s] create order: %v", rid, err)
		return false, err
	}

	if err := e.deps.Store.SaveOrder(ctx, order); err != nil {
		log.Errorf("[%s] create order: %v", rid, err)
		return false, err
	}
	log.Printf("[%s] Order %s saved as %s", rid, order.P2WDBHash, order.OrderStatus)
	return true, nil
}

// TakeOrder combines a posted Order with this wallet's funds, signs the
// taker inputs and publishes the taken document. It returns its hash.
func (e *Engine) TakeOrder(ctx context.Context, hash string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rid := requestID()
	newHash, err := e.takeOrder(ctx, hash)
	if err != nil {
		log.Errorf("[%s] take order %s: %v", rid, hash, err)
		return "", err
	}
	log.Printf("[%s] Order %s taken, published as %s", rid, hash, newHash)
	return newHash, nil
}

func (e *Engine) takeOrder(ctx context.Context, hash string) (string, error) {
	order, err := e.deps.Store.FindOrder(ctx, hash)
	if err != nil {
		return "", err
	}
	if order.OrderStatus != entity.StatusPosted {
		return "", newError(ErrInvalidTransition, "order already taken")
	}

	fee, err := e.fee(ctx)
	if err != nil {
		return "", err
	}
	w, err := e.walletContext(ctx)
	if err != nil {
		return "", err
	}

	partial, err := TakePartialTx(e.cfg.Network, fee, PartialTx{TxHex: order.TxHex, AddrReferences: order.AddrReferences}, w)
	if err != nil {
		return "", err
	}

	taken := order.Taken(partial.TxHex, partial.AddrReferences)
	newHash, err := e.deps.Publisher.Write(ctx, e.cfg.AppID, taken)
	if err != nil {
		return "", err
	}
	taken.P2WDBHash = newHash

	if err := e.deps.Store.SaveOrder(ctx, taken); err != nil {
		return "", err
	}
	if err := e.deps.Store.AdvanceOrder(ctx, order.P2WDBHash, entity.StatusPosted, entity.StatusTaken, ""); err != nil {
		return "", err
	}
	return newHash, nil
}

// AcceptOffer checks a taken Order against the Offer it answers, adds the
// maker signatures and broadcasts the swap. It returns the ledger tx id.
func (e *Engine) AcceptOffer(ctx context.Context, orderHash string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rid := requestID()
	txID, err := e.acceptOffer(ctx, orderHash)
	if err != nil {
		log.Errorf("[%s] accept offer %s: %v", rid, orderHash, err)
		return "", err
	}
	log.Printf("[%s] Order %s accepted in tx %s", rid, orderHash, txID)
	return txID, nil
}

// CompleteOrder is AcceptOffer.
func (e *Engine) CompleteOrder(ctx context.Context, orderHash string) (string, error) {
	return e.AcceptOffer(ctx, orderHash)
}

func (e *Engine) acceptOffer(ctx context.Context, orderHash string) (string, error) {
	order, err := e.deps.Store.FindOrder(ctx, orderHash)
	if err != nil {
		return "", err
	}
	if order.OrderStatus != entity.StatusTaken {
		return "", newError(ErrInvalidTransition, "orderStatus must be taken")
	}

	offer, err := e.deps.Store.FindOffer(ctx, order.OfferHash)
	if err != nil {
		return "", err
	}

	result, err := ValidateIntegrity(e.cfg.Network, offer.TxHex, order.TxHex)
	if err != nil {
		return "", err
	}
	if err := result.Err(); err != nil {
		return "", err
	}

	holding, err := e.hd.Derive(offer.HDIndex)
	if err != nil {
		return "", err
	}
	taken := PartialTx{TxHex: order.TxHex, AddrReferences: order.AddrReferences}

	guard, err := ValidateMakerInputs(offer.TxHex, taken, wallet.NewContext(e.primary).WithHolding(holding))
	if err != nil {
		return "", err
	}
	if err := guard.Err(); err != nil {
		return "", err
	}

	// The holding address is the only one the maker signs for here.
	signedHex, err := CompleteOfferTxHex(offer.TxHex, taken, wallet.NewContext(holding))
	if err != nil {
		return "", err
	}

	id, err := e.deps.Ledger.Broadcast(ctx, signedHex)
	if err != nil {
		return "", newError(ErrBroadcastRejected, "broadcast rejected: %v", err)
	}

	if err := e.deps.Store.AdvanceOrder(ctx, order.P2WDBHash, entity.StatusTaken, entity.StatusAccepted, id.String()); err != nil {
		return "", err
	}
	if e.deps.Notifier != nil {
		e.deps.Notifier.TradeCompleted(order, id.String())
	}
	return id.String(), nil
}
