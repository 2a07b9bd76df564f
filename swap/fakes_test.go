package swap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Permissionless-Software-Foundation/avax-dex/asset"
	"github.com/Permissionless-Software-Foundation/avax-dex/entity"
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
	"github.com/stretchr/testify/require"
)

const (
	makerMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	takerMnemonic = "legal winner thank year wave sausage worth useful legal winner thank yellow"
	testFee       = uint64(1000)
)

var (
	avaxID  = fillID(0xaa)
	tokenID = fillID(0x11)
	otherID = fillID(0x22)

	testNet = Network{
		NetworkID:    12345,
		BlockchainID: fillID(0x01),
		AvaxAssetID:  avaxID,
		HRP:          "local",
	}
)

func fillID(b byte) tx.ID {
	var id tx.ID
	for i := range id {
		id[i] = b
	}
	return id
}

func newHD(t *testing.T, mnemonic string) *wallet.HD {
	hd, err := wallet.NewHD(mnemonic, testNet.HRP)
	require.NoError(t, err)
	return hd
}

func deriveKey(t *testing.T, hd *wallet.HD, i uint32) *wallet.Key {
	k, err := hd.Derive(i)
	require.NoError(t, err)
	return k
}

// fakeLedger keeps a UTXO set and checks signatures and balances of every
// broadcast transaction before applying it.
type fakeLedger struct {
	fee          uint64
	seq          byte
	utxos        map[string]tx.UTXO
	order        []string
	assets       map[tx.ID]*asset.Asset
	broadcastErr error
	txOutErr     map[string]error
	issued       []*tx.Tx
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		fee:   testFee,
		utxos: map[string]tx.UTXO{},
		assets: map[tx.ID]*asset.Asset{
			tokenID: {AssetID: tokenID.String(), Symbol: "TOK", Name: "Token", Denomination: 2},
			otherID: {AssetID: otherID.String(), Symbol: "OTH", Name: "Other", Denomination: 0},
		},
		txOutErr: map[string]error{},
	}
}

func (l *fakeLedger) add(u tx.UTXO) {
	l.utxos[u.UTXOID()] = u
	l.order = append(l.order, u.UTXOID())
}

func (l *fakeLedger) fund(owner *wallet.Key, assetID tx.ID, amount uint64) tx.UTXO {
	l.seq++
	var id tx.ID
	id[0], id[1] = 0xf0, l.seq
	u := tx.UTXO{
		TxID:    id,
		AssetID: assetID,
		Out:     tx.TransferOutput{Amount: amount, Threshold: 1, Addrs: []tx.ShortID{owner.ShortID}},
	}
	l.add(u)
	return u
}

func (l *fakeLedger) balance(owner *wallet.Key, assetID tx.ID) uint64 {
	var total uint64
	for _, u := range l.utxos {
		if u.AssetID == assetID && u.Out.Addrs[0] == owner.ShortID {
			total += u.Amount()
		}
	}
	return total
}

func (l *fakeLedger) GetUTXOs(ctx context.Context, addr string) ([]tx.UTXO, error) {
	sid, err := tx.ShortIDFromAddress(addr)
	if err != nil {
		return nil, err
	}
	var utxos []tx.UTXO
	for _, id := range l.order {
		u, ok := l.utxos[id]
		if !ok {
			continue
		}
		for _, a := range u.Out.Addrs {
			if a == sid {
				utxos = append(utxos, u)
				break
			}
		}
	}
	return utxos, nil
}

func (l *fakeLedger) GetTxOut(ctx context.Context, txID tx.ID, vout uint32) (*tx.UTXO, error) {
	id := tx.UTXOID(txID, vout)
	if err := l.txOutErr[id]; err != nil {
		return nil, err
	}
	u, ok := l.utxos[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (l *fakeLedger) GetAssetDescription(ctx context.Context, assetID tx.ID) (*asset.Asset, error) {
	a, ok := l.assets[assetID]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return a, nil
}

func (l *fakeLedger) GetTxFee(ctx context.Context) (uint64, error) {
	return l.fee, nil
}

func (l *fakeLedger) Broadcast(ctx context.Context, signedTxHex string) (tx.ID, error) {
	if l.broadcastErr != nil {
		return tx.Empty, l.broadcastErr
	}

	t, err := tx.ParseHex(signedTxHex)
	if err != nil {
		return tx.Empty, err
	}
	ins := t.Unsigned.Ins
	if !tx.HasAllSignatures(t.Creds, len(ins)) {
		return tx.Empty, errors.New("missing signatures")
	}

	digest := t.Unsigned.Digest()
	in, out := map[tx.ID]uint64{}, map[tx.ID]uint64{}
	for i, input := range ins {
		u, ok := l.utxos[input.UTXOID()]
		if !ok {
			return tx.Empty, fmt.Errorf("utxo %s missing or spent", input.UTXOID())
		}
		signer, err := wallet.RecoverShortID(digest, t.Creds[i].Sigs[0])
		if err != nil {
			return tx.Empty, err
		}
		if signer != u.Out.Addrs[input.In.SigIndices[0]] {
			return tx.Empty, fmt.Errorf("input %d signed by the wrong key", i)
		}
		if input.In.Amount != u.Amount() || input.AssetID != u.AssetID {
			return tx.Empty, fmt.Errorf("input %d does not match its utxo", i)
		}
		in[u.AssetID] += u.Amount()
	}
	for _, o := range t.Unsigned.Outs {
		out[o.AssetID] += o.Out.Amount
	}
	for assetID := range out {
		if _, ok := in[assetID]; !ok {
			return tx.Empty, fmt.Errorf("asset %s minted", assetID)
		}
	}
	for assetID, amount := range in {
		burn := uint64(0)
		if assetID == avaxID {
			burn = l.fee
		}
		if amount != out[assetID]+burn {
			return tx.Empty, fmt.Errorf("asset %s does not balance: in %d out %d", assetID, amount, out[assetID])
		}
	}
	if _, ok := in[avaxID]; !ok {
		return tx.Empty, errors.New("no fee paid")
	}

	for _, input := range ins {
		delete(l.utxos, input.UTXOID())
	}
	id := t.ID()
	for _, u := range tx.UTXOsOf(id, &t.Unsigned) {
		l.add(u)
	}
	l.issued = append(l.issued, t)
	return id, nil
}

type fakePublisher struct {
	seq     int
	entries map[string][]byte
	broke   bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{entries: map[string][]byte{}}
}

func (p *fakePublisher) Write(ctx context.Context, appID string, data interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	p.seq++
	hash := fmt.Sprintf("zdpuHash%d", p.seq)
	p.entries[hash] = raw
	return hash, nil
}

func (p *fakePublisher) CheckForSufficientFunds(ctx context.Context) (bool, error) {
	return !p.broke, nil
}

// entry returns the webhook payload of a written document.
func (p *fakePublisher) entry(t *testing.T, hash string) []byte {
	raw, ok := p.entries[hash]
	require.True(t, ok, hash)
	return []byte(fmt.Sprintf(`{"hash":%q,"txid":"burn","timestamp":"now","data":%s}`, hash, raw))
}

type memStore struct {
	offers     map[string]*entity.Offer
	offerOrder []string
	orders     map[string]*entity.Order
	orderOrder []string
	deleteErr  error
}

func newMemStore() *memStore {
	return &memStore{offers: map[string]*entity.Offer{}, orders: map[string]*entity.Order{}}
}

func (s *memStore) SaveOffer(ctx context.Context, offer *entity.Offer) error {
	cp := *offer
	s.offers[offer.P2WDBHash] = &cp
	s.offerOrder = append(s.offerOrder, offer.P2WDBHash)
	return nil
}

func (s *memStore) ListOffers(ctx context.Context) ([]*entity.Offer, error) {
	var offers []*entity.Offer
	for _, h := range s.offerOrder {
		cp := *s.offers[h]
		offers = append(offers, &cp)
	}
	return offers, nil
}

func (s *memStore) FindOffer(ctx context.Context, hash string) (*entity.Offer, error) {
	o, ok := s.offers[hash]
	if !ok {
		return nil, newError(ErrNotFound, "offer %s not found", hash)
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) SaveOrder(ctx context.Context, order *entity.Order) error {
	if _, ok := s.orders[order.P2WDBHash]; ok {
		return nil
	}
	cp := *order
	s.orders[order.P2WDBHash] = &cp
	s.orderOrder = append(s.orderOrder, order.P2WDBHash)
	return nil
}

func (s *memStore) ListOrders(ctx context.Context) ([]*entity.Order, error) {
	var orders []*entity.Order
	for _, h := range s.orderOrder {
		if o, ok := s.orders[h]; ok {
			cp := *o
			orders = append(orders, &cp)
		}
	}
	return orders, nil
}

func (s *memStore) FindOrder(ctx context.Context, hash string) (*entity.Order, error) {
	o, ok := s.orders[hash]
	if !ok {
		return nil, newError(ErrNotFound, "order %s not found", hash)
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) AdvanceOrder(ctx context.Context, hash string, from, to entity.Status, settlementTxID string) error {
	o, ok := s.orders[hash]
	if !ok {
		return newError(ErrNotFound, "order %s not found", hash)
	}
	if o.OrderStatus != from {
		return newError(ErrInvalidTransition, "order %s is %s", hash, o.OrderStatus)
	}
	o.OrderStatus = to
	if settlementTxID != "" {
		o.SettlementTxID = settlementTxID
	}
	return nil
}

func (s *memStore) DeleteOrder(ctx context.Context, hash string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.orders, hash)
	return nil
}

type counter struct {
	next uint32
}

func (c *counter) NextHDIndex(ctx context.Context) (uint32, error) {
	c.next++
	return c.next, nil
}

type dedup map[string]bool

func (d dedup) MarkSeen(ctx context.Context, key string) (bool, error) {
	if d[key] {
		return false, nil
	}
	d[key] = true
	return true, nil
}

type notices []string

func (n *notices) TradeCompleted(order *entity.Order, txID string) {
	*n = append(*n, txID)
}

type node struct {
	engine  *Engine
	store   *memStore
	hd      *wallet.HD
	primary *wallet.Key
	notices *notices
}

func newNode(t *testing.T, mnemonic string, ledger *fakeLedger, pub *fakePublisher) *node {
	hd := newHD(t, mnemonic)
	n := &node{store: newMemStore(), hd: hd, primary: deriveKey(t, hd, 0), notices: &notices{}}

	engine, err := NewEngine(Config{Network: testNet, AppID: "test"}, hd, Deps{
		Ledger:    ledger,
		Publisher: pub,
		Store:     n.store,
		Counter:   &counter{},
		Dedup:     dedup{},
		Notifier:  n.notices,
	})
	require.NoError(t, err)
	n.engine = engine
	return n
}
