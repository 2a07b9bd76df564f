package wallet

import (
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
)

// Context is an immutable snapshot of the wallet: its keys, the UTXOs last
// observed per address and the registry of holding addresses. The With*
// methods return a new snapshot and leave the receiver untouched.
type Context struct {
	primary *Key
	keys    map[tx.ShortID]*Key
	utxos   map[string][]tx.UTXO
	holding map[uint32]string
}

// NewContext starts a snapshot around the wallet's primary key.
func NewContext(primary *Key) *Context {
	return &Context{
		primary: primary,
		keys:    map[tx.ShortID]*Key{primary.ShortID: primary},
		utxos:   map[string][]tx.UTXO{},
		holding: map[uint32]string{},
	}
}

func (c *Context) clone() *Context {
	next := &Context{
		primary: c.primary,
		keys:    make(map[tx.ShortID]*Key, len(c.keys)+1),
		utxos:   make(map[string][]tx.UTXO, len(c.utxos)+1),
		holding: make(map[uint32]string, len(c.holding)+1),
	}
	for k, v := range c.keys {
		next.keys[k] = v
	}
	for k, v := range c.utxos {
		next.utxos[k] = v
	}
	for k, v := range c.holding {
		next.holding[k] = v
	}
	return next
}

// Primary returns the wallet's main key.
func (c *Context) Primary() *Key {
	return c.primary
}

// WithKey adds a signing key.
func (c *Context) WithKey(k *Key) *Context {
	next := c.clone()
	next.keys[k.ShortID] = k
	return next
}

// WithHolding adds a holding address key and registers it by HD index.
func (c *Context) WithHolding(k *Key) *Context {
	next := c.WithKey(k)
	next.holding[k.HDIndex] = k.Address
	return next
}

// WithUTXOs replaces the UTXO snapshot of addr.
func (c *Context) WithUTXOs(addr string, utxos []tx.UTXO) *Context {
	next := c.clone()
	next.utxos[addr] = append([]tx.UTXO(nil), utxos...)
	return next
}

// Key returns the key controlling addr.
func (c *Context) Key(addr string) (*Key, bool) {
	sid, err := tx.ShortIDFromAddress(addr)
	if err != nil {
		return nil, false
	}
	return c.KeyByID(sid)
}

// KeyByID returns the key of an address id.
func (c *Context) KeyByID(sid tx.ShortID) (*Key, bool) {
	k, ok := c.keys[sid]
	return k, ok
}

// Holding returns the holding address registered at index.
func (c *Context) Holding(index uint32) (string, bool) {
	addr, ok := c.holding[index]
	return addr, ok
}

// UTXOsOf returns the snapshot of addr.
func (c *Context) UTXOsOf(addr string) []tx.UTXO {
	return append([]tx.UTXO(nil), c.utxos[addr]...)
}

// UTXOsOfAsset returns the UTXOs of addr carrying assetID.
func (c *Context) UTXOsOfAsset(addr string, assetID tx.ID) []tx.UTXO {
	var utxos []tx.UTXO
	for _, u := range c.utxos[addr] {
		if u.AssetID == assetID {
			utxos = append(utxos, u)
		}
	}
	return utxos
}

// Balance sums the assetID UTXOs of addr.
func (c *Context) Balance(addr string, assetID tx.ID) uint64 {
	var total uint64
	for _, u := range c.UTXOsOfAsset(addr, assetID) {
		total += u.Amount()
	}
	return total
}
