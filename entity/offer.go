package entity

import (
	"time"
)

// DataTypeOffer marks P2WDB entries published by a maker.
const DataTypeOffer = "offer"

// Offer is a locally created trade proposal.
type Offer struct {
	Trade

	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`

	// Holding UTXO the partial transaction spends.
	UTXOTxID string `json:"utxoTxid"`
	UTXOVout uint32 `json:"utxoVout"`

	TxHex          string `json:"txHex"`
	AddrReferences string `json:"addrReferences"`
	HDIndex        uint32 `json:"hdIndex"`
	DataType       string `json:"dataType"`

	P2WDBHash string    `json:"p2wdbHash,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// NewOfferInput validates the body of a create offer request.
func NewOfferInput(raw []byte) (Trade, error) {
	return parseTrade(document(raw))
}
