package entity

import (
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/util"
	"github.com/buger/jsonparser"
)

// DataTypeOrder marks P2WDB entries published by a taker.
const DataTypeOrder = "order"

// Status is the lifecycle stage of an Order.
type Status string

// Order stages in the only order they may be reached.
const (
	StatusPosted   Status = "posted"
	StatusTaken    Status = "taken"
	StatusAccepted Status = "accepted"
)

// Rank orders stages; unknown stages rank 0.
func (s Status) Rank() int {
	switch s {
	case StatusPosted:
		return 1
	case StatusTaken:
		return 2
	case StatusAccepted:
		return 3
	default:
		return 0
	}
}

// Order is a proposal observed through P2WDB and tracked through its lifecycle.
type Order struct {
	Trade

	UTXOTxID       string `json:"utxoTxid"`
	UTXOVout       uint32 `json:"utxoVout"`
	TxHex          string `json:"txHex"`
	AddrReferences string `json:"addrReferences"`

	OrderStatus Status `json:"orderStatus"`
	OfferHash   string `json:"offerHash,omitempty"`
	DataType    string `json:"dataType,omitempty"`

	Timestamp      string `json:"timestamp,omitempty"`
	LocalTimestamp string `json:"localTimestamp,omitempty"`
	P2WDBTxID      string `json:"p2wdbTxid,omitempty"`
	P2WDBHash      string `json:"p2wdbHash,omitempty"`

	// SettlementTxID is the ledger id of the completed swap.
	SettlementTxID string    `json:"settlementTxid,omitempty"`
	UpdatedAt      time.Time `json:"-"`
}

// NewOrder validates a P2WDB webhook entry. The entry's data may be an
// object or a JSON encoded string.
func NewOrder(entry []byte) (*Order, error) {
	value, typ, _, err := jsonparser.Get(entry, "data")
	if err != nil {
		return nil, invalid("data", "Order entry must be an object with a data property.")
	}

	var data document
	switch typ {
	case jsonparser.Object:
		data = document(value)
	case jsonparser.String:
		str, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, invalid("data", "Order entry must be an object with a data property.")
		}
		data = document(str)
		if _, typ, _, err := jsonparser.Get(data); err != nil || typ != jsonparser.Object {
			return nil, invalid("data", "Order entry must be an object with a data property.")
		}
	default:
		return nil, invalid("data", "Order entry must be an object with a data property.")
	}

	trade, err := parseTrade(data)
	if err != nil {
		return nil, err
	}

	o := &Order{Trade: trade}

	if o.UTXOTxID, err = data.string("utxoTxid"); err != nil {
		return nil, err
	}
	vout, err := data.uint("utxoVout", true)
	if err != nil || vout > 1<<32-1 {
		return nil, invalid("utxoVout", "Property 'utxoVout' must be an integer number.")
	}
	o.UTXOVout = uint32(vout)

	if o.TxHex, err = data.string("txHex"); err != nil {
		return nil, invalid("txHex", "Property 'txHex' must be a valid hex string")
	}
	if _, err := util.DecodeHex(o.TxHex); err != nil {
		return nil, invalid("txHex", "Property 'txHex' must be a valid hex string")
	}

	if o.AddrReferences, err = data.string("addrReferences"); err != nil {
		return nil, invalid("addrReferences", "Property 'addrReferences' must be a string")
	}

	o.OrderStatus = StatusPosted
	if data.has("orderStatus") {
		status, _ := data.string("orderStatus")
		switch Status(status) {
		case StatusPosted, StatusTaken:
			o.OrderStatus = Status(status)
		default:
			return nil, invalid("orderStatus", "Property 'orderStatus' must be 'posted' or 'taken'.")
		}
	}

	if data.has("offerHash") {
		if o.OfferHash, err = data.string("offerHash"); err != nil {
			return nil, err
		}
	}
	if o.OrderStatus == StatusTaken && o.OfferHash == "" {
		return nil, invalid("offerHash", "Property 'offerHash' must be a string.")
	}
	if data.has("dataType") {
		o.DataType, _ = data.string("dataType")
	}

	entryDoc := document(entry)
	o.Timestamp, _ = entryDoc.string("timestamp")
	o.LocalTimestamp, _ = entryDoc.string("localTimeStamp")
	o.P2WDBTxID, _ = entryDoc.string("txid")
	if o.P2WDBHash, err = entryDoc.string("hash"); err != nil {
		return nil, err
	}

	return o, nil
}

// Taken returns the document a taker publishes after combining txHex into o.
// Transport fields of o are dropped and offerHash points at the proposal.
func (o *Order) Taken(txHex, addrReferences string) *Order {
	offerHash := o.OfferHash
	if offerHash == "" {
		offerHash = o.P2WDBHash
	}

	return &Order{
		Trade:          o.Trade,
		UTXOTxID:       o.UTXOTxID,
		UTXOVout:       o.UTXOVout,
		TxHex:          txHex,
		AddrReferences: addrReferences,
		OrderStatus:    StatusTaken,
		OfferHash:      offerHash,
		DataType:       DataTypeOrder,
	}
}
