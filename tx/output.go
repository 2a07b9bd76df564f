package tx

import (
	"bytes"
	"fmt"
	"sort"
)

// TransferOutput is a secp256k1 transfer output.
type TransferOutput struct {
	Amount    uint64
	Locktime  uint64
	Threshold uint32
	Addrs     []ShortID
}

// TransferableOutput pairs an asset with an output.
type TransferableOutput struct {
	AssetID ID
	Out     TransferOutput
}

// NewOutput returns a single-owner output paying amount of asset to addr.
func NewOutput(assetID ID, amount uint64, addr ShortID) TransferableOutput {
	return TransferableOutput{
		AssetID: assetID,
		Out: TransferOutput{
			Amount:    amount,
			Threshold: 1,
			Addrs:     []ShortID{addr},
		},
	}
}

func (o *TransferOutput) pack(p *packer) {
	p.putUint32(TransferOutputTypeID)
	p.putUint64(o.Amount)
	p.putUint64(o.Locktime)
	p.putUint32(o.Threshold)
	p.putUint32(uint32(len(o.Addrs)))
	for _, addr := range o.Addrs {
		p.putFixed(addr[:])
	}
}

func unpackTransferOutput(r *reader) TransferOutput {
	typeID := r.readUint32()
	if r.err == nil && typeID != TransferOutputTypeID {
		r.fail(fmt.Errorf("%w: output type %d", ErrUnsupportedType, typeID))
	}

	out := TransferOutput{
		Amount:    r.readUint64(),
		Locktime:  r.readUint64(),
		Threshold: r.readUint32(),
	}
	n := r.readLen(len(ShortID{}))
	for i := 0; i < n; i++ {
		var addr ShortID
		copy(addr[:], r.readFixed(len(addr)))
		out.Addrs = append(out.Addrs, addr)
	}
	return out
}

func (o *TransferableOutput) pack(p *packer) {
	p.putFixed(o.AssetID[:])
	o.Out.pack(p)
}

func unpackOutput(r *reader) TransferableOutput {
	var o TransferableOutput
	copy(o.AssetID[:], r.readFixed(IDLen))
	o.Out = unpackTransferOutput(r)
	return o
}

// Bytes returns the serialized output.
func (o TransferableOutput) Bytes() []byte {
	p := packer{}
	o.pack(&p)
	return p.bytes()
}

// SortedAddrs returns a sorted copy of the output owners.
func (o TransferableOutput) SortedAddrs() []ShortID {
	addrs := append([]ShortID(nil), o.Out.Addrs...)
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Compare(addrs[j]) < 0 })
	return addrs
}

// Matches reports whether both outputs carry the same asset, amount,
// locktime, threshold and owner set.
func (o TransferableOutput) Matches(other TransferableOutput) bool {
	if o.AssetID != other.AssetID || o.Out.Amount != other.Out.Amount {
		return false
	}
	if o.Out.Locktime != other.Out.Locktime || o.Out.Threshold != other.Out.Threshold {
		return false
	}
	a, b := o.SortedAddrs(), other.SortedAddrs()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SortOutputs orders outputs by their serialized bytes, as the ledger requires.
func SortOutputs(outs []TransferableOutput) {
	for i := range outs {
		addrs := outs[i].SortedAddrs()
		outs[i].Out.Addrs = addrs
	}
	sort.SliceStable(outs, func(i, j int) bool {
		return bytes.Compare(outs[i].Bytes(), outs[j].Bytes()) < 0
	})
}
