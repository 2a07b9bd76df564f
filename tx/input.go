package tx

import (
	"fmt"
	"sort"
)

// TransferInput is a secp256k1 transfer input.
type TransferInput struct {
	Amount     uint64
	SigIndices []uint32
}

// TransferableInput spends one UTXO.
type TransferableInput struct {
	TxID        ID
	OutputIndex uint32
	AssetID     ID
	TypeID      uint32
	In          TransferInput
}

// UTXOID returns the id of the UTXO this input consumes.
func (in TransferableInput) UTXOID() string {
	return UTXOID(in.TxID, in.OutputIndex)
}

func (in *TransferableInput) pack(p *packer) {
	p.putFixed(in.TxID[:])
	p.putUint32(in.OutputIndex)
	p.putFixed(in.AssetID[:])
	p.putUint32(in.TypeID)
	p.putUint64(in.In.Amount)
	p.putUint32(uint32(len(in.In.SigIndices)))
	for _, idx := range in.In.SigIndices {
		p.putUint32(idx)
	}
}

func unpackInput(r *reader) TransferableInput {
	var in TransferableInput
	copy(in.TxID[:], r.readFixed(IDLen))
	in.OutputIndex = r.readUint32()
	copy(in.AssetID[:], r.readFixed(IDLen))
	in.TypeID = r.readUint32()
	if r.err == nil && in.TypeID != TransferInputTypeID {
		r.fail(fmt.Errorf("%w: input type %d", ErrUnsupportedType, in.TypeID))
		return in
	}
	in.In.Amount = r.readUint64()
	n := r.readLen(4)
	for i := 0; i < n; i++ {
		in.In.SigIndices = append(in.In.SigIndices, r.readUint32())
	}
	return in
}

// SortInputs orders inputs by (txID, outputIndex).
func SortInputs(ins []TransferableInput) {
	sort.SliceStable(ins, func(i, j int) bool {
		if c := ins[i].TxID.Compare(ins[j].TxID); c != 0 {
			return c < 0
		}
		return ins[i].OutputIndex < ins[j].OutputIndex
	})
}
