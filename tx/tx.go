package tx

import (
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/util"
)

// BaseTx is the unsigned body of a transfer transaction.
type BaseTx struct {
	NetworkID    uint32
	BlockchainID ID
	Outs         []TransferableOutput
	Ins          []TransferableInput
	Memo         []byte
}

// Sort puts inputs and outputs in canonical order.
func (t *BaseTx) Sort() {
	SortInputs(t.Ins)
	SortOutputs(t.Outs)
}

func (t *BaseTx) pack(p *packer) {
	p.putUint16(CodecVersion)
	p.putUint32(BaseTxTypeID)
	p.putUint32(t.NetworkID)
	p.putFixed(t.BlockchainID[:])

	p.putUint32(uint32(len(t.Outs)))
	for i := range t.Outs {
		t.Outs[i].pack(p)
	}

	p.putUint32(uint32(len(t.Ins)))
	for i := range t.Ins {
		t.Ins[i].pack(p)
	}

	p.putVarBytes(t.Memo)
}

func unpackBaseTx(r *reader) BaseTx {
	var t BaseTx

	version := r.readUint16()
	if r.err == nil && version != CodecVersion {
		r.fail(fmt.Errorf("unknown codec version %d", version))
	}
	typeID := r.readUint32()
	if r.err == nil && typeID != BaseTxTypeID {
		r.fail(fmt.Errorf("%w: tx type %d", ErrUnsupportedType, typeID))
	}

	t.NetworkID = r.readUint32()
	copy(t.BlockchainID[:], r.readFixed(IDLen))

	// asset id + type + amount + locktime + threshold + addr count
	n := r.readLen(IDLen + 4 + 8 + 8 + 4 + 4)
	for i := 0; i < n && r.err == nil; i++ {
		t.Outs = append(t.Outs, unpackOutput(r))
	}

	// tx id + index + asset id + type + amount + sig count
	n = r.readLen(IDLen + 4 + IDLen + 4 + 8 + 4)
	for i := 0; i < n && r.err == nil; i++ {
		t.Ins = append(t.Ins, unpackInput(r))
	}

	t.Memo = r.readVarBytes(MaxMemoLen)
	return t
}

// Bytes returns the unsigned serialization.
func (t *BaseTx) Bytes() []byte {
	p := packer{}
	t.pack(&p)
	return p.bytes()
}

// Digest returns the hash every credential signs.
func (t *BaseTx) Digest() []byte {
	return util.Sha256(t.Bytes())
}

// Tx is a transaction with zero or more credentials. With no credentials it
// serializes to the unsigned form.
type Tx struct {
	Unsigned BaseTx
	Creds    []Credential
}

// IsSigned reports whether credentials are attached.
func (t *Tx) IsSigned() bool {
	return len(t.Creds) > 0
}

// Bytes returns the serialized transaction.
func (t *Tx) Bytes() []byte {
	p := packer{}
	t.Unsigned.pack(&p)
	if !t.IsSigned() {
		return p.bytes()
	}

	p.putUint32(uint32(len(t.Creds)))
	for i := range t.Creds {
		t.Creds[i].pack(&p)
	}
	return p.bytes()
}

// Hex returns the plain hex form.
func (t *Tx) Hex() string {
	return util.EncodeHex(t.Bytes())
}

// ID returns the transaction id, the hash of the signed bytes.
func (t *Tx) ID() ID {
	var id ID
	copy(id[:], util.Sha256(t.Bytes()))
	return id
}

// Parse decodes unsigned or signed transaction bytes.
func Parse(data []byte) (*Tx, error) {
	r := &reader{context: data}
	t := &Tx{Unsigned: unpackBaseTx(r)}

	if r.err == nil && r.remaining() > 0 {
		// type + sig count
		n := r.readLen(4 + 4)
		for i := 0; i < n && r.err == nil; i++ {
			t.Creds = append(t.Creds, unpackCredential(r))
		}
	}

	if r.err != nil {
		return nil, fmt.Errorf("parse tx: %w", r.err)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("parse tx: %d trailing bytes", r.remaining())
	}
	return t, nil
}

// ParseHex decodes hex transaction text, with or without 0x.
func ParseHex(str string) (*Tx, error) {
	data, err := util.DecodeHex(str)
	if err != nil {
		return nil, fmt.Errorf("parse tx: %w", err)
	}
	return Parse(data)
}
