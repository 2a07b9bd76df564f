package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/util"
)

// UTXO is an unspent transfer output.
type UTXO struct {
	TxID        ID
	OutputIndex uint32
	AssetID     ID
	Out         TransferOutput
}

// UTXOID returns base58(txID || u32 outputIndex).
func UTXOID(txID ID, outputIndex uint32) string {
	buf := make([]byte, IDLen+4)
	copy(buf, txID[:])
	binary.BigEndian.PutUint32(buf[IDLen:], outputIndex)
	return util.EncodeBase58(buf)
}

// UTXOID returns the id of u.
func (u UTXO) UTXOID() string {
	return UTXOID(u.TxID, u.OutputIndex)
}

// Amount returns the value locked in u.
func (u UTXO) Amount() uint64 {
	return u.Out.Amount
}

// Input returns the input spending u with signer's signature.
func (u UTXO) Input(signer ShortID) (TransferableInput, error) {
	for i, addr := range u.Out.Addrs {
		if addr == signer {
			return TransferableInput{
				TxID:        u.TxID,
				OutputIndex: u.OutputIndex,
				AssetID:     u.AssetID,
				TypeID:      TransferInputTypeID,
				In: TransferInput{
					Amount:     u.Out.Amount,
					SigIndices: []uint32{uint32(i)},
				},
			}, nil
		}
	}
	return TransferableInput{}, fmt.Errorf("utxo %s is not owned by %s", u.UTXOID(), signer.Hex())
}

// Bytes returns the serialized UTXO.
func (u UTXO) Bytes() []byte {
	p := packer{}
	p.putUint16(CodecVersion)
	p.putFixed(u.TxID[:])
	p.putUint32(u.OutputIndex)
	p.putFixed(u.AssetID[:])
	u.Out.pack(&p)
	return p.bytes()
}

// ParseUTXO decodes serialized UTXO bytes.
func ParseUTXO(data []byte) (UTXO, error) {
	r := &reader{context: data}

	var u UTXO
	version := r.readUint16()
	if r.err == nil && version != CodecVersion {
		r.fail(fmt.Errorf("unknown codec version %d", version))
	}
	copy(u.TxID[:], r.readFixed(IDLen))
	u.OutputIndex = r.readUint32()
	copy(u.AssetID[:], r.readFixed(IDLen))
	u.Out = unpackTransferOutput(r)

	if r.err != nil {
		return UTXO{}, fmt.Errorf("parse utxo: %w", r.err)
	}
	if r.remaining() != 0 {
		return UTXO{}, fmt.Errorf("parse utxo: %d trailing bytes", r.remaining())
	}
	return u, nil
}

// UTXOsOf returns the outputs of t as UTXOs of the given transaction id.
func UTXOsOf(txID ID, t *BaseTx) []UTXO {
	utxos := make([]UTXO, 0, len(t.Outs))
	for i, out := range t.Outs {
		utxos = append(utxos, UTXO{
			TxID:        txID,
			OutputIndex: uint32(i),
			AssetID:     out.AssetID,
			Out:         out.Out,
		})
	}
	return utxos
}
