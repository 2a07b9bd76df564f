package tx

import "errors"

// Codec constants of the asset chain.
const (
	CodecVersion         uint16 = 0
	BaseTxTypeID         uint32 = 0
	TransferInputTypeID  uint32 = 5
	TransferOutputTypeID uint32 = 7
	CredentialTypeID     uint32 = 9

	SignatureLen = 65
	MaxMemoLen   = 256
)

// ErrUnsupportedType is returned for inputs, outputs or credentials other than secp256k1 transfers.
var ErrUnsupportedType = errors.New("unsupported type id")
