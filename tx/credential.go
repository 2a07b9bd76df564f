package tx

import "fmt"

// Signature is a recoverable secp256k1 signature laid out as r || s || v.
type Signature [SignatureLen]byte

// Credential holds the signatures authorising one input. A credential
// without signatures is pending: its input still awaits its owner.
type Credential struct {
	Sigs []Signature
}

// Pending returns a placeholder credential.
func Pending() Credential {
	return Credential{}
}

// Signed returns a credential carrying sigs.
func Signed(sigs ...Signature) Credential {
	return Credential{Sigs: sigs}
}

// IsPending reports whether the credential has no signature yet.
func (c Credential) IsPending() bool {
	return len(c.Sigs) == 0
}

// CredentialTypeFor maps an input type to the credential type that unlocks it.
func CredentialTypeFor(inputTypeID uint32) (uint32, error) {
	if inputTypeID != TransferInputTypeID {
		return 0, fmt.Errorf("%w: no credential for input type %d", ErrUnsupportedType, inputTypeID)
	}
	return CredentialTypeID, nil
}

// MergeCredentials overlays fresh onto prior by input index. A signed
// credential is never replaced by a pending one.
func MergeCredentials(prior, fresh []Credential) []Credential {
	n := len(prior)
	if len(fresh) > n {
		n = len(fresh)
	}

	merged := make([]Credential, n)
	for i := 0; i < n; i++ {
		var p, f Credential
		if i < len(prior) {
			p = prior[i]
		}
		if i < len(fresh) {
			f = fresh[i]
		}
		if !f.IsPending() {
			merged[i] = f
		} else {
			merged[i] = p
		}
	}
	return merged
}

// HasAllSignatures reports whether each of numInputs inputs has a signed credential.
func HasAllSignatures(creds []Credential, numInputs int) bool {
	if len(creds) != numInputs {
		return false
	}
	for _, c := range creds {
		if c.IsPending() {
			return false
		}
	}
	return true
}

func (c *Credential) pack(p *packer) {
	p.putUint32(CredentialTypeID)
	p.putUint32(uint32(len(c.Sigs)))
	for _, sig := range c.Sigs {
		p.putFixed(sig[:])
	}
}

func unpackCredential(r *reader) Credential {
	typeID := r.readUint32()
	if r.err == nil && typeID != CredentialTypeID {
		r.fail(fmt.Errorf("%w: credential type %d", ErrUnsupportedType, typeID))
		return Credential{}
	}

	var c Credential
	n := r.readLen(SignatureLen)
	for i := 0; i < n; i++ {
		var sig Signature
		copy(sig[:], r.readFixed(SignatureLen))
		c.Sigs = append(c.Sigs, sig)
	}
	return c
}
