package swap

import (
	"errors"
	"testing"

	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utxoOf(owner *wallet.Key, assetID tx.ID, amount uint64, seq byte) tx.UTXO {
	var id tx.ID
	id[0], id[1] = 0xe0, seq
	return tx.UTXO{
		TxID:    id,
		AssetID: assetID,
		Out:     tx.TransferOutput{Amount: amount, Threshold: 1, Addrs: []tx.ShortID{owner.ShortID}},
	}
}

func TestSelectUTXO(t *testing.T) {
	k := deriveKey(t, newHD(t, makerMnemonic), 0)
	utxos := []tx.UTXO{
		utxoOf(k, avaxID, 50, 1),
		utxoOf(k, avaxID, 20, 2),
		utxoOf(k, avaxID, 30, 3),
		utxoOf(k, avaxID, 20, 4),
		utxoOf(k, avaxID, 5, 5),
	}

	u, ok := SelectUTXO(18, utxos)
	require.True(t, ok)
	assert.Equal(t, uint64(20), u.Amount())
	assert.Equal(t, utxos[1].UTXOID(), u.UTXOID())

	u, ok = SelectUTXO(50, utxos)
	require.True(t, ok)
	assert.Equal(t, uint64(50), u.Amount())

	_, ok = SelectUTXO(51, utxos)
	assert.False(t, ok)
	_, ok = SelectUTXO(1, nil)
	assert.False(t, ok)

	// Minimal among every qualifying candidate, for every target.
	for target := uint64(0); target <= 55; target++ {
		u, ok := SelectUTXO(target, utxos)
		var best uint64
		found := false
		for _, c := range utxos {
			if c.Amount() >= target && (!found || c.Amount() < best) {
				best, found = c.Amount(), true
			}
		}
		assert.Equal(t, found, ok)
		if ok {
			assert.Equal(t, best, u.Amount())
		}
	}
}

func TestSelectCovering(t *testing.T) {
	k := deriveKey(t, newHD(t, makerMnemonic), 0)
	utxos := []tx.UTXO{utxoOf(k, avaxID, 10, 1), utxoOf(k, avaxID, 40, 2), utxoOf(k, avaxID, 25, 3)}

	picked, total, ok := selectCovering(30, utxos)
	require.True(t, ok)
	assert.Len(t, picked, 1)
	assert.Equal(t, uint64(40), total)

	picked, total, ok = selectCovering(60, utxos)
	require.True(t, ok)
	assert.Len(t, picked, 2)
	assert.Equal(t, uint64(65), total)

	_, _, ok = selectCovering(100, utxos)
	assert.False(t, ok)
}

func TestBuildPartialTx(t *testing.T) {
	hd := newHD(t, makerMnemonic)
	primary, holding := deriveKey(t, hd, 0), deriveKey(t, hd, 3)
	u := utxoOf(holding, tokenID, 170, 1)

	partial, err := BuildPartialTx(testNet, holding, []tx.UTXO{u}, tx.NewOutput(avaxID, 3000000, primary.ShortID))
	require.NoError(t, err)

	parsed, err := tx.ParseHex(partial.TxHex)
	require.NoError(t, err)
	assert.False(t, parsed.IsSigned())
	assert.Equal(t, testNet.NetworkID, parsed.Unsigned.NetworkID)
	assert.Equal(t, testNet.BlockchainID, parsed.Unsigned.BlockchainID)

	require.Len(t, parsed.Unsigned.Outs, 1)
	out := parsed.Unsigned.Outs[0]
	assert.Equal(t, avaxID, out.AssetID)
	assert.Equal(t, uint64(3000000), out.Out.Amount)
	assert.Equal(t, []tx.ShortID{primary.ShortID}, out.Out.Addrs)

	require.Len(t, parsed.Unsigned.Ins, 1)
	in := parsed.Unsigned.Ins[0]
	assert.Equal(t, u.UTXOID(), in.UTXOID())
	assert.Equal(t, uint64(170), in.In.Amount)
	assert.Equal(t, tokenID, in.AssetID)

	refs, err := ParseAddrReferences(partial.AddrReferences)
	require.NoError(t, err)
	assert.Equal(t, AddrReferences{u.UTXOID(): holding.Address}, refs)

	_, err = BuildPartialTx(testNet, holding, nil, tx.NewOutput(avaxID, 1, primary.ShortID))
	assert.True(t, errors.Is(err, ErrInsufficientUTXO))
}

type partyFixture struct {
	maker, holding, taker *wallet.Key
	partial               *PartialTx
	holdingUTXO           tx.UTXO
}

func sellSkeleton(t *testing.T) partyFixture {
	makerHD, takerHD := newHD(t, makerMnemonic), newHD(t, takerMnemonic)
	f := partyFixture{
		maker:   deriveKey(t, makerHD, 0),
		holding: deriveKey(t, makerHD, 1),
		taker:   deriveKey(t, takerHD, 0),
	}
	f.holdingUTXO = utxoOf(f.holding, tokenID, 170, 1)

	partial, err := BuildPartialTx(testNet, f.holding, []tx.UTXO{f.holdingUTXO}, tx.NewOutput(avaxID, 3000000, f.maker.ShortID))
	require.NoError(t, err)
	f.partial = partial
	return f
}

func TestTakePartialTx(t *testing.T) {
	f := sellSkeleton(t)
	takerUTXO := utxoOf(f.taker, avaxID, 5000000, 2)
	w := wallet.NewContext(f.taker).WithUTXOs(f.taker.Address, []tx.UTXO{takerUTXO})

	taken, err := TakePartialTx(testNet, testFee, *f.partial, w)
	require.NoError(t, err)

	parsed, err := tx.ParseHex(taken.TxHex)
	require.NoError(t, err)
	require.Len(t, parsed.Unsigned.Ins, 2)
	require.Len(t, parsed.Creds, 2)

	var paid, change, received bool
	for _, out := range parsed.Unsigned.Outs {
		switch {
		case out.Matches(tx.NewOutput(avaxID, 3000000, f.maker.ShortID)):
			paid = true
		case out.Matches(tx.NewOutput(avaxID, 5000000-3000000-testFee, f.taker.ShortID)):
			change = true
		case out.Matches(tx.NewOutput(tokenID, 170, f.taker.ShortID)):
			received = true
		}
	}
	assert.True(t, paid && change && received)

	for i, in := range parsed.Unsigned.Ins {
		if in.UTXOID() == takerUTXO.UTXOID() {
			assert.False(t, parsed.Creds[i].IsPending())
		} else {
			assert.True(t, parsed.Creds[i].IsPending())
		}
	}

	refs, err := ParseAddrReferences(taken.AddrReferences)
	require.NoError(t, err)
	assert.Equal(t, f.taker.Address, refs[takerUTXO.UTXOID()])
	assert.Equal(t, f.holding.Address, refs[f.holdingUTXO.UTXOID()])
}

func TestTakePartialTxInsufficient(t *testing.T) {
	f := sellSkeleton(t)

	w := wallet.NewContext(f.taker).WithUTXOs(f.taker.Address, []tx.UTXO{utxoOf(f.taker, avaxID, 3000000, 2)})
	_, err := TakePartialTx(testNet, testFee, *f.partial, w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not enough avax in the selected address")
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	empty := wallet.NewContext(f.taker)
	_, err = TakePartialTx(testNet, testFee, *f.partial, empty)
	assert.EqualError(t, err, "wallet doesn't have any UTXOs")
	assert.True(t, errors.Is(err, ErrInsufficientUTXO))
}

func TestTakePartialTxPaysFeeSeparately(t *testing.T) {
	makerHD := newHD(t, makerMnemonic)
	maker, holding := deriveKey(t, makerHD, 0), deriveKey(t, makerHD, 1)
	taker := deriveKey(t, newHD(t, takerMnemonic), 0)

	partial, err := BuildPartialTx(testNet, holding, []tx.UTXO{utxoOf(holding, tokenID, 170, 1)}, tx.NewOutput(otherID, 9, maker.ShortID))
	require.NoError(t, err)

	feeUTXO := utxoOf(taker, avaxID, 4000, 3)
	w := wallet.NewContext(taker).WithUTXOs(taker.Address, []tx.UTXO{utxoOf(taker, otherID, 9, 2), feeUTXO})
	taken, err := TakePartialTx(testNet, testFee, *partial, w)
	require.NoError(t, err)

	parsed, err := tx.ParseHex(taken.TxHex)
	require.NoError(t, err)
	assert.Len(t, parsed.Unsigned.Ins, 3)

	var feeChange bool
	for _, out := range parsed.Unsigned.Outs {
		if out.Matches(tx.NewOutput(avaxID, 3000, taker.ShortID)) {
			feeChange = true
		}
	}
	assert.True(t, feeChange)

	noFee := wallet.NewContext(taker).WithUTXOs(taker.Address, []tx.UTXO{utxoOf(taker, otherID, 9, 2)})
	_, err = TakePartialTx(testNet, testFee, *partial, noFee)
	assert.EqualError(t, err, "Not enough avax in the selected address")
}

func TestCompleteTx(t *testing.T) {
	f := sellSkeleton(t)
	w := wallet.NewContext(f.taker).WithUTXOs(f.taker.Address, []tx.UTXO{utxoOf(f.taker, avaxID, 5000000, 2)})
	taken, err := TakePartialTx(testNet, testFee, *f.partial, w)
	require.NoError(t, err)

	// The taker alone cannot finish it.
	_, err = CompleteTxHex(*taken, w)
	assert.EqualError(t, err, "The transaction is not fully signed")
	assert.True(t, errors.Is(err, ErrIncompleteSignature))

	makerKeys := wallet.NewContext(f.maker).WithHolding(f.holding)
	signedHex, err := CompleteTxHex(*taken, makerKeys)
	require.NoError(t, err)

	signed, err := tx.ParseHex(signedHex)
	require.NoError(t, err)
	assert.True(t, tx.HasAllSignatures(signed.Creds, 2))

	// Earlier signatures survive the second round.
	before, err := tx.ParseHex(taken.TxHex)
	require.NoError(t, err)
	for i, c := range before.Creds {
		if !c.IsPending() {
			assert.Equal(t, c.Sigs, signed.Creds[i].Sigs)
		}
	}

	digest := signed.Unsigned.Digest()
	for i, c := range signed.Creds {
		sid, err := wallet.RecoverShortID(digest, c.Sigs[0])
		require.NoError(t, err)
		refs, _ := ParseAddrReferences(taken.AddrReferences)
		owner, err := tx.ShortIDFromAddress(refs[signed.Unsigned.Ins[i].UTXOID()])
		require.NoError(t, err)
		assert.Equal(t, owner, sid)
	}
}

func TestPartiallySignTxRejectsUnknownInputType(t *testing.T) {
	f := sellSkeleton(t)
	parsed, err := tx.ParseHex(f.partial.TxHex)
	require.NoError(t, err)
	parsed.Unsigned.Ins[0].TypeID = 99

	_, err = PartiallySignTx(parsed, AddrReferences{}, wallet.NewContext(f.maker))
	assert.ErrorIs(t, err, tx.ErrUnsupportedType)
}

func TestValidateIntegrity(t *testing.T) {
	f := sellSkeleton(t)
	w := wallet.NewContext(f.taker).WithUTXOs(f.taker.Address, []tx.UTXO{utxoOf(f.taker, avaxID, 5000000, 2)})
	taken, err := TakePartialTx(testNet, testFee, *f.partial, w)
	require.NoError(t, err)

	result, err := ValidateIntegrity(testNet, f.partial.TxHex, taken.TxHex)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.NoError(t, result.Err())

	// Taker shaves the maker's payment.
	altered, err := tx.ParseHex(taken.TxHex)
	require.NoError(t, err)
	for i, out := range altered.Unsigned.Outs {
		if out.Out.Addrs[0] == f.maker.ShortID {
			altered.Unsigned.Outs[i].Out.Amount--
		}
	}
	result, err = ValidateIntegrity(testNet, f.partial.TxHex, altered.Hex())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "Missing output with asset '"+avaxID.String()+"', amount 3000000")
	assert.Contains(t, result.Message, f.maker.Address)
	assert.True(t, errors.Is(result.Err(), ErrIntegrityViolation))

	// Taker locks the payment or raises its threshold.
	for _, lock := range []func(*tx.TransferOutput){
		func(out *tx.TransferOutput) { out.Locktime = 1 << 62 },
		func(out *tx.TransferOutput) { out.Threshold = 2 },
	} {
		locked, err := tx.ParseHex(taken.TxHex)
		require.NoError(t, err)
		for i, out := range locked.Unsigned.Outs {
			if out.Out.Addrs[0] == f.maker.ShortID {
				lock(&locked.Unsigned.Outs[i].Out)
			}
		}
		result, err = ValidateIntegrity(testNet, f.partial.TxHex, locked.Hex())
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Message, "Missing output with asset '"+avaxID.String()+"', amount 3000000")
	}

	// Taker drops the holding input.
	dropped, err := tx.ParseHex(taken.TxHex)
	require.NoError(t, err)
	var ins []tx.TransferableInput
	for _, in := range dropped.Unsigned.Ins {
		if in.UTXOID() != f.holdingUTXO.UTXOID() {
			ins = append(ins, in)
		}
	}
	dropped.Unsigned.Ins = ins
	dropped.Creds = dropped.Creds[:len(ins)]
	result, err = ValidateIntegrity(testNet, f.partial.TxHex, dropped.Hex())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "UTXO "+f.holdingUTXO.UTXOID()+" is not present in the order", result.Message)

	_, err = ValidateIntegrity(testNet, "zz", taken.TxHex)
	assert.Error(t, err)
}

func TestValidateIntegrityTwoOutputs(t *testing.T) {
	f := sellSkeleton(t)
	offer, err := tx.ParseHex(f.partial.TxHex)
	require.NoError(t, err)
	offer.Unsigned.Outs = append(offer.Unsigned.Outs, tx.NewOutput(tokenID, 5, f.maker.ShortID))

	order, err := tx.ParseHex(f.partial.TxHex)
	require.NoError(t, err)

	result, err := ValidateIntegrity(testNet, offer.Hex(), order.Hex())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "Missing output with asset '"+tokenID.String()+"', amount 5")
}

// injectInput appends utxo to p as an input referenced to ref. The inputs
// referenced to signer are signed again when signer is set.
func injectInput(t *testing.T, p PartialTx, utxo tx.UTXO, ref string, signer *wallet.Key) PartialTx {
	parsed, refs, err := p.decode()
	require.NoError(t, err)
	in, err := utxo.Input(utxo.Out.Addrs[0])
	require.NoError(t, err)

	parsed.Unsigned.Ins = append(parsed.Unsigned.Ins, in)
	parsed.Unsigned.Sort()
	parsed.Creds = nil
	refs[utxo.UTXOID()] = ref

	if signer != nil {
		own := AddrReferences{}
		for id, addr := range refs {
			if addr == signer.Address {
				own[id] = addr
			}
		}
		parsed, err = PartiallySignTx(parsed, own, wallet.NewContext(signer))
		require.NoError(t, err)
	}
	return PartialTx{TxHex: parsed.Hex(), AddrReferences: refs.String()}
}

func TestValidateMakerInputs(t *testing.T) {
	f := sellSkeleton(t)
	w := wallet.NewContext(f.taker).WithUTXOs(f.taker.Address, []tx.UTXO{utxoOf(f.taker, avaxID, 5000000, 2)})
	taken, err := TakePartialTx(testNet, testFee, *f.partial, w)
	require.NoError(t, err)
	makerKeys := wallet.NewContext(f.maker).WithHolding(f.holding)

	result, err := ValidateMakerInputs(f.partial.TxHex, *taken, makerKeys)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	makerUTXO := utxoOf(f.maker, avaxID, 9000000, 7)
	injected := injectInput(t, *taken, makerUTXO, f.maker.Address, f.taker)
	result, err = ValidateMakerInputs(f.partial.TxHex, injected, makerKeys)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "UTXO "+makerUTXO.UTXOID()+" of "+f.maker.Address+" is not part of the offer", result.Message)
	assert.True(t, errors.Is(result.Err(), ErrIntegrityViolation))

	// Inputs referenced to someone else pass, the maker would not sign them.
	foreign := injectInput(t, *taken, makerUTXO, f.taker.Address, nil)
	result, err = ValidateMakerInputs(f.partial.TxHex, foreign, makerKeys)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = ValidateMakerInputs("zz", *taken, makerKeys)
	assert.Error(t, err)
}

func TestCompleteOfferTxHex(t *testing.T) {
	f := sellSkeleton(t)
	w := wallet.NewContext(f.taker).WithUTXOs(f.taker.Address, []tx.UTXO{utxoOf(f.taker, avaxID, 5000000, 2)})
	taken, err := TakePartialTx(testNet, testFee, *f.partial, w)
	require.NoError(t, err)
	makerKeys := wallet.NewContext(f.maker).WithHolding(f.holding)

	signedHex, err := CompleteOfferTxHex(f.partial.TxHex, *taken, makerKeys)
	require.NoError(t, err)
	signed, err := tx.ParseHex(signedHex)
	require.NoError(t, err)
	assert.True(t, tx.HasAllSignatures(signed.Creds, 2))

	// A maker UTXO the offer never spent stays unsigned.
	makerUTXO := utxoOf(f.maker, avaxID, 9000000, 7)
	injected := injectInput(t, *taken, makerUTXO, f.maker.Address, f.taker)
	_, err = CompleteOfferTxHex(f.partial.TxHex, injected, makerKeys)
	assert.EqualError(t, err, "The transaction is not fully signed")
	assert.True(t, errors.Is(err, ErrIncompleteSignature))
}

func TestTakePartialTxSignsOnlyItsOwnInputs(t *testing.T) {
	f := sellSkeleton(t)
	takerToken := utxoOf(f.taker, tokenID, 50, 4)
	skeleton := injectInput(t, *f.partial, takerToken, f.taker.Address, nil)

	takerUTXO := utxoOf(f.taker, avaxID, 5000000, 2)
	w := wallet.NewContext(f.taker).WithUTXOs(f.taker.Address, []tx.UTXO{takerUTXO})
	taken, err := TakePartialTx(testNet, testFee, skeleton, w)
	require.NoError(t, err)

	parsed, err := tx.ParseHex(taken.TxHex)
	require.NoError(t, err)
	require.Len(t, parsed.Creds, 3)
	for i, in := range parsed.Unsigned.Ins {
		switch in.UTXOID() {
		case takerUTXO.UTXOID():
			assert.False(t, parsed.Creds[i].IsPending())
		default:
			assert.True(t, parsed.Creds[i].IsPending(), in.UTXOID())
		}
	}
}
