package rpc

import (
	"context"
	"fmt"

	"github.com/Permissionless-Software-Foundation/avax-dex/asset"
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/util"
	"github.com/buger/jsonparser"
)

// utxoPageLimit is the page size of avm.getUTXOs.
const utxoPageLimit = 1024

type utxoIndex struct {
	Address string `json:"address"`
	UTXO    string `json:"utxo"`
}

type getUTXOsParams struct {
	Addresses  []string   `json:"addresses"`
	Limit      int        `json:"limit"`
	Encoding   string     `json:"encoding"`
	StartIndex *utxoIndex `json:"startIndex,omitempty"`
}

// GetUTXOs returns every UTXO owned by addr.
func (c *Client) GetUTXOs(ctx context.Context, addr string) ([]tx.UTXO, error) {
	params := getUTXOsParams{
		Addresses: []string{addr},
		Limit:     utxoPageLimit,
		Encoding:  "hex",
	}

	utxos := []tx.UTXO{}
	for {
		result, err := c.call(ctx, xChainEndpoint, "avm.getUTXOs", params)
		if err != nil {
			return nil, err
		}

		var parseErr error
		_, err = jsonparser.ArrayEach(result, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
			if parseErr != nil {
				return
			}
			raw, err := util.DecodeHexChecked(string(value))
			if err != nil {
				parseErr = err
				return
			}
			utxo, err := tx.ParseUTXO(raw)
			if err != nil {
				parseErr = err
				return
			}
			utxos = append(utxos, utxo)
		}, "utxos")
		if err != nil {
			return nil, fmt.Errorf("avm.getUTXOs: %w", err)
		}
		if parseErr != nil {
			return nil, fmt.Errorf("avm.getUTXOs: %w", parseErr)
		}

		fetched, err := getUint(result, "numFetched")
		if err != nil {
			return nil, fmt.Errorf("avm.getUTXOs: numFetched: %w", err)
		}
		if fetched < utxoPageLimit {
			return utxos, nil
		}

		next := &utxoIndex{}
		next.Address, _ = jsonparser.GetString(result, "endIndex", "address")
		next.UTXO, _ = jsonparser.GetString(result, "endIndex", "utxo")
		params.StartIndex = next
	}
}

// GetTransaction returns the transaction with the given id.
func (c *Client) GetTransaction(ctx context.Context, txID tx.ID) (*tx.Tx, error) {
	params := map[string]string{
		"txID":     txID.String(),
		"encoding": "hex",
	}

	result, err := c.call(ctx, xChainEndpoint, "avm.getTx", params)
	if err != nil {
		return nil, err
	}

	str, err := jsonparser.GetString(result, "tx")
	if err != nil {
		return nil, fmt.Errorf("avm.getTx: %w", err)
	}
	raw, err := util.DecodeHexChecked(str)
	if err != nil {
		return nil, fmt.Errorf("avm.getTx: %w", err)
	}
	return tx.Parse(raw)
}

// GetTxOut returns output vout of txID, or nil when it has been spent.
func (c *Client) GetTxOut(ctx context.Context, txID tx.ID, vout uint32) (*tx.UTXO, error) {
	t, err := c.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}

	if int(vout) >= len(t.Unsigned.Outs) {
		return nil, fmt.Errorf("transaction %s has no output %d", txID, vout)
	}
	out := t.Unsigned.Outs[vout]
	if len(out.Out.Addrs) == 0 {
		return nil, fmt.Errorf("output %d of %s has no owner", vout, txID)
	}

	owner, err := out.Out.Addrs[0].Address("X", c.hrp)
	if err != nil {
		return nil, err
	}

	utxos, err := c.GetUTXOs(ctx, owner)
	if err != nil {
		return nil, err
	}

	for i := range utxos {
		if utxos[i].TxID == txID && utxos[i].OutputIndex == vout {
			return &utxos[i], nil
		}
	}
	return nil, nil
}

// GetAssetDescription returns name, symbol and denomination of assetID.
func (c *Client) GetAssetDescription(ctx context.Context, assetID tx.ID) (*asset.Asset, error) {
	params := map[string]string{"assetID": assetID.String()}

	result, err := c.call(ctx, xChainEndpoint, "avm.getAssetDescription", params)
	if err != nil {
		return nil, err
	}

	a := &asset.Asset{AssetID: assetID.String()}
	a.Name, _ = jsonparser.GetString(result, "name")
	a.Symbol, _ = jsonparser.GetString(result, "symbol")

	denomination, err := getUint(result, "denomination")
	if err != nil {
		return nil, fmt.Errorf("avm.getAssetDescription: denomination: %w", err)
	}
	if denomination > asset.MaxDenomination {
		return nil, fmt.Errorf("asset %s has denomination %d", assetID, denomination)
	}
	a.Denomination = uint8(denomination)

	return a, nil
}

// GetTxFee returns the base transaction fee of the asset chain.
func (c *Client) GetTxFee(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, infoEndpoint, "info.getTxFee", nil)
	if err != nil {
		return 0, err
	}

	fee, err := getUint(result, "txFee")
	if err != nil {
		return 0, fmt.Errorf("info.getTxFee: %w", err)
	}
	return fee, nil
}

// Broadcast issues a signed transaction given as plain hex.
func (c *Client) Broadcast(ctx context.Context, signedTxHex string) (tx.ID, error) {
	raw, err := util.DecodeHex(signedTxHex)
	if err != nil {
		return tx.Empty, err
	}

	params := map[string]string{
		"tx":       util.EncodeHexChecked(raw),
		"encoding": "hex",
	}

	result, err := c.call(ctx, xChainEndpoint, "avm.issueTx", params)
	if err != nil {
		return tx.Empty, err
	}

	str, err := jsonparser.GetString(result, "txID")
	if err != nil {
		return tx.Empty, fmt.Errorf("avm.issueTx: %w", err)
	}
	return tx.IDFromString(str)
}
