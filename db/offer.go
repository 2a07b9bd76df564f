package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/entity"
	"github.com/Permissionless-Software-Foundation/avax-dex/swap"
	"github.com/shopspring/decimal"
)

const offerColumns = "`p2wdb_hash`, `message_type`, `message_class`, `token_id`, `buy_or_sell`, `rate_in_sats`, `min_sats_to_exchange`, `num_tokens`, `name`, `symbol`, `utxo_txid`, `utxo_vout`, `tx_hex`, `addr_references`, `hd_index`, `created_at`"

// SaveOffer stores a published Offer.
func (s *Store) SaveOffer(ctx context.Context, offer *entity.Offer) error {
	const query = "INSERT INTO `offers` (" + offerColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now()
	}

	_, err := s.wrappedExec(ctx, query,
		offer.P2WDBHash,
		offer.MessageType,
		offer.MessageClass,
		offer.TokenID,
		string(offer.BuyOrSell),
		offer.RateInSats,
		offer.MinSatsToExchange,
		offer.NumTokens.String(),
		offer.Name,
		offer.Symbol,
		offer.UTXOTxID,
		offer.UTXOVout,
		offer.TxHex,
		offer.AddrReferences,
		offer.HDIndex,
		offer.CreatedAt,
	)
	return err
}

// ListOffers returns every Offer, oldest first.
func (s *Store) ListOffers(ctx context.Context) ([]*entity.Offer, error) {
	const query = "SELECT " + offerColumns + " FROM `offers` ORDER BY `id` ASC"

	rows, err := s.wrappedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*entity.Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, offer)
	}
	return result, rows.Err()
}

// FindOffer returns the Offer published under hash.
func (s *Store) FindOffer(ctx context.Context, hash string) (*entity.Offer, error) {
	const query = "SELECT " + offerColumns + " FROM `offers` WHERE `p2wdb_hash` = ? LIMIT 1"

	rows, err := s.wrappedQuery(ctx, query, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, &swap.Error{Kind: swap.ErrNotFound, Message: fmt.Sprintf("offer %s not found", hash)}
	}
	return scanOffer(rows)
}

func scanOffer(rows *sql.Rows) (*entity.Offer, error) {
	offer := &entity.Offer{DataType: entity.DataTypeOffer}
	var side, numTokens string

	err := rows.Scan(
		&offer.P2WDBHash,
		&offer.MessageType,
		&offer.MessageClass,
		&offer.TokenID,
		&side,
		&offer.RateInSats,
		&offer.MinSatsToExchange,
		&numTokens,
		&offer.Name,
		&offer.Symbol,
		&offer.UTXOTxID,
		&offer.UTXOVout,
		&offer.TxHex,
		&offer.AddrReferences,
		&offer.HDIndex,
		&offer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	offer.BuyOrSell = entity.Side(side)
	if offer.NumTokens, err = decimal.NewFromString(numTokens); err != nil {
		return nil, fmt.Errorf("offer %s: %w", offer.P2WDBHash, err)
	}
	return offer, nil
}
