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

const orderColumns = "`p2wdb_hash`, `message_type`, `message_class`, `token_id`, `buy_or_sell`, `rate_in_sats`, `min_sats_to_exchange`, `num_tokens`, `utxo_txid`, `utxo_vout`, `tx_hex`, `addr_references`, `order_status`, `offer_hash`, `data_type`, `timestamp`, `local_timestamp`, `p2wdb_txid`, `settlement_txid`, `updated_at`"

// SaveOrder stores an observed Order. An Order already stored under the
// same hash is kept as is.
func (s *Store) SaveOrder(ctx context.Context, order *entity.Order) error {
	const query = "INSERT INTO `orders` (" + orderColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE `p2wdb_hash` = `p2wdb_hash`"

	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	_, err := s.wrappedExec(ctx, query,
		order.P2WDBHash,
		order.MessageType,
		order.MessageClass,
		order.TokenID,
		string(order.BuyOrSell),
		order.RateInSats,
		order.MinSatsToExchange,
		order.NumTokens.String(),
		order.UTXOTxID,
		order.UTXOVout,
		order.TxHex,
		order.AddrReferences,
		string(order.OrderStatus),
		order.OfferHash,
		order.DataType,
		order.Timestamp,
		order.LocalTimestamp,
		order.P2WDBTxID,
		order.SettlementTxID,
		order.UpdatedAt,
	)
	return err
}

// ListOrders returns every Order, oldest first.
func (s *Store) ListOrders(ctx context.Context) ([]*entity.Order, error) {
	const query = "SELECT " + orderColumns + " FROM `orders` ORDER BY `id` ASC"

	rows, err := s.wrappedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*entity.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

// FindOrder returns the Order stored under hash.
func (s *Store) FindOrder(ctx context.Context, hash string) (*entity.Order, error) {
	const query = "SELECT " + orderColumns + " FROM `orders` WHERE `p2wdb_hash` = ? LIMIT 1"

	rows, err := s.wrappedQuery(ctx, query, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, notFound(hash)
	}
	return scanOrder(rows)
}

// AdvanceOrder moves the Order under hash from one status to the next.
func (s *Store) AdvanceOrder(ctx context.Context, hash string, from, to entity.Status, settlementTxID string) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		const selectQuery = "SELECT `order_status` FROM `orders` WHERE `p2wdb_hash` = ? LIMIT 1 FOR UPDATE"

		var current string
		err := tx.QueryRowContext(ctx, selectQuery, hash).Scan(&current)
		if err == sql.ErrNoRows {
			return notFound(hash)
		}
		if err != nil {
			return err
		}

		if err := checkAdvance(hash, entity.Status(current), from, to); err != nil {
			return err
		}

		const updateQuery = "UPDATE `orders` SET `order_status` = ?, `settlement_txid` = IF(? = '', `settlement_txid`, ?), `updated_at` = ? WHERE `p2wdb_hash` = ? LIMIT 1"
		_, err = tx.ExecContext(ctx, updateQuery, string(to), settlementTxID, settlementTxID, time.Now(), hash)
		return err
	})
}

// DeleteOrder removes the Order under hash.
func (s *Store) DeleteOrder(ctx context.Context, hash string) error {
	const query = "DELETE FROM `orders` WHERE `p2wdb_hash` = ? LIMIT 1"
	_, err := s.wrappedExec(ctx, query, hash)
	return err
}

func checkAdvance(hash string, current, from, to entity.Status) error {
	if current != from {
		return &swap.Error{
			Kind:    swap.ErrInvalidTransition,
			Message: fmt.Sprintf("order %s is %s, expected %s", hash, current, from),
		}
	}
	if to.Rank() <= from.Rank() {
		return &swap.Error{
			Kind:    swap.ErrInvalidTransition,
			Message: fmt.Sprintf("order %s cannot move from %s to %s", hash, from, to),
		}
	}
	return nil
}

func notFound(hash string) error {
	return &swap.Error{Kind: swap.ErrNotFound, Message: fmt.Sprintf("order %s not found", hash)}
}

func scanOrder(rows *sql.Rows) (*entity.Order, error) {
	order := &entity.Order{}
	var side, numTokens, status string

	err := rows.Scan(
		&order.P2WDBHash,
		&order.MessageType,
		&order.MessageClass,
		&order.TokenID,
		&side,
		&order.RateInSats,
		&order.MinSatsToExchange,
		&numTokens,
		&order.UTXOTxID,
		&order.UTXOVout,
		&order.TxHex,
		&order.AddrReferences,
		&status,
		&order.OfferHash,
		&order.DataType,
		&order.Timestamp,
		&order.LocalTimestamp,
		&order.P2WDBTxID,
		&order.SettlementTxID,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.BuyOrSell = entity.Side(side)
	order.OrderStatus = entity.Status(status)
	if order.NumTokens, err = decimal.NewFromString(numTokens); err != nil {
		return nil, fmt.Errorf("order %s: %w", order.P2WDBHash, err)
	}
	return order, nil
}
