package db

import (
	"context"
	"database/sql"
)

// NextHDIndex reserves the next unused HD index for a holding address.
// Index 0 belongs to the wallet's primary address.
func (s *Store) NextHDIndex(ctx context.Context) (uint32, error) {
	var index uint32

	err := s.transact(ctx, func(tx *sql.Tx) error {
		const selectQuery = "SELECT `next_hd_index` FROM `counter` WHERE `id` = 1 LIMIT 1 FOR UPDATE"
		err := tx.QueryRowContext(ctx, selectQuery).Scan(&index)
		switch err {
		case sql.ErrNoRows:
			index = 1
			const insertQuery = "INSERT INTO `counter` (`id`, `next_hd_index`) VALUES (1, ?)"
			_, err = tx.ExecContext(ctx, insertQuery, index+1)
			return err
		case nil:
			const updateQuery = "UPDATE `counter` SET `next_hd_index` = `next_hd_index` + 1 WHERE `id` = 1 LIMIT 1"
			_, err = tx.ExecContext(ctx, updateQuery)
			return err
		default:
			return err
		}
	})

	return index, err
}
