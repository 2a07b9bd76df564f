package db

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/go-sql-driver/mysql"
)

// Store keeps published Offers, observed Orders and the HD index counter in MySQL.
type Store struct {
	dsn string

	mu     sync.RWMutex
	db     *sql.DB
	locker uint32
}

// Open connects to the mysql database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{dsn: dsn, db: db}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.conn().Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn().PingContext(ctx)
}

func (s *Store) conn() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

func (s *Store) reconnect(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&s.locker, 0, 1) {
		for {
			// Lock was held by others, wait till lock released.
			time.Sleep(20 * time.Millisecond)
			// Lock was released.
			if atomic.LoadUint32(&s.locker) != 1 {
				return ctx.Err()
			}
		}
	}

	defer atomic.StoreUint32(&s.locker, 0)

	for {
		log.Printf("Try Reconnecting to database...")
		db, err := sql.Open("mysql", s.dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				s.mu.Lock()
				old := s.db
				s.db = db
				s.mu.Unlock()
				old.Close()
				return nil
			}
			db.Close()
		}

		log.Printf("Wait for few seconds to reconnect again")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *Store) wrappedQuery(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	for {
		rows, err := s.conn().QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}

		if !connErr(err) {
			return nil, err
		}

		if err := s.reconnect(ctx); err != nil {
			return nil, err
		}
	}
}

func (s *Store) wrappedExec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	for {
		result, err := s.conn().ExecContext(ctx, query, args...)
		if err == nil || !connErr(err) {
			return result, err
		}

		if err := s.reconnect(ctx); err != nil {
			return nil, err
		}
	}
}

func (s *Store) transact(ctx context.Context, txFunc func(*sql.Tx) error) (err error) {
	tx, err := s.conn().BeginTx(ctx, nil)
	if err != nil {
		if !connErr(err) {
			return err
		}

		if err := s.reconnect(ctx); err != nil {
			return err
		}
		return s.transact(ctx, txFunc)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	return txFunc(tx)
}

func connErr(err error) bool {
	if err == nil {
		return false
	}

	if err == mysql.ErrInvalidConn ||
		strings.HasSuffix(err.Error(), "operation timed out") ||
		strings.HasSuffix(err.Error(), "Server shutdown in progress") ||
		strings.HasPrefix(err.Error(), "Error 1290") {
		log.Println(err)
		return true
	}

	return false
}
