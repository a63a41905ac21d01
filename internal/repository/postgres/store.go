package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/cadastro/internal/repository"
	"github.com/utafrali/cadastro/pkg/database"
)

// Store hands out repositories bound to the pool and runs units of work in
// a transaction. It implements repository.Transactor.
type Store struct {
	db database.DBTX
}

// NewStore creates a Store over db, normally a *pgxpool.Pool.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Repositories returns repositories that run each statement on its own.
func (s *Store) Repositories() repository.Repositories {
	return bind(s.db)
}

// WithinTx runs fn in a transaction. The transaction commits only if fn
// returns nil; any error, or a panic, rolls it back.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, bind(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func bind(db database.DBTX) repository.Repositories {
	return repository.Repositories{
		Users:     NewUserRepository(db),
		Addresses: NewAddressRepository(db),
	}
}
