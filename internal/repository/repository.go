package repository

import (
	"context"

	"github.com/utafrali/cadastro/internal/domain"
)

// UserRepository defines persistence operations for users. Implementations
// do not load addresses; callers compose them explicitly.
type UserRepository interface {
	// Create inserts user and sets its ID and timestamps.
	Create(ctx context.Context, user *domain.User) error

	// List returns every user ordered by id.
	List(ctx context.Context) ([]domain.User, error)

	// GetByID returns the user or an error wrapping apperrors.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// Update overwrites all stored fields of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes the user. Owned addresses go with it.
	Delete(ctx context.Context, id int64) error
}

// AddressRepository defines persistence operations for addresses.
type AddressRepository interface {
	// ListByUserID returns the user's addresses in insertion order.
	ListByUserID(ctx context.Context, userID int64) ([]domain.Address, error)

	// ListAll returns every address ordered by user and insertion order.
	ListAll(ctx context.Context) ([]domain.Address, error)

	// Replace deletes the user's addresses and inserts addrs in their
	// place, returning the stored rows.
	Replace(ctx context.Context, userID int64, addrs []domain.Address) ([]domain.Address, error)

	// DeleteByUserID removes every address owned by the user.
	DeleteByUserID(ctx context.Context, userID int64) error
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Users     UserRepository
	Addresses AddressRepository
}

// Transactor runs a unit of work atomically. If fn returns an error, or
// the commit fails, nothing fn wrote is persisted.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
