package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/cadastro/internal/domain"
	"github.com/utafrali/cadastro/pkg/database"
	apperrors "github.com/utafrali/cadastro/pkg/errors"
)

const (
	selectAddressColumns = `id, user_id, cep, logradouro, numero, bairro, cidade, estado, created_at`

	listAddressesByUserSQL = `SELECT ` + selectAddressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY id`

	listAllAddressesSQL = `SELECT ` + selectAddressColumns + ` FROM addresses ORDER BY user_id, id`

	deleteAddressesByUserSQL = `DELETE FROM addresses WHERE user_id = $1`

	insertAddressSQL = `
		INSERT INTO addresses (user_id, cep, logradouro, numero, bairro, cidade, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
)

// AddressRepository implements repository.AddressRepository using PostgreSQL.
type AddressRepository struct {
	db database.DBTX
}

// NewAddressRepository creates an address repository on top of a pool or a transaction.
func NewAddressRepository(db database.DBTX) *AddressRepository {
	return &AddressRepository{db: db}
}

// ListByUserID returns the user's addresses in insertion order.
func (r *AddressRepository) ListByUserID(ctx context.Context, userID int64) (addrs []domain.Address, err error) {
	ctx, end := database.TraceQuery(ctx, "ListAddressesByUser", listAddressesByUserSQL)
	defer func() { end(err) }()

	return r.list(ctx, listAddressesByUserSQL, userID)
}

// ListAll returns every address grouped by owner.
func (r *AddressRepository) ListAll(ctx context.Context) (addrs []domain.Address, err error) {
	ctx, end := database.TraceQuery(ctx, "ListAddresses", listAllAddressesSQL)
	defer func() { end(err) }()

	return r.list(ctx, listAllAddressesSQL)
}

func (r *AddressRepository) list(ctx context.Context, query string, args ...any) ([]domain.Address, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addrs := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}
	return addrs, nil
}

// Replace swaps the user's address set for addrs. It must run inside a
// transaction for the swap to be atomic.
func (r *AddressRepository) Replace(ctx context.Context, userID int64, addrs []domain.Address) (stored []domain.Address, err error) {
	ctx, end := database.TraceQuery(ctx, "ReplaceAddresses", deleteAddressesByUserSQL+"; "+insertAddressSQL)
	defer func() { end(err) }()

	if _, err := r.db.Exec(ctx, deleteAddressesByUserSQL, userID); err != nil {
		return nil, fmt.Errorf("delete addresses of user %d: %w", userID, err)
	}

	stored = make([]domain.Address, 0, len(addrs))
	for i, a := range addrs {
		a.UserID = userID
		err := r.db.QueryRow(ctx, insertAddressSQL,
			a.UserID, a.CEP, a.Logradouro, a.Numero, a.Bairro, a.Cidade, a.Estado,
		).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, apperrors.Conflict(fmt.Sprintf("user %d was removed while its addresses were being replaced", userID))
			}
			return nil, fmt.Errorf("insert address %d of user %d: %w", i, userID, err)
		}
		stored = append(stored, a)
	}
	return stored, nil
}

// DeleteByUserID removes every address of the user.
func (r *AddressRepository) DeleteByUserID(ctx context.Context, userID int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteAddressesByUser", deleteAddressesByUserSQL)
	defer func() { end(err) }()

	if _, err := r.db.Exec(ctx, deleteAddressesByUserSQL, userID); err != nil {
		return fmt.Errorf("delete addresses of user %d: %w", userID, err)
	}
	return nil
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.CEP,
		&a.Logradouro,
		&a.Numero,
		&a.Bairro,
		&a.Cidade,
		&a.Estado,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
