package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/cadastro/internal/domain"
	"github.com/utafrali/cadastro/pkg/database"
	apperrors "github.com/utafrali/cadastro/pkg/errors"
)

const (
	insertUserSQL = `
		INSERT INTO users (name, email, cpf, phone, age, addresses_summary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	selectUserColumns = `id, name, email, cpf, phone, age, addresses_summary, created_at, updated_at`

	listUsersSQL = `SELECT ` + selectUserColumns + ` FROM users ORDER BY id`

	getUserSQL = `SELECT ` + selectUserColumns + ` FROM users WHERE id = $1`

	updateUserSQL = `
		UPDATE users
		SET name = $1, email = $2, cpf = $3, phone = $4, age = $5, addresses_summary = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	deleteUserSQL = `DELETE FROM users WHERE id = $1`
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a user repository on top of a pool or a transaction.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u and fills in its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "InsertUser", insertUserSQL)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, insertUserSQL,
		u.Name, u.Email, u.CPF, u.Phone, u.Age, u.AddressesSummary,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "cpf", u.CPF)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// List returns all users ordered by id.
func (r *UserRepository) List(ctx context.Context) (users []domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, "ListUsers", listUsersSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users = []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (u *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, "GetUser", getUserSQL)
	defer func() { end(err) }()

	u, err = scanUser(r.db.QueryRow(ctx, getUserSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// Update writes every mutable column of u.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateUser", updateUserSQL)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, updateUserSQL,
		u.Name, u.Email, u.CPF, u.Phone, u.Age, u.AddressesSummary, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NotFound("user", u.ID)
		case isUniqueViolation(err):
			return apperrors.AlreadyExists("user", "cpf", u.CPF)
		}
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return nil
}

// Delete removes the user; addresses are removed by the foreign key cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteUser", deleteUserSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.CPF,
		&u.Phone,
		&u.Age,
		&u.AddressesSummary,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
