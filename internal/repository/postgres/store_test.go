package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/cadastro/internal/repository"
)

func TestStore_WithinTx_Commits(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)
	u := sampleUser()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.Name, u.Email, u.CPF, u.Phone, u.Age, u.AddressesSummary).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return repos.Users.Create(ctx, u)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)
	fnErr := errors.New("address 2 invalid")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return fnErr
	})

	assert.ErrorIs(t, err, fnErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_BeginError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err := store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
	assert.False(t, called)
}

func TestStore_WithinTx_CommitError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit tx")
}

func TestStore_Repositories(t *testing.T) {
	store := NewStore(newMock(t))
	repos := store.Repositories()

	assert.NotNil(t, repos.Users)
	assert.NotNil(t, repos.Addresses)
}
