package http

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/utafrali/cadastro/internal/domain"
	"github.com/utafrali/cadastro/internal/repository"
	apperrors "github.com/utafrali/cadastro/pkg/errors"
)

// memStore is an in-memory store with the same transactional contract as
// postgres.Store: a failed unit of work leaves no trace.
type memStore struct {
	mu        sync.Mutex
	users     map[int64]domain.User
	addresses map[int64][]domain.Address
	nextUser  int64
	nextAddr  int64
	commits   int
	rollbacks int
	writes    int
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int64]domain.User{},
		addresses: map[int64][]domain.Address{},
	}
}

type memSnapshot struct {
	users     map[int64]domain.User
	addresses map[int64][]domain.Address
	nextUser  int64
	nextAddr  int64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		users:     make(map[int64]domain.User, len(s.users)),
		addresses: make(map[int64][]domain.Address, len(s.addresses)),
		nextUser:  s.nextUser,
		nextAddr:  s.nextAddr,
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.addresses {
		snap.addresses[k] = append([]domain.Address(nil), v...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.users = snap.users
	s.addresses = snap.addresses
	s.nextUser = snap.nextUser
	s.nextAddr = snap.nextAddr
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx, repository.Repositories{Users: memUsers{s}, Addresses: memAddresses{s}}); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.CPF == user.CPF {
			return apperrors.AlreadyExists("user", "cpf", user.CPF)
		}
	}
	r.s.nextUser++
	r.s.writes++
	user.ID = r.s.nextUser
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Addresses = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r memUsers) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &u, nil
}

func (r memUsers) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return apperrors.NotFound("user", user.ID)
	}
	for id, u := range r.s.users {
		if id != user.ID && u.CPF == user.CPF {
			return apperrors.AlreadyExists("user", "cpf", user.CPF)
		}
	}
	r.s.writes++
	user.UpdatedAt = time.Now().UTC()
	stored := *user
	stored.Addresses = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperrors.NotFound("user", id)
	}
	r.s.writes++
	delete(r.s.users, id)
	delete(r.s.addresses, id)
	return nil
}

type memAddresses struct{ s *memStore }

func (r memAddresses) ListByUserID(_ context.Context, userID int64) ([]domain.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.Address{}, r.s.addresses[userID]...), nil
}

func (r memAddresses) ListAll(_ context.Context) ([]domain.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []domain.Address
	for _, addrs := range r.s.addresses {
		all = append(all, addrs...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r memAddresses) Replace(_ context.Context, userID int64, addrs []domain.Address) ([]domain.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return nil, apperrors.NotFound("user", userID)
	}
	r.s.writes++
	stored := make([]domain.Address, len(addrs))
	for i, a := range addrs {
		r.s.nextAddr++
		a.ID = r.s.nextAddr
		a.UserID = userID
		a.CreatedAt = time.Now().UTC()
		stored[i] = a
	}
	r.s.addresses[userID] = stored
	return append([]domain.Address{}, stored...), nil
}

func (r memAddresses) DeleteByUserID(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.writes++
	delete(r.s.addresses, userID)
	return nil
}
