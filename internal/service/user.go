package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/cadastro/internal/domain"
	"github.com/utafrali/cadastro/internal/repository"
	apperrors "github.com/utafrali/cadastro/pkg/errors"
	"github.com/utafrali/cadastro/pkg/validator"
)

// EventPublisher announces committed user changes.
type EventPublisher interface {
	UserCreated(ctx context.Context, user *domain.User) error
	UserUpdated(ctx context.Context, user *domain.User) error
	UserDeleted(ctx context.Context, id int64) error
}

// ListCache stores the full user listing. A miss is reported as
// (nil, false, nil). SetUsers must drop the listing when Invalidate ran
// after gen was read from Generation.
type ListCache interface {
	GetUsers(ctx context.Context) ([]domain.User, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetUsers(ctx context.Context, gen int64, users []domain.User) error
	Invalidate(ctx context.Context) error
}

// AddressInput holds the six fields of a postal address.
type AddressInput struct {
	CEP        string
	Logradouro string
	Numero     string
	Bairro     string
	Cidade     string
	Estado     string
}

// CreateUserInput holds the parameters for registering a user.
type CreateUserInput struct {
	Name      string
	Email     string
	CPF       string
	Phone     string
	Age       int
	Addresses []AddressInput
}

// UpdateUserInput holds a partial update. Nil fields keep their stored
// value. A non-nil Addresses, even if empty, replaces the whole set.
type UpdateUserInput struct {
	Name      *string
	Email     *string
	CPF       *string
	Phone     *string
	Age       *int
	Addresses *[]AddressInput
}

// UserService implements user and address registration.
type UserService struct {
	users     repository.UserRepository
	addresses repository.AddressRepository
	tx        repository.Transactor
	events    EventPublisher
	cache     ListCache
	logger    *slog.Logger
}

// NewUserService creates a user service. users and addresses serve reads;
// every write goes through tx. events and cache may be nil.
func NewUserService(
	users repository.UserRepository,
	addresses repository.AddressRepository,
	tx repository.Transactor,
	events EventPublisher,
	cache ListCache,
	logger *slog.Logger,
) *UserService {
	if events == nil {
		events = noopPublisher{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &UserService{
		users:     users,
		addresses: addresses,
		tx:        tx,
		events:    events,
		cache:     cache,
		logger:    logger,
	}
}

// Create validates the input, then stores the user, its addresses and the
// addresses summary in one transaction.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.TrimSpace(input.Email),
		CPF:   input.CPF,
		Phone: domain.NormalizePhone(input.Phone),
		Age:   input.Age,
	}
	addrs := toAddresses(input.Addresses)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		stored, err := repos.Addresses.Replace(ctx, user.ID, addrs)
		if err != nil {
			return err
		}
		user.SetAddresses(stored)
		return repos.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.afterCommit(ctx, "user created", user.ID, func() error { return s.events.UserCreated(ctx, user) })
	return user, nil
}

// List returns every user with its addresses, ordered by id.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	if cached, ok, err := s.cache.GetUsers(ctx); err != nil {
		s.logger.WarnContext(ctx, "user list cache read failed", slog.String("error", err.Error()))
	} else if ok {
		return cached, nil
	}

	// Read before querying so a write committed during the query
	// keeps this listing out of the cache.
	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.WarnContext(ctx, "user list cache generation read failed", slog.String("error", genErr.Error()))
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	addrs, err := s.addresses.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	byUser := make(map[int64][]domain.Address, len(users))
	for _, a := range addrs {
		byUser[a.UserID] = append(byUser[a.UserID], a)
	}
	for i := range users {
		users[i].Addresses = byUser[users[i].ID]
		if users[i].Addresses == nil {
			users[i].Addresses = []domain.Address{}
		}
	}

	if genErr == nil {
		if err := s.cache.SetUsers(ctx, gen, users); err != nil {
			s.logger.WarnContext(ctx, "user list cache write failed", slog.String("error", err.Error()))
		}
	}
	return users, nil
}

// Get returns one user with its addresses.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	addrs, err := s.addresses.ListByUserID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user addresses: %w", err)
	}
	user.Addresses = addrs
	return user, nil
}

// Update merges input into the stored user. The lookup, the address
// replacement and the user write share one transaction.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error) {
	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		applyUpdate(current, input)

		if input.Addresses != nil {
			stored, err := repos.Addresses.Replace(ctx, id, toAddresses(*input.Addresses))
			if err != nil {
				return err
			}
			current.SetAddresses(stored)
		}

		if err := repos.Users.Update(ctx, current); err != nil {
			return err
		}
		user = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.afterCommit(ctx, "user updated", id, func() error { return s.events.UserUpdated(ctx, user) })
	return user, nil
}

// Delete removes the user and its addresses in one transaction.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Addresses.DeleteByUserID(ctx, id); err != nil {
			return err
		}
		return repos.Users.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.afterCommit(ctx, "user deleted", id, func() error { return s.events.UserDeleted(ctx, id) })
	return nil
}

// afterCommit drops the cached listing and publishes the change. Neither
// can fail the request once the transaction is committed.
func (s *UserService) afterCommit(ctx context.Context, msg string, id int64, publish func() error) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "user list cache invalidation failed",
			slog.Int64("user_id", id),
			slog.String("error", err.Error()),
		)
	}
	if err := publish(); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user event",
			slog.Int64("user_id", id),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, msg, slog.Int64("user_id", id))
}

func applyUpdate(u *domain.User, in UpdateUserInput) {
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.CPF != nil {
		u.CPF = *in.CPF
	}
	if in.Phone != nil {
		u.Phone = domain.NormalizePhone(*in.Phone)
	}
	if in.Age != nil {
		u.Age = *in.Age
	}
}

func toAddresses(in []AddressInput) []domain.Address {
	out := make([]domain.Address, len(in))
	for i, a := range in {
		out[i] = domain.Address{
			CEP:        strings.TrimSpace(a.CEP),
			Logradouro: strings.TrimSpace(a.Logradouro),
			Numero:     strings.TrimSpace(a.Numero),
			Bairro:     strings.TrimSpace(a.Bairro),
			Cidade:     strings.TrimSpace(a.Cidade),
			Estado:     strings.TrimSpace(a.Estado),
		}
	}
	return out
}

func validateCreate(in CreateUserInput) error {
	var errs []error
	errs = append(errs,
		required("name", in.Name),
		required("email", in.Email),
		required("cpf", in.CPF),
	)
	if in.CPF != "" {
		errs = append(errs, checkCPF(in.CPF))
	}
	errs = append(errs, validateAddresses(in.Addresses)...)
	return joinInvalid(errs)
}

func validateUpdate(in UpdateUserInput) error {
	var errs []error
	if in.Name != nil {
		errs = append(errs, required("name", *in.Name))
	}
	if in.Email != nil {
		errs = append(errs, required("email", *in.Email))
	}
	if in.CPF != nil {
		errs = append(errs, checkCPF(*in.CPF))
	}
	if in.Addresses != nil {
		errs = append(errs, validateAddresses(*in.Addresses)...)
	}
	return joinInvalid(errs)
}

// validateAddresses checks every address up front so nothing is written
// when any of them is incomplete.
func validateAddresses(addrs []AddressInput) []error {
	var errs []error
	for i, a := range addrs {
		prefix := fmt.Sprintf("addresses[%d].", i)
		errs = append(errs,
			required(prefix+"cep", a.CEP),
			required(prefix+"logradouro", a.Logradouro),
			required(prefix+"numero", a.Numero),
			required(prefix+"bairro", a.Bairro),
			required(prefix+"cidade", a.Cidade),
			required(prefix+"estado", a.Estado),
		)
	}
	return errs
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func checkCPF(cpf string) error {
	if !validator.IsFormattedCPF(cpf) {
		return errors.New("cpf must have 14 characters using only digits, '.' and '-'")
	}
	return nil
}

func joinInvalid(errs []error) error {
	var msgs []string
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return apperrors.InvalidInput(strings.Join(msgs, "; "))
}

type noopPublisher struct{}

func (noopPublisher) UserCreated(context.Context, *domain.User) error { return nil }
func (noopPublisher) UserUpdated(context.Context, *domain.User) error { return nil }
func (noopPublisher) UserDeleted(context.Context, int64) error        { return nil }

type noopCache struct{}

func (noopCache) GetUsers(context.Context) ([]domain.User, bool, error) { return nil, false, nil }
func (noopCache) Generation(context.Context) (int64, error)             { return 0, nil }
func (noopCache) SetUsers(context.Context, int64, []domain.User) error  { return nil }
func (noopCache) Invalidate(context.Context) error                      { return nil }
