package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/cadastro/internal/domain"
	pkgkafka "github.com/utafrali/cadastro/pkg/kafka"
	"github.com/utafrali/cadastro/pkg/logger"
)

// Kafka topic constants for user domain events.
const (
	TopicUserCreated = "cadastro.user.created"
	TopicUserUpdated = "cadastro.user.updated"
	TopicUserDeleted = "cadastro.user.deleted"
)

// AggregateTypeUser is the aggregate type of every user event.
const AggregateTypeUser = "user"

// SourceCadastro identifies events originating from this service.
const SourceCadastro = "cadastro"

// Publisher writes an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// UserData is the payload of user.created and user.updated events.
type UserData struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	CPF              string           `json:"cpf"`
	Phone            string           `json:"phone,omitempty"`
	Age              int              `json:"age"`
	Addresses        []domain.Address `json:"addresses"`
	AddressesSummary string           `json:"addresses_summary"`
}

// UserDeletedData is the payload of a user.deleted event.
type UserDeletedData struct {
	ID int64 `json:"id"`
}

// Producer publishes user domain events.
type Producer struct {
	publisher Publisher
	breaker   *Breaker
	logger    *slog.Logger
}

// NewProducer creates a user event producer. breaker may be nil.
func NewProducer(publisher Publisher, breaker *Breaker, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		breaker:   breaker,
		logger:    logger,
	}
}

// UserCreated publishes a user.created event.
func (p *Producer) UserCreated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserCreated, user.ID, newUserData(user))
}

// UserUpdated publishes a user.updated event.
func (p *Producer) UserUpdated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserUpdated, user.ID, newUserData(user))
}

// UserDeleted publishes a user.deleted event.
func (p *Producer) UserDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicUserDeleted, id, UserDeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, topic string, userID int64, data any) error {
	event, err := pkgkafka.NewEvent(topic, strconv.FormatInt(userID, 10), AggregateTypeUser, SourceCadastro, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	send := func() error { return p.publisher.Publish(ctx, topic, event) }
	if p.breaker != nil {
		err = p.breaker.Do(send)
	} else {
		err = send()
	}
	if err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published user event",
		slog.String("topic", topic),
		slog.Int64("user_id", userID),
	)
	return nil
}

func newUserData(u *domain.User) UserData {
	return UserData{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		CPF:              u.CPF,
		Phone:            u.Phone,
		Age:              u.Age,
		Addresses:        u.Addresses,
		AddressesSummary: u.AddressesSummary,
	}
}
