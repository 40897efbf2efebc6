package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aakamshpm/unicode/internal/domain"
	pkgkafka "github.com/aakamshpm/unicode/pkg/kafka"
	"github.com/aakamshpm/unicode/pkg/logger"
)

// Kafka topics for auth domain events.
var (
	TopicUserRegistered    = pkgkafka.Topic("user", "registered")
	TopicUserLoggedIn      = pkgkafka.Topic("user", "logged_in")
	TopicSessionRevokedAll = pkgkafka.Topic("session", "revoked_all")
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeSession = "session"
)

// Source identifier for events originating from the auth service.
const SourceAuthService = "auth-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	AuthProvider string `json:"auth_provider"`
	Role         string `json:"role"`
}

// UserLoggedInData is the payload for a user.logged_in event.
type UserLoggedInData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// SessionRevokedAllData is the payload for a session.revoked_all event,
// emitted when every session of a user is revoked at once.
type SessionRevokedAllData struct {
	UserID string `json:"user_id"`
}

// Producer publishes auth domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		AuthProvider: user.AuthProvider,
		Role:         user.Role,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	return nil
}

// PublishUserLoggedIn publishes a user.logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, user *domain.User) error {
	data := UserLoggedInData{
		UserID:   user.ID,
		Username: user.Username,
	}

	event, err := pkgkafka.NewEvent(TopicUserLoggedIn, user.ID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create user.logged_in event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicUserLoggedIn, event); err != nil {
		return fmt.Errorf("publish user.logged_in event: %w", err)
	}

	return nil
}

// PublishSessionRevokedAll publishes a session.revoked_all event.
func (p *Producer) PublishSessionRevokedAll(ctx context.Context, userID string) error {
	data := SessionRevokedAllData{UserID: userID}

	event, err := pkgkafka.NewEvent(TopicSessionRevokedAll, userID, AggregateTypeSession, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create session.revoked_all event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicSessionRevokedAll, event); err != nil {
		return fmt.Errorf("publish session.revoked_all event: %w", err)
	}

	return nil
}
