// Service layer of the internal package notification.
// A notification is a set of discord messages, one per linked account, kept in sync with a client side queue.
// The message refs live in a sealed token held by the client instead of being stored server side.

package notification

import (
	"Waitingway/internal/connection"
	"Waitingway/internal/discord"
	"Waitingway/internal/entity"
	"Waitingway/internal/envelope"
	"Waitingway/internal/errors"
	"Waitingway/internal/metrics"
	"Waitingway/pkg/log"
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Messenger is the discord surface notifications are rendered through.
type Messenger interface {
	CreateMessage(ctx context.Context, recipient uint64, msg discord.Message) (entity.MessageRef, error)
	SendChannelMessage(ctx context.Context, channelID uint64, msg discord.Message) (entity.MessageRef, error)
	EditMessage(ctx context.Context, ref entity.MessageRef, msg discord.Message) error
	DeleteMessage(ctx context.Context, ref entity.MessageRef) error
}

// Kind renders one type of queue notification.
// C, U and D are the create, update and delete payloads, S is what a token keeps for later renders.
type Kind[C, U, D, S any] interface {
	Name() string
	// PassesThreshold returns false when the queue is not worth a DM.
	PassesThreshold(data C) bool
	NewState(data C) S
	Create(ctx context.Context, m Messenger, recipient uint64, state S, data C) (entity.MessageRef, error)
	Update(ctx context.Context, m Messenger, ref entity.MessageRef, state S, data U) error
	Delete(ctx context.Context, m Messenger, ref entity.MessageRef, state S, data D) error
}

// Session is sealed into the token handed back on create.
type Session[S any] struct {
	Messages []entity.MessageRef `json:"messages"`
	State    S                   `json:"state"`
}

// Service fans every operation out to the messages of one notification.
type Service[C, U, D, S any] struct {
	kind        Kind[C, U, D, S]
	connections connection.Repository
	messenger   Messenger
	envelope    *envelope.Envelope
	metrics     *metrics.Metrics
	logger      log.Logger
}

func NewService[C, U, D, S any](kind Kind[C, U, D, S], connections connection.Repository, messenger Messenger, env *envelope.Envelope, m *metrics.Metrics, logger log.Logger) *Service[C, U, D, S] {
	return &Service[C, U, D, S]{
		kind:        kind,
		connections: connections,
		messenger:   messenger,
		envelope:    env,
		metrics:     m,
		logger:      logger.With("notification", kind.Name()),
	}
}

// Create DMs every account linked to account and returns the token of the new notification.
// A nil token with a nil error means the queue did not pass the threshold and nothing was sent.
func (s *Service[C, U, D, S]) Create(ctx context.Context, account uuid.UUID, data C) (*envelope.Token, error) {
	if !s.kind.PassesThreshold(data) {
		return nil, nil
	}
	recipients, err := s.connections.LinkedRecipients(ctx, s.logger, account)
	if err != nil {
		return nil, err
	}

	state := s.kind.NewState(data)
	refs := make([]entity.MessageRef, len(recipients))
	var g errgroup.Group
	for i, recipient := range recipients {
		g.Go(func() error {
			ref, err := s.kind.Create(ctx, s.messenger, recipient, state, data)
			if err := s.record(ctx, "create", err); err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}
	// Siblings are not cancelled, every recipient gets its attempt
	if err := g.Wait(); err != nil {
		return nil, err
	}

	token, err := s.envelope.Seal(account, Session[S]{Messages: refs, State: state})
	if err != nil {
		s.logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during envelope.Seal() in notification.Create")
		return nil, errors.InternalServerError("")
	}
	s.metrics.NotificationTokensTotal.WithLabelValues(s.kind.Name()).Inc()
	return &token, nil
}

// Update re-renders every message of the notification sealed in token.
func (s *Service[C, U, D, S]) Update(ctx context.Context, account uuid.UUID, token envelope.Token, data U) error {
	session, err := s.open(ctx, account, token)
	if err != nil {
		return err
	}
	return s.fanOut(ctx, "update", session.Messages, func(ref entity.MessageRef) error {
		return s.kind.Update(ctx, s.messenger, ref, session.State, data)
	})
}

// Delete renders the final state of every message of the notification sealed in token.
func (s *Service[C, U, D, S]) Delete(ctx context.Context, account uuid.UUID, token envelope.Token, data D) error {
	session, err := s.open(ctx, account, token)
	if err != nil {
		return err
	}
	return s.fanOut(ctx, "delete", session.Messages, func(ref entity.MessageRef) error {
		return s.kind.Delete(ctx, s.messenger, ref, session.State, data)
	})
}

// Helper to open a token, a bad token is the client's fault.
func (s *Service[C, U, D, S]) open(ctx context.Context, account uuid.UUID, token envelope.Token) (Session[S], error) {
	var session Session[S]
	if err := s.envelope.Open(token, account, &session); err != nil {
		if !envelope.IsClientError(err) {
			s.logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during envelope.Open() in notification.Service")
			return session, errors.InternalServerError("")
		}
		s.logger.WithCtx(ctx).Warn().Err(err).Msg("Rejected instance token")
		return session, errors.BadRequest("Invalid instance token")
	}
	return session, nil
}

// Helper running op for every ref concurrently, returns the first error once all of them finished.
func (s *Service[C, U, D, S]) fanOut(ctx context.Context, operation string, refs []entity.MessageRef, op func(entity.MessageRef) error) error {
	var g errgroup.Group
	for _, ref := range refs {
		g.Go(func() error {
			return s.record(ctx, operation, op(ref))
		})
	}
	return g.Wait()
}

// Helper to log and count the outcome of one dispatch, returns err unchanged.
func (s *Service[C, U, D, S]) record(ctx context.Context, operation string, err error) error {
	if err != nil {
		s.metrics.NotificationDispatchesTotal.WithLabelValues(s.kind.Name(), operation, metrics.OutcomeFailure).Inc()
		s.logger.WithCtx(ctx).Error().Err(err).Str("operation", operation).Msg("Error occured during dispatch in notification.Service")
		return err
	}
	s.metrics.NotificationDispatchesTotal.WithLabelValues(s.kind.Name(), operation, metrics.OutcomeSuccess).Inc()
	return nil
}
