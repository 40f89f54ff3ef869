// Login queue notifications.

package notification

import (
	"Waitingway/internal/connection"
	"Waitingway/internal/discord"
	"Waitingway/internal/entity"
	"Waitingway/internal/envelope"
	"Waitingway/internal/metrics"
	"Waitingway/pkg/log"
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type LoginService = Service[entity.LoginCreate, entity.LoginUpdate, entity.LoginDelete, entity.LoginState]

// Returns the login notification service, queues shorter than threshold are not DMed.
func NewLoginService(threshold uint32, connections connection.Repository, messenger Messenger, env *envelope.Envelope, m *metrics.Metrics, logger log.Logger) *LoginService {
	return NewService[entity.LoginCreate, entity.LoginUpdate, entity.LoginDelete, entity.LoginState](NewLoginKind(threshold), connections, messenger, env, m, logger)
}

// LoginKind DMs players whose login queue is at least threshold long.
type LoginKind struct {
	threshold uint32
	now       func() time.Time
}

func NewLoginKind(threshold uint32) LoginKind {
	return LoginKind{threshold: threshold, now: time.Now}
}

func (LoginKind) Name() string { return "login" }

func (k LoginKind) PassesThreshold(data entity.LoginCreate) bool {
	return data.Position >= k.threshold
}

func (LoginKind) NewState(data entity.LoginCreate) entity.LoginState {
	return entity.LoginState{CharacterName: data.CharacterName, HomeWorldID: data.HomeWorldID, WorldID: data.WorldID}
}

func (LoginKind) Create(ctx context.Context, m Messenger, recipient uint64, state entity.LoginState, data entity.LoginCreate) (entity.MessageRef, error) {
	return m.CreateMessage(ctx, recipient, discord.EmbedMessage(discord.LoginQueueEmbed(state.CharacterName, data.LoginUpdate)))
}

func (LoginKind) Update(ctx context.Context, m Messenger, ref entity.MessageRef, state entity.LoginState, data entity.LoginUpdate) error {
	return m.EditMessage(ctx, ref, discord.EmbedMessage(discord.LoginQueueEmbed(state.CharacterName, data)))
}

// Delete removes the queue message and posts the summary next to it, both run concurrently.
func (k LoginKind) Delete(ctx context.Context, m Messenger, ref entity.MessageRef, state entity.LoginState, data entity.LoginDelete) error {
	var g errgroup.Group
	g.Go(func() error {
		return m.DeleteMessage(ctx, ref)
	})
	g.Go(func() error {
		_, err := m.SendChannelMessage(ctx, ref.Channel, discord.EmbedMessage(discord.LoginCompletionEmbed(state.CharacterName, data, k.now())))
		return err
	})
	return g.Wait()
}
