// Duty finder queue notifications.

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
	"time"
)

var errInvalidDutyUpdate = errors.BadRequest("Update must carry either a queue update or a pop timestamp")

type DutyService = Service[entity.DutyCreate, entity.DutyUpdate, entity.DutyDelete, entity.DutyState]

func NewDutyService(connections connection.Repository, messenger Messenger, env *envelope.Envelope, m *metrics.Metrics, logger log.Logger) *DutyService {
	return NewService[entity.DutyCreate, entity.DutyUpdate, entity.DutyDelete, entity.DutyState](NewDutyKind(), connections, messenger, env, m, logger)
}

// DutyKind DMs every duty queue, an update either refreshes the queue message or announces a pop.
type DutyKind struct {
	now func() time.Time
}

func NewDutyKind() DutyKind {
	return DutyKind{now: time.Now}
}

func (DutyKind) Name() string { return "duty" }

func (DutyKind) PassesThreshold(entity.DutyCreate) bool { return true }

// The queue starts at the time of its first update.
func (k DutyKind) NewState(data entity.DutyCreate) entity.DutyState {
	start := data.Update.Timestamp
	if start.IsZero() {
		start = k.now()
	}
	return entity.DutyState{StartTime: start, Data: data.DutyQueue}
}

func (DutyKind) Create(ctx context.Context, m Messenger, recipient uint64, state entity.DutyState, data entity.DutyCreate) (entity.MessageRef, error) {
	return m.CreateMessage(ctx, recipient, discord.EmbedMessage(discord.DutyQueueEmbed(state, data.Update, data.EstimatedTime)))
}

// Update edits the queue message, a pop is posted as a new message in the same channel instead.
func (DutyKind) Update(ctx context.Context, m Messenger, ref entity.MessageRef, state entity.DutyState, data entity.DutyUpdate) error {
	if data.IsPop() {
		_, err := m.SendChannelMessage(ctx, ref.Channel, discord.EmbedMessage(discord.DutyPopEmbed(state, *data.Timestamp, data.ResultingContent, data.InProgressTimestamp)))
		return err
	}
	if data.Update == nil {
		return errInvalidDutyUpdate
	}
	return m.EditMessage(ctx, ref, discord.EmbedMessage(discord.DutyQueueEmbed(state, *data.Update, data.EstimatedTime)))
}

func (k DutyKind) Delete(ctx context.Context, m Messenger, ref entity.MessageRef, state entity.DutyState, data entity.DutyDelete) error {
	return m.EditMessage(ctx, ref, discord.EmbedMessage(discord.DutyCompletionEmbed(state, data, k.now())))
}
