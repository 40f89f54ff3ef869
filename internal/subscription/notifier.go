// Delivery of endpoint publishes to a single subscriber.

package subscription

import (
	"Waitingway/internal/discord"
	"Waitingway/internal/entity"
	"context"
	"time"

	"github.com/pkg/errors"
)

// Notifier delivers one publish to one subscriber.
type Notifier interface {
	Notify(ctx context.Context, subscriber entity.Subscriber, data *entity.EndpointPublish) error
}

// DirectMessenger opens a DM with a discord user and posts into it.
type DirectMessenger interface {
	CreateMessage(ctx context.Context, recipient uint64, msg discord.Message) (entity.MessageRef, error)
}

type discordNotifier struct {
	messenger DirectMessenger
	now       func() time.Time
}

// Returns a Notifier sending the travel embed as a discord DM.
func NewDiscordNotifier(messenger DirectMessenger) Notifier {
	return discordNotifier{messenger: messenger, now: time.Now}
}

func (n discordNotifier) Notify(ctx context.Context, subscriber entity.Subscriber, data *entity.EndpointPublish) error {
	switch subscriber.Kind {
	case entity.SubscriberDiscord:
		embed := discord.PublishEmbed(data.Name, data.Worlds, n.now())
		_, err := n.messenger.CreateMessage(ctx, subscriber.ID, discord.EmbedMessage(embed))
		return err
	}
	return errors.Errorf("unsupported subscriber kind %q", subscriber.Kind)
}
