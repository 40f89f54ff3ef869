// Login queue embeds of Waitingway.

package discord

import (
	"Waitingway/internal/entity"
	"fmt"
	"time"
)

// Returns the in-queue embed of a login queue.
func LoginQueueEmbed(characterName string, update entity.LoginUpdate) Embed {
	return Embed{
		Title: characterName + "'s Queue",
		Description: fmt.Sprintf("You're in position %d. You'll login %s (%s)\n\nYou'll receive a DM from me when your queue completes.",
			update.Position,
			Timestamp(update.EstimatedTime, StyleRelative),
			Timestamp(update.EstimatedTime, StyleLongTime),
		),
		Color: ColorInQueue,
	}.WithFooter("Last updated", update.UpdatedAt)
}

// Returns the summary posted once a login queue ends.
func LoginCompletionEmbed(characterName string, data entity.LoginDelete, now time.Time) Embed {
	duration := time.Duration(data.Duration) * time.Second
	if data.Successful {
		return Embed{
			Title: "Queue completed!",
			Description: fmt.Sprintf("%s has been logged in successfully! Thanks for using Waitingway!\n\nYour queue size was %d, which was completed in %s.",
				characterName, data.QueueStartSize, FormatDuration(duration)),
			Color: ColorSuccess,
		}.WithFooter("At", now)
	}

	var description string
	if data.IdentifyTimeout != nil {
		description = fmt.Sprintf("%s left the queue prematurely. If you didn't mean to, try queueing again by %s (%s) to not lose your spot.\n",
			characterName, Timestamp(*data.IdentifyTimeout, StyleLongTime), Timestamp(*data.IdentifyTimeout, StyleRelative))
	} else {
		description = characterName + " left the queue prematurely. If you didn't mean to, try queueing again.\n"
	}
	if data.ErrorMessage != nil && data.ErrorCode != nil {
		description += fmt.Sprintf("Error: %s (%d)\n", *data.ErrorMessage, *data.ErrorCode)
	}
	description += "\n"
	if data.QueueStartSize == data.QueueEndSize {
		description += fmt.Sprintf("Your queue size was %d, and you were in queue for %s.",
			data.QueueStartSize, FormatQueueDuration(duration))
	} else {
		description += fmt.Sprintf("Your queue size started at %d and ended at %d, and you were in queue for %s.",
			data.QueueStartSize, data.QueueEndSize, FormatQueueDuration(duration))
	}
	return Embed{Title: "Unsuccessful Queue", Description: description, Color: ColorError}.WithFooter("At", now)
}
