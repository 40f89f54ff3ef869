// Duty queue embeds of Waitingway.

package discord

import (
	"Waitingway/internal/entity"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// How long a duty pop can be accepted.
const popWindow = 45 * time.Second

// Content and roulette names are not shipped with Waitingway, ids are rendered instead.
func contentName(id uint16) string {
	return "Content " + strconv.Itoa(int(id))
}

func rouletteName(id uint8) string {
	return "Roulette " + strconv.Itoa(int(id))
}

// Returns the name of what q queued for, expand lists every duty instead of summarizing.
func QueueName(q entity.DutyQueue, expand bool) string {
	var names []string
	if q.QueuedRoulette != nil {
		names = []string{rouletteName(*q.QueuedRoulette)}
	} else {
		for _, id := range q.QueuedContent {
			names = append(names, contentName(id))
		}
	}
	switch {
	case len(names) == 0:
		return "Unknown"
	case len(names) == 1:
		return names[0]
	case !expand:
		return fmt.Sprintf("%s and %d more", names[0], len(names)-1)
	case len(names) == 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}

func formatPosition(p uint8) string {
	switch p {
	case entity.PositionAfter50:
		return "50+"
	case entity.PositionRetrievingInfo, 0:
		return "unknown"
	}
	return strconv.Itoa(int(p))
}

func dutyAuthor(q entity.DutyQueue) *EmbedAuthor {
	return &EmbedAuthor{Name: q.CharacterName}
}

// Returns the in-queue embed of a duty queue.
func DutyQueueEmbed(state entity.DutyState, update entity.RecapUpdate, estimated *time.Time) Embed {
	var sentences []string
	if update.Position != nil {
		switch p := *update.Position; p {
		case entity.PositionRetrievingInfo, 0:
			sentences = append(sentences, "Your position is currently unknown.")
		default:
			sentences = append(sentences, fmt.Sprintf("You're in position **%s**.", formatPosition(p)))
		}
	}
	if update.WaitTime != nil {
		switch w := *update.WaitTime; w {
		case entity.WaitTimeHidden:
			sentences = append(sentences, "The game-reported ETA is unknown.")
		case entity.WaitTimeOver30Minutes:
			sentences = append(sentences, "The game-reported ETA is **30m+**.")
		default:
			sentences = append(sentences, fmt.Sprintf("The game-reported ETA is **%s**.", FormatDutyETA(time.Duration(w)*time.Minute)))
		}
	}
	switch {
	case update.Tanks != nil && update.Healers != nil && update.DPS != nil:
		sentences = append(sentences, fmt.Sprintf("Tanks %d/%d Healers %d/%d DPS %d/%d",
			update.Tanks.Found, update.Tanks.Needed,
			update.Healers.Found, update.Healers.Needed,
			update.DPS.Found, update.DPS.Needed))
	case update.Players != nil:
		sentences = append(sentences, fmt.Sprintf("Players %d/%d", update.Players.Found, update.Players.Needed))
	}
	if pop, ok := popEstimate(state.StartTime, update, estimated); ok {
		sentences = append(sentences, fmt.Sprintf("Your queue will pop %s (%s).", Timestamp(pop, StyleRelative), Timestamp(pop, StyleShortTime)))
	}
	sentences = append(sentences,
		fmt.Sprintf("You began your queue %s.", Timestamp(state.StartTime, StyleRelative)),
		"\nYou'll receive a DM from me when your queue pops.",
	)

	return Embed{
		Title:       QueueName(state.Data, false),
		Description: strings.Join(sentences, "\n"),
		Author:      dutyAuthor(state.Data),
		Color:       ColorInQueue,
	}.WithFooter("Last updated", update.Timestamp)
}

// Returns the client estimate, or the game-reported wait counted from the queue start.
func popEstimate(start time.Time, update entity.RecapUpdate, estimated *time.Time) (time.Time, bool) {
	if estimated != nil {
		return *estimated, true
	}
	if update.WaitTime == nil || *update.WaitTime == entity.WaitTimeHidden || *update.WaitTime == entity.WaitTimeOver30Minutes {
		return time.Time{}, false
	}
	return start.Add(time.Duration(*update.WaitTime) * time.Minute), true
}

// Returns the embed announcing a duty pop at timestamp.
func DutyPopEmbed(state entity.DutyState, timestamp time.Time, resultingContent *uint16, inProgress *time.Time) Embed {
	description := "This queue pop "
	if resultingContent != nil {
		description += "for " + contentName(*resultingContent)
	}
	description += fmt.Sprintf(" expires %s.", Timestamp(timestamp.Add(popWindow), StyleRelative))
	if inProgress != nil {
		description += "\nYou will be joining an in-progress duty that began " + Timestamp(*inProgress, StyleRelative)
	}
	return Embed{
		Title:       "Queue popped!",
		Description: description,
		Author:      dutyAuthor(state.Data),
		Color:       ColorQueuePop,
	}.WithFooter("At", timestamp)
}

// Returns the final state of a duty queue message.
func DutyCompletionEmbed(state entity.DutyState, data entity.DutyDelete, now time.Time) Embed {
	duration := time.Duration(data.Duration) * time.Second
	q := state.Data
	if data.ResultingContent != nil {
		description := fmt.Sprintf("You've entered %s! Thanks for using Waitingway!\n\n", contentName(*data.ResultingContent))
		if q.QueuedRoulette != nil || len(q.QueuedContent) > 1 {
			description += fmt.Sprintf("You were in queue for %s.\n", QueueName(q, true))
		}
		if data.PositionStart != nil {
			description += fmt.Sprintf("Your queue size was %s, which was completed in %s.", formatPosition(*data.PositionStart), FormatQueueDuration(duration))
		} else {
			description += fmt.Sprintf("Your queue was completed in %s.", FormatQueueDuration(duration))
		}
		return Embed{Title: "Queue completed!", Description: description, Author: dutyAuthor(q), Color: ColorSuccess}.WithFooter("At", now)
	}

	description := "You left the queue!"
	if data.ErrorMessage != nil && data.ErrorCode != nil {
		description = *data.ErrorMessage
	}
	description += "\n\n"
	start, end := data.PositionStart, data.PositionEnd
	switch {
	case start != nil && end != nil && *start != *end:
		description += fmt.Sprintf("Your position started at %s and ended at %s, and you spent %s in queue.",
			formatPosition(*start), formatPosition(*end), FormatQueueDuration(duration))
	case start != nil:
		description += fmt.Sprintf("You were in position %s, and spent %s in queue.", formatPosition(*start), FormatQueueDuration(duration))
	default:
		description += fmt.Sprintf("You spent %s in queue.", FormatQueueDuration(duration))
	}
	description += fmt.Sprintf("\nYou were in queue for %s.", QueueName(q, true))
	return Embed{Title: "Unsuccessful Queue", Description: description, Author: dutyAuthor(q), Color: ColorError}.WithFooter("At", now)
}
