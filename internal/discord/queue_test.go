package discord

import (
	"Waitingway/internal/entity"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestLoginQueueEmbed(t *testing.T) {
	eta := time.Unix(1700000600, 0)
	e := LoginQueueEmbed("Y'shtola Rhul", entity.LoginUpdate{Position: 420, UpdatedAt: time.Unix(1700000000, 0), EstimatedTime: eta})
	assert.Equal(t, "Y'shtola Rhul's Queue", e.Title)
	assert.Equal(t, "You're in position 420. You'll login <t:1700000600:R> (<t:1700000600:T>)\n\nYou'll receive a DM from me when your queue completes.", e.Description)
	assert.Equal(t, ColorInQueue, e.Color)
	require.NotNil(t, e.Footer)
	assert.Equal(t, "Last updated", e.Footer.Text)
}

func TestLoginCompletionEmbed(t *testing.T) {
	now := time.Now()
	success := LoginCompletionEmbed("Alphinaud", entity.LoginDelete{Successful: true, QueueStartSize: 300, Duration: 3725}, now)
	assert.Equal(t, "Queue completed!", success.Title)
	assert.Equal(t, "Alphinaud has been logged in successfully! Thanks for using Waitingway!\n\nYour queue size was 300, which was completed in 1h 2m 5s.", success.Description)
	assert.Equal(t, ColorSuccess, success.Color)

	timeout := time.Unix(1700000000, 0)
	failed := LoginCompletionEmbed("Alphinaud", entity.LoginDelete{
		QueueStartSize:  300,
		QueueEndSize:    12,
		Duration:        0,
		ErrorMessage:    ptr("Lobby server closed the connection"),
		ErrorCode:       ptr(int32(2002)),
		IdentifyTimeout: &timeout,
	}, now)
	assert.Equal(t, "Unsuccessful Queue", failed.Title)
	assert.Equal(t, "Alphinaud left the queue prematurely. If you didn't mean to, try queueing again by <t:1700000000:T> (<t:1700000000:R>) to not lose your spot.\n"+
		"Error: Lobby server closed the connection (2002)\n"+
		"\nYour queue size started at 300 and ended at 12, and you were in queue for Instant.", failed.Description)
	assert.Equal(t, ColorError, failed.Color)

	// An error message without a code is not shown
	same := LoginCompletionEmbed("Alphinaud", entity.LoginDelete{QueueStartSize: 5, QueueEndSize: 5, Duration: 61, ErrorMessage: ptr("gone")}, now)
	assert.Equal(t, "Alphinaud left the queue prematurely. If you didn't mean to, try queueing again.\n\nYour queue size was 5, and you were in queue for 1m 1s.", same.Description)
}

func TestQueueName(t *testing.T) {
	assert.Equal(t, "Unknown", QueueName(entity.DutyQueue{}, true))
	assert.Equal(t, "Roulette 3", QueueName(entity.DutyQueue{QueuedRoulette: ptr(uint8(3)), QueuedContent: []uint16{1}}, false))
	three := entity.DutyQueue{QueuedContent: []uint16{1, 2, 3}}
	assert.Equal(t, "Content 1 and 2 more", QueueName(three, false))
	assert.Equal(t, "Content 1, Content 2, and Content 3", QueueName(three, true))
	assert.Equal(t, "Content 1 and Content 2", QueueName(entity.DutyQueue{QueuedContent: []uint16{1, 2}}, true))
}

func TestDutyQueueEmbed(t *testing.T) {
	start := time.Unix(1700000000, 0)
	state := entity.DutyState{StartTime: start, Data: entity.DutyQueue{CharacterName: "Thancred", QueuedRoulette: ptr(uint8(1))}}

	e := DutyQueueEmbed(state, entity.RecapUpdate{
		Timestamp: start.Add(time.Minute),
		WaitTime:  ptr(uint8(10)),
		Position:  ptr(uint8(7)),
	}, nil)
	assert.Equal(t, "Roulette 1", e.Title)
	assert.Equal(t, "You're in position **7**.\n"+
		"The game-reported ETA is **10m**.\n"+
		"Your queue will pop <t:1700000600:R> (<t:1700000600:t>).\n"+
		"You began your queue <t:1700000000:R>.\n"+
		"\nYou'll receive a DM from me when your queue pops.", e.Description)
	require.NotNil(t, e.Author)
	assert.Equal(t, "Thancred", e.Author.Name)

	fill := DutyQueueEmbed(state, entity.RecapUpdate{
		WaitTime: ptr(entity.WaitTimeOver30Minutes),
		Tanks:    &entity.FillParam{Found: 1, Needed: 1},
		Healers:  &entity.FillParam{Found: 0, Needed: 1},
		DPS:      &entity.FillParam{Found: 2, Needed: 2},
	}, nil)
	assert.Equal(t, "The game-reported ETA is **30m+**.\n"+
		"Tanks 1/1 Healers 0/1 DPS 2/2\n"+
		"You began your queue <t:1700000000:R>.\n"+
		"\nYou'll receive a DM from me when your queue pops.", fill.Description)

	estimated := start.Add(time.Hour)
	hidden := DutyQueueEmbed(state, entity.RecapUpdate{WaitTime: ptr(entity.WaitTimeHidden), Position: ptr(entity.PositionAfter50)}, &estimated)
	assert.Contains(t, hidden.Description, "You're in position **50+**.")
	assert.Contains(t, hidden.Description, "The game-reported ETA is unknown.")
	assert.Contains(t, hidden.Description, "Your queue will pop <t:1700003600:R>")
}

func TestDutyPopEmbed(t *testing.T) {
	at := time.Unix(1700000000, 0)
	state := entity.DutyState{Data: entity.DutyQueue{CharacterName: "Thancred"}}

	e := DutyPopEmbed(state, at, ptr(uint16(55)), nil)
	assert.Equal(t, "Queue popped!", e.Title)
	assert.Equal(t, "This queue pop for Content 55 expires <t:1700000045:R>.", e.Description)
	assert.Equal(t, ColorQueuePop, e.Color)

	inProgress := at.Add(-10 * time.Minute)
	e = DutyPopEmbed(state, at, nil, &inProgress)
	assert.Equal(t, "This queue pop  expires <t:1700000045:R>.\nYou will be joining an in-progress duty that began <t:1699999400:R>", e.Description)
}

func TestDutyCompletionEmbed(t *testing.T) {
	now := time.Now()
	roulette := entity.DutyState{Data: entity.DutyQueue{CharacterName: "Urianger", QueuedRoulette: ptr(uint8(2))}}

	done := DutyCompletionEmbed(roulette, entity.DutyDelete{ResultingContent: ptr(uint16(9)), PositionStart: ptr(uint8(12)), Duration: 90}, now)
	assert.Equal(t, "Queue completed!", done.Title)
	assert.Equal(t, "You've entered Content 9! Thanks for using Waitingway!\n\nYou were in queue for Roulette 2.\nYour queue size was 12, which was completed in 1m 30s.", done.Description)

	left := DutyCompletionEmbed(roulette, entity.DutyDelete{PositionStart: ptr(uint8(12)), PositionEnd: ptr(uint8(3)), Duration: 30}, now)
	assert.Equal(t, "Unsuccessful Queue", left.Title)
	assert.Equal(t, "You left the queue!\n\nYour position started at 12 and ended at 3, and you spent 30s in queue.\nYou were in queue for Roulette 2.", left.Description)
	assert.Equal(t, ColorError, left.Color)

	failed := DutyCompletionEmbed(roulette, entity.DutyDelete{ErrorMessage: ptr("Disconnected"), ErrorCode: ptr(uint16(4002))}, now)
	assert.Equal(t, "Disconnected\n\nYou spent Instant in queue.\nYou were in queue for Roulette 2.", failed.Description)
}
