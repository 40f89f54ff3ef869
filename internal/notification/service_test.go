// Notification fan-out tests in Waitingway.

package notification

import (
	"Waitingway/internal/discord"
	"Waitingway/internal/entity"
	"Waitingway/internal/envelope"
	"Waitingway/internal/errors"
	"Waitingway/internal/metrics"
	"Waitingway/pkg/log"
	"Waitingway/pkg/validations"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Global instance of log.Logger to be used during notification testing.
var logger log.Logger = log.NewWithWriter("test", io.Discard)

// Global context
var ctx context.Context = context.Background()

var (
	account      = uuid.MustParse("9d7c3c1e-5b0a-4e8f-8d4e-0c1b2a3d4e5f")
	otherAccount = uuid.MustParse("1a2b3c4d-5e6f-4a1b-9c2d-3e4f5a6b7c8d")
)

func TestMain(m *testing.M) {
	validations.RegisterCustomValidations()
	os.Exit(m.Run())
}

type fakeConnections struct {
	mu      sync.Mutex
	linked  map[uuid.UUID][]uint64
	lookups int
}

func (c *fakeConnections) LinkedRecipients(ctx context.Context, logger log.Logger, account uuid.UUID) ([]uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	return c.linked[account], nil
}

// fakeMessenger records every discord call, recipients in fail error out on create.
type fakeMessenger struct {
	mu      sync.Mutex
	created []uint64
	sent    []uint64
	edited  []entity.MessageRef
	deleted []entity.MessageRef
	embeds  []discord.Embed
	fail    map[uint64]bool
	failAll bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{fail: make(map[uint64]bool)}
}

func (m *fakeMessenger) CreateMessage(ctx context.Context, recipient uint64, msg discord.Message) (entity.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, recipient)
	m.embeds = append(m.embeds, msg.Embeds...)
	if m.fail[recipient] || m.failAll {
		return entity.MessageRef{}, &discord.APIError{Status: 403, Code: 50007, Message: "Cannot send messages to this user"}
	}
	// DM channel and message ids derived from the recipient
	return entity.MessageRef{Message: recipient * 10, Channel: recipient * 100}, nil
}

func (m *fakeMessenger) SendChannelMessage(ctx context.Context, channelID uint64, msg discord.Message) (entity.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, channelID)
	m.embeds = append(m.embeds, msg.Embeds...)
	if m.failAll {
		return entity.MessageRef{}, stderrors.New("discord unavailable")
	}
	return entity.MessageRef{Message: channelID + 1, Channel: channelID}, nil
}

func (m *fakeMessenger) EditMessage(ctx context.Context, ref entity.MessageRef, msg discord.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, ref)
	m.embeds = append(m.embeds, msg.Embeds...)
	if m.failAll {
		return &discord.APIError{Status: 404, Code: 10008, Message: "Unknown Message"}
	}
	return nil
}

func (m *fakeMessenger) DeleteMessage(ctx context.Context, ref entity.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	if m.failAll {
		return stderrors.New("discord unavailable")
	}
	return nil
}

func newEnvelope(t *testing.T) *envelope.Envelope {
	env, err := envelope.New(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return env
}

func newLoginService(t *testing.T, messenger Messenger, connections *fakeConnections) *LoginService {
	return NewLoginService(50, connections, messenger, newEnvelope(t), metrics.New(prometheus.NewRegistry()), logger)
}

func newDutyService(t *testing.T, messenger Messenger, connections *fakeConnections) *DutyService {
	return NewDutyService(connections, messenger, newEnvelope(t), metrics.New(prometheus.NewRegistry()), logger)
}

func loginCreate(position uint32) entity.LoginCreate {
	return entity.LoginCreate{
		CharacterName: "Minfilia Warde",
		HomeWorldID:   73,
		WorldID:       73,
		LoginUpdate: entity.LoginUpdate{
			Position:      position,
			UpdatedAt:     time.Unix(1700000000, 0),
			EstimatedTime: time.Unix(1700003600, 0),
		},
	}
}

func TestCreateBelowThresholdSendsNothing(t *testing.T) {
	messenger := newFakeMessenger()
	connections := &fakeConnections{linked: map[uuid.UUID][]uint64{account: {1, 2}}}
	service := newLoginService(t, messenger, connections)

	token, err := service.Create(ctx, account, loginCreate(49))
	require.NoError(t, err)
	assert.Nil(t, token)
	assert.Empty(t, messenger.created)
	assert.Zero(t, connections.lookups)
}

func TestCreateFailsWhenAnyDispatchFails(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.fail[2] = true
	connections := &fakeConnections{linked: map[uuid.UUID][]uint64{account: {1, 2, 3}}}
	service := newLoginService(t, messenger, connections)

	token, err := service.Create(ctx, account, loginCreate(500))
	assert.Error(t, err)
	assert.Nil(t, token)
	// Every recipient got its attempt
	assert.ElementsMatch(t, []uint64{1, 2, 3}, messenger.created)
}

func TestCreateWithoutRecipients(t *testing.T) {
	messenger := newFakeMessenger()
	service := newLoginService(t, messenger, &fakeConnections{})

	token, err := service.Create(ctx, account, loginCreate(500))
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Empty(t, messenger.created)

	require.NoError(t, service.Update(ctx, account, *token, entity.LoginUpdate{Position: 20}))
	assert.Empty(t, messenger.edited)
}

func TestLoginLifecycle(t *testing.T) {
	messenger := newFakeMessenger()
	connections := &fakeConnections{linked: map[uuid.UUID][]uint64{account: {1, 2}}}
	service := newLoginService(t, messenger, connections)

	token, err := service.Create(ctx, account, loginCreate(500))
	require.NoError(t, err)
	require.NotNil(t, token)
	require.Len(t, messenger.embeds, 2)
	assert.Equal(t, "Minfilia Warde's Queue", messenger.embeds[0].Title)

	refs := []entity.MessageRef{{Message: 10, Channel: 100}, {Message: 20, Channel: 200}}
	require.NoError(t, service.Update(ctx, account, *token, entity.LoginUpdate{Position: 100}))
	assert.ElementsMatch(t, refs, messenger.edited)

	require.NoError(t, service.Delete(ctx, account, *token, entity.LoginDelete{Successful: true, QueueStartSize: 500, Duration: 600}))
	assert.ElementsMatch(t, refs, messenger.deleted)
	assert.ElementsMatch(t, []uint64{100, 200}, messenger.sent)
}

func TestTokenIsBoundToAccount(t *testing.T) {
	messenger := newFakeMessenger()
	connections := &fakeConnections{linked: map[uuid.UUID][]uint64{account: {1}}}
	service := newLoginService(t, messenger, connections)

	token, err := service.Create(ctx, account, loginCreate(500))
	require.NoError(t, err)

	err = service.Update(ctx, otherAccount, *token, entity.LoginUpdate{Position: 1})
	require.Error(t, err)
	assert.Equal(t, 400, errors.AsResponse(err).Status)

	tampered := *token
	tampered.Data = "A" + tampered.Data[1:]
	if tampered.Data == token.Data {
		tampered.Data = "B" + tampered.Data[1:]
	}
	err = service.Delete(ctx, account, tampered, entity.LoginDelete{})
	require.Error(t, err)
	assert.Equal(t, 400, errors.AsResponse(err).Status)

	err = service.Update(ctx, account, envelope.Token{}, entity.LoginUpdate{})
	assert.Equal(t, 400, errors.AsResponse(err).Status)

	assert.Empty(t, messenger.edited)
	assert.Empty(t, messenger.deleted)
}

func TestUpdateSurfacesDispatchErrors(t *testing.T) {
	messenger := newFakeMessenger()
	connections := &fakeConnections{linked: map[uuid.UUID][]uint64{account: {1, 2}}}
	service := newLoginService(t, messenger, connections)
	token, err := service.Create(ctx, account, loginCreate(500))
	require.NoError(t, err)

	// Messages deleted on the discord side are a dispatch failure like any other
	messenger.failAll = true
	err = service.Update(ctx, account, *token, entity.LoginUpdate{Position: 10})
	require.Error(t, err)
	assert.True(t, discord.IsNotFound(err))
	assert.Len(t, messenger.edited, 2)
	assert.Equal(t, 500, errors.AsResponse(err).Status)
}

func TestDutyLifecycle(t *testing.T) {
	messenger := newFakeMessenger()
	connections := &fakeConnections{linked: map[uuid.UUID][]uint64{account: {3}}}
	service := newDutyService(t, messenger, connections)

	start := time.Unix(1700000000, 0)
	roulette := uint8(1)
	token, err := service.Create(ctx, account, entity.DutyCreate{
		DutyQueue: entity.DutyQueue{CharacterName: "Estinien", HomeWorldID: 79, QueuedRoulette: &roulette},
		Update:    entity.RecapUpdate{Timestamp: start},
	})
	require.NoError(t, err)
	require.NotNil(t, token)
	ref := entity.MessageRef{Message: 30, Channel: 300}

	position := uint8(5)
	require.NoError(t, service.Update(ctx, account, *token, entity.DutyUpdate{Update: &entity.RecapUpdate{Timestamp: start.Add(time.Minute), Position: &position}}))
	assert.Equal(t, []entity.MessageRef{ref}, messenger.edited)

	popped := start.Add(5 * time.Minute)
	require.NoError(t, service.Update(ctx, account, *token, entity.DutyUpdate{Timestamp: &popped}))
	assert.Equal(t, []uint64{300}, messenger.sent)
	assert.Equal(t, "Queue popped!", messenger.embeds[len(messenger.embeds)-1].Title)

	content := uint16(77)
	require.NoError(t, service.Delete(ctx, account, *token, entity.DutyDelete{ResultingContent: &content, Duration: 300}))
	assert.Equal(t, []entity.MessageRef{ref, ref}, messenger.edited)
	assert.Empty(t, messenger.deleted)
	last := messenger.embeds[len(messenger.embeds)-1]
	assert.Equal(t, "Queue completed!", last.Title)
	assert.Contains(t, last.Description, "You were in queue for Roulette 1.")
}

func TestDutyStateStartsAtFirstUpdate(t *testing.T) {
	kind := DutyKind{now: func() time.Time { return time.Unix(42, 0) }}
	start := time.Unix(1700000000, 0)
	assert.Equal(t, start, kind.NewState(entity.DutyCreate{Update: entity.RecapUpdate{Timestamp: start}}).StartTime)
	assert.Equal(t, time.Unix(42, 0), kind.NewState(entity.DutyCreate{}).StartTime)
}
