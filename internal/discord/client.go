// Discord REST client used to deliver every DM Waitingway sends.

package discord

import (
	"Waitingway/internal/entity"
	"Waitingway/pkg/log"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// APIError is the error body discord returns on a non 2xx response.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord: %d %s (%d)", e.Status, e.Message, e.Code)
}

// Returns true if err is a discord 404, the message or channel is gone.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type channel struct {
	ID uint64 `json:"id,string"`
}

type message struct {
	ID        uint64 `json:"id,string"`
	ChannelID uint64 `json:"channel_id,string"`
}

// Client talks to the discord REST API as the Waitingway bot.
type Client struct {
	http   *resty.Client
	logger log.Logger
}

// Returns a Client authenticated with the bot token against apiURL.
func NewClient(apiURL, botToken string, logger log.Logger) *Client {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Bot "+botToken).
		SetHeader("User-Agent", "DiscordBot (https://waitingway.com, 1.0)").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)

	// Only rate limits are retried, anything else is reported to the caller
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err == nil && r.StatusCode() == http.StatusTooManyRequests
	})
	return &Client{http: client, logger: logger}
}

// Opens (or reuses) the DM channel with recipient and returns its id.
func (c *Client) CreateDM(ctx context.Context, recipient uint64) (uint64, error) {
	var ch channel
	err := c.do(ctx, http.MethodPost, "/users/@me/channels",
		map[string]string{"recipient_id": strconv.FormatUint(recipient, 10)}, &ch)
	if err != nil {
		return 0, errors.Wrapf(err, "creating dm channel for %d", recipient)
	}
	return ch.ID, nil
}

// Sends msg into channelID.
func (c *Client) SendChannelMessage(ctx context.Context, channelID uint64, msg Message) (entity.MessageRef, error) {
	var m message
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/channels/%d/messages", channelID), msg, &m); err != nil {
		return entity.MessageRef{}, errors.Wrapf(err, "sending message to channel %d", channelID)
	}
	if m.ChannelID == 0 {
		m.ChannelID = channelID
	}
	return entity.MessageRef{Message: m.ID, Channel: m.ChannelID}, nil
}

// Sends msg as a DM to recipient.
func (c *Client) CreateMessage(ctx context.Context, recipient uint64, msg Message) (entity.MessageRef, error) {
	channelID, err := c.CreateDM(ctx, recipient)
	if err != nil {
		return entity.MessageRef{}, err
	}
	return c.SendChannelMessage(ctx, channelID, msg)
}

// Replaces the content of the message at ref with msg.
func (c *Client) EditMessage(ctx context.Context, ref entity.MessageRef, msg Message) error {
	path := fmt.Sprintf("/channels/%d/messages/%d", ref.Channel, ref.Message)
	return errors.Wrapf(c.do(ctx, http.MethodPatch, path, msg, nil), "editing message %d", ref.Message)
}

// Deletes the message at ref.
func (c *Client) DeleteMessage(ctx context.Context, ref entity.MessageRef) error {
	path := fmt.Sprintf("/channels/%d/messages/%d", ref.Channel, ref.Message)
	return errors.Wrapf(c.do(ctx, http.MethodDelete, path, nil, nil), "deleting message %d", ref.Message)
}

// Helper executing one request, non 2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &APIError{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		// Transport failure, discord was never reached
		c.logger.WithCtx(ctx).Error().Err(err).Str("method", method).Str("path", path).Msg("Error occured during discord request")
		return errors.Wrap(err, "discord request")
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		c.logger.WithCtx(ctx).Warn().Int("status", apiErr.Status).Int("code", apiErr.Code).Str("path", path).Msg(apiErr.Message)
		return apiErr
	}
	return nil
}
