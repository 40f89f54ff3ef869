// Redis DB Connetor tests in Waitingway.

package db

import (
	"Waitingway/pkg/log"
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func TestDbConnectionLifeCycle(t *testing.T) {
	ctx := context.Background()
	logger := log.NewWithWriter("test", io.Discard)
	srv := miniredis.RunT(t)

	host, port := srv.Host(), srv.Port()
	client := NewDbConnection(RedisConfig{Addr: host, Port: port})
	// Check if connection is successful
	assert.Nil(t, client.CheckDbConnection(ctx, logger))
	// Close connection
	assert.Nil(t, client.CloseDbConnection(ctx))
	// Check if connection is still active
	assert.NotNil(t, client.CheckDbConnection(ctx, logger))
}

func TestKeyNamespace(t *testing.T) {
	srv := miniredis.RunT(t)
	client := NewDbConnection(RedisConfig{Addr: srv.Host(), Port: srv.Port(), Namespace: "ww"})
	defer client.CloseDbConnection(context.Background())

	assert.Equal(t, "ww:subscriptions:world:73", client.Key("subscriptions", "world:73"))

	defaulted := NewDbConnection(RedisConfig{Addr: srv.Host(), Port: srv.Port()})
	defer defaulted.CloseDbConnection(context.Background())
	assert.Equal(t, "waitingway:subscriptions:dc:8", defaulted.Key("subscriptions", "dc:8"))
}
