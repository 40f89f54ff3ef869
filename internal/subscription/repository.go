// Subscription repository keeps the subscriber set of every endpoint in Redis.

package subscription

import (
	"Waitingway/internal/entity"
	"Waitingway/internal/errors"
	"Waitingway/pkg/db"
	"Waitingway/pkg/log"
	"context"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// Add returns true if member was not already in the set of endpoint.
	Add(ctx context.Context, logger log.Logger, endpoint entity.Endpoint, member string) (bool, error)
	// Remove returns true if member was in the set of endpoint.
	Remove(ctx context.Context, logger log.Logger, endpoint entity.Endpoint, member string) (bool, error)
	// PopMany atomically removes and returns up to count members of endpoint.
	PopMany(ctx context.Context, logger log.Logger, endpoint entity.Endpoint, count int) ([]string, error)
	// AddMany puts members back into the set of endpoint.
	AddMany(ctx context.Context, logger log.Logger, endpoint entity.Endpoint, members []string) error
}

// repository struct of subscription Repository.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of subscription repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

// Returns the key of the subscriber set -> namespace:subscriptions:kind:id.
func (r repository) key(endpoint entity.Endpoint) string {
	return r.db.Key("subscriptions", endpoint.String())
}

func (r repository) Add(ctx context.Context, logger log.Logger, endpoint entity.Endpoint, member string) (bool, error) {
	added, dberr := r.db.Client().SAdd(ctx, r.key(endpoint), member).Result()
	if dberr != nil {
		// Issue in SAdd()
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.SAdd() in subscription.Add")
		return false, errors.InternalServerError("")
	}
	return added == 1, nil
}

func (r repository) Remove(ctx context.Context, logger log.Logger, endpoint entity.Endpoint, member string) (bool, error) {
	removed, dberr := r.db.Client().SRem(ctx, r.key(endpoint), member).Result()
	if dberr != nil {
		// Issue in SRem()
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.SRem() in subscription.Remove")
		return false, errors.InternalServerError("")
	}
	return removed == 1, nil
}

func (r repository) PopMany(ctx context.Context, logger log.Logger, endpoint entity.Endpoint, count int) ([]string, error) {
	members, dberr := r.db.Client().SPopN(ctx, r.key(endpoint), int64(count)).Result()
	if dberr == redis.Nil {
		// Set doesn't exist (anymore)
		return nil, nil
	} else if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.SPopN() in subscription.PopMany")
		return nil, errors.InternalServerError("")
	}
	return members, nil
}

func (r repository) AddMany(ctx context.Context, logger log.Logger, endpoint entity.Endpoint, members []string) error {
	if len(members) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(members))
	for _, m := range members {
		values = append(values, m)
	}
	if dberr := r.db.Client().SAdd(ctx, r.key(endpoint), values...).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.SAdd() in subscription.AddMany")
		return errors.InternalServerError("")
	}
	return nil
}
