// Travel repository persists and reads lobby travel snapshots of Waitingway.

package travel

import (
	"Waitingway/internal/entity"
	"Waitingway/pkg/db"
	"Waitingway/pkg/log"
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type Repository interface {
	// Inserts one snapshot in a single transaction, travelTime is skipped when nil
	InsertSnapshot(ctx context.Context, logger log.Logger, states []entity.TravelState, travelTime *int32) error
	// Returns the latest prohibit flag of every requested world that has a recorded state
	ProhibitedByWorld(ctx context.Context, logger log.Logger, worldIDs []uint16) (map[uint16]bool, error)
	// Returns the most recently recorded average travel time in seconds, 0 when none was recorded yet
	LatestTravelTime(ctx context.Context, logger log.Logger) (int32, error)
}

// repository struct of travel Repository.
type repository struct {
	db db.PgxIface
}

// Returns a new instance of travel repository for other packages to access its interface.
func NewRepository(pool db.PgxIface) Repository {
	return repository{db: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r repository) InsertSnapshot(ctx context.Context, logger log.Logger, states []entity.TravelState, travelTime *int32) error {
	if len(states) == 0 {
		return errors.New("empty travel snapshot")
	}
	statesInsert := psql.Insert("travel_states").Columns("world_id", "travel", "accept", "prohibit")
	for _, s := range states {
		statesInsert = statesInsert.Values(int16(s.WorldID), s.Travel != 0, s.Accept != 0, s.Prohibit != 0)
	}
	statesSQL, statesArgs, err := statesInsert.ToSql()
	if err != nil {
		return errors.Wrap(err, "building travel_states insert")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during Begin() in travel.InsertSnapshot")
		return errors.Wrap(err, "beginning travel snapshot")
	}
	if travelTime != nil {
		timeSQL, timeArgs, err := psql.Insert("travel_times").Columns("travel_time").Values(*travelTime).ToSql()
		if err != nil {
			_ = tx.Rollback(ctx)
			return errors.Wrap(err, "building travel_times insert")
		}
		if _, err := tx.Exec(ctx, timeSQL, timeArgs...); err != nil {
			_ = tx.Rollback(ctx)
			logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during travel_times insert in travel.InsertSnapshot")
			return errors.Wrap(err, "inserting travel time")
		}
	}
	if _, err := tx.Exec(ctx, statesSQL, statesArgs...); err != nil {
		_ = tx.Rollback(ctx)
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during travel_states insert in travel.InsertSnapshot")
		return errors.Wrap(err, "inserting travel states")
	}
	return errors.Wrap(tx.Commit(ctx), "committing travel snapshot")
}

func (r repository) ProhibitedByWorld(ctx context.Context, logger log.Logger, worldIDs []uint16) (map[uint16]bool, error) {
	ids := make([]int16, 0, len(worldIDs))
	for _, id := range worldIDs {
		ids = append(ids, int16(id))
	}
	query, args, err := psql.Select("world_id", "prohibit").
		Options("DISTINCT ON (world_id)").
		From("travel_states").
		Where("world_id = ANY(?)", ids).
		OrderBy("world_id", "time DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building travel_states query")
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during travel_states query in travel.ProhibitedByWorld")
		return nil, errors.Wrap(err, "querying travel states")
	}
	defer rows.Close()

	states := make(map[uint16]bool, len(worldIDs))
	for rows.Next() {
		var (
			id       int16
			prohibit bool
		)
		if err := rows.Scan(&id, &prohibit); err != nil {
			return nil, errors.Wrap(err, "scanning travel state")
		}
		states[uint16(id)] = prohibit
	}
	return states, errors.Wrap(rows.Err(), "reading travel states")
}

func (r repository) LatestTravelTime(ctx context.Context, logger log.Logger) (int32, error) {
	query, args, err := psql.Select("travel_time").From("travel_times").OrderBy("time DESC").Limit(1).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building travel_times query")
	}
	var travelTime int32
	if err := r.db.QueryRow(ctx, query, args...).Scan(&travelTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during travel_times query in travel.LatestTravelTime")
		return 0, errors.Wrap(err, "querying travel time")
	}
	return travelTime, nil
}
