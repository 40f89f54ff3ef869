// World repository reads the worlds reference table of Waitingway.

package world

import (
	"Waitingway/internal/entity"
	"Waitingway/pkg/db"
	"Waitingway/pkg/log"
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

type Repository interface {
	// Returns every world ordered by id
	GetWorlds(ctx context.Context, logger log.Logger) ([]entity.World, error)
}

// repository struct of world Repository.
type repository struct {
	db db.PgxIface
}

// Returns a new instance of world repository for other packages to access its interface.
func NewRepository(pool db.PgxIface) Repository {
	return repository{db: pool}
}

func (r repository) GetWorlds(ctx context.Context, logger log.Logger) ([]entity.World, error) {
	query, args, err := sq.Select("world_id", "world_name", "datacenter_id", "datacenter_name", "region_abbreviation", "hidden").
		From("worlds").
		OrderBy("world_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building worlds query")
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during execution of worlds query in world.GetWorlds")
		return nil, errors.Wrap(err, "querying worlds")
	}
	defer rows.Close()

	var worlds []entity.World
	for rows.Next() {
		var (
			w       entity.World
			worldID int16
			dcID    int16
		)
		if err := rows.Scan(&worldID, &w.Name, &dcID, &w.DatacenterName, &w.Region, &w.Hidden); err != nil {
			return nil, errors.Wrap(err, "scanning world")
		}
		w.ID, w.DatacenterID = uint16(worldID), uint16(dcID)
		worlds = append(worlds, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading worlds")
	}
	return worlds, nil
}
