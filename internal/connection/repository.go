// Connection repository resolves the discord accounts linked to a Waitingway account.

package connection

import (
	"Waitingway/pkg/db"
	"Waitingway/pkg/log"
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Repository interface {
	// Returns the discord user ids linked to account, empty when none are linked
	LinkedRecipients(ctx context.Context, logger log.Logger, account uuid.UUID) ([]uint64, error)
}

// repository struct of connection Repository.
type repository struct {
	db db.PgxIface
}

// Returns a new instance of connection repository for other packages to access its interface.
func NewRepository(pool db.PgxIface) Repository {
	return repository{db: pool}
}

func (r repository) LinkedRecipients(ctx context.Context, logger log.Logger, account uuid.UUID) ([]uint64, error) {
	query, args, err := sq.Select("conn_user_id").
		From("connections").
		Where("user_id = ?", account).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building connections query")
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during execution of connections query in connection.LinkedRecipients")
		return nil, errors.Wrap(err, "querying connections")
	}
	defer rows.Close()

	recipients := []uint64{}
	for rows.Next() {
		// Snowflakes are stored bit for bit in a signed bigint
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning connection")
		}
		recipients = append(recipients, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading connections")
	}
	return recipients, nil
}

// Returns true if recipient is one of the discord accounts linked to account.
func IsLinked(ctx context.Context, logger log.Logger, repo Repository, account uuid.UUID, recipient uint64) (bool, error) {
	recipients, err := repo.LinkedRecipients(ctx, logger, account)
	if err != nil {
		return false, err
	}
	for _, r := range recipients {
		if r == recipient {
			return true, nil
		}
	}
	return false, nil
}
