package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guildbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

const giveawayColumns = `id, guild_id, channel_id, message_id, creator_id, prize, description,
	winners_count, ends_at, state, winners, ended_at, created_at, updated_at`

// GiveawayRepository implements giveaway data access
type GiveawayRepository struct {
	q       Queryable
	guildID int64
}

// NewGiveawayRepositoryScoped creates a new giveaway repository with guild scope
func NewGiveawayRepositoryScoped(tx Queryable, guildID int64) *GiveawayRepository {
	return &GiveawayRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Create inserts an open giveaway in the repository's guild
func (r *GiveawayRepository) Create(ctx context.Context, giveaway *entities.Giveaway) error {
	query := `
		INSERT INTO giveaways (guild_id, channel_id, message_id, creator_id, prize, description, winners_count, ends_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'open')
		RETURNING id, state, created_at, updated_at
	`

	var state string
	err := r.q.QueryRow(ctx, query,
		r.guildID,
		giveaway.ChannelID,
		giveaway.MessageID,
		giveaway.CreatorID,
		giveaway.Prize,
		giveaway.Description,
		giveaway.WinnersCount,
		giveaway.EndsAt,
	).Scan(&giveaway.ID, &state, &giveaway.CreatedAt, &giveaway.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create giveaway: %w", err)
	}

	giveaway.GuildID = r.guildID
	giveaway.State = entities.GiveawayState(state)
	giveaway.Winners = []int64{}
	return nil
}

// GetByID retrieves a giveaway by its ID
func (r *GiveawayRepository) GetByID(ctx context.Context, id int64) (*entities.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways WHERE id = $1 AND guild_id = $2`

	giveaway, err := scanGiveaway(r.q.QueryRow(ctx, query, id, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway by ID %d: %w", id, err)
	}
	return giveaway, nil
}

// GetByIDForUpdate retrieves a giveaway by ID with row lock for update
func (r *GiveawayRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways WHERE id = $1 AND guild_id = $2 FOR UPDATE`

	giveaway, err := scanGiveaway(r.q.QueryRow(ctx, query, id, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway for update by ID %d: %w", id, err)
	}
	return giveaway, nil
}

// GetByMessageID retrieves a giveaway by its announcement message
func (r *GiveawayRepository) GetByMessageID(ctx context.Context, messageID int64) (*entities.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways WHERE message_id = $1 AND guild_id = $2`

	giveaway, err := scanGiveaway(r.q.QueryRow(ctx, query, messageID, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway by message ID %d: %w", messageID, err)
	}
	return giveaway, nil
}

// SetMessage stores the announcement message ID
func (r *GiveawayRepository) SetMessage(ctx context.Context, id int64, messageID int64) error {
	query := `
		UPDATE giveaways
		SET message_id = $3, updated_at = NOW()
		WHERE id = $1 AND guild_id = $2
	`

	result, err := r.q.Exec(ctx, query, id, r.guildID, messageID)
	if err != nil {
		return fmt.Errorf("failed to set giveaway message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("giveaway not found: %d", id)
	}
	return nil
}

// MarkEnded moves an open giveaway to ended. The state predicate makes this a
// compare-and-swap; false means another writer got there first.
func (r *GiveawayRepository) MarkEnded(ctx context.Context, id int64, winners []int64, endedAt time.Time) (bool, error) {
	query := `
		UPDATE giveaways
		SET state = 'ended', winners = $3, ended_at = $4, updated_at = NOW()
		WHERE id = $1 AND guild_id = $2 AND state = 'open'
	`

	if winners == nil {
		winners = []int64{}
	}
	result, err := r.q.Exec(ctx, query, id, r.guildID, winners, endedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark giveaway ended: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// UpdateWinners replaces the winner list of an ended giveaway
func (r *GiveawayRepository) UpdateWinners(ctx context.Context, id int64, winners []int64) error {
	query := `
		UPDATE giveaways
		SET winners = $3, updated_at = NOW()
		WHERE id = $1 AND guild_id = $2 AND state = 'ended'
	`

	result, err := r.q.Exec(ctx, query, id, r.guildID, winners)
	if err != nil {
		return fmt.Errorf("failed to update giveaway winners: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("ended giveaway not found: %d", id)
	}
	return nil
}

// MarkCancelled moves an open giveaway to cancelled
func (r *GiveawayRepository) MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) (bool, error) {
	query := `
		UPDATE giveaways
		SET state = 'cancelled', winners = '{}', ended_at = $3, updated_at = NOW()
		WHERE id = $1 AND guild_id = $2 AND state = 'open'
	`

	result, err := r.q.Exec(ctx, query, id, r.guildID, cancelledAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark giveaway cancelled: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ListActive returns the open giveaways of the guild, soonest first
func (r *GiveawayRepository) ListActive(ctx context.Context) ([]*entities.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways
		WHERE guild_id = $1 AND state = 'open'
		ORDER BY ends_at ASC, id ASC`

	return r.queryGiveaways(ctx, "active giveaways", query, r.guildID)
}

// ListRecent returns the most recently created giveaways of the guild
func (r *GiveawayRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways
		WHERE guild_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	return r.queryGiveaways(ctx, "recent giveaways", query, r.guildID, limit)
}

// GetDueGiveaways returns open giveaways across all guilds whose end time has passed
func (r *GiveawayRepository) GetDueGiveaways(ctx context.Context, now time.Time) ([]*entities.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways
		WHERE state = 'open' AND ends_at <= $1
		ORDER BY ends_at ASC, id ASC`

	return r.queryGiveaways(ctx, "due giveaways", query, now)
}

// GetNextDueTime returns the earliest end time of any open giveaway across all guilds
func (r *GiveawayRepository) GetNextDueTime(ctx context.Context) (*time.Time, error) {
	query := `SELECT MIN(ends_at) FROM giveaways WHERE state = 'open'`

	var next *time.Time
	if err := r.q.QueryRow(ctx, query).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to get next giveaway end time: %w", err)
	}
	return next, nil
}

func (r *GiveawayRepository) queryGiveaways(ctx context.Context, what, query string, args ...any) ([]*entities.Giveaway, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer rows.Close()

	giveaways := make([]*entities.Giveaway, 0)
	for rows.Next() {
		giveaway, err := scanGiveaway(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		giveaways = append(giveaways, giveaway)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}

	return giveaways, nil
}

func scanGiveaway(row pgx.Row) (*entities.Giveaway, error) {
	var g entities.Giveaway
	var state string
	err := row.Scan(
		&g.ID,
		&g.GuildID,
		&g.ChannelID,
		&g.MessageID,
		&g.CreatorID,
		&g.Prize,
		&g.Description,
		&g.WinnersCount,
		&g.EndsAt,
		&state,
		&g.Winners,
		&g.EndedAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.State = entities.GiveawayState(state)
	if g.Winners == nil {
		g.Winners = []int64{}
	}
	return &g, nil
}
