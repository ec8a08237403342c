package repository

import (
	"context"
	"errors"
	"fmt"

	"guildbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

const economyAccountColumns = `id, discord_id, guild_id, balance, total_earned, total_spent,
	last_daily_at, streak, created_at, updated_at`

// EconomyAccountRepository implements economy account data access
type EconomyAccountRepository struct {
	q       Queryable
	guildID int64
}

// NewEconomyAccountRepositoryScoped creates a new economy account repository with guild scope
func NewEconomyAccountRepositoryScoped(tx Queryable, guildID int64) *EconomyAccountRepository {
	return &EconomyAccountRepository{
		q:       tx,
		guildID: guildID,
	}
}

// GetByDiscordID retrieves an account in the repository's guild
func (r *EconomyAccountRepository) GetByDiscordID(ctx context.Context, discordID int64) (*entities.EconomyAccount, error) {
	query := `SELECT ` + economyAccountColumns + ` FROM economy_accounts WHERE discord_id = $1 AND guild_id = $2`

	account, err := scanEconomyAccount(r.q.QueryRow(ctx, query, discordID, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get economy account for %d: %w", discordID, err)
	}
	return account, nil
}

// GetByDiscordIDForUpdate retrieves an account with row lock for update
func (r *EconomyAccountRepository) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.EconomyAccount, error) {
	query := `SELECT ` + economyAccountColumns + ` FROM economy_accounts WHERE discord_id = $1 AND guild_id = $2 FOR UPDATE`

	account, err := scanEconomyAccount(r.q.QueryRow(ctx, query, discordID, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get economy account for update for %d: %w", discordID, err)
	}
	return account, nil
}

// GetOrCreate returns the account, inserting an empty one on first use
func (r *EconomyAccountRepository) GetOrCreate(ctx context.Context, discordID int64) (*entities.EconomyAccount, error) {
	insert := `
		INSERT INTO economy_accounts (discord_id, guild_id)
		VALUES ($1, $2)
		ON CONFLICT (discord_id, guild_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, discordID, r.guildID); err != nil {
		return nil, fmt.Errorf("failed to create economy account for %d: %w", discordID, err)
	}

	account, err := r.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("economy account for %d missing after insert", discordID)
	}
	return account, nil
}

// Update persists balance, totals, streak and last claim time
func (r *EconomyAccountRepository) Update(ctx context.Context, account *entities.EconomyAccount) error {
	query := `
		UPDATE economy_accounts
		SET balance = $3,
		    total_earned = $4,
		    total_spent = $5,
		    last_daily_at = $6,
		    streak = $7,
		    updated_at = NOW()
		WHERE discord_id = $1 AND guild_id = $2
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		account.DiscordID,
		r.guildID,
		account.Balance,
		account.TotalEarned,
		account.TotalSpent,
		account.LastDailyAt,
		account.Streak,
	).Scan(&account.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("economy account not found: %d", account.DiscordID)
	}
	if err != nil {
		return fmt.Errorf("failed to update economy account: %w", err)
	}
	return nil
}

// GetLeaderboard returns the accounts with the highest positive balances
func (r *EconomyAccountRepository) GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error) {
	query := `
		SELECT ROW_NUMBER() OVER (ORDER BY balance DESC, discord_id ASC) AS rank,
		       discord_id, balance, streak
		FROM economy_accounts
		WHERE guild_id = $1 AND balance > 0
		ORDER BY balance DESC, discord_id ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, r.guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]*entities.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry entities.LeaderboardEntry
		var rank int64
		if err := rows.Scan(&rank, &entry.DiscordID, &entry.Balance, &entry.Streak); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.Rank = int(rank)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}

// GetTopHolder returns the account with the highest positive balance
func (r *EconomyAccountRepository) GetTopHolder(ctx context.Context) (*entities.EconomyAccount, error) {
	query := `SELECT ` + economyAccountColumns + ` FROM economy_accounts
		WHERE guild_id = $1 AND balance > 0
		ORDER BY balance DESC, discord_id ASC
		LIMIT 1`

	account, err := scanEconomyAccount(r.q.QueryRow(ctx, query, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top holder: %w", err)
	}
	return account, nil
}

func scanEconomyAccount(row pgx.Row) (*entities.EconomyAccount, error) {
	var a entities.EconomyAccount
	err := row.Scan(
		&a.ID,
		&a.DiscordID,
		&a.GuildID,
		&a.Balance,
		&a.TotalEarned,
		&a.TotalSpent,
		&a.LastDailyAt,
		&a.Streak,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
