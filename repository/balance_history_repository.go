package repository

import (
	"context"
	"fmt"

	"guildbot/domain/entities"
)

// BalanceHistoryRepository implements balance history data access
type BalanceHistoryRepository struct {
	q       Queryable
	guildID int64
}

// NewBalanceHistoryRepositoryScoped creates a new balance history repository with guild scope
func NewBalanceHistoryRepositoryScoped(tx Queryable, guildID int64) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Record creates a new balance history entry
func (r *BalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	query := `
		INSERT INTO balance_history (
			discord_id, guild_id, balance_before, balance_after, change_amount,
			transaction_type, transaction_metadata, related_id, related_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	metadata := history.TransactionMetadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	var relatedType *string
	if history.RelatedType != nil {
		rt := string(*history.RelatedType)
		relatedType = &rt
	}

	err := r.q.QueryRow(ctx, query,
		history.DiscordID,
		r.guildID,
		history.BalanceBefore,
		history.BalanceAfter,
		history.ChangeAmount,
		string(history.TransactionType),
		metadata,
		history.RelatedID,
		relatedType,
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	history.GuildID = r.guildID
	return nil
}

// GetByUser returns the most recent balance history for a user, newest first
func (r *BalanceHistoryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*entities.BalanceHistory, error) {
	query := `
		SELECT id, discord_id, guild_id, balance_before, balance_after, change_amount,
		       transaction_type, transaction_metadata, related_id, related_type, created_at
		FROM balance_history
		WHERE discord_id = $1 AND guild_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, discordID, r.guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance history: %w", err)
	}
	defer rows.Close()

	histories := make([]*entities.BalanceHistory, 0)
	for rows.Next() {
		var h entities.BalanceHistory
		var transactionType string
		var relatedType *string
		err := rows.Scan(
			&h.ID,
			&h.DiscordID,
			&h.GuildID,
			&h.BalanceBefore,
			&h.BalanceAfter,
			&h.ChangeAmount,
			&transactionType,
			&h.TransactionMetadata,
			&h.RelatedID,
			&relatedType,
			&h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}
		h.TransactionType = entities.TransactionType(transactionType)
		if relatedType != nil {
			rt := entities.RelatedType(*relatedType)
			h.RelatedType = &rt
		}
		histories = append(histories, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance history: %w", err)
	}

	return histories, nil
}
