package interfaces

import (
	"context"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/events"
)

// GiveawayRepository defines the interface for giveaway data access
type GiveawayRepository interface {
	// Create inserts an open giveaway and fills in its ID and timestamps
	Create(ctx context.Context, giveaway *entities.Giveaway) error

	// GetByID retrieves a giveaway by ID, nil if it does not exist in the guild
	GetByID(ctx context.Context, id int64) (*entities.Giveaway, error)

	// GetByIDForUpdate retrieves a giveaway and locks its row for the transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Giveaway, error)

	// GetByMessageID retrieves a giveaway by its announcement message
	GetByMessageID(ctx context.Context, messageID int64) (*entities.Giveaway, error)

	// SetMessage stores the announcement message ID
	SetMessage(ctx context.Context, id int64, messageID int64) error

	// MarkEnded moves an open giveaway to ended. Returns false if it was no longer open.
	MarkEnded(ctx context.Context, id int64, winners []int64, endedAt time.Time) (bool, error)

	// UpdateWinners replaces the winner list of an ended giveaway
	UpdateWinners(ctx context.Context, id int64, winners []int64) error

	// MarkCancelled moves an open giveaway to cancelled. Returns false if it was no longer open.
	MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) (bool, error)

	// ListActive returns the open giveaways of the guild ordered by end time
	ListActive(ctx context.Context) ([]*entities.Giveaway, error)

	// ListRecent returns the most recently created giveaways of the guild
	ListRecent(ctx context.Context, limit int) ([]*entities.Giveaway, error)

	// GetDueGiveaways returns open giveaways across all guilds with ends_at <= now
	GetDueGiveaways(ctx context.Context, now time.Time) ([]*entities.Giveaway, error)

	// GetNextDueTime returns the earliest ends_at of any open giveaway, nil when none
	GetNextDueTime(ctx context.Context) (*time.Time, error)
}

// EconomyAccountRepository defines the interface for economy account data access
type EconomyAccountRepository interface {
	// GetByDiscordID retrieves an account, nil if it does not exist
	GetByDiscordID(ctx context.Context, discordID int64) (*entities.EconomyAccount, error)

	// GetByDiscordIDForUpdate retrieves an account and locks its row for the transaction
	GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.EconomyAccount, error)

	// GetOrCreate returns the account, inserting an empty one on first use
	GetOrCreate(ctx context.Context, discordID int64) (*entities.EconomyAccount, error)

	// Update persists balance, totals, streak and last claim time
	Update(ctx context.Context, account *entities.EconomyAccount) error

	// GetLeaderboard returns the richest accounts of the guild
	GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error)

	// GetTopHolder returns the account with the highest positive balance, nil when none
	GetTopHolder(ctx context.Context) (*entities.EconomyAccount, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByUser returns balance history for a specific user
	GetByUser(ctx context.Context, discordID int64, limit int) ([]*entities.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction settles
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes every buffered event; called after commit
	Flush(ctx context.Context) error

	// Discard drops every buffered event; called on rollback
	Discard()
}
