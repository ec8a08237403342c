package interfaces

import (
	"context"
	"time"

	"guildbot/domain/entities"
)

// GiveawayService defines the interface for giveaway operations within a guild
type GiveawayService interface {
	// CreateGiveaway validates and stores a new open giveaway
	CreateGiveaway(ctx context.Context, params CreateGiveawayParams) (*entities.Giveaway, error)

	// SetMessage records the announcement message of a giveaway
	SetMessage(ctx context.Context, giveawayID int64, messageID int64) error

	// EndGiveaway draws winners from participants. A giveaway that is no longer open reports AlreadyEnded.
	EndGiveaway(ctx context.Context, giveawayID int64, participants []int64) (*EndGiveawayResult, error)

	// RerollGiveaway appends one replacement winner
	RerollGiveaway(ctx context.Context, giveawayID int64, participants []int64) (*RerollGiveawayResult, error)

	// CancelGiveaway cancels an open giveaway
	CancelGiveaway(ctx context.Context, giveawayID int64, cancelledBy int64) (*CancelGiveawayResult, error)

	// GetGiveaway returns a giveaway by ID
	GetGiveaway(ctx context.Context, giveawayID int64) (*entities.Giveaway, error)

	// GetGiveawayByMessageID returns the giveaway announced by a message
	GetGiveawayByMessageID(ctx context.Context, messageID int64) (*entities.Giveaway, error)

	// ListActive returns the open giveaways of the guild
	ListActive(ctx context.Context) ([]*entities.Giveaway, error)

	// ListRecent returns recently created giveaways of the guild
	ListRecent(ctx context.Context, limit int) ([]*entities.Giveaway, error)
}

// CreateGiveawayParams holds the user input for a new giveaway
type CreateGiveawayParams struct {
	ChannelID    int64
	CreatorID    int64
	Prize        string
	Description  string
	WinnersCount int
	Duration     time.Duration
}

// EndGiveawayResult is the outcome of ending a giveaway
type EndGiveawayResult struct {
	Giveaway         *entities.Giveaway
	Winners          []int64
	AlreadyEnded     bool
	ParticipantCount int
}

// RerollGiveawayResult is the outcome of a reroll. WinnerID is only set when Rerolled is true.
type RerollGiveawayResult struct {
	Giveaway *entities.Giveaway
	WinnerID int64
	Rerolled bool
}

// CancelGiveawayResult is the outcome of a cancellation
type CancelGiveawayResult struct {
	Giveaway  *entities.Giveaway
	Cancelled bool
}

// EconomyService defines the interface for coin economy operations within a guild
type EconomyService interface {
	// GetOrCreateAccount returns the member's account, creating it on first use
	GetOrCreateAccount(ctx context.Context, discordID int64) (*entities.EconomyAccount, error)

	// ClaimDaily pays the streak-adjusted daily reward when the member is eligible
	ClaimDaily(ctx context.Context, discordID int64) (*DailyClaimResult, error)

	// GetAccountSummary returns the member's account together with daily claim eligibility
	GetAccountSummary(ctx context.Context, discordID int64) (*AccountSummary, error)

	// Transfer moves coins between two members
	Transfer(ctx context.Context, fromDiscordID, toDiscordID int64, amount int64) (*TransferResult, error)

	// AdminAdjust changes a balance by delta, never below zero
	AdminAdjust(ctx context.Context, discordID int64, delta int64, reason string) (*entities.EconomyAccount, error)

	// GetLeaderboard returns the richest members of the guild
	GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error)

	// GetTopHolder returns the richest member, nil when nobody holds coins
	GetTopHolder(ctx context.Context) (*entities.EconomyAccount, error)
}

// DailyClaimResult is the outcome of a daily reward claim
type DailyClaimResult struct {
	Success       bool
	Amount        int64
	Streak        int
	StreakBroken  bool
	BonusFraction float64
	Balance       int64
	NextClaimAt   time.Time
	TimeUntilNext time.Duration
}

// AccountSummary combines an account with its daily claim status
type AccountSummary struct {
	Account        *entities.EconomyAccount
	CanClaimDaily  bool
	NextClaimAt    *time.Time
	NextBonusRatio float64
	RecentActivity []*entities.BalanceHistory // newest first
}

// TransferResult holds both sides of a completed transfer
type TransferResult struct {
	From   *entities.EconomyAccount
	To     *entities.EconomyAccount
	Amount int64
}
