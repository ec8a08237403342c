package entities

import (
	"time"
)

// EconomyAccount is a member's coin account within a guild
type EconomyAccount struct {
	ID          int64      `db:"id"`
	DiscordID   int64      `db:"discord_id"`
	GuildID     int64      `db:"guild_id"`
	Balance     int64      `db:"balance"`
	TotalEarned int64      `db:"total_earned"`
	TotalSpent  int64      `db:"total_spent"`
	LastDailyAt *time.Time `db:"last_daily_at"` // NULL until the first daily claim
	Streak      int        `db:"streak"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// CanAfford checks if the account holds at least amount
func (a *EconomyAccount) CanAfford(amount int64) bool {
	return a.Balance >= amount
}

// Credit adds amount to the balance and the lifetime earnings
func (a *EconomyAccount) Credit(amount int64) {
	a.Balance += amount
	a.TotalEarned += amount
}

// Debit removes amount from the balance and adds it to the lifetime spending
func (a *EconomyAccount) Debit(amount int64) {
	a.Balance -= amount
	a.TotalSpent += amount
}

// LeaderboardEntry is one ranked row of a guild leaderboard
type LeaderboardEntry struct {
	Rank      int   `json:"rank"`
	DiscordID int64 `json:"discord_id"`
	Balance   int64 `json:"balance"`
	Streak    int   `json:"streak"`
}
