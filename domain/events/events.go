package events

import "guildbot/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange      EventType = "balance_change"
	EventTypeDailyRewardClaimed EventType = "daily_reward_claimed"
	EventTypeGiveawayCreated    EventType = "giveaway_created"
	EventTypeGiveawayEnded      EventType = "giveaway_ended"
	EventTypeGiveawayRerolled   EventType = "giveaway_rerolled"
	EventTypeGiveawayCancelled  EventType = "giveaway_cancelled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                    `json:"user_id"`
	GuildID         int64                    `json:"guild_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                    `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// DailyRewardClaimedEvent is emitted after a successful daily claim
type DailyRewardClaimedEvent struct {
	UserID       int64   `json:"user_id"`
	GuildID      int64   `json:"guild_id"`
	Amount       int64   `json:"amount"`
	Streak       int     `json:"streak"`
	StreakBroken bool    `json:"streak_broken"`
	BonusPercent float64 `json:"bonus_percent"`
}

func (e DailyRewardClaimedEvent) Type() EventType {
	return EventTypeDailyRewardClaimed
}

// GiveawayCreatedEvent is emitted when a giveaway is stored
type GiveawayCreatedEvent struct {
	GiveawayID   int64  `json:"giveaway_id"`
	GuildID      int64  `json:"guild_id"`
	ChannelID    int64  `json:"channel_id"`
	CreatorID    int64  `json:"creator_id"`
	Prize        string `json:"prize"`
	WinnersCount int    `json:"winners_count"`
	EndsAtUnix   int64  `json:"ends_at"`
}

func (e GiveawayCreatedEvent) Type() EventType {
	return EventTypeGiveawayCreated
}

// GiveawayEndedEvent is emitted when a giveaway transitions from open to ended
type GiveawayEndedEvent struct {
	GiveawayID       int64   `json:"giveaway_id"`
	GuildID          int64   `json:"guild_id"`
	ChannelID        int64   `json:"channel_id"`
	MessageID        int64   `json:"message_id"`
	Prize            string  `json:"prize"`
	Winners          []int64 `json:"winners"`
	ParticipantCount int     `json:"participant_count"`
}

func (e GiveawayEndedEvent) Type() EventType {
	return EventTypeGiveawayEnded
}

// GiveawayRerolledEvent is emitted when a replacement winner is appended
type GiveawayRerolledEvent struct {
	GiveawayID int64 `json:"giveaway_id"`
	GuildID    int64 `json:"guild_id"`
	WinnerID   int64 `json:"winner_id"`
}

func (e GiveawayRerolledEvent) Type() EventType {
	return EventTypeGiveawayRerolled
}

// GiveawayCancelledEvent is emitted when an open giveaway is cancelled
type GiveawayCancelledEvent struct {
	GiveawayID  int64 `json:"giveaway_id"`
	GuildID     int64 `json:"guild_id"`
	CancelledBy int64 `json:"cancelled_by"`
}

func (e GiveawayCancelledEvent) Type() EventType {
	return EventTypeGiveawayCancelled
}
