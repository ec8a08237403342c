package testutil

import (
	"context"
	"sync"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/events"
)

// CreateTestGiveaway returns an unsaved open giveaway ending after d
func CreateTestGiveaway(channelID, creatorID int64, prize string, winners int, d time.Duration) *entities.Giveaway {
	return &entities.Giveaway{
		ChannelID:    channelID,
		CreatorID:    creatorID,
		Prize:        prize,
		WinnersCount: winners,
		EndsAt:       time.Now().UTC().Add(d).Truncate(time.Microsecond),
		State:        entities.GiveawayStateOpen,
		Winners:      []int64{},
	}
}

// CreateTestBalanceHistory returns an unsaved history entry for a credit of amount
func CreateTestBalanceHistory(discordID int64, before, amount int64, transactionType entities.TransactionType) *entities.BalanceHistory {
	return &entities.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   before,
		BalanceAfter:    before + amount,
		ChangeAmount:    amount,
		TransactionType: transactionType,
	}
}

// RecordingPublisher is a transactional publisher that remembers what it flushed
type RecordingPublisher struct {
	mu        sync.Mutex
	pending   []events.Event
	Flushed   []events.Event
	Discarded int
}

func (p *RecordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

func (p *RecordingPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Flushed = append(p.Flushed, p.pending...)
	p.pending = nil
	return nil
}

func (p *RecordingPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Discarded += len(p.pending)
	p.pending = nil
}

// FlushedEvents returns a copy of everything flushed so far
func (p *RecordingPublisher) FlushedEvents() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.Flushed...)
}
