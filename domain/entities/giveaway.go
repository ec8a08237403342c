package entities

import (
	"fmt"
	"time"
)

// GiveawayState is the lifecycle state of a giveaway
type GiveawayState string

const (
	GiveawayStateOpen      GiveawayState = "open"
	GiveawayStateEnded     GiveawayState = "ended"
	GiveawayStateCancelled GiveawayState = "cancelled"
)

// IsTerminal returns true once the giveaway can no longer accept entries
func (s GiveawayState) IsTerminal() bool {
	return s == GiveawayStateEnded || s == GiveawayStateCancelled
}

// ShuffleFunc permutes ids in place uniformly at random
type ShuffleFunc func(ids []int64) error

// Giveaway is a timed reaction raffle for a fixed prize
type Giveaway struct {
	ID           int64         `db:"id"`
	GuildID      int64         `db:"guild_id"`
	ChannelID    int64         `db:"channel_id"`
	MessageID    *int64        `db:"message_id"` // NULL until the announcement is posted
	CreatorID    int64         `db:"creator_id"`
	Prize        string        `db:"prize"`
	Description  string        `db:"description"`
	WinnersCount int           `db:"winners_count"`
	EndsAt       time.Time     `db:"ends_at"`
	State        GiveawayState `db:"state"`
	Winners      []int64       `db:"winners"` // Selection order, rerolls appended
	EndedAt      *time.Time    `db:"ended_at"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// EndResult describes the outcome of ending a giveaway
type EndResult struct {
	Winners      []int64
	AlreadyEnded bool
}

// IsEnded returns true when the giveaway is ended or cancelled
func (g *Giveaway) IsEnded() bool {
	return g.State.IsTerminal()
}

// IsCancelled returns true when the giveaway was cancelled
func (g *Giveaway) IsCancelled() bool {
	return g.State == GiveawayStateCancelled
}

// IsDue returns true when an open giveaway has reached its end time
func (g *Giveaway) IsDue(now time.Time) bool {
	return g.State == GiveawayStateOpen && !now.Before(g.EndsAt)
}

// HasMessage returns true if the giveaway has a tracked Discord message
func (g *Giveaway) HasMessage() bool {
	return g.MessageID != nil
}

// SetMessage sets the Discord message tracking info
func (g *Giveaway) SetMessage(messageID int64) {
	g.MessageID = &messageID
}

// End selects winners from the participants and moves the giveaway to ended.
// An ended or cancelled giveaway is left untouched and reports AlreadyEnded.
func (g *Giveaway) End(participants []int64, shuffle ShuffleFunc, now time.Time) (EndResult, error) {
	if g.IsEnded() {
		return EndResult{Winners: CloneIDs(g.Winners), AlreadyEnded: true}, nil
	}

	pool := Dedup(participants)
	winners := []int64{}
	if len(pool) > 0 {
		if err := shuffle(pool); err != nil {
			return EndResult{}, fmt.Errorf("failed to shuffle participants: %w", err)
		}
		n := min(g.WinnersCount, len(pool))
		winners = append(winners, pool[:n]...)
	}

	g.Winners = winners
	g.State = GiveawayStateEnded
	g.EndedAt = &now

	return EndResult{Winners: CloneIDs(winners)}, nil
}

// Reroll appends one new winner drawn from participants who have not won yet.
// ok is false when the giveaway is not ended or nobody is left to pick.
func (g *Giveaway) Reroll(participants []int64, shuffle ShuffleFunc) (winner int64, ok bool, err error) {
	if g.State != GiveawayStateEnded || len(participants) == 0 {
		return 0, false, nil
	}

	current := make(map[int64]struct{}, len(g.Winners))
	for _, id := range g.Winners {
		current[id] = struct{}{}
	}

	pool := make([]int64, 0, len(participants))
	for _, id := range Dedup(participants) {
		if _, won := current[id]; !won {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		return 0, false, nil
	}

	if err := shuffle(pool); err != nil {
		return 0, false, fmt.Errorf("failed to shuffle participants: %w", err)
	}

	winner = pool[0]
	g.Winners = append(g.Winners, winner)
	return winner, true, nil
}

// Cancel moves an open giveaway to cancelled. It returns false for any other state.
func (g *Giveaway) Cancel(now time.Time) bool {
	if g.State != GiveawayStateOpen {
		return false
	}
	g.State = GiveawayStateCancelled
	g.Winners = []int64{}
	g.EndedAt = &now
	return true
}

// TimeRemaining formats the time left using the two largest non-zero units
func (g *Giveaway) TimeRemaining(now time.Time) string {
	if g.IsEnded() || !now.Before(g.EndsAt) {
		return "ended"
	}
	return FormatRemaining(g.EndsAt.Sub(now))
}

// FormatRemaining renders a positive duration as e.g. "2d 3h", "4m 10s" or "45s".
// Remainders below one second round up to "1s".
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "ended"
	}

	total := int64(d / time.Second)
	if d%time.Second != 0 {
		total++
	}

	units := []struct {
		suffix string
		value  int64
	}{
		{"d", total / 86400},
		{"h", (total % 86400) / 3600},
		{"m", (total % 3600) / 60},
		{"s", total % 60},
	}

	parts := make([]string, 0, 2)
	for _, u := range units {
		if u.value == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d%s", u.value, u.suffix))
		if len(parts) == 2 {
			break
		}
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + " " + parts[1]
}

// CloneIDs copies ids. The copy is never nil, so "no winners" stays an empty list.
func CloneIDs(ids []int64) []int64 {
	return append(make([]int64, 0, len(ids)), ids...)
}

// Dedup removes repeated ids keeping the first occurrence order
func Dedup(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
