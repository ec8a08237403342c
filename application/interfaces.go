package application

import (
	"context"
	"errors"

	"guildbot/domain/entities"
)

// ErrGiveawayLocked is returned when another caller is already ending, rerolling or cancelling a giveaway
var ErrGiveawayLocked = errors.New("giveaway is already being processed")

// ErrAnnouncementMissing is returned by a ParticipantSource when the giveaway message or its channel was deleted
var ErrAnnouncementMissing = errors.New("giveaway announcement no longer exists")

// End triggers recorded with giveaway metrics
const (
	EndTriggerWorker  = "worker"
	EndTriggerCommand = "command"
	EndTriggerAPI     = "api"
)

// ParticipantSource lists the members that entered a giveaway.
// Implementations exclude bots and may return duplicates.
// A deleted announcement is reported as ErrAnnouncementMissing.
type ParticipantSource interface {
	ListParticipants(ctx context.Context, giveaway *entities.Giveaway) ([]int64, error)
}

// GiveawayPoster announces giveaway changes in Discord
type GiveawayPoster interface {
	// PostGiveawayStarted posts the announcement and returns its message ID
	PostGiveawayStarted(ctx context.Context, giveaway *entities.Giveaway) (int64, error)

	// PostGiveawayEnded edits the announcement, posts the winners and runs winner perks
	PostGiveawayEnded(ctx context.Context, giveaway *entities.Giveaway, winners []int64, participantCount int) error

	// PostGiveawayRerolled announces a replacement winner
	PostGiveawayRerolled(ctx context.Context, giveaway *entities.Giveaway, winnerID int64) error

	// PostGiveawayCancelled edits the announcement to show the cancellation
	PostGiveawayCancelled(ctx context.Context, giveaway *entities.Giveaway) error
}

// GiveawayLock serializes work on one giveaway. Acquire returns ErrGiveawayLocked when held elsewhere.
type GiveawayLock interface {
	Acquire(ctx context.Context, giveawayID int64) (release func(), err error)
}

// GiveawayMetrics receives giveaway lifecycle measurements
type GiveawayMetrics interface {
	RecordGiveawayCreated()
	RecordGiveawayEnded(trigger string, participants int)
	RecordGiveawayRerolled(rerolled bool)
	RecordGiveawayCancelled()
}
