package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"guildbot/domain/entities"
	"guildbot/domain/events"
	"guildbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const maxPrizeLength = 256

// GiveawayPolicy bounds what members may create
type GiveawayPolicy struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	MaxWinners  int
}

// giveawayService implements giveaway business logic within a guild
type giveawayService struct {
	giveawayRepo   interfaces.GiveawayRepository
	eventPublisher interfaces.EventPublisher
	policy         GiveawayPolicy
	shuffle        entities.ShuffleFunc
	now            func() time.Time
}

// NewGiveawayService creates a new giveaway service
func NewGiveawayService(
	giveawayRepo interfaces.GiveawayRepository,
	eventPublisher interfaces.EventPublisher,
	policy GiveawayPolicy,
	shuffle entities.ShuffleFunc,
) interfaces.GiveawayService {
	return &giveawayService{
		giveawayRepo:   giveawayRepo,
		eventPublisher: eventPublisher,
		policy:         policy,
		shuffle:        shuffle,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateGiveaway validates and stores a new open giveaway
func (s *giveawayService) CreateGiveaway(ctx context.Context, params interfaces.CreateGiveawayParams) (*entities.Giveaway, error) {
	prize := strings.TrimSpace(params.Prize)
	if prize == "" || utf8.RuneCountInString(prize) > maxPrizeLength {
		return nil, ErrInvalidPrize
	}
	if params.WinnersCount < 1 || params.WinnersCount > s.policy.MaxWinners {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidWinnersCount, s.policy.MaxWinners)
	}
	if params.Duration < s.policy.MinDuration || params.Duration > s.policy.MaxDuration {
		return nil, fmt.Errorf("%w: must be between %v and %v", ErrInvalidDuration, s.policy.MinDuration, s.policy.MaxDuration)
	}

	giveaway := &entities.Giveaway{
		ChannelID:    params.ChannelID,
		CreatorID:    params.CreatorID,
		Prize:        prize,
		Description:  strings.TrimSpace(params.Description),
		WinnersCount: params.WinnersCount,
		EndsAt:       s.now().Add(params.Duration).Truncate(time.Second),
		State:        entities.GiveawayStateOpen,
		Winners:      []int64{},
	}

	if err := s.giveawayRepo.Create(ctx, giveaway); err != nil {
		return nil, fmt.Errorf("failed to create giveaway: %w", err)
	}

	s.publish(events.GiveawayCreatedEvent{
		GiveawayID:   giveaway.ID,
		GuildID:      giveaway.GuildID,
		ChannelID:    giveaway.ChannelID,
		CreatorID:    giveaway.CreatorID,
		Prize:        giveaway.Prize,
		WinnersCount: giveaway.WinnersCount,
		EndsAtUnix:   giveaway.EndsAt.Unix(),
	})

	return giveaway, nil
}

// SetMessage records the announcement message of a giveaway
func (s *giveawayService) SetMessage(ctx context.Context, giveawayID int64, messageID int64) error {
	if err := s.giveawayRepo.SetMessage(ctx, giveawayID, messageID); err != nil {
		return fmt.Errorf("failed to set giveaway message: %w", err)
	}
	return nil
}

// EndGiveaway draws winners under a row lock and persists them with a
// conditional update, so only one caller ever moves a giveaway out of open.
func (s *giveawayService) EndGiveaway(ctx context.Context, giveawayID int64, participants []int64) (*interfaces.EndGiveawayResult, error) {
	giveaway, err := s.lockGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	outcome, err := giveaway.End(participants, s.shuffle, s.now())
	if err != nil {
		return nil, err
	}

	result := &interfaces.EndGiveawayResult{
		Giveaway:         giveaway,
		Winners:          outcome.Winners,
		AlreadyEnded:     outcome.AlreadyEnded,
		ParticipantCount: len(entities.Dedup(participants)),
	}
	if outcome.AlreadyEnded {
		return result, nil
	}

	updated, err := s.giveawayRepo.MarkEnded(ctx, giveaway.ID, outcome.Winners, *giveaway.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark giveaway ended: %w", err)
	}
	if !updated {
		// Lost the race to another writer; report its result instead of ours
		current, err := s.giveawayRepo.GetByID(ctx, giveawayID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload giveaway: %w", err)
		}
		if current == nil {
			return nil, ErrGiveawayNotFound
		}
		return &interfaces.EndGiveawayResult{
			Giveaway:         current,
			Winners:          entities.CloneIDs(current.Winners),
			AlreadyEnded:     true,
			ParticipantCount: result.ParticipantCount,
		}, nil
	}

	var messageID int64
	if giveaway.MessageID != nil {
		messageID = *giveaway.MessageID
	}
	s.publish(events.GiveawayEndedEvent{
		GiveawayID:       giveaway.ID,
		GuildID:          giveaway.GuildID,
		ChannelID:        giveaway.ChannelID,
		MessageID:        messageID,
		Prize:            giveaway.Prize,
		Winners:          outcome.Winners,
		ParticipantCount: result.ParticipantCount,
	})

	log.WithFields(log.Fields{
		"giveaway_id":  giveaway.ID,
		"guild_id":     giveaway.GuildID,
		"participants": result.ParticipantCount,
		"winners":      len(outcome.Winners),
	}).Info("Giveaway ended")

	return result, nil
}

// RerollGiveaway appends one replacement winner
func (s *giveawayService) RerollGiveaway(ctx context.Context, giveawayID int64, participants []int64) (*interfaces.RerollGiveawayResult, error) {
	giveaway, err := s.lockGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	winner, ok, err := giveaway.Reroll(participants, s.shuffle)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &interfaces.RerollGiveawayResult{Giveaway: giveaway}, nil
	}

	if err := s.giveawayRepo.UpdateWinners(ctx, giveaway.ID, giveaway.Winners); err != nil {
		return nil, fmt.Errorf("failed to update winners: %w", err)
	}

	s.publish(events.GiveawayRerolledEvent{
		GiveawayID: giveaway.ID,
		GuildID:    giveaway.GuildID,
		WinnerID:   winner,
	})

	return &interfaces.RerollGiveawayResult{
		Giveaway: giveaway,
		WinnerID: winner,
		Rerolled: true,
	}, nil
}

// CancelGiveaway cancels an open giveaway
func (s *giveawayService) CancelGiveaway(ctx context.Context, giveawayID int64, cancelledBy int64) (*interfaces.CancelGiveawayResult, error) {
	giveaway, err := s.lockGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	if !giveaway.Cancel(s.now()) {
		return &interfaces.CancelGiveawayResult{Giveaway: giveaway}, nil
	}

	updated, err := s.giveawayRepo.MarkCancelled(ctx, giveaway.ID, *giveaway.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark giveaway cancelled: %w", err)
	}
	if !updated {
		return &interfaces.CancelGiveawayResult{Giveaway: giveaway}, nil
	}

	s.publish(events.GiveawayCancelledEvent{
		GiveawayID:  giveaway.ID,
		GuildID:     giveaway.GuildID,
		CancelledBy: cancelledBy,
	})

	return &interfaces.CancelGiveawayResult{Giveaway: giveaway, Cancelled: true}, nil
}

// GetGiveaway returns a giveaway by ID
func (s *giveawayService) GetGiveaway(ctx context.Context, giveawayID int64) (*entities.Giveaway, error) {
	giveaway, err := s.giveawayRepo.GetByID(ctx, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway: %w", err)
	}
	if giveaway == nil {
		return nil, ErrGiveawayNotFound
	}
	return giveaway, nil
}

// GetGiveawayByMessageID returns the giveaway announced by a message
func (s *giveawayService) GetGiveawayByMessageID(ctx context.Context, messageID int64) (*entities.Giveaway, error) {
	giveaway, err := s.giveawayRepo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway by message: %w", err)
	}
	if giveaway == nil {
		return nil, ErrGiveawayNotFound
	}
	return giveaway, nil
}

// ListActive returns the open giveaways of the guild
func (s *giveawayService) ListActive(ctx context.Context) ([]*entities.Giveaway, error) {
	giveaways, err := s.giveawayRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active giveaways: %w", err)
	}
	return giveaways, nil
}

// ListRecent returns recently created giveaways of the guild
func (s *giveawayService) ListRecent(ctx context.Context, limit int) ([]*entities.Giveaway, error) {
	if limit <= 0 {
		limit = 10
	}
	giveaways, err := s.giveawayRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent giveaways: %w", err)
	}
	return giveaways, nil
}

func (s *giveawayService) lockGiveaway(ctx context.Context, giveawayID int64) (*entities.Giveaway, error) {
	giveaway, err := s.giveawayRepo.GetByIDForUpdate(ctx, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway: %w", err)
	}
	if giveaway == nil {
		return nil, ErrGiveawayNotFound
	}
	return giveaway, nil
}

func (s *giveawayService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("event_type", event.Type()).Error("Failed to publish giveaway event")
	}
}
