package application

import (
	"context"
	"errors"
	"fmt"

	"guildbot/domain/entities"
	"guildbot/domain/interfaces"
	"guildbot/domain/services"

	log "github.com/sirupsen/logrus"
)

// GiveawayCoordinator runs giveaway operations end to end: lock, read, collect
// participants, apply the domain operation in a unit of work, commit, announce.
// Announcements happen after commit and their failures are only logged.
type GiveawayCoordinator struct {
	uowFactory   UnitOfWorkFactory
	participants ParticipantSource
	poster       GiveawayPoster
	lock         GiveawayLock
	policy       services.GiveawayPolicy
	shuffle      entities.ShuffleFunc
	metrics      GiveawayMetrics
}

// NewGiveawayCoordinator creates a new giveaway coordinator
func NewGiveawayCoordinator(
	uowFactory UnitOfWorkFactory,
	participants ParticipantSource,
	poster GiveawayPoster,
	lock GiveawayLock,
	policy services.GiveawayPolicy,
	shuffle entities.ShuffleFunc,
	metrics GiveawayMetrics,
) *GiveawayCoordinator {
	return &GiveawayCoordinator{
		uowFactory:   uowFactory,
		participants: participants,
		poster:       poster,
		lock:         lock,
		policy:       policy,
		shuffle:      shuffle,
		metrics:      metrics,
	}
}

// StartGiveaway stores a giveaway, posts its announcement and records the message.
// A giveaway whose announcement cannot be posted or recorded is cancelled.
func (c *GiveawayCoordinator) StartGiveaway(ctx context.Context, guildID int64, params interfaces.CreateGiveawayParams) (*entities.Giveaway, error) {
	var giveaway *entities.Giveaway
	err := c.inUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		giveaway, err = svc.CreateGiveaway(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	messageID, postErr := c.poster.PostGiveawayStarted(ctx, giveaway)
	if postErr != nil {
		c.abandonGiveaway(ctx, guildID, giveaway, params.CreatorID, 0)
		return nil, fmt.Errorf("failed to post giveaway announcement: %w", postErr)
	}

	err = c.inUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		return svc.SetMessage(ctx, giveaway.ID, messageID)
	})
	if err != nil {
		c.abandonGiveaway(ctx, guildID, giveaway, params.CreatorID, messageID)
		return nil, err
	}
	giveaway.SetMessage(messageID)

	c.metrics.RecordGiveawayCreated()
	return giveaway, nil
}

// EndGiveaway ends a giveaway with the members who reacted to its announcement.
// Only the caller that moves the giveaway out of open announces the winners.
func (c *GiveawayCoordinator) EndGiveaway(ctx context.Context, guildID, giveawayID int64, trigger string) (*interfaces.EndGiveawayResult, error) {
	release, err := c.lock.Acquire(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	defer release()

	giveaway, err := c.getGiveaway(ctx, guildID, giveawayID)
	if err != nil {
		return nil, err
	}
	if giveaway.IsEnded() {
		return &interfaces.EndGiveawayResult{
			Giveaway:     giveaway,
			Winners:      entities.CloneIDs(giveaway.Winners),
			AlreadyEnded: true,
		}, nil
	}

	participants, err := c.listParticipants(ctx, giveaway)
	if err != nil {
		return nil, err
	}

	var result *interfaces.EndGiveawayResult
	err = c.inUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		result, err = svc.EndGiveaway(ctx, giveawayID, participants)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadyEnded {
		return result, nil
	}

	c.metrics.RecordGiveawayEnded(trigger, result.ParticipantCount)

	if err := c.poster.PostGiveawayEnded(ctx, result.Giveaway, result.Winners, result.ParticipantCount); err != nil {
		log.WithFields(log.Fields{
			"giveaway_id": giveawayID,
			"guild_id":    guildID,
			"error":       err,
		}).Error("Failed to announce giveaway winners")
	}

	return result, nil
}

// RerollGiveaway draws one replacement winner from the current reactors
func (c *GiveawayCoordinator) RerollGiveaway(ctx context.Context, guildID, giveawayID int64) (*interfaces.RerollGiveawayResult, error) {
	release, err := c.lock.Acquire(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	defer release()

	giveaway, err := c.getGiveaway(ctx, guildID, giveawayID)
	if err != nil {
		return nil, err
	}
	if giveaway.State != entities.GiveawayStateEnded {
		c.metrics.RecordGiveawayRerolled(false)
		return &interfaces.RerollGiveawayResult{Giveaway: giveaway}, nil
	}

	participants, err := c.listParticipants(ctx, giveaway)
	if err != nil {
		return nil, err
	}

	var result *interfaces.RerollGiveawayResult
	err = c.inUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		result, err = svc.RerollGiveaway(ctx, giveawayID, participants)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordGiveawayRerolled(result.Rerolled)
	if !result.Rerolled {
		return result, nil
	}

	if err := c.poster.PostGiveawayRerolled(ctx, result.Giveaway, result.WinnerID); err != nil {
		log.WithFields(log.Fields{
			"giveaway_id": giveawayID,
			"winner_id":   result.WinnerID,
			"error":       err,
		}).Error("Failed to announce rerolled winner")
	}

	return result, nil
}

// CancelGiveaway cancels an open giveaway and updates its announcement
func (c *GiveawayCoordinator) CancelGiveaway(ctx context.Context, guildID, giveawayID, cancelledBy int64) (*interfaces.CancelGiveawayResult, error) {
	release, err := c.lock.Acquire(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *interfaces.CancelGiveawayResult
	err = c.inUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		result, err = svc.CancelGiveaway(ctx, giveawayID, cancelledBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !result.Cancelled {
		return result, nil
	}

	c.metrics.RecordGiveawayCancelled()

	if err := c.poster.PostGiveawayCancelled(ctx, result.Giveaway); err != nil {
		log.WithFields(log.Fields{
			"giveaway_id": giveawayID,
			"error":       err,
		}).Error("Failed to update cancelled giveaway message")
	}

	return result, nil
}

// GetGiveaway returns one giveaway of a guild
func (c *GiveawayCoordinator) GetGiveaway(ctx context.Context, guildID, giveawayID int64) (*entities.Giveaway, error) {
	return c.getGiveaway(ctx, guildID, giveawayID)
}

// ListActive returns the open giveaways of a guild, soonest ending first
func (c *GiveawayCoordinator) ListActive(ctx context.Context, guildID int64) ([]*entities.Giveaway, error) {
	var giveaways []*entities.Giveaway
	err := c.inReadOnlyUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		giveaways, err = svc.ListActive(ctx)
		return err
	})
	return giveaways, err
}

// ListRecent returns the most recently created giveaways of a guild in any state
func (c *GiveawayCoordinator) ListRecent(ctx context.Context, guildID int64, limit int) ([]*entities.Giveaway, error) {
	var giveaways []*entities.Giveaway
	err := c.inReadOnlyUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		giveaways, err = svc.ListRecent(ctx, limit)
		return err
	})
	return giveaways, err
}

// GetGiveawayByMessage returns the giveaway announced by a Discord message
func (c *GiveawayCoordinator) GetGiveawayByMessage(ctx context.Context, guildID, messageID int64) (*entities.Giveaway, error) {
	var giveaway *entities.Giveaway
	err := c.inReadOnlyUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		giveaway, err = svc.GetGiveawayByMessageID(ctx, messageID)
		return err
	})
	return giveaway, err
}

func (c *GiveawayCoordinator) getGiveaway(ctx context.Context, guildID, giveawayID int64) (*entities.Giveaway, error) {
	var giveaway *entities.Giveaway
	err := c.inReadOnlyUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		giveaway, err = svc.GetGiveaway(ctx, giveawayID)
		return err
	})
	return giveaway, err
}

// A giveaway without an announcement has no reactions to read
// abandonGiveaway cancels a giveaway that could not be fully started. When the
// announcement was already posted (messageID != 0) it is marked cancelled too.
func (c *GiveawayCoordinator) abandonGiveaway(ctx context.Context, guildID int64, giveaway *entities.Giveaway, creatorID, messageID int64) {
	var result *interfaces.CancelGiveawayResult
	err := c.inUnitOfWork(ctx, guildID, func(svc interfaces.GiveawayService) error {
		var err error
		result, err = svc.CancelGiveaway(ctx, giveaway.ID, creatorID)
		return err
	})
	if err != nil {
		log.WithFields(log.Fields{
			"giveaway_id": giveaway.ID,
			"error":       err,
		}).Error("Failed to cancel giveaway after announcement failure")
		return
	}
	if messageID == 0 {
		return
	}

	result.Giveaway.SetMessage(messageID)
	if err := c.poster.PostGiveawayCancelled(ctx, result.Giveaway); err != nil {
		log.WithFields(log.Fields{
			"giveaway_id": giveaway.ID,
			"message_id":  messageID,
			"error":       err,
		}).Warn("Failed to mark abandoned giveaway announcement as cancelled")
	}
}

func (c *GiveawayCoordinator) listParticipants(ctx context.Context, giveaway *entities.Giveaway) ([]int64, error) {
	if !giveaway.HasMessage() {
		return []int64{}, nil
	}
	participants, err := c.participants.ListParticipants(ctx, giveaway)
	if errors.Is(err, ErrAnnouncementMissing) {
		// Nobody can enter anymore, so the giveaway ends without entries
		log.WithFields(log.Fields{
			"giveaway_id": giveaway.ID,
			"guild_id":    giveaway.GuildID,
			"error":       err,
		}).Warn("Giveaway announcement is gone, ending with no participants")
		return []int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaway participants: %w", err)
	}
	return participants, nil
}

func (c *GiveawayCoordinator) inUnitOfWork(ctx context.Context, guildID int64, fn func(interfaces.GiveawayService) error) error {
	uow := c.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewGiveawayService(uow.GiveawayRepository(), uow.EventBus(), c.policy, c.shuffle)
	if err := fn(svc); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (c *GiveawayCoordinator) inReadOnlyUnitOfWork(ctx context.Context, guildID int64, fn func(interfaces.GiveawayService) error) error {
	uow := c.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewGiveawayService(uow.GiveawayRepository(), uow.EventBus(), c.policy, c.shuffle)
	return fn(svc)
}

// IsGiveawayBusy reports whether err means another caller holds the giveaway
func IsGiveawayBusy(err error) bool {
	return errors.Is(err, ErrGiveawayLocked)
}
