package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// GiveawayEnder ends one giveaway. Implemented by GiveawayCoordinator.
type GiveawayEnder interface {
	EndGiveaway(ctx context.Context, guildID, giveawayID int64, trigger string) (*interfaces.EndGiveawayResult, error)
}

// retryDelay bounds how often a giveaway that stays due after processing is retried
const retryDelay = 5 * time.Second

// GiveawayEndWorker ends giveaways once their end time has passed
type GiveawayEndWorker struct {
	uowFactory  UnitOfWorkFactory
	ender       GiveawayEnder
	idleRecheck time.Duration
	wake        chan struct{}
	now         func() time.Time
}

// NewGiveawayEndWorker creates a worker that re-checks every idleRecheck when nothing is scheduled
func NewGiveawayEndWorker(uowFactory UnitOfWorkFactory, ender GiveawayEnder, idleRecheck time.Duration) *GiveawayEndWorker {
	if idleRecheck <= 0 {
		idleRecheck = time.Hour
	}
	return &GiveawayEndWorker{
		uowFactory:  uowFactory,
		ender:       ender,
		idleRecheck: idleRecheck,
		wake:        make(chan struct{}, 1),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the worker loop. The returned func stops it.
func (w *GiveawayEndWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Giveaway end worker started")

		for {
			if _, err := w.ProcessDueGiveaways(ctx); err != nil {
				log.WithError(err).Error("Error processing due giveaways")
			}

			wait := w.idleRecheck
			nextDue, err := w.nextDueTime(ctx)
			if err != nil {
				log.WithError(err).Error("Failed to get next giveaway end time")
			} else if nextDue != nil {
				wait = nextDue.Sub(w.now())
				if wait > w.idleRecheck {
					wait = w.idleRecheck
				}
				if wait <= 0 {
					wait = retryDelay
				}
				log.WithFields(log.Fields{
					"next_end": nextDue.UTC(),
					"wait":     wait,
				}).Debug("Waiting for next giveaway end")
			} else {
				log.WithField("recheck", w.idleRecheck).Debug("No open giveaways")
			}

			select {
			case <-ctx.Done():
				log.Info("Giveaway end worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Giveaway end worker shutting down (stop requested)...")
				return
			case <-w.wake:
			case <-time.After(wait):
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopChan) })
	}
}

// Wake makes a sleeping worker re-read the schedule, e.g. after a giveaway is created
func (w *GiveawayEndWorker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// ProcessDueGiveaways ends every giveaway whose end time has passed and returns how many it ended
func (w *GiveawayEndWorker) ProcessDueGiveaways(ctx context.Context) (int, error) {
	due, err := w.dueGiveaways(ctx)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	var endedCount, skippedCount, failureCount int
	for _, giveaway := range due {
		result, err := w.ender.EndGiveaway(ctx, giveaway.GuildID, giveaway.ID, EndTriggerWorker)
		switch {
		case IsGiveawayBusy(err):
			skippedCount++
		case err != nil:
			log.WithFields(log.Fields{
				"giveaway_id": giveaway.ID,
				"guild_id":    giveaway.GuildID,
				"error":       err,
			}).Error("Failed to end giveaway")
			failureCount++
		case result.AlreadyEnded:
			skippedCount++
		default:
			endedCount++
		}
	}

	log.WithFields(log.Fields{
		"due":     len(due),
		"ended":   endedCount,
		"skipped": skippedCount,
		"failed":  failureCount,
	}).Info("Completed giveaway end processing")

	return endedCount, nil
}

// Cross-guild reads use guild 0
func (w *GiveawayEndWorker) dueGiveaways(ctx context.Context) ([]*entities.Giveaway, error) {
	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	due, err := uow.GiveawayRepository().GetDueGiveaways(ctx, w.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get due giveaways: %w", err)
	}
	return due, nil
}

func (w *GiveawayEndWorker) nextDueTime(ctx context.Context) (*time.Time, error) {
	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.GiveawayRepository().GetNextDueTime(ctx)
}
