package economy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"guildbot/application"
	"guildbot/domain/events"
	"guildbot/domain/services"

	log "github.com/sirupsen/logrus"
)

const topHolderSyncTimeout = 30 * time.Second

// RoleManager is the Discord surface needed to move a role between members
type RoleManager interface {
	MembersWithRole(ctx context.Context, guildID, roleID int64) ([]int64, error)
	GrantRole(guildID, userID, roleID int64) error
	RevokeRole(guildID, userID, roleID int64) error
}

// TopHolderSync keeps a role on the richest member of each guild
type TopHolderSync struct {
	uowFactory application.UnitOfWorkFactory
	roles      RoleManager
	roleID     int64

	mu     sync.Mutex
	guilds map[int64]*sync.Mutex
	wg     sync.WaitGroup
}

// NewTopHolderSync creates a sync for roleID
func NewTopHolderSync(uowFactory application.UnitOfWorkFactory, roles RoleManager, roleID int64) *TopHolderSync {
	return &TopHolderSync{
		uowFactory: uowFactory,
		roles:      roles,
		roleID:     roleID,
		guilds:     make(map[int64]*sync.Mutex),
	}
}

// HandleBalanceChange schedules a sync for the guild of a BalanceChangeEvent.
// It runs after commit and returns immediately.
func (t *TopHolderSync) HandleBalanceChange(_ context.Context, event events.Event) error {
	e, ok := event.(events.BalanceChangeEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), topHolderSyncTimeout)
		defer cancel()

		if err := t.Sync(ctx, e.GuildID); err != nil {
			log.WithFields(log.Fields{
				"guild_id": e.GuildID,
				"error":    err,
			}).Error("Failed to sync top holder role")
		}
	}()
	return nil
}

// Wait blocks until scheduled syncs finish
func (t *TopHolderSync) Wait() {
	t.wg.Wait()
}

// Sync grants the role to the richest member and revokes it from everyone else
func (t *TopHolderSync) Sync(ctx context.Context, guildID int64) error {
	lock := t.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	topID, err := t.topHolder(ctx, guildID)
	if err != nil {
		return err
	}

	holders, err := t.roles.MembersWithRole(ctx, guildID, t.roleID)
	if err != nil {
		return err
	}

	hasRole := false
	for _, holderID := range holders {
		if holderID == topID {
			hasRole = true
			continue
		}
		if err := t.roles.RevokeRole(guildID, holderID, t.roleID); err != nil {
			log.WithFields(log.Fields{
				"guild_id": guildID,
				"user_id":  holderID,
				"error":    err,
			}).Warn("Failed to revoke top holder role")
		}
	}

	if topID == 0 || hasRole {
		return nil
	}

	if err := t.roles.GrantRole(guildID, topID, t.roleID); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  topID,
		"role_id":  t.roleID,
	}).Info("Moved top holder role")
	return nil
}

// topHolder returns the richest member, or 0 when nobody holds coins
func (t *TopHolderSync) topHolder(ctx context.Context, guildID int64) (int64, error) {
	uow := t.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewEconomyService(uow.EconomyAccountRepository(), uow.BalanceHistoryRepository(), uow.EventBus(), nil)
	account, err := svc.GetTopHolder(ctx)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.DiscordID, nil
}

func (t *TopHolderSync) guildLock(guildID int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.guilds[guildID]
	if !ok {
		lock = &sync.Mutex{}
		t.guilds[guildID] = lock
	}
	return lock
}
