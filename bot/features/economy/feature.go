package economy

import (
	"context"
	"fmt"
	"time"

	"guildbot/application"
	"guildbot/config"
	"guildbot/domain/entities"
	"guildbot/domain/interfaces"
	"guildbot/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Metrics receives economy measurements
type Metrics interface {
	RecordDailyClaim(outcome string, amount int64)
	RecordTransfer(outcome string)
}

// Settings controls how the economy is presented
type Settings struct {
	CurrencyName    string
	CurrencyEmoji   string
	LeaderboardSize int
}

// SettingsFromConfig builds presentation settings from the economy config
func SettingsFromConfig(cfg config.EconomyConfig) Settings {
	return Settings{
		CurrencyName:    cfg.CurrencyName,
		CurrencyEmoji:   cfg.CurrencyEmoji,
		LeaderboardSize: cfg.LeaderboardSize,
	}
}

// PolicyFromConfig builds the daily reward policy from the economy config
func PolicyFromConfig(cfg config.EconomyConfig) services.DailyRewardPolicy {
	return services.DailyRewardPolicy{
		BaseAmount:    cfg.DailyAmount,
		ClaimWindow:   cfg.ClaimWindow,
		ClaimCooldown: cfg.ClaimCooldown,
		StreakBreak:   cfg.StreakBreak,
		BonusPerDay:   cfg.StreakBonusPerDay,
		BonusCap:      cfg.StreakCapFraction,
	}
}

// Feature represents the coin economy feature
type Feature struct {
	uowFactory application.UnitOfWorkFactory
	calculator *services.DailyRewardCalculator
	settings   Settings
	metrics    Metrics
	image      *LeaderboardImage
	now        func() time.Time
}

// NewFeature creates a new economy feature instance
func NewFeature(uowFactory application.UnitOfWorkFactory, calculator *services.DailyRewardCalculator, settings Settings, metrics Metrics) (*Feature, error) {
	image, err := NewLeaderboardImage(fmt.Sprintf("%s Leaderboard", settings.CurrencyEmoji))
	if err != nil {
		return nil, err
	}
	if settings.LeaderboardSize <= 0 {
		settings.LeaderboardSize = 10
	}

	return &Feature{
		uowFactory: uowFactory,
		calculator: calculator,
		settings:   settings,
		metrics:    metrics,
		image:      image,
		now:        time.Now,
	}, nil
}

// HandleCommand routes the economy slash commands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch name := i.ApplicationCommandData().Name; name {
	case "daily":
		f.handleDaily(s, i)
	case "coins":
		f.handleCoins(s, i)
	case "pay":
		f.handlePay(s, i)
	case "leaderboard":
		f.handleLeaderboard(s, i)
	default:
		log.Warnf("Unknown economy command: %s", name)
	}
}

// withService runs fn against a guild-scoped economy service.
// The unit of work is committed only when commit is true and fn succeeds.
func (f *Feature) withService(ctx context.Context, guildID int64, commit bool, fn func(interfaces.EconomyService) error) error {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewEconomyService(
		uow.EconomyAccountRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
		f.calculator,
	)
	if err := fn(svc); err != nil {
		return err
	}

	if !commit {
		return nil
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Leaderboard returns the richest members of a guild
func (f *Feature) Leaderboard(ctx context.Context, guildID int64, limit int) ([]*entities.LeaderboardEntry, error) {
	var entries []*entities.LeaderboardEntry
	err := f.withService(ctx, guildID, false, func(svc interfaces.EconomyService) error {
		var err error
		entries, err = svc.GetLeaderboard(ctx, limit)
		return err
	})
	return entries, err
}
