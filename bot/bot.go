package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"guildbot/application"
	"guildbot/bot/common"
	"guildbot/bot/features/economy"
	"guildbot/bot/features/giveaway"
	"guildbot/bot/gateway"
	"guildbot/config"
	"guildbot/domain/events"
	"guildbot/domain/services"
	"guildbot/domain/utils"
	"guildbot/infrastructure"
	"guildbot/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// LocalHandlerRegistry accepts in-process event handlers
type LocalHandlerRegistry interface {
	RegisterLocalHandler(eventType events.EventType, handler infrastructure.LocalEventHandler)
}

// Bot manages the Discord session, the feature modules and the giveaway end worker
type Bot struct {
	config     *config.Config
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	metrics    *observability.MetricsProvider
	limiter    *commandLimiter

	gateway     *gateway.Gateway
	coordinator *application.GiveawayCoordinator
	endWorker   *application.GiveawayEndWorker
	topHolder   *economy.TopHolderSync

	// Feature modules
	giveaways *giveaway.Feature
	economy   *economy.Feature

	statusServer *http.Server
	started      bool

	// Worker cleanup functions
	stopEndWorker func()
	stopPruner    func()
}

// New creates a new bot instance with all features. The Discord session is not
// opened until Start, so event handlers can be registered first.
func New(cfg *config.Config, uowFactory application.UnitOfWorkFactory, lock application.GiveawayLock, metrics *observability.MetricsProvider) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions

	bot, err := newBot(cfg, dg, uowFactory, lock, metrics)
	if err != nil {
		return nil, err
	}

	// Register handlers
	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleGuildCreate)

	return bot, nil
}

// Start opens the Discord session, registers slash commands and starts the
// background workers and the status API
func (b *Bot) Start(ctx context.Context) error {
	if b.started {
		return errors.New("bot already started")
	}

	// Open websocket connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}
	b.started = true

	// Start background workers
	b.stopEndWorker = b.endWorker.Start(ctx)
	b.stopPruner = b.startLimiterPruner(ctx)
	log.Info("Background workers started")

	if err := b.StartStatusAPI(); err != nil {
		log.Warnf("Failed to start status API: %v", err)
	}

	return nil
}

// newBot wires the features around a session without connecting it
func newBot(cfg *config.Config, dg *discordgo.Session, uowFactory application.UnitOfWorkFactory, lock application.GiveawayLock, metrics *observability.MetricsProvider) (*Bot, error) {
	gw := gateway.New(dg, rate.NewLimiter(rate.Limit(4), 10))

	announcer := giveaway.NewAnnouncer(gw, giveaway.AnnouncerOptions{
		Emoji:              cfg.Giveaway.Emoji,
		WinnerRoleID:       optionalID(cfg.Giveaway.WinnerRoleID),
		CreateClaimChannel: cfg.Giveaway.CreateClaimChannel,
		ClaimCategoryID:    optionalID(cfg.Giveaway.ClaimCategoryID),
	})

	policy := services.GiveawayPolicy{
		MinDuration: cfg.Giveaway.MinDuration,
		MaxDuration: cfg.Giveaway.MaxDuration,
		MaxWinners:  cfg.Giveaway.MaxWinners,
	}
	coordinator := application.NewGiveawayCoordinator(uowFactory, announcer, announcer, lock, policy, utils.ShuffleIDs, metrics)

	calculator := services.NewDailyRewardCalculator(economy.PolicyFromConfig(cfg.Economy))
	economyFeature, err := economy.NewFeature(uowFactory, calculator, economy.SettingsFromConfig(cfg.Economy), metrics)
	if err != nil {
		return nil, fmt.Errorf("error creating economy feature: %w", err)
	}

	bot := &Bot{
		config:      cfg,
		session:     dg,
		uowFactory:  uowFactory,
		metrics:     metrics,
		limiter:     newCommandLimiter(cfg.CommandRateLimit, cfg.CommandBurst),
		gateway:     gw,
		coordinator: coordinator,
		endWorker:   application.NewGiveawayEndWorker(uowFactory, coordinator, cfg.Giveaway.IdleRecheck),
		giveaways:   giveaway.NewFeature(coordinator, cfg.Giveaway.DefaultDuration),
		economy:     economyFeature,
	}

	if roleID := optionalID(cfg.Economy.TopHolderRoleID); roleID != 0 {
		bot.topHolder = economy.NewTopHolderSync(uowFactory, gw, roleID)
	}

	return bot, nil
}

// RegisterEventHandlers subscribes the bot to domain events published after commit
func (b *Bot) RegisterEventHandlers(registry LocalHandlerRegistry) {
	registry.RegisterLocalHandler(events.EventTypeGiveawayCreated, func(context.Context, events.Event) error {
		b.endWorker.Wake()
		return nil
	})

	registry.RegisterLocalHandler(events.EventTypeBalanceChange, func(_ context.Context, event events.Event) error {
		if e, ok := event.(events.BalanceChangeEvent); ok {
			b.metrics.RecordBalanceTransaction(string(e.TransactionType))
		}
		return nil
	})

	if b.topHolder != nil {
		registry.RegisterLocalHandler(events.EventTypeBalanceChange, b.topHolder.HandleBalanceChange)
	}
}

// Coordinator returns the giveaway coordinator used by the bot
func (b *Bot) Coordinator() *application.GiveawayCoordinator {
	return b.coordinator
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	// Stop background workers
	if b.stopEndWorker != nil {
		b.stopEndWorker()
	}
	if b.stopPruner != nil {
		b.stopPruner()
	}
	if b.topHolder != nil {
		b.topHolder.Wait()
	}
	log.Info("Background workers stopped")

	if b.statusServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.statusServer.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Status API did not shut down cleanly")
		}
	}

	return b.session.Close()
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	if !b.limiter.Allow(common.InteractionUserID(i)) {
		b.metrics.RecordCommand(name, observability.OutcomeRejected)
		common.RespondWithError(s, i, "You're using commands too quickly. Try again in a few seconds.")
		return
	}

	switch name {
	case "giveaway":
		b.giveaways.HandleCommand(s, i)
	case "daily", "coins", "pay", "leaderboard":
		b.economy.HandleCommand(s, i)
	default:
		log.Warnf("Unknown command: %s", name)
		return
	}
	b.metrics.RecordCommand(name, observability.OutcomeSuccess)
}

// handleGuildCreate logs guilds as they become available
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.WithFields(log.Fields{
		"guild_id":     g.ID,
		"guild_name":   g.Name,
		"member_count": g.MemberCount,
	}).Info("Guild available")
}

// startLimiterPruner drops idle per-user limiters every few minutes
func (b *Bot) startLimiterPruner(ctx context.Context) func() {
	ticker := time.NewTicker(5 * time.Minute)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if removed := b.limiter.prune(); removed > 0 {
					log.WithField("removed", removed).Debug("Pruned idle command limiters")
				}
			}
		}
	}()

	return func() { close(done) }
}

// GetGuilds returns the guilds the bot is connected to
func (b *Bot) GetGuilds() []GuildInfo {
	guilds := make([]GuildInfo, 0)
	if b.session.State == nil {
		return guilds
	}

	b.session.State.RLock()
	defer b.session.State.RUnlock()
	for _, guild := range b.session.State.Guilds {
		guilds = append(guilds, GuildInfo{
			ID:   guild.ID,
			Name: guild.Name,
		})
	}
	return guilds
}

// optionalID parses a configured snowflake, treating empty or invalid values as unset
func optionalID(raw string) int64 {
	if raw == "" {
		return 0
	}
	id, err := common.ParseDiscordID(raw)
	if err != nil {
		log.WithField("value", raw).Warn("Ignoring invalid Discord ID in configuration")
		return 0
	}
	return id
}
