package giveaway

import (
	"context"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Coordinator runs giveaway operations end to end
type Coordinator interface {
	StartGiveaway(ctx context.Context, guildID int64, params interfaces.CreateGiveawayParams) (*entities.Giveaway, error)
	EndGiveaway(ctx context.Context, guildID, giveawayID int64, trigger string) (*interfaces.EndGiveawayResult, error)
	RerollGiveaway(ctx context.Context, guildID, giveawayID int64) (*interfaces.RerollGiveawayResult, error)
	CancelGiveaway(ctx context.Context, guildID, giveawayID, cancelledBy int64) (*interfaces.CancelGiveawayResult, error)
	GetGiveaway(ctx context.Context, guildID, giveawayID int64) (*entities.Giveaway, error)
	ListActive(ctx context.Context, guildID int64) ([]*entities.Giveaway, error)
}

// Feature represents the giveaway feature
type Feature struct {
	coordinator     Coordinator
	defaultDuration time.Duration
	now             func() time.Time
}

// NewFeature creates a new giveaway feature instance
func NewFeature(coordinator Coordinator, defaultDuration time.Duration) *Feature {
	return &Feature{
		coordinator:     coordinator,
		defaultDuration: defaultDuration,
		now:             time.Now,
	}
}

// HandleCommand routes /giveaway subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		log.Warn("Giveaway command invoked without a subcommand")
		return
	}

	switch options[0].Name {
	case "start":
		f.handleStart(s, i, options[0].Options)
	case "end":
		f.handleEnd(s, i, options[0].Options)
	case "reroll":
		f.handleReroll(s, i, options[0].Options)
	case "cancel":
		f.handleCancel(s, i, options[0].Options)
	case "list":
		f.handleList(s, i)
	case "info":
		f.handleInfo(s, i, options[0].Options)
	default:
		log.Warnf("Unknown giveaway subcommand: %s", options[0].Name)
	}
}
