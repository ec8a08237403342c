package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

func giveawayIDOption() *discordgo.ApplicationCommandOption {
	minID := 1.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "id",
		Description: "Giveaway number",
		Required:    true,
		MinValue:    &minID,
	}
}

// commandDefinitions returns every slash command the bot serves
func (b *Bot) commandDefinitions() []*discordgo.ApplicationCommand {
	manageGuild := int64(discordgo.PermissionManageGuild)
	noDM := false
	minOne := 1.0

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "giveaway",
			Description:              "Run reaction giveaways",
			DefaultMemberPermissions: &manageGuild,
			DMPermission:             &noDM,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Start a giveaway in this channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "duration",
							Description: "How long it runs, e.g. 30m, 6h, 2d or 1d12h",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "prize",
							Description: "What the winners receive",
							Required:    true,
							MaxLength:   256,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "winners",
							Description: "Number of winners (default 1)",
							MinValue:    &minOne,
							MaxValue:    float64(b.config.Giveaway.MaxWinners),
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "description",
							Description: "Extra details shown on the giveaway",
							MaxLength:   1000,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "end",
					Description: "End a giveaway now and draw winners",
					Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption()},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reroll",
					Description: "Draw one more winner for an ended giveaway",
					Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption()},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "cancel",
					Description: "Cancel an open giveaway",
					Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption()},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List active giveaways",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "info",
					Description: "Show the details of a giveaway",
					Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption()},
				},
			},
		},
		{
			Name:         "daily",
			Description:  fmt.Sprintf("Claim your daily %s", b.config.Economy.CurrencyName),
			DMPermission: &noDM,
		},
		{
			Name:         "coins",
			Description:  fmt.Sprintf("Show a %s balance", b.config.Economy.CurrencyName),
			DMPermission: &noDM,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member to look up (defaults to you)",
				},
			},
		},
		{
			Name:         "pay",
			Description:  fmt.Sprintf("Send %s to another member", b.config.Economy.CurrencyName),
			DMPermission: &noDM,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Recipient",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount to send",
					Required:    true,
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:         "leaderboard",
			Description:  fmt.Sprintf("Show the members with the most %s", b.config.Economy.CurrencyName),
			DMPermission: &noDM,
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, b.commandDefinitions())
	if err != nil {
		return fmt.Errorf("cannot register commands: %w", err)
	}
	return nil
}
