package bot

import (
	"testing"

	"guildbot/config"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandDefinitions(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.Giveaway.MaxWinners = 7
	b := &Bot{config: cfg}

	defs := b.commandDefinitions()
	byName := make(map[string]*discordgo.ApplicationCommand, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	for _, name := range []string{"giveaway", "daily", "coins", "pay", "leaderboard"} {
		require.Contains(t, byName, name)
	}

	giveaway := byName["giveaway"]
	require.NotNil(t, giveaway.DefaultMemberPermissions)
	assert.Equal(t, int64(discordgo.PermissionManageGuild), *giveaway.DefaultMemberPermissions)

	subcommands := make(map[string]*discordgo.ApplicationCommandOption)
	for _, opt := range giveaway.Options {
		assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, opt.Type)
		subcommands[opt.Name] = opt
	}
	assert.Len(t, subcommands, 6)

	for _, name := range []string{"end", "reroll", "cancel", "info"} {
		require.Len(t, subcommands[name].Options, 1, name)
		assert.Equal(t, "id", subcommands[name].Options[0].Name)
		assert.True(t, subcommands[name].Options[0].Required)
	}

	var winners *discordgo.ApplicationCommandOption
	for _, opt := range subcommands["start"].Options {
		if opt.Name == "winners" {
			winners = opt
		}
	}
	require.NotNil(t, winners)
	assert.Equal(t, float64(7), winners.MaxValue)
	assert.False(t, winners.Required)

	assert.Nil(t, byName["daily"].DefaultMemberPermissions)
	assert.Contains(t, byName["pay"].Description, cfg.Economy.CurrencyName)
}
