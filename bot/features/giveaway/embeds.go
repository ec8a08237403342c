package giveaway

import (
	"fmt"
	"strings"
	"time"

	"guildbot/bot/common"
	"guildbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

const maxListedGiveaways = 15

// CreateGiveawayEmbed creates the announcement embed of an open giveaway
func CreateGiveawayEmbed(g *entities.Giveaway, emoji string) *discordgo.MessageEmbed {
	var desc strings.Builder
	if g.Description != "" {
		desc.WriteString(g.Description)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "React with %s to enter!\n", emoji)
	fmt.Fprintf(&desc, "Ends %s (%s)", common.FormatDiscordTimestamp(g.EndsAt, "R"), common.FormatDiscordTimestamp(g.EndsAt, "f"))

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎉 %s", common.Truncate(g.Prize, 240)),
		Description: desc.String(),
		Color:       common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Winners", Value: fmt.Sprintf("%d", g.WinnersCount), Inline: true},
			{Name: "Hosted by", Value: common.GetUserMention(g.CreatorID), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Giveaway #%d", g.ID)},
		Timestamp: g.EndsAt.Format(time.RFC3339),
	}
}

// CreateEndedEmbed replaces the announcement once winners are drawn.
// A negative participantCount omits the entries field.
func CreateEndedEmbed(g *entities.Giveaway, winners []int64, participantCount int) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("Ended %s", common.FormatDiscordTimestamp(endedAt(g), "R"))
	if len(winners) == 0 {
		desc += "\nNo valid entries, so nobody won."
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:  common.Pluralize(len(winners), "Winner", "Winners"),
			Value: common.FormatMentions(winners, "None"),
		},
	}
	if participantCount >= 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Entries", Value: fmt.Sprintf("%d", participantCount), Inline: true})
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Hosted by", Value: common.GetUserMention(g.CreatorID), Inline: true})

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎉 %s", common.Truncate(g.Prize, 240)),
		Description: desc,
		Color:       common.ColorMuted,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Giveaway #%d", g.ID)},
	}
}

// CreateCancelledEmbed replaces the announcement of a cancelled giveaway
func CreateCancelledEmbed(g *entities.Giveaway) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🚫 %s", common.Truncate(g.Prize, 240)),
		Description: "This giveaway was cancelled.",
		Color:       common.ColorDanger,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Giveaway #%d", g.ID)},
	}
}

// WinnersMessage is the plain message that pings the winners
func WinnersMessage(g *entities.Giveaway, winners []int64) string {
	if len(winners) == 0 {
		return fmt.Sprintf("The giveaway for **%s** ended without any entries.", g.Prize)
	}
	return fmt.Sprintf("🎊 Congratulations %s! You won **%s**!", common.FormatMentions(winners, ""), g.Prize)
}

// RerollMessage is the plain message that pings a replacement winner
func RerollMessage(g *entities.Giveaway, winnerID int64) string {
	return fmt.Sprintf("🔁 The new winner of **%s** is %s! Congratulations!", g.Prize, common.GetUserMention(winnerID))
}

// CreateListEmbed lists the open giveaways of a guild
func CreateListEmbed(giveaways []*entities.Giveaway, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Active Giveaways",
		Color: common.ColorInfo,
	}
	if len(giveaways) == 0 {
		embed.Description = "There are no active giveaways right now."
		return embed
	}

	lines := make([]string, 0, min(len(giveaways), maxListedGiveaways)+1)
	for i, g := range giveaways {
		if i == maxListedGiveaways {
			lines = append(lines, fmt.Sprintf("...and %d more", len(giveaways)-maxListedGiveaways))
			break
		}
		lines = append(lines, fmt.Sprintf("**#%d** %s · %d %s · ends in %s",
			g.ID, common.Truncate(g.Prize, 80), g.WinnersCount,
			common.Pluralize(g.WinnersCount, "winner", "winners"), g.TimeRemaining(now)))
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}

// CreateInfoEmbed shows the full state of one giveaway
func CreateInfoEmbed(g *entities.Giveaway, now time.Time) *discordgo.MessageEmbed {
	color := common.ColorPrimary
	switch g.State {
	case entities.GiveawayStateEnded:
		color = common.ColorMuted
	case entities.GiveawayStateCancelled:
		color = common.ColorDanger
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "State", Value: string(g.State), Inline: true},
		{Name: "Winners", Value: fmt.Sprintf("%d", g.WinnersCount), Inline: true},
		{Name: "Hosted by", Value: common.GetUserMention(g.CreatorID), Inline: true},
		{Name: "Ends", Value: common.FormatDiscordTimestamp(g.EndsAt, "f"), Inline: true},
		{Name: "Time remaining", Value: g.TimeRemaining(now), Inline: true},
	}
	if g.State == entities.GiveawayStateEnded {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Selected",
			Value: common.FormatMentions(g.Winners, "None"),
		})
	}
	if g.HasMessage() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Message",
			Value: fmt.Sprintf("https://discord.com/channels/%d/%d/%d", g.GuildID, g.ChannelID, *g.MessageID),
		})
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Giveaway #%d: %s", g.ID, common.Truncate(g.Prize, 200)),
		Description: g.Description,
		Color:       color,
		Fields:      fields,
	}
}

func endedAt(g *entities.Giveaway) time.Time {
	if g.EndedAt != nil {
		return *g.EndedAt
	}
	return g.EndsAt
}
