package economy

import (
	"fmt"
	"strings"
	"time"

	"guildbot/bot/common"
	"guildbot/domain/interfaces"
	"guildbot/domain/utils"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) coins(amount int64) string {
	return common.FormatCoins(amount, f.settings.CurrencyEmoji, f.settings.CurrencyName)
}

// createDailyClaimedEmbed shows a successful daily claim
func (f *Feature) createDailyClaimedEmbed(result *interfaces.DailyClaimResult) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("You claimed **%s**!", f.coins(result.Amount))
	if result.StreakBroken {
		desc += "\nYour streak was reset because you missed a day."
	}

	return &discordgo.MessageEmbed{
		Title:       "Daily reward",
		Description: desc,
		Color:       common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Streak", Value: fmt.Sprintf("%d %s", result.Streak, common.Pluralize(result.Streak, "day", "days")), Inline: true},
			{Name: "Bonus", Value: utils.FormatPercent(result.BonusFraction), Inline: true},
			{Name: "Balance", Value: f.coins(result.Balance), Inline: true},
			{Name: "Next claim", Value: common.FormatDiscordTimestamp(result.NextClaimAt, "R"), Inline: true},
		},
	}
}

// createDailyUnavailableEmbed tells the member when they can claim again
func (f *Feature) createDailyUnavailableEmbed(result *interfaces.DailyClaimResult) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Daily reward already claimed",
		Description: fmt.Sprintf("You can claim again %s (%s).",
			common.FormatDiscordTimestamp(result.NextClaimAt, "R"),
			common.FormatDiscordTimestamp(result.NextClaimAt, "t")),
		Color: common.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Current streak", Value: fmt.Sprintf("%d", result.Streak), Inline: true},
			{Name: "Balance", Value: f.coins(result.Balance), Inline: true},
		},
	}
}

// createAccountEmbed summarizes a member's account
func (f *Feature) createAccountEmbed(discordID int64, summary *interfaces.AccountSummary) *discordgo.MessageEmbed {
	account := summary.Account

	lastDaily := "never"
	if account.LastDailyAt != nil {
		lastDaily = common.FormatDiscordTimestamp(*account.LastDailyAt, "R")
	}
	nextClaim := "available now"
	if !summary.CanClaimDaily && summary.NextClaimAt != nil {
		nextClaim = common.FormatDiscordTimestamp(*summary.NextClaimAt, "R")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Account",
		Description: fmt.Sprintf("%s has **%s**", common.GetUserMention(discordID), f.coins(account.Balance)),
		Color:       common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total earned", Value: utils.FormatWithCommas(account.TotalEarned), Inline: true},
			{Name: "Total spent", Value: utils.FormatWithCommas(account.TotalSpent), Inline: true},
			{Name: "Streak", Value: fmt.Sprintf("%d", account.Streak), Inline: true},
			{Name: "Last daily", Value: lastDaily, Inline: true},
			{Name: "Next daily", Value: nextClaim, Inline: true},
			{Name: "Next bonus", Value: utils.FormatPercent(summary.NextBonusRatio), Inline: true},
		},
	}

	if len(summary.RecentActivity) > 0 {
		lines := make([]string, 0, len(summary.RecentActivity))
		for _, h := range summary.RecentActivity {
			sign := ""
			if h.IsPositiveChange() {
				sign = "+"
			}
			lines = append(lines, fmt.Sprintf("`%s%s` %s %s",
				sign, utils.FormatWithCommas(h.ChangeAmount),
				h.GetTransactionDescription(),
				common.FormatDiscordTimestamp(h.CreatedAt, "R")))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Recent activity",
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

// createTransferEmbed confirms a payment
func (f *Feature) createTransferEmbed(result *interfaces.TransferResult) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Payment sent",
		Description: fmt.Sprintf("%s paid %s **%s**",
			common.GetUserMention(result.From.DiscordID),
			common.GetUserMention(result.To.DiscordID),
			f.coins(result.Amount)),
		Color: common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Your balance", Value: f.coins(result.From.Balance), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
