package economy

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"guildbot/bot/common"
	"guildbot/domain/entities"
	"guildbot/domain/interfaces"
	"guildbot/domain/services"
	"guildbot/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleDaily(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	var result *interfaces.DailyClaimResult
	err = f.withService(context.Background(), guildID, true, func(svc interfaces.EconomyService) error {
		var err error
		result, err = svc.ClaimDaily(context.Background(), userID)
		return err
	})
	if err != nil {
		f.metrics.RecordDailyClaim(observability.OutcomeError, 0)
		common.HandleError(s, i, common.NewSystemError(err, "daily claim failed"), false)
		return
	}

	if !result.Success {
		f.metrics.RecordDailyClaim(observability.OutcomeRejected, 0)
		common.RespondEmbed(s, i, f.createDailyUnavailableEmbed(result), true)
		return
	}

	f.metrics.RecordDailyClaim(observability.OutcomeSuccess, result.Amount)
	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"amount":   result.Amount,
		"streak":   result.Streak,
	}).Info("Daily reward claimed")

	common.RespondEmbed(s, i, f.createDailyClaimedEmbed(result), false)
}

func (f *Feature) handleCoins(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	targetID := userID
	if opt, ok := common.OptionMap(i.ApplicationCommandData().Options)["user"]; ok {
		if user := common.OptionUser(i, opt); user != nil {
			if targetID, err = common.ParseDiscordID(user.ID); err != nil {
				common.HandleError(s, i, common.NewSystemError(err, "invalid target user ID"), false)
				return
			}
		}
	}

	var summary *interfaces.AccountSummary
	ownAccount := targetID == userID
	// Looking at your own balance opens your account
	err = f.withService(context.Background(), guildID, ownAccount, func(svc interfaces.EconomyService) error {
		if ownAccount {
			if _, err := svc.GetOrCreateAccount(context.Background(), targetID); err != nil {
				return err
			}
		}
		var err error
		summary, err = svc.GetAccountSummary(context.Background(), targetID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "account lookup failed"), false)
		return
	}

	common.RespondEmbed(s, i, f.createAccountEmbed(targetID, summary), ownAccount)
}

func (f *Feature) handlePay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	opts := common.OptionMap(i.ApplicationCommandData().Options)
	userOpt, hasUser := opts["user"]
	amountOpt, hasAmount := opts["amount"]
	if !hasUser || !hasAmount {
		common.HandleError(s, i, common.NewUserError("Please provide a user and an amount.", "missing pay options"), false)
		return
	}

	recipient := common.OptionUser(i, userOpt)
	if recipient == nil {
		common.HandleError(s, i, common.NewUserError("Unknown user.", "pay recipient not resolved"), false)
		return
	}
	if recipient.Bot {
		common.HandleError(s, i, common.NewUserError("Bots cannot hold coins.", "pay to bot"), false)
		return
	}
	recipientID, err := common.ParseDiscordID(recipient.ID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "invalid recipient ID"), false)
		return
	}

	var result *interfaces.TransferResult
	err = f.withService(context.Background(), guildID, true, func(svc interfaces.EconomyService) error {
		var err error
		result, err = svc.Transfer(context.Background(), userID, recipientID, amountOpt.IntValue())
		return err
	})
	if err != nil {
		mapped := f.mapTransferError(err)
		var botErr *common.BotError
		if errors.As(mapped, &botErr) && botErr.Err == nil {
			f.metrics.RecordTransfer(observability.OutcomeRejected)
		} else {
			f.metrics.RecordTransfer(observability.OutcomeError)
		}
		common.HandleError(s, i, mapped, false)
		return
	}

	f.metrics.RecordTransfer(observability.OutcomeSuccess)
	common.RespondEmbed(s, i, f.createTransferEmbed(result), false)
}

func (f *Feature) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.WithError(err).Error("Failed to defer leaderboard response")
		return
	}

	entries, err := f.Leaderboard(context.Background(), guildID, f.settings.LeaderboardSize)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "leaderboard lookup failed"), true)
		return
	}

	png, err := f.image.Render(entries, resolveNames(s, i.GuildID, entries))
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "leaderboard render failed"), true)
		return
	}

	common.FollowUpEmbed(s, i, &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s Richest members", f.settings.CurrencyEmoji),
		Color: common.ColorGold,
		Image: &discordgo.MessageEmbedImage{URL: "attachment://leaderboard.png"},
	}, &discordgo.File{
		Name:        "leaderboard.png",
		ContentType: "image/png",
		Reader:      bytes.NewReader(png),
	})
}

func (f *Feature) mapTransferError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		return common.NewUserError("The amount must be positive.", err.Error())
	case errors.Is(err, services.ErrSelfTransfer):
		return common.NewUserError("You cannot pay yourself.", err.Error())
	case errors.Is(err, services.ErrInsufficientBalance):
		return common.NewUserError(fmt.Sprintf("You do not have enough %s.", f.settings.CurrencyName), err.Error())
	default:
		return common.NewSystemError(err, "transfer failed")
	}
}

// resolveNames looks up display names from the state cache, falling back to the API
func resolveNames(s *discordgo.Session, guildID string, entries []*entities.LeaderboardEntry) map[int64]string {
	names := make(map[int64]string, len(entries))
	for _, entry := range entries {
		userID := common.FormatDiscordID(entry.DiscordID)

		member, err := s.State.Member(guildID, userID)
		if err != nil {
			member, err = s.GuildMember(guildID, userID)
		}
		if err != nil || member == nil {
			continue
		}
		names[entry.DiscordID] = common.GetDisplayName(member)
	}
	return names
}
