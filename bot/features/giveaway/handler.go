package giveaway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"guildbot/application"
	"guildbot/bot/common"
	"guildbot/domain/interfaces"
	"guildbot/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	guildID, userID, err := f.authorize(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	opts := common.OptionMap(options)
	params := interfaces.CreateGiveawayParams{
		CreatorID:    userID,
		WinnersCount: 1,
		Duration:     f.defaultDuration,
	}
	params.ChannelID, err = common.ParseDiscordID(i.ChannelID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "invalid channel ID"), false)
		return
	}
	if opt, ok := opts["prize"]; ok {
		params.Prize = strings.TrimSpace(opt.StringValue())
	}
	if opt, ok := opts["description"]; ok {
		params.Description = strings.TrimSpace(opt.StringValue())
	}
	if opt, ok := opts["winners"]; ok {
		params.WinnersCount = int(opt.IntValue())
	}
	if opt, ok := opts["duration"]; ok {
		params.Duration, err = ParseDuration(opt.StringValue())
		if err != nil {
			common.HandleError(s, i, common.NewUserError(
				"Invalid duration. Use a format like `30m`, `6h`, `2d` or `1d12h`.",
				err.Error(),
			), false)
			return
		}
	}

	// Posting the announcement can take longer than the interaction window
	if err := common.DeferResponse(s, i, true); err != nil {
		log.WithError(err).Error("Failed to defer giveaway start")
		return
	}

	g, err := f.coordinator.StartGiveaway(context.Background(), guildID, params)
	if err != nil {
		common.HandleError(s, i, mapGiveawayError(err), true)
		return
	}

	common.FollowUpEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Giveaway started",
		Description: fmt.Sprintf("Giveaway **#%d** for **%s** ends %s.", g.ID, g.Prize, common.FormatDiscordTimestamp(g.EndsAt, "R")),
		Color:       common.ColorSuccess,
	})
}

func (f *Feature) handleEnd(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	guildID, _, err := f.authorize(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	giveawayID := giveawayIDOption(options)

	if err := common.DeferResponse(s, i, true); err != nil {
		log.WithError(err).Error("Failed to defer giveaway end")
		return
	}

	result, err := f.coordinator.EndGiveaway(context.Background(), guildID, giveawayID, application.EndTriggerCommand)
	if err != nil {
		common.HandleError(s, i, mapGiveawayError(err), true)
		return
	}

	if result.AlreadyEnded {
		common.FollowUpWithError(s, i, fmt.Sprintf("Giveaway #%d has already ended.", giveawayID))
		return
	}

	common.FollowUpEmbed(s, i, &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Giveaway #%d ended", giveawayID),
		Description: fmt.Sprintf("%d %s drawn from %d %s.",
			len(result.Winners), common.Pluralize(len(result.Winners), "winner", "winners"),
			result.ParticipantCount, common.Pluralize(result.ParticipantCount, "entry", "entries")),
		Color: common.ColorSuccess,
	})
}

func (f *Feature) handleReroll(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	guildID, _, err := f.authorize(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	giveawayID := giveawayIDOption(options)

	if err := common.DeferResponse(s, i, true); err != nil {
		log.WithError(err).Error("Failed to defer giveaway reroll")
		return
	}

	result, err := f.coordinator.RerollGiveaway(context.Background(), guildID, giveawayID)
	if err != nil {
		common.HandleError(s, i, mapGiveawayError(err), true)
		return
	}

	if !result.Rerolled {
		common.FollowUpWithError(s, i, "Nothing to reroll. The giveaway must be ended and have entrants who have not won yet.")
		return
	}

	common.FollowUpEmbed(s, i, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Giveaway #%d rerolled", giveawayID),
		Description: fmt.Sprintf("New winner: %s", common.GetUserMention(result.WinnerID)),
		Color:       common.ColorSuccess,
	})
}

func (f *Feature) handleCancel(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	guildID, userID, err := f.authorize(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	giveawayID := giveawayIDOption(options)

	if err := common.DeferResponse(s, i, true); err != nil {
		log.WithError(err).Error("Failed to defer giveaway cancel")
		return
	}

	result, err := f.coordinator.CancelGiveaway(context.Background(), guildID, giveawayID, userID)
	if err != nil {
		common.HandleError(s, i, mapGiveawayError(err), true)
		return
	}

	if !result.Cancelled {
		common.FollowUpWithError(s, i, fmt.Sprintf("Giveaway #%d is no longer open.", giveawayID))
		return
	}

	common.FollowUpEmbed(s, i, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Giveaway #%d cancelled", giveawayID),
		Description: fmt.Sprintf("The giveaway for **%s** was cancelled.", result.Giveaway.Prize),
		Color:       common.ColorWarning,
	})
}

func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	giveaways, err := f.coordinator.ListActive(context.Background(), guildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to list giveaways"), false)
		return
	}

	common.RespondEmbed(s, i, CreateListEmbed(giveaways, f.now()), true)
}

func (f *Feature) handleInfo(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	guildID, _, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	g, err := f.coordinator.GetGiveaway(context.Background(), guildID, giveawayIDOption(options))
	if err != nil {
		common.HandleError(s, i, mapGiveawayError(err), false)
		return
	}

	common.RespondEmbed(s, i, CreateInfoEmbed(g, f.now()), true)
}

// authorize resolves the guild and user and requires Manage Server
func (f *Feature) authorize(i *discordgo.InteractionCreate) (guildID, userID int64, err error) {
	guildID, userID, err = common.InteractionIDs(i)
	if err != nil {
		return 0, 0, err
	}
	if !common.HasManageGuild(i) {
		return 0, 0, common.NewUserError("You need the Manage Server permission to manage giveaways.", "missing manage guild permission")
	}
	return guildID, userID, nil
}

func giveawayIDOption(options []*discordgo.ApplicationCommandInteractionDataOption) int64 {
	if opt, ok := common.OptionMap(options)["id"]; ok {
		return opt.IntValue()
	}
	return 0
}

// mapGiveawayError turns domain and coordination errors into user-facing errors
func mapGiveawayError(err error) error {
	switch {
	case errors.Is(err, services.ErrGiveawayNotFound):
		return common.NewUserError("That giveaway does not exist in this server.", err.Error())
	case errors.Is(err, services.ErrInvalidPrize):
		return common.NewUserError("The prize must be between 1 and 256 characters.", err.Error())
	case errors.Is(err, services.ErrInvalidWinnersCount):
		return common.NewUserError("That number of winners is not allowed.", err.Error())
	case errors.Is(err, services.ErrInvalidDuration):
		return common.NewUserError("That duration is outside the allowed range.", err.Error())
	case application.IsGiveawayBusy(err):
		return common.NewUserError("That giveaway is being processed right now. Try again in a moment.", err.Error())
	default:
		return common.NewSystemError(err, "giveaway operation failed")
	}
}
