package giveaway

import (
	"context"
	"errors"
	"fmt"

	"guildbot/application"
	"guildbot/bot/common"
	"guildbot/bot/gateway"
	"guildbot/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Messenger is the Discord surface the announcer needs
type Messenger interface {
	SendMessage(channelID int64, content string, embed *discordgo.MessageEmbed) (int64, error)
	EditMessage(channelID, messageID int64, content string, embed *discordgo.MessageEmbed) error
	AddReaction(channelID, messageID int64, emoji string) error
	ListReactors(ctx context.Context, channelID, messageID int64, emoji string) ([]int64, error)
	GrantRole(guildID, userID, roleID int64) error
	CreateChannel(guildID int64, spec gateway.ChannelSpec) (int64, error)
}

// AnnouncerOptions configures winner perks
type AnnouncerOptions struct {
	Emoji              string
	WinnerRoleID       int64 // 0 disables the role
	CreateClaimChannel bool
	ClaimCategoryID    int64
}

// Announcer reads entries from reactions and posts giveaway results to Discord.
// It implements application.ParticipantSource and application.GiveawayPoster.
type Announcer struct {
	messenger Messenger
	opts      AnnouncerOptions
}

// NewAnnouncer creates a new announcer
func NewAnnouncer(messenger Messenger, opts AnnouncerOptions) *Announcer {
	if opts.Emoji == "" {
		opts.Emoji = "🎉"
	}
	return &Announcer{messenger: messenger, opts: opts}
}

// ListParticipants returns the non-bot users that reacted with the giveaway emoji
func (a *Announcer) ListParticipants(ctx context.Context, g *entities.Giveaway) ([]int64, error) {
	if !g.HasMessage() {
		return nil, nil
	}
	reactors, err := a.messenger.ListReactors(ctx, g.ChannelID, *g.MessageID, a.opts.Emoji)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", application.ErrAnnouncementMissing, err)
	}
	return reactors, err
}

// PostGiveawayStarted posts the announcement and seeds the entry reaction
func (a *Announcer) PostGiveawayStarted(ctx context.Context, g *entities.Giveaway) (int64, error) {
	messageID, err := a.messenger.SendMessage(g.ChannelID, "", CreateGiveawayEmbed(g, a.opts.Emoji))
	if err != nil {
		return 0, fmt.Errorf("failed to post giveaway: %w", err)
	}

	if err := a.messenger.AddReaction(g.ChannelID, messageID, a.opts.Emoji); err != nil {
		// Members can still add the reaction themselves
		log.WithFields(log.Fields{
			"giveaway_id": g.ID,
			"message_id":  messageID,
			"error":       err,
		}).Warn("Failed to add entry reaction")
	}

	log.WithFields(log.Fields{
		"giveaway_id": g.ID,
		"guild_id":    g.GuildID,
		"channel_id":  g.ChannelID,
		"message_id":  messageID,
	}).Info("Posted giveaway announcement")

	return messageID, nil
}

// PostGiveawayEnded edits the announcement, pings the winners and hands out winner perks.
// Perk failures and a deleted announcement are logged and do not stop the remaining steps.
func (a *Announcer) PostGiveawayEnded(ctx context.Context, g *entities.Giveaway, winners []int64, participantCount int) error {
	if g.HasMessage() {
		err := a.messenger.EditMessage(g.ChannelID, *g.MessageID, "", CreateEndedEmbed(g, winners, participantCount))
		switch {
		case errors.Is(err, gateway.ErrNotFound):
			log.WithFields(log.Fields{
				"giveaway_id": g.ID,
				"message_id":  *g.MessageID,
				"error":       err,
			}).Warn("Giveaway message was deleted, posting winners only")
		case err != nil:
			return fmt.Errorf("failed to update giveaway message: %w", err)
		}
	}

	if _, err := a.messenger.SendMessage(g.ChannelID, WinnersMessage(g, winners), nil); err != nil {
		return fmt.Errorf("failed to announce winners: %w", err)
	}

	a.grantWinnerRole(g, winners)

	if a.opts.CreateClaimChannel && len(winners) > 0 {
		a.createClaimChannel(g, winners)
	}

	return nil
}

// PostGiveawayRerolled pings the replacement winner and grants the winner role
func (a *Announcer) PostGiveawayRerolled(ctx context.Context, g *entities.Giveaway, winnerID int64) error {
	if g.HasMessage() {
		if err := a.messenger.EditMessage(g.ChannelID, *g.MessageID, "", CreateEndedEmbed(g, g.Winners, -1)); err != nil {
			log.WithFields(log.Fields{
				"giveaway_id": g.ID,
				"error":       err,
			}).Warn("Failed to refresh giveaway message after reroll")
		}
	}

	if _, err := a.messenger.SendMessage(g.ChannelID, RerollMessage(g, winnerID), nil); err != nil {
		return fmt.Errorf("failed to announce rerolled winner: %w", err)
	}

	a.grantWinnerRole(g, []int64{winnerID})
	return nil
}

// PostGiveawayCancelled edits the announcement to show the cancellation
func (a *Announcer) PostGiveawayCancelled(ctx context.Context, g *entities.Giveaway) error {
	if !g.HasMessage() {
		return nil
	}
	if err := a.messenger.EditMessage(g.ChannelID, *g.MessageID, "", CreateCancelledEmbed(g)); err != nil {
		return fmt.Errorf("failed to update cancelled giveaway message: %w", err)
	}
	return nil
}

func (a *Announcer) grantWinnerRole(g *entities.Giveaway, winners []int64) {
	if a.opts.WinnerRoleID == 0 {
		return
	}
	for _, winnerID := range winners {
		if err := a.messenger.GrantRole(g.GuildID, winnerID, a.opts.WinnerRoleID); err != nil {
			log.WithFields(log.Fields{
				"giveaway_id": g.ID,
				"user_id":     winnerID,
				"role_id":     a.opts.WinnerRoleID,
				"error":       err,
			}).Warn("Failed to grant winner role")
		}
	}
}

func (a *Announcer) createClaimChannel(g *entities.Giveaway, winners []int64) {
	members := append([]int64{g.CreatorID}, winners...)
	channelID, err := a.messenger.CreateChannel(g.GuildID, gateway.ChannelSpec{
		Name:       fmt.Sprintf("giveaway-%d-claim", g.ID),
		Topic:      fmt.Sprintf("Prize claim for %s", g.Prize),
		CategoryID: a.opts.ClaimCategoryID,
		MemberIDs:  members,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"giveaway_id": g.ID,
			"error":       err,
		}).Warn("Failed to create prize claim channel")
		return
	}

	content := fmt.Sprintf("%s, congratulations on winning **%s**! %s will help you claim it here.",
		common.FormatMentions(winners, ""), g.Prize, common.GetUserMention(g.CreatorID))
	if _, err := a.messenger.SendMessage(channelID, content, nil); err != nil {
		log.WithFields(log.Fields{
			"giveaway_id": g.ID,
			"channel_id":  channelID,
			"error":       err,
		}).Warn("Failed to post in prize claim channel")
	}
}
