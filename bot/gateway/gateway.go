package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	reactionPageSize = 100
	memberPageSize   = 1000
)

// ErrNotFound marks calls against a message, channel or emoji that was deleted
var ErrNotFound = errors.New("discord resource not found")

// session is the subset of *discordgo.Session used by the gateway
type session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// ChannelSpec describes a private text channel
type ChannelSpec struct {
	Name       string
	Topic      string
	CategoryID int64 // 0 places the channel at the top level
	MemberIDs  []int64
}

// Gateway performs the Discord calls the giveaway and economy features need.
// Paged reads share one rate limiter.
type Gateway struct {
	session session
	selfID  func() string
	limiter *rate.Limiter
}

// New creates a gateway over a discordgo session. The bot user, once the session
// is ready, is always granted access to channels the gateway creates.
func New(s *discordgo.Session, limiter *rate.Limiter) *Gateway {
	return newGateway(s, func() string {
		if s.State == nil || s.State.User == nil {
			return ""
		}
		return s.State.User.ID
	}, limiter)
}

func newGateway(s session, selfID func() string, limiter *rate.Limiter) *Gateway {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(4), 10)
	}
	return &Gateway{session: s, selfID: selfID, limiter: limiter}
}

// SendMessage posts content and an optional embed, returning the new message ID
func (g *Gateway) SendMessage(channelID int64, content string, embed *discordgo.MessageEmbed) (int64, error) {
	data := &discordgo.MessageSend{Content: content}
	if embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{embed}
	}

	msg, err := g.session.ChannelMessageSendComplex(formatID(channelID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to send message to channel %d: %w", channelID, err)
	}

	messageID, err := strconv.ParseInt(msg.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse message ID: %w", err)
	}
	return messageID, nil
}

// EditMessage replaces the content and embed of a message
func (g *Gateway) EditMessage(channelID, messageID int64, content string, embed *discordgo.MessageEmbed) error {
	edit := discordgo.NewMessageEdit(formatID(channelID), formatID(messageID)).SetContent(content)
	if embed != nil {
		edit.SetEmbed(embed)
	}

	if _, err := g.session.ChannelMessageEditComplex(edit); err != nil {
		return fmt.Errorf("failed to edit message %d: %w", messageID, markNotFound(err))
	}
	return nil
}

// AddReaction reacts to a message with a unicode emoji or a name:id custom emoji
func (g *Gateway) AddReaction(channelID, messageID int64, emoji string) error {
	if err := g.session.MessageReactionAdd(formatID(channelID), formatID(messageID), emoji); err != nil {
		return fmt.Errorf("failed to add reaction %s: %w", emoji, err)
	}
	return nil
}

// ListReactors returns every non-bot user that reacted with emoji
func (g *Gateway) ListReactors(ctx context.Context, channelID, messageID int64, emoji string) ([]int64, error) {
	var (
		reactors []int64
		after    string
	)

	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		users, err := g.session.MessageReactions(formatID(channelID), formatID(messageID), emoji, reactionPageSize, "", after)
		if err != nil {
			err = markNotFound(err)
			if errors.Is(err, ErrNotFound) {
				log.WithFields(log.Fields{
					"channel_id": channelID,
					"message_id": messageID,
					"error":      err,
				}).Warn("Reaction message no longer exists")
			}
			return nil, fmt.Errorf("failed to list reactions on message %d: %w", messageID, err)
		}

		for _, u := range users {
			if u.Bot {
				continue
			}
			id, err := strconv.ParseInt(u.ID, 10, 64)
			if err != nil {
				log.WithError(err).WithField("user_id", u.ID).Warn("Skipping reactor with invalid ID")
				continue
			}
			reactors = append(reactors, id)
		}

		if len(users) < reactionPageSize {
			break
		}
		after = users[len(users)-1].ID
	}

	return reactors, nil
}

// GrantRole adds a role to a member
func (g *Gateway) GrantRole(guildID, userID, roleID int64) error {
	if err := g.session.GuildMemberRoleAdd(formatID(guildID), formatID(userID), formatID(roleID)); err != nil {
		return fmt.Errorf("failed to grant role %d to user %d: %w", roleID, userID, err)
	}
	return nil
}

// RevokeRole removes a role from a member
func (g *Gateway) RevokeRole(guildID, userID, roleID int64) error {
	if err := g.session.GuildMemberRoleRemove(formatID(guildID), formatID(userID), formatID(roleID)); err != nil {
		return fmt.Errorf("failed to revoke role %d from user %d: %w", roleID, userID, err)
	}
	return nil
}

// MembersWithRole returns the members of a guild that currently hold roleID
func (g *Gateway) MembersWithRole(ctx context.Context, guildID, roleID int64) ([]int64, error) {
	role := formatID(roleID)
	var (
		holders []int64
		after   string
	)

	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		members, err := g.session.GuildMembers(formatID(guildID), after, memberPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of guild %d: %w", guildID, err)
		}

		for _, m := range members {
			if m.User == nil {
				continue
			}
			for _, r := range m.Roles {
				if r != role {
					continue
				}
				if id, err := strconv.ParseInt(m.User.ID, 10, 64); err == nil {
					holders = append(holders, id)
				}
				break
			}
		}

		if len(members) < memberPageSize {
			break
		}
		after = lastMemberID(members)
		if after == "" {
			break
		}
	}

	return holders, nil
}

// CreateChannel creates a text channel visible only to the listed members and the bot
func (g *Gateway) CreateChannel(guildID int64, spec ChannelSpec) (int64, error) {
	const memberAllow = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory

	overwrites := []*discordgo.PermissionOverwrite{
		// @everyone shares the guild ID
		{ID: formatID(guildID), Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
	}
	if self := g.selfID(); self != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: self, Type: discordgo.PermissionOverwriteTypeMember, Allow: memberAllow,
		})
	}
	seen := make(map[int64]struct{}, len(spec.MemberIDs))
	for _, id := range spec.MemberIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: formatID(id), Type: discordgo.PermissionOverwriteTypeMember, Allow: memberAllow,
		})
	}

	data := discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		PermissionOverwrites: overwrites,
	}
	if spec.CategoryID != 0 {
		data.ParentID = formatID(spec.CategoryID)
	}

	ch, err := g.session.GuildChannelCreateComplex(formatID(guildID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to create channel %q: %w", spec.Name, err)
	}

	channelID, err := strconv.ParseInt(ch.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse channel ID: %w", err)
	}
	return channelID, nil
}

// lastMemberID returns the paging cursor: the ID of the last member that carries a user
func lastMemberID(members []*discordgo.Member) string {
	for i := len(members) - 1; i >= 0; i-- {
		if members[i].User != nil {
			return members[i].User.ID
		}
	}
	return ""
}

// markNotFound wraps Discord's unknown message, channel and emoji errors with ErrNotFound
func markNotFound(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return err
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownEmoji:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
