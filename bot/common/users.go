package common

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// ParseDiscordID converts a Discord snowflake string to int64
func ParseDiscordID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// FormatDiscordID converts an int64 snowflake back to its string form
func FormatDiscordID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// GetUserMention returns a Discord mention string for a user
func GetUserMention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

// GetRoleMention returns a Discord mention string for a role
func GetRoleMention(roleID int64) string {
	return fmt.Sprintf("<@&%d>", roleID)
}

// InteractionUserID returns the invoking user's ID for guild and DM interactions
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// InteractionIDs parses the guild and user of a guild interaction
func InteractionIDs(i *discordgo.InteractionCreate) (guildID, userID int64, err error) {
	if i.GuildID == "" {
		return 0, 0, NewUserError("This command can only be used in a server.", "interaction outside guild")
	}
	guildID, err = ParseDiscordID(i.GuildID)
	if err != nil {
		return 0, 0, NewSystemError(err, "invalid guild ID")
	}
	userID, err = ParseDiscordID(InteractionUserID(i))
	if err != nil {
		return 0, 0, NewSystemError(err, "invalid user ID")
	}
	return guildID, userID, nil
}

// HasManageGuild reports whether the invoking member holds the Manage Server permission
func HasManageGuild(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionManageGuild != 0 ||
		i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// OptionMap indexes command options by name
func OptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// GetDisplayName returns the server nickname, then the global name, then the username
func GetDisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// OptionUser returns the resolved user of a user option, including the bot flag
func OptionUser(i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.User {
	if id, ok := opt.Value.(string); ok {
		if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
			if user, ok := resolved.Users[id]; ok {
				return user
			}
		}
	}
	return opt.UserValue(nil)
}
