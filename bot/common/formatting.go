package common

import (
	"fmt"
	"strings"
	"time"

	"guildbot/domain/utils"
)

// FormatCoins formats an amount together with the currency name
func FormatCoins(amount int64, currencyEmoji, currencyName string) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", currencyEmoji, utils.FormatWithCommas(amount), currencyName))
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatMentions joins user mentions with commas, or returns fallback when empty
func FormatMentions(userIDs []int64, fallback string) string {
	if len(userIDs) == 0 {
		return fallback
	}
	mentions := make([]string, len(userIDs))
	for i, id := range userIDs {
		mentions[i] = GetUserMention(id)
	}
	return strings.Join(mentions, ", ")
}

// Truncate shortens s to at most max runes, ending with an ellipsis when cut
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// Pluralize returns singular when n is 1 and plural otherwise
func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
