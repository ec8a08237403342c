package economy

import (
	"bytes"
	"image/png"
	"testing"

	"guildbot/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardImage_Render(t *testing.T) {
	t.Parallel()

	renderer, err := NewLeaderboardImage("Leaderboard")
	require.NoError(t, err)

	tests := []struct {
		name    string
		entries int
	}{
		{"empty", 0},
		{"podium only", 3},
		{"full page", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries := make([]*entities.LeaderboardEntry, tt.entries)
			names := map[int64]string{}
			for i := range entries {
				entries[i] = &entities.LeaderboardEntry{
					Rank:      i + 1,
					DiscordID: int64(1000 + i),
					Balance:   int64(10_000 - i*500),
					Streak:    i,
				}
				if i%2 == 0 {
					names[int64(1000+i)] = "a member with a really long nickname"
				}
			}

			data, err := renderer.Render(entries, names)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 360, img.Bounds().Dx())
			assert.GreaterOrEqual(t, img.Bounds().Dy(), 160)
		})
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	names := map[int64]string{1: "short", 2: "a member with a really long nickname"}
	assert.Equal(t, "short", displayName(names, 1))
	assert.Equal(t, "a member with a r…", displayName(names, 2))
	assert.Equal(t, "user 2345", displayName(names, 12345))
}
