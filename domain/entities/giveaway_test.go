package entities

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityShuffle(ids []int64) error { return nil }

func reverseShuffle(ids []int64) error {
	slices.Reverse(ids)
	return nil
}

func seededShuffle(seed int64) ShuffleFunc {
	r := rand.New(rand.NewSource(seed))
	return func(ids []int64) error {
		r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		return nil
	}
}

func failingShuffle(ids []int64) error { return errors.New("entropy unavailable") }

func newOpenGiveaway(winners int) *Giveaway {
	return &Giveaway{
		ID:           1,
		GuildID:      10,
		ChannelID:    20,
		Prize:        "Nitro",
		WinnersCount: winners,
		EndsAt:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		State:        GiveawayStateOpen,
		Winners:      []int64{},
	}
}

func TestGiveaway_End(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		winnersCount int
		participants []int64
		shuffle      ShuffleFunc
		want         []int64
	}{
		{
			name:         "no participants ends with no winners",
			winnersCount: 1,
			participants: nil,
			shuffle:      identityShuffle,
			want:         []int64{},
		},
		{
			name:         "duplicates removed before selection",
			winnersCount: 3,
			participants: []int64{1, 2, 2, 3, 1},
			shuffle:      identityShuffle,
			want:         []int64{1, 2, 3},
		},
		{
			name:         "winners taken in shuffle order",
			winnersCount: 2,
			participants: []int64{1, 2, 3, 4},
			shuffle:      reverseShuffle,
			want:         []int64{4, 3},
		},
		{
			name:         "fewer participants than winners",
			winnersCount: 5,
			participants: []int64{7, 8},
			shuffle:      identityShuffle,
			want:         []int64{7, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newOpenGiveaway(tt.winnersCount)
			result, err := g.End(tt.participants, tt.shuffle, now)

			require.NoError(t, err)
			assert.False(t, result.AlreadyEnded)
			assert.Equal(t, tt.want, result.Winners)
			assert.Equal(t, tt.want, g.Winners)
			assert.Equal(t, GiveawayStateEnded, g.State)
			require.NotNil(t, g.EndedAt)
			assert.Equal(t, now, *g.EndedAt)
		})
	}
}

func TestGiveaway_End_WinnerCountProperty(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		k := r.Intn(6) + 1
		participants := make([]int64, r.Intn(12)+1)
		for j := range participants {
			participants[j] = int64(r.Intn(8))
		}
		distinct := Dedup(participants)

		g := newOpenGiveaway(k)
		result, err := g.End(participants, seededShuffle(int64(i)), g.EndsAt)
		require.NoError(t, err)

		assert.Len(t, result.Winners, min(k, len(distinct)))
		assert.True(t, g.IsEnded())
		for _, w := range result.Winners {
			assert.Contains(t, distinct, w)
		}
		assert.Equal(t, result.Winners, Dedup(result.Winners), "winners must be distinct")
	}
}

func TestGiveaway_End_Idempotent(t *testing.T) {
	t.Parallel()

	g := newOpenGiveaway(1)
	first, err := g.End([]int64{1, 2, 2, 3}, seededShuffle(7), g.EndsAt)
	require.NoError(t, err)
	require.Len(t, first.Winners, 1)

	second, err := g.End([]int64{4, 5, 6}, reverseShuffle, g.EndsAt.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, second.AlreadyEnded)
	assert.Equal(t, first.Winners, second.Winners)
	assert.Equal(t, first.Winners, g.Winners)
	assert.Equal(t, g.EndsAt, *g.EndedAt)
}

func TestGiveaway_End_AlreadyEndedWithoutWinners(t *testing.T) {
	t.Parallel()

	g := newOpenGiveaway(2)
	first, err := g.End(nil, identityShuffle, g.EndsAt)
	require.NoError(t, err)
	assert.Equal(t, []int64{}, first.Winners)

	g.Winners = nil // as loaded from a row with no winners
	second, err := g.End([]int64{1, 2}, identityShuffle, g.EndsAt.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, second.AlreadyEnded)
	assert.NotNil(t, second.Winners)
	assert.Equal(t, []int64{}, second.Winners)
}

func TestGiveaway_End_CancelledReportsAlreadyEnded(t *testing.T) {
	t.Parallel()

	g := newOpenGiveaway(1)
	require.True(t, g.Cancel(g.EndsAt))

	result, err := g.End([]int64{1, 2}, identityShuffle, g.EndsAt)
	require.NoError(t, err)
	assert.True(t, result.AlreadyEnded)
	assert.Empty(t, result.Winners)
	assert.Equal(t, GiveawayStateCancelled, g.State)
}

func TestGiveaway_End_ShuffleFailure(t *testing.T) {
	t.Parallel()

	g := newOpenGiveaway(1)
	_, err := g.End([]int64{1, 2}, failingShuffle, g.EndsAt)

	require.Error(t, err)
	assert.Equal(t, GiveawayStateOpen, g.State)
	assert.Empty(t, g.Winners)
}

func TestGiveaway_Reroll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		setup        func() *Giveaway
		participants []int64
		wantWinner   int64
		wantOK       bool
		wantWinners  []int64
	}{
		{
			name: "open giveaway cannot be rerolled",
			setup: func() *Giveaway {
				return newOpenGiveaway(1)
			},
			participants: []int64{1, 2},
			wantOK:       false,
			wantWinners:  []int64{},
		},
		{
			name: "cancelled giveaway cannot be rerolled",
			setup: func() *Giveaway {
				g := newOpenGiveaway(1)
				g.Cancel(g.EndsAt)
				return g
			},
			participants: []int64{1, 2},
			wantOK:       false,
			wantWinners:  []int64{},
		},
		{
			name: "empty participants yields no winner",
			setup: func() *Giveaway {
				g := newOpenGiveaway(1)
				g.State = GiveawayStateEnded
				g.Winners = []int64{1}
				return g
			},
			participants: nil,
			wantOK:       false,
			wantWinners:  []int64{1},
		},
		{
			name: "all participants already won",
			setup: func() *Giveaway {
				g := newOpenGiveaway(2)
				g.State = GiveawayStateEnded
				g.Winners = []int64{1, 2}
				return g
			},
			participants: []int64{2, 1, 1},
			wantOK:       false,
			wantWinners:  []int64{1, 2},
		},
		{
			name: "current winners excluded and new winner appended",
			setup: func() *Giveaway {
				g := newOpenGiveaway(1)
				g.State = GiveawayStateEnded
				g.Winners = []int64{1}
				return g
			},
			participants: []int64{1, 2, 3},
			wantWinner:   2,
			wantOK:       true,
			wantWinners:  []int64{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := tt.setup()
			winner, ok, err := g.Reroll(tt.participants, identityShuffle)

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantWinner, winner)
			assert.Equal(t, tt.wantWinners, g.Winners)
		})
	}
}

func TestGiveaway_Reroll_NeverRepeatsWinner(t *testing.T) {
	t.Parallel()

	g := newOpenGiveaway(1)
	participants := []int64{1, 2, 3, 4, 5}
	_, err := g.End(participants, seededShuffle(1), g.EndsAt)
	require.NoError(t, err)

	for i := 0; i < len(participants)-1; i++ {
		before := append([]int64(nil), g.Winners...)
		winner, ok, err := g.Reroll(participants, seededShuffle(int64(i)))
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotContains(t, before, winner)
		assert.Len(t, g.Winners, len(before)+1)
	}

	_, ok, err := g.Reroll(participants, seededShuffle(99))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, g.Winners, len(participants))
}

func TestGiveaway_Cancel(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)

	g := newOpenGiveaway(1)
	assert.True(t, g.Cancel(now))
	assert.Equal(t, GiveawayStateCancelled, g.State)
	assert.Empty(t, g.Winners)
	assert.True(t, g.IsEnded())
	assert.True(t, g.IsCancelled())

	assert.False(t, g.Cancel(now), "cancel twice")

	ended := newOpenGiveaway(1)
	_, err := ended.End([]int64{1}, identityShuffle, now)
	require.NoError(t, err)
	assert.False(t, ended.Cancel(now))
	assert.Equal(t, []int64{1}, ended.Winners)
}

func TestGiveaway_TimeRemaining(t *testing.T) {
	t.Parallel()

	endsAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		now   time.Time
		state GiveawayState
		want  string
	}{
		{"days and hours", endsAt.Add(-(2*24*time.Hour + 3*time.Hour + 5*time.Minute)), GiveawayStateOpen, "2d 3h"},
		{"minutes and seconds", endsAt.Add(-(4*time.Minute + 10*time.Second)), GiveawayStateOpen, "4m 10s"},
		{"seconds only", endsAt.Add(-45 * time.Second), GiveawayStateOpen, "45s"},
		{"zero unit skipped", endsAt.Add(-(1*24*time.Hour + 30*time.Minute)), GiveawayStateOpen, "1d 30m"},
		{"exact hours", endsAt.Add(-5 * time.Hour), GiveawayStateOpen, "5h"},
		{"sub-second remainder", endsAt.Add(-300 * time.Millisecond), GiveawayStateOpen, "1s"},
		{"at end time", endsAt, GiveawayStateOpen, "ended"},
		{"past end time", endsAt.Add(time.Minute), GiveawayStateOpen, "ended"},
		{"ended early", endsAt.Add(-time.Hour), GiveawayStateEnded, "ended"},
		{"cancelled", endsAt.Add(-time.Hour), GiveawayStateCancelled, "ended"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := &Giveaway{EndsAt: endsAt, State: tt.state}
			assert.Equal(t, tt.want, g.TimeRemaining(tt.now))
		})
	}
}

func TestGiveaway_IsDue(t *testing.T) {
	t.Parallel()

	g := newOpenGiveaway(1)
	assert.False(t, g.IsDue(g.EndsAt.Add(-time.Second)))
	assert.True(t, g.IsDue(g.EndsAt))
	assert.True(t, g.IsDue(g.EndsAt.Add(time.Second)))

	g.State = GiveawayStateEnded
	assert.False(t, g.IsDue(g.EndsAt.Add(time.Second)))
}

func TestDedup(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int64{3, 1, 2}, Dedup([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, Dedup(nil))
}

func TestCloneIDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int64{}, CloneIDs(nil))
	assert.Equal(t, []int64{}, CloneIDs([]int64{}))

	src := []int64{1, 2}
	clone := CloneIDs(src)
	clone[0] = 9
	assert.Equal(t, []int64{1, 2}, src)
}
