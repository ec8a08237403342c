package services

import (
	"testing"
	"time"

	"guildbot/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestDailyRewardCalculator_CanClaim(t *testing.T) {
	t.Parallel()

	calc := NewDailyRewardCalculator(DefaultDailyRewardPolicy())
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		last *time.Time
		now  time.Time
		want bool
	}{
		{"never claimed", nil, base, true},
		{"19 hours later", ptrTime(base), base.Add(19 * time.Hour), false},
		{"one second short of 20 hours", ptrTime(base), base.Add(20*time.Hour - time.Second), false},
		{"exactly 20 hours later", ptrTime(base), base.Add(20 * time.Hour), true},
		{"a day later", ptrTime(base), base.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, calc.CanClaim(tt.last, tt.now))
		})
	}
}

func TestDailyRewardCalculator_Claim_TooEarly(t *testing.T) {
	t.Parallel()

	calc := NewDailyRewardCalculator(DefaultDailyRewardPolicy())
	first := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	account := &entities.EconomyAccount{DiscordID: 1, GuildID: 2}

	ok := calc.Claim(account, first)
	require.True(t, ok.Success)
	snapshot := *account

	second := calc.Claim(account, first.Add(10*time.Hour))

	assert.False(t, second.Success)
	assert.Zero(t, second.Amount)
	assert.Equal(t, first.Add(24*time.Hour), second.NextClaimAt)
	assert.Equal(t, 14*time.Hour, second.TimeUntilNext)
	assert.Equal(t, snapshot, *account, "account must be unchanged")
}

func TestDailyRewardCalculator_Claim_StreakProgression(t *testing.T) {
	t.Parallel()

	calc := NewDailyRewardCalculator(DefaultDailyRewardPolicy())
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	account := &entities.EconomyAccount{}

	steps := []struct {
		at       time.Time
		streak   int
		fraction float64
		amount   int64
	}{
		{start, 1, 0.05, 105},
		{start.Add(20 * time.Hour), 2, 0.10, 110},
		{start.Add(40 * time.Hour), 3, 0.15, 115},
	}

	var total int64
	for _, step := range steps {
		result := calc.Claim(account, step.at)
		require.True(t, result.Success)
		assert.False(t, result.StreakBroken)
		assert.Equal(t, step.streak, result.Streak)
		assert.InDelta(t, step.fraction, result.BonusFraction, 1e-9)
		assert.Equal(t, step.amount, result.Amount)
		assert.Equal(t, step.at.Add(24*time.Hour), result.NextClaimAt)

		total += step.amount
		assert.Equal(t, total, account.Balance)
		assert.Equal(t, total, account.TotalEarned)
		require.NotNil(t, account.LastDailyAt)
		assert.Equal(t, step.at, *account.LastDailyAt)
	}
}

func TestDailyRewardCalculator_Claim_StreakBreak(t *testing.T) {
	t.Parallel()

	calc := NewDailyRewardCalculator(DefaultDailyRewardPolicy())
	last := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		gap        time.Duration
		wantStreak int
		wantBroken bool
		wantAmount int64
	}{
		{"47 hours keeps streak", 47 * time.Hour, 5, false, 125},
		{"exactly 48 hours breaks streak", 48 * time.Hour, 1, true, 105},
		{"49 hours breaks streak", 49 * time.Hour, 1, true, 105},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			account := &entities.EconomyAccount{Balance: 1000, Streak: 4, LastDailyAt: ptrTime(last)}
			result := calc.Claim(account, last.Add(tt.gap))

			require.True(t, result.Success)
			assert.Equal(t, tt.wantBroken, result.StreakBroken)
			assert.Equal(t, tt.wantStreak, result.Streak)
			assert.Equal(t, tt.wantAmount, result.Amount)
			assert.Equal(t, 1000+tt.wantAmount, account.Balance)
		})
	}
}

func TestDailyRewardCalculator_BonusCap(t *testing.T) {
	t.Parallel()

	calc := NewDailyRewardCalculator(DefaultDailyRewardPolicy())

	for _, streak := range []int{10, 11, 20, 365} {
		assert.InDelta(t, 0.5, calc.BonusFraction(streak), 1e-9, "streak %d", streak)
		assert.Equal(t, int64(150), calc.Payout(streak), "streak %d", streak)
	}

	last := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	account := &entities.EconomyAccount{Streak: 19, LastDailyAt: ptrTime(last)}
	result := calc.Claim(account, last.Add(21*time.Hour))
	assert.Equal(t, 20, result.Streak)
	assert.InDelta(t, 0.5, result.BonusFraction, 1e-9)
	assert.Equal(t, int64(150), result.Amount)
}

func TestDailyRewardCalculator_PayoutFloors(t *testing.T) {
	t.Parallel()

	policy := DefaultDailyRewardPolicy()
	policy.BaseAmount = 33
	calc := NewDailyRewardCalculator(policy)

	// 33 * 1.05 = 34.65, 33 * 1.15 = 37.95
	assert.Equal(t, int64(34), calc.Payout(1))
	assert.Equal(t, int64(37), calc.Payout(3))
	assert.Equal(t, int64(33), calc.Payout(0))
}

func TestDailyRewardCalculator_NextClaimAt(t *testing.T) {
	t.Parallel()

	calc := NewDailyRewardCalculator(DefaultDailyRewardPolicy())
	last := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	assert.Nil(t, calc.NextClaimAt(nil, last))
	assert.Nil(t, calc.NextClaimAt(ptrTime(last), last.Add(20*time.Hour)))

	next := calc.NextClaimAt(ptrTime(last), last.Add(time.Hour))
	require.NotNil(t, next)
	assert.Equal(t, last.Add(24*time.Hour), *next)
}
