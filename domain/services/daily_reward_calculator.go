package services

import (
	"math"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/interfaces"
)

const basisPoints = 10_000

// DailyRewardPolicy holds the tunables of the daily reward
type DailyRewardPolicy struct {
	BaseAmount    int64
	ClaimWindow   time.Duration // Minimum gap between claims
	ClaimCooldown time.Duration // Advertised delay until the next claim
	StreakBreak   time.Duration // Gap that resets the streak
	BonusPerDay   float64
	BonusCap      float64
}

// DefaultDailyRewardPolicy returns the stock policy: 100 coins, 5% per streak day up to 50%
func DefaultDailyRewardPolicy() DailyRewardPolicy {
	return DailyRewardPolicy{
		BaseAmount:    100,
		ClaimWindow:   20 * time.Hour,
		ClaimCooldown: 24 * time.Hour,
		StreakBreak:   48 * time.Hour,
		BonusPerDay:   0.05,
		BonusCap:      0.5,
	}
}

// DailyRewardCalculator decides daily reward eligibility, streaks and payouts.
// Claims open after ClaimWindow even though ClaimCooldown is what members are shown.
type DailyRewardCalculator struct {
	policy      DailyRewardPolicy
	perDayBps   int64
	bonusCapBps int64
}

// NewDailyRewardCalculator creates a calculator for the given policy
func NewDailyRewardCalculator(policy DailyRewardPolicy) *DailyRewardCalculator {
	return &DailyRewardCalculator{
		policy:      policy,
		perDayBps:   int64(math.Round(policy.BonusPerDay * basisPoints)),
		bonusCapBps: int64(math.Round(policy.BonusCap * basisPoints)),
	}
}

// Policy returns the policy the calculator was built with
func (c *DailyRewardCalculator) Policy() DailyRewardPolicy {
	return c.policy
}

// CanClaim reports whether a claim is allowed at now given the previous claim time
func (c *DailyRewardCalculator) CanClaim(lastClaimAt *time.Time, now time.Time) bool {
	if lastClaimAt == nil {
		return true
	}
	return now.Sub(*lastClaimAt) >= c.policy.ClaimWindow
}

// NextClaimAt returns when the next claim is advertised as available, nil if it is available already
func (c *DailyRewardCalculator) NextClaimAt(lastClaimAt *time.Time, now time.Time) *time.Time {
	if c.CanClaim(lastClaimAt, now) {
		return nil
	}
	next := lastClaimAt.Add(c.policy.ClaimCooldown)
	return &next
}

// BonusFraction returns the streak bonus as a fraction of the base amount
func (c *DailyRewardCalculator) BonusFraction(streak int) float64 {
	return float64(c.bonusBps(streak)) / basisPoints
}

// Payout returns floor(base * (1 + bonus)) for the streak
func (c *DailyRewardCalculator) Payout(streak int) int64 {
	return c.policy.BaseAmount * (basisPoints + c.bonusBps(streak)) / basisPoints
}

func (c *DailyRewardCalculator) bonusBps(streak int) int64 {
	if streak <= 0 {
		return 0
	}
	return min(c.bonusCapBps, int64(streak)*c.perDayBps)
}

// Claim applies a daily claim to the account. When the claim is too early the
// account is left unchanged and the result reports when to come back.
func (c *DailyRewardCalculator) Claim(account *entities.EconomyAccount, now time.Time) *interfaces.DailyClaimResult {
	if !c.CanClaim(account.LastDailyAt, now) {
		next := account.LastDailyAt.Add(c.policy.ClaimCooldown)
		return &interfaces.DailyClaimResult{
			Success:       false,
			Streak:        account.Streak,
			Balance:       account.Balance,
			NextClaimAt:   next,
			TimeUntilNext: next.Sub(now),
		}
	}

	streakBroken := false
	if account.LastDailyAt != nil && now.Sub(*account.LastDailyAt) >= c.policy.StreakBreak {
		account.Streak = 0
		streakBroken = true
	}
	account.Streak++

	amount := c.Payout(account.Streak)
	account.Credit(amount)
	claimedAt := now
	account.LastDailyAt = &claimedAt

	next := now.Add(c.policy.ClaimCooldown)
	return &interfaces.DailyClaimResult{
		Success:       true,
		Amount:        amount,
		Streak:        account.Streak,
		StreakBroken:  streakBroken,
		BonusFraction: c.BonusFraction(account.Streak),
		Balance:       account.Balance,
		NextClaimAt:   next,
		TimeUntilNext: c.policy.ClaimCooldown,
	}
}
