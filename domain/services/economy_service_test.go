package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/events"
	"guildbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type economyMocks struct {
	accounts  *testhelpers.MockEconomyAccountRepository
	history   *testhelpers.MockBalanceHistoryRepository
	publisher *testhelpers.MockEventPublisher
}

func newTestEconomyService(now time.Time) (*economyService, economyMocks) {
	m := economyMocks{
		accounts:  new(testhelpers.MockEconomyAccountRepository),
		history:   new(testhelpers.MockBalanceHistoryRepository),
		publisher: new(testhelpers.MockEventPublisher),
	}
	svc := NewEconomyService(m.accounts, m.history, m.publisher, NewDailyRewardCalculator(DefaultDailyRewardPolicy())).(*economyService)
	svc.now = func() time.Time { return now }
	return svc, m
}

func TestEconomyService_ClaimDaily(t *testing.T) {
	t.Parallel()

	t.Run("first claim pays base plus one day bonus", func(t *testing.T) {
		t.Parallel()

		svc, m := newTestEconomyService(fixedNow)
		account := &entities.EconomyAccount{ID: 1, DiscordID: 10, GuildID: 100}

		m.accounts.On("GetOrCreate", mock.Anything, int64(10)).Return(account, nil)
		m.accounts.On("GetByDiscordIDForUpdate", mock.Anything, int64(10)).Return(account, nil)
		m.accounts.On("Update", mock.Anything, mock.MatchedBy(func(a *entities.EconomyAccount) bool {
			return a.Balance == 105 && a.Streak == 1 && a.LastDailyAt != nil
		})).Return(nil)
		m.history.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
			return h.TransactionType == entities.TransactionTypeDailyReward && h.ChangeAmount == 105 && h.BalanceBefore == 0
		})).Return(nil)
		m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
		m.publisher.On("Publish", events.DailyRewardClaimedEvent{
			UserID:       10,
			GuildID:      100,
			Amount:       105,
			Streak:       1,
			BonusPercent: 5,
		}).Return(nil)

		result, err := svc.ClaimDaily(context.Background(), 10)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, int64(105), result.Amount)
		assert.Equal(t, int64(105), result.Balance)
		assert.Equal(t, fixedNow.Add(24*time.Hour), result.NextClaimAt)
		m.accounts.AssertExpectations(t)
		m.history.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
	})

	t.Run("too early leaves account untouched", func(t *testing.T) {
		t.Parallel()

		svc, m := newTestEconomyService(fixedNow)
		last := fixedNow.Add(-5 * time.Hour)
		account := &entities.EconomyAccount{ID: 1, DiscordID: 10, GuildID: 100, Balance: 500, Streak: 2, LastDailyAt: &last}

		m.accounts.On("GetOrCreate", mock.Anything, int64(10)).Return(account, nil)
		m.accounts.On("GetByDiscordIDForUpdate", mock.Anything, int64(10)).Return(account, nil)

		result, err := svc.ClaimDaily(context.Background(), 10)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 19*time.Hour, result.TimeUntilNext)
		assert.Equal(t, int64(500), account.Balance)
		m.accounts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		m.history.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("update failure propagates", func(t *testing.T) {
		t.Parallel()

		svc, m := newTestEconomyService(fixedNow)
		account := &entities.EconomyAccount{ID: 1, DiscordID: 10, GuildID: 100}

		m.accounts.On("GetOrCreate", mock.Anything, int64(10)).Return(account, nil)
		m.accounts.On("GetByDiscordIDForUpdate", mock.Anything, int64(10)).Return(account, nil)
		m.accounts.On("Update", mock.Anything, mock.Anything).Return(errors.New("serialization failure"))

		_, err := svc.ClaimDaily(context.Background(), 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update account")
	})
}

func TestEconomyService_Transfer_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    int64
		to      int64
		amount  int64
		wantErr error
	}{
		{"zero amount", 1, 2, 0, ErrInvalidAmount},
		{"negative amount", 1, 2, -5, ErrInvalidAmount},
		{"self transfer", 1, 1, 10, ErrSelfTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, m := newTestEconomyService(fixedNow)
			_, err := svc.Transfer(context.Background(), tt.from, tt.to, tt.amount)

			assert.ErrorIs(t, err, tt.wantErr)
			m.accounts.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
		})
	}
}

func TestEconomyService_Transfer(t *testing.T) {
	t.Parallel()

	t.Run("moves coins and records both sides", func(t *testing.T) {
		t.Parallel()

		svc, m := newTestEconomyService(fixedNow)
		sender := &entities.EconomyAccount{ID: 8, DiscordID: 10, GuildID: 100, Balance: 300}
		recipient := &entities.EconomyAccount{ID: 3, DiscordID: 20, GuildID: 100, Balance: 50}

		m.accounts.On("GetOrCreate", mock.Anything, int64(10)).Return(sender, nil)
		m.accounts.On("GetOrCreate", mock.Anything, int64(20)).Return(recipient, nil)
		lockRecipient := m.accounts.On("GetByDiscordIDForUpdate", mock.Anything, int64(20)).Return(recipient, nil)
		m.accounts.On("GetByDiscordIDForUpdate", mock.Anything, int64(10)).Return(sender, nil).NotBefore(lockRecipient)
		m.accounts.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()
		m.history.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
			return h.TransactionType == entities.TransactionTypeTransferOut && h.ChangeAmount == -120
		})).Return(nil)
		m.history.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
			return h.TransactionType == entities.TransactionTypeTransferIn && h.ChangeAmount == 120
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		result, err := svc.Transfer(context.Background(), 10, 20, 120)

		require.NoError(t, err)
		assert.Equal(t, int64(180), result.From.Balance)
		assert.Equal(t, int64(120), result.From.TotalSpent)
		assert.Equal(t, int64(170), result.To.Balance)
		m.accounts.AssertExpectations(t)
		m.history.AssertExpectations(t)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		t.Parallel()

		svc, m := newTestEconomyService(fixedNow)
		sender := &entities.EconomyAccount{ID: 1, DiscordID: 10, GuildID: 100, Balance: 30}
		recipient := &entities.EconomyAccount{ID: 2, DiscordID: 20, GuildID: 100}

		m.accounts.On("GetOrCreate", mock.Anything, int64(10)).Return(sender, nil)
		m.accounts.On("GetOrCreate", mock.Anything, int64(20)).Return(recipient, nil)
		m.accounts.On("GetByDiscordIDForUpdate", mock.Anything, int64(10)).Return(sender, nil)
		m.accounts.On("GetByDiscordIDForUpdate", mock.Anything, int64(20)).Return(recipient, nil)

		_, err := svc.Transfer(context.Background(), 10, 20, 31)

		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, int64(30), sender.Balance)
		m.accounts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestEconomyService_AdminAdjust(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		balance     int64
		delta       int64
		wantBalance int64
		wantErr     error
	}{
		{"credit", 100, 50, 150, nil},
		{"debit", 100, -40, 60, nil},
		{"debit below zero", 100, -101, 100, ErrInsufficientBalance},
		{"zero delta", 100, 0, 100, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, m := newTestEconomyService(fixedNow)
			account := &entities.EconomyAccount{ID: 1, DiscordID: 10, GuildID: 100, Balance: tt.balance}

			m.accounts.On("GetOrCreate", mock.Anything, int64(10)).Return(account, nil)
			m.accounts.On("GetByDiscordIDForUpdate", mock.Anything, int64(10)).Return(account, nil)
			m.accounts.On("Update", mock.Anything, mock.Anything).Return(nil)
			m.history.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
				return h.TransactionType == entities.TransactionTypeAdminAdjustment && h.TransactionMetadata["reason"] == "event prize"
			})).Return(nil)
			m.publisher.On("Publish", mock.Anything).Return(nil)

			updated, err := svc.AdminAdjust(context.Background(), 10, tt.delta, "event prize")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantBalance, account.Balance)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBalance, updated.Balance)
		})
	}
}

func TestEconomyService_GetAccountSummary(t *testing.T) {
	t.Parallel()

	t.Run("member without account", func(t *testing.T) {
		t.Parallel()

		svc, m := newTestEconomyService(fixedNow)
		m.accounts.On("GetByDiscordID", mock.Anything, int64(10)).Return(nil, nil)

		summary, err := svc.GetAccountSummary(context.Background(), 10)

		require.NoError(t, err)
		assert.Equal(t, int64(10), summary.Account.DiscordID)
		assert.Zero(t, summary.Account.Balance)
		assert.Empty(t, summary.RecentActivity)
		m.history.AssertNotCalled(t, "GetByUser", mock.Anything, mock.Anything, mock.Anything)
		assert.True(t, summary.CanClaimDaily)
		assert.Nil(t, summary.NextClaimAt)
		assert.InDelta(t, 0.05, summary.NextBonusRatio, 1e-9)
	})

	t.Run("recent claim reports next claim time", func(t *testing.T) {
		t.Parallel()

		svc, m := newTestEconomyService(fixedNow)
		last := fixedNow.Add(-2 * time.Hour)
		m.accounts.On("GetByDiscordID", mock.Anything, int64(10)).Return(&entities.EconomyAccount{ID: 4, DiscordID: 10, Streak: 3, LastDailyAt: &last}, nil)
		activity := []*entities.BalanceHistory{{DiscordID: 10, ChangeAmount: 115, TransactionType: entities.TransactionTypeDailyReward}}
		m.history.On("GetByUser", mock.Anything, int64(10), recentActivityLimit).Return(activity, nil)

		summary, err := svc.GetAccountSummary(context.Background(), 10)

		require.NoError(t, err)
		assert.Equal(t, activity, summary.RecentActivity)
		assert.False(t, summary.CanClaimDaily)
		require.NotNil(t, summary.NextClaimAt)
		assert.Equal(t, last.Add(24*time.Hour), *summary.NextClaimAt)
		assert.InDelta(t, 0.20, summary.NextBonusRatio, 1e-9)
	})
}

func TestEconomyService_GetLeaderboard_ClampsLimit(t *testing.T) {
	t.Parallel()

	svc, m := newTestEconomyService(fixedNow)
	entries := []*entities.LeaderboardEntry{{Rank: 1, DiscordID: 10, Balance: 900}}
	m.accounts.On("GetLeaderboard", mock.Anything, 10).Return(entries, nil)

	got, err := svc.GetLeaderboard(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
