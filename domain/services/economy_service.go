package services

import (
	"context"
	"fmt"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/events"
	"guildbot/domain/interfaces"
	"guildbot/domain/utils"

	log "github.com/sirupsen/logrus"
)

// recentActivityLimit is how many balance changes an account summary carries
const recentActivityLimit = 5

// economyService implements coin economy business logic within a guild
type economyService struct {
	accountRepo        interfaces.EconomyAccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
	calculator         *DailyRewardCalculator
	now                func() time.Time
}

// NewEconomyService creates a new economy service
func NewEconomyService(
	accountRepo interfaces.EconomyAccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
	calculator *DailyRewardCalculator,
) interfaces.EconomyService {
	return &economyService{
		accountRepo:        accountRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
		calculator:         calculator,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateAccount returns the member's account, creating it on first use
func (s *economyService) GetOrCreateAccount(ctx context.Context, discordID int64) (*entities.EconomyAccount, error) {
	account, err := s.accountRepo.GetOrCreate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create account: %w", err)
	}
	return account, nil
}

// ClaimDaily pays the daily reward under a row lock on the account
func (s *economyService) ClaimDaily(ctx context.Context, discordID int64) (*interfaces.DailyClaimResult, error) {
	account, err := s.lockAccount(ctx, discordID)
	if err != nil {
		return nil, err
	}

	balanceBefore := account.Balance
	result := s.calculator.Claim(account, s.now())
	if !result.Success {
		return result, nil
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	history := &entities.BalanceHistory{
		DiscordID:       account.DiscordID,
		GuildID:         account.GuildID,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    account.Balance,
		ChangeAmount:    result.Amount,
		TransactionType: entities.TransactionTypeDailyReward,
		TransactionMetadata: map[string]any{
			"streak":         result.Streak,
			"streak_broken":  result.StreakBroken,
			"bonus_fraction": result.BonusFraction,
		},
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.DailyRewardClaimedEvent{
		UserID:       account.DiscordID,
		GuildID:      account.GuildID,
		Amount:       result.Amount,
		Streak:       result.Streak,
		StreakBroken: result.StreakBroken,
		BonusPercent: result.BonusFraction * 100,
	}); err != nil {
		log.WithError(err).Error("Failed to publish daily reward event")
	}

	return result, nil
}

// GetAccountSummary returns the member's account together with daily claim eligibility.
// Members without an account get an unsaved empty one.
func (s *economyService) GetAccountSummary(ctx context.Context, discordID int64) (*interfaces.AccountSummary, error) {
	account, err := s.accountRepo.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		account = &entities.EconomyAccount{DiscordID: discordID}
	}

	now := s.now()
	nextStreak := account.Streak + 1
	if account.LastDailyAt != nil && now.Sub(*account.LastDailyAt) >= s.calculator.Policy().StreakBreak {
		nextStreak = 1
	}

	summary := &interfaces.AccountSummary{
		Account:        account,
		CanClaimDaily:  s.calculator.CanClaim(account.LastDailyAt, now),
		NextClaimAt:    s.calculator.NextClaimAt(account.LastDailyAt, now),
		NextBonusRatio: s.calculator.BonusFraction(nextStreak),
	}

	if account.ID != 0 {
		history, err := s.balanceHistoryRepo.GetByUser(ctx, discordID, recentActivityLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance history: %w", err)
		}
		summary.RecentActivity = history
	}
	return summary, nil
}

// Transfer moves coins between two members. Rows are locked in ascending account id order.
func (s *economyService) Transfer(ctx context.Context, fromDiscordID, toDiscordID int64, amount int64) (*interfaces.TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromDiscordID == toDiscordID {
		return nil, ErrSelfTransfer
	}

	fromAccount, err := s.accountRepo.GetOrCreate(ctx, fromDiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender account: %w", err)
	}
	toAccount, err := s.accountRepo.GetOrCreate(ctx, toDiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient account: %w", err)
	}

	first, second := fromDiscordID, toDiscordID
	if toAccount.ID < fromAccount.ID {
		first, second = toDiscordID, fromDiscordID
	}
	locked := make(map[int64]*entities.EconomyAccount, 2)
	for _, id := range []int64{first, second} {
		account, err := s.accountRepo.GetByDiscordIDForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return nil, fmt.Errorf("account %d disappeared after creation", id)
		}
		locked[id] = account
	}
	fromAccount, toAccount = locked[fromDiscordID], locked[toDiscordID]

	if !fromAccount.CanAfford(amount) {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, fromAccount.Balance, amount)
	}

	fromBefore, toBefore := fromAccount.Balance, toAccount.Balance
	fromAccount.Debit(amount)
	toAccount.Credit(amount)

	if err := s.accountRepo.Update(ctx, fromAccount); err != nil {
		return nil, fmt.Errorf("failed to update sender account: %w", err)
	}
	if err := s.accountRepo.Update(ctx, toAccount); err != nil {
		return nil, fmt.Errorf("failed to update recipient account: %w", err)
	}

	relatedType := entities.RelatedTypeAccount
	histories := []*entities.BalanceHistory{
		{
			DiscordID:           fromDiscordID,
			GuildID:             fromAccount.GuildID,
			BalanceBefore:       fromBefore,
			BalanceAfter:        fromAccount.Balance,
			ChangeAmount:        -amount,
			TransactionType:     entities.TransactionTypeTransferOut,
			TransactionMetadata: map[string]any{"transfer_to": toDiscordID, "transfer_amount": amount},
			RelatedID:           &toAccount.ID,
			RelatedType:         &relatedType,
		},
		{
			DiscordID:           toDiscordID,
			GuildID:             toAccount.GuildID,
			BalanceBefore:       toBefore,
			BalanceAfter:        toAccount.Balance,
			ChangeAmount:        amount,
			TransactionType:     entities.TransactionTypeTransferIn,
			TransactionMetadata: map[string]any{"transfer_from": fromDiscordID, "transfer_amount": amount},
			RelatedID:           &fromAccount.ID,
			RelatedType:         &relatedType,
		},
	}
	for _, history := range histories {
		if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
			return nil, err
		}
	}

	return &interfaces.TransferResult{From: fromAccount, To: toAccount, Amount: amount}, nil
}

// AdminAdjust changes a balance by delta. A debit larger than the balance is rejected.
func (s *economyService) AdminAdjust(ctx context.Context, discordID int64, delta int64, reason string) (*entities.EconomyAccount, error) {
	if delta == 0 {
		return nil, ErrInvalidAmount
	}

	account, err := s.lockAccount(ctx, discordID)
	if err != nil {
		return nil, err
	}

	before := account.Balance
	if delta > 0 {
		account.Credit(delta)
	} else {
		if !account.CanAfford(-delta) {
			return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, account.Balance, -delta)
		}
		account.Debit(-delta)
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	history := &entities.BalanceHistory{
		DiscordID:           discordID,
		GuildID:             account.GuildID,
		BalanceBefore:       before,
		BalanceAfter:        account.Balance,
		ChangeAmount:        delta,
		TransactionType:     entities.TransactionTypeAdminAdjustment,
		TransactionMetadata: map[string]any{"reason": reason},
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	return account, nil
}

// GetLeaderboard returns the richest members of the guild
func (s *economyService) GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	entries, err := s.accountRepo.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return entries, nil
}

// GetTopHolder returns the richest member, nil when nobody holds coins
func (s *economyService) GetTopHolder(ctx context.Context) (*entities.EconomyAccount, error) {
	account, err := s.accountRepo.GetTopHolder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get top holder: %w", err)
	}
	return account, nil
}

// lockAccount makes sure the account exists and locks its row
func (s *economyService) lockAccount(ctx context.Context, discordID int64) (*entities.EconomyAccount, error) {
	if _, err := s.accountRepo.GetOrCreate(ctx, discordID); err != nil {
		return nil, fmt.Errorf("failed to get or create account: %w", err)
	}
	account, err := s.accountRepo.GetByDiscordIDForUpdate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d disappeared after creation", discordID)
	}
	return account, nil
}
