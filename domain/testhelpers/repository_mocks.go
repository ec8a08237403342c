package testhelpers

import (
	"context"
	"time"

	"guildbot/domain/entities"
	"guildbot/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockGiveawayRepository is a mock implementation of GiveawayRepository
type MockGiveawayRepository struct {
	mock.Mock
}

func (m *MockGiveawayRepository) Create(ctx context.Context, giveaway *entities.Giveaway) error {
	args := m.Called(ctx, giveaway)
	return args.Error(0)
}

func (m *MockGiveawayRepository) GetByID(ctx context.Context, id int64) (*entities.Giveaway, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Giveaway, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetByMessageID(ctx context.Context, messageID int64) (*entities.Giveaway, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) SetMessage(ctx context.Context, id int64, messageID int64) error {
	args := m.Called(ctx, id, messageID)
	return args.Error(0)
}

func (m *MockGiveawayRepository) MarkEnded(ctx context.Context, id int64, winners []int64, endedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, winners, endedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiveawayRepository) UpdateWinners(ctx context.Context, id int64, winners []int64) error {
	args := m.Called(ctx, id, winners)
	return args.Error(0)
}

func (m *MockGiveawayRepository) MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) (bool, error) {
	args := m.Called(ctx, id, cancelledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiveawayRepository) ListActive(ctx context.Context) ([]*entities.Giveaway, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Giveaway, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetDueGiveaways(ctx context.Context, now time.Time) ([]*entities.Giveaway, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetNextDueTime(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// MockEconomyAccountRepository is a mock implementation of EconomyAccountRepository
type MockEconomyAccountRepository struct {
	mock.Mock
}

func (m *MockEconomyAccountRepository) GetByDiscordID(ctx context.Context, discordID int64) (*entities.EconomyAccount, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EconomyAccount), args.Error(1)
}

func (m *MockEconomyAccountRepository) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.EconomyAccount, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EconomyAccount), args.Error(1)
}

func (m *MockEconomyAccountRepository) GetOrCreate(ctx context.Context, discordID int64) (*entities.EconomyAccount, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EconomyAccount), args.Error(1)
}

func (m *MockEconomyAccountRepository) Update(ctx context.Context, account *entities.EconomyAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockEconomyAccountRepository) GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LeaderboardEntry), args.Error(1)
}

func (m *MockEconomyAccountRepository) GetTopHolder(ctx context.Context) (*entities.EconomyAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EconomyAccount), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
