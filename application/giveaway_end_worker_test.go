package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"guildbot/application"
	"guildbot/domain/entities"
	"guildbot/repository"
	"guildbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiveawayEndWorker_ProcessDueGiveaways(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	due := testutil.CreateTestGiveaway(1, 2, "Due", 1, -time.Minute)
	otherGuildDue := testutil.CreateTestGiveaway(1, 2, "Other guild", 1, -time.Second)
	future := testutil.CreateTestGiveaway(1, 2, "Future", 1, time.Hour)
	require.NoError(t, repository.NewGiveawayRepositoryScoped(testDB.DB, guildID).Create(ctx, due))
	require.NoError(t, repository.NewGiveawayRepositoryScoped(testDB.DB, guildID+1).Create(ctx, otherGuildDue))
	require.NoError(t, repository.NewGiveawayRepositoryScoped(testDB.DB, guildID).Create(ctx, future))

	factory := newTestUnitOfWorkFactory(testDB.DB)
	poster := newFakePoster()
	coordinator := application.NewGiveawayCoordinator(factory, newFakeParticipants(), poster, newFakeLock(), testPolicy, identityShuffle, nopMetrics{})
	worker := application.NewGiveawayEndWorker(factory, coordinator, time.Hour)

	ended, err := worker.ProcessDueGiveaways(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ended)
	assert.Equal(t, 2, poster.endedCount())

	ended, err = worker.ProcessDueGiveaways(ctx)
	require.NoError(t, err)
	assert.Zero(t, ended, "nothing left to end")

	stored, err := repository.NewGiveawayRepositoryScoped(testDB.DB, guildID).GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.GiveawayStateOpen, stored.State)
}

// Two replicas without a shared lock still announce each giveaway once
func TestGiveawayEndWorker_ConcurrentReplicas(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := repository.NewGiveawayRepositoryScoped(testDB.DB, guildID)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestGiveaway(1, 2, "Race", 1, -time.Minute)))
	}

	poster := newFakePoster()
	var wg sync.WaitGroup
	totals := make(chan int, 2)
	for replica := 0; replica < 2; replica++ {
		factory := newTestUnitOfWorkFactory(testDB.DB)
		coordinator := application.NewGiveawayCoordinator(factory, newFakeParticipants(), poster, newFakeLock(), testPolicy, identityShuffle, nopMetrics{})
		worker := application.NewGiveawayEndWorker(factory, coordinator, time.Hour)

		wg.Add(1)
		go func() {
			defer wg.Done()
			ended, err := worker.ProcessDueGiveaways(ctx)
			assert.NoError(t, err)
			totals <- ended
		}()
	}
	wg.Wait()
	close(totals)

	sum := 0
	for ended := range totals {
		sum += ended
	}
	assert.Equal(t, 5, sum)
	assert.Equal(t, 5, poster.endedCount())
}

func TestGiveawayEndWorker_StartAndStop(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := repository.NewGiveawayRepositoryScoped(testDB.DB, guildID)
	giveaway := testutil.CreateTestGiveaway(1, 2, "Soon", 1, -time.Second)
	require.NoError(t, repo.Create(ctx, giveaway))

	factory := newTestUnitOfWorkFactory(testDB.DB)
	coordinator := application.NewGiveawayCoordinator(factory, newFakeParticipants(), newFakePoster(), newFakeLock(), testPolicy, identityShuffle, nopMetrics{})
	worker := application.NewGiveawayEndWorker(factory, coordinator, time.Hour)

	stop := worker.Start(ctx)
	defer stop()

	assert.Eventually(t, func() bool {
		stored, err := repo.GetByID(context.Background(), giveaway.ID)
		return err == nil && stored != nil && stored.State == entities.GiveawayStateEnded
	}, 10*time.Second, 50*time.Millisecond)

	stop()
	stop()
}

func TestGiveawayEndWorker_WakeEndsNewGiveaway(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory := newTestUnitOfWorkFactory(testDB.DB)
	coordinator := application.NewGiveawayCoordinator(factory, newFakeParticipants(), newFakePoster(), newFakeLock(), testPolicy, identityShuffle, nopMetrics{})
	worker := application.NewGiveawayEndWorker(factory, coordinator, time.Hour)

	stop := worker.Start(ctx)
	defer stop()

	// Let the worker find nothing and go idle for the full recheck interval
	time.Sleep(200 * time.Millisecond)

	repo := repository.NewGiveawayRepositoryScoped(testDB.DB, guildID)
	giveaway := testutil.CreateTestGiveaway(1, 2, "Short", 1, -time.Second)
	require.NoError(t, repo.Create(ctx, giveaway))
	worker.Wake()
	worker.Wake() // coalesced

	assert.Eventually(t, func() bool {
		stored, err := repo.GetByID(context.Background(), giveaway.ID)
		return err == nil && stored != nil && stored.State == entities.GiveawayStateEnded
	}, 10*time.Second, 50*time.Millisecond)
}
