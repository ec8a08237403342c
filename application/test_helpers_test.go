package application_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"guildbot/application"
	"guildbot/database"
	"guildbot/domain/entities"
	"guildbot/domain/interfaces"
	"guildbot/domain/services"
	"guildbot/repository"
	"guildbot/repository/testutil"
)

var testPolicy = services.GiveawayPolicy{
	MinDuration: time.Minute,
	MaxDuration: 30 * 24 * time.Hour,
	MaxWinners:  20,
}

// testUnitOfWorkFactory hands every unit of work the same recording publisher.
// A non-nil setMessageErr makes every SetMessage call fail.
type testUnitOfWorkFactory struct {
	db            *database.DB
	publisher     *testutil.RecordingPublisher
	setMessageErr error
}

func newTestUnitOfWorkFactory(db *database.DB) *testUnitOfWorkFactory {
	return &testUnitOfWorkFactory{db: db, publisher: &testutil.RecordingPublisher{}}
}

func (f *testUnitOfWorkFactory) CreateForGuild(guildID int64) application.UnitOfWork {
	uow := repository.NewUnitOfWorkFactory(f.db).CreateForGuildWithPublisher(guildID, f.publisher)
	if f.setMessageErr != nil {
		return &setMessageFailingUoW{UnitOfWork: uow, err: f.setMessageErr}
	}
	return uow
}

type setMessageFailingUoW struct {
	application.UnitOfWork
	err error
}

func (u *setMessageFailingUoW) GiveawayRepository() interfaces.GiveawayRepository {
	return setMessageFailingRepo{GiveawayRepository: u.UnitOfWork.GiveawayRepository(), err: u.err}
}

type setMessageFailingRepo struct {
	interfaces.GiveawayRepository
	err error
}

func (r setMessageFailingRepo) SetMessage(ctx context.Context, id int64, messageID int64) error {
	return r.err
}

// fakeParticipants serves reactors per giveaway
type fakeParticipants struct {
	mu    sync.Mutex
	byID  map[int64][]int64
	calls int
	err   error
}

func newFakeParticipants() *fakeParticipants {
	return &fakeParticipants{byID: make(map[int64][]int64)}
}

func (f *fakeParticipants) set(giveawayID int64, ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[giveawayID] = ids
}

func (f *fakeParticipants) ListParticipants(ctx context.Context, giveaway *entities.Giveaway) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]int64(nil), f.byID[giveaway.ID]...), nil
}

func (f *fakeParticipants) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePoster records every announcement
type fakePoster struct {
	mu            sync.Mutex
	nextMessageID int64
	startErr      error
	started       []int64
	ended         map[int64][]int64
	rerolled      map[int64][]int64
	cancelled     []int64
}

func newFakePoster() *fakePoster {
	return &fakePoster{
		nextMessageID: 9000,
		ended:         make(map[int64][]int64),
		rerolled:      make(map[int64][]int64),
	}
}

func (p *fakePoster) PostGiveawayStarted(ctx context.Context, giveaway *entities.Giveaway) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startErr != nil {
		return 0, p.startErr
	}
	p.nextMessageID++
	p.started = append(p.started, giveaway.ID)
	return p.nextMessageID, nil
}

func (p *fakePoster) PostGiveawayEnded(ctx context.Context, giveaway *entities.Giveaway, winners []int64, participantCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, seen := p.ended[giveaway.ID]; seen {
		return errors.New("giveaway announced twice")
	}
	p.ended[giveaway.ID] = append([]int64{}, winners...)
	return nil
}

func (p *fakePoster) PostGiveawayRerolled(ctx context.Context, giveaway *entities.Giveaway, winnerID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rerolled[giveaway.ID] = append(p.rerolled[giveaway.ID], winnerID)
	return nil
}

func (p *fakePoster) PostGiveawayCancelled(ctx context.Context, giveaway *entities.Giveaway) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, giveaway.ID)
	return nil
}

func (p *fakePoster) endedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ended)
}

// fakeLock is an in-process lock that can be forced to report contention
type fakeLock struct {
	mu     sync.Mutex
	held   map[int64]bool
	always bool
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[int64]bool)}
}

func (l *fakeLock) Acquire(ctx context.Context, giveawayID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.always || l.held[giveawayID] {
		return nil, application.ErrGiveawayLocked
	}
	l.held[giveawayID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, giveawayID)
	}, nil
}

// nopMetrics discards measurements
type nopMetrics struct{}

func (nopMetrics) RecordGiveawayCreated()                               {}
func (nopMetrics) RecordGiveawayEnded(trigger string, participants int) {}
func (nopMetrics) RecordGiveawayRerolled(rerolled bool)                 {}
func (nopMetrics) RecordGiveawayCancelled()                             {}

func identityShuffle(ids []int64) error { return nil }
