package infrastructure

import (
	"context"
	"errors"
	"testing"

	"guildbot/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSTransactionalPublisher_FlushPublishesInOrder(t *testing.T) {
	t.Parallel()

	mockPublisher := &MockEventPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	first := events.GiveawayCreatedEvent{GiveawayID: 1}
	second := events.GiveawayEndedEvent{GiveawayID: 1, Winners: []int64{7}}
	require.NoError(t, transPublisher.Publish(first))
	require.NoError(t, transPublisher.Publish(second))

	assert.Empty(t, mockPublisher.PublishedEvents, "nothing is published before flush")

	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Equal(t, []events.Event{first, second}, mockPublisher.PublishedEvents)

	// A second flush has nothing left to send
	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Len(t, mockPublisher.PublishedEvents, 2)
}

func TestNATSTransactionalPublisher_LocalHandlersRunOnFlush(t *testing.T) {
	t.Parallel()

	natsPublisher := NewNATSEventPublisher(nil, NewEventSubjectMapper(), nil)
	transPublisher := NewNATSTransactionalPublisher(natsPublisher)

	handlerCalled := false
	natsPublisher.RegisterLocalHandler(events.EventTypeGiveawayEnded, func(ctx context.Context, event events.Event) error {
		handlerCalled = true
		return nil
	})

	require.NoError(t, transPublisher.Publish(events.GiveawayEndedEvent{GiveawayID: 3}))
	assert.False(t, handlerCalled)

	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.True(t, handlerCalled)
}

func TestNATSTransactionalPublisher_Discard(t *testing.T) {
	t.Parallel()

	mockPublisher := &MockEventPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(events.GiveawayCancelledEvent{GiveawayID: 1}))
	transPublisher.Discard()
	require.NoError(t, transPublisher.Flush(context.Background()))

	assert.Empty(t, mockPublisher.PublishedEvents)
}

func TestNATSTransactionalPublisher_FlushContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	mockPublisher := &MockEventPublisher{PublishError: errors.New("nats down")}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(events.GiveawayCreatedEvent{GiveawayID: 1}))
	require.NoError(t, transPublisher.Publish(events.GiveawayCreatedEvent{GiveawayID: 2}))

	assert.NoError(t, transPublisher.Flush(context.Background()))
}
