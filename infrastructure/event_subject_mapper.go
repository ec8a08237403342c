package infrastructure

import (
	"fmt"

	"guildbot/domain/events"
)

var subjectsByEventType = map[events.EventType]string{
	events.EventTypeBalanceChange:      "economy.balance_changed",
	events.EventTypeDailyRewardClaimed: "economy.daily_claimed",
	events.EventTypeGiveawayCreated:    "giveaways.created",
	events.EventTypeGiveawayEnded:      "giveaways.ended",
	events.EventTypeGiveawayRerolled:   "giveaways.rerolled",
	events.EventTypeGiveawayCancelled:  "giveaways.cancelled",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByEventType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByEventType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"economy.balance_changed",
		"economy.daily_claimed",
		"giveaways.created",
		"giveaways.ended",
		"giveaways.rerolled",
		"giveaways.cancelled",
	}
}
