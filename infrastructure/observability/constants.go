package observability

// Metric name prefixes
const (
	MetricPrefix = "guildbot"
)

// Metric names
const (
	// Discord metrics
	CommandsTotal = MetricPrefix + ".commands.total"

	// Giveaway metrics
	GiveawaysCreatedTotal   = MetricPrefix + ".giveaways.created_total"
	GiveawaysEndedTotal     = MetricPrefix + ".giveaways.ended_total"
	GiveawaysRerolledTotal  = MetricPrefix + ".giveaways.rerolled_total"
	GiveawaysCancelledTotal = MetricPrefix + ".giveaways.cancelled_total"
	GiveawayParticipants    = MetricPrefix + ".giveaways.participants"

	// Economy metrics
	DailyClaimsTotal = MetricPrefix + ".economy.daily_claims_total"
	CoinsPaidTotal   = MetricPrefix + ".economy.coins_paid_total"
	TransfersTotal   = MetricPrefix + ".economy.transfers_total"
	BalanceTxTotal   = MetricPrefix + ".economy.balance_transactions_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelCommand   = "command"
	LabelOutcome   = "outcome"
	LabelTrigger   = "trigger"
)

// Outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
