package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"guildbot/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the bot.
// A nil or disabled provider records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	commandsCounter           metric.Int64Counter
	giveawaysCreatedCounter   metric.Int64Counter
	giveawaysEndedCounter     metric.Int64Counter
	giveawaysRerolledCounter  metric.Int64Counter
	giveawaysCancelledCounter metric.Int64Counter
	participantsHist          metric.Int64Histogram
	dailyClaimsCounter        metric.Int64Counter
	coinsPaidCounter          metric.Int64Counter
	transfersCounter          metric.Int64Counter
	balanceTxCounter          metric.Int64Counter
	natsPublishedCounter      metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)

	if err := mp.initializeWithMeter(mp.meterProvider.Meter("guildbot")); err != nil {
		return err
	}

	log.Info("Metrics provider initialized successfully")
	return nil
}

// initializeWithMeter creates the instruments on meter and enables recording. Caller holds mu.
func (mp *MetricsProvider) initializeWithMeter(meter metric.Meter) error {
	mp.meter = meter
	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}
	mp.initialized = true
	mp.enabled = true
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&mp.commandsCounter, CommandsTotal, "Total number of slash commands handled", "1"},
		{&mp.giveawaysCreatedCounter, GiveawaysCreatedTotal, "Total number of giveaways created", "1"},
		{&mp.giveawaysEndedCounter, GiveawaysEndedTotal, "Total number of giveaways ended", "1"},
		{&mp.giveawaysRerolledCounter, GiveawaysRerolledTotal, "Total number of giveaway rerolls", "1"},
		{&mp.giveawaysCancelledCounter, GiveawaysCancelledTotal, "Total number of giveaways cancelled", "1"},
		{&mp.dailyClaimsCounter, DailyClaimsTotal, "Total number of daily claim attempts", "1"},
		{&mp.coinsPaidCounter, CoinsPaidTotal, "Total coins paid out by daily rewards", "{coin}"},
		{&mp.transfersCounter, TransfersTotal, "Total number of coin transfers", "1"},
		{&mp.balanceTxCounter, BalanceTxTotal, "Total number of balance transactions", "1"},
		{&mp.natsPublishedCounter, NATSMessagesPublishedTotal, "Total number of NATS messages published", "1"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	mp.participantsHist, err = mp.meter.Int64Histogram(
		GiveawayParticipants,
		metric.WithDescription("Number of participants when a giveaway ends"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	if err != nil {
		return fmt.Errorf("failed to create participants histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordCommand records a slash command invocation
func (mp *MetricsProvider) RecordCommand(command, outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.commandsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelCommand, command),
		attribute.String(LabelOutcome, outcome),
	))
}

// RecordGiveawayCreated records a new giveaway
func (mp *MetricsProvider) RecordGiveawayCreated() {
	if !mp.isEnabled() {
		return
	}
	mp.giveawaysCreatedCounter.Add(context.Background(), 1)
}

// RecordGiveawayEnded records a giveaway transitioning to ended
func (mp *MetricsProvider) RecordGiveawayEnded(trigger string, participants int) {
	if !mp.isEnabled() {
		return
	}
	attrs := metric.WithAttributes(attribute.String(LabelTrigger, trigger))
	mp.giveawaysEndedCounter.Add(context.Background(), 1, attrs)
	mp.participantsHist.Record(context.Background(), int64(participants), attrs)
}

// RecordGiveawayRerolled records a reroll attempt
func (mp *MetricsProvider) RecordGiveawayRerolled(rerolled bool) {
	if !mp.isEnabled() {
		return
	}
	outcome := OutcomeRejected
	if rerolled {
		outcome = OutcomeSuccess
	}
	mp.giveawaysRerolledCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelOutcome, outcome),
	))
}

// RecordGiveawayCancelled records a cancellation
func (mp *MetricsProvider) RecordGiveawayCancelled() {
	if !mp.isEnabled() {
		return
	}
	mp.giveawaysCancelledCounter.Add(context.Background(), 1)
}

// RecordDailyClaim records a daily claim attempt and the coins it paid
func (mp *MetricsProvider) RecordDailyClaim(outcome string, amount int64) {
	if !mp.isEnabled() {
		return
	}
	mp.dailyClaimsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelOutcome, outcome),
	))
	if amount > 0 {
		mp.coinsPaidCounter.Add(context.Background(), amount)
	}
}

// RecordTransfer records a coin transfer attempt
func (mp *MetricsProvider) RecordTransfer(outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.transfersCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelOutcome, outcome),
	))
}

// RecordBalanceTransaction records a balance transaction
func (mp *MetricsProvider) RecordBalanceTransaction(transactionType string) {
	if !mp.isEnabled() {
		return
	}
	mp.balanceTxCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelType, transactionType),
	))
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublishedCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelEventType, eventType),
	))
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}

var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	return globalMetrics.Shutdown(ctx)
}
