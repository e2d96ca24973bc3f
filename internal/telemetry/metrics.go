package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/koradi/koradi-admin"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Listener metrics
	SessionsAcceptedTotal    metric.Int64Counter
	ActiveSessions           metric.Int64UpDownCounter
	HandshakesRejectedTotal  metric.Int64Counter
	SessionsForceClosedTotal metric.Int64Counter

	// HTTP metrics
	RequestDuration metric.Float64Histogram

	// Content mutation metrics
	EngagementMutationsTotal  metric.Int64Counter
	TranslationMutationsTotal metric.Int64Counter
	RosterMutationsTotal      metric.Int64Counter

	// Backup metrics
	BackupRunsTotal   metric.Int64Counter
	BackupErrorsTotal metric.Int64Counter
	BackupDuration    metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// Listener metrics
	m.SessionsAcceptedTotal, _ = meter.Int64Counter(
		"koradi.sessions.accepted.total",
		metric.WithDescription("Total number of TLS sessions accepted after a completed handshake"),
		metric.WithUnit("{session}"),
	)

	m.ActiveSessions, _ = meter.Int64UpDownCounter(
		"koradi.sessions.active",
		metric.WithDescription("Number of established sessions currently tracked by the listener"),
		metric.WithUnit("{session}"),
	)

	m.HandshakesRejectedTotal, _ = meter.Int64Counter(
		"koradi.handshakes.rejected.total",
		metric.WithDescription("Total number of TLS handshakes that failed or timed out"),
		metric.WithUnit("{handshake}"),
	)

	m.SessionsForceClosedTotal, _ = meter.Int64Counter(
		"koradi.sessions.force_closed.total",
		metric.WithDescription("Total number of sessions force-closed when the drain grace expired"),
		metric.WithUnit("{session}"),
	)

	// HTTP metrics
	m.RequestDuration, _ = meter.Float64Histogram(
		"koradi.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	// Content mutation metrics
	m.EngagementMutationsTotal, _ = meter.Int64Counter(
		"koradi.engagements.mutations.total",
		metric.WithDescription("Total number of engagement create, update and delete operations"),
		metric.WithUnit("{mutation}"),
	)

	m.TranslationMutationsTotal, _ = meter.Int64Counter(
		"koradi.translations.mutations.total",
		metric.WithDescription("Total number of translation create, update and delete operations"),
		metric.WithUnit("{mutation}"),
	)

	m.RosterMutationsTotal, _ = meter.Int64Counter(
		"koradi.rosters.mutations.total",
		metric.WithDescription("Total number of roster add and remove operations"),
		metric.WithUnit("{mutation}"),
	)

	// Backup metrics
	m.BackupRunsTotal, _ = meter.Int64Counter(
		"koradi.backup.runs.total",
		metric.WithDescription("Total number of backup archives written"),
		metric.WithUnit("{run}"),
	)

	m.BackupErrorsTotal, _ = meter.Int64Counter(
		"koradi.backup.errors.total",
		metric.WithDescription("Total number of backup runs that failed after retries"),
		metric.WithUnit("{error}"),
	)

	m.BackupDuration, _ = meter.Float64Histogram(
		"koradi.backup.duration",
		metric.WithDescription("Duration of backup runs"),
		metric.WithUnit("ms"),
	)

	return m
}
