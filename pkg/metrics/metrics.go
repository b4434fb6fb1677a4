package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported by the put wall service
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Outbox metrics
	OutboxPending   prometheus.Gauge
	OutboxPublished *prometheus.CounterVec
	OutboxRetries   *prometheus.CounterVec

	// Temporal activity metrics
	ActivitiesCompleted *prometheus.CounterVec
	ActivityDuration    *prometheus.HistogramVec

	// Put wall business metrics
	OrdersAssigned      *prometheus.CounterVec
	ItemsPlaced         *prometheus.CounterVec
	OrdersConsolidated  *prometheus.CounterVec
	SlotsReleased       *prometheus.CounterVec
	CapacityRejections  *prometheus.CounterVec
	SortationScans      *prometheus.CounterVec
	ConcurrencyConflict *prometheus.CounterVec
	SlotsOccupied       *prometheus.GaugeVec
	SlotUtilization     *prometheus.GaugeVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec

	// Idempotency metrics
	IdempotencyRequests      *prometheus.CounterVec
	IdempotencyStorageErrors *prometheus.CounterVec
	MessagesConsumed         *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a Metrics instance backed by its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: name, Help: help},
			append([]string{"service"}, labels...))
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: name, Help: help, Buckets: buckets},
			append([]string{"service"}, labels...))
	}
	gaugeVec := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: name, Help: help},
			append([]string{"service"}, labels...))
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		})
	}

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,

		HTTPRequestsTotal: counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		HTTPRequestDuration: histogram("http_request_duration_seconds", "HTTP request duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}, "method", "path"),
		HTTPRequestsInFlight: gauge("http_requests_in_flight", "Number of HTTP requests currently being processed"),

		KafkaEventsPublished: counter("kafka_events_published_total", "Total number of Kafka events published", "topic", "event_type", "status"),
		KafkaPublishDuration: histogram("kafka_publish_duration_seconds", "Kafka publish duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}, "topic"),

		MongoDBOperations: counter("mongodb_operations_total", "Total number of MongoDB operations", "collection", "operation", "status"),
		MongoDBOperationDuration: histogram("mongodb_operation_duration_seconds", "MongoDB operation duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}, "collection", "operation"),

		OutboxPending:   gauge("outbox_pending_events", "Number of outbox events waiting to be published"),
		OutboxPublished: counter("outbox_events_published_total", "Total number of outbox events processed", "event_type", "status"),
		OutboxRetries:   counter("outbox_event_retries_total", "Total number of outbox publish retries", "event_type"),

		ActivitiesCompleted: counter("temporal_activities_completed_total", "Total number of Temporal activities completed", "activity_type", "status"),
		ActivityDuration: histogram("temporal_activity_duration_seconds", "Temporal activity duration in seconds",
			[]float64{.01, .05, .1, .5, 1, 5, 10, 30}, "activity_type"),

		OrdersAssigned:      counter("putwall_orders_assigned_total", "Orders assigned to a put wall slot", "put_wall"),
		ItemsPlaced:         counter("putwall_items_placed_total", "Units placed into put wall slots", "put_wall"),
		OrdersConsolidated:  counter("putwall_orders_consolidated_total", "Orders fully consolidated in a slot", "put_wall"),
		SlotsReleased:       counter("putwall_slots_released_total", "Slots released after pack-out", "put_wall"),
		CapacityRejections:  counter("putwall_capacity_rejections_total", "Assignments rejected because no slot was free", "put_wall"),
		SortationScans:      counter("putwall_sortation_scans_total", "Sortation scans by outcome", "put_wall", "outcome"),
		ConcurrencyConflict: counter("putwall_concurrency_conflicts_total", "Optimistic concurrency conflicts while saving a put wall", "operation"),
		SlotsOccupied:       gaugeVec("putwall_slots_occupied", "Slots currently holding an order", "put_wall"),
		SlotUtilization:     gaugeVec("putwall_slot_utilization_percent", "Occupied slots as a percentage of wall capacity", "put_wall"),

		CircuitBreakerState: gaugeVec("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)", "name"),
		CircuitBreakerTrips: counter("circuit_breaker_trips_total", "Total number of circuit breaker trips", "name"),

		IdempotencyRequests:      counter("idempotency_requests_total", "Requests carrying an Idempotency-Key by outcome", "method", "path", "outcome"),
		IdempotencyStorageErrors: counter("idempotency_storage_errors_total", "Idempotency storage failures", "operation"),
		MessagesConsumed:         counter("kafka_messages_consumed_total", "Kafka messages consumed by outcome", "topic", "event_type", "outcome"),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.OutboxPending,
		m.OutboxPublished,
		m.OutboxRetries,
		m.ActivitiesCompleted,
		m.ActivityDuration,
		m.OrdersAssigned,
		m.ItemsPlaced,
		m.OrdersConsolidated,
		m.SlotsReleased,
		m.CapacityRejections,
		m.SortationScans,
		m.ConcurrencyConflict,
		m.SlotsOccupied,
		m.SlotUtilization,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
		m.IdempotencyRequests,
		m.IdempotencyStorageErrors,
		m.MessagesConsumed,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of unpublished outbox events
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxPublish records the outcome of publishing one outbox event
func (m *Metrics) RecordOutboxPublish(eventType string, success bool) {
	m.OutboxPublished.WithLabelValues(m.serviceName, eventType, status(success)).Inc()
}

// RecordOutboxRetry records a failed attempt that will be retried
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

// RecordActivityCompleted records a Temporal activity completion
func (m *Metrics) RecordActivityCompleted(activityType string, success bool, duration time.Duration) {
	m.ActivitiesCompleted.WithLabelValues(m.serviceName, activityType, status(success)).Inc()
	m.ActivityDuration.WithLabelValues(m.serviceName, activityType).Observe(duration.Seconds())
}

// RecordOrderAssigned records an order taking a slot
func (m *Metrics) RecordOrderAssigned(wallID string) {
	m.OrdersAssigned.WithLabelValues(m.serviceName, wallID).Inc()
}

// RecordItemsPlaced records units put into a slot
func (m *Metrics) RecordItemsPlaced(wallID string, quantity int) {
	m.ItemsPlaced.WithLabelValues(m.serviceName, wallID).Add(float64(quantity))
}

// RecordOrderConsolidated records an order becoming complete in its slot
func (m *Metrics) RecordOrderConsolidated(wallID string) {
	m.OrdersConsolidated.WithLabelValues(m.serviceName, wallID).Inc()
}

// RecordSlotReleased records a slot returning to the free pool
func (m *Metrics) RecordSlotReleased(wallID string) {
	m.SlotsReleased.WithLabelValues(m.serviceName, wallID).Inc()
}

// RecordCapacityRejection records an assignment refused for lack of free slots
func (m *Metrics) RecordCapacityRejection(wallID string) {
	m.CapacityRejections.WithLabelValues(m.serviceName, wallID).Inc()
}

// RecordSortationScan records a scan and whether a target slot was found
func (m *Metrics) RecordSortationScan(wallID string, found bool) {
	outcome := "matched"
	if !found {
		outcome = "unmatched"
	}
	m.SortationScans.WithLabelValues(m.serviceName, wallID, outcome).Inc()
}

// RecordConcurrencyConflict records a version conflict on save
func (m *Metrics) RecordConcurrencyConflict(operation string) {
	m.ConcurrencyConflict.WithLabelValues(m.serviceName, operation).Inc()
}

// SetSlotOccupancy publishes how many of a wall's slots hold an order
func (m *Metrics) SetSlotOccupancy(wallID string, occupied, capacity int) {
	m.SlotsOccupied.WithLabelValues(m.serviceName, wallID).Set(float64(occupied))
	if capacity > 0 {
		m.SlotUtilization.WithLabelValues(m.serviceName, wallID).Set(float64(occupied) / float64(capacity) * 100)
	}
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}

// RecordIdempotency records how a keyed request was served: hit, miss, mismatch or conflict
func (m *Metrics) RecordIdempotency(method, path, outcome string) {
	m.IdempotencyRequests.WithLabelValues(m.serviceName, method, path, outcome).Inc()
}

// RecordIdempotencyStorageError records a failed idempotency store operation
func (m *Metrics) RecordIdempotencyStorageError(operation string) {
	m.IdempotencyStorageErrors.WithLabelValues(m.serviceName, operation).Inc()
}

// RecordMessageConsumed records a consumed message: processed, duplicate, skipped or failed
func (m *Metrics) RecordMessageConsumed(topic, eventType, outcome string) {
	m.MessagesConsumed.WithLabelValues(m.serviceName, topic, eventType, outcome).Inc()
}
