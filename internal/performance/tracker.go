package performance

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Efficiency baselines
const (
	OptimalUtilizationPercent = 85.0
	BaselineOrdersPerHour     = 50.0

	orderStartRetention = 24 * time.Hour
)

// WallMetrics are the KPIs tracked for one put wall
type WallMetrics struct {
	PutWallID                     string    `json:"putWallId"`
	TotalOrdersProcessed          int       `json:"totalOrdersProcessed"`
	TotalItemsPlaced              int       `json:"totalItemsPlaced"`
	AverageOrderCompletionMinutes float64   `json:"averageOrderCompletionTimeMinutes"`
	ThroughputOrdersPerHour       float64   `json:"throughputOrdersPerHour"`
	UtilizationPercentage         float64   `json:"utilizationPercentage"`
	CurrentActiveOrders           int       `json:"currentActiveOrders"`
	TrackingSince                 time.Time `json:"trackingSince"`
	LastUpdated                   time.Time `json:"lastUpdated"`
}

// Report is a WallMetrics snapshot scored against the baselines
type Report struct {
	WallMetrics
	EfficiencyScore float64 `json:"efficiencyScore"`
	Recommendations string  `json:"recommendations"`
}

// Tracker keeps per-wall KPIs in memory. It is safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	metrics     map[string]*WallMetrics
	orderStarts map[string]time.Time
	now         func() time.Time
}

// NewTracker creates an empty Tracker
func NewTracker() *Tracker {
	return &Tracker{
		metrics:     make(map[string]*WallMetrics),
		orderStarts: make(map[string]time.Time),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (t *Tracker) getOrCreate(wallID string) *WallMetrics {
	m, ok := t.metrics[wallID]
	if !ok {
		now := t.now()
		m = &WallMetrics{PutWallID: wallID, TrackingSince: now, LastUpdated: now}
		t.metrics[wallID] = m
	}
	return m
}

// RecordOrderAssignment counts an active order and starts its completion clock
func (t *Tracker) RecordOrderAssignment(wallID, orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.getOrCreate(wallID)
	m.CurrentActiveOrders++
	m.LastUpdated = t.now()
	t.orderStarts[orderID] = m.LastUpdated
}

// RecordItemPlacement counts one accepted put
func (t *Tracker) RecordItemPlacement(wallID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.getOrCreate(wallID)
	m.TotalItemsPlaced++
	m.LastUpdated = t.now()
}

// RecordOrderCompletion folds the order's elapsed whole minutes into the
// running average. An order whose start was never seen counts as zero minutes.
func (t *Tracker) RecordOrderCompletion(wallID, orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var minutes float64
	if start, ok := t.orderStarts[orderID]; ok {
		minutes = math.Floor(now.Sub(start).Minutes())
		delete(t.orderStarts, orderID)
	}

	m := t.getOrCreate(wallID)
	m.TotalOrdersProcessed++
	if m.CurrentActiveOrders > 0 {
		m.CurrentActiveOrders--
	}
	n := float64(m.TotalOrdersProcessed)
	m.AverageOrderCompletionMinutes = (m.AverageOrderCompletionMinutes*(n-1) + minutes) / n
	m.LastUpdated = now
}

// UpdateUtilization sets utilization to active/total percent. A zero total is ignored.
func (t *Tracker) UpdateUtilization(wallID string, active, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.getOrCreate(wallID)
	if total > 0 {
		m.UtilizationPercentage = float64(active) / float64(total) * 100
	}
	m.LastUpdated = t.now()
}

// UpdateThroughput sets orders per hour over window, counted in whole hours.
// Windows shorter than an hour leave the value unchanged.
func (t *Tracker) UpdateThroughput(wallID string, window time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.getOrCreate(wallID)
	if hours := math.Floor(window.Hours()); hours > 0 {
		m.ThroughputOrdersPerHour = float64(m.TotalOrdersProcessed) / hours
	}
	m.LastUpdated = t.now()
}

// RefreshThroughput recomputes throughput over the time the wall has been tracked
func (t *Tracker) RefreshThroughput(wallID string) {
	t.mu.Lock()
	window := t.now().Sub(t.getOrCreate(wallID).TrackingSince)
	t.mu.Unlock()

	t.UpdateThroughput(wallID, window)
}

// Metrics returns a copy of the wall's KPIs
func (t *Tracker) Metrics(wallID string) (WallMetrics, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.metrics[wallID]
	if !ok {
		return WallMetrics{}, false
	}
	return *m, true
}

// AllMetrics returns copies of every tracked wall's KPIs ordered by wall id
func (t *Tracker) AllMetrics() []WallMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]WallMetrics, 0, len(t.metrics))
	for _, m := range t.metrics {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PutWallID < out[j].PutWallID })
	return out
}

// Clear forgets the wall and drops order start times older than a day
func (t *Tracker) Clear(wallID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.metrics, wallID)
	cutoff := t.now().Add(-orderStartRetention)
	for orderID, start := range t.orderStarts {
		if start.Before(cutoff) {
			delete(t.orderStarts, orderID)
		}
	}
}

// PerformanceReport scores the wall. Untracked walls start tracking with zeroed KPIs.
func (t *Tracker) PerformanceReport(wallID string) Report {
	t.mu.Lock()
	m := *t.getOrCreate(wallID)
	t.mu.Unlock()

	return Report{
		WallMetrics:     m,
		EfficiencyScore: EfficiencyScore(m),
		Recommendations: Recommendations(m),
	}
}

// EfficiencyScore averages utilization against the optimum and throughput
// against the baseline, each capped at 1, as a percentage
func EfficiencyScore(m WallMetrics) float64 {
	utilization := math.Min(m.UtilizationPercentage/OptimalUtilizationPercent, 1)
	throughput := math.Min(m.ThroughputOrdersPerHour/BaselineOrdersPerHour, 1)
	return (utilization + throughput) / 2 * 100
}

// Recommendations lists operator advice for m
func Recommendations(m WallMetrics) string {
	var advice []string

	switch {
	case m.UtilizationPercentage > 90:
		advice = append(advice, "High utilization detected - consider adding more put walls.")
	case m.UtilizationPercentage < 50:
		advice = append(advice, "Low utilization - review order assignment strategy.")
	}
	if m.AverageOrderCompletionMinutes > 30 {
		advice = append(advice, "Long completion times - review picking efficiency.")
	}
	if m.ThroughputOrdersPerHour < 20 {
		advice = append(advice, "Low throughput - analyze bottlenecks in the sortation process.")
	}

	if len(advice) == 0 {
		return "Performance is within acceptable ranges."
	}
	return strings.Join(advice, " ")
}
