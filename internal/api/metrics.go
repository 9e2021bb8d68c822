package api

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/AaronLay10/SentientSignals/internal/events"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
	"github.com/AaronLay10/SentientSignals/internal/version"
)

var (
	metricsState = &MetricsState{}
)

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu         sync.RWMutex
	startTime  time.Time
	city       string
	staleFeeds func() []string
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
}

// SetCity sets the city name used in metric labels and alerts.
func SetCity(name string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.city = name
}

// GetCity returns the current city name.
func GetCity() string {
	metricsState.mu.RLock()
	defer metricsState.mu.RUnlock()
	return metricsState.city
}

// SetStaleFeedSource registers the function reporting stale reading feeds.
func SetStaleFeedSource(fn func() []string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.staleFeeds = fn
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	metricsState.mu.RLock()
	startTime := metricsState.startTime
	city := metricsState.city
	staleFeeds := metricsState.staleFeeds
	metricsState.mu.RUnlock()

	readiness.mu.RLock()
	mqttConnected := readiness.mqttConnected
	postgresConnected := readiness.postgresConnected
	readiness.mu.RUnlock()

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	header := func(name, mtype, help string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
	}
	sample := func(name, labels string, value interface{}) {
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}
	writeMetric := func(name, mtype, help string, value interface{}, labels string) {
		header(name, mtype, help)
		sample(name, labels, value)
	}

	labels := fmt.Sprintf(`city="%s",instance="%s",version="%s"`, city, hostname, version.Version)

	writeMetric("signals_uptime_seconds", "gauge",
		"Number of seconds since the service started", time.Since(startTime).Seconds(), labels)

	writeMetric("signals_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount(), labels)

	header("signals_events_by_name_total", "counter", "Events emitted since startup by name")
	counts := events.Counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sample("signals_events_by_name_total", fmt.Sprintf(`%s,event="%s"`, labels, name), counts[name])
	}

	writeMetric("signals_mqtt_connected", "gauge",
		"Whether MQTT broker is connected (1) or not (0)", boolGauge(mqttConnected), labels)

	writeMetric("signals_postgres_connected", "gauge",
		"Whether PostgreSQL is connected (1) or not (0)", boolGauge(postgresConnected), labels)

	writeMetric("signals_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount(), labels)

	writeMetric("signals_ws_dropped_events_total", "counter",
		"Events skipped because a WebSocket client fell behind", events.DroppedCount(), labels)

	if staleFeeds != nil {
		writeMetric("signals_stale_feeds", "gauge",
			"Intersections whose reading feed has gone quiet", len(staleFeeds()), labels)
	}

	if service == nil {
		return
	}
	status := service.GetNetworkStatus()

	writeMetric("signals_network_avg_congestion_percent", "gauge",
		"Mean congestion across all intersections", status.AvgCongestion, labels)

	writeMetric("signals_network_avg_aqi", "gauge",
		"Mean local AQI across all intersections", status.AvgAQI, labels)

	writeMetric("signals_network_vehicles_queued", "gauge",
		"Vehicles queued across all approaches", status.TotalVehiclesQueued, labels)

	tiers := make(map[traffic.Priority]int)
	for _, s := range status.Intersections {
		tiers[s.Priority]++
	}
	header("signals_intersections", "gauge", "Intersections by priority tier")
	for _, p := range []traffic.Priority{traffic.PriorityLow, traffic.PriorityNormal, traffic.PriorityHigh, traffic.PriorityCritical} {
		sample("signals_intersections", fmt.Sprintf(`%s,priority="%s"`, labels, p), tiers[p])
	}
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}
