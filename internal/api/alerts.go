package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

// Alert severity levels
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Alert event types
const (
	AlertMQTTDisconnected    = "mqtt_disconnected"
	AlertPostgresUnavailable = "postgres_unavailable"
	AlertCriticalConflict    = "critical_conflict"
)

// AlertPayload is the JSON structure sent to the webhook.
type AlertPayload struct {
	City      string                 `json:"city"`
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// connectionWatch raises an alert once a dependency has been down for
// longer than delay, and a recovery notice when it comes back.
type connectionWatch struct {
	event     string
	severity  string
	label     string
	delay     time.Duration
	downSince time.Time
	alerted   bool
	lastUp    bool
}

var (
	alertMu      sync.Mutex
	webhookURL   string
	alertsActive bool
	httpClient   = &http.Client{Timeout: 10 * time.Second}

	mqttWatch = &connectionWatch{
		event: AlertMQTTDisconnected, severity: SeverityWarning,
		label: "MQTT broker", delay: 30 * time.Second, lastUp: true,
	}
	postgresWatch = &connectionWatch{
		event: AlertPostgresUnavailable, severity: SeverityCritical,
		label: "PostgreSQL", delay: 5 * time.Second, lastUp: true,
	}
)

// InitAlerts initializes the alert system from environment variables.
func InitAlerts() {
	alertMu.Lock()
	defer alertMu.Unlock()

	webhookURL = os.Getenv("SIGNAL_ALERT_WEBHOOK_URL")

	if d, err := time.ParseDuration(os.Getenv("SIGNAL_MQTT_ALERT_DELAY")); err == nil {
		mqttWatch.delay = d
	}
	if d, err := time.ParseDuration(os.Getenv("SIGNAL_POSTGRES_ALERT_DELAY")); err == nil {
		postgresWatch.delay = d
	}

	if webhookURL != "" {
		log.Printf("Alerts enabled: webhook URL configured (mqtt_delay=%s, pg_delay=%s)",
			mqttWatch.delay, postgresWatch.delay)
	}

	for _, cw := range []*connectionWatch{mqttWatch, postgresWatch} {
		cw.downSince = time.Time{}
		cw.alerted = false
		cw.lastUp = true
	}
	alertsActive = true
}

// GetAlertWebhookURL returns the configured webhook URL (for testing).
func GetAlertWebhookURL() string {
	alertMu.Lock()
	defer alertMu.Unlock()
	return webhookURL
}

// SendAlert sends an alert to the configured webhook (best-effort, non-blocking).
func SendAlert(event, severity, message string, details map[string]interface{}) {
	alertMu.Lock()
	url := webhookURL
	alertMu.Unlock()

	if url == "" {
		log.Printf("[ALERT] %s severity=%s msg=%q details=%v", event, severity, message, details)
		return
	}

	city := GetCity()
	if city == "" {
		city = "unknown"
	}

	payload := AlertPayload{
		City:      city,
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Severity:  severity,
		Message:   message,
		Details:   details,
	}

	go sendWebhook(url, payload)
}

// SendConflictAlert raises a critical_conflict alert. details carries the
// finding type and the intersection.
func SendConflictAlert(severity, message string, details map[string]interface{}) {
	SendAlert(AlertCriticalConflict, severity, message, details)
}

func sendWebhook(url string, payload AlertPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("alert: failed to marshal payload: %v", err)
		return
	}

	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("alert: webhook POST failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("alert: webhook returned status %d", resp.StatusCode)
	}
}

// observe updates the watch and reports whether an alert should fire.
// Caller holds alertMu.
func (cw *connectionWatch) observe(up bool, now time.Time) (fire bool, severity, message string, details map[string]interface{}) {
	if up {
		recovered := !cw.lastUp && cw.alerted
		cw.downSince = time.Time{}
		cw.alerted = false
		cw.lastUp = true
		if recovered {
			return true, SeverityInfo, cw.label + " connection restored", map[string]interface{}{
				"recovered_at": now.UTC().Format(time.RFC3339),
			}
		}
		return false, "", "", nil
	}

	if cw.lastUp {
		cw.downSince = now
	}
	cw.lastUp = false

	down := now.Sub(cw.downSince)
	if cw.alerted || down < cw.delay {
		return false, "", "", nil
	}
	cw.alerted = true
	return true, cw.severity, cw.label + " unavailable", map[string]interface{}{
		"disconnected_since":   cw.downSince.UTC().Format(time.RFC3339),
		"disconnected_seconds": int(down.Seconds()),
	}
}

func checkAndAlert(cw *connectionWatch, up bool) bool {
	alertMu.Lock()
	if !alertsActive {
		alertMu.Unlock()
		return false
	}
	fire, severity, message, details := cw.observe(up, time.Now())
	alertMu.Unlock()

	if fire {
		SendAlert(cw.event, severity, message, details)
	}
	return fire
}

// CheckAndAlertMQTT alerts once MQTT has been down longer than its delay.
// Returns true when an alert or recovery notice was sent.
func CheckAndAlertMQTT(connected bool) bool {
	return checkAndAlert(mqttWatch, connected)
}

// CheckAndAlertPostgres alerts once Postgres has been down longer than its delay.
func CheckAndAlertPostgres(connected bool) bool {
	return checkAndAlert(postgresWatch, connected)
}

// StartAlertMonitor periodically checks connection states until ctx is done.
func StartAlertMonitor(ctx context.Context, checkInterval time.Duration) {
	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			readiness.mu.RLock()
			mqttConnected := readiness.mqttConnected
			postgresConnected := readiness.postgresConnected
			readiness.mu.RUnlock()

			CheckAndAlertMQTT(mqttConnected)
			CheckAndAlertPostgres(postgresConnected)
		}
	}()
}
