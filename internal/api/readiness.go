package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// readinessState tracks what /ready reports. The catalog is always required;
// MQTT and Postgres can be marked optional when the service runs without them.
type readinessState struct {
	mu                sync.RWMutex
	catalogLoaded     bool
	mqttConnected     bool
	mqttOptional      bool
	postgresConnected bool
	postgresOptional  bool
}

var readiness = &readinessState{}

// CheckStatus is the state of one readiness dependency.
type CheckStatus struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
}

// ReadinessResponse is the /ready body.
type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckStatus `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

// SetCatalogLoaded marks the intersection catalog as loaded.
func SetCatalogLoaded(loaded bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.catalogLoaded = loaded
}

// SetMQTTState records broker connectivity and whether it gates readiness.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
}

// SetPostgresState records database connectivity and whether it gates readiness.
func SetPostgresState(connected, optional bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.postgresConnected = connected
	readiness.postgresOptional = optional
}

func dependencyCheck(connected, optional bool) (CheckStatus, bool) {
	switch {
	case connected:
		return CheckStatus{Status: "ok", Optional: optional}, true
	case optional:
		return CheckStatus{Status: "unavailable", Optional: true}, true
	default:
		return CheckStatus{Status: "not_ready"}, false
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	catalogLoaded := readiness.catalogLoaded
	mqttConnected, mqttOptional := readiness.mqttConnected, readiness.mqttOptional
	pgConnected, pgOptional := readiness.postgresConnected, readiness.postgresOptional
	readiness.mu.RUnlock()

	resp := ReadinessResponse{Ready: true, Checks: make(map[string]CheckStatus, 3)}
	var reasons []string

	if catalogLoaded {
		resp.Checks["catalog"] = CheckStatus{Status: "ok"}
	} else {
		resp.Checks["catalog"] = CheckStatus{Status: "not_ready"}
		reasons = append(reasons, "catalog not loaded")
	}

	check, ok := dependencyCheck(mqttConnected, mqttOptional)
	resp.Checks["mqtt"] = check
	if !ok {
		reasons = append(reasons, "mqtt not connected")
	}

	check, ok = dependencyCheck(pgConnected, pgOptional)
	resp.Checks["postgres"] = check
	if !ok {
		reasons = append(reasons, "postgres not connected")
	}

	w.Header().Set("Content-Type", "application/json")
	if len(reasons) > 0 {
		resp.Ready = false
		resp.NotReadyMsg = strings.Join(reasons, "; ")
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
