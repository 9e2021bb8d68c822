package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/AaronLay10/SentientSignals/internal/advisory"
	"github.com/AaronLay10/SentientSignals/internal/conflict"
	"github.com/AaronLay10/SentientSignals/internal/errors"
	"github.com/AaronLay10/SentientSignals/internal/events"
	"github.com/AaronLay10/SentientSignals/internal/greenwave"
	"github.com/AaronLay10/SentientSignals/internal/network"
	"github.com/AaronLay10/SentientSignals/internal/optimizer"
	"github.com/AaronLay10/SentientSignals/internal/roadnet"
	"github.com/AaronLay10/SentientSignals/internal/storage/postgres"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// Service is the signal coordination surface the HTTP handlers call.
type Service interface {
	UpdateIntersection(id string, queues traffic.Queues, avgSpeed, congestion float64, aqi int) error
	OptimizeSignalTiming(ctx context.Context, id string) (optimizer.TimingPlan, error)
	CoordinateGreenWave(ctx context.Context, ids []string, corridor string, targetSpeedKmh float64) (greenwave.Plan, error)
	CoordinateRoute(ctx context.Context, from, to, corridor string, targetSpeedKmh float64) (greenwave.Plan, roadnet.Route, error)
	DetectConflicts(id string) ([]conflict.Finding, error)
	GetCorridorStatus(ids []string) network.CorridorStatus
	GetNetworkStatus() network.NetworkStatus
	Intersection(id string) (*traffic.Intersection, error)
	GenerateSignalPlan(id string) (optimizer.SignalPlan, error)
	SpeedAdvisory(id string, freeFlowKmh float64) (advisory.Recommendation, error)
}

var service Service

// SetService sets the coordinator used by the signal endpoints.
func SetService(s Service) {
	service = s
}

// PlanHistory reads stored plans back.
type PlanHistory interface {
	RecentPlans(ctx context.Context, kind, subject string, limit int) ([]postgres.PlanRow, error)
}

var planHistory PlanHistory

// SetPlanHistory sets the store behind /intersections/{id}/plans. Nil
// disables the route.
func SetPlanHistory(h PlanHistory) {
	planHistory = h
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "signals",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	writeJSON(w, http.StatusOK, resp)
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, events.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: msg})
}

// writeServiceError maps coordinator errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.IsInvalidArgument(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("api: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// withService rejects requests until a coordinator is configured.
func withService(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if service == nil {
			writeError(w, http.StatusServiceUnavailable, "coordinator not ready")
			return
		}
		handler(w, r)
	}
}

// NewMux builds the route table. Read routes accept any role, mutating
// routes need engineer or admin.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler)
	mux.HandleFunc("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /events", RequireAnyRole(eventsHandler))
	mux.HandleFunc("GET /ws/events", RequireAnyRole(wsEventsHandler))

	mux.HandleFunc("GET /network", RequireAnyRole(withService(networkHandler)))
	mux.HandleFunc("POST /corridor/status", RequireAnyRole(withService(corridorStatusHandler)))
	mux.HandleFunc("GET /intersections/{id}", RequireAnyRole(withService(intersectionHandler)))
	mux.HandleFunc("GET /intersections/{id}/conflicts", RequireAnyRole(withService(conflictsHandler)))
	mux.HandleFunc("GET /intersections/{id}/plan", RequireAnyRole(withService(signalPlanHandler)))
	mux.HandleFunc("GET /intersections/{id}/plans", RequireAnyRole(withService(planHistoryHandler)))
	mux.HandleFunc("GET /intersections/{id}/advisory", RequireAnyRole(withService(advisoryHandler)))

	mux.HandleFunc("POST /intersections/{id}/readings", RequireEngineer(withService(readingHandler)))
	mux.HandleFunc("POST /intersections/{id}/optimize", RequireEngineer(withService(optimizeHandler)))
	mux.HandleFunc("POST /greenwave", RequireEngineer(withService(greenWaveHandler)))
	return mux
}

// NewServer builds the HTTP server, with TLS when configured.
func NewServer(port int) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg := LoadTLSConfig(); cfg != nil {
		srv.TLSConfig = cfg
	}
	return srv
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if srv.TLSConfig != nil {
			log.Printf("API listening on %s (TLS)", srv.Addr)
			err = srv.ListenAndServeTLS("", "")
		} else {
			log.Printf("API listening on %s", srv.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events.CloseAllSubscribers()
	return srv.Shutdown(shutdownCtx)
}
