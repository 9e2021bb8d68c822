package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AaronLay10/SentientSignals/internal/greenwave"
	"github.com/AaronLay10/SentientSignals/internal/roadnet"
	"github.com/AaronLay10/SentientSignals/internal/storage/postgres"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// DefaultFreeFlowKmh is used by /advisory when free_flow_kmh is absent.
const DefaultFreeFlowKmh = 50.0

// ReadingRequest is the body of POST /intersections/{id}/readings.
type ReadingRequest struct {
	Queues struct {
		North int `json:"north"`
		South int `json:"south"`
		East  int `json:"east"`
		West  int `json:"west"`
	} `json:"queues"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
	Congestion  float64 `json:"congestion_percent"`
	AQI         int     `json:"aqi"`
}

func (r ReadingRequest) validate() string {
	q := r.Queues
	switch {
	case q.North < 0 || q.South < 0 || q.East < 0 || q.West < 0:
		return "queues must be non-negative"
	case r.AvgSpeedKmh < 0:
		return "avg_speed_kmh must be non-negative"
	case r.Congestion < 0:
		return "congestion_percent must be non-negative"
	case r.AQI < 0:
		return "aqi must be non-negative"
	}
	return ""
}

// CorridorRequest is the body of POST /corridor/status.
type CorridorRequest struct {
	IntersectionIDs []string `json:"intersection_ids"`
}

// GreenWaveRequest is the body of POST /greenwave. Either IntersectionIDs or
// From and To must be set; From/To routes over the road network.
type GreenWaveRequest struct {
	IntersectionIDs []string `json:"intersection_ids"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	CorridorName    string   `json:"corridor_name"`
	TargetSpeedKmh  float64  `json:"target_speed_kmh"`
}

// GreenWaveResponse is a green-wave plan plus the route it was built on.
type GreenWaveResponse struct {
	greenwave.Plan
	Route *roadnet.Route `json:"route,omitempty"`
}

func networkHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, service.GetNetworkStatus())
}

func corridorStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req CorridorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeJSON(w, http.StatusOK, service.GetCorridorStatus(req.IntersectionIDs))
}

func intersectionHandler(w http.ResponseWriter, r *http.Request) {
	ix, err := service.Intersection(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ix)
}

func readingHandler(w http.ResponseWriter, r *http.Request) {
	var req ReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	id := r.PathValue("id")
	queues := traffic.Queues{
		North: req.Queues.North,
		South: req.Queues.South,
		East:  req.Queues.East,
		West:  req.Queues.West,
	}
	if err := service.UpdateIntersection(id, queues, req.AvgSpeedKmh, req.Congestion, req.AQI); err != nil {
		writeServiceError(w, err)
		return
	}

	ix, err := service.Intersection(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ix)
}

func optimizeHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := service.OptimizeSignalTiming(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func conflictsHandler(w http.ResponseWriter, r *http.Request) {
	findings, err := service.DetectConflicts(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, findings)
}

func signalPlanHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := service.GenerateSignalPlan(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// planHistoryHandler lists stored timing plans for one intersection, newest
// first.
func planHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if planHistory == nil {
		writeError(w, http.StatusServiceUnavailable, "plan history not configured")
		return
	}
	id := r.PathValue("id")
	if _, err := service.Intersection(id); err != nil {
		writeServiceError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	plans, err := planHistory.RecentPlans(r.Context(), postgres.KindTiming, id, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if plans == nil {
		plans = []postgres.PlanRow{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func advisoryHandler(w http.ResponseWriter, r *http.Request) {
	freeFlow := DefaultFreeFlowKmh
	if raw := r.URL.Query().Get("free_flow_kmh"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "free_flow_kmh must be a number")
			return
		}
		freeFlow = v
	}

	rec, err := service.SpeedAdvisory(r.PathValue("id"), freeFlow)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func greenWaveHandler(w http.ResponseWriter, r *http.Request) {
	var req GreenWaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.From != "" || req.To != "" {
		plan, route, err := service.CoordinateRoute(r.Context(), req.From, req.To, req.CorridorName, req.TargetSpeedKmh)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, GreenWaveResponse{Plan: plan, Route: &route})
		return
	}

	plan, err := service.CoordinateGreenWave(r.Context(), req.IntersectionIDs, req.CorridorName, req.TargetSpeedKmh)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GreenWaveResponse{Plan: plan})
}
