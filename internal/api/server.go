// internal/api/server.go

// Package api exposes the engine over JSON HTTP. Request payloads are
// checked against JSON schemas before decoding; engine errors map onto
// status codes through the shared responder.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	stderrors "vendoreval-engine/internal/common/errors"
	"vendoreval-engine/internal/common/logger"
	"vendoreval-engine/internal/common/observability"
	"vendoreval-engine/internal/engine/dashboard"
	"vendoreval-engine/internal/engine/ledger"
	"vendoreval-engine/internal/engine/roi"
	"vendoreval-engine/internal/engine/sensitivity"
	"vendoreval-engine/internal/engine/tco"
)

type Server struct {
	ledger      *ledger.Service
	tco         *tco.Service
	sensitivity *sensitivity.Service
	roi         *roi.Service
	dashboard   *dashboard.Service
	responder   *stderrors.Responder
	obs         *observability.Observability
	logger      logger.Logger
}

func NewServer(ledgerSvc *ledger.Service, tcoSvc *tco.Service, sensitivitySvc *sensitivity.Service,
	roiSvc *roi.Service, dashboardSvc *dashboard.Service, obs *observability.Observability, log logger.Logger) *Server {
	apiLog := log.WithFields(map[string]interface{}{"component": "api"})
	return &Server{
		ledger:      ledgerSvc,
		tco:         tcoSvc,
		sensitivity: sensitivitySvc,
		roi:         roiSvc,
		dashboard:   dashboardSvc,
		responder:   stderrors.NewResponder(apiLog),
		obs:         obs,
		logger:      apiLog,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/cost-entries", s.instrument("create_cost_entry", s.handleCreateCostEntry))
	mux.HandleFunc("GET /api/v1/cost-entries", s.instrument("list_cost_entries", s.handleListCostEntries))
	mux.HandleFunc("PATCH /api/v1/cost-entries/{id}", s.instrument("update_cost_entry", s.handleUpdateCostEntry))
	mux.HandleFunc("DELETE /api/v1/cost-entries/{id}", s.instrument("delete_cost_entry", s.handleDeleteCostEntry))

	mux.HandleFunc("POST /api/v1/projects/{projectId}/vendors/{vendorId}/tco", s.instrument("calculate_tco", s.handleCalculateTCO))
	mux.HandleFunc("POST /api/v1/projects/{projectId}/tco", s.instrument("calculate_all_tco", s.handleCalculateAllTCO))
	mux.HandleFunc("GET /api/v1/projects/{projectId}/tco", s.instrument("list_tco", s.handleListTCO))

	mux.HandleFunc("POST /api/v1/projects/{projectId}/scenarios", s.instrument("create_scenario", s.handleCreateScenario))
	mux.HandleFunc("GET /api/v1/projects/{projectId}/scenarios", s.instrument("list_scenarios", s.handleListScenarios))
	mux.HandleFunc("POST /api/v1/scenarios/{scenarioId}/run", s.instrument("run_scenario", s.handleRunScenario))

	mux.HandleFunc("POST /api/v1/projects/{projectId}/vendors/{vendorId}/roi", s.instrument("calculate_roi", s.handleCalculateROI))
	mux.HandleFunc("GET /api/v1/projects/{projectId}/vendors/{vendorId}/roi", s.instrument("get_roi", s.handleGetROI))

	mux.HandleFunc("GET /api/v1/projects/{projectId}/dashboard", s.instrument("get_dashboard", s.handleGetDashboard))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

// instrument wraps a handler with request logging and otel metrics.
func (s *Server) instrument(operation string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		handler(recorder, r)

		duration := time.Since(start)
		status := "success"
		if recorder.status >= http.StatusBadRequest {
			status = "error"
		}
		if s.obs != nil {
			s.obs.RecordRequest(r.Context(), operation, status)
			s.obs.RecordRequestDuration(r.Context(), operation, duration)
		}
		s.logger.Info("request handled", map[string]interface{}{
			"operation":  operation,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     recorder.status,
			"durationMs": duration.Milliseconds(),
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
