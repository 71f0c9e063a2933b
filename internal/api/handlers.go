// internal/api/handlers.go
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	stderrors "vendoreval-engine/internal/common/errors"
	"vendoreval-engine/internal/engine/roi"
	"vendoreval-engine/internal/engine/tco"
	"vendoreval-engine/internal/models"
)

const maxBodyBytes = 1 << 20

// readBody reads and schema-checks a request body, then decodes it into dst.
func readBody(r *http.Request, schema *gojsonschema.Schema, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return stderrors.NewValidationError("unreadable request body")
	}
	if len(body) == 0 {
		body = []byte(`{}`)
	}
	if err := validateBody(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return stderrors.NewValidationError("malformed JSON body")
	}
	return nil
}

// ==========================
// 1. Cost Ledger
// ==========================

func (s *Server) handleCreateCostEntry(w http.ResponseWriter, r *http.Request) {
	var entry models.CostEntry
	if err := readBody(r, costEntrySchema, &entry); err != nil {
		s.responder.Respond(w, err)
		return
	}

	created, err := s.ledger.Create(r.Context(), &entry)
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCostEntries(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	vendorID := r.URL.Query().Get("vendorId")

	entries, err := s.ledger.List(r.Context(), projectID, vendorID)
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	if entries == nil {
		entries = []*models.CostEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleUpdateCostEntry(w http.ResponseWriter, r *http.Request) {
	var patch models.CostEntryPatch
	if err := readBody(r, costEntryPatchSchema, &patch); err != nil {
		s.responder.Respond(w, err)
		return
	}

	updated, err := s.ledger.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCostEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.responder.Respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// 2. TCO
// ==========================

type tcoOptionsRequest struct {
	Years        int     `json:"years"`
	DiscountRate float64 `json:"discountRate"`
	TotalUsers   int     `json:"totalUsers"`
}

func (req tcoOptionsRequest) toOptions() tco.Options {
	return tco.Options{
		Years:        req.Years,
		DiscountRate: req.DiscountRate,
		TotalUsers:   req.TotalUsers,
	}
}

func (s *Server) handleCalculateTCO(w http.ResponseWriter, r *http.Request) {
	var req tcoOptionsRequest
	if err := readBody(r, tcoOptionsSchema, &req); err != nil {
		s.responder.Respond(w, err)
		return
	}

	summary, err := s.tco.Calculate(r.Context(), r.PathValue("projectId"), r.PathValue("vendorId"), req.toOptions())
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCalculateAllTCO(w http.ResponseWriter, r *http.Request) {
	var req tcoOptionsRequest
	if err := readBody(r, tcoOptionsSchema, &req); err != nil {
		s.responder.Respond(w, err)
		return
	}

	result, err := s.tco.CalculateAll(r.Context(), r.PathValue("projectId"), req.toOptions())
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTCO(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.tco.ListSummaries(r.Context(), r.PathValue("projectId"))
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	if summaries == nil {
		summaries = []*models.TCOSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// ==========================
// 3. Sensitivity
// ==========================

type createScenarioRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Adjustments []models.Adjustment `json:"adjustments"`
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req createScenarioRequest
	if err := readBody(r, scenarioSchema, &req); err != nil {
		s.responder.Respond(w, err)
		return
	}

	scenario, err := s.sensitivity.CreateScenario(r.Context(), r.PathValue("projectId"), req.Name, req.Description, req.Adjustments)
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scenario)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.sensitivity.ListScenarios(r.Context(), r.PathValue("projectId"))
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	if scenarios == nil {
		scenarios = []*models.SensitivityScenario{}
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (s *Server) handleRunScenario(w http.ResponseWriter, r *http.Request) {
	scenario, err := s.sensitivity.Run(r.Context(), r.PathValue("scenarioId"))
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

// ==========================
// 4. ROI
// ==========================

type roiRequest struct {
	BenefitBreakdown []models.BenefitItem `json:"benefitBreakdown"`
	RiskAdjustment   float64              `json:"riskAdjustment"`
	MethodologyNotes string               `json:"methodologyNotes"`
}

func (s *Server) handleCalculateROI(w http.ResponseWriter, r *http.Request) {
	var req roiRequest
	if err := readBody(r, roiSchema, &req); err != nil {
		s.responder.Respond(w, err)
		return
	}

	calc, err := s.roi.Calculate(r.Context(), r.PathValue("projectId"), r.PathValue("vendorId"), roi.Input{
		BenefitBreakdown: req.BenefitBreakdown,
		RiskAdjustment:   req.RiskAdjustment,
		MethodologyNotes: req.MethodologyNotes,
	})
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (s *Server) handleGetROI(w http.ResponseWriter, r *http.Request) {
	calc, err := s.roi.Get(r.Context(), r.PathValue("projectId"), r.PathValue("vendorId"))
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

// ==========================
// 5. Dashboard
// ==========================

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := s.dashboard.Get(r.Context(), r.PathValue("projectId"))
	if err != nil {
		s.responder.Respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
