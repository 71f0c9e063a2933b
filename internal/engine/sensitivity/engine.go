// internal/engine/sensitivity/engine.go

// Package sensitivity applies named what-if adjustments to category-matched
// cost subsets, recomputes adjusted vendor totals, and detects ranking and
// recommendation flips against the stored TCO baseline.
package sensitivity

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"strconv"

	stderrors "vendoreval-engine/internal/common/errors"
	"vendoreval-engine/internal/common/logger"
	"vendoreval-engine/internal/common/metrics"
	"vendoreval-engine/internal/models"
	"vendoreval-engine/internal/store"
	"vendoreval-engine/pkg/catalog"
)

// costWindowYears is the fixed window for sensitivity cost sums, independent
// of the baseline's TCO horizon.
const costWindowYears = 3

// CacheInvalidator drops any cached dashboard aggregate for a project after
// its scenarios change. Implemented by the dashboard service.
type CacheInvalidator interface {
	InvalidateProject(ctx context.Context, projectID string)
}

type Service struct {
	entries   *store.CostEntryStore
	summaries *store.TCOSummaryStore
	scenarios *store.ScenarioStore
	cache     CacheInvalidator
	logger    logger.Logger
}

func NewService(entries *store.CostEntryStore, summaries *store.TCOSummaryStore, scenarios *store.ScenarioStore, cache CacheInvalidator, log logger.Logger) *Service {
	return &Service{
		entries:   entries,
		summaries: summaries,
		scenarios: scenarios,
		cache:     cache,
		logger:    log.WithFields(map[string]interface{}{"component": "sensitivity-engine"}),
	}
}

// CreateScenario validates and persists a scenario. The adjustment order is
// preserved exactly as authored; it matters when adjustments target
// overlapping categories.
func (s *Service) CreateScenario(ctx context.Context, projectID, name, description string, adjustments []models.Adjustment) (*models.SensitivityScenario, error) {
	if projectID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId is required")
	}
	if name == "" {
		return nil, stderrors.NewValidationError("scenario name is required")
	}
	for _, adj := range adjustments {
		if adj.Variable == "" {
			return nil, stderrors.NewValidationError("adjustment variable is required")
		}
		if !models.ValidAdjustmentType(adj.Type) {
			return nil, stderrors.NewValidationError("unknown adjustment type: " + string(adj.Type))
		}
		if math.IsNaN(adj.Value) || math.IsInf(adj.Value, 0) {
			return nil, stderrors.NewValidationError("adjustment value must be a finite number")
		}
	}

	scenario := &models.SensitivityScenario{
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		Adjustments: adjustments,
	}
	if err := s.scenarios.Insert(ctx, scenario); err != nil {
		return nil, stderrors.NewStoreUpsertError(err)
	}

	s.invalidate(ctx, projectID)
	s.logger.Info("scenario created", map[string]interface{}{
		"scenarioId":  scenario.ID,
		"projectId":   projectID,
		"adjustments": len(adjustments),
	})
	return scenario, nil
}

// ListScenarios returns a project's scenarios in creation order.
func (s *Service) ListScenarios(ctx context.Context, projectID string) ([]*models.SensitivityScenario, error) {
	if projectID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId is required")
	}
	scenarios, err := s.scenarios.ListByProject(ctx, projectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	return scenarios, nil
}

// Run executes the scenario against the project's stored TCO baseline and
// persists the per-vendor results. The baseline is never auto-computed, so
// scenarios always compare against an explicit, inspectable snapshot.
// Re-running overwrites the previous results.
func (s *Service) Run(ctx context.Context, scenarioID string) (*models.SensitivityScenario, error) {
	scenario, err := s.scenarios.GetByID(ctx, scenarioID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewScenarioNotFoundError(scenarioID)
		}
		return nil, stderrors.NewStoreQueryError(err)
	}

	summaries, err := s.summaries.ListByProject(ctx, scenario.ProjectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	if len(summaries) == 0 {
		return nil, stderrors.NewNoBaselineTCOError(scenario.ProjectID)
	}

	entries, err := s.entries.ListByProject(ctx, scenario.ProjectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	entriesByVendor := make(map[string][]*models.CostEntry)
	for _, entry := range entries {
		entriesByVendor[entry.VendorID] = append(entriesByVendor[entry.VendorID], entry)
	}

	// Baseline order is the stored ranking. The adjusted sort below is
	// stable, so vendors tied on adjusted total keep their baseline order.
	ordered := make([]*models.TCOSummary, len(summaries))
	copy(ordered, summaries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	type vendorRun struct {
		summary  *models.TCOSummary
		adjusted float64
	}
	runs := make([]*vendorRun, len(ordered))
	for i, summary := range ordered {
		runs[i] = &vendorRun{
			summary:  summary,
			adjusted: adjustedTotal(summary.TotalTCO, entriesByVendor[summary.VendorID], scenario.Adjustments),
		}
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].adjusted < runs[j].adjusted
	})

	results := make(map[string]*models.VendorImpact, len(runs))
	rankingChanged := false
	for i, run := range runs {
		newRank := i + 1
		results[run.summary.VendorID] = &models.VendorImpact{
			BaselineTCO: run.summary.TotalTCO,
			AdjustedTCO: run.adjusted,
			Difference:  run.adjusted - run.summary.TotalTCO,
			OldRank:     run.summary.Rank,
			NewRank:     newRank,
			RankChange:  run.summary.Rank - newRank,
		}
		if run.summary.VendorID != ordered[i].VendorID {
			rankingChanged = true
		}
	}

	scenario.Results = results
	scenario.RankingChanged = rankingChanged
	scenario.RecommendationChanged = runs[0].summary.VendorID != ordered[0].VendorID

	if err := s.scenarios.SaveResults(ctx, scenario); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewScenarioNotFoundError(scenarioID)
		}
		return nil, stderrors.NewStoreUpsertError(err)
	}

	s.invalidate(ctx, scenario.ProjectID)
	metrics.ScenarioRuns.WithLabelValues(strconv.FormatBool(rankingChanged)).Inc()
	s.logger.Info("scenario run complete", map[string]interface{}{
		"scenarioId":            scenario.ID,
		"projectId":             scenario.ProjectID,
		"rankingChanged":        scenario.RankingChanged,
		"recommendationChanged": scenario.RecommendationChanged,
	})
	return scenario, nil
}

func (s *Service) invalidate(ctx context.Context, projectID string) {
	if s.cache != nil {
		s.cache.InvalidateProject(ctx, projectID)
	}
}

// adjustedTotal applies the adjustments cumulatively in authored order.
// Cost sums use the fixed 3-year window regardless of the baseline horizon.
func adjustedTotal(baseline float64, entries []*models.CostEntry, adjustments []models.Adjustment) float64 {
	adjusted := baseline
	for _, adj := range adjustments {
		costSum := categorySum(entries, catalog.ResolveVariable(adj.Variable))
		switch adj.Type {
		case models.AdjustPercent:
			adjusted += costSum * adj.Value / 100
		case models.AdjustFixed:
			adjusted += adj.Value
		case models.AdjustMultiplier:
			adjusted += costSum * (adj.Value - 1)
		}
	}
	return adjusted
}

// categorySum totals the first costWindowYears amounts of every entry whose
// category is in cats.
func categorySum(entries []*models.CostEntry, cats []catalog.CostCategory) float64 {
	matched := make(map[catalog.CostCategory]bool, len(cats))
	for _, c := range cats {
		matched[c] = true
	}

	var sum float64
	for _, entry := range entries {
		if !matched[entry.Category] {
			continue
		}
		amounts := entry.YearlyAmounts()
		for i := 0; i < costWindowYears; i++ {
			sum += amounts[i]
		}
	}
	return sum
}
