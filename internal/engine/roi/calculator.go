// internal/engine/roi/calculator.go

// Package roi combines a benefit projection with the vendor's TCO figures
// into net benefit, ROI percent, a payback estimate, and a risk-discounted
// ROI.
package roi

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	stderrors "vendoreval-engine/internal/common/errors"
	"vendoreval-engine/internal/common/logger"
	"vendoreval-engine/internal/common/metrics"
	"vendoreval-engine/internal/models"
	"vendoreval-engine/internal/store"
)

const defaultPaybackWindowMonths = 36

// Input carries a benefit projection for one vendor.
type Input struct {
	BenefitBreakdown []models.BenefitItem
	RiskAdjustment   float64
	MethodologyNotes string
}

// CacheInvalidator drops any cached dashboard aggregate for a project after
// its ROI figures change. Implemented by the dashboard service.
type CacheInvalidator interface {
	InvalidateProject(ctx context.Context, projectID string)
}

type Service struct {
	summaries     *store.TCOSummaryStore
	calculations  *store.ROIStore
	cache         CacheInvalidator
	paybackWindow int
	logger        logger.Logger
}

func NewService(summaries *store.TCOSummaryStore, calculations *store.ROIStore, cache CacheInvalidator, paybackWindowMonths int, log logger.Logger) *Service {
	if paybackWindowMonths <= 0 {
		paybackWindowMonths = defaultPaybackWindowMonths
	}
	return &Service{
		summaries:     summaries,
		calculations:  calculations,
		cache:         cache,
		paybackWindow: paybackWindowMonths,
		logger:        log.WithFields(map[string]interface{}{"component": "roi-calculator"}),
	}
}

// Calculate derives and upserts the ROI record for one vendor. The vendor
// must already have a TCO summary; the ROI's cost side comes from it.
func (s *Service) Calculate(ctx context.Context, projectID, vendorID string, input Input) (*models.ROICalculation, error) {
	if projectID == "" || vendorID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId and vendorId are required")
	}
	if input.RiskAdjustment < 0 || input.RiskAdjustment > 100 ||
		math.IsNaN(input.RiskAdjustment) || math.IsInf(input.RiskAdjustment, 0) {
		return nil, stderrors.NewValidationError("riskAdjustment must be between 0 and 100")
	}

	summary, err := s.summaries.Get(ctx, projectID, vendorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewNoTCODataError(projectID, vendorID)
		}
		return nil, stderrors.NewStoreQueryError(err)
	}

	timer := prometheus.NewTimer(metrics.CalculationDuration.WithLabelValues("roi"))
	defer timer.ObserveDuration()

	calc := buildCalculation(summary, input, s.paybackWindow)
	if err := s.calculations.Upsert(ctx, calc); err != nil {
		metrics.CalculationsFailed.WithLabelValues("roi", string(stderrors.ErrCodeStoreUpsertFailed)).Inc()
		return nil, stderrors.NewStoreUpsertError(err)
	}

	s.invalidate(ctx, projectID)
	metrics.CalculationsCompleted.WithLabelValues("roi").Inc()
	s.logger.Info("roi calculated", map[string]interface{}{
		"projectId":  projectID,
		"vendorId":   vendorID,
		"roiPercent": calc.ROIPercent,
	})
	return calc, nil
}

// Get returns the stored calculation for one vendor.
func (s *Service) Get(ctx context.Context, projectID, vendorID string) (*models.ROICalculation, error) {
	calc, err := s.calculations.Get(ctx, projectID, vendorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewROINotFoundError(projectID, vendorID)
		}
		return nil, stderrors.NewStoreQueryError(err)
	}
	return calc, nil
}

func (s *Service) invalidate(ctx context.Context, projectID string) {
	if s.cache != nil {
		s.cache.InvalidateProject(ctx, projectID)
	}
}

// buildCalculation is the pure derivation step.
func buildCalculation(summary *models.TCOSummary, input Input, paybackWindow int) *models.ROICalculation {
	calc := &models.ROICalculation{
		ProjectID:        summary.ProjectID,
		VendorID:         summary.VendorID,
		Breakdown:        input.BenefitBreakdown,
		RiskAdjustment:   input.RiskAdjustment,
		MethodologyNotes: input.MethodologyNotes,
	}

	for year := 0; year < 5; year++ {
		var total float64
		for i := range input.BenefitBreakdown {
			total += coerceAmount(input.BenefitBreakdown[i].ValueForYear(year))
		}
		calc.YearlyBenefits[year] = total
	}

	for i := 0; i < summary.Years; i++ {
		calc.TotalBenefits += calc.YearlyBenefits[i]
	}
	calc.TotalCosts = summary.TotalTCO
	calc.NetBenefit = calc.TotalBenefits - calc.TotalCosts
	if calc.TotalCosts > 0 {
		calc.ROIPercent = calc.NetBenefit / calc.TotalCosts * 100
	}
	calc.RiskAdjustedROI = calc.ROIPercent * (1 - input.RiskAdjustment/100)

	calc.PaybackMonths = paybackMonths(calc.YearlyBenefits[:], summary.YearlyTotals[:], paybackWindow)
	return calc
}

func coerceAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
