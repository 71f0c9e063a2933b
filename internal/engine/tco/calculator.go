// internal/engine/tco/calculator.go

// Package tco aggregates cost ledger entries into per-vendor total cost of
// ownership summaries and maintains the project-wide ranking.
package tco

import (
	"context"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	stderrors "vendoreval-engine/internal/common/errors"
	"vendoreval-engine/internal/common/logger"
	"vendoreval-engine/internal/common/metrics"
	"vendoreval-engine/internal/models"
	"vendoreval-engine/internal/store"
)

const monthsPerYear = 12

// Options tunes one TCO calculation.
type Options struct {
	// Years is the horizon (1..5). Zero means the configured default.
	Years        int
	DiscountRate float64
	TotalUsers   int
}

// CacheInvalidator drops any cached dashboard aggregate for a project after
// its summaries change. Implemented by the dashboard service.
type CacheInvalidator interface {
	InvalidateProject(ctx context.Context, projectID string)
}

// BatchResult is the outcome of a calculate-all run. Failures maps vendor id
// to the error message; vendors that succeeded stay committed regardless.
type BatchResult struct {
	Summaries []*models.TCOSummary `json:"summaries"`
	Failures  map[string]string    `json:"failures,omitempty"`
}

type Service struct {
	entries      *store.CostEntryStore
	summaries    *store.TCOSummaryStore
	cache        CacheInvalidator
	locks        *projectLocks
	defaultYears int
	logger       logger.Logger
}

func NewService(entries *store.CostEntryStore, summaries *store.TCOSummaryStore, cache CacheInvalidator, defaultYears int, log logger.Logger) *Service {
	if defaultYears < 1 || defaultYears > 5 {
		defaultYears = 3
	}
	return &Service{
		entries:      entries,
		summaries:    summaries,
		cache:        cache,
		locks:        newProjectLocks(),
		defaultYears: defaultYears,
		logger:       log.WithFields(map[string]interface{}{"component": "tco-calculator"}),
	}
}

// Calculate recomputes one vendor's TCO summary, upserts it, and reranks the
// whole project. Recalculation is overwrite-only, never additive.
func (s *Service) Calculate(ctx context.Context, projectID, vendorID string, opts Options) (*models.TCOSummary, error) {
	if projectID == "" || vendorID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId and vendorId are required")
	}
	opts, err := s.normalizeOptions(opts)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(projectID)
	defer unlock()

	timer := prometheus.NewTimer(metrics.CalculationDuration.WithLabelValues("tco"))
	defer timer.ObserveDuration()

	summary, err := s.calculateLocked(ctx, projectID, vendorID, opts)
	if err != nil {
		metrics.CalculationsFailed.WithLabelValues("tco", string(stderrors.CodeOf(err))).Inc()
		return nil, err
	}
	if err := s.rerankLocked(ctx, projectID, summary); err != nil {
		metrics.CalculationsFailed.WithLabelValues("tco", string(stderrors.CodeOf(err))).Inc()
		return nil, err
	}

	s.invalidate(ctx, projectID)
	metrics.CalculationsCompleted.WithLabelValues("tco").Inc()

	s.logger.Info("tco calculated", map[string]interface{}{
		"projectId": projectID,
		"vendorId":  vendorID,
		"years":     summary.Years,
		"totalTco":  summary.TotalTCO,
	})
	return summary, nil
}

// CalculateAll recomputes every vendor of the project with the same options.
// Per-vendor failures are collected, not fatal: vendors already committed
// keep their new summaries.
func (s *Service) CalculateAll(ctx context.Context, projectID string, opts Options) (*BatchResult, error) {
	if projectID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId is required")
	}
	opts, err := s.normalizeOptions(opts)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(projectID)
	defer unlock()

	vendors, err := s.entries.VendorsForProject(ctx, projectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}

	result := &BatchResult{}
	for _, vendorID := range vendors {
		summary, err := s.calculateLocked(ctx, projectID, vendorID, opts)
		if err == nil {
			err = s.rerankLocked(ctx, projectID, summary)
		}
		if err != nil {
			if result.Failures == nil {
				result.Failures = make(map[string]string)
			}
			result.Failures[vendorID] = err.Error()
			metrics.CalculationsFailed.WithLabelValues("tco_all", string(stderrors.CodeOf(err))).Inc()
			s.logger.WithError(err).Warn("vendor tco calculation failed", map[string]interface{}{
				"projectId": projectID,
				"vendorId":  vendorID,
			})
			continue
		}
		result.Summaries = append(result.Summaries, summary)
	}

	s.invalidate(ctx, projectID)
	metrics.CalculationsCompleted.WithLabelValues("tco_all").Inc()
	return result, nil
}

// ListSummaries returns the project's current summaries in stored order.
func (s *Service) ListSummaries(ctx context.Context, projectID string) ([]*models.TCOSummary, error) {
	if projectID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId is required")
	}
	summaries, err := s.summaries.ListByProject(ctx, projectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	return summaries, nil
}

func (s *Service) normalizeOptions(opts Options) (Options, error) {
	if opts.Years == 0 {
		opts.Years = s.defaultYears
	}
	if opts.Years < 1 || opts.Years > 5 {
		return opts, stderrors.NewValidationError("years must be between 1 and 5")
	}
	if opts.DiscountRate < 0 || math.IsNaN(opts.DiscountRate) || math.IsInf(opts.DiscountRate, 0) {
		return opts, stderrors.NewValidationError("discountRate must be a non-negative number")
	}
	if opts.TotalUsers < 0 {
		return opts, stderrors.NewValidationError("totalUsers must not be negative")
	}
	return opts, nil
}

// calculateLocked computes and upserts one vendor's summary. The caller
// holds the project lock.
func (s *Service) calculateLocked(ctx context.Context, projectID, vendorID string, opts Options) (*models.TCOSummary, error) {
	entries, err := s.entries.ListByProjectVendor(ctx, projectID, vendorID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	if len(entries) == 0 {
		return nil, stderrors.NewVendorNotFoundError(vendorID)
	}

	summary := buildSummary(projectID, vendorID, entries, opts)
	if err := s.summaries.Upsert(ctx, summary); err != nil {
		return nil, stderrors.NewStoreUpsertError(err)
	}
	return summary, nil
}

// rerankLocked reloads every summary of the project, reranks, persists the
// new ranks, and refreshes summary's own rank fields from the ranked set.
func (s *Service) rerankLocked(ctx context.Context, projectID string, summary *models.TCOSummary) error {
	summaries, err := s.summaries.ListByProject(ctx, projectID)
	if err != nil {
		return stderrors.NewStoreQueryError(err)
	}
	rankSummaries(summaries)
	if err := s.summaries.UpdateRanks(ctx, summaries); err != nil {
		return stderrors.NewStoreUpsertError(err)
	}

	for _, ranked := range summaries {
		if ranked.VendorID == summary.VendorID {
			summary.Rank = ranked.Rank
			summary.PercentVsLowest = ranked.PercentVsLowest
			break
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, projectID string) {
	if s.cache != nil {
		s.cache.InvalidateProject(ctx, projectID)
	}
}

// buildSummary is the pure aggregation step: yearly totals across entries,
// total over the horizon, NPV, per-user figures.
func buildSummary(projectID, vendorID string, entries []*models.CostEntry, opts Options) *models.TCOSummary {
	summary := &models.TCOSummary{
		ProjectID:    projectID,
		VendorID:     vendorID,
		Years:        opts.Years,
		DiscountRate: opts.DiscountRate,
		TotalUsers:   opts.TotalUsers,
	}

	for _, entry := range entries {
		amounts := entry.YearlyAmounts()
		for i := range summary.YearlyTotals {
			summary.YearlyTotals[i] += amounts[i]
		}
	}

	for i := 0; i < opts.Years; i++ {
		summary.TotalTCO += summary.YearlyTotals[i]
	}

	if opts.DiscountRate > 0 {
		for i := 0; i < opts.Years; i++ {
			summary.NPVTCO += summary.YearlyTotals[i] / math.Pow(1+opts.DiscountRate, float64(i))
		}
	} else {
		summary.NPVTCO = summary.TotalTCO
	}

	if opts.TotalUsers > 0 {
		summary.CostPerUserYear = summary.TotalTCO / float64(opts.Years) / float64(opts.TotalUsers)
		summary.CostPerUserMonth = summary.CostPerUserYear / monthsPerYear
	}
	return summary
}
