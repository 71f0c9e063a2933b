// internal/engine/dashboard/service.go

// Package dashboard builds the read-only project aggregate consumed by the
// UI layer: headline stats, current summaries, scenarios, ROI records, and
// a cost-by-category rollup. The assembled payload is cached in Redis and
// dropped whenever a recalculation path touches the project.
package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "vendoreval-engine/internal/common/errors"
	"vendoreval-engine/internal/common/logger"
	"vendoreval-engine/internal/common/metrics"
	"vendoreval-engine/internal/models"
	"vendoreval-engine/internal/store"
	"vendoreval-engine/pkg/catalog"
)

const cacheKeyPrefix = "dashboard:"

// VendorAmount pairs a vendor with one headline figure.
type VendorAmount struct {
	VendorID string  `json:"vendorId"`
	Value    float64 `json:"value"`
}

// Stats holds the headline numbers of a project.
type Stats struct {
	VendorCount      int           `json:"vendorCount"`
	EntryCount       int           `json:"entryCount"`
	LowestTCO        *VendorAmount `json:"lowestTco,omitempty"`
	HighestTCO       *VendorAmount `json:"highestTco,omitempty"`
	TCOSpreadPercent float64       `json:"tcoSpreadPercent"`
	BestROI          *VendorAmount `json:"bestRoi,omitempty"`
}

// Data is the full dashboard aggregate for one project.
type Data struct {
	ProjectID       string                        `json:"projectId"`
	Stats           Stats                         `json:"stats"`
	CostBreakdowns  map[string]map[string]float64 `json:"costBreakdowns"`
	TCOSummaries    []*models.TCOSummary          `json:"tcoSummaries"`
	Scenarios       []*models.SensitivityScenario `json:"scenarios"`
	ROICalculations []*models.ROICalculation      `json:"roiCalculations"`
	CostByCategory  map[string]float64            `json:"costByCategory"`
	GeneratedAt     time.Time                     `json:"generatedAt"`
}

type Service struct {
	entries      *store.CostEntryStore
	summaries    *store.TCOSummaryStore
	scenarios    *store.ScenarioStore
	calculations *store.ROIStore
	redis        *redis.Client
	cacheTTL     time.Duration
	defaultYears int
	logger       logger.Logger
}

func NewService(entries *store.CostEntryStore, summaries *store.TCOSummaryStore,
	scenarios *store.ScenarioStore, calculations *store.ROIStore,
	redisClient *redis.Client, cacheTTL time.Duration, defaultYears int, log logger.Logger) *Service {
	if defaultYears < 1 || defaultYears > 5 {
		defaultYears = 3
	}
	return &Service{
		entries:      entries,
		summaries:    summaries,
		scenarios:    scenarios,
		calculations: calculations,
		redis:        redisClient,
		cacheTTL:     cacheTTL,
		defaultYears: defaultYears,
		logger:       log.WithFields(map[string]interface{}{"component": "dashboard"}),
	}
}

// Get returns the project aggregate, served from cache when possible.
func (s *Service) Get(ctx context.Context, projectID string) (*Data, error) {
	if projectID == "" {
		return nil, stderrors.NewMissingReferenceError("projectId is required")
	}

	if cached := s.fromCache(ctx, projectID); cached != nil {
		metrics.DashboardCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.DashboardCacheHits.WithLabelValues("miss").Inc()

	data, err := s.build(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, projectID, data)
	return data, nil
}

// InvalidateProject drops the cached aggregate after a recalculation.
func (s *Service) InvalidateProject(ctx context.Context, projectID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKeyPrefix+projectID).Err(); err != nil {
		s.logger.WithError(err).Warn("dashboard cache invalidation failed", map[string]interface{}{
			"projectId": projectID,
		})
	}
}

func (s *Service) fromCache(ctx context.Context, projectID string) *Data {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, cacheKeyPrefix+projectID).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Warn("dashboard cache read failed", map[string]interface{}{
				"projectId": projectID,
			})
		}
		return nil
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return &data
}

func (s *Service) toCache(ctx context.Context, projectID string, data *Data) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKeyPrefix+projectID, raw, s.cacheTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("dashboard cache write failed", map[string]interface{}{
			"projectId": projectID,
		})
	}
}

func (s *Service) build(ctx context.Context, projectID string) (*Data, error) {
	entries, err := s.entries.ListByProject(ctx, projectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	summaries, err := s.summaries.ListByProject(ctx, projectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	scenarios, err := s.scenarios.ListByProject(ctx, projectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}
	calculations, err := s.calculations.ListByProject(ctx, projectID)
	if err != nil {
		return nil, stderrors.NewStoreQueryError(err)
	}

	horizon := s.defaultYears
	if len(summaries) > 0 {
		horizon = summaries[0].Years
	}

	data := &Data{
		ProjectID:       projectID,
		Stats:           buildStats(entries, summaries, calculations),
		CostBreakdowns:  costBreakdowns(entries, horizon),
		TCOSummaries:    summaries,
		Scenarios:       scenarios,
		ROICalculations: calculations,
		CostByCategory:  costByCategory(entries, horizon),
		GeneratedAt:     time.Now().UTC(),
	}
	return data, nil
}

func buildStats(entries []*models.CostEntry, summaries []*models.TCOSummary, calculations []*models.ROICalculation) Stats {
	stats := Stats{EntryCount: len(entries)}

	vendors := make(map[string]bool)
	for _, entry := range entries {
		vendors[entry.VendorID] = true
	}
	stats.VendorCount = len(vendors)

	for _, summary := range summaries {
		if stats.LowestTCO == nil || summary.TotalTCO < stats.LowestTCO.Value {
			stats.LowestTCO = &VendorAmount{VendorID: summary.VendorID, Value: summary.TotalTCO}
		}
		if stats.HighestTCO == nil || summary.TotalTCO > stats.HighestTCO.Value {
			stats.HighestTCO = &VendorAmount{VendorID: summary.VendorID, Value: summary.TotalTCO}
		}
	}
	if stats.LowestTCO != nil && stats.LowestTCO.Value > 0 {
		stats.TCOSpreadPercent = (stats.HighestTCO.Value - stats.LowestTCO.Value) / stats.LowestTCO.Value * 100
	}

	for _, calc := range calculations {
		if stats.BestROI == nil || calc.ROIPercent > stats.BestROI.Value {
			stats.BestROI = &VendorAmount{VendorID: calc.VendorID, Value: calc.ROIPercent}
		}
	}
	return stats
}

// costBreakdowns rolls entries up per vendor and category over the horizon.
func costBreakdowns(entries []*models.CostEntry, horizon int) map[string]map[string]float64 {
	breakdowns := make(map[string]map[string]float64)
	for _, entry := range entries {
		vendor, ok := breakdowns[entry.VendorID]
		if !ok {
			vendor = make(map[string]float64)
			breakdowns[entry.VendorID] = vendor
		}
		vendor[string(entry.Category)] += entry.TotalOverYears(horizon)
	}
	return breakdowns
}

// costByCategory rolls entries up per category across all vendors. Every
// known category is present, zero-valued when unused.
func costByCategory(entries []*models.CostEntry, horizon int) map[string]float64 {
	totals := make(map[string]float64, len(catalog.All()))
	for _, c := range catalog.All() {
		totals[string(c)] = 0
	}
	for _, entry := range entries {
		totals[string(entry.Category)] += entry.TotalOverYears(horizon)
	}
	return totals
}
