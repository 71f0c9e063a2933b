// internal/engine/sensitivity/engine_test.go
package sensitivity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "vendoreval-engine/internal/common/errors"
	"vendoreval-engine/internal/common/logger"
	"vendoreval-engine/internal/models"
	"vendoreval-engine/internal/store"
	"vendoreval-engine/pkg/catalog"
)

// ==========================
// 1. Pure Adjustment Math
// ==========================

func TestAdjustedTotal_PercentOnCategory(t *testing.T) {
	// Implementation costs [10000,0,0], licensing [0,5000,5000]: a +20%
	// implementation adjustment adds 10000*0.20 = 2000.
	entries := []*models.CostEntry{
		{Category: catalog.CategoryImplementation, Year1: 10000},
		{Category: catalog.CategoryLicensing, Year2: 5000, Year3: 5000},
	}
	adjustments := []models.Adjustment{
		{Variable: "implementation_cost", Type: models.AdjustPercent, Value: 20},
	}

	adjusted := adjustedTotal(20000, entries, adjustments)

	assert.InDelta(t, 22000.0, adjusted, 1e-9)
}

func TestAdjustedTotal_FixedIsNotScaledByCostMass(t *testing.T) {
	entries := []*models.CostEntry{
		{Category: catalog.CategoryLicensing, Year1: 99999},
	}
	adjustments := []models.Adjustment{
		{Variable: "all_costs", Type: models.AdjustFixed, Value: 500},
	}

	assert.Equal(t, 10500.0, adjustedTotal(10000, entries, adjustments))
}

func TestAdjustedTotal_MultiplierOfOneIsNoOp(t *testing.T) {
	entries := []*models.CostEntry{
		{Category: catalog.CategorySupport, Year1: 3000, Year2: 3000},
	}
	adjustments := []models.Adjustment{
		{Variable: "support_cost", Type: models.AdjustMultiplier, Value: 1},
	}

	assert.Equal(t, 9000.0, adjustedTotal(9000, entries, adjustments))
}

func TestAdjustedTotal_CumulativeInAuthoredOrder(t *testing.T) {
	entries := []*models.CostEntry{
		{Category: catalog.CategoryLicensing, Year1: 1000},
	}
	adjustments := []models.Adjustment{
		{Variable: "licensing_cost", Type: models.AdjustMultiplier, Value: 2}, // +1000
		{Variable: "licensing_cost", Type: models.AdjustPercent, Value: 10},  // +100, same slice
	}

	// The cost sum is re-read from the ledger each time, so both apply to
	// the same 1000 slice.
	assert.InDelta(t, 1000+1000+100, adjustedTotal(1000, entries, adjustments), 1e-9)
}

func TestAdjustedTotal_EmptyAdjustmentsIsIdentity(t *testing.T) {
	assert.Equal(t, 4200.0, adjustedTotal(4200, nil, nil))
}

func TestCategorySum_ThreeYearWindow(t *testing.T) {
	entries := []*models.CostEntry{
		{Category: catalog.CategoryMaintenance, Year1: 100, Year2: 100, Year3: 100, Year4: 900, Year5: 900},
	}

	sum := categorySum(entries, []catalog.CostCategory{catalog.CategoryMaintenance})

	assert.Equal(t, 300.0, sum) // years 4 and 5 are outside the window
}

func TestCategorySum_UnknownVariableMatchesNothing(t *testing.T) {
	entries := []*models.CostEntry{
		{Category: catalog.CategoryLicensing, Year1: 5000},
	}

	sum := categorySum(entries, catalog.ResolveVariable("total_cost_of_everything"))

	assert.Zero(t, sum)
}

// ==========================
// 2. Service
// ==========================

func setupSensitivityService(t *testing.T) (*Service, *sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := NewService(
		store.NewCostEntryStore(db),
		store.NewTCOSummaryStore(db),
		store.NewScenarioStore(db),
		nil,
		logger.NewTestLogger(t),
	)
	return svc, db, mock
}

// cacheRecorder captures dashboard invalidations issued by the service.
type cacheRecorder struct {
	projects []string
}

func (c *cacheRecorder) InvalidateProject(_ context.Context, projectID string) {
	c.projects = append(c.projects, projectID)
}

func scenarioRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "project_id", "name", "description", "baseline",
		"adjustments", "results", "ranking_changed", "recommendation_changed",
		"last_run_at", "created_at", "updated_at",
	})
}

func tcoSummaryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"project_id", "vendor_id", "years", "discount_rate",
		"year1_total", "year2_total", "year3_total", "year4_total", "year5_total",
		"total_tco", "npv_tco", "total_users", "cost_per_user_year", "cost_per_user_month",
		"rank", "percent_vs_lowest", "calculated_at",
	})
}

func costEntryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "project_id", "vendor_id", "category", "description",
		"year1", "year2", "year3", "year4", "year5",
		"recurring", "estimated", "source_notes", "created_at", "updated_at",
	})
}

func TestCreateScenario_RejectsUnknownAdjustmentType(t *testing.T) {
	svc, db, _ := setupSensitivityService(t)
	defer db.Close()

	_, err := svc.CreateScenario(context.Background(), "proj-1", "what if", "",
		[]models.Adjustment{{Variable: "licensing_cost", Type: "halve", Value: 2}})

	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeValidationFailed))
}

func TestRun_UnknownScenario(t *testing.T) {
	svc, db, mock := setupSensitivityService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM sensitivity_scenarios`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Run(context.Background(), "missing")

	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeScenarioNotFound))
}

func TestRun_NoBaseline(t *testing.T) {
	svc, db, mock := setupSensitivityService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM sensitivity_scenarios`).
		WithArgs("sc-1").
		WillReturnRows(scenarioRows().AddRow(
			"sc-1", "proj-1", "what if", "", false,
			[]byte(`[]`), nil, false, false, nil, time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM tco_summaries`).
		WithArgs("proj-1").
		WillReturnRows(tcoSummaryRows())

	_, err := svc.Run(context.Background(), "sc-1")

	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeNoBaselineTCO))
}

func TestRun_FlipsRecommendation(t *testing.T) {
	svc, db, mock := setupSensitivityService(t)
	defer db.Close()

	// +200% on vendor-a's licensing pushes its adjusted total past vendor-b.
	adjustments := []byte(`[{"variable":"licensing_cost","type":"percent","value":200}]`)

	mock.ExpectQuery(`SELECT (.+) FROM sensitivity_scenarios`).
		WithArgs("sc-1").
		WillReturnRows(scenarioRows().AddRow(
			"sc-1", "proj-1", "license shock", "", false,
			adjustments, nil, false, false, nil, time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM tco_summaries`).
		WithArgs("proj-1").
		WillReturnRows(tcoSummaryRows().
			AddRow("proj-1", "vendor-a", 3, 0.0, 10000.0, 0.0, 0.0, 0.0, 0.0,
				10000.0, 10000.0, 0, 0.0, 0.0, 1, 0.0, time.Now()).
			AddRow("proj-1", "vendor-b", 3, 0.0, 12000.0, 0.0, 0.0, 0.0, 0.0,
				12000.0, 12000.0, 0, 0.0, 0.0, 2, 20.0, time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM cost_entries`).
		WithArgs("proj-1").
		WillReturnRows(costEntryRows().
			AddRow("e1", "proj-1", "vendor-a", "licensing", "",
				10000.0, 0.0, 0.0, 0.0, 0.0, true, false, "", time.Now(), time.Now()).
			AddRow("e2", "proj-1", "vendor-b", "implementation", "",
				12000.0, 0.0, 0.0, 0.0, 0.0, false, false, "", time.Now(), time.Now()))
	mock.ExpectExec(`UPDATE sensitivity_scenarios`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scenario, err := svc.Run(context.Background(), "sc-1")

	require.NoError(t, err)
	assert.True(t, scenario.RankingChanged)
	assert.True(t, scenario.RecommendationChanged)

	impactA := scenario.Results["vendor-a"]
	require.NotNil(t, impactA)
	assert.InDelta(t, 30000.0, impactA.AdjustedTCO, 1e-9) // 10000 + 10000*2
	assert.Equal(t, 1, impactA.OldRank)
	assert.Equal(t, 2, impactA.NewRank)
	assert.Equal(t, -1, impactA.RankChange)

	impactB := scenario.Results["vendor-b"]
	require.NotNil(t, impactB)
	assert.Equal(t, 12000.0, impactB.AdjustedTCO) // untouched slice
	assert.Equal(t, 1, impactB.NewRank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_EmptyAdjustmentsReproducesBaseline(t *testing.T) {
	svc, db, mock := setupSensitivityService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM sensitivity_scenarios`).
		WithArgs("sc-2").
		WillReturnRows(scenarioRows().AddRow(
			"sc-2", "proj-1", "identity", "", true,
			[]byte(`[]`), nil, false, false, nil, time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM tco_summaries`).
		WithArgs("proj-1").
		WillReturnRows(tcoSummaryRows().
			AddRow("proj-1", "vendor-a", 3, 0.0, 10000.0, 0.0, 0.0, 0.0, 0.0,
				10000.0, 10000.0, 0, 0.0, 0.0, 1, 0.0, time.Now()).
			AddRow("proj-1", "vendor-b", 3, 0.0, 12000.0, 0.0, 0.0, 0.0, 0.0,
				12000.0, 12000.0, 0, 0.0, 0.0, 2, 20.0, time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM cost_entries`).
		WithArgs("proj-1").
		WillReturnRows(costEntryRows())
	mock.ExpectExec(`UPDATE sensitivity_scenarios`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scenario, err := svc.Run(context.Background(), "sc-2")

	require.NoError(t, err)
	assert.False(t, scenario.RankingChanged)
	assert.False(t, scenario.RecommendationChanged)
	for vendorID, impact := range scenario.Results {
		assert.Equal(t, impact.BaselineTCO, impact.AdjustedTCO, vendorID)
		assert.Equal(t, impact.OldRank, impact.NewRank, vendorID)
		assert.Zero(t, impact.RankChange, vendorID)
	}
}

func TestScenarioWrites_DropDashboardCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cache := &cacheRecorder{}
	svc := NewService(
		store.NewCostEntryStore(db),
		store.NewTCOSummaryStore(db),
		store.NewScenarioStore(db),
		cache,
		logger.NewTestLogger(t),
	)

	mock.ExpectExec(`INSERT INTO sensitivity_scenarios`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = svc.CreateScenario(context.Background(), "proj-1", "what if", "", nil)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM sensitivity_scenarios`).
		WithArgs("sc-1").
		WillReturnRows(scenarioRows().AddRow(
			"sc-1", "proj-1", "what if", "", false,
			[]byte(`[]`), nil, false, false, nil, time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM tco_summaries`).
		WithArgs("proj-1").
		WillReturnRows(tcoSummaryRows().
			AddRow("proj-1", "vendor-a", 3, 0.0, 10000.0, 0.0, 0.0, 0.0, 0.0,
				10000.0, 10000.0, 0, 0.0, 0.0, 1, 0.0, time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM cost_entries`).
		WithArgs("proj-1").
		WillReturnRows(costEntryRows())
	mock.ExpectExec(`UPDATE sensitivity_scenarios`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = svc.Run(context.Background(), "sc-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"proj-1", "proj-1"}, cache.projects,
		"scenario create and run must both drop the project's dashboard aggregate")
}
