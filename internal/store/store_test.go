// internal/store/store_test.go
package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendoreval-engine/internal/models"
	"vendoreval-engine/pkg/catalog"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func costEntryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "project_id", "vendor_id", "category", "description",
		"year1", "year2", "year3", "year4", "year5",
		"recurring", "estimated", "source_notes", "created_at", "updated_at",
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

// ==========================
// CostEntryStore
// ==========================

func TestCostEntryStore_Insert_MintsID(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO cost_entries`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.CostEntry{
		ProjectID: "proj-1",
		VendorID:  "vendor-a",
		Category:  catalog.CategoryLicensing,
		Year1:     10000,
	}
	s := NewCostEntryStore(db)
	err := s.Insert(context.Background(), entry)

	assert.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCostEntryStore_ListByProjectVendor(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := costEntryRows().
		AddRow("e1", "proj-1", "vendor-a", "implementation", "setup",
			10000.0, 0.0, 0.0, 0.0, 0.0, false, false, "", now, now).
		AddRow("e2", "proj-1", "vendor-a", "licensing", "seats",
			0.0, 5000.0, 5000.0, 0.0, 0.0, true, false, "", now, now)

	mock.ExpectQuery(`SELECT (.+) FROM cost_entries WHERE project_id = \$1 AND vendor_id = \$2`).
		WithArgs("proj-1", "vendor-a").
		WillReturnRows(rows)

	s := NewCostEntryStore(db)
	entries, err := s.ListByProjectVendor(context.Background(), "proj-1", "vendor-a")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, catalog.CategoryImplementation, entries[0].Category)
	assert.Equal(t, 5000.0, entries[1].Year2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCostEntryStore_Delete_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM cost_entries WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewCostEntryStore(db)
	err := s.Delete(context.Background(), "missing")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCostEntryStore_VendorsForProject(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"vendor_id"}).
		AddRow("vendor-a").
		AddRow("vendor-b")

	mock.ExpectQuery(`SELECT vendor_id FROM cost_entries WHERE project_id = \$1 GROUP BY vendor_id`).
		WithArgs("proj-1").
		WillReturnRows(rows)

	s := NewCostEntryStore(db)
	vendors, err := s.VendorsForProject(context.Background(), "proj-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"vendor-a", "vendor-b"}, vendors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// TCOSummaryStore
// ==========================

func TestTCOSummaryStore_Upsert(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO tco_summaries (.+) ON CONFLICT \(project_id, vendor_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	summary := &models.TCOSummary{
		ProjectID:    "proj-1",
		VendorID:     "vendor-a",
		Years:        3,
		YearlyTotals: [5]float64{10000, 5000, 5000, 0, 0},
		TotalTCO:     20000,
		NPVTCO:       20000,
	}
	s := NewTCOSummaryStore(db)
	err := s.Upsert(context.Background(), summary)

	assert.NoError(t, err)
	assert.False(t, summary.CalculatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTCOSummaryStore_ListByProject(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := tcoSummaryRows().
		AddRow("proj-1", "vendor-a", 3, 0.0, 10000.0, 5000.0, 5000.0, 0.0, 0.0,
			20000.0, 20000.0, 0, 0.0, 0.0, 1, 0.0, now).
		AddRow("proj-1", "vendor-b", 3, 0.0, 12000.0, 6000.0, 6000.0, 0.0, 0.0,
			24000.0, 24000.0, 0, 0.0, 0.0, 2, 20.0, now)

	mock.ExpectQuery(`SELECT (.+) FROM tco_summaries WHERE project_id = \$1 ORDER BY created_at, vendor_id`).
		WithArgs("proj-1").
		WillReturnRows(rows)

	s := NewTCOSummaryStore(db)
	summaries, err := s.ListByProject(context.Background(), "proj-1")

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 20000.0, summaries[0].TotalTCO)
	assert.Equal(t, 2, summaries[1].Rank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTCOSummaryStore_UpdateRanks(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE tco_summaries SET rank = \$1, percent_vs_lowest = \$2`).
		WithArgs(1, 0.0, "proj-1", "vendor-a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE tco_summaries SET rank = \$1, percent_vs_lowest = \$2`).
		WithArgs(2, 20.0, "proj-1", "vendor-b").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewTCOSummaryStore(db)
	err := s.UpdateRanks(context.Background(), []*models.TCOSummary{
		{ProjectID: "proj-1", VendorID: "vendor-a", Rank: 1, PercentVsLowest: 0},
		{ProjectID: "proj-1", VendorID: "vendor-b", Rank: 2, PercentVsLowest: 20},
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// ScenarioStore
// ==========================

func TestScenarioStore_InsertAndScan(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO sensitivity_scenarios`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scenario := &models.SensitivityScenario{
		ProjectID: "proj-1",
		Name:      "license +20%",
		Adjustments: []models.Adjustment{
			{Variable: "licensing_cost", Type: models.AdjustPercent, Value: 20},
		},
	}
	s := NewScenarioStore(db)
	err := s.Insert(context.Background(), scenario)

	assert.NoError(t, err)
	assert.NotEmpty(t, scenario.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScenarioStore_GetByID_ParsesJSON(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	now := time.Now().UTC()
	adjustments := `[{"variable":"all_costs","type":"percent","value":10}]`
	results := `{"vendor-a":{"baselineTco":20000,"adjustedTco":22000,"difference":2000,"oldRank":1,"newRank":1,"rankChange":0}}`

	rows := sqlmock.NewRows([]string{
		"id", "project_id", "name", "description", "baseline",
		"adjustments", "results", "ranking_changed", "recommendation_changed",
		"last_run_at", "created_at", "updated_at",
	}).AddRow("sc-1", "proj-1", "inflation", "", false,
		[]byte(adjustments), []byte(results), false, false, now, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM sensitivity_scenarios WHERE id = \$1`).
		WithArgs("sc-1").
		WillReturnRows(rows)

	s := NewScenarioStore(db)
	scenario, err := s.GetByID(context.Background(), "sc-1")

	require.NoError(t, err)
	require.Len(t, scenario.Adjustments, 1)
	assert.Equal(t, models.AdjustPercent, scenario.Adjustments[0].Type)
	require.Contains(t, scenario.Results, "vendor-a")
	assert.Equal(t, 22000.0, scenario.Results["vendor-a"].AdjustedTCO)
	require.NotNil(t, scenario.LastRunAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// ROIStore
// ==========================

func TestROIStore_Upsert_NullPayback(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO roi_calculations (.+) ON CONFLICT \(project_id, vendor_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	roi := &models.ROICalculation{
		ProjectID:     "proj-1",
		VendorID:      "vendor-a",
		TotalBenefits: 150000,
		TotalCosts:    100000,
		NetBenefit:    50000,
		ROIPercent:    50,
		PaybackMonths: nil, // never breaks even within the window
	}
	s := NewROIStore(db)
	err := s.Upsert(context.Background(), roi)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestROIStore_Get_ParsesPayback(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"project_id", "vendor_id",
		"year1_benefit", "year2_benefit", "year3_benefit", "year4_benefit", "year5_benefit",
		"breakdown", "total_benefits", "total_costs", "net_benefit", "roi_percent",
		"payback_months", "risk_adjustment", "risk_adjusted_roi",
		"methodology_notes", "calculated_at",
	}).AddRow("proj-1", "vendor-a",
		60000.0, 60000.0, 60000.0, 0.0, 0.0,
		[]byte(`[]`), 180000.0, 100000.0, 80000.0, 80.0,
		21, 20.0, 64.0, "", now)

	mock.ExpectQuery(`SELECT (.+) FROM roi_calculations WHERE project_id = \$1 AND vendor_id = \$2`).
		WithArgs("proj-1", "vendor-a").
		WillReturnRows(rows)

	s := NewROIStore(db)
	roi, err := s.Get(context.Background(), "proj-1", "vendor-a")

	require.NoError(t, err)
	require.NotNil(t, roi.PaybackMonths)
	assert.Equal(t, 21, *roi.PaybackMonths)
	assert.Equal(t, 64.0, roi.RiskAdjustedROI)
	assert.NoError(t, mock.ExpectationsWereMet())
}
