// internal/engine/tco/calculator_test.go
package tco

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
// 1. Pure Aggregation
// ==========================

func TestBuildSummary_YearlyTotalsAndHorizon(t *testing.T) {
	entries := []*models.CostEntry{
		{Category: catalog.CategoryImplementation, Year1: 10000},
		{Category: catalog.CategoryLicensing, Year2: 5000, Year3: 5000},
		{Category: catalog.CategoryOther, Year4: 9999, Year5: 9999}, // beyond horizon
	}

	summary := buildSummary("proj-1", "vendor-a", entries, Options{Years: 3})

	assert.Equal(t, [5]float64{10000, 5000, 5000, 9999, 9999}, summary.YearlyTotals)
	assert.Equal(t, 20000.0, summary.TotalTCO)
	assert.Equal(t, 20000.0, summary.NPVTCO) // no discount distortion
}

func TestBuildSummary_NPVDiscountsFromYearZero(t *testing.T) {
	entries := []*models.CostEntry{
		{Category: catalog.CategoryLicensing, Year1: 1000, Year2: 1000, Year3: 1000},
	}

	summary := buildSummary("proj-1", "vendor-a", entries, Options{Years: 3, DiscountRate: 0.1})

	// 1000/1.1^0 + 1000/1.1^1 + 1000/1.1^2
	assert.InDelta(t, 1000+1000/1.1+1000/1.21, summary.NPVTCO, 1e-9)
	assert.Equal(t, 3000.0, summary.TotalTCO)
}

func TestBuildSummary_PerUserFigures(t *testing.T) {
	entries := []*models.CostEntry{
		{Category: catalog.CategoryLicensing, Year1: 12000, Year2: 12000, Year3: 12000},
	}

	summary := buildSummary("proj-1", "vendor-a", entries, Options{Years: 3, TotalUsers: 100})

	assert.Equal(t, 120.0, summary.CostPerUserYear)
	assert.Equal(t, 10.0, summary.CostPerUserMonth)
}

func TestBuildSummary_NoUsersNoPerUserFigures(t *testing.T) {
	entries := []*models.CostEntry{{Category: catalog.CategoryLicensing, Year1: 500}}

	summary := buildSummary("proj-1", "vendor-a", entries, Options{Years: 1})

	assert.Zero(t, summary.CostPerUserYear)
	assert.Zero(t, summary.CostPerUserMonth)
}

// ==========================
// 2. Ranking
// ==========================

func TestRankSummaries_DenseRanksAndPercent(t *testing.T) {
	summaries := []*models.TCOSummary{
		{VendorID: "b", TotalTCO: 120000},
		{VendorID: "a", TotalTCO: 100000},
	}

	rankSummaries(summaries)

	assert.Equal(t, "a", summaries[0].VendorID)
	assert.Equal(t, 1, summaries[0].Rank)
	assert.Equal(t, 0.0, summaries[0].PercentVsLowest)
	assert.Equal(t, "b", summaries[1].VendorID)
	assert.Equal(t, 2, summaries[1].Rank)
	assert.InDelta(t, 20.0, summaries[1].PercentVsLowest, 1e-9)
}

func TestRankSummaries_TiesKeepInsertionOrder(t *testing.T) {
	summaries := []*models.TCOSummary{
		{VendorID: "first", TotalTCO: 5000},
		{VendorID: "second", TotalTCO: 5000},
		{VendorID: "third", TotalTCO: 4000},
	}

	rankSummaries(summaries)

	assert.Equal(t, []int{1, 2, 3}, []int{summaries[0].Rank, summaries[1].Rank, summaries[2].Rank})
	assert.Equal(t, "third", summaries[0].VendorID)
	assert.Equal(t, "first", summaries[1].VendorID)
	assert.Equal(t, "second", summaries[2].VendorID)
}

func TestRankSummaries_ZeroLowestYieldsZeroPercent(t *testing.T) {
	summaries := []*models.TCOSummary{
		{VendorID: "a", TotalTCO: 0},
		{VendorID: "b", TotalTCO: 8000},
	}

	rankSummaries(summaries)

	assert.Equal(t, 0.0, summaries[0].PercentVsLowest)
	assert.Equal(t, 0.0, summaries[1].PercentVsLowest)
}

func TestRankSummaries_EmptyIsNoOp(t *testing.T) {
	rankSummaries(nil)
}

// ==========================
// 3. Service
// ==========================

func setupTCOService(t *testing.T) (*Service, *sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := NewService(
		store.NewCostEntryStore(db),
		store.NewTCOSummaryStore(db),
		nil,
		3,
		logger.NewTestLogger(t),
	)
	return svc, db, mock
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

func TestCalculate_UpsertsAndReranks(t *testing.T) {
	svc, db, mock := setupTCOService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM cost_entries`).
		WithArgs("proj-1", "vendor-a").
		WillReturnRows(costEntryRows().AddRow(
			"e1", "proj-1", "vendor-a", "licensing", "",
			10000.0, 10000.0, 10000.0, 0.0, 0.0,
			true, false, "", time.Now(), time.Now()))
	mock.ExpectExec(`INSERT INTO tco_summaries`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM tco_summaries`).
		WithArgs("proj-1").
		WillReturnRows(tcoSummaryRows().
			AddRow("proj-1", "vendor-b", 3, 0.0, 8000.0, 8000.0, 8000.0, 0.0, 0.0,
				24000.0, 24000.0, 0, 0.0, 0.0, 0, 0.0, time.Now()).
			AddRow("proj-1", "vendor-a", 3, 0.0, 10000.0, 10000.0, 10000.0, 0.0, 0.0,
				30000.0, 30000.0, 0, 0.0, 0.0, 0, 0.0, time.Now()))
	mock.ExpectExec(`UPDATE tco_summaries`).
		WithArgs(1, 0.0, "proj-1", "vendor-b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE tco_summaries`).
		WithArgs(2, 25.0, "proj-1", "vendor-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	summary, err := svc.Calculate(context.Background(), "proj-1", "vendor-a", Options{})

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Years) // default horizon
	assert.Equal(t, 30000.0, summary.TotalTCO)
	assert.Equal(t, 2, summary.Rank)
	assert.InDelta(t, 25.0, summary.PercentVsLowest, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalculate_VendorWithoutEntries(t *testing.T) {
	svc, db, mock := setupTCOService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM cost_entries`).
		WithArgs("proj-1", "ghost").
		WillReturnRows(costEntryRows())

	_, err := svc.Calculate(context.Background(), "proj-1", "ghost", Options{})

	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeVendorNotFound))
}

func TestCalculate_OptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"years out of range", Options{Years: 7}},
		{"negative discount rate", Options{DiscountRate: -0.1}},
		{"negative users", Options{TotalUsers: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, _ := setupTCOService(t)
			defer db.Close()

			_, err := svc.Calculate(context.Background(), "proj-1", "vendor-a", tt.opts)

			assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeValidationFailed))
		})
	}
}

func TestCalculateAll_PartialSuccess(t *testing.T) {
	svc, db, mock := setupTCOService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT vendor_id FROM cost_entries`).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"vendor_id"}).
			AddRow("vendor-a").AddRow("vendor-b"))

	// vendor-a succeeds
	mock.ExpectQuery(`SELECT (.+) FROM cost_entries`).
		WithArgs("proj-1", "vendor-a").
		WillReturnRows(costEntryRows().AddRow(
			"e1", "proj-1", "vendor-a", "licensing", "",
			1000.0, 0.0, 0.0, 0.0, 0.0,
			true, false, "", time.Now(), time.Now()))
	mock.ExpectExec(`INSERT INTO tco_summaries`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM tco_summaries`).
		WithArgs("proj-1").
		WillReturnRows(tcoSummaryRows().
			AddRow("proj-1", "vendor-a", 3, 0.0, 1000.0, 0.0, 0.0, 0.0, 0.0,
				1000.0, 1000.0, 0, 0.0, 0.0, 0, 0.0, time.Now()))
	mock.ExpectExec(`UPDATE tco_summaries`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// vendor-b fails on the entry query
	mock.ExpectQuery(`SELECT (.+) FROM cost_entries`).
		WithArgs("proj-1", "vendor-b").
		WillReturnError(sql.ErrConnDone)

	result, err := svc.CalculateAll(context.Background(), "proj-1", Options{})

	require.NoError(t, err)
	require.Len(t, result.Summaries, 1)
	assert.Equal(t, "vendor-a", result.Summaries[0].VendorID)
	require.Contains(t, result.Failures, "vendor-b")
	assert.NoError(t, mock.ExpectationsWereMet())
}
