// internal/store/tco_summaries.go
package store

import (
	"context"
	"database/sql"
	"time"

	"vendoreval-engine/internal/models"
)

// TCOSummaryStore persists derived TCO summaries keyed by (project, vendor)
// with overwrite-on-recalculate semantics.
type TCOSummaryStore struct {
	db *sql.DB
}

func NewTCOSummaryStore(db *sql.DB) *TCOSummaryStore {
	return &TCOSummaryStore{db: db}
}

const tcoSummaryColumns = `project_id, vendor_id, years, discount_rate,
		       year1_total, year2_total, year3_total, year4_total, year5_total,
		       total_tco, npv_tco, total_users, cost_per_user_year, cost_per_user_month,
		       rank, percent_vs_lowest, calculated_at`

// Upsert writes the summary, replacing any prior calculation for the same
// (project, vendor). created_at of the first insert is preserved so listing
// order stays stable across recalculations.
func (s *TCOSummaryStore) Upsert(ctx context.Context, summary *models.TCOSummary) error {
	summary.CalculatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tco_summaries (project_id, vendor_id, years, discount_rate,
		                           year1_total, year2_total, year3_total, year4_total, year5_total,
		                           total_tco, npv_tco, total_users, cost_per_user_year, cost_per_user_month,
		                           rank, percent_vs_lowest, calculated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		ON CONFLICT (project_id, vendor_id) DO UPDATE SET
		    years = EXCLUDED.years,
		    discount_rate = EXCLUDED.discount_rate,
		    year1_total = EXCLUDED.year1_total,
		    year2_total = EXCLUDED.year2_total,
		    year3_total = EXCLUDED.year3_total,
		    year4_total = EXCLUDED.year4_total,
		    year5_total = EXCLUDED.year5_total,
		    total_tco = EXCLUDED.total_tco,
		    npv_tco = EXCLUDED.npv_tco,
		    total_users = EXCLUDED.total_users,
		    cost_per_user_year = EXCLUDED.cost_per_user_year,
		    cost_per_user_month = EXCLUDED.cost_per_user_month,
		    rank = EXCLUDED.rank,
		    percent_vs_lowest = EXCLUDED.percent_vs_lowest,
		    calculated_at = EXCLUDED.calculated_at`,
		summary.ProjectID, summary.VendorID, summary.Years, summary.DiscountRate,
		summary.YearlyTotals[0], summary.YearlyTotals[1], summary.YearlyTotals[2],
		summary.YearlyTotals[3], summary.YearlyTotals[4],
		summary.TotalTCO, summary.NPVTCO, summary.TotalUsers,
		summary.CostPerUserYear, summary.CostPerUserMonth,
		summary.Rank, summary.PercentVsLowest, summary.CalculatedAt,
	)
	return err
}

// Get returns the summary for one (project, vendor), or sql.ErrNoRows.
func (s *TCOSummaryStore) Get(ctx context.Context, projectID, vendorID string) (*models.TCOSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+tcoSummaryColumns+`
		FROM tco_summaries
		WHERE project_id = $1 AND vendor_id = $2`, projectID, vendorID)
	return scanTCOSummary(row)
}

// ListByProject returns all summaries of a project in first-insert order.
// Ties on total TCO keep this order when ranking.
func (s *TCOSummaryStore) ListByProject(ctx context.Context, projectID string) ([]*models.TCOSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tcoSummaryColumns+`
		FROM tco_summaries
		WHERE project_id = $1
		ORDER BY created_at, vendor_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.TCOSummary
	for rows.Next() {
		summary, err := scanTCOSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// UpdateRanks writes rank and percent-vs-lowest back onto each summary row.
func (s *TCOSummaryStore) UpdateRanks(ctx context.Context, summaries []*models.TCOSummary) error {
	for _, summary := range summaries {
		_, err := s.db.ExecContext(ctx, `
			UPDATE tco_summaries
			SET rank = $1, percent_vs_lowest = $2
			WHERE project_id = $3 AND vendor_id = $4`,
			summary.Rank, summary.PercentVsLowest, summary.ProjectID, summary.VendorID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanTCOSummary(row rowScanner) (*models.TCOSummary, error) {
	var summary models.TCOSummary
	err := row.Scan(
		&summary.ProjectID, &summary.VendorID, &summary.Years, &summary.DiscountRate,
		&summary.YearlyTotals[0], &summary.YearlyTotals[1], &summary.YearlyTotals[2],
		&summary.YearlyTotals[3], &summary.YearlyTotals[4],
		&summary.TotalTCO, &summary.NPVTCO, &summary.TotalUsers,
		&summary.CostPerUserYear, &summary.CostPerUserMonth,
		&summary.Rank, &summary.PercentVsLowest, &summary.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
