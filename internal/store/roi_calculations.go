// internal/store/roi_calculations.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"vendoreval-engine/internal/models"
)

// ROIStore persists ROI calculations keyed by (project, vendor) with
// overwrite-on-recalculate semantics.
type ROIStore struct {
	db *sql.DB
}

func NewROIStore(db *sql.DB) *ROIStore {
	return &ROIStore{db: db}
}

// Upsert writes the calculation, replacing any prior one for the same key.
func (s *ROIStore) Upsert(ctx context.Context, roi *models.ROICalculation) error {
	roi.CalculatedAt = time.Now().UTC()

	breakdown, err := json.Marshal(roi.Breakdown)
	if err != nil {
		return err
	}

	var payback sql.NullInt64
	if roi.PaybackMonths != nil {
		payback = sql.NullInt64{Int64: int64(*roi.PaybackMonths), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO roi_calculations (project_id, vendor_id,
		                              year1_benefit, year2_benefit, year3_benefit, year4_benefit, year5_benefit,
		                              breakdown, total_benefits, total_costs, net_benefit, roi_percent,
		                              payback_months, risk_adjustment, risk_adjusted_roi,
		                              methodology_notes, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (project_id, vendor_id) DO UPDATE SET
		    year1_benefit = EXCLUDED.year1_benefit,
		    year2_benefit = EXCLUDED.year2_benefit,
		    year3_benefit = EXCLUDED.year3_benefit,
		    year4_benefit = EXCLUDED.year4_benefit,
		    year5_benefit = EXCLUDED.year5_benefit,
		    breakdown = EXCLUDED.breakdown,
		    total_benefits = EXCLUDED.total_benefits,
		    total_costs = EXCLUDED.total_costs,
		    net_benefit = EXCLUDED.net_benefit,
		    roi_percent = EXCLUDED.roi_percent,
		    payback_months = EXCLUDED.payback_months,
		    risk_adjustment = EXCLUDED.risk_adjustment,
		    risk_adjusted_roi = EXCLUDED.risk_adjusted_roi,
		    methodology_notes = EXCLUDED.methodology_notes,
		    calculated_at = EXCLUDED.calculated_at`,
		roi.ProjectID, roi.VendorID,
		roi.YearlyBenefits[0], roi.YearlyBenefits[1], roi.YearlyBenefits[2],
		roi.YearlyBenefits[3], roi.YearlyBenefits[4],
		breakdown, roi.TotalBenefits, roi.TotalCosts, roi.NetBenefit, roi.ROIPercent,
		payback, roi.RiskAdjustment, roi.RiskAdjustedROI,
		roi.MethodologyNotes, roi.CalculatedAt,
	)
	return err
}

// Get returns the calculation for one (project, vendor), or sql.ErrNoRows.
func (s *ROIStore) Get(ctx context.Context, projectID, vendorID string) (*models.ROICalculation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT project_id, vendor_id,
		       year1_benefit, year2_benefit, year3_benefit, year4_benefit, year5_benefit,
		       breakdown, total_benefits, total_costs, net_benefit, roi_percent,
		       payback_months, risk_adjustment, risk_adjusted_roi,
		       methodology_notes, calculated_at
		FROM roi_calculations
		WHERE project_id = $1 AND vendor_id = $2`, projectID, vendorID)
	return scanROI(row)
}

// ListByProject returns a project's ROI calculations in first-insert order.
func (s *ROIStore) ListByProject(ctx context.Context, projectID string) ([]*models.ROICalculation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, vendor_id,
		       year1_benefit, year2_benefit, year3_benefit, year4_benefit, year5_benefit,
		       breakdown, total_benefits, total_costs, net_benefit, roi_percent,
		       payback_months, risk_adjustment, risk_adjusted_roi,
		       methodology_notes, calculated_at
		FROM roi_calculations
		WHERE project_id = $1
		ORDER BY calculated_at, vendor_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calcs []*models.ROICalculation
	for rows.Next() {
		roi, err := scanROI(rows)
		if err != nil {
			return nil, err
		}
		calcs = append(calcs, roi)
	}
	return calcs, rows.Err()
}

func scanROI(row rowScanner) (*models.ROICalculation, error) {
	var roi models.ROICalculation
	var breakdown []byte
	var payback sql.NullInt64

	err := row.Scan(
		&roi.ProjectID, &roi.VendorID,
		&roi.YearlyBenefits[0], &roi.YearlyBenefits[1], &roi.YearlyBenefits[2],
		&roi.YearlyBenefits[3], &roi.YearlyBenefits[4],
		&breakdown, &roi.TotalBenefits, &roi.TotalCosts, &roi.NetBenefit, &roi.ROIPercent,
		&payback, &roi.RiskAdjustment, &roi.RiskAdjustedROI,
		&roi.MethodologyNotes, &roi.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &roi.Breakdown); err != nil {
			return nil, err
		}
	}
	if payback.Valid {
		months := int(payback.Int64)
		roi.PaybackMonths = &months
	}
	return &roi, nil
}
