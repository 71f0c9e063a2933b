// internal/models/roi.go
package models

import "time"

// BenefitItem is one expected benefit line. AnnualValue applies to every
// year unless a per-year override is present in YearValues.
type BenefitItem struct {
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	AnnualValue float64     `json:"annualValue"`
	YearValues  [5]*float64 `json:"yearValues,omitempty"`
}

// ValueForYear returns the benefit for a year index (0-based), preferring a
// per-year override over the flat annual value.
func (b *BenefitItem) ValueForYear(year int) float64 {
	if year < 0 || year > 4 {
		return 0
	}
	if v := b.YearValues[year]; v != nil {
		return *v
	}
	return b.AnnualValue
}

// ROICalculation is the derived return-on-investment record for one vendor
// in a project. One row per (project, vendor), overwritten on recalculation.
type ROICalculation struct {
	ProjectID        string        `json:"projectId"`
	VendorID         string        `json:"vendorId"`
	YearlyBenefits   [5]float64    `json:"yearlyBenefits"`
	Breakdown        []BenefitItem `json:"breakdown,omitempty"`
	TotalBenefits    float64       `json:"totalBenefits"`
	TotalCosts       float64       `json:"totalCosts"`
	NetBenefit       float64       `json:"netBenefit"`
	ROIPercent       float64       `json:"roiPercent"`
	PaybackMonths    *int          `json:"paybackMonths,omitempty"`
	RiskAdjustment   float64       `json:"riskAdjustment"`
	RiskAdjustedROI  float64       `json:"riskAdjustedRoi"`
	MethodologyNotes string        `json:"methodologyNotes,omitempty"`
	CalculatedAt     time.Time     `json:"calculatedAt"`
}
