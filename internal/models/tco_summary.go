// internal/models/tco_summary.go
package models

import "time"

// TCOSummary is the derived total-cost-of-ownership record for one vendor in
// a project. One row per (project, vendor), overwritten on recalculation.
type TCOSummary struct {
	ProjectID        string     `json:"projectId"`
	VendorID         string     `json:"vendorId"`
	Years            int        `json:"years"`
	DiscountRate     float64    `json:"discountRate"`
	YearlyTotals     [5]float64 `json:"yearlyTotals"`
	TotalTCO         float64    `json:"totalTco"`
	NPVTCO           float64    `json:"npvTco"`
	TotalUsers       int        `json:"totalUsers"`
	CostPerUserYear  float64    `json:"costPerUserYear"`
	CostPerUserMonth float64    `json:"costPerUserMonth"`
	Rank             int        `json:"rank"`
	PercentVsLowest  float64    `json:"percentVsLowest"`
	CalculatedAt     time.Time  `json:"calculatedAt"`
}
