// internal/models/cost_entry.go

// Package models holds the domain records shared by the stores, the engine
// services, and the HTTP layer.
package models

import (
	"time"

	"vendoreval-engine/pkg/catalog"
)

// CostEntry is one itemized cost line for a vendor within a project, with
// amounts split over a five year horizon.
type CostEntry struct {
	ID          string               `json:"id"`
	ProjectID   string               `json:"projectId"`
	VendorID    string               `json:"vendorId"`
	Category    catalog.CostCategory `json:"category"`
	Description string               `json:"description"`
	Year1       float64              `json:"year1"`
	Year2       float64              `json:"year2"`
	Year3       float64              `json:"year3"`
	Year4       float64              `json:"year4"`
	Year5       float64              `json:"year5"`
	Recurring   bool                 `json:"recurring"`
	Estimated   bool                 `json:"estimated"`
	SourceNotes string               `json:"sourceNotes,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// YearlyAmounts returns the five year amounts in order.
func (e *CostEntry) YearlyAmounts() [5]float64 {
	return [5]float64{e.Year1, e.Year2, e.Year3, e.Year4, e.Year5}
}

// TotalOverYears sums the first n year amounts (n clamped to 1..5).
func (e *CostEntry) TotalOverYears(n int) float64 {
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	amounts := e.YearlyAmounts()
	var total float64
	for i := 0; i < n; i++ {
		total += amounts[i]
	}
	return total
}

// CostEntryPatch carries a partial update. Nil fields are left untouched.
type CostEntryPatch struct {
	Category    *catalog.CostCategory `json:"category,omitempty"`
	Description *string               `json:"description,omitempty"`
	Year1       *float64              `json:"year1,omitempty"`
	Year2       *float64              `json:"year2,omitempty"`
	Year3       *float64              `json:"year3,omitempty"`
	Year4       *float64              `json:"year4,omitempty"`
	Year5       *float64              `json:"year5,omitempty"`
	Recurring   *bool                 `json:"recurring,omitempty"`
	Estimated   *bool                 `json:"estimated,omitempty"`
	SourceNotes *string               `json:"sourceNotes,omitempty"`
}

// YearPointers returns the patch's year fields in order for uniform handling.
func (p *CostEntryPatch) YearPointers() [5]*float64 {
	return [5]*float64{p.Year1, p.Year2, p.Year3, p.Year4, p.Year5}
}
