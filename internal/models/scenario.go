// internal/models/scenario.go
package models

import "time"

// AdjustmentType selects how an adjustment value is applied to the matched
// cost sum.
type AdjustmentType string

const (
	AdjustPercent    AdjustmentType = "percent"
	AdjustFixed      AdjustmentType = "fixed"
	AdjustMultiplier AdjustmentType = "multiplier"
)

// ValidAdjustmentType reports whether t is a known adjustment type.
func ValidAdjustmentType(t AdjustmentType) bool {
	switch t {
	case AdjustPercent, AdjustFixed, AdjustMultiplier:
		return true
	}
	return false
}

// Adjustment is one what-if tweak. Variable names a cost slice (a category
// variable like "licensing_cost", or one of the aggregate variables) and
// Value is interpreted per Type.
type Adjustment struct {
	Variable string         `json:"variable"`
	Type     AdjustmentType `json:"type"`
	Value    float64        `json:"value"`
}

// VendorImpact is the per-vendor outcome of a scenario run.
type VendorImpact struct {
	BaselineTCO float64 `json:"baselineTco"`
	AdjustedTCO float64 `json:"adjustedTco"`
	Difference  float64 `json:"difference"`
	OldRank     int     `json:"oldRank"`
	NewRank     int     `json:"newRank"`
	RankChange  int     `json:"rankChange"`
}

// SensitivityScenario is a named set of adjustments plus the results of its
// most recent run. Results are overwritten on each run.
type SensitivityScenario struct {
	ID                    string                   `json:"id"`
	ProjectID             string                   `json:"projectId"`
	Name                  string                   `json:"name"`
	Description           string                   `json:"description,omitempty"`
	Baseline              bool                     `json:"baseline"`
	Adjustments           []Adjustment             `json:"adjustments"`
	Results               map[string]*VendorImpact `json:"results,omitempty"`
	RankingChanged        bool                     `json:"rankingChanged"`
	RecommendationChanged bool                     `json:"recommendationChanged"`
	LastRunAt             *time.Time               `json:"lastRunAt,omitempty"`
	CreatedAt             time.Time                `json:"createdAt"`
	UpdatedAt             time.Time                `json:"updatedAt"`
}
