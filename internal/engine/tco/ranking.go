// internal/engine/tco/ranking.go
package tco

import (
	"sort"

	"vendoreval-engine/internal/models"
)

// rankSummaries orders summaries ascending by total TCO and writes dense
// 1..N ranks plus percent-vs-lowest onto each. The sort is stable so ties
// keep their existing relative order. Empty input is a no-op.
func rankSummaries(summaries []*models.TCOSummary) {
	if len(summaries) == 0 {
		return
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalTCO < summaries[j].TotalTCO
	})

	lowest := summaries[0].TotalTCO
	for i, summary := range summaries {
		summary.Rank = i + 1
		if lowest > 0 {
			summary.PercentVsLowest = (summary.TotalTCO - lowest) / lowest * 100
		} else {
			summary.PercentVsLowest = 0
		}
		if summary.PercentVsLowest < 0 {
			summary.PercentVsLowest = 0
		}
	}
}
