// internal/engine/roi/payback.go
package roi

// paybackMonths walks month by month up to maxMonths, accumulating monthly
// benefit minus monthly cost, where each year's monthly figure is its yearly
// total divided by 12. It returns the 1-based index of the first month at
// which the cumulative value turns non-negative, or nil if it never does
// within the window.
func paybackMonths(yearlyBenefits, yearlyCosts []float64, maxMonths int) *int {
	var cumulative float64
	for month := 1; month <= maxMonths; month++ {
		year := (month - 1) / 12
		var benefit, cost float64
		if year < len(yearlyBenefits) {
			benefit = yearlyBenefits[year] / 12
		}
		if year < len(yearlyCosts) {
			cost = yearlyCosts[year] / 12
		}
		cumulative += benefit - cost
		if cumulative >= 0 {
			m := month
			return &m
		}
	}
	return nil
}
