// pkg/catalog/catalog.go
package catalog

// CostCategory is one of the fixed cost categories a ledger entry can carry.
type CostCategory string

const (
	CategoryLicensing      CostCategory = "licensing"
	CategoryImplementation CostCategory = "implementation"
	CategoryTraining       CostCategory = "training"
	CategoryMaintenance    CostCategory = "maintenance"
	CategorySupport        CostCategory = "support"
	CategoryInfrastructure CostCategory = "infrastructure"
	CategoryCustomization  CostCategory = "customization"
	CategoryDataMigration  CostCategory = "data_migration"
	CategoryOther          CostCategory = "other"
)

// categoryRecurring tags each category as typically recurring or one-time.
var categoryRecurring = map[CostCategory]bool{
	CategoryLicensing:      true,
	CategoryImplementation: false,
	CategoryTraining:       false,
	CategoryMaintenance:    true,
	CategorySupport:        true,
	CategoryInfrastructure: true,
	CategoryCustomization:  false,
	CategoryDataMigration:  false,
	CategoryOther:          false,
}

// All returns every cost category in declaration order.
func All() []CostCategory {
	return []CostCategory{
		CategoryLicensing,
		CategoryImplementation,
		CategoryTraining,
		CategoryMaintenance,
		CategorySupport,
		CategoryInfrastructure,
		CategoryCustomization,
		CategoryDataMigration,
		CategoryOther,
	}
}

// Valid reports whether c is one of the fixed categories.
func Valid(c CostCategory) bool {
	_, ok := categoryRecurring[c]
	return ok
}

// IsRecurring reports whether the category is tagged as typically recurring.
func IsRecurring(c CostCategory) bool {
	return categoryRecurring[c]
}

func recurring() []CostCategory {
	var out []CostCategory
	for _, c := range All() {
		if categoryRecurring[c] {
			out = append(out, c)
		}
	}
	return out
}

func oneTime() []CostCategory {
	var out []CostCategory
	for _, c := range All() {
		if !categoryRecurring[c] {
			out = append(out, c)
		}
	}
	return out
}

// variableCategories is the closed-world dispatch table that resolves a
// sensitivity adjustment variable to the cost categories it targets.
var variableCategories = map[string][]CostCategory{
	"licensing_cost":      {CategoryLicensing},
	"implementation_cost": {CategoryImplementation},
	"training_cost":       {CategoryTraining},
	"maintenance_cost":    {CategoryMaintenance},
	"support_cost":        {CategorySupport},
	"infrastructure_cost": {CategoryInfrastructure},
	"customization_cost":  {CategoryCustomization},
	"data_migration_cost": {CategoryDataMigration},
	"other_cost":          {CategoryOther},
	"all_costs":           All(),
	"recurring_costs":     recurring(),
	"one_time_costs":      oneTime(),
}

// ResolveVariable maps an adjustment variable name to the set of categories
// it addresses. An unrecognized variable is treated as a literal category
// name, which may match nothing.
func ResolveVariable(variable string) []CostCategory {
	if cats, ok := variableCategories[variable]; ok {
		return cats
	}
	return []CostCategory{CostCategory(variable)}
}
