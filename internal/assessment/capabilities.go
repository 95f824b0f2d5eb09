// internal/assessment/capabilities.go
package assessment

// MaxMaturityScore is the top of the 1-5 self-rating scale.
const MaxMaturityScore = 5

var categoryOrder = []Category{
	CategoryOrganizationFoundations,
	CategoryProductLifecycle,
	CategoryDataInfrastructure,
	CategoryAIMachineLearning,
}

var categoryWeights = map[Category]int{
	CategoryOrganizationFoundations: 4,
	CategoryProductLifecycle:        3,
	CategoryDataInfrastructure:      2,
	CategoryAIMachineLearning:       1,
}

var capabilities = []Capability{
	{ID: "strategy-leadership", Name: "Strategy & Leadership", Category: CategoryOrganizationFoundations},
	{ID: "people-culture", Name: "People & Culture", Category: CategoryOrganizationFoundations},
	{ID: "architecture-governance", Name: "Architecture & Governance", Category: CategoryOrganizationFoundations},

	{ID: "product-management", Name: "Product Management", Category: CategoryProductLifecycle},
	{ID: "user-experience-ethics", Name: "User Experience & Ethics", Category: CategoryProductLifecycle},

	{ID: "data-sourcing", Name: "Data Sourcing", Category: CategoryDataInfrastructure},
	{ID: "data-operations", Name: "Data Operations", Category: CategoryDataInfrastructure},
	{ID: "analytics", Name: "Analytics", Category: CategoryDataInfrastructure},

	{ID: "using-ai-products", Name: "Using AI Products", Category: CategoryAIMachineLearning},
	{ID: "building-ai-products", Name: "Building AI Products", Category: CategoryAIMachineLearning},
	{ID: "customers-ai-products", Name: "Customers AI Products", Category: CategoryAIMachineLearning},
}

var capabilityIndex map[string]Capability

func init() {
	capabilityIndex = make(map[string]Capability, len(capabilities))
	for i := range capabilities {
		capabilities[i].Weight = categoryWeights[capabilities[i].Category]
		capabilityIndex[capabilities[i].ID] = capabilities[i]
	}
}

// Capabilities returns the fixed capability table in survey order.
func Capabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	return out
}

// CapabilityCount is the number of responses a submission must carry.
func CapabilityCount() int {
	return len(capabilities)
}

// CapabilityByID looks up a capability definition.
func CapabilityByID(id string) (Capability, bool) {
	c, ok := capabilityIndex[id]
	return c, ok
}

// Categories returns the four categories in report order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// CategoryWeight returns the weight of c, or 0 for an unknown category.
func CategoryWeight(c Category) int {
	return categoryWeights[c]
}

// MaxScore is the sum of 5*weight over every capability (135).
func MaxScore() int {
	total := 0
	for _, c := range capabilities {
		total += MaxMaturityScore * c.Weight
	}
	return total
}
