package entitlement

import (
	"sort"

	"ai-chatbot-be/internal/entity"
)

// Plan is a purchasable product. Prices are in IDR, the checkout currency.
type Plan struct {
	Id     string                  `json:"id"`
	Name   string                  `json:"name"`
	Tier   entity.SubscriptionTier `json:"tier"`
	Months int                     `json:"months"`
	Price  int64                   `json:"price"`
}

var catalog = map[string]Plan{
	"basic_monthly": {Id: "basic_monthly", Name: "Basic", Tier: entity.TierBasic, Months: 1, Price: 49000},
	"pro_monthly":   {Id: "pro_monthly", Name: "Pro", Tier: entity.TierPro, Months: 1, Price: 149000},
	"ultra_monthly": {Id: "ultra_monthly", Name: "Ultra", Tier: entity.TierUltra, Months: 1, Price: 299000},
	"pro_yearly":    {Id: "pro_yearly", Name: "Pro (yearly)", Tier: entity.TierPro, Months: 12, Price: 1490000},
	"ultra_yearly":  {Id: "ultra_yearly", Name: "Ultra (yearly)", Tier: entity.TierUltra, Months: 12, Price: 2990000},
}

func PlanByID(id string) (Plan, bool) {
	p, ok := catalog[id]
	return p, ok
}

// Plans returns the catalog ordered by price.
func Plans() []Plan {
	out := make([]Plan, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}
