package types

// PlanKey is the canonical identifier of a billing plan. Raw display names
// coming from Shopify are never stored; they are normalized to a PlanKey first.
type PlanKey string

const (
	PlanFree       PlanKey = "free"
	PlanStarter    PlanKey = "starter"
	PlanPro        PlanKey = "pro"
	PlanEnterprise PlanKey = "enterprise"
)

// PlanKeys lists every canonical plan in ascending tier order.
var PlanKeys = []PlanKey{PlanFree, PlanStarter, PlanPro, PlanEnterprise}

func (k PlanKey) Valid() bool {
	switch k {
	case PlanFree, PlanStarter, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

func (k PlanKey) IsPaid() bool {
	return k.Valid() && k != PlanFree
}
