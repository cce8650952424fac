package plan

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/fatflowers/shopcredits/pkg/apperr"
	cfgpkg "github.com/fatflowers/shopcredits/pkg/config"
	"github.com/fatflowers/shopcredits/pkg/types"
)

// Unlimited marks a feature limit with no cap.
const Unlimited = -1

// Entry is one row of the plan catalog.
type Entry struct {
	Key              types.PlanKey `json:"key"`
	DisplayName      string        `json:"display_name"`
	Credits          int           `json:"credits"`
	ProductsPerBatch int           `json:"products_per_batch"`
	// MonthlyPriceCents is display only; Shopify owns the charge.
	MonthlyPriceCents int `json:"monthly_price_cents"`
}

var entries = []Entry{
	{Key: types.PlanFree, DisplayName: "Free", Credits: 0, ProductsPerBatch: 5, MonthlyPriceCents: 0},
	{Key: types.PlanStarter, DisplayName: "Starter", Credits: 100, ProductsPerBatch: 50, MonthlyPriceCents: 999},
	{Key: types.PlanPro, DisplayName: "Pro", Credits: 500, ProductsPerBatch: 250, MonthlyPriceCents: 2999},
	{Key: types.PlanEnterprise, DisplayName: "Enterprise", Credits: 2000, ProductsPerBatch: Unlimited, MonthlyPriceCents: 9999},
}

// Catalog maps raw plan names to canonical plans. It is immutable after
// construction and safe for concurrent use.
type Catalog struct {
	byKey   map[types.PlanKey]Entry
	exact   map[string]types.PlanKey
	folded  map[string]types.PlanKey
	appName string
}

// NewCatalog builds the alias table. appName is the partner dashboard app
// name that prefixes Shopify managed-pricing plan names.
func NewCatalog(appName string) *Catalog {
	c := &Catalog{
		byKey:   lo.KeyBy(entries, func(e Entry) types.PlanKey { return e.Key }),
		exact:   make(map[string]types.PlanKey),
		folded:  make(map[string]types.PlanKey),
		appName: strings.TrimSpace(appName),
	}
	for _, e := range entries {
		for _, alias := range aliases(e, c.appName) {
			c.exact[alias] = e.Key
			folded := strings.ToLower(alias)
			if _, taken := c.folded[folded]; !taken {
				c.folded[folded] = e.Key
			}
		}
	}
	return c
}

func aliases(e Entry, appName string) []string {
	key := string(e.Key)
	out := []string{
		key,
		key + "_plan",
		e.DisplayName,
		e.DisplayName + " Plan",
	}
	if appName != "" {
		out = append(out,
			appName+" - "+e.DisplayName,
			appName+" - "+e.DisplayName+" Plan",
		)
	}
	return out
}

// CanonicalPlanKey resolves raw to a plan: exact alias match, then
// case-insensitive match, then free. Unknown names never grant credits.
func (c *Catalog) CanonicalPlanKey(raw string) types.PlanKey {
	if k, ok := c.exact[raw]; ok {
		return k
	}
	if k, ok := c.folded[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return k
	}
	return types.PlanFree
}

// CreditsForPlan returns the credit grant for a raw plan name.
func (c *Catalog) CreditsForPlan(raw string) int {
	return c.byKey[c.CanonicalPlanKey(raw)].Credits
}

// Lookup returns the catalog entry for a canonical key.
func (c *Catalog) Lookup(key types.PlanKey) (Entry, bool) {
	e, ok := c.byKey[key]
	return e, ok
}

// Entries returns the catalog in tier order.
func (c *Catalog) Entries() []Entry {
	return lo.Map(types.PlanKeys, func(k types.PlanKey, _ int) Entry { return c.byKey[k] })
}

// ParsePlanKey accepts only an exact canonical key. Admin input goes
// through here so a typo fails instead of silently meaning free.
func ParsePlanKey(s string) (types.PlanKey, error) {
	k := types.PlanKey(strings.TrimSpace(s))
	if !k.Valid() {
		return "", apperr.Validation("plan.ParsePlanKey", fmt.Sprintf("invalid plan key %q", s))
	}
	return k, nil
}

var defaultCatalog = NewCatalog(cfgpkg.DefaultAppName)

// CanonicalPlanKey resolves raw against the catalog for the default app name.
func CanonicalPlanKey(raw string) types.PlanKey {
	return defaultCatalog.CanonicalPlanKey(raw)
}

// CreditsForPlan returns the credit grant for raw against the default catalog.
func CreditsForPlan(raw string) int {
	return defaultCatalog.CreditsForPlan(raw)
}

func newCatalogFromConfig(cfg *cfgpkg.Config) *Catalog {
	return NewCatalog(cfg.Shopify.AppName)
}

var Module = fx.Options(
	fx.Provide(newCatalogFromConfig),
)
