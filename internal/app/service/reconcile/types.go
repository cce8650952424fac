package reconcile

import (
	"time"

	"github.com/fatflowers/shopcredits/internal/app/service/subscription"
	"github.com/fatflowers/shopcredits/pkg/types"
)

// SubscriptionEvent is one subscription update pushed by Shopify. Delivery
// paths disagree on the id field, so both are accepted as aliases.
type SubscriptionEvent struct {
	SubscriptionID    string     `json:"subscription_id"`
	AdminGraphqlAPIID string     `json:"admin_graphql_api_id"`
	PlanName          string     `json:"plan_name"`
	Status            string     `json:"status"`
	PeriodStart       *time.Time `json:"period_start,omitempty"`
	PeriodEnd         *time.Time `json:"period_end,omitempty"`
	TrialStart        *time.Time `json:"trial_start,omitempty"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
	IsTest            bool       `json:"is_test"`
	// UpdatedAt is the remote updated_at, used to drop reordered deliveries.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ID resolves the two id aliases to the canonical subscription id.
func (e SubscriptionEvent) ID() string {
	if id := subscription.CanonicalID(e.AdminGraphqlAPIID); id != "" {
		return id
	}
	return subscription.CanonicalID(e.SubscriptionID)
}

// SnapshotSubscription is one entry of currentAppInstallation.activeSubscriptions.
type SnapshotSubscription struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
	Test             bool       `json:"test"`
}

// SnapshotResult reports whether a snapshot changed the user.
type SnapshotResult struct {
	Updated bool          `json:"updated"`
	Plan    types.PlanKey `json:"plan"`
	Credits int           `json:"credits"`
}

// Outcome labels a reconciliation run for logs and metrics.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeNoop    Outcome = "noop"
	OutcomeStale   Outcome = "stale"
	OutcomeError   Outcome = "error"
)
