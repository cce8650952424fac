package shopify

import (
	"encoding/json"
	"strings"
	"time"
)

// AppSubscriptionWebhook is the body of an app_subscriptions/update webhook.
type AppSubscriptionWebhook struct {
	AppSubscription AppSubscriptionPayload `json:"app_subscription"`
}

// AppSubscriptionPayload is the app_subscription object of the webhook.
// Shopify sends admin_graphql_api_id; some deliveries only carry id.
type AppSubscriptionPayload struct {
	AdminGraphqlAPIID  string          `json:"admin_graphql_api_id"`
	ID                 json.RawMessage `json:"id"`
	Name               string          `json:"name"`
	Status             string          `json:"status"`
	AdminGraphqlShopID string          `json:"admin_graphql_api_shop_id"`
	CreatedAt          *time.Time      `json:"created_at"`
	UpdatedAt          *time.Time      `json:"updated_at"`
	CurrentPeriodEnd   *time.Time      `json:"current_period_end"`
	Currency           string          `json:"currency"`
	CappedAmount       string          `json:"capped_amount"`
	PlanHandle         string          `json:"plan_handle"`
	Test               bool            `json:"test"`
}

// LegacyID returns the numeric id, whether it was sent as a number or a string.
func (p AppSubscriptionPayload) LegacyID() string {
	id := strings.Trim(strings.TrimSpace(string(p.ID)), `"`)
	if id == "null" {
		return ""
	}
	return id
}

// AppSubscription is one node of currentAppInstallation.activeSubscriptions.
type AppSubscription struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd"`
	CreatedAt        *time.Time `json:"createdAt"`
	TrialDays        int        `json:"trialDays"`
	Test             bool       `json:"test"`
}
