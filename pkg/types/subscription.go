package types

import "strings"

// SubscriptionStatus is the lowercased Shopify AppSubscription status.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusDeclined  SubscriptionStatus = "declined"
	SubscriptionStatusFrozen    SubscriptionStatus = "frozen"
)

// ParseSubscriptionStatus lowercases and trims a remote status string.
// Shopify uses upper case ("ACTIVE") in GraphQL and webhooks; some older
// payloads spell cancelled as "canceled".
func ParseSubscriptionStatus(raw string) SubscriptionStatus {
	s := SubscriptionStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "canceled" {
		return SubscriptionStatusCancelled
	}
	return s
}

// Known reports whether s is a status Shopify documents.
func (s SubscriptionStatus) Known() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired,
		SubscriptionStatusPending, SubscriptionStatusDeclined, SubscriptionStatusFrozen:
		return true
	}
	return false
}

func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionStatusActive
}

// IsTerminal reports whether Shopify can never move a subscription out of s.
func (s SubscriptionStatus) IsTerminal() bool {
	switch s {
	case SubscriptionStatusCancelled, SubscriptionStatusExpired, SubscriptionStatusDeclined:
		return true
	}
	return false
}

// CreditChangeReason explains why a user's plan or balance changed.
type CreditChangeReason string

const (
	CreditChangeReasonSignup            CreditChangeReason = "signup"
	CreditChangeReasonSubscriptionGrant CreditChangeReason = "subscription_grant"
	CreditChangeReasonPlanChange        CreditChangeReason = "plan_change"
	CreditChangeReasonDiscount          CreditChangeReason = "discount"
	CreditChangeReasonManualOverride    CreditChangeReason = "manual_override"
	CreditChangeReasonConsume           CreditChangeReason = "consume"
)

// ReconcileSource names the channel an observation arrived through.
type ReconcileSource string

const (
	ReconcileSourceWebhook  ReconcileSource = "webhook"
	ReconcileSourceSnapshot ReconcileSource = "snapshot"
	ReconcileSourceAdmin    ReconcileSource = "admin"
	ReconcileSourceDiscount ReconcileSource = "discount"
	ReconcileSourceAPI      ReconcileSource = "api"
)
