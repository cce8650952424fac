package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const businessSubsystem = "shopcredits"

var reconcileTotal = &Metric{
	ID:          "reconcileTotal",
	Name:        "reconcile_total",
	Description: "Reconciliation runs partitioned by source and outcome (applied, noop, stale, error).",
	Type:        "counter_vec",
	Args:        []string{"source", "outcome"},
}

var creditsGranted = &Metric{
	ID:          "creditsGranted",
	Name:        "credits_granted_total",
	Description: "Credits added to shop balances, partitioned by reason and plan.",
	Type:        "counter_vec",
	Args:        []string{"reason", "plan"},
}

var redemptionTotal = &Metric{
	ID:          "redemptionTotal",
	Name:        "discount_redemption_total",
	Description: "Discount code redemption attempts partitioned by outcome.",
	Type:        "counter_vec",
	Args:        []string{"outcome"},
}

var webhookTotal = &Metric{
	ID:          "webhookTotal",
	Name:        "webhook_total",
	Description: "Shopify webhook deliveries partitioned by topic and status.",
	Type:        "counter_vec",
	Args:        []string{"topic", "status"},
}

// Business holds the domain counters. A nil *Business is valid and records
// nothing, so services can be built without metrics in tests.
type Business struct {
	reconcile  *prometheus.CounterVec
	credits    *prometheus.CounterVec
	redemption *prometheus.CounterVec
	webhook    *prometheus.CounterVec
}

func NewBusiness(reg prometheus.Registerer) *Business {
	return &Business{
		reconcile:  register(reg, NewMetric(reconcileTotal, businessSubsystem).(*prometheus.CounterVec)),
		credits:    register(reg, NewMetric(creditsGranted, businessSubsystem).(*prometheus.CounterVec)),
		redemption: register(reg, NewMetric(redemptionTotal, businessSubsystem).(*prometheus.CounterVec)),
		webhook:    register(reg, NewMetric(webhookTotal, businessSubsystem).(*prometheus.CounterVec)),
	}
}

// NewDefaultBusiness registers on the process-wide registry.
func NewDefaultBusiness() *Business {
	return NewBusiness(prometheus.DefaultRegisterer)
}

func (b *Business) Reconcile(source, outcome string) {
	if b == nil {
		return
	}
	b.reconcile.WithLabelValues(source, outcome).Inc()
}

func (b *Business) CreditsGranted(reason, plan string, n int) {
	if b == nil || n <= 0 {
		return
	}
	b.credits.WithLabelValues(reason, plan).Add(float64(n))
}

func (b *Business) Redemption(outcome string) {
	if b == nil {
		return
	}
	b.redemption.WithLabelValues(outcome).Inc()
}

func (b *Business) Webhook(topic, status string) {
	if b == nil {
		return
	}
	b.webhook.WithLabelValues(topic, status).Inc()
}

// ReconcileCounter exposes one reconcile series, mainly for tests.
func (b *Business) ReconcileCounter(source, outcome string) prometheus.Counter {
	return b.reconcile.WithLabelValues(source, outcome)
}

// RedemptionCounter exposes one redemption series, mainly for tests.
func (b *Business) RedemptionCounter(outcome string) prometheus.Counter {
	return b.redemption.WithLabelValues(outcome)
}

var Module = fx.Options(
	fx.Provide(NewDefaultBusiness),
)
