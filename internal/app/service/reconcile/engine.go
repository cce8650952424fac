package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/shopcredits/internal/app/service/account"
	"github.com/fatflowers/shopcredits/internal/app/service/plan"
	"github.com/fatflowers/shopcredits/internal/app/service/subscription"
	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/metrics"
	"github.com/fatflowers/shopcredits/pkg/types"
)

// Engine aligns a shop's local plan and credits with its Shopify
// subscriptions. Every entry point runs as one transaction with the user row
// locked, so webhook and poll reconciliations of one shop never interleave.
type Engine struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	catalog  *plan.Catalog
	accounts *account.Store
	subs     *subscription.Store
	metrics  *metrics.Business
	now      func() time.Time
}

func NewEngine(db *gorm.DB, log *zap.SugaredLogger, catalog *plan.Catalog, accounts *account.Store, subs *subscription.Store, m *metrics.Business) *Engine {
	return &Engine{
		db:       db,
		log:      log,
		catalog:  catalog,
		accounts: accounts,
		subs:     subs,
		metrics:  m,
		now:      time.Now,
	}
}

// result is what one application of an observation did.
type result struct {
	outcome Outcome
	before  *models.User
	after   *models.User
	granted int
}

func (r *result) changed() bool {
	return r.before.Plan != r.after.Plan || r.before.Credits != r.after.Credits
}

// ReconcileFromWebhook applies a single pushed subscription update. It
// returns an error only when nothing was persisted, so the delivery can be
// retried.
func (e *Engine) ReconcileFromWebhook(ctx context.Context, shop string, ev SubscriptionEvent) error {
	obs, err := e.observationFromEvent(ev)
	if err != nil {
		e.metrics.Reconcile(string(types.ReconcileSourceWebhook), string(OutcomeError))
		return err
	}
	_, err = e.apply(ctx, shop, types.ReconcileSourceWebhook, obs)
	return err
}

// ReconcileFromSnapshot applies the shop's current active subscriptions.
// An empty snapshot never changes anything: missing data is not proof of
// cancellation. Only the first entry is considered.
func (e *Engine) ReconcileFromSnapshot(ctx context.Context, shop string, snapshot []SnapshotSubscription) (*SnapshotResult, error) {
	if len(snapshot) == 0 {
		user, err := e.accounts.GetOrCreate(ctx, shop)
		if err != nil {
			return nil, err
		}
		e.metrics.Reconcile(string(types.ReconcileSourceSnapshot), string(OutcomeNoop))
		return &SnapshotResult{Updated: false, Plan: user.Plan, Credits: user.Credits}, nil
	}
	if len(snapshot) > 1 {
		logctx.FromCtx(ctx, e.log).Warnw("snapshot_multiple_subscriptions", "shop", shop, "count", len(snapshot), "using", snapshot[0].ID)
	}

	first := snapshot[0]
	status := types.ParseSubscriptionStatus(first.Status)
	if first.Status == "" {
		// activeSubscriptions only lists active charges
		status = types.SubscriptionStatusActive
	}
	obs, err := e.observation(first.ID, first.Name, status, subscription.Observation{
		PeriodEnd: first.CurrentPeriodEnd,
		IsTest:    first.Test,
	})
	if err != nil {
		e.metrics.Reconcile(string(types.ReconcileSourceSnapshot), string(OutcomeError))
		return nil, err
	}

	res, err := e.apply(ctx, shop, types.ReconcileSourceSnapshot, obs)
	if err != nil {
		return nil, err
	}
	return &SnapshotResult{Updated: res.changed(), Plan: res.after.Plan, Credits: res.after.Credits}, nil
}

// ManualOverride sets plan and credits straight from the catalog, ignoring
// subscriptions. Only the admin API calls it.
func (e *Engine) ManualOverride(ctx context.Context, shop string, planKey string) (*models.User, error) {
	key, err := plan.ParsePlanKey(planKey)
	if err != nil {
		return nil, err
	}
	entry, _ := e.catalog.Lookup(key)

	var after *models.User
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts := e.accounts.WithTx(tx)
		if _, err := accounts.GetOrCreate(ctx, shop); err != nil {
			return err
		}
		before, err := accounts.Lock(ctx, shop)
		if err != nil {
			return err
		}
		if after, err = accounts.SetPlanAndCredits(ctx, shop, key, entry.Credits); err != nil {
			return err
		}
		return accounts.RecordChange(ctx, before, after, types.CreditChangeReasonManualOverride, types.ReconcileSourceAdmin, "")
	})
	if err != nil {
		e.metrics.Reconcile(string(types.ReconcileSourceAdmin), string(OutcomeError))
		return nil, apperr.Persistence("reconcile.ManualOverride", err)
	}
	e.metrics.Reconcile(string(types.ReconcileSourceAdmin), string(OutcomeApplied))
	logctx.FromCtx(ctx, e.log).Infow("reconcile_manual_override", "shop", after.Shop, "plan", key, "credits", after.Credits)
	return after, nil
}

func (e *Engine) observationFromEvent(ev SubscriptionEvent) (subscription.Observation, error) {
	return e.observation(ev.ID(), ev.PlanName, types.ParseSubscriptionStatus(ev.Status), subscription.Observation{
		PeriodStart: ev.PeriodStart,
		PeriodEnd:   ev.PeriodEnd,
		TrialStart:  ev.TrialStart,
		TrialEnd:    ev.TrialEnd,
		IsTest:      ev.IsTest,
		UpdatedAt:   ev.UpdatedAt,
	})
}

func (e *Engine) observation(id, planName string, status types.SubscriptionStatus, obs subscription.Observation) (subscription.Observation, error) {
	obs.ID = subscription.CanonicalID(id)
	if obs.ID == "" {
		return obs, apperr.E(apperr.KindValidation, "reconcile.observation", subscription.ErrMissingID)
	}
	if !status.Known() {
		return obs, apperr.Validation("reconcile.observation", fmt.Sprintf("unknown subscription status %q", status))
	}
	obs.PlanName = planName
	obs.Status = status
	obs.ObservedAt = e.now()
	return obs, nil
}

// apply runs one observation through the subscription store and brings the
// user in line with it.
func (e *Engine) apply(ctx context.Context, shop string, source types.ReconcileSource, obs subscription.Observation) (*result, error) {
	shop, err := account.NormalizeShop(shop)
	if err != nil {
		return nil, err
	}
	log := logctx.FromCtx(ctx, e.log)

	res := &result{}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts := e.accounts.WithTx(tx)
		if _, err := accounts.GetOrCreate(ctx, shop); err != nil {
			return err
		}
		before, err := accounts.Lock(ctx, shop)
		if err != nil {
			return err
		}
		res.before, res.after = before, before

		up, err := e.subs.UpsertTx(ctx, tx, shop, obs)
		if err != nil {
			return err
		}
		if up.Stale() {
			res.outcome = OutcomeStale
			return nil
		}
		sub := up.Subscription

		target, err := e.targetPlan(ctx, tx, shop, sub)
		if err != nil {
			return err
		}

		reason := types.CreditChangeReasonPlanChange
		if sub.IsActive() && target.IsPaid() {
			entry, _ := e.catalog.Lookup(target)
			inserted, err := e.subs.InsertGrantTx(ctx, tx, &models.SubscriptionCreditGrant{
				ShopifySubscriptionID: sub.ShopifySubscriptionID,
				PeriodKey:             models.PeriodKey(sub.CurrentPeriodEnd),
				Shop:                  shop,
				Plan:                  target,
				Credits:               entry.Credits,
			})
			if err != nil {
				return err
			}
			if inserted && entry.Credits > 0 {
				if res.after, err = accounts.AddCredits(ctx, shop, entry.Credits); err != nil {
					return err
				}
				res.granted = entry.Credits
				reason = types.CreditChangeReasonSubscriptionGrant
			}
		}
		if res.after.Plan != target {
			if res.after, err = accounts.SetPlan(ctx, shop, target); err != nil {
				return err
			}
		}

		if !res.changed() {
			res.outcome = OutcomeNoop
			return nil
		}
		res.outcome = OutcomeApplied
		return accounts.RecordChange(ctx, res.before, res.after, reason, source, sub.ShopifySubscriptionID)
	})
	if err != nil {
		e.metrics.Reconcile(string(source), string(OutcomeError))
		log.Errorw("reconcile_failed", "shop", shop, "source", source, "subscription_id", obs.ID, "error", err)
		return nil, apperr.Persistence("reconcile.apply", err)
	}

	e.metrics.Reconcile(string(source), string(res.outcome))
	if res.granted > 0 {
		e.metrics.CreditsGranted(string(types.CreditChangeReasonSubscriptionGrant), string(res.after.Plan), res.granted)
	}
	log.Infow("reconcile_"+string(res.outcome),
		"shop", shop,
		"source", source,
		"subscription_id", obs.ID,
		"status", obs.Status,
		"plan_before", res.before.Plan,
		"plan_after", res.after.Plan,
		"credits_before", res.before.Credits,
		"credits_after", res.after.Credits,
	)
	return res, nil
}

// targetPlan decides the plan for the shop after sub changed. An inactive
// subscription only demotes to free when no other subscription of the shop
// is still active, so the cancel of a replaced plan does not undo an upgrade.
func (e *Engine) targetPlan(ctx context.Context, tx *gorm.DB, shop string, sub *models.Subscription) (types.PlanKey, error) {
	if sub.IsActive() {
		return e.catalog.CanonicalPlanKey(sub.PlanName), nil
	}
	other, err := e.subs.OtherActiveTx(ctx, tx, shop, sub.ShopifySubscriptionID, e.now())
	if err != nil {
		return "", err
	}
	if other != nil {
		return e.catalog.CanonicalPlanKey(other.PlanName), nil
	}
	return types.PlanFree, nil
}
