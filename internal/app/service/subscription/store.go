package subscription

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/shopcredits/internal/models"
	platformdb "github.com/fatflowers/shopcredits/internal/platform/db"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/tool"
	"github.com/fatflowers/shopcredits/pkg/types"
)

const (
	gidPrefix = "gid://shopify/AppSubscription/"

	// SyntheticPeriod is used when an observation carries no billing period.
	SyntheticPeriod = 30 * 24 * time.Hour
	// rekeySlack is how far a real period may start after the synthesized
	// one and still count as the same billing cycle.
	rekeySlack = 24 * time.Hour
)

var (
	ErrMissingID            = errors.New("subscription id is required")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrShopMismatch         = errors.New("subscription belongs to another shop")
)

// StaleReason explains why an observation was not applied.
type StaleReason string

const (
	StaleOlderPeriod StaleReason = "older_period"
	StaleOlderUpdate StaleReason = "older_update"
	StaleTerminal    StaleReason = "terminal_status"
)

// SortableColumns may be used in admin list filters.
var SortableColumns = []string{
	"shopify_subscription_id", "shop", "plan_name", "status",
	"current_period_end", "is_test", "created_at", "updated_at",
}

// Observation is one sighting of a remote subscription, from any channel.
type Observation struct {
	ID          string
	PlanName    string
	Status      types.SubscriptionStatus
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	TrialStart  *time.Time
	TrialEnd    *time.Time
	IsTest      bool
	// UpdatedAt is the remote updated_at, when the channel provides one.
	UpdatedAt  *time.Time
	ObservedAt time.Time
}

// UpsertOutcome describes what UpsertTx did.
type UpsertOutcome struct {
	Subscription *models.Subscription
	// Previous is the stored row before this observation; nil when created.
	Previous    *models.Subscription
	Created     bool
	StaleReason StaleReason
	// RekeyedFrom is the grant period key moved onto the real period.
	RekeyedFrom string
}

func (o *UpsertOutcome) Stale() bool {
	return o != nil && o.StaleReason != ""
}

// CanonicalID maps the id forms Shopify uses for the same subscription onto
// the GraphQL gid form.
func CanonicalID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if _, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return gidPrefix + raw
	}
	return raw
}

// Store persists subscriptions and their credit grant ledger.
type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: log}
}

// UpsertTx applies obs to the subscription row inside tx. Observations older
// than the stored state are reported as stale and leave the row untouched.
func (s *Store) UpsertTx(ctx context.Context, tx *gorm.DB, shop string, obs Observation) (*UpsertOutcome, error) {
	id := CanonicalID(obs.ID)
	if id == "" {
		return nil, apperr.E(apperr.KindValidation, "subscription.Upsert", ErrMissingID)
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now()
	}

	existing, err := s.lock(tx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		row := newRow(shop, id, obs)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if res.Error != nil {
			return nil, apperr.Persistence("subscription.Upsert", fmt.Errorf("failed to insert subscription: %w", res.Error))
		}
		if res.RowsAffected > 0 {
			logctx.FromCtx(ctx, s.log).Infow("subscription_created", "subscription_id", id, "status", row.Status, "period_synthesized", row.PeriodSynthesized)
			return &UpsertOutcome{Subscription: row, Created: true}, nil
		}
		// lost the insert race; continue as an update of the winner's row
		if existing, err = s.lock(tx, id); err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperr.Persistence("subscription.Upsert", fmt.Errorf("subscription %s vanished after conflict", id))
		}
	}

	if existing.Shop != shop {
		return nil, apperr.Conflict("subscription.Upsert", fmt.Errorf("%w: %s", ErrShopMismatch, id))
	}

	prev := *existing
	out := &UpsertOutcome{Previous: &prev, Subscription: existing}
	if reason := staleReason(existing, obs); reason != "" {
		out.StaleReason = reason
		logctx.FromCtx(ctx, s.log).Infow("subscription_observation_stale", "subscription_id", id, "reason", reason,
			"stored_status", existing.Status, "incoming_status", obs.Status)
		return out, nil
	}

	if obs.PeriodEnd != nil {
		if existing.PeriodSynthesized && sameCycle(existing, obs) {
			from := models.PeriodKey(existing.CurrentPeriodEnd)
			moved, err := s.rekeyGrant(tx, id, from, models.PeriodKey(*obs.PeriodEnd))
			if err != nil {
				return nil, err
			}
			if moved {
				out.RekeyedFrom = from
			}
		}
		existing.CurrentPeriodEnd = *obs.PeriodEnd
		if obs.PeriodStart != nil {
			existing.CurrentPeriodStart = *obs.PeriodStart
		} else if existing.PeriodSynthesized {
			existing.CurrentPeriodStart = obs.PeriodEnd.Add(-SyntheticPeriod)
		}
		existing.PeriodSynthesized = false
	}
	existing.PlanName = obs.PlanName
	existing.Status = obs.Status
	existing.IsTest = obs.IsTest
	if obs.TrialStart != nil {
		existing.TrialStart = obs.TrialStart
	}
	if obs.TrialEnd != nil {
		existing.TrialEnd = obs.TrialEnd
	}
	if obs.UpdatedAt != nil {
		existing.RemoteUpdatedAt = obs.UpdatedAt
	}
	if existing.Status == types.SubscriptionStatusCancelled && existing.CancelledAt == nil {
		existing.CancelledAt = &obs.ObservedAt
	}

	if err := tx.Save(existing).Error; err != nil {
		return nil, apperr.Persistence("subscription.Upsert", fmt.Errorf("failed to update subscription: %w", err))
	}
	return out, nil
}

func newRow(shop, id string, obs Observation) *models.Subscription {
	row := &models.Subscription{
		ShopifySubscriptionID: id,
		Shop:                  shop,
		PlanName:              obs.PlanName,
		Status:                obs.Status,
		TrialStart:            obs.TrialStart,
		TrialEnd:              obs.TrialEnd,
		IsTest:                obs.IsTest,
		RemoteUpdatedAt:       obs.UpdatedAt,
	}
	switch {
	case obs.PeriodEnd == nil:
		row.CurrentPeriodStart = obs.ObservedAt
		row.CurrentPeriodEnd = obs.ObservedAt.Add(SyntheticPeriod)
		row.PeriodSynthesized = true
	case obs.PeriodStart == nil:
		row.CurrentPeriodEnd = *obs.PeriodEnd
		row.CurrentPeriodStart = obs.PeriodEnd.Add(-SyntheticPeriod)
	default:
		row.CurrentPeriodStart = *obs.PeriodStart
		row.CurrentPeriodEnd = *obs.PeriodEnd
	}
	if obs.Status == types.SubscriptionStatusCancelled {
		row.CancelledAt = &obs.ObservedAt
	}
	return row
}

func staleReason(stored *models.Subscription, obs Observation) StaleReason {
	if obs.PeriodEnd != nil && !stored.PeriodSynthesized && obs.PeriodEnd.Before(stored.CurrentPeriodEnd) {
		return StaleOlderPeriod
	}
	if obs.UpdatedAt != nil && stored.RemoteUpdatedAt != nil && obs.UpdatedAt.Before(*stored.RemoteUpdatedAt) {
		return StaleOlderUpdate
	}
	if stored.Status.IsTerminal() && !obs.Status.IsTerminal() {
		return StaleTerminal
	}
	return ""
}

// sameCycle reports whether the real period in obs covers the start of the
// stored synthesized period. A later real period is a renewal and keeps its
// own grant.
func sameCycle(stored *models.Subscription, obs Observation) bool {
	start := obs.PeriodEnd.Add(-SyntheticPeriod)
	if obs.PeriodStart != nil {
		start = *obs.PeriodStart
	}
	return !start.After(stored.CurrentPeriodStart.Add(rekeySlack))
}

func (s *Store) lock(tx *gorm.DB, id string) (*models.Subscription, error) {
	var row models.Subscription
	err := platformdb.ForUpdate(tx).Where("shopify_subscription_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("subscription.lock", err)
	}
	return &row, nil
}

// rekeyGrant moves a grant recorded against a synthesized period onto the
// real period so the same billing period is never credited twice.
func (s *Store) rekeyGrant(tx *gorm.DB, id, from, to string) (bool, error) {
	if from == to {
		return false, nil
	}
	var n int64
	if err := tx.Model(&models.SubscriptionCreditGrant{}).
		Where("shopify_subscription_id = ? AND period_key = ?", id, to).Count(&n).Error; err != nil {
		return false, apperr.Persistence("subscription.rekeyGrant", err)
	}
	if n > 0 {
		return false, nil
	}
	res := tx.Model(&models.SubscriptionCreditGrant{}).
		Where("shopify_subscription_id = ? AND period_key = ?", id, from).
		Update("period_key", to)
	if res.Error != nil {
		return false, apperr.Persistence("subscription.rekeyGrant", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// OtherActiveTx returns the shop's latest active subscription other than
// exceptID whose period has not ended at at, or nil.
func (s *Store) OtherActiveTx(ctx context.Context, tx *gorm.DB, shop, exceptID string, at time.Time) (*models.Subscription, error) {
	var row models.Subscription
	err := tx.Where("shop = ? AND status = ? AND shopify_subscription_id <> ? AND current_period_end > ?",
		shop, types.SubscriptionStatusActive, CanonicalID(exceptID), at).
		Order("current_period_end DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("subscription.OtherActive", err)
	}
	return &row, nil
}

// InsertGrantTx records that the grant's period was credited. It reports
// false when the period already had a grant.
func (s *Store) InsertGrantTx(ctx context.Context, tx *gorm.DB, grant *models.SubscriptionCreditGrant) (bool, error) {
	if grant.ID == "" {
		grant.ID = tool.NewID()
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shopify_subscription_id"}, {Name: "period_key"}},
		DoNothing: true,
	}).Create(grant)
	if res.Error != nil {
		if platformdb.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, apperr.Persistence("subscription.InsertGrant", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Get returns a subscription by any accepted id form.
func (s *Store) Get(ctx context.Context, id string) (*models.Subscription, error) {
	var row models.Subscription
	err := s.db.WithContext(ctx).Where("shopify_subscription_id = ?", CanonicalID(id)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("subscription.Get", fmt.Errorf("%w: %s", ErrSubscriptionNotFound, id))
	}
	if err != nil {
		return nil, apperr.Persistence("subscription.Get", err)
	}
	return &row, nil
}

// ListByShop returns a shop's subscriptions, newest period first.
func (s *Store) ListByShop(ctx context.Context, shop string) ([]*models.Subscription, error) {
	var rows []*models.Subscription
	if err := s.db.WithContext(ctx).Where("shop = ?", shop).Order("current_period_end DESC").Find(&rows).Error; err != nil {
		return nil, apperr.Persistence("subscription.ListByShop", err)
	}
	return rows, nil
}

// ListGrants returns the credit grant ledger of one subscription.
func (s *Store) ListGrants(ctx context.Context, id string) ([]*models.SubscriptionCreditGrant, error) {
	var rows []*models.SubscriptionCreditGrant
	if err := s.db.WithContext(ctx).Where("shopify_subscription_id = ?", CanonicalID(id)).Order("created_at").Find(&rows).Error; err != nil {
		return nil, apperr.Persistence("subscription.ListGrants", err)
	}
	return rows, nil
}

// ScanRequest pages through subscriptions for the admin API.
type ScanRequest struct {
	Filters types.FiltersAnd `json:"filters"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

// Scan lists subscriptions matching filters. Filter fields are checked
// against SortableColumns.
func (s *Store) Scan(ctx context.Context, req *ScanRequest) ([]*models.Subscription, int64, error) {
	for _, f := range req.Filters {
		if err := f.Validate(SortableColumns); err != nil {
			return nil, 0, apperr.Validation("subscription.Scan", err.Error())
		}
	}
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := s.db.WithContext(ctx).Model(&models.Subscription{}).Where(req.Filters).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Persistence("subscription.Scan", err)
	}
	var rows []*models.Subscription
	if err := q.Order("updated_at DESC").Offset(req.Offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, apperr.Persistence("subscription.Scan", err)
	}
	return rows, total, nil
}
