package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/shopcredits/internal/models"
	platformdb "github.com/fatflowers/shopcredits/internal/platform/db"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/config"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/metrics"
	"github.com/fatflowers/shopcredits/pkg/tool"
	"github.com/fatflowers/shopcredits/pkg/types"
)

var (
	ErrInvalidShop         = errors.New("shop is required")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNegativeCredits     = errors.New("credits must not be negative")
)

// Store persists the per-shop plan and credit balance.
type Store struct {
	db            *gorm.DB
	log           *zap.SugaredLogger
	metrics       *metrics.Business
	signupCredits int
	inTx          bool
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger, cfg *config.Config, m *metrics.Business) *Store {
	return &Store{db: db, log: log, metrics: m, signupCredits: cfg.SignupCredits}
}

// WithTx returns a copy of the store bound to tx. Every call on the copy
// runs inside that transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	cp := *s
	cp.db = tx
	cp.inTx = true
	return &cp
}

// NormalizeShop lowercases and trims a shop domain.
func NormalizeShop(shop string) (string, error) {
	shop = strings.ToLower(strings.TrimSpace(shop))
	if shop == "" {
		return "", apperr.E(apperr.KindValidation, "account.NormalizeShop", ErrInvalidShop)
	}
	return shop, nil
}

func (s *Store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.inTx {
		return fn(s.db.WithContext(ctx))
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// GetOrCreate returns the user for shop, creating it with the free plan and
// signup credits on first contact. Concurrent first calls for the same shop
// produce exactly one row.
func (s *Store) GetOrCreate(ctx context.Context, shop string) (*models.User, error) {
	shop, err := NormalizeShop(shop)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		created := &models.User{Shop: shop, Plan: types.PlanFree, Credits: s.signupCredits}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop"}},
			DoNothing: true,
		}).Create(created)
		if res.Error != nil {
			return fmt.Errorf("failed to insert user: %w", res.Error)
		}
		if err := tx.Where("shop = ?", shop).First(&user).Error; err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		logctx.FromCtx(ctx, s.log).Infow("user_created", "shop", shop, "credits", user.Credits)
		s.metrics.CreditsGranted(string(types.CreditChangeReasonSignup), string(types.PlanFree), user.Credits)
		return s.recordChange(tx, nil, &user, types.CreditChangeReasonSignup, types.ReconcileSourceAPI, "")
	})
	if err != nil {
		return nil, apperr.Persistence("account.GetOrCreate", err)
	}
	return &user, nil
}

// Get returns the user for shop or a NotFound error.
func (s *Store) Get(ctx context.Context, shop string) (*models.User, error) {
	shop, err := NormalizeShop(shop)
	if err != nil {
		return nil, err
	}
	return s.get(s.db.WithContext(ctx), shop, false)
}

// Lock loads the user row for update. On drivers without row locks the
// transaction itself serialises writers.
func (s *Store) Lock(ctx context.Context, shop string) (*models.User, error) {
	shop, err := NormalizeShop(shop)
	if err != nil {
		return nil, err
	}
	return s.get(s.db.WithContext(ctx), shop, true)
}

func (s *Store) get(tx *gorm.DB, shop string, forUpdate bool) (*models.User, error) {
	q := tx
	if forUpdate {
		q = platformdb.ForUpdate(tx)
	}
	var user models.User
	if err := q.Where("shop = ?", shop).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("account.Get", fmt.Errorf("%w: %s", ErrUserNotFound, shop))
		}
		return nil, apperr.Persistence("account.Get", err)
	}
	return &user, nil
}

// SetPlanAndCredits overwrites both plan and balance.
func (s *Store) SetPlanAndCredits(ctx context.Context, shop string, plan types.PlanKey, credits int) (*models.User, error) {
	if !plan.Valid() {
		return nil, apperr.Validation("account.SetPlanAndCredits", fmt.Sprintf("invalid plan %q", plan))
	}
	if credits < 0 {
		return nil, apperr.E(apperr.KindValidation, "account.SetPlanAndCredits", ErrNegativeCredits)
	}
	return s.update(ctx, "account.SetPlanAndCredits", shop, map[string]any{"plan": plan, "credits": credits})
}

// SetPlan changes the plan and leaves the balance alone.
func (s *Store) SetPlan(ctx context.Context, shop string, plan types.PlanKey) (*models.User, error) {
	if !plan.Valid() {
		return nil, apperr.Validation("account.SetPlan", fmt.Sprintf("invalid plan %q", plan))
	}
	return s.update(ctx, "account.SetPlan", shop, map[string]any{"plan": plan})
}

// SetCredits overwrites the balance.
func (s *Store) SetCredits(ctx context.Context, shop string, credits int) (*models.User, error) {
	if credits < 0 {
		return nil, apperr.E(apperr.KindValidation, "account.SetCredits", ErrNegativeCredits)
	}
	return s.update(ctx, "account.SetCredits", shop, map[string]any{"credits": credits})
}

// CompleteOnboarding flags the shop as onboarded.
func (s *Store) CompleteOnboarding(ctx context.Context, shop string) (*models.User, error) {
	return s.update(ctx, "account.CompleteOnboarding", shop, map[string]any{"onboarding_completed": true})
}

func (s *Store) update(ctx context.Context, op, shop string, values map[string]any) (*models.User, error) {
	shop, err := NormalizeShop(shop)
	if err != nil {
		return nil, err
	}
	values["updated_at"] = time.Now()

	var user *models.User
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("shop = ?", shop).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(op, fmt.Errorf("%w: %s", ErrUserNotFound, shop))
		}
		user, err = s.get(tx, shop, false)
		return err
	})
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return user, nil
}

// AddCredits changes the balance by delta in a single statement so
// concurrent grants never lose updates. A negative delta that would take the
// balance below zero fails with ErrInsufficientCredits.
func (s *Store) AddCredits(ctx context.Context, shop string, delta int) (*models.User, error) {
	shop, err := NormalizeShop(shop)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		q := tx.Model(&models.User{}).Where("shop = ?", shop)
		if delta < 0 {
			q = q.Where("credits >= ?", -delta)
		}
		res := q.Updates(map[string]any{
			"credits":    gorm.Expr("credits + ?", delta),
			"updated_at": time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if _, err := s.get(tx, shop, false); err != nil {
				return err
			}
			return apperr.Conflict("account.AddCredits", ErrInsufficientCredits)
		}
		user, err = s.get(tx, shop, false)
		return err
	})
	if err != nil {
		return nil, apperr.Persistence("account.AddCredits", err)
	}
	return user, nil
}

// ConsumeCredits spends n credits and records the spend.
func (s *Store) ConsumeCredits(ctx context.Context, shop string, n int, ref string) (*models.User, error) {
	if n <= 0 {
		return nil, apperr.Validation("account.ConsumeCredits", "amount must be positive")
	}

	var user *models.User
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		st := s.WithTx(tx)
		before, err := st.Lock(ctx, shop)
		if err != nil {
			return err
		}
		user, err = st.AddCredits(ctx, shop, -n)
		if err != nil {
			return err
		}
		return st.RecordChange(ctx, before, user, types.CreditChangeReasonConsume, types.ReconcileSourceAPI, ref)
	})
	if err != nil {
		return nil, apperr.Persistence("account.ConsumeCredits", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("credits_consumed", "shop", user.Shop, "amount", n, "balance", user.Credits)
	return user, nil
}

// RecordChange appends a credit log row for a plan or balance change.
func (s *Store) RecordChange(ctx context.Context, before, after *models.User, reason types.CreditChangeReason, source types.ReconcileSource, ref string) error {
	if err := s.recordChange(s.db.WithContext(ctx), before, after, reason, source, ref); err != nil {
		return apperr.Persistence("account.RecordChange", err)
	}
	return nil
}

func (s *Store) recordChange(tx *gorm.DB, before, after *models.User, reason types.CreditChangeReason, source types.ReconcileSource, ref string) error {
	if after == nil {
		return fmt.Errorf("credit log needs the resulting user")
	}
	delta := after.Credits
	if before != nil {
		delta -= before.Credits
	}
	entry := &models.CreditLog{
		ID:     tool.NewID(),
		Shop:   after.Shop,
		Reason: reason,
		Source: source,
		Delta:  delta,
		Ref:    ref,
		Before: datatypes.NewJSONType(before),
		After:  datatypes.NewJSONType(after),
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write credit log: %w", err)
	}
	return nil
}

// ListCreditLogs returns the most recent credit log rows for shop.
func (s *Store) ListCreditLogs(ctx context.Context, shop string, limit int) ([]*models.CreditLog, error) {
	shop, err := NormalizeShop(shop)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []*models.CreditLog
	if err := s.db.WithContext(ctx).Where("shop = ?", shop).Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, apperr.Persistence("account.ListCreditLogs", err)
	}
	return logs, nil
}
