package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/shopcredits/internal/app/service/account"
	"github.com/fatflowers/shopcredits/internal/models"
	platformdb "github.com/fatflowers/shopcredits/internal/platform/db"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/metrics"
	"github.com/fatflowers/shopcredits/pkg/tool"
	"github.com/fatflowers/shopcredits/pkg/types"
)

// MaxCodeLength bounds user input before any lookup.
const MaxCodeLength = 50

var (
	ErrEmptyCode       = errors.New("discount code is empty")
	ErrCodeTooLong     = errors.New("discount code is too long")
	ErrCodeNotFound    = errors.New("discount code not found")
	ErrCodeInactive    = errors.New("discount code is inactive")
	ErrCodeExpired     = errors.New("discount code has expired")
	ErrCodeExhausted   = errors.New("discount code has reached its redemption limit")
	ErrAlreadyRedeemed = errors.New("discount code already redeemed by shop")
	ErrCodeExists      = errors.New("discount code already exists")
)

// Messages shown to merchants. Each rejection is reported distinctly; codes
// are promotional and carry no secret worth hiding.
var rejectionMessages = map[error]string{
	ErrEmptyCode:       "Please enter a discount code",
	ErrCodeTooLong:     "Discount code must be 50 characters or fewer",
	ErrCodeNotFound:    "Invalid discount code",
	ErrCodeInactive:    "This discount code is no longer active",
	ErrCodeExpired:     "This discount code has expired",
	ErrCodeExhausted:   "This discount code has reached its usage limit",
	ErrAlreadyRedeemed: "You have already used this discount code",
}

var rejectionKinds = map[error]apperr.Kind{
	ErrEmptyCode:       apperr.KindValidation,
	ErrCodeTooLong:     apperr.KindValidation,
	ErrCodeNotFound:    apperr.KindNotFound,
	ErrCodeInactive:    apperr.KindValidation,
	ErrCodeExpired:     apperr.KindValidation,
	ErrCodeExhausted:   apperr.KindConflict,
	ErrAlreadyRedeemed: apperr.KindConflict,
}

// RedeemResult is the outcome of a redemption attempt. Rejections are
// results, not errors.
type RedeemResult struct {
	Success        bool        `json:"success"`
	CreditsGranted int         `json:"credits_granted,omitempty"`
	NewBalance     int         `json:"new_balance,omitempty"`
	Error          string      `json:"error,omitempty"`
	Kind           apperr.Kind `json:"kind,omitempty"`
}

func rejected(err error) *RedeemResult {
	return &RedeemResult{Success: false, Error: rejectionMessages[err], Kind: rejectionKinds[err]}
}

// rejection finds the business rejection in err's chain, if any.
func rejection(err error) error {
	for sentinel := range rejectionMessages {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// NormalizeCode trims and upper-cases a code. Codes are stored upper-case
// so lookups are case-insensitive.
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrEmptyCode
	}
	if utf8.RuneCountInString(code) > MaxCodeLength {
		return "", ErrCodeTooLong
	}
	return strings.ToUpper(code), nil
}

type Service struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	accounts *account.Store
	metrics  *metrics.Business
	now      func() time.Time
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, accounts *account.Store, m *metrics.Business) *Service {
	return &Service{db: db, log: log, accounts: accounts, metrics: m, now: time.Now}
}

// Redeem grants the code's credits to shop once. A second attempt by the
// same shop, concurrent or not, is rejected by the unique (code, shop)
// index. Only persistence failures are returned as errors.
func (s *Service) Redeem(ctx context.Context, code, shop string) (*RedeemResult, error) {
	log := logctx.FromCtx(ctx, s.log)

	normalized, err := NormalizeCode(code)
	if err != nil {
		s.metrics.Redemption("invalid")
		return rejected(err), nil
	}
	shop, err = account.NormalizeShop(shop)
	if err != nil {
		return nil, err
	}

	var (
		dc    models.DiscountCode
		after *models.User
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", normalized).First(&dc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("failed to load discount code: %w", err)
		}
		switch {
		case !dc.Active:
			return ErrCodeInactive
		case dc.Expired(s.now()):
			return ErrCodeExpired
		case dc.Exhausted():
			return ErrCodeExhausted
		}

		accounts := s.accounts.WithTx(tx)
		if _, err := accounts.GetOrCreate(ctx, shop); err != nil {
			return err
		}
		before, err := accounts.Lock(ctx, shop)
		if err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "discount_code_id"}, {Name: "shop"}},
			DoNothing: true,
		}).Create(&models.DiscountCodeRedemption{
			ID:             tool.NewID(),
			DiscountCodeID: dc.ID,
			Shop:           shop,
			CreditsGranted: dc.CreditsGranted,
		})
		if res.Error != nil {
			if platformdb.IsDuplicateKeyErr(res.Error) {
				return ErrAlreadyRedeemed
			}
			return fmt.Errorf("failed to insert redemption: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyRedeemed
		}

		bump := tx.Model(&models.DiscountCode{}).
			Where("id = ? AND (max_redemptions = 0 OR redemption_count < max_redemptions)", dc.ID).
			Updates(map[string]any{
				"redemption_count": gorm.Expr("redemption_count + 1"),
				"updated_at":       s.now(),
			})
		if bump.Error != nil {
			return fmt.Errorf("failed to count redemption: %w", bump.Error)
		}
		if bump.RowsAffected == 0 {
			return ErrCodeExhausted
		}

		after = before
		if dc.CreditsGranted > 0 {
			if after, err = accounts.AddCredits(ctx, shop, dc.CreditsGranted); err != nil {
				return err
			}
		}
		return accounts.RecordChange(ctx, before, after, types.CreditChangeReasonDiscount, types.ReconcileSourceDiscount, dc.ID)
	})
	if err != nil {
		if r := rejection(err); r != nil {
			s.metrics.Redemption(string(rejectionKinds[r]))
			log.Infow("discount_rejected", "shop", shop, "code", normalized, "reason", r.Error())
			return rejected(r), nil
		}
		s.metrics.Redemption("error")
		log.Errorw("discount_redeem_failed", "shop", shop, "code", normalized, "error", err)
		return nil, apperr.Persistence("discount.Redeem", err)
	}

	s.metrics.Redemption("success")
	s.metrics.CreditsGranted(string(types.CreditChangeReasonDiscount), string(after.Plan), dc.CreditsGranted)
	log.Infow("discount_redeemed", "shop", shop, "code", normalized, "credits", dc.CreditsGranted, "balance", after.Credits)
	return &RedeemResult{Success: true, CreditsGranted: dc.CreditsGranted, NewBalance: after.Credits}, nil
}
