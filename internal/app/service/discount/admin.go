package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fatflowers/shopcredits/internal/models"
	platformdb "github.com/fatflowers/shopcredits/internal/platform/db"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/tool"
)

type CreateCodeRequest struct {
	Code           string     `json:"code" binding:"required"`
	CreditsGranted int        `json:"credits_granted" binding:"required"`
	ExpiresAt      *time.Time `json:"expires_at"`
	// MaxRedemptions caps redemptions across shops; 0 is unlimited.
	MaxRedemptions int    `json:"max_redemptions"`
	Description    string `json:"description"`
}

// CreateCode adds a new active discount code.
func (s *Service) CreateCode(ctx context.Context, req *CreateCodeRequest) (*models.DiscountCode, error) {
	code, err := NormalizeCode(req.Code)
	if err != nil {
		return nil, apperr.E(apperr.KindValidation, "discount.CreateCode", err)
	}
	if req.CreditsGranted <= 0 {
		return nil, apperr.Validation("discount.CreateCode", "credits_granted must be positive")
	}
	if req.MaxRedemptions < 0 {
		return nil, apperr.Validation("discount.CreateCode", "max_redemptions must not be negative")
	}

	dc := &models.DiscountCode{
		ID:             tool.NewID(),
		Code:           code,
		CreditsGranted: req.CreditsGranted,
		Active:         true,
		ExpiresAt:      req.ExpiresAt,
		MaxRedemptions: req.MaxRedemptions,
		Description:    req.Description,
	}
	if err := s.db.WithContext(ctx).Create(dc).Error; err != nil {
		if platformdb.IsDuplicateKeyErr(err) {
			return nil, apperr.Conflict("discount.CreateCode", fmt.Errorf("%w: %s", ErrCodeExists, code))
		}
		return nil, apperr.Persistence("discount.CreateCode", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("discount_code_created", "code", code, "credits", dc.CreditsGranted)
	return dc, nil
}

// ListCodes returns discount codes, newest first.
func (s *Service) ListCodes(ctx context.Context, activeOnly bool) ([]*models.DiscountCode, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var codes []*models.DiscountCode
	if err := q.Find(&codes).Error; err != nil {
		return nil, apperr.Persistence("discount.ListCodes", err)
	}
	return codes, nil
}

// DeactivateCode stops a code from being redeemed. Existing redemptions stay.
func (s *Service) DeactivateCode(ctx context.Context, id string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&dc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("discount.DeactivateCode", fmt.Errorf("%w: %s", ErrCodeNotFound, id))
			}
			return err
		}
		dc.Active = false
		return tx.Model(&dc).Update("active", false).Error
	})
	if err != nil {
		return nil, apperr.Persistence("discount.DeactivateCode", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("discount_code_deactivated", "code", dc.Code)
	return &dc, nil
}

// ListRedemptions returns the redemptions of one code.
func (s *Service) ListRedemptions(ctx context.Context, codeID string) ([]*models.DiscountCodeRedemption, error) {
	var rows []*models.DiscountCodeRedemption
	if err := s.db.WithContext(ctx).Where("discount_code_id = ?", codeID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, apperr.Persistence("discount.ListRedemptions", err)
	}
	return rows, nil
}
