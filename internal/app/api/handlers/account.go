package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/shopcredits/internal/app/api/middleware"
	"github.com/fatflowers/shopcredits/internal/app/service/account"
	"github.com/fatflowers/shopcredits/internal/app/service/discount"
	"github.com/fatflowers/shopcredits/internal/app/service/plan"
	"github.com/fatflowers/shopcredits/pkg/response"
	"github.com/fatflowers/shopcredits/pkg/types"
)

type MeResponse struct {
	Shop                string        `json:"shop"`
	Plan                types.PlanKey `json:"plan"`
	PlanName            string        `json:"plan_name"`
	Credits             int           `json:"credits"`
	ProductsPerBatch    int           `json:"products_per_batch"`
	OnboardingCompleted bool          `json:"onboarding_completed"`
}

type RedeemRequest struct {
	Code string `json:"code"`
}

type ConsumeCreditsRequest struct {
	Amount int `json:"amount"`
	// Ref identifies the job the credits were spent on.
	Ref string `json:"ref"`
}

type BalanceResponse struct {
	Credits int `json:"credits"`
}

// @Summary      Current Shop
// @Description  Returns the authenticated shop's plan and balance, creating the account on first sight.
// @Tags         Account
// @Produce      json
// @Security     SessionToken
// @Success      200  {object}  handlers.RespMe
// @Router       /api/v1/me [get]
func ApiMe(accounts *account.Store, catalog *plan.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := accounts.GetOrCreate(c.Request.Context(), mw.ShopFromGin(c))
		if err != nil {
			fail(c, err)
			return
		}
		entry, _ := catalog.Lookup(user.Plan)
		c.JSON(http.StatusOK, response.OKT(&MeResponse{
			Shop:                user.Shop,
			Plan:                user.Plan,
			PlanName:            entry.DisplayName,
			Credits:             user.Credits,
			ProductsPerBatch:    entry.ProductsPerBatch,
			OnboardingCompleted: user.OnboardingCompleted,
		}))
	}
}

// @Summary      Complete Onboarding
// @Tags         Account
// @Produce      json
// @Security     SessionToken
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/me/onboarding [post]
func ApiCompleteOnboarding(accounts *account.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		shop := mw.ShopFromGin(c)
		if _, err := accounts.GetOrCreate(ctx, shop); err != nil {
			fail(c, err)
			return
		}
		if _, err := accounts.CompleteOnboarding(ctx, shop); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Consume Credits
// @Description  Spends credits from the authenticated shop's balance. Fails with a conflict code when the balance is too low.
// @Tags         Account
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body ConsumeCreditsRequest true "amount to spend"
// @Success      200  {object}  handlers.RespBalance
// @Router       /api/v1/credits/consume [post]
func ApiConsumeCredits(accounts *account.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConsumeCreditsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		user, err := accounts.ConsumeCredits(c.Request.Context(), mw.ShopFromGin(c), req.Amount, req.Ref)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&BalanceResponse{Credits: user.Credits}))
	}
}

// @Summary      Redeem Discount Code
// @Description  Grants the code's credits once per shop. Rejections are returned in data with success=false.
// @Tags         Discount
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body RedeemRequest true "code to redeem"
// @Success      200  {object}  handlers.RespRedeem
// @Router       /api/v1/discounts/redeem [post]
func ApiRedeemDiscount(svc *discount.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svc.Redeem(c.Request.Context(), req.Code, mw.ShopFromGin(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAccountRoutes(r gin.IRouter, accounts *account.Store, catalog *plan.Catalog, discounts *discount.Service) {
	r.GET("/me", ApiMe(accounts, catalog))
	r.POST("/me/onboarding", ApiCompleteOnboarding(accounts))
	r.POST("/credits/consume", ApiConsumeCredits(accounts))
	r.POST("/discounts/redeem", ApiRedeemDiscount(discounts))
}
