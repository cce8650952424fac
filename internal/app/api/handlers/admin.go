package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/fatflowers/shopcredits/internal/app/service/account"
	"github.com/fatflowers/shopcredits/internal/app/service/discount"
	notificationlog "github.com/fatflowers/shopcredits/internal/app/service/notification_log"
	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	"github.com/fatflowers/shopcredits/internal/app/service/statistics"
	"github.com/fatflowers/shopcredits/internal/app/service/subscription"
	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/pkg/response"
)

type OverridePlanRequest struct {
	Shop string `json:"shop" binding:"required"`
	Plan string `json:"plan" binding:"required"`
}

type ListSubscriptionsResponse struct {
	Items []*models.Subscription `json:"items"`
	Total int64                  `json:"total"`
}

type DiscountCodeItem struct {
	*models.DiscountCode
	Redemptions []*models.DiscountCodeRedemption `json:"redemptions,omitempty"`
}

type ShopDetailResponse struct {
	User          *models.User              `json:"user"`
	Subscriptions []*models.Subscription    `json:"subscriptions"`
	CreditLogs    []*models.CreditLog       `json:"credit_logs"`
	Notifications []*models.NotificationLog `json:"notifications"`
}

// @Summary      Override Plan (Admin)
// @Description  Sets a shop's plan and resets its balance to the plan's credits, ignoring subscriptions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     AdminToken
// @Param        request body OverridePlanRequest true "shop and plan key"
// @Success      200  {object}  handlers.RespUser
// @Router       /api/v1/admin/override_plan [post]
func ApiOverridePlan(engine *reconcile.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OverridePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		user, err := engine.ManualOverride(c.Request.Context(), req.Shop, req.Plan)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	}
}

// @Summary      Create Discount Code (Admin)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     AdminToken
// @Param        request body discount.CreateCodeRequest true "new code"
// @Success      200  {object}  handlers.RespDiscountCode
// @Router       /api/v1/admin/discount_codes [post]
func ApiCreateDiscountCode(svc *discount.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req discount.CreateCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		dc, err := svc.CreateCode(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(dc))
	}
}

// @Summary      List Discount Codes (Admin)
// @Tags         Admin
// @Produce      json
// @Security     AdminToken
// @Param        active_only          query  bool  false  "only active codes"
// @Param        include_redemptions  query  bool  false  "attach redemptions to each code"
// @Success      200  {object}  handlers.RespDiscountCodes
// @Router       /api/v1/admin/discount_codes [get]
func ApiListDiscountCodes(svc *discount.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		codes, err := svc.ListCodes(ctx, c.Query("active_only") == "true")
		if err != nil {
			fail(c, err)
			return
		}
		items := lo.Map(codes, func(dc *models.DiscountCode, _ int) *DiscountCodeItem { return &DiscountCodeItem{DiscountCode: dc} })
		if c.Query("include_redemptions") == "true" {
			for _, it := range items {
				if it.Redemptions, err = svc.ListRedemptions(ctx, it.ID); err != nil {
					fail(c, err)
					return
				}
			}
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

// @Summary      Deactivate Discount Code (Admin)
// @Tags         Admin
// @Produce      json
// @Security     AdminToken
// @Param        id  path  string  true  "discount code id"
// @Success      200  {object}  handlers.RespDiscountCode
// @Router       /api/v1/admin/discount_codes/{id}/deactivate [post]
func ApiDeactivateDiscountCode(svc *discount.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		dc, err := svc.DeactivateCode(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(dc))
	}
}

// @Summary      List Subscriptions (Admin)
// @Description  Pages through stored subscriptions. Filter fields must be one of the sortable columns.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     AdminToken
// @Param        request body subscription.ScanRequest true "filters and paging"
// @Success      200  {object}  handlers.RespListSubscriptions
// @Router       /api/v1/admin/list_subscriptions [post]
func ApiListSubscriptions(subs *subscription.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscription.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		items, total, err := subs.Scan(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ListSubscriptionsResponse{Items: items, Total: total}))
	}
}

// @Summary      Shop Detail (Admin)
// @Description  Returns a shop's account, subscriptions, recent credit log and recent webhook deliveries.
// @Tags         Admin
// @Produce      json
// @Security     AdminToken
// @Param        shop  path  string  true  "shop domain"
// @Success      200  {object}  handlers.RespShopDetail
// @Router       /api/v1/admin/shops/{shop} [get]
func ApiShopDetail(accounts *account.Store, subs *subscription.Store, notif *notificationlog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user, err := accounts.Get(ctx, c.Param("shop"))
		if err != nil {
			fail(c, err)
			return
		}
		out := &ShopDetailResponse{User: user}
		if out.Subscriptions, err = subs.ListByShop(ctx, user.Shop); err != nil {
			fail(c, err)
			return
		}
		if out.CreditLogs, err = accounts.ListCreditLogs(ctx, user.Shop, 0); err != nil {
			fail(c, err)
			return
		}
		if out.Notifications, err = notif.ListByShop(ctx, user.Shop, 0); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

// @Summary      Statistics (Admin)
// @Tags         Admin
// @Produce      json
// @Security     AdminToken
// @Param        data_items  query  string  false  "comma separated statistic ids, all when empty"
// @Success      200  {object}  handlers.RespStatistic
// @Router       /api/v1/admin/statistics [get]
func ApiGetStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &statistics.StatisticRequest{}
		for _, id := range strings.Split(c.Query("data_items"), ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.DataItems = append(req.DataItems, &statistics.StatisticDataItem{ID: statistics.StatisticType(id)})
			}
		}
		res, err := svc.GetStatistic(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type AdminDeps struct {
	Engine        *reconcile.Engine
	Accounts      *account.Store
	Subscriptions *subscription.Store
	Discounts     *discount.Service
	Notifications *notificationlog.Service
	Statistics    *statistics.Service
}

func RegisterAdminRoutes(r gin.IRouter, d AdminDeps) {
	r.POST("/override_plan", ApiOverridePlan(d.Engine))
	r.POST("/discount_codes", ApiCreateDiscountCode(d.Discounts))
	r.GET("/discount_codes", ApiListDiscountCodes(d.Discounts))
	r.POST("/discount_codes/:id/deactivate", ApiDeactivateDiscountCode(d.Discounts))
	r.POST("/list_subscriptions", ApiListSubscriptions(d.Subscriptions))
	r.GET("/shops/:shop", ApiShopDetail(d.Accounts, d.Subscriptions, d.Notifications))
	r.GET("/statistics", ApiGetStatistic(d.Statistics))
}
