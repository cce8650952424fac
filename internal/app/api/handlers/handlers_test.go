package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	mw "github.com/fatflowers/shopcredits/internal/app/api/middleware"
	"github.com/fatflowers/shopcredits/internal/app/service/account"
	"github.com/fatflowers/shopcredits/internal/app/service/discount"
	nh "github.com/fatflowers/shopcredits/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/shopcredits/internal/app/service/notification_log"
	"github.com/fatflowers/shopcredits/internal/app/service/plan"
	"github.com/fatflowers/shopcredits/internal/app/service/reconcile"
	"github.com/fatflowers/shopcredits/internal/app/service/statistics"
	"github.com/fatflowers/shopcredits/internal/app/service/subscription"
	"github.com/fatflowers/shopcredits/internal/platform/db/dbtest"
	"github.com/fatflowers/shopcredits/internal/platform/shopify"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/config"
	"github.com/fatflowers/shopcredits/pkg/logctx"
	"github.com/fatflowers/shopcredits/pkg/metrics"
	"github.com/fatflowers/shopcredits/pkg/response"
	"github.com/fatflowers/shopcredits/pkg/types"
)

const (
	testShop   = "handlers.myshopify.com"
	testSecret = "api-secret"
)

type stubShopify struct {
	subs      []shopify.AppSubscription
	exchErr   error
	queryErr  error
	exchCalls int
}

func (s *stubShopify) ExchangeSessionToken(_ context.Context, shop, token string) (string, error) {
	s.exchCalls++
	if s.exchErr != nil {
		return "", s.exchErr
	}
	return "access-" + shop, nil
}

func (s *stubShopify) ActiveSubscriptions(_ context.Context, _, accessToken string) ([]shopify.AppSubscription, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.subs, nil
}

type stubThrottle struct {
	allow    bool
	err      error
	released *int
}

func (s stubThrottle) Allow(context.Context, string) (bool, error) { return s.allow, s.err }

func (s stubThrottle) Release(context.Context, string) error {
	if s.released != nil {
		*s.released++
	}
	return nil
}

type fixture struct {
	db        *gorm.DB
	cfg       *config.Config
	accounts  *account.Store
	subs      *subscription.Store
	engine    *reconcile.Engine
	discounts *discount.Service
	notif     *notificationlog.Service
	handler   *nh.NotificationHandler
	stats     *statistics.Service
	catalog   *plan.Catalog
	log       *zap.SugaredLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := dbtest.Open(t)
	log := zap.NewNop().Sugar()
	m := metrics.NewBusiness(prometheus.NewRegistry())
	cfg := &config.Config{
		SignupCredits: config.DefaultSignupCredits,
		Shopify:       config.ShopifyConfig{APISecret: testSecret, AppName: config.DefaultAppName},
		Admin:         config.AdminConfig{Token: "admin"},
	}
	catalog := plan.NewCatalog(cfg.Shopify.AppName)
	accounts := account.NewStore(gdb, log, cfg, m)
	subs := subscription.NewStore(gdb, log)
	engine := reconcile.NewEngine(gdb, log, catalog, accounts, subs, m)
	notif := notificationlog.New(gdb, log)
	return &fixture{
		db:        gdb,
		cfg:       cfg,
		accounts:  accounts,
		subs:      subs,
		engine:    engine,
		discounts: discount.NewService(gdb, log, accounts, m),
		notif:     notif,
		handler:   nh.NewNotificationHandler(notif, engine, m, log),
		stats:     statistics.New(gdb),
		catalog:   catalog,
		log:       log,
	}
}

// asShop stands in for session auth.
func asShop(shop string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(logctx.GinShopKey, shop)
		c.Set(mw.GinSessionTokenKey, "session-jwt")
		c.Next()
	}
}

func do(r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) *response.APIResponse[T] {
	t.Helper()
	var out response.APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return &out
}

func (f *fixture) webhookRouter() *gin.Engine {
	r := gin.New()
	g := r.Group("/webhooks", mw.WebhookAuthMiddleware(f.cfg, f.log))
	RegisterWebhookRoutes(g, f.handler)
	return r
}

func webhookHeaders(body []byte, secret, id string) map[string]string {
	return map[string]string{
		shopify.HeaderHmac:       shopify.SignWebhook(secret, body),
		shopify.HeaderTopic:      shopify.TopicAppSubscriptionsUpdate,
		shopify.HeaderShopDomain: testShop,
		shopify.HeaderWebhookID:  id,
	}
}

func TestApiShopifyWebhook(t *testing.T) {
	f := newFixture(t)
	r := f.webhookRouter()
	end := time.Now().Add(20 * 24 * time.Hour).UTC().Format(time.RFC3339)
	body := []byte(fmt.Sprintf(`{"app_subscription":{"admin_graphql_api_id":"gid://shopify/AppSubscription/1","name":"Pro","status":"ACTIVE","current_period_end":%q}}`, end))

	w := do(r, http.MethodPost, "/webhooks/shopify", body, webhookHeaders(body, testSecret, "wh-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, response.APIResponseCodeOK, decode[any](t, w).Code)

	u, err := f.accounts.Get(context.Background(), testShop)
	require.NoError(t, err)
	require.Equal(t, types.PlanPro, u.Plan)
	require.Equal(t, 10+500, u.Credits)

	// same delivery again changes nothing
	w = do(r, http.MethodPost, "/webhooks/shopify", body, webhookHeaders(body, testSecret, "wh-1"))
	require.Equal(t, http.StatusOK, w.Code)
	u, err = f.accounts.Get(context.Background(), testShop)
	require.NoError(t, err)
	require.Equal(t, 510, u.Credits)

	w = do(r, http.MethodPost, "/webhooks/shopify", body, webhookHeaders(body, "wrong", "wh-2"))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	bad := []byte(`{"app_subscription":{"admin_graphql_api_id":"gid://shopify/AppSubscription/1","status":"PAUSED_FOREVER"}}`)
	w = do(r, http.MethodPost, "/webhooks/shopify", bad, webhookHeaders(bad, testSecret, "wh-3"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.APIResponseCodeBadRequest, decode[any](t, w).Code)

	logs, err := f.notif.ListByShop(context.Background(), testShop, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
}

func TestApiShopifyWebhook_OtherTopicAcknowledged(t *testing.T) {
	f := newFixture(t)
	r := f.webhookRouter()
	body := []byte(`{"id":1}`)
	h := webhookHeaders(body, testSecret, "wh-9")
	h[shopify.HeaderTopic] = shopify.TopicAppUninstalled

	w := do(r, http.MethodPost, "/webhooks/shopify", body, h)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := f.accounts.Get(context.Background(), testShop)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func (f *fixture) billingRouter(api ShopifyBilling, throttle stubThrottle) *gin.Engine {
	r := gin.New()
	g := r.Group("/api/v1/billing", asShop(testShop))
	RegisterBillingRoutes(g, api, throttle, f.engine, f.accounts, f.log)
	return r
}

func TestApiBillingStatus(t *testing.T) {
	f := newFixture(t)
	end := time.Now().Add(10 * 24 * time.Hour)
	api := &stubShopify{subs: []shopify.AppSubscription{{
		ID: "gid://shopify/AppSubscription/7", Name: config.DefaultAppName + " - Starter", Status: "ACTIVE", CurrentPeriodEnd: &end,
	}}}

	released := 0
	w := do(f.billingRouter(api, stubThrottle{allow: true, released: &released}), http.MethodGet, "/api/v1/billing/status", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Zero(t, released)
	res := decode[BillingStatusResponse](t, w)
	require.True(t, res.Data.Synced)
	require.True(t, res.Data.Updated)
	require.Equal(t, types.PlanStarter, res.Data.Plan)
	require.Equal(t, 110, res.Data.Credits)

	// throttled: no upstream call, stored state returned
	api.exchCalls = 0
	w = do(f.billingRouter(api, stubThrottle{allow: false}), http.MethodGet, "/api/v1/billing/status", nil, nil)
	res = decode[BillingStatusResponse](t, w)
	require.False(t, res.Data.Synced)
	require.Equal(t, 110, res.Data.Credits)
	require.Zero(t, api.exchCalls)

	// throttle backend down: the poll still runs
	w = do(f.billingRouter(api, stubThrottle{err: errors.New("redis down")}), http.MethodGet, "/api/v1/billing/status", nil, nil)
	res = decode[BillingStatusResponse](t, w)
	require.True(t, res.Data.Synced)
	require.False(t, res.Data.Updated)
	require.Equal(t, 1, api.exchCalls)
}

func TestApiBillingStatus_UpstreamFailureKeepsPlan(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ManualOverride(context.Background(), testShop, "pro")
	require.NoError(t, err)

	for _, api := range []*stubShopify{
		{exchErr: apperr.Upstream("shopify.ExchangeSessionToken", errors.New("timeout"))},
		{queryErr: apperr.Upstream("shopify.ActiveSubscriptions", errors.New("503"))},
	} {
		released := 0
		w := do(f.billingRouter(api, stubThrottle{allow: true, released: &released}), http.MethodGet, "/api/v1/billing/status", nil, nil)
		require.Equal(t, http.StatusBadGateway, w.Code)
		require.Equal(t, response.APIResponseCodeUpstream, decode[any](t, w).Code)
		// the poll window is handed back so the next call retries upstream
		require.Equal(t, 1, released)
	}

	// a failure with the throttle backend down has no window to hand back
	released := 0
	api := &stubShopify{exchErr: apperr.Upstream("shopify.ExchangeSessionToken", errors.New("timeout"))}
	w := do(f.billingRouter(api, stubThrottle{err: errors.New("redis down"), released: &released}), http.MethodGet, "/api/v1/billing/status", nil, nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Zero(t, released)

	u, err := f.accounts.Get(context.Background(), testShop)
	require.NoError(t, err)
	require.Equal(t, types.PlanPro, u.Plan)
	require.Equal(t, 500, u.Credits)
}

func TestApiSyncBilling(t *testing.T) {
	f := newFixture(t)
	r := f.billingRouter(&stubShopify{}, stubThrottle{allow: true})

	w := do(r, http.MethodPost, "/api/v1/billing/sync", SyncBillingRequest{}, nil)
	res := decode[reconcile.SnapshotResult](t, w)
	require.Equal(t, response.APIResponseCodeOK, res.Code)
	require.Equal(t, types.PlanFree, res.Data.Plan)

	end := time.Now().Add(24 * time.Hour)
	w = do(r, http.MethodPost, "/api/v1/billing/sync", SyncBillingRequest{Subscriptions: []reconcile.SnapshotSubscription{
		{ID: "gid://shopify/AppSubscription/8", Name: "Enterprise", Status: "ACTIVE", CurrentPeriodEnd: &end},
	}}, nil)
	res = decode[reconcile.SnapshotResult](t, w)
	require.True(t, res.Data.Updated)
	require.Equal(t, types.PlanEnterprise, res.Data.Plan)
	require.Equal(t, 10+2000, res.Data.Credits)
}

func (f *fixture) accountRouter() *gin.Engine {
	r := gin.New()
	g := r.Group("/api/v1", asShop(testShop))
	RegisterAccountRoutes(g, f.accounts, f.catalog, f.discounts)
	return r
}

func TestAccountRoutes(t *testing.T) {
	f := newFixture(t)
	r := f.accountRouter()

	w := do(r, http.MethodGet, "/api/v1/me", nil, nil)
	me := decode[MeResponse](t, w)
	require.Equal(t, testShop, me.Data.Shop)
	require.Equal(t, types.PlanFree, me.Data.Plan)
	require.Equal(t, 10, me.Data.Credits)
	require.Equal(t, 5, me.Data.ProductsPerBatch)
	require.False(t, me.Data.OnboardingCompleted)

	w = do(r, http.MethodPost, "/api/v1/me/onboarding", nil, nil)
	require.Equal(t, response.APIResponseCodeOK, decode[any](t, w).Code)

	w = do(r, http.MethodPost, "/api/v1/credits/consume", ConsumeCreditsRequest{Amount: 4, Ref: "job-1"}, nil)
	bal := decode[BalanceResponse](t, w)
	require.Equal(t, response.APIResponseCodeOK, bal.Code)
	require.Equal(t, 6, bal.Data.Credits)

	w = do(r, http.MethodPost, "/api/v1/credits/consume", ConsumeCreditsRequest{Amount: 7}, nil)
	require.Equal(t, response.APIResponseCodeConflict, decode[any](t, w).Code)

	w = do(r, http.MethodPost, "/api/v1/credits/consume", ConsumeCreditsRequest{Amount: 0}, nil)
	require.Equal(t, response.APIResponseCodeBadRequest, decode[any](t, w).Code)

	me = decode[MeResponse](t, do(r, http.MethodGet, "/api/v1/me", nil, nil))
	require.True(t, me.Data.OnboardingCompleted)
	require.Equal(t, 6, me.Data.Credits)
}

func TestApiRedeemDiscount(t *testing.T) {
	f := newFixture(t)
	_, err := f.discounts.CreateCode(context.Background(), &discount.CreateCodeRequest{Code: "WELCOME50", CreditsGranted: 50})
	require.NoError(t, err)
	r := f.accountRouter()

	w := do(r, http.MethodPost, "/api/v1/discounts/redeem", RedeemRequest{Code: " welcome50 "}, nil)
	res := decode[discount.RedeemResult](t, w)
	require.True(t, res.Data.Success)
	require.Equal(t, 50, res.Data.CreditsGranted)
	require.Equal(t, 60, res.Data.NewBalance)

	w = do(r, http.MethodPost, "/api/v1/discounts/redeem", RedeemRequest{Code: "WELCOME50"}, nil)
	res = decode[discount.RedeemResult](t, w)
	require.Equal(t, response.APIResponseCodeOK, res.Code)
	require.False(t, res.Data.Success)
	require.Equal(t, "You have already used this discount code", res.Data.Error)
}

func (f *fixture) adminRouter() *gin.Engine {
	r := gin.New()
	g := r.Group("/api/v1/admin", mw.AdminAuthMiddleware(f.cfg, f.log))
	RegisterAdminRoutes(g, AdminDeps{
		Engine:        f.engine,
		Accounts:      f.accounts,
		Subscriptions: f.subs,
		Discounts:     f.discounts,
		Notifications: f.notif,
		Statistics:    f.stats,
	})
	return r
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t)
	r := f.adminRouter()
	admin := map[string]string{mw.HeaderAdminToken: "admin"}

	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/admin/statistics", nil, nil).Code)

	w := do(r, http.MethodPost, "/api/v1/admin/override_plan", OverridePlanRequest{Shop: testShop, Plan: "starter"}, admin)
	require.Equal(t, response.APIResponseCodeOK, decode[any](t, w).Code, w.Body.String())
	w = do(r, http.MethodPost, "/api/v1/admin/override_plan", OverridePlanRequest{Shop: testShop, Plan: "gold"}, admin)
	require.Equal(t, response.APIResponseCodeBadRequest, decode[any](t, w).Code)

	w = do(r, http.MethodPost, "/api/v1/admin/discount_codes", discount.CreateCodeRequest{Code: "spring", CreditsGranted: 20}, admin)
	created := decode[DiscountCodeItem](t, w)
	require.Equal(t, response.APIResponseCodeOK, created.Code, w.Body.String())
	require.Equal(t, "SPRING", created.Data.Code)

	w = do(r, http.MethodPost, "/api/v1/admin/discount_codes", discount.CreateCodeRequest{Code: "SPRING", CreditsGranted: 20}, admin)
	require.Equal(t, response.APIResponseCodeConflict, decode[any](t, w).Code)

	w = do(r, http.MethodPost, "/api/v1/admin/discount_codes/"+created.Data.ID+"/deactivate", nil, admin)
	require.Equal(t, response.APIResponseCodeOK, decode[any](t, w).Code)
	w = do(r, http.MethodPost, "/api/v1/admin/discount_codes/missing/deactivate", nil, admin)
	require.Equal(t, response.APIResponseCodeNotFound, decode[any](t, w).Code)

	codes := decode[[]DiscountCodeItem](t, do(r, http.MethodGet, "/api/v1/admin/discount_codes?include_redemptions=true", nil, admin))
	require.Len(t, codes.Data, 1)
	active := decode[[]DiscountCodeItem](t, do(r, http.MethodGet, "/api/v1/admin/discount_codes?active_only=true", nil, admin))
	require.Empty(t, active.Data)

	w = do(r, http.MethodPost, "/api/v1/admin/list_subscriptions", subscription.ScanRequest{
		Filters: types.FiltersAnd{{Field: "shop", Operator: types.CommonFilterOperatorEq, Values: []any{testShop}}},
	}, admin)
	list := decode[ListSubscriptionsResponse](t, w)
	require.Equal(t, response.APIResponseCodeOK, list.Code, w.Body.String())
	require.Zero(t, list.Data.Total)

	w = do(r, http.MethodPost, "/api/v1/admin/list_subscriptions", subscription.ScanRequest{
		Filters: types.FiltersAnd{{Field: "1=1; drop table users", Operator: types.CommonFilterOperatorEq, Values: []any{1}}},
	}, admin)
	require.Equal(t, response.APIResponseCodeBadRequest, decode[any](t, w).Code)

	detail := decode[ShopDetailResponse](t, do(r, http.MethodGet, "/api/v1/admin/shops/"+testShop, nil, admin))
	require.Equal(t, types.PlanStarter, detail.Data.User.Plan)
	require.NotEmpty(t, detail.Data.CreditLogs)

	stats := decode[statistics.StatisticResponse](t, do(r, http.MethodGet, "/api/v1/admin/statistics?data_items=plan_distribution", nil, admin))
	require.Equal(t, []statistics.StatisticResponseDataItem{{Label: "starter", Value: 1}}, stats.Data.DataItems[statistics.StatisticTypePlanDistribution])
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	RegisterHealthRoutes(r, f.db)

	w := do(r, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[map[string]string](t, w)
	require.Equal(t, "ok", res.Data["database"])

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	w = do(r, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "degraded", decode[map[string]string](t, w).Data["status"])
}
