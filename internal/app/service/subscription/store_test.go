package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/internal/platform/db/dbtest"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/types"
)

const testShop = "subs.myshopify.com"

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	return NewStore(gdb, zap.NewNop().Sugar()), gdb
}

func upsert(t *testing.T, s *Store, gdb *gorm.DB, obs Observation) *UpsertOutcome {
	t.Helper()
	var out *UpsertOutcome
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.UpsertTx(context.Background(), tx, testShop, obs)
		return err
	})
	require.NoError(t, err)
	return out
}

func TestCanonicalID(t *testing.T) {
	require.Equal(t, "gid://shopify/AppSubscription/123", CanonicalID(" 123 "))
	require.Equal(t, "gid://shopify/AppSubscription/123", CanonicalID("gid://shopify/AppSubscription/123"))
	require.Equal(t, "", CanonicalID(" "))
}

func TestUpsertTx_CreateAndUpdate(t *testing.T) {
	s, gdb := newTestStore(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	out := upsert(t, s, gdb, Observation{
		ID: "42", PlanName: "Pro Plan", Status: types.SubscriptionStatusActive,
		PeriodStart: &start, PeriodEnd: &end, IsTest: true,
	})
	require.True(t, out.Created)
	require.False(t, out.Stale())
	require.Equal(t, "gid://shopify/AppSubscription/42", out.Subscription.ShopifySubscriptionID)

	out = upsert(t, s, gdb, Observation{
		ID: "gid://shopify/AppSubscription/42", PlanName: "Pro Plan", Status: types.SubscriptionStatusCancelled,
		PeriodStart: &start, PeriodEnd: &end, ObservedAt: end.Add(-time.Hour),
	})
	require.False(t, out.Created)
	require.Equal(t, types.SubscriptionStatusActive, out.Previous.Status)

	got, err := s.Get(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	require.False(t, got.IsTest)
	cancelledAt := *got.CancelledAt

	// cancelled_at is set only on the first transition
	upsert(t, s, gdb, Observation{ID: "42", PlanName: "Pro Plan", Status: types.SubscriptionStatusCancelled, ObservedAt: end})
	got, err = s.Get(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, cancelledAt.Equal(*got.CancelledAt))
}

func TestUpsertTx_StaleObservations(t *testing.T) {
	s, gdb := newTestStore(t)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	older := end.AddDate(0, -1, 0)
	updated := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	upsert(t, s, gdb, Observation{ID: "7", PlanName: "Starter", Status: types.SubscriptionStatusActive, PeriodEnd: &end, UpdatedAt: &updated})

	out := upsert(t, s, gdb, Observation{ID: "7", PlanName: "Starter", Status: types.SubscriptionStatusActive, PeriodEnd: &older})
	require.Equal(t, StaleOlderPeriod, out.StaleReason)

	earlier := updated.Add(-time.Minute)
	out = upsert(t, s, gdb, Observation{ID: "7", PlanName: "Starter", Status: types.SubscriptionStatusFrozen, PeriodEnd: &end, UpdatedAt: &earlier})
	require.Equal(t, StaleOlderUpdate, out.StaleReason)

	upsert(t, s, gdb, Observation{ID: "7", PlanName: "Starter", Status: types.SubscriptionStatusExpired, PeriodEnd: &end})
	out = upsert(t, s, gdb, Observation{ID: "7", PlanName: "Starter", Status: types.SubscriptionStatusActive, PeriodEnd: &end})
	require.Equal(t, StaleTerminal, out.StaleReason)

	got, err := s.Get(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusExpired, got.Status)
}

func TestUpsertTx_SynthesizedPeriodIsKeptThenReplaced(t *testing.T) {
	s, gdb := newTestStore(t)
	observed := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	out := upsert(t, s, gdb, Observation{ID: "9", PlanName: "Pro", Status: types.SubscriptionStatusActive, ObservedAt: observed})
	require.True(t, out.Subscription.PeriodSynthesized)
	synthKey := models.PeriodKey(out.Subscription.CurrentPeriodEnd)
	require.Equal(t, models.PeriodKey(observed.Add(SyntheticPeriod)), synthKey)

	inserted, err := s.InsertGrantTx(context.Background(), gdb, &models.SubscriptionCreditGrant{
		ShopifySubscriptionID: out.Subscription.ShopifySubscriptionID, PeriodKey: synthKey,
		Shop: testShop, Plan: types.PlanPro, Credits: 500,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	// a later sighting without a period keeps the stored one
	out = upsert(t, s, gdb, Observation{ID: "9", PlanName: "Pro", Status: types.SubscriptionStatusActive, ObservedAt: observed.Add(time.Hour)})
	require.Equal(t, synthKey, models.PeriodKey(out.Subscription.CurrentPeriodEnd))

	// a real period replaces it and carries the grant along
	realEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	out = upsert(t, s, gdb, Observation{ID: "9", PlanName: "Pro", Status: types.SubscriptionStatusActive, PeriodEnd: &realEnd})
	require.False(t, out.Stale())
	require.Equal(t, synthKey, out.RekeyedFrom)
	require.False(t, out.Subscription.PeriodSynthesized)

	grants, err := s.ListGrants(context.Background(), "9")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, models.PeriodKey(realEnd), grants[0].PeriodKey)
}

func TestUpsertTx_RealPeriodAfterRenewalKeepsSynthesizedGrant(t *testing.T) {
	s, gdb := newTestStore(t)
	observed := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	out := upsert(t, s, gdb, Observation{ID: "10", PlanName: "Starter", Status: types.SubscriptionStatusActive, ObservedAt: observed})
	synthKey := models.PeriodKey(out.Subscription.CurrentPeriodEnd)
	inserted, err := s.InsertGrantTx(context.Background(), gdb, &models.SubscriptionCreditGrant{
		ShopifySubscriptionID: out.Subscription.ShopifySubscriptionID, PeriodKey: synthKey,
		Shop: testShop, Plan: types.PlanStarter, Credits: 100,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	// first real period seen only after a renewal: it starts a month later
	realEnd := observed.Add(60 * 24 * time.Hour)
	out = upsert(t, s, gdb, Observation{ID: "10", PlanName: "Starter", Status: types.SubscriptionStatusActive,
		PeriodEnd: &realEnd, ObservedAt: observed.Add(35 * 24 * time.Hour)})
	require.False(t, out.Stale())
	require.Empty(t, out.RekeyedFrom)
	require.False(t, out.Subscription.PeriodSynthesized)
	require.Equal(t, models.PeriodKey(realEnd), models.PeriodKey(out.Subscription.CurrentPeriodEnd))

	grants, err := s.ListGrants(context.Background(), "10")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, synthKey, grants[0].PeriodKey)

	// an explicit start inside the synthesized window is the same cycle
	out = upsert(t, s, gdb, Observation{ID: "11", PlanName: "Starter", Status: types.SubscriptionStatusActive, ObservedAt: observed})
	synthKey = models.PeriodKey(out.Subscription.CurrentPeriodEnd)
	_, err = s.InsertGrantTx(context.Background(), gdb, &models.SubscriptionCreditGrant{
		ShopifySubscriptionID: out.Subscription.ShopifySubscriptionID, PeriodKey: synthKey,
		Shop: testShop, Plan: types.PlanStarter, Credits: 100,
	})
	require.NoError(t, err)
	start := observed.Add(-2 * time.Hour)
	end := start.AddDate(0, 1, 0)
	out = upsert(t, s, gdb, Observation{ID: "11", PlanName: "Starter", Status: types.SubscriptionStatusActive, PeriodStart: &start, PeriodEnd: &end})
	require.Equal(t, synthKey, out.RekeyedFrom)
}

func TestUpsertTx_Errors(t *testing.T) {
	s, gdb := newTestStore(t)
	err := gdb.Transaction(func(tx *gorm.DB) error {
		_, err := s.UpsertTx(context.Background(), tx, testShop, Observation{Status: types.SubscriptionStatusActive})
		return err
	})
	require.ErrorIs(t, err, ErrMissingID)

	upsert(t, s, gdb, Observation{ID: "5", PlanName: "Pro", Status: types.SubscriptionStatusActive})
	err = gdb.Transaction(func(tx *gorm.DB) error {
		_, err := s.UpsertTx(context.Background(), tx, "other.myshopify.com", Observation{ID: "5", Status: types.SubscriptionStatusActive})
		return err
	})
	require.ErrorIs(t, err, ErrShopMismatch)
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestInsertGrantTx_Idempotent(t *testing.T) {
	s, gdb := newTestStore(t)
	grant := func() *models.SubscriptionCreditGrant {
		return &models.SubscriptionCreditGrant{
			ShopifySubscriptionID: "gid://shopify/AppSubscription/1", PeriodKey: "2026-05-01T00:00:00Z",
			Shop: testShop, Plan: types.PlanStarter, Credits: 100,
		}
	}
	ok, err := s.InsertGrantTx(context.Background(), gdb, grant())
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.InsertGrantTx(context.Background(), gdb, grant())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListAndScan(t *testing.T) {
	s, gdb := newTestStore(t)
	for i, status := range []types.SubscriptionStatus{types.SubscriptionStatusActive, types.SubscriptionStatusCancelled, types.SubscriptionStatusActive} {
		end := time.Date(2026, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		upsert(t, s, gdb, Observation{ID: string(rune('1' + i)), PlanName: "Starter", Status: status, PeriodEnd: &end})
	}

	rows, err := s.ListByShop(context.Background(), testShop)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "gid://shopify/AppSubscription/3", rows[0].ShopifySubscriptionID)

	rows, total, err := s.Scan(context.Background(), &ScanRequest{
		Filters: types.FiltersAnd{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"active"}}},
		Limit:   1,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, rows, 1)

	_, _, err = s.Scan(context.Background(), &ScanRequest{
		Filters: types.FiltersAnd{{Field: "shop; DROP TABLE users", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
	})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Get(context.Background(), "999")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
