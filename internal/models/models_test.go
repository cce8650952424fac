package models

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestPeriodKey_StableAcrossZones(t *testing.T) {
	utc := time.Date(2026, 3, 1, 12, 0, 0, 999, time.UTC)
	est := utc.In(time.FixedZone("EST", -5*3600))
	require.Equal(t, "2026-03-01T12:00:00Z", PeriodKey(utc))
	require.Equal(t, PeriodKey(utc), PeriodKey(est))
}

func TestDiscountCode_ExpiredAndExhausted(t *testing.T) {
	now := time.Now()
	d := &DiscountCode{ExpiresAt: lo.ToPtr(now)}
	require.True(t, d.Expired(now))
	require.False(t, d.Expired(now.Add(-time.Minute)))
	require.False(t, (&DiscountCode{}).Expired(now))

	require.False(t, (&DiscountCode{RedemptionCount: 100}).Exhausted())
	require.True(t, (&DiscountCode{MaxRedemptions: 2, RedemptionCount: 2}).Exhausted())
}

func TestTableNames(t *testing.T) {
	require.Equal(t, "users", User{}.TableName())
	require.Equal(t, "discount_code_redemptions", DiscountCodeRedemption{}.TableName())
	require.Len(t, All(), 7)
}
