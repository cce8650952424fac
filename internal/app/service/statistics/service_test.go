package statistics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/internal/platform/db/dbtest"
	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/types"
)

func TestGetStatistic(t *testing.T) {
	gdb := dbtest.Open(t)
	require.NoError(t, gdb.Create([]*models.User{
		{Shop: "a", Plan: types.PlanFree, Credits: 10},
		{Shop: "b", Plan: types.PlanPro, Credits: 500},
		{Shop: "c", Plan: types.PlanPro, Credits: 20},
	}).Error)
	require.NoError(t, gdb.Create([]*models.SubscriptionCreditGrant{
		{ID: "g1", ShopifySubscriptionID: "s1", PeriodKey: "k1", Shop: "b", Plan: types.PlanPro, Credits: 500},
		{ID: "g2", ShopifySubscriptionID: "s2", PeriodKey: "k1", Shop: "c", Plan: types.PlanPro, Credits: 500},
	}).Error)
	require.NoError(t, gdb.Create(&models.DiscountCode{ID: "d1", Code: "WELCOME50", CreditsGranted: 50, Active: true, RedemptionCount: 3}).Error)

	s := New(gdb)
	res, err := s.GetStatistic(context.Background(), &StatisticRequest{})
	require.NoError(t, err)
	require.Len(t, res.DataItems, len(AllStatisticTypes))

	require.Equal(t, []StatisticResponseDataItem{{Label: "free", Value: 1}, {Label: "pro", Value: 2}}, res.DataItems[StatisticTypePlanDistribution])
	require.Equal(t, []StatisticResponseDataItem{{Label: "pro", Value: 1000, Value2: 2}}, res.DataItems[StatisticTypeSubscriptionCreditsByPlan])
	require.Equal(t, []StatisticResponseDataItem{{Label: "WELCOME50", Value: 3, Value2: 150}}, res.DataItems[StatisticTypeDiscountRedemptions])
	require.Equal(t, []StatisticResponseDataItem{{Value: 530, Value2: 3}}, res.DataItems[StatisticTypeOutstandingCredits])
	require.Empty(t, res.DataItems[StatisticTypeSubscriptionStatusCount])

	_, err = s.GetStatistic(context.Background(), &StatisticRequest{DataItems: []*StatisticDataItem{{ID: "gmv"}}})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}
