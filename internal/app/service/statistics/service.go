package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/fatflowers/shopcredits/internal/models"
	"github.com/fatflowers/shopcredits/pkg/apperr"
)

type StatisticType string

const (
	// Users per canonical plan.
	StatisticTypePlanDistribution StatisticType = "plan_distribution"
	// Subscriptions per status.
	StatisticTypeSubscriptionStatusCount StatisticType = "subscription_status_count"
	// Redemptions per discount code.
	StatisticTypeDiscountRedemptions StatisticType = "discount_redemptions"
	// Credits granted by subscriptions per plan; value2 is the grant count.
	StatisticTypeSubscriptionCreditsByPlan StatisticType = "subscription_credits_by_plan"
	// Sum of all balances.
	StatisticTypeOutstandingCredits StatisticType = "outstanding_credits"
)

// AllStatisticTypes is used when a request names no data items.
var AllStatisticTypes = []StatisticType{
	StatisticTypePlanDistribution,
	StatisticTypeSubscriptionStatusCount,
	StatisticTypeDiscountRedemptions,
	StatisticTypeSubscriptionCreditsByPlan,
	StatisticTypeOutstandingCredits,
}

type StatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type StatisticRequest struct {
	DataItems []*StatisticDataItem `json:"data_items"`
}

type StatisticResponseDataItem struct {
	Label  string `json:"label,omitempty"`
	Value  int64  `json:"value"`
	Value2 int64  `json:"value2,omitempty"`
}

type StatisticResponse struct {
	DataItems map[StatisticType][]StatisticResponseDataItem `json:"data_items"`
}

// Service provides statistics operations
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) groupCount(ctx context.Context, table, column string) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(table).
		Select(column + " as label, count(*) as value").
		Group(column).
		Order(column)
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getPlanDistribution(ctx context.Context) ([]StatisticResponseDataItem, error) {
	return s.groupCount(ctx, models.User{}.TableName(), "plan")
}

func (s *Service) getSubscriptionStatusCount(ctx context.Context) ([]StatisticResponseDataItem, error) {
	return s.groupCount(ctx, models.Subscription{}.TableName(), "status")
}

func (s *Service) getDiscountRedemptions(ctx context.Context) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(models.DiscountCode{}.TableName()).
		Select("code as label, redemption_count as value, credits_granted * redemption_count as value2").
		Order("redemption_count DESC").
		Order("code")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getSubscriptionCreditsByPlan(ctx context.Context) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(models.SubscriptionCreditGrant{}.TableName()).
		Select("plan as label, COALESCE(SUM(credits), 0) as value, count(*) as value2").
		Group("plan").
		Order("plan")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getOutstandingCredits(ctx context.Context) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(models.User{}.TableName()).
		Select("COALESCE(SUM(credits), 0) as value, count(*) as value2")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatistic(ctx context.Context, dataItem *StatisticDataItem) ([]StatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypePlanDistribution:
		return s.getPlanDistribution(ctx)
	case StatisticTypeSubscriptionStatusCount:
		return s.getSubscriptionStatusCount(ctx)
	case StatisticTypeDiscountRedemptions:
		return s.getDiscountRedemptions(ctx)
	case StatisticTypeSubscriptionCreditsByPlan:
		return s.getSubscriptionCreditsByPlan(ctx)
	case StatisticTypeOutstandingCredits:
		return s.getOutstandingCredits(ctx)
	default:
		return nil, apperr.Validation("statistics.Get", fmt.Sprintf("invalid data item id: %s", dataItem.ID))
	}
}

// GetStatistic computes the requested data items concurrently.
func (s *Service) GetStatistic(ctx context.Context, request *StatisticRequest) (*StatisticResponse, error) {
	items := request.DataItems
	if len(items) == 0 {
		items = lo.Map(AllStatisticTypes, func(t StatisticType, _ int) *StatisticDataItem { return &StatisticDataItem{ID: t} })
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(items))
	resChan := make(chan *lo.Entry[StatisticType, []StatisticResponseDataItem], len(items))

	for _, item := range items {
		wg.Add(1)
		go func(di *StatisticDataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []StatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]StatisticResponseDataItem)
	for i := 0; i < len(items); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, apperr.Persistence("statistics.Get", err)
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &StatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
