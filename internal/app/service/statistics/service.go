package statistics

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/pkg/types"
)

type StatisticType string

const (
	StatisticTypeDailyPaymentCount   StatisticType = "daily_payment_count"
	StatisticTypeDailyCapturedAmount StatisticType = "daily_captured_amount"
	StatisticTypeStatusBreakdown     StatisticType = "status_breakdown"
)

var supportedTypes = []StatisticType{
	StatisticTypeDailyPaymentCount,
	StatisticTypeDailyCapturedAmount,
	StatisticTypeStatusBreakdown,
}

type DataItem struct {
	ID StatisticType `json:"id"`
}

type Request struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []*DataItem           `json:"data_items"`
}

type ResponseDataItem struct {
	Date  string  `json:"date,omitempty"`
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
}

type Response struct {
	DataItems map[StatisticType][]ResponseDataItem `json:"data_items"`
}

// filtersWhere wraps a list of filters to a single clause.Expression
type filtersWhere struct{ filters []*types.CommonFilter }

func (w filtersWhere) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

// Service aggregates payment activity for the admin dashboard.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// GetPaymentStatistics resolves each requested data item independently.
func (s *Service) GetPaymentStatistics(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || len(req.DataItems) == 0 {
		return nil, fmt.Errorf("no data items requested")
	}

	out := &Response{DataItems: map[StatisticType][]ResponseDataItem{}}
	for _, item := range req.DataItems {
		if !lo.Contains(supportedTypes, item.ID) {
			return nil, fmt.Errorf("unsupported statistic type: %s", item.ID)
		}
		var (
			rows []ResponseDataItem
			err  error
		)
		switch item.ID {
		case StatisticTypeDailyPaymentCount:
			rows, err = s.dailyPaymentCount(ctx, req)
		case StatisticTypeDailyCapturedAmount:
			rows, err = s.dailyCapturedAmount(ctx, req)
		case StatisticTypeStatusBreakdown:
			rows, err = s.statusBreakdown(ctx, req)
		}
		if err != nil {
			return nil, err
		}
		out.DataItems[item.ID] = rows
	}
	return out, nil
}

func (s *Service) dailyPaymentCount(ctx context.Context, req *Request) ([]ResponseDataItem, error) {
	var results []ResponseDataItem
	q := s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{filtersWhere{filters: req.Filters}}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) dailyCapturedAmount(ctx context.Context, req *Request) ([]ResponseDataItem, error) {
	var results []ResponseDataItem
	q := s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, currency AS label, sum(amount) as value").
		Where("status IN ?", []models.PaymentStatus{models.PaymentStatusApproved, models.PaymentStatusDuplicate}).
		Where(clause.Where{Exprs: []clause.Expression{filtersWhere{filters: req.Filters}}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) statusBreakdown(ctx context.Context, req *Request) ([]ResponseDataItem, error) {
	var results []ResponseDataItem
	q := s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("status AS label, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{filtersWhere{filters: req.Filters}}}).
		Group("status").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Module exposes the statistics service via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
