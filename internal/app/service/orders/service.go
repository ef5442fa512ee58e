package orders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/pkg/tool"
)

// ErrNotFound is returned when the referenced order does not exist.
var ErrNotFound = errors.New("order not found")

// Service drives the storefront-order state transitions this backend is
// allowed to make. A PAID order is terminal: reconciliation outcomes never
// regress it, so an order a human already fixed stays fixed.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Create opens an order in awaiting-payment state and returns it.
func (s *Service) Create(ctx context.Context, customerID string) (*models.Order, error) {
	order := &models.Order{
		Ref:        tool.GenerateUUIDV7(),
		CustomerID: customerID,
		State:      models.OrderStateAwaitingPayment,
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("ref = ?", ref).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// MarkPaid settles the order. Already-paid orders are left untouched so the
// side effect stays idempotent under concurrent reconciliations.
func (s *Service) MarkPaid(ctx context.Context, ref string) error {
	return s.transition(ctx, ref, models.OrderStatePaid)
}

// MarkCanceled cancels the order unless it already reached PAID.
func (s *Service) MarkCanceled(ctx context.Context, ref string) error {
	return s.transition(ctx, ref, models.OrderStateCanceled)
}

// MarkErrored flags the order unless it already reached PAID.
func (s *Service) MarkErrored(ctx context.Context, ref string) error {
	return s.transition(ctx, ref, models.OrderStateErrored)
}

func (s *Service) transition(ctx context.Context, ref string, state models.OrderState) error {
	tx := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("ref = ? AND state <> ?", ref, models.OrderStatePaid).
		Update("state", state)
	if tx.Error != nil {
		return fmt.Errorf("failed to move order %s to %s: %w", ref, state, tx.Error)
	}
	if tx.RowsAffected == 0 {
		// Either missing or already paid; only the former is an error.
		if _, err := s.Get(ctx, ref); err != nil {
			return err
		}
		s.log.Infow("order_transition_skipped", "ref", ref, "target_state", state)
	}
	return nil
}
