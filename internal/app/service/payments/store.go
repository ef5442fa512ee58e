package payments

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/pkg/tool"
	"github.com/ventopay/checkout/pkg/types"
)

// ErrNotFound is returned when no payment record matches the given
// reference or request id.
var ErrNotFound = errors.New("payment not found")

// Store is the persistence contract for payment records. SettleIfPending is
// the concurrency primitive of the whole system: the return flow, the
// notification handler and the sweep all race through it, and exactly one
// caller wins the transition away from PENDING.
type Store interface {
	Create(ctx context.Context, payment *models.Payment) error
	ByReference(ctx context.Context, reference string) (*models.Payment, error)
	ByRequestID(ctx context.Context, requestID int64) (*models.Payment, error)
	// LastPendingForCustomer returns nil without error when the customer has
	// no pending attempt.
	LastPendingForCustomer(ctx context.Context, customerID string) (*models.Payment, error)
	// AssignRequestID backfills the gateway session id on a record that is
	// still PENDING.
	AssignRequestID(ctx context.Context, id string, requestID int64) error
	// SettleIfPending applies the status transition and settlement metadata
	// as a single conditional update; it reports whether this caller won.
	SettleIfPending(ctx context.Context, id string, status models.PaymentStatus, s *models.Settlement) (bool, error)
	ListPending(ctx context.Context) ([]*models.Payment, error)
	Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error)
}

type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

type storeImpl struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger) Store {
	return &storeImpl{db: db, log: log}
}

func (s *storeImpl) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = tool.GenerateUUIDV7()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (s *storeImpl) ByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return s.one(ctx, "reference = ?", reference)
}

func (s *storeImpl) ByRequestID(ctx context.Context, requestID int64) (*models.Payment, error) {
	return s.one(ctx, "request_id = ?", requestID)
}

func (s *storeImpl) one(ctx context.Context, query string, arg any) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).Where(query, arg).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return &payment, nil
}

func (s *storeImpl) LastPendingForCustomer(ctx context.Context, customerID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Joins("JOIN store_order ON store_order.ref = payment.order_ref").
		Where("store_order.customer_id = ? AND payment.status = ?", customerID, models.PaymentStatusPending).
		Order("payment.created_at DESC").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payment: %w", err)
	}
	return &payment, nil
}

func (s *storeImpl) AssignRequestID(ctx context.Context, id string, requestID int64) error {
	tx := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Update("request_id", requestID)
	if tx.Error != nil {
		return fmt.Errorf("failed to assign request id: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SettleIfPending is a single conditional UPDATE guarded on the current
// status, not a read-then-write pair; concurrent callers for the same record
// observe RowsAffected 0 and treat it as a no-op.
func (s *storeImpl) SettleIfPending(ctx context.Context, id string, status models.PaymentStatus, set *models.Settlement) (bool, error) {
	if set == nil {
		set = &models.Settlement{}
	}
	conversion := set.ConversionFactor
	if conversion == 0 {
		conversion = 1
	}
	tx := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(map[string]any{
			"status":             status,
			"reason":             set.Reason,
			"reason_description": set.ReasonDescription,
			"bank":               set.Bank,
			"franchise":          set.Franchise,
			"franchise_name":     set.FranchiseName,
			"authcode":           set.AuthCode,
			"receipt":            set.Receipt,
			"conversion":         conversion,
			"installments":       set.Installments,
			"card_last_digits":   set.CardLastDigits,
			"payer_email":        set.PayerEmail,
		})
	if tx.Error != nil {
		return false, fmt.Errorf("failed to settle payment: %w", tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

func (s *storeImpl) ListPending(ctx context.Context) ([]*models.Payment, error) {
	var rows []*models.Payment
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PaymentStatusPending).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return rows, nil
}

// filtersAnd is a helper to combine multiple CommonFilter into a single clause.Expression
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// Scan implements paginated/admin listing with filters
func (s *storeImpl) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Payment{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	var rows []*models.Payment

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return &ScanResponse{Items: rows, Total: total}, nil
}
