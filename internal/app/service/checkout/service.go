package checkout

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/reconcile"
	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/internal/platform/gateway"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
	"github.com/ventopay/checkout/pkg/logctx"
	"github.com/ventopay/checkout/pkg/tool"
)

// ErrPendingExists blocks a new attempt while the customer still has a
// PENDING payment and the store disallows overlapping purchases.
var ErrPendingExists = errors.New("customer has a pending payment")

// OrderService is the slice of the storefront-order collaborator this
// service needs: open an order per attempt, flag it when the attempt dies
// before the buyer ever saw the gateway.
type OrderService interface {
	Create(ctx context.Context, customerID string) (*models.Order, error)
	MarkErrored(ctx context.Context, ref string) error
}

// Gateway is the carrier surface this service consumes.
type Gateway interface {
	Request(ctx context.Context, req *gateway.RedirectRequest) (*gateway.RedirectResponse, error)
	Query(ctx context.Context, requestID int64) (*gateway.RedirectInformation, error)
	Collect(ctx context.Context, req *gateway.CollectRequest) (*gateway.RedirectInformation, error)
	Reverse(ctx context.Context, internalReference int64) (*gateway.ReverseResponse, error)
}

type CreateSessionRequest struct {
	CustomerID string     `json:"customer_id" binding:"required"`
	Locale     string     `json:"locale" binding:"required"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	Buyer      Buyer      `json:"buyer" binding:"required"`
	Totals     CartTotals `json:"totals" binding:"required"`
}

type CreateSessionResult struct {
	Reference  string `json:"reference"`
	OrderRef   string `json:"order_ref"`
	RequestID  int64  `json:"request_id"`
	ProcessURL string `json:"process_url"`
}

type CollectPaymentRequest struct {
	CustomerID string     `json:"customer_id" binding:"required"`
	Token      string     `json:"token" binding:"required"`
	Locale     string     `json:"locale" binding:"required"`
	IPAddress  string     `json:"ip_address"`
	Buyer      Buyer      `json:"buyer" binding:"required"`
	Totals     CartTotals `json:"totals" binding:"required"`
}

type CollectPaymentResult struct {
	Reference string               `json:"reference"`
	OrderRef  string               `json:"order_ref"`
	Status    models.PaymentStatus `json:"status"`
}

type ReversePaymentResult struct {
	Reference string `json:"reference"`
	Reversed  bool   `json:"reversed"`
	Message   string `json:"message,omitempty"`
}

// Service opens payment attempts against the gateway: redirect sessions,
// direct collections against a stored instrument, and reversals.
type Service struct {
	cfg        *cfgpkg.Config
	log        *zap.SugaredLogger
	gw         Gateway
	store      payments.Store
	orders     OrderService
	builder    *Builder
	reconciler *reconcile.Reconciler
}

func NewService(
	cfg *cfgpkg.Config,
	log *zap.SugaredLogger,
	gw Gateway,
	store payments.Store,
	ord OrderService,
	rec *reconcile.Reconciler,
) *Service {
	return &Service{
		cfg:        cfg,
		log:        log,
		gw:         gw,
		store:      store,
		orders:     ord,
		builder:    NewBuilder(&cfg.Gateway),
		reconciler: rec,
	}
}

// EncodeReference wraps the merchant reference for transport in the return
// URL; the value is opaque to the buyer, not a secret.
func EncodeReference(reference string) string {
	return base64.StdEncoding.EncodeToString([]byte(reference))
}

// DecodeReference reverses EncodeReference.
func DecodeReference(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed reference: %w", err)
	}
	return string(raw), nil
}

// CreateSession opens a redirect payment attempt: it creates the order and a
// PENDING record, asks the gateway for a session, backfills the assigned
// requestId and hands back the URL to send the buyer to.
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResult, error) {
	log := logctx.FromCtx(ctx, s.log)

	if !s.cfg.Gateway.AllowPendingPurchases {
		pending, err := s.store.LastPendingForCustomer(ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
		if pending != nil {
			log.Warnw("checkout_blocked_pending", "customer_id", req.CustomerID, "reference", pending.Reference)
			return nil, ErrPendingExists
		}
	}

	reference := tool.GenerateReference()
	returnURL := s.cfg.Gateway.ReturnURLBase + "/api/v2/payment/return?_=" + EncodeReference(reference)

	// Build (and validate) before anything is persisted: malformed input
	// costs neither a row nor a network round-trip.
	redirectReq, err := s.builder.Build(&BuildInput{
		Reference: reference,
		ReturnURL: returnURL,
		Locale:    req.Locale,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Buyer:     req.Buyer,
		Totals:    req.Totals,
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Create(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		Reference: reference,
		OrderRef:  order.Ref,
		Currency:  req.Totals.Currency,
		Amount:    req.Totals.Total,
		Status:    models.PaymentStatusPending,
		IPAddress: req.IPAddress,
	}
	if err := s.store.Create(ctx, payment); err != nil {
		return nil, err
	}

	resp, err := s.gw.Request(ctx, redirectReq)
	if err != nil {
		// The session never existed gateway-side, so there is nothing for a
		// sweep to query; fail the attempt outright.
		s.failAttempt(ctx, payment, order.Ref, err.Error())
		return nil, err
	}

	if !resp.IsSuccessful() {
		message := ""
		if resp.Status != nil {
			message = resp.Status.Message
		}
		log.Warnw("checkout_session_declined", "reference", reference, "message", message)
		s.failAttempt(ctx, payment, order.Ref, message)
		return nil, fmt.Errorf("gateway declined session: %s", message)
	}

	if err := s.store.AssignRequestID(ctx, payment.ID, resp.RequestID); err != nil {
		return nil, err
	}

	log.Infow("checkout_session_created", "reference", reference, "request_id", resp.RequestID)
	return &CreateSessionResult{
		Reference:  reference,
		OrderRef:   order.Ref,
		RequestID:  resp.RequestID,
		ProcessURL: resp.ProcessURL,
	}, nil
}

// CollectPayment charges a stored instrument directly and reconciles the
// result in-line; there is no buyer redirect to wait for.
func (s *Service) CollectPayment(ctx context.Context, req *CollectPaymentRequest) (*CollectPaymentResult, error) {
	log := logctx.FromCtx(ctx, s.log)

	reference := tool.GenerateReference()
	order, err := s.orders.Create(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		Reference: reference,
		OrderRef:  order.Ref,
		Currency:  req.Totals.Currency,
		Amount:    req.Totals.Total,
		Status:    models.PaymentStatusPending,
		IPAddress: req.IPAddress,
	}
	if err := s.store.Create(ctx, payment); err != nil {
		return nil, err
	}

	info, err := s.gw.Collect(ctx, &gateway.CollectRequest{
		Locale: req.Locale,
		Payer: &gateway.Person{
			Name:    req.Buyer.Name,
			Surname: req.Buyer.Surname,
			Email:   req.Buyer.Email,
		},
		Payment: &gateway.Payment{
			Reference:   reference,
			Description: fmt.Sprintf(s.cfg.Gateway.Description, reference),
			Amount:      gateway.Amount{Currency: req.Totals.Currency, Total: req.Totals.Total},
		},
		Instrument: &gateway.Instrument{Token: &gateway.Token{Token: req.Token}},
	})
	if err != nil {
		s.failAttempt(ctx, payment, order.Ref, err.Error())
		return nil, err
	}

	if info.RequestID != 0 {
		if err := s.store.AssignRequestID(ctx, payment.ID, info.RequestID); err != nil {
			return nil, err
		}
		payment.RequestID = info.RequestID
	}

	outcome, err := s.reconciler.Reconcile(ctx, payment, info)
	if err != nil {
		return nil, err
	}

	log.Infow("collect_settled", "reference", reference, "status", outcome.Status)
	return &CollectPaymentResult{Reference: reference, OrderRef: order.Ref, Status: outcome.Status}, nil
}

// ReversePayment voids the settled transaction behind an approved payment.
// The record keeps its terminal status; the reversal outcome is reported to
// the caller and logged.
func (s *Service) ReversePayment(ctx context.Context, reference string) (*ReversePaymentResult, error) {
	log := logctx.FromCtx(ctx, s.log)

	payment, err := s.store.ByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !payment.Status.IsApproved() {
		return nil, fmt.Errorf("payment %s is %s, only approved payments can be reversed", reference, payment.Status)
	}

	info, err := s.gw.Query(ctx, payment.RequestID)
	if err != nil {
		return nil, err
	}
	tx := info.LastTransaction()
	if tx == nil || tx.InternalReference == 0 {
		return nil, fmt.Errorf("payment %s has no settled transaction to reverse", reference)
	}

	resp, err := s.gw.Reverse(ctx, tx.InternalReference)
	if err != nil {
		return nil, err
	}

	result := &ReversePaymentResult{Reference: reference, Reversed: resp.IsSuccessful()}
	if resp.Status != nil {
		result.Message = resp.Status.Message
	}
	log.Infow("payment_reversed", "reference", reference, "reversed", result.Reversed, "message", result.Message)
	return result, nil
}

// failAttempt settles the record as FAILED and flags the order. Losing the
// race here is fine: someone else settled the record with better data.
func (s *Service) failAttempt(ctx context.Context, payment *models.Payment, orderRef, message string) {
	won, err := s.store.SettleIfPending(ctx, payment.ID, models.PaymentStatusFailed, &models.Settlement{
		ReasonDescription: message,
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("checkout_fail_settle_error", "reference", payment.Reference, "err", err)
		return
	}
	if won {
		if err := s.orders.MarkErrored(ctx, orderRef); err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("checkout_fail_order_error", "order_ref", orderRef, "err", err)
		}
	}
}
