package callback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ventopay/checkout/internal/app/service/checkout"
	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/reconcile"
	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/internal/platform/gateway"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
	"github.com/ventopay/checkout/pkg/logctx"
)

// Querier is the only gateway operation the inbound flows need: both of them
// re-query the session instead of trusting inbound fields.
type Querier interface {
	Query(ctx context.Context, requestID int64) (*gateway.RedirectInformation, error)
}

// AuditLog records every inbound notification, valid or not.
type AuditLog interface {
	Save(ctx context.Context, row *models.NotificationLog)
}

// Service reconciles the two inbound flows: the buyer returning from the
// gateway (keyed by reference) and the gateway's asynchronous notification
// (keyed by requestId). Both race against each other and against the sweep;
// the reconciler's conditional update keeps them single-shot.
type Service struct {
	cfg   *cfgpkg.Config
	log   *zap.SugaredLogger
	gw    Querier
	store payments.Store
	rec   *reconcile.Reconciler
	audit AuditLog
}

func New(
	cfg *cfgpkg.Config,
	log *zap.SugaredLogger,
	gw Querier,
	store payments.Store,
	rec *reconcile.Reconciler,
	audit AuditLog,
) *Service {
	return &Service{cfg: cfg, log: log, gw: gw, store: store, rec: rec, audit: audit}
}

type ReturnResult struct {
	Reference string               `json:"reference"`
	OrderRef  string               `json:"order_ref"`
	Status    models.PaymentStatus `json:"status"`
}

// HandleReturn resolves the synchronous return flow for an encoded reference.
// A record that is no longer PENDING is reported as-is; a still-open session
// stays PENDING for the sweep.
func (s *Service) HandleReturn(ctx context.Context, encodedRef string) (*ReturnResult, error) {
	log := logctx.FromCtx(ctx, s.log)

	reference, err := checkout.DecodeReference(encodedRef)
	if err != nil {
		log.Warnw("return_bad_reference", "raw", encodedRef)
		return nil, fmt.Errorf("%w: %v", payments.ErrNotFound, err)
	}

	payment, err := s.store.ByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	result := &ReturnResult{Reference: payment.Reference, OrderRef: payment.OrderRef, Status: payment.Status}
	if payment.Status.IsTerminal() {
		log.Infow("return_already_settled", "reference", reference, "status", payment.Status)
		return result, nil
	}
	if payment.RequestID == 0 {
		// The attempt never reached the gateway; nothing to query.
		return result, nil
	}

	info, err := s.gw.Query(ctx, payment.RequestID)
	if err != nil {
		return nil, err
	}
	outcome, err := s.rec.Reconcile(ctx, payment, info)
	if err != nil {
		return nil, err
	}
	result.Status = outcome.Status
	return result, nil
}

type NotificationResult struct {
	Reference string               `json:"reference"`
	Status    models.PaymentStatus `json:"status"`
	Applied   bool                 `json:"applied"`
}

// HandleNotification authenticates and resolves an asynchronous notification.
// No field of the payload is acted on before the signature verifies, and even
// then the payload is only a pointer: the session is re-queried.
func (s *Service) HandleNotification(ctx context.Context, raw []byte) (result *NotificationResult, resErr error) {
	log := logctx.FromCtx(ctx, s.log)
	traceID, _ := ctx.Value("traceID").(string)

	var notification gateway.Notification
	if err := json.Unmarshal(raw, &notification); err != nil {
		log.Warnw("notification_malformed", "err", err)
		return nil, fmt.Errorf("malformed notification payload: %w", err)
	}

	s.audit.Save(ctx, &models.NotificationLog{
		TraceID:   traceID,
		RequestID: notification.RequestID,
		Reference: notification.Reference,
		Data:      datatypes.JSON(raw),
		Status:    models.NotificationLogStatusReceived,
	})

	if !notification.IsValid(s.cfg.Gateway.TranKey) {
		// Security-relevant rejection, distinct from a lookup miss. The
		// expected digest is logged at debug level only.
		log.Warnw("notification_signature_rejected", "request_id", notification.RequestID)
		log.Debugw("notification_signature_expected",
			"request_id", notification.RequestID,
			"expected", notification.ExpectedSignature(s.cfg.Gateway.TranKey))
		s.audit.Save(ctx, &models.NotificationLog{
			TraceID:   traceID,
			RequestID: notification.RequestID,
			Reference: notification.Reference,
			Data:      datatypes.JSON(raw),
			Status:    models.NotificationLogStatusRejected,
		})
		return nil, gateway.ErrInvalidSignature
	}

	defer func() {
		row := &models.NotificationLog{
			TraceID:   traceID,
			RequestID: notification.RequestID,
			Reference: notification.Reference,
			Data:      datatypes.JSON(raw),
			Status:    models.NotificationLogStatusHandled,
		}
		resMap := map[string]any{"result": result}
		if resErr != nil {
			row.Status = models.NotificationLogStatusHandleFailed
			resMap["error"] = resErr.Error()
		}
		if resBytes, err := json.Marshal(resMap); err == nil {
			row.Result = lo.ToPtr(datatypes.JSON(resBytes))
		}
		s.audit.Save(ctx, row)
	}()

	payment, err := s.store.ByRequestID(ctx, notification.RequestID)
	if err != nil {
		log.Warnw("notification_payment_missing", "request_id", notification.RequestID)
		return nil, err
	}

	if payment.Status.IsTerminal() {
		log.Infow("notification_already_settled", "reference", payment.Reference, "status", payment.Status)
		return &NotificationResult{Reference: payment.Reference, Status: payment.Status}, nil
	}

	info, err := s.gw.Query(ctx, payment.RequestID)
	if err != nil {
		return nil, err
	}
	outcome, err := s.rec.Reconcile(ctx, payment, info)
	if err != nil {
		return nil, err
	}

	return &NotificationResult{
		Reference: payment.Reference,
		Status:    outcome.Status,
		Applied:   outcome.Applied,
	}, nil
}
