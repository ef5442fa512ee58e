package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/reconcile"
	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/internal/platform/gateway"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
)

type stubStore struct {
	created   *models.Payment
	pending   *models.Payment
	assigned  int64
	settledTo models.PaymentStatus
}

func (s *stubStore) Create(_ context.Context, p *models.Payment) error {
	p.ID = "pay-1"
	s.created = p
	return nil
}

func (s *stubStore) ByReference(_ context.Context, _ string) (*models.Payment, error) {
	if s.created == nil {
		return nil, payments.ErrNotFound
	}
	return s.created, nil
}

func (s *stubStore) ByRequestID(_ context.Context, _ int64) (*models.Payment, error) {
	panic("not used")
}

func (s *stubStore) LastPendingForCustomer(_ context.Context, _ string) (*models.Payment, error) {
	return s.pending, nil
}

func (s *stubStore) AssignRequestID(_ context.Context, _ string, requestID int64) error {
	s.assigned = requestID
	if s.created != nil {
		s.created.RequestID = requestID
	}
	return nil
}

func (s *stubStore) SettleIfPending(_ context.Context, _ string, status models.PaymentStatus, _ *models.Settlement) (bool, error) {
	if s.created == nil || s.created.Status != models.PaymentStatusPending {
		return false, nil
	}
	s.created.Status = status
	s.settledTo = status
	return true, nil
}

func (s *stubStore) ListPending(_ context.Context) ([]*models.Payment, error) { panic("not used") }

func (s *stubStore) Scan(_ context.Context, _ *payments.ScanRequest) (*payments.ScanResponse, error) {
	panic("not used")
}

type stubOrders struct {
	created int
	errored int
}

func (o *stubOrders) Create(_ context.Context, customerID string) (*models.Order, error) {
	o.created++
	return &models.Order{Ref: "order-1", CustomerID: customerID, State: models.OrderStateAwaitingPayment}, nil
}

func (o *stubOrders) MarkErrored(_ context.Context, _ string) error {
	o.errored++
	return nil
}

func (o *stubOrders) MarkPaid(_ context.Context, _ string) error     { return nil }
func (o *stubOrders) MarkCanceled(_ context.Context, _ string) error { return nil }

type stubGateway struct {
	requestResp *gateway.RedirectResponse
	requestErr  error
	collectResp *gateway.RedirectInformation
	queryResp   *gateway.RedirectInformation
	reverseResp *gateway.ReverseResponse
}

func (g *stubGateway) Request(_ context.Context, _ *gateway.RedirectRequest) (*gateway.RedirectResponse, error) {
	return g.requestResp, g.requestErr
}

func (g *stubGateway) Query(_ context.Context, _ int64) (*gateway.RedirectInformation, error) {
	return g.queryResp, nil
}

func (g *stubGateway) Collect(_ context.Context, _ *gateway.CollectRequest) (*gateway.RedirectInformation, error) {
	return g.collectResp, nil
}

func (g *stubGateway) Reverse(_ context.Context, _ int64) (*gateway.ReverseResponse, error) {
	return g.reverseResp, nil
}

func testConfig() *cfgpkg.Config {
	return &cfgpkg.Config{Gateway: cfgpkg.GatewayConfig{
		Description:   "Order %s",
		ReturnURLBase: "https://store.example",
		DiscountCode:  cfgpkg.DiscountNone,
	}}
}

func newTestService(store *stubStore, ord *stubOrders, gw *stubGateway) *Service {
	log := zap.NewNop().Sugar()
	rec := reconcile.New(store, ord, log)
	return NewService(testConfig(), log, gw, store, ord, rec)
}

func sessionRequest() *CreateSessionRequest {
	return &CreateSessionRequest{
		CustomerID: "cust-1",
		Locale:     "es_CO",
		IPAddress:  "10.0.0.1",
		UserAgent:  "Mozilla/5.0",
		Buyer: Buyer{
			Name: "Ada", Surname: "Lovelace", Email: "ada@example.com",
			Mobile: "3001234567", Country: "CO", City: "Bogotá", Street: "Calle 1",
		},
		Totals: CartTotals{Currency: "COP", Total: 15000},
	}
}

func TestCreateSession_AssignsRequestIDAndStaysPending(t *testing.T) {
	store := &stubStore{}
	gw := &stubGateway{requestResp: &gateway.RedirectResponse{
		Status:     &gateway.Status{Status: gateway.StatusOk},
		RequestID:  123,
		ProcessURL: "https://checkout.example/session/123",
	}}
	svc := newTestService(store, &stubOrders{}, gw)

	res, err := svc.CreateSession(context.Background(), sessionRequest())
	require.NoError(t, err)
	require.EqualValues(t, 123, res.RequestID)
	require.Equal(t, "https://checkout.example/session/123", res.ProcessURL)

	require.NotNil(t, store.created)
	require.Equal(t, models.PaymentStatusPending, store.created.Status)
	require.EqualValues(t, 123, store.created.RequestID)
	require.Equal(t, res.Reference, store.created.Reference)
}

func TestCreateSession_DeclinedSessionFailsAttempt(t *testing.T) {
	store := &stubStore{}
	ord := &stubOrders{}
	gw := &stubGateway{requestResp: &gateway.RedirectResponse{
		Status: &gateway.Status{Status: gateway.StatusFailed, Message: "invalid credentials"},
	}}
	svc := newTestService(store, ord, gw)

	_, err := svc.CreateSession(context.Background(), sessionRequest())
	require.Error(t, err)
	require.Equal(t, models.PaymentStatusFailed, store.settledTo)
	require.Equal(t, 1, ord.errored)
}

func TestCreateSession_TransportErrorFailsAttempt(t *testing.T) {
	store := &stubStore{}
	ord := &stubOrders{}
	gw := &stubGateway{requestErr: &gateway.GatewayError{Op: "request", Err: errors.New("timeout")}}
	svc := newTestService(store, ord, gw)

	_, err := svc.CreateSession(context.Background(), sessionRequest())
	var gwErr *gateway.GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, models.PaymentStatusFailed, store.settledTo)
	require.Equal(t, 1, ord.errored)
}

func TestCreateSession_BlockedWhilePendingExists(t *testing.T) {
	store := &stubStore{pending: &models.Payment{Reference: "ORD-0", Status: models.PaymentStatusPending}}
	svc := newTestService(store, &stubOrders{}, &stubGateway{})

	_, err := svc.CreateSession(context.Background(), sessionRequest())
	require.ErrorIs(t, err, ErrPendingExists)
	require.Nil(t, store.created, "no record may be created while blocked")
}

func TestCreateSession_InvalidBuyerNeverReachesGateway(t *testing.T) {
	store := &stubStore{}
	ord := &stubOrders{}
	svc := newTestService(store, ord, &stubGateway{})

	req := sessionRequest()
	req.Buyer.Email = "not-an-email"
	_, err := svc.CreateSession(context.Background(), req)
	require.Error(t, err)
	require.Nil(t, store.created)
	require.Zero(t, ord.created)
}

func TestCollectPayment_ReconcilesInline(t *testing.T) {
	store := &stubStore{}
	ord := &stubOrders{}
	gw := &stubGateway{collectResp: &gateway.RedirectInformation{
		RequestID: 456,
		Status:    &gateway.Status{Status: gateway.StatusApproved, Message: "Aprobada"},
	}}
	svc := newTestService(store, ord, gw)

	res, err := svc.CollectPayment(context.Background(), &CollectPaymentRequest{
		CustomerID: "cust-1",
		Token:      "tok-1",
		Locale:     "es_CO",
		Buyer:      sessionRequest().Buyer,
		Totals:     CartTotals{Currency: "COP", Total: 9000},
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusApproved, res.Status)
	require.EqualValues(t, 456, store.assigned)
}

func TestReversePayment_RequiresApprovedRecord(t *testing.T) {
	store := &stubStore{}
	store.created = &models.Payment{ID: "pay-1", Reference: "ORD-9", Status: models.PaymentStatusRejected}
	svc := newTestService(store, &stubOrders{}, &stubGateway{})

	_, err := svc.ReversePayment(context.Background(), "ORD-9")
	require.Error(t, err)
}

func TestReversePayment_ReversesLastTransaction(t *testing.T) {
	store := &stubStore{}
	store.created = &models.Payment{ID: "pay-1", Reference: "ORD-9", RequestID: 123, Status: models.PaymentStatusApproved}
	gw := &stubGateway{
		queryResp: &gateway.RedirectInformation{
			Status:  &gateway.Status{Status: gateway.StatusApproved},
			Payment: []*gateway.Transaction{{Status: &gateway.Status{Status: gateway.StatusApproved}, InternalReference: 777}},
		},
		reverseResp: &gateway.ReverseResponse{Status: &gateway.Status{Status: gateway.StatusApproved, Message: "Reversed"}},
	}
	svc := newTestService(store, &stubOrders{}, gw)

	res, err := svc.ReversePayment(context.Background(), "ORD-9")
	require.NoError(t, err)
	require.True(t, res.Reversed)
	require.Equal(t, "Reversed", res.Message)
}

func TestReferenceEncodingRoundTrip(t *testing.T) {
	encoded := EncodeReference("ORD-1")
	decoded, err := DecodeReference(encoded)
	require.NoError(t, err)
	require.Equal(t, "ORD-1", decoded)

	_, err = DecodeReference("%%%")
	require.Error(t, err)
}
