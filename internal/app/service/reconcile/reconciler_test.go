package reconcile

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/internal/platform/gateway"
)

// memStore is an in-memory payments.Store with the same conditional-update
// semantics as the SQL implementation.
type memStore struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
	settled  map[string]*models.Settlement
}

func newMemStore(rows ...*models.Payment) *memStore {
	s := &memStore{payments: map[string]*models.Payment{}, settled: map[string]*models.Settlement{}}
	for _, p := range rows {
		s.payments[p.ID] = p
	}
	return s
}

func (s *memStore) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

func (s *memStore) ByReference(_ context.Context, reference string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.Reference == reference {
			return p, nil
		}
	}
	return nil, payments.ErrNotFound
}

func (s *memStore) ByRequestID(_ context.Context, requestID int64) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.RequestID == requestID {
			return p, nil
		}
	}
	return nil, payments.ErrNotFound
}

func (s *memStore) LastPendingForCustomer(_ context.Context, _ string) (*models.Payment, error) {
	return nil, nil
}

func (s *memStore) AssignRequestID(_ context.Context, id string, requestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.Status != models.PaymentStatusPending {
		return payments.ErrNotFound
	}
	p.RequestID = requestID
	return nil
}

func (s *memStore) SettleIfPending(_ context.Context, id string, status models.PaymentStatus, set *models.Settlement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	s.settled[id] = set
	return true, nil
}

func (s *memStore) ListPending(_ context.Context) ([]*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []*models.Payment
	for _, p := range s.payments {
		if p.Status == models.PaymentStatusPending {
			rows = append(rows, p)
		}
	}
	return rows, nil
}

func (s *memStore) Scan(_ context.Context, _ *payments.ScanRequest) (*payments.ScanResponse, error) {
	return &payments.ScanResponse{}, nil
}

type markerCalls struct {
	mu                      sync.Mutex
	paid, canceled, errored int
}

func (m *markerCalls) MarkPaid(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paid++
	return nil
}

func (m *markerCalls) MarkCanceled(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canceled++
	return nil
}

func (m *markerCalls) MarkErrored(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errored++
	return nil
}

func pendingPayment() *models.Payment {
	return &models.Payment{
		ID:        "pay-1",
		Reference: "ORD-1",
		RequestID: 123,
		OrderRef:  "order-1",
		Currency:  "COP",
		Amount:    15000,
		Status:    models.PaymentStatusPending,
	}
}

func resolvedInfo(sessionStatus string) *gateway.RedirectInformation {
	return &gateway.RedirectInformation{
		RequestID: 123,
		Status:    &gateway.Status{Status: sessionStatus, Reason: "00", Message: "done"},
	}
}

func TestReconcile_ApprovedSettlesAndMarksPaid(t *testing.T) {
	payment := pendingPayment()
	store := newMemStore(payment)
	marker := &markerCalls{}
	r := New(store, marker, zap.NewNop().Sugar())

	info := resolvedInfo(gateway.StatusApproved)
	info.Payment = []*gateway.Transaction{{
		Status:            &gateway.Status{Status: gateway.StatusApproved, Reason: "00", Message: "Aprobada"},
		IssuerName:        "Banco de Pruebas",
		Franchise:         "VS",
		PaymentMethodName: "Visa",
		Authorization:     "999999",
		Receipt:           "120001",
		Amount:            &gateway.AmountConversion{Factor: 1},
		AdditionalData:    map[string]any{"installments": float64(3), "lastDigits": "****1111"},
	}}
	info.Request = &gateway.EchoedRequest{Payer: &gateway.Person{Email: "buyer@example.com"}}

	out, err := r.Reconcile(context.Background(), payment, info)
	require.NoError(t, err)
	require.True(t, out.Applied)
	require.Equal(t, models.PaymentStatusApproved, out.Status)
	require.Equal(t, 1, marker.paid)

	set := store.settled["pay-1"]
	require.Equal(t, "Banco de Pruebas", set.Bank)
	require.Equal(t, "999999", set.AuthCode)
	require.Equal(t, 3, set.Installments)
	require.Equal(t, "1111", set.CardLastDigits)
	require.Equal(t, "buyer@example.com", set.PayerEmail)
}

func TestReconcile_TerminalRecordIsNoop(t *testing.T) {
	payment := pendingPayment()
	payment.Status = models.PaymentStatusApproved
	store := newMemStore(payment)
	marker := &markerCalls{}
	r := New(store, marker, zap.NewNop().Sugar())

	// Even a contradictory result must not touch a settled record.
	out, err := r.Reconcile(context.Background(), payment, resolvedInfo(gateway.StatusRejected))
	require.NoError(t, err)
	require.False(t, out.Applied)
	require.Equal(t, models.PaymentStatusApproved, out.Status)
	require.Equal(t, models.PaymentStatusApproved, store.payments["pay-1"].Status)
	require.Zero(t, marker.paid)
	require.Zero(t, marker.canceled)
}

func TestReconcile_RejectedCancelsOrder(t *testing.T) {
	payment := pendingPayment()
	store := newMemStore(payment)
	marker := &markerCalls{}
	r := New(store, marker, zap.NewNop().Sugar())

	out, err := r.Reconcile(context.Background(), payment, resolvedInfo(gateway.StatusRejected))
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRejected, out.Status)
	require.Equal(t, 1, marker.canceled)
	require.Zero(t, marker.paid)
}

func TestReconcile_UnresolvedQueryFailsRecord(t *testing.T) {
	payment := pendingPayment()
	store := newMemStore(payment)
	marker := &markerCalls{}
	r := New(store, marker, zap.NewNop().Sugar())

	out, err := r.Reconcile(context.Background(), payment, resolvedInfo(gateway.StatusFailed))
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, out.Status)
	require.Equal(t, 1, marker.errored)
}

func TestReconcile_StillPendingIsRetryable(t *testing.T) {
	payment := pendingPayment()
	store := newMemStore(payment)
	marker := &markerCalls{}
	r := New(store, marker, zap.NewNop().Sugar())

	out, err := r.Reconcile(context.Background(), payment, resolvedInfo(gateway.StatusPending))
	require.NoError(t, err)
	require.True(t, out.Retryable)
	require.False(t, out.Applied)
	require.Equal(t, models.PaymentStatusPending, store.payments["pay-1"].Status)
	require.Zero(t, marker.paid+marker.canceled+marker.errored)
}

func TestReconcile_ConcurrentCallersSingleSideEffect(t *testing.T) {
	payment := pendingPayment()
	store := newMemStore(payment)
	marker := &markerCalls{}
	r := New(store, marker, zap.NewNop().Sugar())

	const callers = 16
	var wg sync.WaitGroup
	applied := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.Reconcile(context.Background(), payment, resolvedInfo(gateway.StatusApproved))
			require.NoError(t, err)
			applied <- out.Applied
		}()
	}
	wg.Wait()
	close(applied)

	wins := 0
	for a := range applied {
		if a {
			wins++
		}
	}
	require.Equal(t, 1, wins, "exactly one caller must win the PENDING transition")
	require.Equal(t, 1, marker.paid, "order-paid side effect must fire exactly once")
	require.Equal(t, models.PaymentStatusApproved, store.payments["pay-1"].Status)
}

func TestReconcile_MetadataAbsentDefaultsEmpty(t *testing.T) {
	payment := pendingPayment()
	store := newMemStore(payment)
	r := New(store, &markerCalls{}, zap.NewNop().Sugar())

	// No last transaction, no echoed request: transition still applies.
	out, err := r.Reconcile(context.Background(), payment, resolvedInfo(gateway.StatusApproved))
	require.NoError(t, err)
	require.True(t, out.Applied)

	set := store.settled["pay-1"]
	require.Empty(t, set.Bank)
	require.Empty(t, set.AuthCode)
	require.Empty(t, set.PayerEmail)
	require.Equal(t, "done", set.ReasonDescription)
}

func TestReconcile_RejectedLastTransactionSuppliesNoMetadata(t *testing.T) {
	payment := pendingPayment()
	store := newMemStore(payment)
	r := New(store, &markerCalls{}, zap.NewNop().Sugar())

	info := resolvedInfo(gateway.StatusRejected)
	info.Payment = []*gateway.Transaction{{
		Status:        &gateway.Status{Status: gateway.StatusRejected, Reason: "05", Message: "Rechazada"},
		IssuerName:    "Banco de Pruebas",
		Authorization: "000000",
	}}

	_, err := r.Reconcile(context.Background(), payment, info)
	require.NoError(t, err)
	set := store.settled["pay-1"]
	require.Empty(t, set.Bank, "metadata comes only from a successful transaction")
	require.Empty(t, set.AuthCode)
}
