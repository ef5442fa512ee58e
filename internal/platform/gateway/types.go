package gateway

import (
	"strconv"
	"strings"
)

// Session/transaction status values reported by the gateway.
const (
	StatusOk       = "OK"
	StatusFailed   = "FAILED"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusPending  = "PENDING"
	StatusError    = "ERROR"
)

// Status is the envelope the gateway attaches to every response and to each
// transaction inside a query result.
type Status struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Date    string `json:"date"`
}

func (s *Status) IsApproved() bool { return s != nil && s.Status == StatusApproved }
func (s *Status) IsRejected() bool { return s != nil && s.Status == StatusRejected }

type Person struct {
	Name    string   `json:"name,omitempty"`
	Surname string   `json:"surname,omitempty"`
	Email   string   `json:"email,omitempty"`
	Mobile  string   `json:"mobile,omitempty"`
	Address *Address `json:"address,omitempty"`
}

type Address struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
	Street  string `json:"street,omitempty"`
}

type TaxDetail struct {
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount"`
	Base   float64 `json:"base,omitempty"`
}

type Amount struct {
	Currency string      `json:"currency"`
	Total    float64     `json:"total"`
	Taxes    []TaxDetail `json:"taxes,omitempty"`
}

// PaymentModifier carries jurisdiction-specific adjustments, e.g. the Uruguay
// federal-government VAT discount programs.
type PaymentModifier struct {
	Type       string         `json:"type"`
	Code       string         `json:"code"`
	Additional map[string]any `json:"additional,omitempty"`
}

const ModifierTypeFederalGovernment = "FEDERAL_GOVERNMENT"

type Payment struct {
	Reference   string            `json:"reference"`
	Description string            `json:"description,omitempty"`
	Amount      Amount            `json:"amount"`
	Modifiers   []PaymentModifier `json:"modifiers,omitempty"`
}

// RedirectRequest is the outbound session-creation payload. Built once per
// payment attempt and sent exactly once.
type RedirectRequest struct {
	Locale      string   `json:"locale,omitempty"`
	Buyer       *Person  `json:"buyer,omitempty"`
	Payment     *Payment `json:"payment"`
	Expiration  string   `json:"expiration"`
	ReturnURL   string   `json:"returnUrl"`
	IPAddress   string   `json:"ipAddress"`
	UserAgent   string   `json:"userAgent"`
	SkipResult  bool     `json:"skipResult,omitempty"`
	NoBuyerFill bool     `json:"noBuyerFill,omitempty"`
}

// RedirectResponse answers a session-creation request.
type RedirectResponse struct {
	Status     *Status `json:"status"`
	RequestID  int64   `json:"requestId"`
	ProcessURL string  `json:"processUrl"`
}

// IsSuccessful reports whether the gateway accepted the session.
func (r *RedirectResponse) IsSuccessful() bool {
	return r != nil && r.Status != nil && r.Status.Status == StatusOk
}

// AmountConversion reports the currency factor applied by the acquirer.
type AmountConversion struct {
	FromAmount float64 `json:"fromAmount,omitempty"`
	ToAmount   float64 `json:"toAmount,omitempty"`
	Factor     float64 `json:"factor,omitempty"`
}

// Transaction is one settlement attempt inside a query result.
type Transaction struct {
	Status            *Status           `json:"status"`
	InternalReference int64             `json:"internalReference"`
	Reference         string            `json:"reference,omitempty"`
	PaymentMethod     string            `json:"paymentMethod,omitempty"`
	PaymentMethodName string            `json:"paymentMethodName,omitempty"`
	IssuerName        string            `json:"issuerName,omitempty"`
	Franchise         string            `json:"franchise,omitempty"`
	Authorization     string            `json:"authorization,omitempty"`
	Receipt           string            `json:"receipt,omitempty"`
	Refunded          bool              `json:"refunded,omitempty"`
	Amount            *AmountConversion `json:"amount,omitempty"`
	AdditionalData    map[string]any    `json:"additionalData,omitempty"`
}

// IsSuccessful reports whether this transaction settled; settlement metadata
// is trustworthy only when it did.
func (t *Transaction) IsSuccessful() bool {
	return t != nil && t.Status.IsApproved()
}

// Installments digs the installment count out of additionalData. Acquirers
// disagree on the key and nesting, so several shapes are probed.
func (t *Transaction) Installments() int {
	if t == nil || t.AdditionalData == nil {
		return 0
	}
	keys := []string{"installments", "installment"}
	if n, ok := installmentsIn(t.AdditionalData, keys); ok {
		return n
	}
	for _, v := range t.AdditionalData {
		if nested, ok := v.(map[string]any); ok {
			if n, ok := installmentsIn(nested, keys); ok {
				return n
			}
		}
	}
	return 0
}

func installmentsIn(data map[string]any, keys []string) (int, bool) {
	for _, key := range keys {
		switch v := data[key].(type) {
		case float64:
			return int(v), true
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// CardLastDigits returns the masked-pan suffix from additionalData with the
// masking characters stripped.
func (t *Transaction) CardLastDigits() string {
	if t == nil || t.AdditionalData == nil {
		return ""
	}
	if v, ok := t.AdditionalData["lastDigits"].(string); ok {
		return strings.ReplaceAll(v, "*", "")
	}
	return ""
}

// EchoedRequest is the request sub-object the gateway echoes back on query,
// used to recover data the merchant did not persist, notably the payer email.
type EchoedRequest struct {
	Locale  string   `json:"locale,omitempty"`
	Payer   *Person  `json:"payer,omitempty"`
	Buyer   *Person  `json:"buyer,omitempty"`
	Payment *Payment `json:"payment,omitempty"`
}

// PayerEmail returns the payer email echoed by the gateway, empty if absent.
func (r *EchoedRequest) PayerEmail() string {
	if r == nil || r.Payer == nil {
		return ""
	}
	return r.Payer.Email
}

// RedirectInformation is the full state of a gateway session as returned by
// query and collect calls. It is projected into the payment record, never
// persisted verbatim.
type RedirectInformation struct {
	RequestID int64          `json:"requestId"`
	Status    *Status        `json:"status"`
	Request   *EchoedRequest `json:"request,omitempty"`
	Payment   []*Transaction `json:"payment,omitempty"`
}

// IsSuccessful reports whether the query itself resolved the session; the
// session may still be pending, approved or rejected.
func (i *RedirectInformation) IsSuccessful() bool {
	return i != nil && i.Status != nil &&
		i.Status.Status != StatusError && i.Status.Status != StatusFailed
}

// LastTransaction returns the most recent settlement attempt, nil when the
// buyer never reached a payment method.
func (i *RedirectInformation) LastTransaction() *Transaction {
	if i == nil || len(i.Payment) == 0 {
		return nil
	}
	return i.Payment[0]
}

// Instrument references a stored payment means for direct collection.
type Instrument struct {
	Token *Token `json:"token,omitempty"`
}

type Token struct {
	Token string `json:"token"`
}

// CollectRequest charges a stored instrument without redirecting the buyer.
type CollectRequest struct {
	Locale     string      `json:"locale,omitempty"`
	Payer      *Person     `json:"payer,omitempty"`
	Buyer      *Person     `json:"buyer,omitempty"`
	Payment    *Payment    `json:"payment"`
	Instrument *Instrument `json:"instrument"`
}

// ReverseResponse answers a reversal of a settled transaction.
type ReverseResponse struct {
	Status  *Status      `json:"status"`
	Payment *Transaction `json:"payment,omitempty"`
}

func (r *ReverseResponse) IsSuccessful() bool {
	return r != nil && r.Status != nil &&
		(r.Status.Status == StatusOk || r.Status.Status == StatusApproved)
}
