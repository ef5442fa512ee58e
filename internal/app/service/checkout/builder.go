package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ventopay/checkout/internal/platform/gateway"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
)

// ErrInvalidInput marks mandatory buyer/address/amount data missing from a
// checkout; the gateway is never called for such input.
var ErrInvalidInput = errors.New("invalid session input")

// Buyer is the checkout identity and delivery address handed over by the
// storefront. Mandatory fields are enforced before the gateway is called.
type Buyer struct {
	Name     string `json:"name" validate:"required"`
	Surname  string `json:"surname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile"`
	Landline string `json:"landline"`
	Country  string `json:"country" validate:"required"`
	State    string `json:"state"`
	City     string `json:"city" validate:"required"`
	Street   string `json:"street" validate:"required"`
}

// CartTotals carries the order amounts. TaxAmount is the portion of Total
// that is tax, already computed by the storefront.
type CartTotals struct {
	Currency  string  `json:"currency" validate:"required,len=3"`
	Total     float64 `json:"total" validate:"gt=0"`
	TaxAmount float64 `json:"tax_amount" validate:"gte=0"`
}

// BuildInput is everything a session request is derived from.
type BuildInput struct {
	Reference string     `validate:"required"`
	ReturnURL string     `validate:"required,url"`
	Locale    string     `validate:"required"`
	IPAddress string     `validate:"required"`
	UserAgent string     `validate:"required"`
	Buyer     Buyer      `validate:"required"`
	Totals    CartTotals `validate:"required"`
}

// Builder assembles outbound session requests from cart/buyer data and the
// store's checkout policy. Pure: same input and clock, same request.
type Builder struct {
	cfg      *cfgpkg.GatewayConfig
	validate *validator.Validate
	now      func() time.Time
}

func NewBuilder(cfg *cfgpkg.GatewayConfig) *Builder {
	return &Builder{
		cfg:      cfg,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Build validates the input and produces the gateway session request. It
// fails fast on missing mandatory data so malformed checkouts never cost a
// network round-trip.
func (b *Builder) Build(in *BuildInput) (*gateway.RedirectRequest, error) {
	if err := b.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	mobile := in.Buyer.Mobile
	if mobile == "" {
		mobile = in.Buyer.Landline
	}

	payment := &gateway.Payment{
		Reference:   in.Reference,
		Description: fmt.Sprintf(b.cfg.Description, in.Reference),
		Amount: gateway.Amount{
			Currency: in.Totals.Currency,
			Total:    in.Totals.Total,
		},
	}

	if b.cfg.FillTaxInformation && in.Totals.TaxAmount > 0 {
		payment.Amount.Taxes = []gateway.TaxDetail{{
			Kind:   "valueAddedTax",
			Amount: in.Totals.TaxAmount,
			Base:   in.Totals.Total - in.Totals.TaxAmount,
		}}
	}

	if b.cfg.Country == gateway.CountryUruguay && b.cfg.DiscountCode != cfgpkg.DiscountNone && b.cfg.DiscountCode != "" {
		payment.Modifiers = []gateway.PaymentModifier{{
			Type: gateway.ModifierTypeFederalGovernment,
			Code: b.cfg.DiscountCode,
			Additional: map[string]any{
				"invoice": b.cfg.Invoice,
			},
		}}
	}

	expiration := b.now().Add(time.Duration(b.cfg.ExpirationMinutesOrDefault()) * time.Minute)

	return &gateway.RedirectRequest{
		Locale:      in.Locale,
		ReturnURL:   in.ReturnURL,
		IPAddress:   in.IPAddress,
		UserAgent:   in.UserAgent,
		Expiration:  expiration.Format(time.RFC3339),
		SkipResult:  b.cfg.SkipResult,
		NoBuyerFill: !b.cfg.FillBuyerInformation,
		Buyer: &gateway.Person{
			Name:    in.Buyer.Name,
			Surname: in.Buyer.Surname,
			Email:   in.Buyer.Email,
			Mobile:  mobile,
			Address: &gateway.Address{
				Country: in.Buyer.Country,
				State:   in.Buyer.State,
				City:    in.Buyer.City,
				Street:  in.Buyer.Street,
			},
		},
		Payment: payment,
	}, nil
}
