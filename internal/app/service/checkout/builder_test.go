package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ventopay/checkout/internal/platform/gateway"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
)

func builderWith(cfg cfgpkg.GatewayConfig) *Builder {
	b := NewBuilder(&cfg)
	b.now = func() time.Time { return time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC) }
	return b
}

func validInput() *BuildInput {
	return &BuildInput{
		Reference: "ORD-1",
		ReturnURL: "https://store.example/api/v2/payment/return?_=T1JELTE=",
		Locale:    "es_CO",
		IPAddress: "10.0.0.1",
		UserAgent: "Mozilla/5.0",
		Buyer: Buyer{
			Name:    "Ada",
			Surname: "Lovelace",
			Email:   "ada@example.com",
			Mobile:  "3001234567",
			Country: "CO",
			City:    "Bogotá",
			Street:  "Calle 1 # 2-3",
		},
		Totals: CartTotals{Currency: "COP", Total: 119000, TaxAmount: 19000},
	}
}

func TestBuild_ExpirationFromConfiguredMinutes(t *testing.T) {
	b := builderWith(cfgpkg.GatewayConfig{Description: "Order %s", ExpirationMinutes: 30})
	req, err := b.Build(validInput())
	require.NoError(t, err)
	require.Equal(t, "2026-08-25T10:30:00Z", req.Expiration)
}

func TestBuild_ExpirationFloorFallsBackToDefault(t *testing.T) {
	b := builderWith(cfgpkg.GatewayConfig{Description: "Order %s", ExpirationMinutes: 5})
	req, err := b.Build(validInput())
	require.NoError(t, err)
	require.Equal(t, "2026-08-25T12:00:00Z", req.Expiration, "below-floor config uses the 120 minute default")
}

func TestBuild_TaxBlockOnlyWhenEnabledAndPositive(t *testing.T) {
	b := builderWith(cfgpkg.GatewayConfig{Description: "Order %s", FillTaxInformation: true})
	req, err := b.Build(validInput())
	require.NoError(t, err)
	require.Len(t, req.Payment.Amount.Taxes, 1)
	tax := req.Payment.Amount.Taxes[0]
	require.Equal(t, "valueAddedTax", tax.Kind)
	require.Equal(t, 19000.0, tax.Amount)
	require.Equal(t, 100000.0, tax.Base)

	// disabled fill
	b = builderWith(cfgpkg.GatewayConfig{Description: "Order %s", FillTaxInformation: false})
	req, err = b.Build(validInput())
	require.NoError(t, err)
	require.Empty(t, req.Payment.Amount.Taxes)

	// zero tax
	b = builderWith(cfgpkg.GatewayConfig{Description: "Order %s", FillTaxInformation: true})
	in := validInput()
	in.Totals.TaxAmount = 0
	req, err = b.Build(in)
	require.NoError(t, err)
	require.Empty(t, req.Payment.Amount.Taxes)
}

func TestBuild_MobileFallsBackToLandline(t *testing.T) {
	b := builderWith(cfgpkg.GatewayConfig{Description: "Order %s"})
	in := validInput()
	in.Buyer.Mobile = ""
	in.Buyer.Landline = "6015551234"
	req, err := b.Build(in)
	require.NoError(t, err)
	require.Equal(t, "6015551234", req.Buyer.Mobile)
}

func TestBuild_UruguayDiscountModifier(t *testing.T) {
	b := builderWith(cfgpkg.GatewayConfig{
		Description:  "Order %s",
		Country:      gateway.CountryUruguay,
		DiscountCode: "IVA_REFUND",
		Invoice:      "F-100",
	})
	req, err := b.Build(validInput())
	require.NoError(t, err)
	require.Len(t, req.Payment.Modifiers, 1)
	mod := req.Payment.Modifiers[0]
	require.Equal(t, gateway.ModifierTypeFederalGovernment, mod.Type)
	require.Equal(t, "IVA_REFUND", mod.Code)
	require.Equal(t, "F-100", mod.Additional["invoice"])
}

func TestBuild_NoModifierOutsideUruguayOrWhenNone(t *testing.T) {
	b := builderWith(cfgpkg.GatewayConfig{
		Description:  "Order %s",
		Country:      gateway.CountryColombia,
		DiscountCode: "IVA_REFUND",
	})
	req, err := b.Build(validInput())
	require.NoError(t, err)
	require.Empty(t, req.Payment.Modifiers)

	b = builderWith(cfgpkg.GatewayConfig{
		Description:  "Order %s",
		Country:      gateway.CountryUruguay,
		DiscountCode: cfgpkg.DiscountNone,
	})
	req, err = b.Build(validInput())
	require.NoError(t, err)
	require.Empty(t, req.Payment.Modifiers)
}

func TestBuild_MissingMandatoryFieldFailsFast(t *testing.T) {
	b := builderWith(cfgpkg.GatewayConfig{Description: "Order %s"})

	in := validInput()
	in.Buyer.Email = ""
	_, err := b.Build(in)
	require.ErrorIs(t, err, ErrInvalidInput)

	in = validInput()
	in.Buyer.City = ""
	_, err = b.Build(in)
	require.ErrorIs(t, err, ErrInvalidInput)

	in = validInput()
	in.Totals.Currency = "PESO"
	_, err = b.Build(in)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuild_DescriptionAndPolicyFlags(t *testing.T) {
	b := builderWith(cfgpkg.GatewayConfig{
		Description:          "Payment for order %s",
		SkipResult:           true,
		FillBuyerInformation: false,
	})
	req, err := b.Build(validInput())
	require.NoError(t, err)
	require.Equal(t, "Payment for order ORD-1", req.Payment.Description)
	require.True(t, req.SkipResult)
	require.True(t, req.NoBuyerFill)
}
