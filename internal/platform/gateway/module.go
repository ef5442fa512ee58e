package gateway

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/ventopay/checkout/pkg/config"
)

// NewFromConfig resolves the endpoint for the configured market/client and
// builds the carrier against it.
func NewFromConfig(cfg *cfgpkg.Config, log *zap.SugaredLogger) (*Carrier, error) {
	baseURL, err := BaseURL(
		cfg.Gateway.Country,
		cfg.Gateway.Client,
		Environment(cfg.Gateway.Environment),
		cfg.Gateway.CustomURL,
	)
	if err != nil {
		return nil, err
	}

	settings, err := NewSettings(baseURL, cfg.Gateway.Login, cfg.Gateway.TranKey)
	if err != nil {
		return nil, err
	}
	if cfg.Gateway.TimeoutSeconds > 0 {
		settings.Timeout = cfg.Gateway.Timeout()
	}
	settings.VerifySSL = cfg.Gateway.VerifySSL
	settings.Headers = map[string]string{
		"User-Agent":        fmt.Sprintf("ventopay-checkout (%s/%s)", cfg.Gateway.Country, cfg.Gateway.Client),
		"X-Source-Platform": "storefront",
	}

	log.Infow("gateway carrier configured", "base_url", settings.BaseURL, "environment", cfg.Gateway.Environment)
	return NewCarrier(settings, log), nil
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
)
