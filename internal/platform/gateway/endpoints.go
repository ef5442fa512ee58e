package gateway

import "fmt"

// Environment selects which endpoint of a resolved set to talk to.
type Environment string

const (
	EnvProduction  Environment = "PRODUCTION"
	EnvTest        Environment = "TEST"
	EnvDevelopment Environment = "DEVELOPMENT"
	EnvCustom      Environment = "CUSTOM"
)

// ISO 3166 alpha-2 codes of the markets with dedicated gateway hosts.
const (
	CountryBelize   = "bz"
	CountryChile    = "cl"
	CountryColombia = "co"
	CountryEcuador  = "ec"
	CountryHonduras = "hn"
	CountryUruguay  = "uy"
)

// White-label brands a market may run under.
const (
	ClientPlacetopay = "Placetopay"
	ClientGetnet     = "Getnet"
	ClientBanchile   = "Banchile Pagos"
	ClientGou        = "Gou"
	ClientAvalpay    = "AvalPay"
)

// EndpointSet maps an environment to its gateway base URL.
type EndpointSet map[Environment]string

func defaultEndpoints() EndpointSet {
	return EndpointSet{
		EnvProduction:  "https://checkout.placetopay.com",
		EnvTest:        "https://checkout-test.placetopay.com",
		EnvDevelopment: "https://checkout-co.placetopay.dev",
	}
}

// overlay merges market-specific hosts over the global defaults, so a market
// that only overrides production keeps the default test and dev hosts.
func overlay(over EndpointSet) EndpointSet {
	set := defaultEndpoints()
	for env, url := range over {
		set[env] = url
	}
	return set
}

// endpointRule resolves the endpoint set for one market. Rules are evaluated
// in order, first match wins; a market rule may branch on the client brand.
type endpointRule struct {
	matches   func(country, client string) bool
	endpoints func(country, client string) EndpointSet
}

func countryIs(code string) func(country, client string) bool {
	return func(country, _ string) bool { return country == code }
}

var endpointRules = []endpointRule{
	{
		matches: countryIs(CountryChile),
		endpoints: func(_, client string) EndpointSet {
			if client == ClientBanchile {
				return overlay(EndpointSet{
					EnvProduction: "https://checkout.banchilepagos.cl",
					EnvTest:       "https://checkout.test.banchilepagos.cl",
				})
			}
			return overlay(EndpointSet{
				EnvProduction:  "https://checkout.getnet.cl",
				EnvTest:        "https://checkout.test.getnet.cl",
				EnvDevelopment: "https://checkout-cl.placetopay.dev",
			})
		},
	},
	{
		matches: countryIs(CountryColombia),
		endpoints: func(_, client string) EndpointSet {
			switch client {
			case ClientGou:
				return overlay(EndpointSet{
					EnvProduction: "https://checkout.goupagos.com.co",
					EnvTest:       "https://checkout.test.goupagos.com.co",
				})
			case ClientAvalpay:
				return overlay(EndpointSet{
					EnvProduction: "https://checkout.avalpaycenter.com",
					EnvTest:       "https://checkout.test.avalpaycenter.com",
				})
			}
			return defaultEndpoints()
		},
	},
	{
		matches: countryIs(CountryEcuador),
		endpoints: func(_, _ string) EndpointSet {
			return overlay(EndpointSet{
				EnvProduction:  "https://checkout.placetopay.ec",
				EnvTest:        "https://checkout-test.placetopay.ec",
				EnvDevelopment: "https://checkout-ec.placetopay.dev",
			})
		},
	},
	{
		matches: countryIs(CountryUruguay),
		endpoints: func(_, _ string) EndpointSet {
			return overlay(EndpointSet{
				EnvProduction: "https://abgateway.atlabank.com",
			})
		},
	},
	{
		matches: countryIs(CountryBelize),
		endpoints: func(_, _ string) EndpointSet {
			return overlay(EndpointSet{
				EnvProduction: "https://abgateway.atlabank.com",
			})
		},
	},
	{
		matches: countryIs(CountryHonduras),
		endpoints: func(_, _ string) EndpointSet {
			return overlay(EndpointSet{
				EnvProduction: "https://checkout.placetopay.uy",
				EnvTest:       "https://uy-uat-checkout.placetopay.com",
			})
		},
	},
}

// Endpoints resolves the endpoint set for a market/client pair, falling back
// to the global defaults when no market rule matches.
func Endpoints(country, client string) EndpointSet {
	for _, rule := range endpointRules {
		if rule.matches(country, client) {
			return rule.endpoints(country, client)
		}
	}
	return defaultEndpoints()
}

// BaseURL picks the connection URL for the selected environment. An
// explicitly configured custom URL always wins over the resolved set.
func BaseURL(country, client string, env Environment, customURL string) (string, error) {
	if customURL != "" {
		return customURL, nil
	}
	if env == EnvCustom {
		return "", fmt.Errorf("%w: custom environment selected but no custom URL configured", ErrConfiguration)
	}
	set := Endpoints(country, client)
	url, ok := set[env]
	if !ok {
		return "", fmt.Errorf("%w: no endpoint for environment %q", ErrConfiguration, env)
	}
	return url, nil
}
