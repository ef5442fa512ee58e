package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrConfiguration marks credentials or connection settings the carrier
// cannot operate without. Calls fail immediately, nothing is retried.
var ErrConfiguration = errors.New("gateway configuration error")

const defaultTimeout = 15 * time.Second

// Settings holds the connection parameters of one merchant account against
// one resolved gateway endpoint.
type Settings struct {
	BaseURL   string
	Login     string
	TranKey   string
	Timeout   time.Duration
	VerifySSL bool
	Headers   map[string]string
}

// NewSettings validates the credentials and base URL up front so a
// misconfigured merchant never reaches the network.
func NewSettings(baseURL, login, tranKey string) (*Settings, error) {
	if login == "" || tranKey == "" {
		return nil, fmt.Errorf("%w: no login or tranKey provided", ErrConfiguration)
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: no usable service URL provided: %q", ErrConfiguration, baseURL)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Settings{
		BaseURL:   baseURL,
		Login:     login,
		TranKey:   tranKey,
		Timeout:   defaultTimeout,
		VerifySSL: true,
	}, nil
}

// Endpoint joins a relative gateway path onto the base URL.
func (s *Settings) Endpoint(path string) string {
	return s.BaseURL + strings.TrimPrefix(path, "/")
}

func (s *Settings) auth() (*Auth, error) {
	return freshAuth(s.Login, s.TranKey)
}
