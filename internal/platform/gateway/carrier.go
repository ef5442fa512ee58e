package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// GatewayError wraps a transport or decoding failure talking to the gateway.
// It is retryable only as a fresh query from the sweeper, never inline.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("gateway %s: %v", e.Op, e.Err) }
func (e *GatewayError) Unwrap() error { return e.Err }

// Carrier performs the four gateway operations over HTTP. Business failures
// are reported inside the decoded response status, not as errors; errors mean
// the outcome is unknown and the record must stay PENDING for a later sweep.
type Carrier struct {
	settings *Settings
	client   *http.Client
	log      *zap.SugaredLogger
}

func NewCarrier(settings *Settings, log *zap.SugaredLogger) *Carrier {
	transport := http.DefaultTransport
	if !settings.VerifySSL {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &Carrier{
		settings: settings,
		client:   &http.Client{Timeout: settings.Timeout, Transport: transport},
		log:      log,
	}
}

// Request creates a payment session and returns the URL to send the buyer to.
func (c *Carrier) Request(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	body := struct {
		*RedirectRequest
		Auth *Auth `json:"auth"`
	}{RedirectRequest: req}

	var out RedirectResponse
	if err := c.call(ctx, "request", c.settings.Endpoint("api/session"), &body.Auth, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query fetches the current state of a session.
func (c *Carrier) Query(ctx context.Context, requestID int64) (*RedirectInformation, error) {
	body := struct {
		Auth *Auth `json:"auth"`
	}{}

	var out RedirectInformation
	url := c.settings.Endpoint(fmt.Sprintf("api/session/%d", requestID))
	if err := c.call(ctx, "query", url, &body.Auth, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Collect charges a stored instrument directly, without a redirect.
func (c *Carrier) Collect(ctx context.Context, req *CollectRequest) (*RedirectInformation, error) {
	body := struct {
		*CollectRequest
		Auth *Auth `json:"auth"`
	}{CollectRequest: req}

	var out RedirectInformation
	if err := c.call(ctx, "collect", c.settings.Endpoint("api/collect"), &body.Auth, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reverse voids a settled transaction identified by its internal reference.
func (c *Carrier) Reverse(ctx context.Context, internalReference int64) (*ReverseResponse, error) {
	body := struct {
		InternalReference int64 `json:"internalReference"`
		Auth              *Auth `json:"auth"`
	}{InternalReference: internalReference}

	var out ReverseResponse
	if err := c.call(ctx, "reverse", c.settings.Endpoint("api/reverse"), &body.Auth, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call POSTs the payload with a fresh auth block and decodes the JSON reply
// into out. Non-2xx replies are decoded all the same: the gateway reports
// business failures inside 4xx bodies.
func (c *Carrier) call(ctx context.Context, op, url string, auth **Auth, payload, out any) error {
	a, err := c.settings.auth()
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	*auth = a

	raw, err := json.Marshal(payload)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.settings.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warnw("gateway_call_failed", "op", op, "url", url, "err", err)
		return &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warnw("gateway_decode_failed", "op", op, "http_status", resp.StatusCode, "err", err)
		return &GatewayError{Op: op, Err: fmt.Errorf("decoding response (http %d): %w", resp.StatusCode, err)}
	}
	return nil
}
