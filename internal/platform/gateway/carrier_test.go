package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCarrier(t *testing.T, handler http.HandlerFunc) *Carrier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	settings, err := NewSettings(srv.URL, "login-id", "secret-key")
	require.NoError(t, err)
	settings.Headers = map[string]string{"X-Source-Platform": "storefront"}
	return NewCarrier(settings, zap.NewNop().Sugar())
}

func TestCarrier_RequestMergesAuthBlock(t *testing.T) {
	var got map[string]any
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/session", r.URL.Path)
		require.Equal(t, "storefront", r.Header.Get("X-Source-Platform"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"status":     map[string]any{"status": "OK"},
			"requestId":  123,
			"processUrl": "https://checkout.example/session/123",
		})
	})

	resp, err := c.Request(context.Background(), &RedirectRequest{
		ReturnURL:  "https://store.example/return",
		Expiration: "2026-08-25T13:00:00-05:00",
		Payment:    &Payment{Reference: "ORD-1", Amount: Amount{Currency: "COP", Total: 15000}},
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccessful())
	require.EqualValues(t, 123, resp.RequestID)
	require.Equal(t, "https://checkout.example/session/123", resp.ProcessURL)

	auth, ok := got["auth"].(map[string]any)
	require.True(t, ok, "auth block must be merged into the payload")
	require.Equal(t, "login-id", auth["login"])
	require.NotEmpty(t, auth["tranKey"])
	require.NotEmpty(t, auth["nonce"])
	require.NotEmpty(t, auth["seed"])
	require.Equal(t, "ORD-1", got["payment"].(map[string]any)["reference"])
}

func TestCarrier_DecodesBusinessFailureBody(t *testing.T) {
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"status": "FAILED", "reason": "401", "message": "authentication failed"},
		})
	})

	resp, err := c.Request(context.Background(), &RedirectRequest{Payment: &Payment{Reference: "ORD-2"}})
	require.NoError(t, err, "a 4xx with a JSON body is a business failure, not a transport error")
	require.False(t, resp.IsSuccessful())
	require.Equal(t, "authentication failed", resp.Status.Message)
}

func TestCarrier_QueryHitsSessionPath(t *testing.T) {
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/session/456", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"requestId": 456,
			"status":    map[string]any{"status": "APPROVED"},
			"payment": []map[string]any{{
				"status":        map[string]any{"status": "APPROVED", "date": "2026-08-25T11:19:43-05:00"},
				"authorization": "999999",
				"receipt":       "120000",
			}},
		})
	})

	info, err := c.Query(context.Background(), 456)
	require.NoError(t, err)
	require.True(t, info.IsSuccessful())
	require.True(t, info.Status.IsApproved())
	require.Equal(t, "999999", info.LastTransaction().Authorization)
}

func TestCarrier_NetworkFailureWrapsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	settings, err := NewSettings(srv.URL, "login-id", "secret-key")
	require.NoError(t, err)
	srv.Close() // connection refused from here on

	c := NewCarrier(settings, zap.NewNop().Sugar())
	_, err = c.Query(context.Background(), 1)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, "query", gwErr.Op)
}

func TestCarrier_GarbageBodyWrapsGatewayError(t *testing.T) {
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := c.Query(context.Background(), 1)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
}

func TestNewSettings_Validation(t *testing.T) {
	_, err := NewSettings("https://checkout.example", "", "secret")
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewSettings("not a url", "login", "secret")
	require.ErrorIs(t, err, ErrConfiguration)

	s, err := NewSettings("https://checkout.example", "login", "secret")
	require.NoError(t, err)
	require.Equal(t, "https://checkout.example/api/collect", s.Endpoint("api/collect"))
}
