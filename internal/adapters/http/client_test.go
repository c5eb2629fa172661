package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmcprobe/internal/testutil"
)

func newTestAdapter(opts Options) *Adapter {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	opts.RequestsPerSecond = 1000
	opts.Burst = 1000
	return NewAdapter(opts, testutil.Logger())
}

func TestAdapter_GetWithAuth_SendsTokenHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "abc123", r.Header.Get(AuthTokenHeader))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"PowerState":"On"}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(Options{})
	resp, err := adapter.GetWithAuth(context.Background(), server.URL+"/redfish/v1/Systems/system", "abc123")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"PowerState":"On"}`, string(body))
}

func TestAdapter_Post_SendsJSONWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get(AuthTokenHeader))

		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "root", payload["UserName"])

		w.Header().Set(AuthTokenHeader, "tok")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	adapter := newTestAdapter(Options{})
	resp, err := adapter.Post(context.Background(), server.URL, map[string]string{
		"UserName": "root",
		"Password": "0penBmc",
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "tok", resp.Header.Get(AuthTokenHeader))
}

func TestAdapter_RetriesGetOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := newTestAdapter(Options{RetryCount: 3})
	resp, err := adapter.GetWithAuth(context.Background(), server.URL, "tok")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAdapter_NeverRetriesPost(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := newTestAdapter(Options{RetryCount: 3})
	resp, err := adapter.PostWithAuth(context.Background(), server.URL, "tok", map[string]string{"ResetType": "On"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAdapter_InsecureSkipVerify(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	secure := newTestAdapter(Options{})
	_, err := secure.DeleteWithAuth(context.Background(), server.URL, "tok")
	require.Error(t, err, "self-signed certificate must be rejected by default")

	insecure := newTestAdapter(Options{InsecureSkipVerify: true})
	resp, err := insecure.DeleteWithAuth(context.Background(), server.URL, "tok")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAdapter_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := newTestAdapter(Options{})
	_, err := adapter.GetWithAuth(ctx, server.URL, "tok")
	require.Error(t, err)
}
