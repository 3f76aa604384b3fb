package simclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/ghg-game/internal/models"
)

func TestFetchInitialState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/ghg/initial", r.URL.Path)
		assert.Equal(t, "session-1", r.Header.Get(SessionHeader))
		_ = json.NewEncoder(w).Encode(map[string]any{"year": 2000, "GHG": 1000.5})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/ghg/"})
	initial, err := c.FetchInitialState(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, models.InitialState{StartYear: 2000, InitialGHG: 1000.5}, initial)
}

func TestSubmitRound(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/input", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "session-2", r.Header.Get(SessionHeader))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	err := c.SubmitRound(context.Background(), "session-2", models.NewPolicyInputs(500, 1200, 20_000), 2005)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"x_1": 500.0, "x_2": 1200.0, "x_3": 20000.0, "year": 2005.0}, got)
}

func TestFetchRoundResult(t *testing.T) {
	t.Run("with certificate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"GHG": 42, "story": "ok", "year": 2020, "certificate_level": "Bronze"}`))
		}))
		defer server.Close()

		result, err := New(Config{BaseURL: server.URL}).FetchRoundResult(context.Background(), "s")
		require.NoError(t, err)
		assert.Equal(t, models.RoundResult{GHG: 42, Story: "ok", Year: 2020, CertificateTier: "Bronze"}, result)
	})

	t.Run("null certificate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"GHG": 900, "story": "calm", "year": 2005, "certificate_level": null}`))
		}))
		defer server.Close()

		result, err := New(Config{BaseURL: server.URL}).FetchRoundResult(context.Background(), "s")
		require.NoError(t, err)
		assert.Empty(t, result.CertificateTier)
		assert.Equal(t, 2005, result.Year)
	})
}

func TestNonSuccessIsServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.FetchInitialState(context.Background(), "s")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "/initial", httpErr.Path)
}

func TestTransportFailureIsServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := New(Config{BaseURL: url}).SubmitRound(context.Background(), "s", models.DefaultPolicyInputs(), 2005)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestMalformedBodyIsServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "No data available"`))
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL}).FetchRoundResult(context.Background(), "s")
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{BaseURL: server.URL}).FetchInitialState(ctx, "s")
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIncompleteSuccessBodyIsServiceUnavailable(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "output error body", path: "/output", body: `{"error": "No data available"}`},
		{name: "output missing year", path: "/output", body: `{"GHG": 900, "story": "calm"}`},
		{name: "output missing GHG", path: "/output", body: `{"story": "calm", "year": 2005}`},
		{name: "initial error body", path: "/initial", body: `{"error": "not ready"}`},
		{name: "initial missing year", path: "/initial", body: `{"GHG": 1000}`},
		{name: "initial missing GHG", path: "/initial", body: `{"year": 2000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := New(Config{BaseURL: server.URL})
			var err error
			if tt.path == "/initial" {
				_, err = client.FetchInitialState(context.Background(), "s")
			} else {
				_, err = client.FetchRoundResult(context.Background(), "s")
			}
			assert.ErrorIs(t, err, models.ErrServiceUnavailable)
		})
	}
}

func TestZeroValuedFieldsAreAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"GHG": 0, "story": "", "year": 2020, "certificate_level": "Gold"}`))
	}))
	defer server.Close()

	got, err := New(Config{BaseURL: server.URL}).FetchRoundResult(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, models.RoundResult{GHG: 0, Year: 2020, CertificateTier: "Gold"}, got)
}
