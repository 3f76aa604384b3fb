package simserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/ghg-game/internal/logger"
	"github.com/tatianab/ghg-game/internal/narrator"
	"github.com/tatianab/ghg-game/internal/simclient"
	"github.com/tatianab/ghg-game/internal/simulator"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	model := simulator.Model{StartYear: 2000, FinalYear: 2020, InitialGHG: 1000}
	reg, err := simulator.NewRegistry(model, narrator.NewTemplate(), 8, logger.Discard())
	require.NoError(t, err)
	return NewRouter(reg)
}

func do(t *testing.T, h http.Handler, method, path, session, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if session != "" {
		req.Header.Set(simclient.SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestInitial(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/ghg/initial", "s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, 2000.0, body["year"])
	assert.Equal(t, 1000.0, body["GHG"])
}

func TestInputAndOutput(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodGet, "/ghg/initial", "s1", "")

	rec := do(t, h, http.MethodPost, "/ghg/input", "s1", `{"x_1":0,"x_2":0,"x_3":10000,"year":2005}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Data processed successfully", decode(t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/ghg/output", "s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 1050.0, body["GHG"])
	assert.Equal(t, 2005.0, body["year"])
	assert.NotEmpty(t, body["story"])
	assert.Contains(t, body, "certificate_level")
	assert.Nil(t, body["certificate_level"])
}

func TestFinalRoundCarriesCertificate(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodGet, "/ghg/initial", "s1", "")

	for _, year := range []string{"2005", "2010", "2015", "2020"} {
		rec := do(t, h, http.MethodPost, "/ghg/input", "s1", `{"x_1":1000000,"x_2":0,"x_3":10000,"year":`+year+`}`)
		require.Equal(t, http.StatusOK, rec.Code, year)
	}

	body := decode(t, do(t, h, http.MethodGet, "/ghg/output", "s1", ""))
	assert.Equal(t, 2020.0, body["year"])
	assert.Equal(t, simulator.TierGold, body["certificate_level"])
}

func TestInputValidation(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodGet, "/ghg/initial", "s1", "")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing knob", body: `{"x_1":0,"x_2":0,"year":2005}`, field: "x_3"},
		{name: "knob too high", body: `{"x_1":2000000,"x_2":0,"x_3":10000,"year":2005}`, field: "x_1"},
		{name: "knob too low", body: `{"x_1":0,"x_2":0,"x_3":5,"year":2005}`, field: "x_3"},
		{name: "missing year", body: `{"x_1":0,"x_2":0,"x_3":10000}`, field: "year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/ghg/input", "s1", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			fields, ok := decode(t, rec)["fields"].(map[string]any)
			require.True(t, ok)
			assert.Contains(t, fields, tt.field)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/ghg/input", "s1", `{"x_1":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("unknown field", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/ghg/input", "s1", `{"x_1":0,"x_2":0,"x_3":10000,"year":2005,"x_4":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("year past final", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/ghg/input", "s1", `{"x_1":0,"x_2":0,"x_3":10000,"year":2030}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSessionErrors(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/ghg/output", "nobody", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/ghg/input", "nobody", `{"x_1":0,"x_2":0,"x_3":10000,"year":2005}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	do(t, h, http.MethodGet, "/ghg/initial", "s1", "")
	rec = do(t, h, http.MethodGet, "/ghg/output", "s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionsAreSeparatedByHeader(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodGet, "/ghg/initial", "a", "")
	do(t, h, http.MethodGet, "/ghg/initial", "", "")

	rec := do(t, h, http.MethodPost, "/ghg/input", "a", `{"x_1":0,"x_2":0,"x_3":10000,"year":2005}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The default session has not played a round yet.
	rec = do(t, h, http.MethodGet, "/ghg/output", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	do(t, h, http.MethodGet, "/ghg/initial", "m", "")
	rec = do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghg_sessions_started_total")
	assert.Contains(t, rec.Body.String(), `path="/ghg/initial"`)
}

func TestUnmatchedRoutesShareOneMetricLabel(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/wp-login.php", "/.env", "/admin/config"} {
		rec := do(t, h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	body := do(t, h, http.MethodGet, "/metrics", "", "").Body.String()
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, `path="/wp-login.php"`)
	assert.NotContains(t, body, `path="/.env"`)
}
