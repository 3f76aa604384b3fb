package simserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tatianab/ghg-game/internal/logger"
	"github.com/tatianab/ghg-game/internal/models"
	"github.com/tatianab/ghg-game/internal/simclient"
	"github.com/tatianab/ghg-game/internal/simulator"
)

const maxBodyBytes = 1 << 16

type initialResponse struct {
	Year int     `json:"year"`
	GHG  float64 `json:"GHG"`
}

type inputRequest struct {
	X1   *float64 `json:"x_1" validate:"required,gte=0,lte=1000000"`
	X2   *float64 `json:"x_2" validate:"required,gte=0,lte=50000"`
	X3   *float64 `json:"x_3" validate:"required,gte=10000,lte=100000"`
	Year int      `json:"year" validate:"required,gt=0"`
}

type outputResponse struct {
	GHG              float64 `json:"GHG"`
	Story            string  `json:"story"`
	Year             int     `json:"year"`
	CertificateLevel *string `json:"certificate_level"`
}

type handlers struct {
	registry *simulator.Registry
	validate *validator.Validate
}

// sessionID reads the session header, falling back to the shared default
// session for clients that do not send one.
func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(simclient.SessionHeader)); id != "" {
		return id
	}
	return simulator.DefaultSession
}

func (h *handlers) initial(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	state, err := h.registry.Reset(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sessionsStarted.Inc()
	logger.FromContext(r.Context()).Info("session started", "start_year", state.StartYear)
	respondJSON(w, http.StatusOK, initialResponse{Year: state.StartYear, GHG: state.InitialGHG})
}

func (h *handlers) input(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: formatValidationError(err)})
		return
	}

	inputs := models.PolicyInputs{Reforestation: *req.X1, Travel: *req.X2, Energy: *req.X3}
	out, err := h.registry.Submit(r.Context(), sessionID(r), inputs, req.Year)
	if err != nil {
		respondError(w, r, err)
		return
	}

	roundsSimulated.Inc()
	if out.Tier != "" {
		certificatesIssued.WithLabelValues(out.Tier).Inc()
	}
	logger.FromContext(r.Context()).Info("round simulated", "year", out.Year, "ghg", out.GHG, "tier", out.Tier)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Data processed successfully"})
}

func (h *handlers) output(w http.ResponseWriter, r *http.Request) {
	out, err := h.registry.Output(sessionID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := outputResponse{GHG: out.GHG, Story: out.Story, Year: out.Year}
	if out.Tier != "" {
		tier := out.Tier
		resp.CertificateLevel = &tier
	}
	respondJSON(w, http.StatusOK, resp)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps simulator errors to HTTP statuses.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, simulator.ErrNoSession):
		status = http.StatusConflict
	case errors.Is(err, simulator.ErrNoRound):
		status = http.StatusNotFound
	case errors.Is(err, simulator.ErrYearOutOfRange), errors.Is(err, simulator.ErrInvalidSessionID):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// formatValidationError reports failed fields by their JSON names.
func formatValidationError(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "invalid request"
		return errs
	}
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = "this field is required"
		case "gte":
			errs[field] = fmt.Sprintf("must be at least %s", e.Param())
		case "gt":
			errs[field] = fmt.Sprintf("must be greater than %s", e.Param())
		case "lte":
			errs[field] = fmt.Sprintf("must be at most %s", e.Param())
		default:
			errs[field] = "invalid value"
		}
	}
	return errs
}
