package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/mindstats/internal/app"
	"github.com/okian/mindstats/pkg/logger"
)

// maxBodyBytes bounds trigger request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validatePeriod, generateRequest{})
	return v
}

// generateRequest mirrors the body of POST /generate-analytics. Every field is optional.
type generateRequest struct {
	PeriodStart string         `json:"period_start"`
	PeriodEnd   string         `json:"period_end"`
	Filters     map[string]any `json:"filters"`
}

// validatePeriod requires RFC3339 bounds with period_end not before period_start.
func validatePeriod(sl validator.StructLevel) {
	g := sl.Current().Interface().(generateRequest)
	start, err := parseBound(g.PeriodStart)
	if err != nil {
		sl.ReportError(g.PeriodStart, "period_start", "PeriodStart", "datetime", time.RFC3339)
	}
	end, err := parseBound(g.PeriodEnd)
	if err != nil {
		sl.ReportError(g.PeriodEnd, "period_end", "PeriodEnd", "datetime", time.RFC3339)
	}
	if start != nil && end != nil && end.Before(*start) {
		sl.ReportError(g.PeriodEnd, "period_end", "PeriodEnd", "gtefield", "PeriodStart")
	}
}

// toRequest validates the body and converts it into a service request.
func (g generateRequest) toRequest() (service.Request, error) {
	if err := validate.Struct(g); err != nil {
		return service.Request{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	start, err := parseBound(g.PeriodStart)
	if err != nil {
		return service.Request{}, err
	}
	end, err := parseBound(g.PeriodEnd)
	if err != nil {
		return service.Request{}, err
	}
	return service.Request{PeriodStart: start, PeriodEnd: end, Filters: g.Filters}, nil
}

func parseBound(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return &t, nil
}

// GenerateHandler triggers snapshot runs.
type GenerateHandler struct {
	deps Dependencies
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(deps Dependencies) *GenerateHandler {
	return &GenerateHandler{deps: deps}
}

// HandleGenerate handles POST /generate-analytics. An empty body uses the default window.
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body generateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON", ErrBadRequest))
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		logger.Get().Error(ctx, "snapshot generation failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, analyticsResponse{
			Success: false,
			Message: fmt.Sprintf("%s %v", service.MessageFailed, err),
		})
		return
	}

	dup := res.Duplicate
	writeJSON(w, http.StatusOK, analyticsResponse{
		Success:         res.Success,
		Message:         res.Message,
		SnapshotID:      res.SnapshotID,
		SnapshotVersion: res.SnapshotVersion,
		Duplicate:       &dup,
	})
}
