package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/taippa-io/taippa/domains/matching/be/scoring"
	"github.com/taippa-io/taippa/domains/matching/be/service"
	"github.com/taippa-io/taippa/platform/go/catalog"
	platformlogging "github.com/taippa-io/taippa/platform/go/logging"
	"github.com/taippa-io/taippa/platform/go/problem"
)

type operation string

const (
	matchOperation    operation = "matchBrand"
	brandGetOperation operation = "brandsGet"
)

// Brand is the JSON view of a brand.
type Brand struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	Industry       *string   `json:"industry"`
	TargetAudience *string   `json:"target_audience"`
}

// Handler exposes brand matching over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("matching service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the matching endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/match/brand/{brandId}", h.Match)
	r.Get("/brands/{brandId}", h.GetBrand)
}

// Match returns the best top_n influencers for the brand; top_n defaults to 5.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	brandID, ok := h.brandID(w, r, matchOperation)
	if !ok {
		return
	}

	var topN *int
	if err := runtime.BindQueryParameter("form", true, false, "top_n", r.URL.Query(), &topN); err != nil {
		h.writeError(w, r, &service.ValidationError{Fields: service.FieldErrors{
			"top_n": {"top_n must be an integer"},
		}}, matchOperation)
		return
	}
	n := scoring.DefaultTopN
	if topN != nil {
		n = *topN
	}

	results, err := h.svc.Match(r.Context(), brandID, n)
	if err != nil {
		h.writeError(w, r, err, matchOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, results)
}

func (h *Handler) GetBrand(w http.ResponseWriter, r *http.Request) {
	brandID, ok := h.brandID(w, r, brandGetOperation)
	if !ok {
		return
	}

	brand, err := h.svc.Brand(r.Context(), brandID)
	if err != nil {
		h.writeError(w, r, err, brandGetOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toAPIBrand(brand))
}

func (h *Handler) brandID(w http.ResponseWriter, r *http.Request, op operation) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "brandId"))
	if err != nil {
		h.writeError(w, r, &service.ValidationError{Fields: service.FieldErrors{
			"brandId": {"brandId must be a UUID"},
		}}, op)
		return uuid.Nil, false
	}
	return id, true
}

func toAPIBrand(b catalog.Brand) Brand {
	return Brand{
		ID:             b.ID,
		OwnerID:        b.OwnerID,
		Name:           b.Name,
		Description:    b.Description,
		Industry:       b.Industry,
		TargetAudience: b.TargetAudience,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	if errors.Is(err, service.ErrUnauthenticated) {
		problem.Unauthorized(w, "authentication required")
		return
	}
	problem.Write(w, h.problemForError(r.Context(), err, op))
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) problem.Details {
	status, title, detail, problemType, fields := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fieldsForLog := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("matching operation failed", append(fieldsForLog, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("brand not found", append(fieldsForLog, zap.Error(err))...)
	default:
		logger.Warn("matching request rejected", append(fieldsForLog, zap.Error(err))...)
	}

	return problem.New(status, problemType, title, detail, fields)
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors service.FieldErrors) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest,
			"Validation failed",
			"one or more fields are invalid",
			problem.TypeValidation,
			validationErr.Fields
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound,
			"Resource not found",
			"brand not found",
			problem.TypeNotFound,
			nil
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden,
			"Forbidden",
			"access denied",
			problem.TypeForbidden,
			nil
	default:
		return http.StatusInternalServerError,
			"Internal server error",
			"an unexpected error occurred",
			problem.TypeInternal,
			nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
