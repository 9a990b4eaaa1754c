package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/taippa-io/taippa/domains/influencers/be/filter"
	"github.com/taippa-io/taippa/domains/influencers/be/service"
	"github.com/taippa-io/taippa/platform/go/catalog"
	platformlogging "github.com/taippa-io/taippa/platform/go/logging"
	"github.com/taippa-io/taippa/platform/go/problem"
)

type operation string

const (
	listOperation   operation = "influencersList"
	searchOperation operation = "influencersSearch"
	getOperation    operation = "influencersGet"
)

// Influencer is the JSON view of a directory profile.
type Influencer struct {
	ID              uuid.UUID `json:"id"`
	Handle          string    `json:"handle"`
	Name            string    `json:"name"`
	Platform        string    `json:"platform"`
	Followers       *int64    `json:"followers"`
	EngagementRate  *float64  `json:"engagement_rate"`
	Bio             *string   `json:"bio"`
	Topics          *string   `json:"topics"`
	Country         *string   `json:"country"`
	Language        *string   `json:"language"`
	AudienceCountry *string   `json:"audience_country"`
	AudienceGender  *string   `json:"audience_gender"`
	AudienceAge     *string   `json:"audience_age"`
	CreatedAt       time.Time `json:"created_at"`
}

// Handler exposes the influencer directory over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("influencers service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the directory endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/influencers", h.List)
	r.Get("/influencers/search", h.Search)
	r.Get("/influencers/{influencerId}", h.Get)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toAPIInfluencers(records))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, err := bindCriteria(r)
	if err != nil {
		h.writeError(w, r, err, searchOperation)
		return
	}

	records, err := h.svc.Search(r.Context(), criteria)
	if err != nil {
		h.writeError(w, r, err, searchOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toAPIInfluencers(records))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "influencerId"))
	if err != nil {
		h.writeError(w, r, &service.ValidationError{Fields: service.FieldErrors{
			"influencerId": {"influencerId must be a UUID"},
		}}, getOperation)
		return
	}

	record, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toAPIInfluencer(record))
}

// bindCriteria reads the search query string. Malformed numbers are reported per field.
func bindCriteria(r *http.Request) (filter.Criteria, error) {
	var c filter.Criteria
	query := r.URL.Query()
	fieldErrors := service.FieldErrors{}

	bind := func(name string, dest any) {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			fieldErrors[name] = append(fieldErrors[name], "invalid value for "+name)
		}
	}

	bind("q", &c.Q)
	bind("platform", &c.Platform)
	bind("country", &c.Country)
	bind("topic", &c.Topic)
	bind("min_followers", &c.MinFollowers)
	bind("max_followers", &c.MaxFollowers)
	bind("min_engagement_rate", &c.MinEngagementRate)
	bind("max_engagement_rate", &c.MaxEngagementRate)

	var sortBy, order *string
	bind("sort_by", &sortBy)
	bind("order", &order)
	if sortBy != nil {
		c.SortBy = *sortBy
	}
	if order != nil {
		c.Order = *order
	}

	if len(fieldErrors) > 0 {
		return filter.Criteria{}, &service.ValidationError{Fields: fieldErrors}
	}
	return c, nil
}

func toAPIInfluencers(records []catalog.Influencer) []Influencer {
	out := make([]Influencer, 0, len(records))
	for _, rec := range records {
		out = append(out, toAPIInfluencer(rec))
	}
	return out
}

func toAPIInfluencer(rec catalog.Influencer) Influencer {
	return Influencer{
		ID:              rec.ID,
		Handle:          rec.Handle,
		Name:            rec.Name,
		Platform:        rec.Platform,
		Followers:       rec.Followers,
		EngagementRate:  rec.EngagementRate,
		Bio:             rec.Bio,
		Topics:          rec.Topics,
		Country:         rec.Country,
		Language:        rec.Language,
		AudienceCountry: rec.AudienceCountry,
		AudienceGender:  rec.AudienceGender,
		AudienceAge:     rec.AudienceAge,
		CreatedAt:       rec.CreatedAt,
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
		logger.Error("influencers operation failed", append(fieldsForLog, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("influencer not found", append(fieldsForLog, zap.Error(err))...)
	default:
		logger.Warn("influencers request rejected", append(fieldsForLog, zap.Error(err))...)
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
			"influencer not found",
			problem.TypeNotFound,
			nil
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden,
			"Forbidden",
			"you are not allowed to perform this action",
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
