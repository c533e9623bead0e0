// Package handlers provides HTTP request handlers for the life manager API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/OscarCarPu/life-manager/internal/api/response"
	"github.com/OscarCarPu/life-manager/internal/logging"
	"github.com/OscarCarPu/life-manager/internal/tasks"
)

// RecommendationService is the subset of tasks.Service the handler needs
type RecommendationService interface {
	Recommend(ctx context.Context, today time.Time, limit int, forPlanning bool) ([]tasks.Recommendation, error)
	Today() time.Time
	Config() tasks.ServiceConfig
	Weights() tasks.Weights
}

// RecommendationHandler serves ranked task recommendations
type RecommendationHandler struct {
	service RecommendationService
	logger  logging.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(service RecommendationService, logger logging.Logger) *RecommendationHandler {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &RecommendationHandler{
		service: service,
		logger:  logger.WithComponent("recommendation_handler"),
	}
}

// recommendationQuery holds parsed query parameters
type recommendationQuery struct {
	today       time.Time
	limit       int
	forPlanning bool
}

// List handles GET /api/v1/recommendations
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		response.WriteBadRequest(w, "Invalid query parameters", err.Error())
		return
	}

	recs, err := h.service.Recommend(r.Context(), q.today, q.limit, q.forPlanning)
	if err != nil {
		if errors.Is(err, tasks.ErrInvalidLimit) {
			response.WriteBadRequest(w, "Invalid limit", err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to compute recommendations", "error", err.Error())
		response.WriteInternalError(w, "Failed to compute recommendations")
		return
	}

	response.WriteSuccess(w, recs)
}

// Weights handles GET /api/v1/recommendations/weights
func (h *RecommendationHandler) Weights(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, h.service.Weights())
}

func (h *RecommendationHandler) parseQuery(r *http.Request) (recommendationQuery, error) {
	values := r.URL.Query()
	q := recommendationQuery{
		today: h.service.Today(),
		limit: h.service.Config().DefaultLimit,
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("limit must be an integer")
		}
		if limit < 0 {
			return q, errors.New("limit cannot be negative")
		}
		q.limit = limit
	}

	if raw := values.Get("for_planning"); raw != "" {
		forPlanning, err := strconv.ParseBool(raw)
		if err != nil {
			return q, errors.New("for_planning must be a boolean")
		}
		q.forPlanning = forPlanning
	}

	if raw := values.Get("date"); raw != "" {
		day, err := tasks.ParseDate(raw)
		if err != nil {
			return q, err
		}
		q.today = day
	}

	return q, nil
}
