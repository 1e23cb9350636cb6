package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/internal/service"
	apperrors "github.com/utafrali/reviewhub/pkg/errors"
	"github.com/utafrali/reviewhub/pkg/httputil"
	"github.com/utafrali/reviewhub/pkg/middleware"
	"github.com/utafrali/reviewhub/pkg/pagination"
	"github.com/utafrali/reviewhub/pkg/validator"
)

// ReviewService is the Review Manager as seen by the routing layer.
type ReviewService interface {
	GetReviewInfo(ctx context.Context, id int64) (*domain.ReviewInfo, error)
	CreateReview(ctx context.Context, identity domain.Identity, input *service.CreateReviewInput) (*domain.Review, error)
	UpdateReview(ctx context.Context, identity domain.Identity, id int64, input *service.UpdateReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, identity domain.Identity, id int64) error
	VoteOnReview(ctx context.Context, identity domain.Identity, id int64, isPositive bool) error
	ListProductReviews(ctx context.Context, productID int64, page pagination.Params) (*service.ReviewListResult, error)
	AttachPhoto(ctx context.Context, identity domain.Identity, reviewID int64) (*domain.Photo, error)
}

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

func identityFrom(r *http.Request) domain.Identity {
	return domain.Identity{UserID: middleware.UserIDFromContext(r.Context())}
}

// authenticated writes 401 for anonymous callers so that request bodies are
// only read on behalf of an identified user.
func (h *ReviewHandler) authenticated(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity := identityFrom(r)
	if identity.IsAnonymous() {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return identity, false
	}
	return identity, true
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "review id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	info, err := h.service.GetReviewInfo(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: info})
}

// CreateReview handles POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authenticated(w, r)
	if !ok {
		return
	}

	var req service.CreateReviewInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.CreateReview(r.Context(), identity, &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// UpdateReview handles PUT /api/v1/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "review id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	identity, ok := h.authenticated(w, r)
	if !ok {
		return
	}

	var req service.UpdateReviewInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), identity, id, &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "review id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), identityFrom(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Like handles PUT /api/v1/reviews/{id}/like
func (h *ReviewHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, true)
}

// Dislike handles PUT /api/v1/reviews/{id}/dislike
func (h *ReviewHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, false)
}

func (h *ReviewHandler) vote(w http.ResponseWriter, r *http.Request, isPositive bool) {
	id, ok := httputil.ParseID(w, "review id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.VoteOnReview(r.Context(), identityFrom(r), id, isPositive); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AttachPhoto handles POST /api/v1/reviews/{id}/photos
func (h *ReviewHandler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "review id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	photo, err := h.service.AttachPhoto(r.Context(), identityFrom(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: photo})
}

// ListProductReviews handles GET /api/v1/products/{productId}/reviews
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	result, err := h.service.ListProductReviews(r.Context(), productID, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
