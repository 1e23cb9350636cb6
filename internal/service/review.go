package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/internal/repository"
	apperrors "github.com/utafrali/reviewhub/pkg/errors"
	"github.com/utafrali/reviewhub/pkg/logger"
	"github.com/utafrali/reviewhub/pkg/pagination"
	"github.com/utafrali/reviewhub/pkg/validator"
)

// AttributeInput is one pro or con submitted with a review.
type AttributeInput struct {
	Text       string `json:"text" validate:"required,min=1,max=100"`
	IsPositive bool   `json:"is_positive"`
}

// CreateReviewInput holds the parameters for creating a review. Attributes
// must be present; an empty list is allowed.
type CreateReviewInput struct {
	ProductID  int64            `json:"product_id" validate:"gt=0"`
	Text       string           `json:"text" validate:"required,max=5000"`
	Score      int              `json:"score" validate:"gte=1,lte=5"`
	Attributes []AttributeInput `json:"attributes" validate:"required,max=20,dive"`
}

// UpdateReviewInput holds the new text, score and full attribute set of a review.
type UpdateReviewInput struct {
	Text       string           `json:"text" validate:"required,max=5000"`
	Score      int              `json:"score" validate:"gte=1,lte=5"`
	Attributes []AttributeInput `json:"attributes" validate:"required,max=20,dive"`
}

func toAttributes(in []AttributeInput) []domain.ReviewAttribute {
	attrs := make([]domain.ReviewAttribute, 0, len(in))
	for _, a := range in {
		attrs = append(attrs, domain.ReviewAttribute{Text: a.Text, IsPositive: a.IsPositive})
	}
	return attrs
}

// ReviewListResult is one page of a product's reviews plus its summary.
type ReviewListResult struct {
	pagination.Result[domain.Review]
	Summary *domain.ReviewSummary `json:"summary"`
}

// EventPublisher receives review lifecycle events after they are committed.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review, attrs []domain.ReviewAttribute) error
	PublishReviewUpdated(ctx context.Context, review *domain.Review, attrs []domain.ReviewAttribute) error
	PublishReviewDeleted(ctx context.Context, review *domain.Review) error
	PublishReviewVoted(ctx context.Context, vote *domain.ReviewVote) error
}

// ReviewManager owns the lifecycle of reviews and their attributes, photos
// and votes. Every operation runs as exactly one unit of work.
type ReviewManager struct {
	tx     repository.Transactor
	events EventPublisher
	logger *slog.Logger
}

// NewReviewManager creates a new review manager.
func NewReviewManager(tx repository.Transactor, events EventPublisher, logger *slog.Logger) *ReviewManager {
	return &ReviewManager{
		tx:     tx,
		events: events,
		logger: logger,
	}
}

// GetReviewInfo assembles the review with its attributes, photo ids and vote
// tally.
func (m *ReviewManager) GetReviewInfo(ctx context.Context, id int64) (*domain.ReviewInfo, error) {
	var info *domain.ReviewInfo

	err := m.tx.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		review, err := findReview(ctx, s, id, false)
		if err != nil {
			return err
		}
		attrs, err := s.Attributes().ListByReviewID(ctx, id)
		if err != nil {
			return err
		}
		photos, err := s.Photos().ListByReviewID(ctx, id)
		if err != nil {
			return err
		}
		votes, err := s.Votes().ListByReviewID(ctx, id)
		if err != nil {
			return err
		}

		info = domain.NewReviewInfo(review, attrs, photos, votes)
		return nil
	})
	if err != nil {
		return nil, m.fail(ctx, "get_review_info", id, domain.Anonymous, err)
	}

	return info, nil
}

// CreateReview creates a review owned by the caller for an existing product.
func (m *ReviewManager) CreateReview(ctx context.Context, identity domain.Identity, input *CreateReviewInput) (*domain.Review, error) {
	if identity.IsAnonymous() {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if input == nil {
		return nil, apperrors.InvalidInput("request body is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ProductID: input.ProductID,
		UserID:    identity.UserID,
		Text:      input.Text,
		Score:     input.Score,
	}
	attrs := toAttributes(input.Attributes)

	err := m.tx.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		found, err := s.Catalog().ProductExists(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFound("product", input.ProductID)
		}
		found, err = s.Catalog().UserExists(ctx, identity.UserID)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.Unauthorized("unknown user")
		}

		if err := s.Reviews().Create(ctx, review); err != nil {
			return err
		}
		return s.Attributes().CreateBatch(ctx, review.ID, attrs)
	})
	if err != nil {
		return nil, m.fail(ctx, "create_review", 0, identity, err)
	}

	if err := m.events.PublishReviewCreated(ctx, review, attrs); err != nil {
		m.publishFailed(ctx, "review.created", review.ID, err)
	}

	m.log(ctx).InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Int("score", review.Score),
		slog.Int("attributes", len(attrs)),
	)

	return review, nil
}

// UpdateReview overwrites the text and score of the caller's review and
// replaces its attribute set. Photos and votes are kept.
func (m *ReviewManager) UpdateReview(ctx context.Context, identity domain.Identity, id int64, input *UpdateReviewInput) (*domain.Review, error) {
	if identity.IsAnonymous() {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if input == nil {
		return nil, apperrors.InvalidInput("request body is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	attrs := toAttributes(input.Attributes)
	var review *domain.Review

	err := m.tx.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		var err error
		review, err = findOwnedReview(ctx, s, identity, id)
		if err != nil {
			return err
		}

		review.Text = input.Text
		review.Score = input.Score
		if err := s.Reviews().Update(ctx, review); err != nil {
			return err
		}

		if err := s.Attributes().DeleteByReviewID(ctx, id); err != nil {
			return err
		}
		return s.Attributes().CreateBatch(ctx, id, attrs)
	})
	if err != nil {
		return nil, m.fail(ctx, "update_review", id, identity, err)
	}

	if err := m.events.PublishReviewUpdated(ctx, review, attrs); err != nil {
		m.publishFailed(ctx, "review.updated", id, err)
	}

	m.log(ctx).InfoContext(ctx, "review updated",
		slog.Int64("review_id", id),
		slog.Int("score", review.Score),
		slog.Int("attributes", len(attrs)),
	)

	return review, nil
}

// DeleteReview removes the caller's review together with its votes, photo
// references and attributes.
func (m *ReviewManager) DeleteReview(ctx context.Context, identity domain.Identity, id int64) error {
	if identity.IsAnonymous() {
		return apperrors.Unauthorized("authentication required")
	}

	var review *domain.Review

	err := m.tx.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		var err error
		review, err = findOwnedReview(ctx, s, identity, id)
		if err != nil {
			return err
		}

		// Dependents first; the schema has no cascading deletes.
		if err := s.Votes().DeleteByReviewID(ctx, id); err != nil {
			return err
		}
		if err := s.Photos().DeleteByReviewID(ctx, id); err != nil {
			return err
		}
		if err := s.Attributes().DeleteByReviewID(ctx, id); err != nil {
			return err
		}
		return s.Reviews().Delete(ctx, id)
	})
	if err != nil {
		return m.fail(ctx, "delete_review", id, identity, err)
	}

	if err := m.events.PublishReviewDeleted(ctx, review); err != nil {
		m.publishFailed(ctx, "review.deleted", id, err)
	}

	m.log(ctx).InfoContext(ctx, "review deleted",
		slog.Int64("review_id", id),
	)

	return nil
}

// VoteOnReview records the caller's like or dislike. A repeated vote
// overwrites the earlier polarity. Authors may vote on their own reviews.
// Callers without a user record are rejected like on create.
func (m *ReviewManager) VoteOnReview(ctx context.Context, identity domain.Identity, id int64, isPositive bool) error {
	if identity.IsAnonymous() {
		return apperrors.Unauthorized("authentication required")
	}

	vote := &domain.ReviewVote{UserID: identity.UserID, ReviewID: id, IsPositive: isPositive}

	err := m.tx.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		if _, err := findReview(ctx, s, id, false); err != nil {
			return err
		}
		found, err := s.Catalog().UserExists(ctx, identity.UserID)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.Unauthorized("unknown user")
		}
		err = s.Votes().Upsert(ctx, vote)
		if errors.Is(err, apperrors.ErrNotFound) {
			// The review was deleted after the lookup.
			return apperrors.NotFound("review", id)
		}
		return err
	})
	if err != nil {
		return m.fail(ctx, "vote_on_review", id, identity, err)
	}

	if err := m.events.PublishReviewVoted(ctx, vote); err != nil {
		m.publishFailed(ctx, "review.voted", id, err)
	}

	m.log(ctx).InfoContext(ctx, "review voted",
		slog.Int64("review_id", id),
		slog.Bool("is_positive", isPositive),
	)

	return nil
}

// ListProductReviews returns a page of a product's reviews, newest first,
// with the product's score summary.
func (m *ReviewManager) ListProductReviews(ctx context.Context, productID int64, page pagination.Params) (*ReviewListResult, error) {
	page = page.Normalize()
	var result *ReviewListResult

	err := m.tx.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		found, err := s.Catalog().ProductExists(ctx, productID)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFound("product", productID)
		}

		reviews, total, err := s.Reviews().ListByProductID(ctx, productID, page)
		if err != nil {
			return err
		}
		summary, err := s.Reviews().GetSummary(ctx, productID)
		if err != nil {
			return err
		}

		result = &ReviewListResult{
			Result:  pagination.NewResult(reviews, total, page),
			Summary: summary,
		}
		return nil
	})
	if err != nil {
		return nil, m.fail(ctx, "list_product_reviews", 0, domain.Anonymous, err)
	}

	return result, nil
}

// AttachPhoto records a photo reference on the caller's review. The image
// itself is stored by the upload service.
func (m *ReviewManager) AttachPhoto(ctx context.Context, identity domain.Identity, reviewID int64) (*domain.Photo, error) {
	if identity.IsAnonymous() {
		return nil, apperrors.Unauthorized("authentication required")
	}

	photo := &domain.Photo{ReviewID: reviewID}

	err := m.tx.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		if _, err := findOwnedReview(ctx, s, identity, reviewID); err != nil {
			return err
		}
		return s.Photos().Create(ctx, photo)
	})
	if err != nil {
		return nil, m.fail(ctx, "attach_photo", reviewID, identity, err)
	}

	m.log(ctx).InfoContext(ctx, "photo attached",
		slog.Int64("review_id", reviewID),
		slog.Int64("photo_id", photo.ID),
	)

	return photo, nil
}

func findReview(ctx context.Context, s repository.Store, id int64, forUpdate bool) (*domain.Review, error) {
	get := s.Reviews().GetByID
	if forUpdate {
		get = s.Reviews().GetByIDForUpdate
	}

	review, err := get(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("review", id)
	}
	return review, err
}

// findOwnedReview locks the review and checks that identity wrote it.
// Existence is checked before ownership.
func findOwnedReview(ctx context.Context, s repository.Store, identity domain.Identity, id int64) (*domain.Review, error) {
	review, err := findReview(ctx, s, id, true)
	if err != nil {
		return nil, err
	}
	if !identity.Owns(review) {
		return nil, apperrors.Unauthorized("only the author may modify this review")
	}
	return review, nil
}

// fail passes typed outcomes through unchanged. Anything else aborted the
// unit of work; it is logged here and reported as a storage failure.
func (m *ReviewManager) fail(ctx context.Context, op string, reviewID int64, identity domain.Identity, err error) error {
	if StatusOf(err) != StatusStorageFailure {
		return err
	}
	if errors.Is(err, apperrors.ErrStorage) {
		return err
	}

	l := logger.WithContext(logger.WithUserID(ctx, identity.UserID), m.logger)
	l.ErrorContext(ctx, "review operation failed",
		slog.String("operation", op),
		slog.Int64("review_id", reviewID),
		slog.String("error", err.Error()),
	)

	return apperrors.StorageFailure(err)
}

func (m *ReviewManager) publishFailed(ctx context.Context, event string, reviewID int64, err error) {
	m.log(ctx).ErrorContext(ctx, "failed to publish "+event+" event",
		slog.Int64("review_id", reviewID),
		slog.String("error", err.Error()),
	)
}

func (m *ReviewManager) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, m.logger)
}
