package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/reviewhub/internal/domain"
	pkgkafka "github.com/utafrali/reviewhub/pkg/kafka"
	"github.com/utafrali/reviewhub/pkg/logger"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Kafka topic constants for review domain events.
var (
	TopicReviewCreated = pkgkafka.Topic(AggregateTypeReview, "created")
	TopicReviewUpdated = pkgkafka.Topic(AggregateTypeReview, "updated")
	TopicReviewDeleted = pkgkafka.Topic(AggregateTypeReview, "deleted")
	TopicReviewVoted   = pkgkafka.Topic(AggregateTypeReview, "voted")
)

// SourceReviewService identifies events originating from this service.
const SourceReviewService = "review-service"

// ReviewData is the payload of review.created and review.updated.
type ReviewData struct {
	ID         int64                    `json:"id"`
	ProductID  int64                    `json:"product_id"`
	UserID     int64                    `json:"user_id"`
	Text       string                   `json:"text"`
	Score      int                      `json:"score"`
	Attributes []domain.ReviewAttribute `json:"attributes"`
}

// ReviewDeletedData is the payload of review.deleted.
type ReviewDeletedData struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
}

// ReviewVotedData is the payload of review.voted.
type ReviewVotedData struct {
	ReviewID   int64 `json:"review_id"`
	UserID     int64 `json:"user_id"`
	IsPositive bool  `json:"is_positive"`
}

// Publisher is the part of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review, attrs []domain.ReviewAttribute) error {
	return p.publish(ctx, TopicReviewCreated, review.ID, newReviewData(review, attrs))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review, attrs []domain.ReviewAttribute) error {
	return p.publish(ctx, TopicReviewUpdated, review.ID, newReviewData(review, attrs))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewDeleted, review.ID, ReviewDeletedData{ID: review.ID, ProductID: review.ProductID})
}

// PublishReviewVoted publishes a review.voted event.
func (p *Producer) PublishReviewVoted(ctx context.Context, vote *domain.ReviewVote) error {
	return p.publish(ctx, TopicReviewVoted, vote.ReviewID, ReviewVotedData{
		ReviewID:   vote.ReviewID,
		UserID:     vote.UserID,
		IsPositive: vote.IsPositive,
	})
}

func (p *Producer) publish(ctx context.Context, topic string, reviewID int64, data any) error {
	event, err := pkgkafka.NewEvent(topic, strconv.FormatInt(reviewID, 10), AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.Int64("review_id", reviewID),
	)

	return nil
}

func newReviewData(review *domain.Review, attrs []domain.ReviewAttribute) ReviewData {
	if attrs == nil {
		attrs = []domain.ReviewAttribute{}
	}
	return ReviewData{
		ID:         review.ID,
		ProductID:  review.ProductID,
		UserID:     review.UserID,
		Text:       review.Text,
		Score:      review.Score,
		Attributes: attrs,
	}
}

// Discard drops every event. It stands in for the producer when no brokers
// are configured.
type Discard struct{}

func (Discard) PublishReviewCreated(context.Context, *domain.Review, []domain.ReviewAttribute) error {
	return nil
}

func (Discard) PublishReviewUpdated(context.Context, *domain.Review, []domain.ReviewAttribute) error {
	return nil
}

func (Discard) PublishReviewDeleted(context.Context, *domain.Review) error { return nil }

func (Discard) PublishReviewVoted(context.Context, *domain.ReviewVote) error { return nil }
