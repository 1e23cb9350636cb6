package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/internal/repository"
	"github.com/utafrali/reviewhub/internal/repository/memory"
	apperrors "github.com/utafrali/reviewhub/pkg/errors"
	"github.com/utafrali/reviewhub/pkg/logger"
	"github.com/utafrali/reviewhub/pkg/pagination"
	"github.com/utafrali/reviewhub/pkg/validator"
)

// --- Mock Event Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review, attrs []domain.ReviewAttribute) error {
	return m.Called(ctx, review, attrs).Error(0)
}

func (m *mockPublisher) PublishReviewUpdated(ctx context.Context, review *domain.Review, attrs []domain.ReviewAttribute) error {
	return m.Called(ctx, review, attrs).Error(0)
}

func (m *mockPublisher) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockPublisher) PublishReviewVoted(ctx context.Context, vote *domain.ReviewVote) error {
	return m.Called(ctx, vote).Error(0)
}

// acceptAll lets every publish succeed without asserting on it.
func acceptAll(m *mockPublisher) *mockPublisher {
	m.On("PublishReviewCreated", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishReviewUpdated", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishReviewDeleted", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PublishReviewVoted", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// --- Transactor doubles ---

type failingTransactor struct{ err error }

func (f failingTransactor) WithinTx(context.Context, func(context.Context, repository.Store) error) error {
	return f.err
}

type countingTransactor struct {
	next  repository.Transactor
	calls int
}

func (c *countingTransactor) WithinTx(ctx context.Context, fn func(context.Context, repository.Store) error) error {
	c.calls++
	return c.next.WithinTx(ctx, fn)
}

// --- Test Helpers ---

var (
	author = domain.Identity{UserID: 1}
	voter  = domain.Identity{UserID: 2}
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore() *memory.Store {
	s := memory.New()
	s.AddProduct(5)
	s.AddUser(1)
	s.AddUser(2)
	return s
}

func newTestManager(t *testing.T) (*ReviewManager, *mockPublisher) {
	t.Helper()
	pub := acceptAll(new(mockPublisher))
	return NewReviewManager(newTestStore(), pub, newTestLogger()), pub
}

func greatInput() *CreateReviewInput {
	return &CreateReviewInput{
		ProductID:  5,
		Text:       "Great",
		Score:      4,
		Attributes: []AttributeInput{{Text: "fast", IsPositive: true}},
	}
}

func mustCreate(t *testing.T, m *ReviewManager) *domain.Review {
	t.Helper()
	review, err := m.CreateReview(context.Background(), author, greatInput())
	require.NoError(t, err)
	return review
}

func mustInfo(t *testing.T, m *ReviewManager, id int64) *domain.ReviewInfo {
	t.Helper()
	info, err := m.GetReviewInfo(context.Background(), id)
	require.NoError(t, err)
	return info
}

// --- Tests ---

func TestReviewLifecycle(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	review := mustCreate(t, m)
	info := mustInfo(t, m, review.ID)
	assert.Equal(t, "Great", info.Text)
	assert.Equal(t, 4, info.Score)
	assert.Equal(t, 0, info.Likes)
	assert.Equal(t, 0, info.Dislikes)
	assert.Equal(t, []domain.ReviewAttribute{{ReviewID: review.ID, Text: "fast", IsPositive: true}}, info.Attributes)

	require.NoError(t, m.VoteOnReview(ctx, voter, review.ID, true))
	info = mustInfo(t, m, review.ID)
	assert.Equal(t, 1, info.Likes)
	assert.Equal(t, 0, info.Dislikes)

	require.NoError(t, m.VoteOnReview(ctx, voter, review.ID, false))
	info = mustInfo(t, m, review.ID)
	assert.Equal(t, 0, info.Likes)
	assert.Equal(t, 1, info.Dislikes)

	_, err := m.UpdateReview(ctx, author, review.ID, &UpdateReviewInput{
		Text:       "Actually okay",
		Score:      4,
		Attributes: []AttributeInput{},
	})
	require.NoError(t, err)
	info = mustInfo(t, m, review.ID)
	assert.Equal(t, "Actually okay", info.Text)
	assert.Empty(t, info.Attributes)
	assert.Equal(t, 1, info.Dislikes)

	err = m.DeleteReview(ctx, voter, review.ID)
	assert.Equal(t, StatusUnauthorized, StatusOf(err))

	require.NoError(t, m.DeleteReview(ctx, author, review.ID))
	_, err = m.GetReviewInfo(ctx, review.ID)
	assert.Equal(t, StatusNotFound, StatusOf(err))
}

func TestCreateReview_AttributesRoundTripAsSet(t *testing.T) {
	m, _ := newTestManager(t)

	input := greatInput()
	input.Attributes = []AttributeInput{
		{Text: "fast", IsPositive: true},
		{Text: "loud", IsPositive: false},
		{Text: "cheap", IsPositive: true},
	}
	review, err := m.CreateReview(context.Background(), author, input)
	require.NoError(t, err)
	assert.Equal(t, author.UserID, review.UserID)
	assert.NotZero(t, review.ID)

	info := mustInfo(t, m, review.ID)
	assert.ElementsMatch(t, []domain.ReviewAttribute{
		{ReviewID: review.ID, Text: "fast", IsPositive: true},
		{ReviewID: review.ID, Text: "loud", IsPositive: false},
		{ReviewID: review.ID, Text: "cheap", IsPositive: true},
	}, info.Attributes)
}

func TestCreateReview_Anonymous(t *testing.T) {
	m, _ := newTestManager(t)

	review, err := m.CreateReview(context.Background(), domain.Anonymous, greatInput())

	assert.Nil(t, review)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCreateReview_UnknownProductWritesNothing(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	input := greatInput()
	input.ProductID = 99
	review, err := m.CreateReview(ctx, author, input)

	assert.Nil(t, review)
	assert.Equal(t, StatusNotFound, StatusOf(err))

	list, err := m.ListProductReviews(ctx, 5, pagination.DefaultParams())
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
	_, err = m.GetReviewInfo(ctx, 1)
	assert.Equal(t, StatusNotFound, StatusOf(err))
}

func TestCreateReview_UnknownUser(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateReview(context.Background(), domain.Identity{UserID: 42}, greatInput())

	assert.Equal(t, StatusUnauthorized, StatusOf(err))
}

func TestCreateReview_ValidationHappensBeforeTransaction(t *testing.T) {
	tx := &countingTransactor{next: newTestStore()}
	m := NewReviewManager(tx, acceptAll(new(mockPublisher)), newTestLogger())

	tests := []struct {
		name  string
		input *CreateReviewInput
		field string
	}{
		{"nil attributes", &CreateReviewInput{ProductID: 5, Text: "ok", Score: 3}, "attributes"},
		{"score too high", &CreateReviewInput{ProductID: 5, Text: "ok", Score: 6, Attributes: []AttributeInput{}}, "score"},
		{"score missing", &CreateReviewInput{ProductID: 5, Text: "ok", Attributes: []AttributeInput{}}, "score"},
		{"missing text", &CreateReviewInput{ProductID: 5, Score: 3, Attributes: []AttributeInput{}}, "text"},
		{"missing product", &CreateReviewInput{Text: "ok", Score: 3, Attributes: []AttributeInput{}}, "product_id"},
		{"empty attribute text", &CreateReviewInput{ProductID: 5, Text: "ok", Score: 3,
			Attributes: []AttributeInput{{Text: "fine"}, {Text: ""}}}, "attributes[1].text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateReview(context.Background(), author, tt.input)

			assert.Equal(t, StatusValidationFailure, StatusOf(err))
			var verr *validator.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields(), tt.field)
		})
	}

	_, err := m.CreateReview(context.Background(), author, nil)
	assert.Equal(t, StatusValidationFailure, StatusOf(err))
	assert.Zero(t, tx.calls)
}

func TestCreateReview_PublishesAfterCommit(t *testing.T) {
	pub := new(mockPublisher)
	m := NewReviewManager(newTestStore(), pub, newTestLogger())

	pub.On("PublishReviewCreated", mock.Anything,
		mock.MatchedBy(func(r *domain.Review) bool { return r.ID == 1 && r.Text == "Great" }),
		[]domain.ReviewAttribute{{Text: "fast", IsPositive: true}},
	).Return(nil).Once()

	_, err := m.CreateReview(context.Background(), author, greatInput())
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestCreateReview_PublishFailureDoesNotFail(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishReviewCreated", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	m := NewReviewManager(newTestStore(), pub, newTestLogger())

	review, err := m.CreateReview(context.Background(), author, greatInput())

	require.NoError(t, err)
	mustInfo(t, m, review.ID)
	pub.AssertExpectations(t)
}

func TestUpdateReview_NotOwnerLeavesReviewUnchanged(t *testing.T) {
	m, pub := newTestManager(t)
	review := mustCreate(t, m)

	_, err := m.UpdateReview(context.Background(), voter, review.ID, &UpdateReviewInput{
		Text: "hijacked", Score: 1, Attributes: []AttributeInput{},
	})
	assert.Equal(t, StatusUnauthorized, StatusOf(err))

	info := mustInfo(t, m, review.ID)
	assert.Equal(t, "Great", info.Text)
	assert.Equal(t, 4, info.Score)
	assert.Len(t, info.Attributes, 1)
	pub.AssertNotCalled(t, "PublishReviewUpdated", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateReview_NotFoundBeforeOwnership(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.UpdateReview(context.Background(), voter, 77, &UpdateReviewInput{
		Text: "x", Score: 1, Attributes: []AttributeInput{},
	})

	assert.Equal(t, StatusNotFound, StatusOf(err))
	assert.Contains(t, err.Error(), "review with id 77 not found")
}

func TestUpdateReview_KeepsPhotosAndVotes(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	review := mustCreate(t, m)

	photo, err := m.AttachPhoto(ctx, author, review.ID)
	require.NoError(t, err)
	require.NoError(t, m.VoteOnReview(ctx, voter, review.ID, true))

	updated, err := m.UpdateReview(ctx, author, review.ID, &UpdateReviewInput{
		Text:       "Even better",
		Score:      5,
		Attributes: []AttributeInput{{Text: "quiet", IsPositive: true}, {Text: "pricey"}},
	})
	require.NoError(t, err)
	assert.Equal(t, review.ProductID, updated.ProductID)
	assert.Equal(t, review.CreatedAt, updated.CreatedAt)

	info := mustInfo(t, m, review.ID)
	assert.Equal(t, 5, info.Score)
	assert.Equal(t, []int64{photo.ID}, info.PhotoIDs)
	assert.Equal(t, 1, info.Likes)
	assert.ElementsMatch(t, []domain.ReviewAttribute{
		{ReviewID: review.ID, Text: "quiet", IsPositive: true},
		{ReviewID: review.ID, Text: "pricey", IsPositive: false},
	}, info.Attributes)
}

func TestDeleteReview_RemovesDependents(t *testing.T) {
	s := newTestStore()
	m := NewReviewManager(s, acceptAll(new(mockPublisher)), newTestLogger())
	ctx := context.Background()
	review := mustCreate(t, m)

	_, err := m.AttachPhoto(ctx, author, review.ID)
	require.NoError(t, err)
	require.NoError(t, m.VoteOnReview(ctx, voter, review.ID, true))
	require.NoError(t, m.VoteOnReview(ctx, author, review.ID, false))

	require.NoError(t, m.DeleteReview(ctx, author, review.ID))

	err = s.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		attrs, _ := st.Attributes().ListByReviewID(ctx, review.ID)
		photos, _ := st.Photos().ListByReviewID(ctx, review.ID)
		votes, _ := st.Votes().ListByReviewID(ctx, review.ID)
		assert.Empty(t, attrs)
		assert.Empty(t, photos)
		assert.Empty(t, votes)
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteReview_Outcomes(t *testing.T) {
	m, _ := newTestManager(t)
	review := mustCreate(t, m)

	assert.Equal(t, StatusUnauthorized, StatusOf(m.DeleteReview(context.Background(), domain.Anonymous, review.ID)))
	assert.Equal(t, StatusNotFound, StatusOf(m.DeleteReview(context.Background(), author, 99)))
	assert.Equal(t, StatusUnauthorized, StatusOf(m.DeleteReview(context.Background(), voter, review.ID)))
}

func TestVoteOnReview_RepeatedVoteCountsOnce(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	review := mustCreate(t, m)

	require.NoError(t, m.VoteOnReview(ctx, voter, review.ID, true))
	require.NoError(t, m.VoteOnReview(ctx, voter, review.ID, true))

	info := mustInfo(t, m, review.ID)
	assert.Equal(t, 1, info.Likes)
	assert.Equal(t, 0, info.Dislikes)
}

func TestVoteOnReview_SelfVoteAllowed(t *testing.T) {
	m, _ := newTestManager(t)
	review := mustCreate(t, m)

	require.NoError(t, m.VoteOnReview(context.Background(), author, review.ID, true))
	assert.Equal(t, 1, mustInfo(t, m, review.ID).Likes)
}

func TestVoteOnReview_Outcomes(t *testing.T) {
	m, pub := newTestManager(t)
	review := mustCreate(t, m)

	assert.Equal(t, StatusUnauthorized, StatusOf(m.VoteOnReview(context.Background(), domain.Anonymous, review.ID, true)))
	assert.Equal(t, StatusNotFound, StatusOf(m.VoteOnReview(context.Background(), voter, 99, true)))
	pub.AssertNotCalled(t, "PublishReviewVoted", mock.Anything, mock.Anything)
}

func TestAttachPhoto_Outcomes(t *testing.T) {
	m, _ := newTestManager(t)
	review := mustCreate(t, m)

	_, err := m.AttachPhoto(context.Background(), domain.Anonymous, review.ID)
	assert.Equal(t, StatusUnauthorized, StatusOf(err))
	_, err = m.AttachPhoto(context.Background(), voter, review.ID)
	assert.Equal(t, StatusUnauthorized, StatusOf(err))
	_, err = m.AttachPhoto(context.Background(), author, 99)
	assert.Equal(t, StatusNotFound, StatusOf(err))
}

func TestListProductReviews(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	for _, score := range []int{5, 4, 4} {
		input := greatInput()
		input.Score = score
		_, err := m.CreateReview(ctx, author, input)
		require.NoError(t, err)
	}

	list, err := m.ListProductReviews(ctx, 5, pagination.Params{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)
	assert.Equal(t, 3, list.TotalCount)
	assert.Equal(t, 2, list.TotalPages)
	assert.True(t, list.HasNext)
	assert.Equal(t, 4.3, list.Summary.AverageScore)

	_, err = m.ListProductReviews(ctx, 99, pagination.DefaultParams())
	assert.Equal(t, StatusNotFound, StatusOf(err))
}

func TestStorageFailureIsLoggedWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("review-service", "debug", &buf)
	pub := new(mockPublisher)
	m := NewReviewManager(failingTransactor{err: errors.New("connection refused")}, pub, log)

	err := m.VoteOnReview(context.Background(), voter, 3, true)

	assert.Equal(t, StatusStorageFailure, StatusOf(err))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
	assert.NotContains(t, appErr.Message, "connection refused")

	out := buf.String()
	assert.Contains(t, out, `"operation":"vote_on_review"`)
	assert.Contains(t, out, `"review_id":3`)
	assert.Contains(t, out, `"user_id":2`)
	assert.Contains(t, out, "connection refused")
	pub.AssertNotCalled(t, "PublishReviewVoted", mock.Anything, mock.Anything)
}

func TestTypedOutcomesAreNotLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("review-service", "debug", &buf)
	m := NewReviewManager(newTestStore(), acceptAll(new(mockPublisher)), log)

	_, err := m.GetReviewInfo(context.Background(), 99)

	assert.Equal(t, StatusNotFound, StatusOf(err))
	assert.NotContains(t, buf.String(), "review operation failed")
}
