package memory

import (
	"maps"
	"slices"

	"github.com/utafrali/reviewhub/internal/domain"
)

type voteKey struct {
	userID   int64
	reviewID int64
}

type snapshot struct {
	lastReviewID int64
	lastPhotoID  int64

	reviews    map[int64]domain.Review
	attributes map[int64][]domain.ReviewAttribute
	photos     map[int64][]domain.Photo
	votes      map[voteKey]bool

	products map[int64]struct{}
	users    map[int64]struct{}
}

func newSnapshot() *snapshot {
	return &snapshot{
		reviews:    make(map[int64]domain.Review),
		attributes: make(map[int64][]domain.ReviewAttribute),
		photos:     make(map[int64][]domain.Photo),
		votes:      make(map[voteKey]bool),
		products:   make(map[int64]struct{}),
		users:      make(map[int64]struct{}),
	}
}

// clone copies every map. Slice values are copied too because repositories
// append to them.
func (s *snapshot) clone() *snapshot {
	c := &snapshot{
		lastReviewID: s.lastReviewID,
		lastPhotoID:  s.lastPhotoID,
		reviews:      maps.Clone(s.reviews),
		attributes:   make(map[int64][]domain.ReviewAttribute, len(s.attributes)),
		photos:       make(map[int64][]domain.Photo, len(s.photos)),
		votes:        maps.Clone(s.votes),
		products:     maps.Clone(s.products),
		users:        maps.Clone(s.users),
	}
	for id, attrs := range s.attributes {
		c.attributes[id] = slices.Clone(attrs)
	}
	for id, photos := range s.photos {
		c.photos[id] = slices.Clone(photos)
	}
	return c
}
