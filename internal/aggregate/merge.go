package aggregate

import (
	"strings"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
)

// MergedReview is a typed review joined with its best-effort matching rating.
// Score is 0 when no rating row matched.
type MergedReview struct {
	Review domain.TypedReview
	Score  int
}

// ProductNumericID extracts the numeric suffix from a compound product
// identifier such as "gid://shopify/Product/1234567890". A plain id is
// returned unchanged.
func ProductNumericID(gid string) string {
	idx := strings.LastIndex(gid, "/")
	if idx < 0 {
		return gid
	}
	return gid[idx+1:]
}

// MergeReviews joins typed reviews to rating rows by matching id or client
// identity. The join is best-effort: both resources are stored and fetched
// independently, so a review without a matching rating keeps the default
// score of 0.
func MergeReviews(reviews []domain.TypedReview, ratings []domain.Rating) []MergedReview {
	byID := make(map[string]int, len(ratings))
	byClient := make(map[string]int, len(ratings))
	for _, rt := range ratings {
		byID[rt.ID] = rt.Rating
		if rt.ClientID != "" {
			if _, ok := byClient[rt.ClientID]; !ok {
				byClient[rt.ClientID] = rt.Rating
			}
		}
	}

	merged := make([]MergedReview, 0, len(reviews))
	for _, rv := range reviews {
		score := 0
		if s, ok := byID[rv.ID]; ok {
			score = s
		} else if s, ok := byClient[rv.ClientID]; ok {
			score = s
		}
		merged = append(merged, MergedReview{Review: rv, Score: score})
	}

	return merged
}
