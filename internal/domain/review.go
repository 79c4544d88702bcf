package domain

import (
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Rating represents one customer's numeric score for a product, scoped to a
// shop. At most one rating exists per (shop, product, client) triple when a
// client id is supplied; the open variant carries no client id and allows
// unlimited submissions.
type Rating struct {
	ID        string    `json:"id"`
	Shop      string    `json:"shop"`
	ProductID string    `json:"productId"`
	ClientID  string    `json:"clientId,omitempty"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// TypedReview represents one customer's free-text review. It is stored
// independently of any numeric rating; the two are correlated only by the
// aggregation client after independent fetches.
type TypedReview struct {
	ID                string    `json:"id"`
	Shop              string    `json:"shop"`
	ProductID         string    `json:"productId"`
	ClientID          string    `json:"clientId"`
	RatingDescription string    `json:"ratingDescription"`
	LoggedIn          string    `json:"loggedIn"`
	CreatedAt         time.Time `json:"createdAt"`
}

// IsValidRating checks whether the given score is an integer in [1, 5].
func IsValidRating(score int) bool {
	return score >= MinRating && score <= MaxRating
}

// AverageRating computes the arithmetic mean of the given ratings.
// The average of an empty set is 0, not an error.
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range ratings {
		total += r.Rating
	}
	return float64(total) / float64(len(ratings))
}

// ProjectedAverage combines a pre-insert snapshot (sum and count of existing
// ratings) with a new score arithmetically, without re-querying the store.
// Concurrent writes between snapshot and insert can make this diverge from
// the true stored average.
func ProjectedAverage(snapshotSum, snapshotCount, newScore int) float64 {
	return float64(snapshotSum+newScore) / float64(snapshotCount+1)
}
