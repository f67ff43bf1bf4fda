package domain

import "time"

// SearchLog is one audit record of a search call.
type SearchLog struct {
	ID           int64     `json:"id"`
	Query        string    `json:"query"`
	ResultsFound int64     `json:"results_found"`
	UserID       *int64    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SearchLogView is a search log row joined with its user's display name for
// the admin listing.
type SearchLogView struct {
	SearchLog
	UserName *string `json:"user_name"`
}

// NewSearchLog creates a SearchLog stamped with the current time.
func NewSearchLog(query string, resultsFound int64, userID *int64) *SearchLog {
	now := time.Now().UTC()
	return &SearchLog{
		Query:        query,
		ResultsFound: resultsFound,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
