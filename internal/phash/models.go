package phash

import "time"

// Record is one fingerprint sighting. The store is append-only except for
// reuse-counter increments.
type Record struct {
	HashValue           string    `json:"hash_value" db:"hash_value"`
	PaymentSubmissionID string    `json:"payment_submission_id" db:"payment_submission_id"`
	FirstSeenAt         time.Time `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt          time.Time `json:"last_seen_at" db:"last_seen_at"`
	ReuseCount          int       `json:"reuse_count" db:"reuse_count"`
	FlaggedAsDuplicate  bool      `json:"flagged_as_duplicate" db:"flagged_as_duplicate"`
}

// CheckResult is the outcome of the duplicate check for one submission
type CheckResult struct {
	HashValue            string `json:"hash_value"`
	DuplicateFound       bool   `json:"duplicate_found"`
	SimilarityScore      int    `json:"similarity_score"` // 0-100
	DuplicateOfPaymentID string `json:"duplicate_of_payment_id,omitempty"`
}

// exactMatchSimilarity is the similarity assigned to an exact fingerprint hit
const exactMatchSimilarity = 100
