package phash

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the fingerprint store operations
type RepositoryInterface interface {
	// InsertSighting records the fingerprint for the current submission
	InsertSighting(ctx context.Context, hashValue, paymentSubmissionID string) error

	// DetectReuse atomically finds the earliest other submission with the
	// same fingerprint and increments its reuse counter. Returns the
	// duplicate source submission id, or "" when the fingerprint is new.
	DetectReuse(ctx context.Context, hashValue, paymentSubmissionID string) (string, error)

	// MarkFlagged flags the current submission's record as a duplicate
	MarkFlagged(ctx context.Context, hashValue, paymentSubmissionID string) error
}

// Repository is the Postgres fingerprint store
type Repository struct {
	db *pgxpool.Pool
}

var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new perceptual hash repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InsertSighting records the fingerprint for this submission. Re-running a
// submission is a no-op, not an error.
func (r *Repository) InsertSighting(ctx context.Context, hashValue, paymentSubmissionID string) error {
	query := `
		INSERT INTO perceptual_hashes (hash_value, payment_submission_id)
		VALUES ($1, $2)
		ON CONFLICT (hash_value, payment_submission_id) DO UPDATE
		SET last_seen_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, hashValue, paymentSubmissionID)
	return err
}

// DetectReuse runs the check-then-increment as a single statement so two
// submissions racing on the same fingerprint serialize on the row lock
// instead of losing an update.
func (r *Repository) DetectReuse(ctx context.Context, hashValue, paymentSubmissionID string) (string, error) {
	query := `
		UPDATE perceptual_hashes
		SET reuse_count = reuse_count + 1,
		    last_seen_at = NOW()
		WHERE hash_value = $1
		  AND payment_submission_id = (
			SELECT payment_submission_id
			FROM perceptual_hashes
			WHERE hash_value = $1 AND payment_submission_id <> $2
			ORDER BY first_seen_at ASC
			LIMIT 1
		  )
		RETURNING payment_submission_id
	`

	var duplicateOf string
	err := r.db.QueryRow(ctx, query, hashValue, paymentSubmissionID).Scan(&duplicateOf)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return duplicateOf, nil
}

// MarkFlagged flags this submission's own record as a detected duplicate
func (r *Repository) MarkFlagged(ctx context.Context, hashValue, paymentSubmissionID string) error {
	query := `
		UPDATE perceptual_hashes
		SET flagged_as_duplicate = TRUE
		WHERE hash_value = $1 AND payment_submission_id = $2
	`
	_, err := r.db.Exec(ctx, query, hashValue, paymentSubmissionID)
	return err
}
