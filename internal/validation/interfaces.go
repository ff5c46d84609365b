package validation

import (
	"context"
	"io"
	"time"

	"github.com/sammathaik/flatfundpro/internal/ocr"
	"github.com/sammathaik/flatfundpro/internal/phash"
	"github.com/sammathaik/flatfundpro/pkg/storage"
)

// RepositoryInterface defines the persistence operations for the pipeline
type RepositoryInterface interface {
	// UpsertAnalysisPending records that analysis has started for a
	// submission. Completed analyses are never reopened.
	UpsertAnalysisPending(ctx context.Context, analysis *ImageFraudAnalysis) error
	// CompleteAnalysis writes the full evidence trail and flips the
	// status to completed
	CompleteAnalysis(ctx context.Context, analysis *ImageFraudAnalysis) error
	// MarkAnalysisFailed flips the status to failed for a submission
	// whose analysis could not run
	MarkAnalysisFailed(ctx context.Context, paymentSubmissionID string) error
	// GetAnalysisBySubmission returns the stored analysis for a submission
	GetAnalysisBySubmission(ctx context.Context, paymentSubmissionID string) (*ImageFraudAnalysis, error)
	// SaveDecision writes the validation outcome onto the payment submission
	SaveDecision(ctx context.Context, paymentSubmissionID string, decision *ValidationDecision) error
}

// HashChecker records an image fingerprint and reports reuse
type HashChecker interface {
	CheckAndRecord(ctx context.Context, paymentSubmissionID string, image []byte) (*phash.CheckResult, error)
}

// TextEngine runs the multi-pass OCR pipeline on an image
type TextEngine interface {
	ExtractText(ctx context.Context, image []byte) ocr.Result
}

// ClassificationCache caches external classifier verdicts keyed by image
// fingerprint so resubmitted screenshots skip the model call
type ClassificationCache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// EvidenceArchiver stores copies of flagged images for audit
type EvidenceArchiver interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*storage.UploadResult, error)
}
