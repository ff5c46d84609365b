package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sammathaik/flatfundpro/pkg/common"
)

// Repository handles database operations for fraud analyses and
// validation decisions
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new validation repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// UpsertAnalysisPending records that analysis has started. Re-running a
// submission reopens a pending or failed row but never a completed one:
// completed analyses are immutable.
func (r *Repository) UpsertAnalysisPending(ctx context.Context, analysis *ImageFraudAnalysis) error {
	query := `
		INSERT INTO image_fraud_analyses (id, payment_submission_id, image_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_submission_id) DO UPDATE
			SET image_url = EXCLUDED.image_url,
			    status = EXCLUDED.status
			WHERE image_fraud_analyses.status <> 'completed'
	`

	_, err := r.db.Exec(ctx, query,
		analysis.ID, analysis.PaymentSubmissionID, analysis.ImageURL, analysis.Status, analysis.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert fraud analysis: %w", err)
	}
	return nil
}

// CompleteAnalysis writes the full evidence trail and marks the analysis
// completed. A row already completed is left untouched.
func (r *Repository) CompleteAnalysis(ctx context.Context, analysis *ImageFraudAnalysis) error {
	exifData, err := json.Marshal(analysis.ExifData)
	if err != nil {
		return fmt.Errorf("failed to encode exif data: %w", err)
	}
	anomalies, err := json.Marshal(analysis.VisualAnomalies)
	if err != nil {
		return fmt.Errorf("failed to encode visual anomalies: %w", err)
	}
	regions, err := json.Marshal(analysis.ELASuspiciousRegions)
	if err != nil {
		return fmt.Errorf("failed to encode suspicious regions: %w", err)
	}

	query := `
		UPDATE image_fraud_analyses
		SET status = 'completed',
		    fraud_risk_score = $2,
		    is_flagged = $3,
		    phash_value = $4,
		    phash_duplicate_found = $5,
		    phash_similarity_score = $6,
		    duplicate_of_payment_id = NULLIF($7, ''),
		    exif_data = $8,
		    exif_has_editor_metadata = $9,
		    exif_software_detected = NULLIF($10, ''),
		    exif_modification_detected = $11,
		    exif_creation_date = NULLIF($12, ''),
		    visual_consistency_score = $13,
		    matched_bank_pattern = NULLIF($14, ''),
		    visual_anomalies = $15,
		    ela_score = $16,
		    ela_manipulation_detected = $17,
		    ela_suspicious_regions = $18,
		    analyzed_at = $19
		WHERE payment_submission_id = $1
		  AND status <> 'completed'
	`

	tag, err := r.db.Exec(ctx, query,
		analysis.PaymentSubmissionID,
		analysis.FraudRiskScore,
		analysis.IsFlagged,
		analysis.PHashValue,
		analysis.PHashDuplicateFound,
		analysis.PHashSimilarityScore,
		analysis.DuplicateOfPaymentID,
		exifData,
		analysis.ExifHasEditorMetadata,
		analysis.ExifSoftwareDetected,
		analysis.ExifModificationDetected,
		analysis.ExifCreationDate,
		analysis.VisualConsistencyScore,
		analysis.MatchedBankPattern,
		anomalies,
		analysis.ELAScore,
		analysis.ELAManipulationDetected,
		regions,
		analysis.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete fraud analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fraud analysis for submission %s already completed", analysis.PaymentSubmissionID)
	}
	return nil
}

// MarkAnalysisFailed flips a non-completed analysis to failed
func (r *Repository) MarkAnalysisFailed(ctx context.Context, paymentSubmissionID string) error {
	query := `
		UPDATE image_fraud_analyses
		SET status = 'failed'
		WHERE payment_submission_id = $1
		  AND status <> 'completed'
	`

	_, err := r.db.Exec(ctx, query, paymentSubmissionID)
	if err != nil {
		return fmt.Errorf("failed to mark analysis failed: %w", err)
	}
	return nil
}

// GetAnalysisBySubmission returns the stored analysis for a submission
func (r *Repository) GetAnalysisBySubmission(ctx context.Context, paymentSubmissionID string) (*ImageFraudAnalysis, error) {
	query := `
		SELECT id, payment_submission_id, image_url, status, fraud_risk_score, is_flagged,
		       COALESCE(phash_value, ''), phash_duplicate_found, phash_similarity_score,
		       COALESCE(duplicate_of_payment_id, ''),
		       COALESCE(exif_data, '{}'::jsonb), exif_has_editor_metadata,
		       COALESCE(exif_software_detected, ''), exif_modification_detected,
		       COALESCE(exif_creation_date, ''),
		       visual_consistency_score, COALESCE(matched_bank_pattern, ''),
		       COALESCE(visual_anomalies, '{}'::jsonb),
		       ela_score, ela_manipulation_detected,
		       COALESCE(ela_suspicious_regions, '[]'::jsonb),
		       analyzed_at, created_at
		FROM image_fraud_analyses
		WHERE payment_submission_id = $1
	`

	var (
		analysis  ImageFraudAnalysis
		exifData  []byte
		anomalies []byte
		regions   []byte
	)
	err := r.db.QueryRow(ctx, query, paymentSubmissionID).Scan(
		&analysis.ID,
		&analysis.PaymentSubmissionID,
		&analysis.ImageURL,
		&analysis.Status,
		&analysis.FraudRiskScore,
		&analysis.IsFlagged,
		&analysis.PHashValue,
		&analysis.PHashDuplicateFound,
		&analysis.PHashSimilarityScore,
		&analysis.DuplicateOfPaymentID,
		&exifData,
		&analysis.ExifHasEditorMetadata,
		&analysis.ExifSoftwareDetected,
		&analysis.ExifModificationDetected,
		&analysis.ExifCreationDate,
		&analysis.VisualConsistencyScore,
		&analysis.MatchedBankPattern,
		&anomalies,
		&analysis.ELAScore,
		&analysis.ELAManipulationDetected,
		&regions,
		&analysis.AnalyzedAt,
		&analysis.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("fraud analysis not found", err)
		}
		return nil, fmt.Errorf("failed to get fraud analysis: %w", err)
	}

	if err := json.Unmarshal(exifData, &analysis.ExifData); err != nil {
		return nil, fmt.Errorf("failed to decode exif data: %w", err)
	}
	if err := json.Unmarshal(anomalies, &analysis.VisualAnomalies); err != nil {
		return nil, fmt.Errorf("failed to decode visual anomalies: %w", err)
	}
	if err := json.Unmarshal(regions, &analysis.ELASuspiciousRegions); err != nil {
		return nil, fmt.Errorf("failed to decode suspicious regions: %w", err)
	}
	return &analysis, nil
}

// SaveDecision writes the validation outcome onto the payment submission.
// The submission row is owned by the intake flow; it must already exist.
func (r *Repository) SaveDecision(ctx context.Context, paymentSubmissionID string, decision *ValidationDecision) error {
	var aiPayload []byte
	if decision.AIClassification != nil {
		var err error
		aiPayload, err = json.Marshal(decision.AIClassification)
		if err != nil {
			return fmt.Errorf("failed to encode ai classification: %w", err)
		}
	}

	query := `
		UPDATE payment_submissions
		SET validation_status = $2,
		    validation_confidence = $3,
		    validation_reason = $4,
		    requires_manual_review = $5,
		    manual_review_reason = NULLIF($6, ''),
		    ai_classification = $7,
		    validated_at = $8
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		paymentSubmissionID,
		decision.Status,
		decision.ConfidenceScore,
		decision.Reason,
		decision.RequiresManualReview,
		decision.ManualReviewReason,
		aiPayload,
		decision.ValidatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save validation decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("payment submission not found", nil)
	}
	return nil
}
