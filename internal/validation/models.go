package validation

import (
	"time"

	"github.com/google/uuid"
	"github.com/sammathaik/flatfundpro/internal/aiclass"
	"github.com/sammathaik/flatfundpro/internal/forensics"
	"github.com/sammathaik/flatfundpro/internal/ocr"
	"github.com/sammathaik/flatfundpro/internal/textsignals"
)

// AnalysisStatus is the lifecycle state of an image fraud analysis
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisAnalyzing AnalysisStatus = "analyzing"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// ValidationStatus is the terminal decision for a payment submission.
// All three are terminal for this pipeline; a human may later override.
type ValidationStatus string

const (
	StatusAutoApproved ValidationStatus = "AUTO_APPROVED"
	StatusManualReview ValidationStatus = "MANUAL_REVIEW"
	StatusRejected     ValidationStatus = "REJECTED"
)

// ImageFraudAnalysis is the persisted evidence trail for one analyzed image.
// Immutable once status reaches completed.
type ImageFraudAnalysis struct {
	ID                  uuid.UUID      `json:"id" db:"id"`
	PaymentSubmissionID string         `json:"payment_submission_id" db:"payment_submission_id"`
	ImageURL            string         `json:"image_url" db:"image_url"`
	Status              AnalysisStatus `json:"status" db:"status"`
	FraudRiskScore      int            `json:"fraud_risk_score" db:"fraud_risk_score"`
	IsFlagged           bool           `json:"is_flagged" db:"is_flagged"`

	PHashValue           string `json:"phash_value" db:"phash_value"`
	PHashDuplicateFound  bool   `json:"phash_duplicate_found" db:"phash_duplicate_found"`
	PHashSimilarityScore int    `json:"phash_similarity_score" db:"phash_similarity_score"`
	DuplicateOfPaymentID string `json:"duplicate_of_payment_id,omitempty" db:"duplicate_of_payment_id"`

	ExifData                 map[string]string `json:"exif_data,omitempty" db:"exif_data"`
	ExifHasEditorMetadata    bool              `json:"exif_has_editor_metadata" db:"exif_has_editor_metadata"`
	ExifSoftwareDetected     string            `json:"exif_software_detected,omitempty" db:"exif_software_detected"`
	ExifModificationDetected bool              `json:"exif_modification_detected" db:"exif_modification_detected"`
	ExifCreationDate         string            `json:"exif_creation_date,omitempty" db:"exif_creation_date"`

	VisualConsistencyScore int                 `json:"visual_consistency_score" db:"visual_consistency_score"`
	MatchedBankPattern     string              `json:"matched_bank_pattern,omitempty" db:"matched_bank_pattern"`
	VisualAnomalies        forensics.Anomalies `json:"visual_anomalies" db:"visual_anomalies"`

	ELAScore                int                `json:"ela_score" db:"ela_score"`
	ELAManipulationDetected bool               `json:"ela_manipulation_detected" db:"ela_manipulation_detected"`
	ELASuspiciousRegions    []forensics.Region `json:"ela_suspicious_regions,omitempty" db:"ela_suspicious_regions"`

	AnalyzedAt *time.Time `json:"analyzed_at,omitempty" db:"analyzed_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// ValidationDecision is persisted onto the payment submission, created
// exactly once per submission by the decision engine
type ValidationDecision struct {
	Status               ValidationStatus        `json:"validation_status"`
	ConfidenceScore      int                     `json:"confidence_score"`
	Reason               string                  `json:"reason"`
	RequiresManualReview bool                    `json:"requires_manual_review"`
	ManualReviewReason   string                  `json:"manual_review_reason,omitempty"`
	AIClassification     *aiclass.Classification `json:"ai_classification,omitempty"`
	ValidatedAt          time.Time               `json:"validated_at"`
}

// AnalyzeRequest is the analysis-path trigger from the intake flow
type AnalyzeRequest struct {
	PaymentSubmissionID string `json:"payment_submission_id" binding:"required"`
	ImageURL            string `json:"image_url" binding:"required,url"`
}

// AnalyzeResponse is the synchronous summary returned to the caller
type AnalyzeResponse struct {
	PaymentSubmissionID     string `json:"payment_submission_id"`
	FraudRiskScore          int    `json:"fraud_risk_score"`
	IsFlagged               bool   `json:"is_flagged"`
	PHashValue              string `json:"phash_value"`
	PHashDuplicateFound     bool   `json:"phash_duplicate_found"`
	ExifHasEditorMetadata   bool   `json:"exif_has_editor_metadata"`
	VisualConsistencyScore  int    `json:"visual_consistency_score"`
	ELAManipulationDetected bool   `json:"ela_manipulation_detected"`
}

// ValidateRequest is the validation-path trigger from the intake flow
type ValidateRequest struct {
	PaymentSubmissionID string `json:"payment_submission_id" binding:"required"`
	FileURL             string `json:"file_url" binding:"required,url"`
	FileType            string `json:"file_type"`
}

// ExtractedData is the structured receipt data surfaced to the review UI
type ExtractedData struct {
	Amount         *float64 `json:"amount"`
	Date           *string  `json:"date"`
	TransactionRef *string  `json:"transaction_ref"`
	PaymentType    string   `json:"payment_type,omitempty"`
	Platform       string   `json:"platform,omitempty"`
}

// ValidateResponse is the validation-path response
type ValidateResponse struct {
	PaymentSubmissionID  string           `json:"payment_submission_id"`
	ValidationStatus     ValidationStatus `json:"validation_status"`
	ConfidenceScore      int              `json:"confidence_score"`
	OCRQuality           ocr.Quality      `json:"ocr_quality"`
	OCRConfidence        float64          `json:"ocr_confidence"`
	RequiresManualReview bool             `json:"requires_manual_review"`
	Reason               string           `json:"reason"`
	ExtractedData        ExtractedData    `json:"extracted_data"`
}

func extractedDataFromSignals(signals textsignals.PaymentSignals) ExtractedData {
	return ExtractedData{
		Amount:         signals.Amount,
		Date:           signals.Date,
		TransactionRef: signals.TransactionRef,
		PaymentType:    string(signals.PaymentType),
		Platform:       signals.Platform,
	}
}
