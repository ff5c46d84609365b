package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sammathaik/flatfundpro/internal/aiclass"
	"github.com/sammathaik/flatfundpro/internal/ocr"
	"github.com/sammathaik/flatfundpro/internal/textsignals"
)

// ScoringConfig holds every weight and threshold used by the fraud scorer
// and the decision engine. Operators tune fraud posture here rather than
// editing scoring code.
type ScoringConfig struct {
	// Composite fraud risk: final = TextWeight*text + ImageWeight*image
	TextWeight  float64
	ImageWeight float64

	// Text-evidence contributions (points of fraud evidence for each
	// missing receipt signal)
	MissingAmountPoints  int
	MissingRefPoints     int
	MissingDatePoints    int
	MissingKeywordPoints int
	NoCoreSignalsPoints  int // extra when both amount and ref are absent

	// Image-evidence contributions
	HashSimilarityWeight float64
	EditorMetadataPoints int
	InconsistencyWeight  float64
	ELAWeight            float64

	// Flagging
	FlagThreshold int

	// Validation confidence
	OCRHighPoints        int
	OCRMediumPoints      int
	AmountPoints         int
	AmountPenalty        int
	DatePoints           int
	RefPoints            int
	KeywordPoints        int
	AIStrongConfidence   float64
	AIStrongPoints       int
	AIModerateConfidence float64
	AIModeratePoints     int
	NoCorePenalty        int

	// Decision thresholds
	AutoApproveThreshold  int
	ManualReviewThreshold int
}

// DefaultScoringConfig returns the production weights
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TextWeight:  0.70,
		ImageWeight: 0.30,

		MissingAmountPoints:  25,
		MissingRefPoints:     25,
		MissingDatePoints:    15,
		MissingKeywordPoints: 15,
		NoCoreSignalsPoints:  20,

		HashSimilarityWeight: 0.30,
		EditorMetadataPoints: 20,
		InconsistencyWeight:  0.25,
		ELAWeight:            0.25,

		FlagThreshold: 70,

		OCRHighPoints:        10,
		OCRMediumPoints:      5,
		AmountPoints:         20,
		AmountPenalty:        20,
		DatePoints:           15,
		RefPoints:            30,
		KeywordPoints:        15,
		AIStrongConfidence:   80,
		AIStrongPoints:       20,
		AIModerateConfidence: 60,
		AIModeratePoints:     10,
		NoCorePenalty:        20,

		AutoApproveThreshold:  70,
		ManualReviewThreshold: 40,
	}
}

// reasonOCRAndAIUnavailable is the fixed reason used when neither OCR nor
// the external classifier produced any signal to decide on
const reasonOCRAndAIUnavailable = "OCR extraction failed completely; AI vision analysis not available."

// FraudEvidence is the input to the composite fraud scorer. All image
// fields come from the concurrent analyzers; Signals comes from the text
// signal detector.
type FraudEvidence struct {
	Signals           textsignals.PaymentSignals
	HashSimilarity    int
	HasEditorMetadata bool
	ConsistencyScore  int
	ELAScore          int
}

// textEvidenceScore measures fraud evidence carried by the receipt text:
// every missing expected signal adds points, with an extra contribution
// when neither an amount nor a transaction reference was found.
func (c ScoringConfig) textEvidenceScore(s textsignals.PaymentSignals) int {
	score := 0
	if !s.HasAmount {
		score += c.MissingAmountPoints
	}
	if !s.HasTransactionRef {
		score += c.MissingRefPoints
	}
	if !s.HasDate {
		score += c.MissingDatePoints
	}
	if !s.HasStatusKeyword && !s.HasPaymentMethod && !s.HasBankName {
		score += c.MissingKeywordPoints
	}
	if !s.HasAmount && !s.HasTransactionRef {
		score += c.NoCoreSignalsPoints
	}
	return clamp100(score)
}

// imageEvidenceScore aggregates the duplicate, metadata and manipulation
// analyzers into one 0-100 fraud evidence score
func (c ScoringConfig) imageEvidenceScore(e FraudEvidence) int {
	score := c.HashSimilarityWeight * float64(e.HashSimilarity)
	if e.HasEditorMetadata {
		score += float64(c.EditorMetadataPoints)
	}
	score += c.InconsistencyWeight * float64(100-e.ConsistencyScore)
	score += c.ELAWeight * float64(e.ELAScore)
	return clamp100(int(math.Round(score)))
}

// ComputeFraudRisk blends text and image evidence into the composite
// fraud risk score. Pure and deterministic: the same evidence always
// yields the same score.
func (c ScoringConfig) ComputeFraudRisk(e FraudEvidence) (score int, flagged bool) {
	text := float64(c.textEvidenceScore(e.Signals))
	image := float64(c.imageEvidenceScore(e))
	score = clamp100(int(math.Round(c.TextWeight*text + c.ImageWeight*image)))
	return score, score >= c.FlagThreshold
}

// BuildDecision runs the decision engine: it accumulates validation
// confidence from the OCR grade, the detected receipt signals and the
// external classifier, then maps the total onto a terminal status. The
// reason string concatenates every contributing clause in evaluation
// order so a reviewer can reconstruct the score by reading it.
func (c ScoringConfig) BuildDecision(ocrResult ocr.Result, signals textsignals.PaymentSignals, ai aiclass.Classification) ValidationDecision {
	now := time.Now().UTC()

	if ocrResult.Quality == ocr.QualityFailed && ai.Unavailable() {
		return ValidationDecision{
			Status:               StatusManualReview,
			ConfidenceScore:      0,
			Reason:               reasonOCRAndAIUnavailable,
			RequiresManualReview: true,
			ManualReviewReason:   reasonOCRAndAIUnavailable,
			ValidatedAt:          now,
		}
	}

	confidence := 0
	var clauses []string

	switch ocrResult.Quality {
	case ocr.QualityHigh:
		confidence += c.OCRHighPoints
		clauses = append(clauses, fmt.Sprintf("OCR quality high (+%d)", c.OCRHighPoints))
	case ocr.QualityMedium:
		confidence += c.OCRMediumPoints
		clauses = append(clauses, fmt.Sprintf("OCR quality medium (+%d)", c.OCRMediumPoints))
	case ocr.QualityFailed:
		clauses = append(clauses, "OCR extraction failed (+0)")
	default:
		clauses = append(clauses, "OCR quality low (+0)")
	}

	if signals.HasAmount {
		confidence += c.AmountPoints
		clauses = append(clauses, fmt.Sprintf("Amount detected (+%d)", c.AmountPoints))
	} else {
		confidence -= c.AmountPenalty
		clauses = append(clauses, fmt.Sprintf("No amount found (-%d)", c.AmountPenalty))
	}

	if signals.HasDate {
		confidence += c.DatePoints
		clauses = append(clauses, fmt.Sprintf("Date detected (+%d)", c.DatePoints))
	} else {
		clauses = append(clauses, "No date found")
	}

	if signals.HasTransactionRef {
		confidence += c.RefPoints
		clauses = append(clauses, fmt.Sprintf("Transaction reference detected (+%d)", c.RefPoints))
	} else {
		clauses = append(clauses, "No transaction reference found")
	}

	if signals.HasStatusKeyword || signals.HasPaymentMethod || signals.HasBankName {
		confidence += c.KeywordPoints
		clauses = append(clauses, fmt.Sprintf("Payment keywords present (+%d)", c.KeywordPoints))
	}

	if !ai.Unavailable() {
		if ai.Confidence > c.AIStrongConfidence {
			confidence += c.AIStrongPoints
			clauses = append(clauses, fmt.Sprintf("AI classification %s (+%d)", ai.Classification, c.AIStrongPoints))
		} else if ai.Confidence > c.AIModerateConfidence {
			confidence += c.AIModeratePoints
			clauses = append(clauses, fmt.Sprintf("AI classification %s (+%d)", ai.Classification, c.AIModeratePoints))
		}
	}

	if !signals.HasAmount && !signals.HasTransactionRef && ocrResult.Quality != ocr.QualityHigh {
		confidence -= c.NoCorePenalty
		clauses = append(clauses, fmt.Sprintf("Core payment details missing (-%d)", c.NoCorePenalty))
	}

	confidence = clamp100(confidence)
	reason := strings.Join(clauses, "; ")

	decision := ValidationDecision{
		ConfidenceScore: confidence,
		Reason:          reason,
		ValidatedAt:     now,
	}
	if !ai.Unavailable() {
		aiCopy := ai
		decision.AIClassification = &aiCopy
	}

	switch {
	case confidence >= c.AutoApproveThreshold:
		decision.Status = StatusAutoApproved
	case confidence >= c.ManualReviewThreshold:
		decision.Status = StatusManualReview
		decision.RequiresManualReview = true
		decision.ManualReviewReason = reason
	default:
		decision.Status = StatusRejected
	}
	return decision
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
