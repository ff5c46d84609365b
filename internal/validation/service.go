package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sammathaik/flatfundpro/internal/aiclass"
	"github.com/sammathaik/flatfundpro/internal/forensics"
	"github.com/sammathaik/flatfundpro/internal/ocr"
	"github.com/sammathaik/flatfundpro/internal/phash"
	"github.com/sammathaik/flatfundpro/internal/textsignals"
	"github.com/sammathaik/flatfundpro/pkg/common"
	"github.com/sammathaik/flatfundpro/pkg/imagefetch"
	"github.com/sammathaik/flatfundpro/pkg/logger"
	"github.com/sammathaik/flatfundpro/pkg/storage"
)

const (
	classificationCachePrefix = "aiclass:"
	classificationCacheTTL    = 24 * time.Hour
)

// Service orchestrates the fraud analysis and validation pipelines
type Service struct {
	repo       RepositoryInterface
	fetcher    imagefetch.Fetcher
	hash       HashChecker
	ocrEngine  TextEngine
	classifier aiclass.Classifier
	cache      ClassificationCache
	archiver   EvidenceArchiver
	scoring    ScoringConfig
}

// NewService creates a new validation service. cache and archiver may be
// nil; the pipeline then skips classifier caching and evidence archival.
func NewService(
	repo RepositoryInterface,
	fetcher imagefetch.Fetcher,
	hash HashChecker,
	ocrEngine TextEngine,
	classifier aiclass.Classifier,
	cache ClassificationCache,
	archiver EvidenceArchiver,
	scoring ScoringConfig,
) *Service {
	return &Service{
		repo:       repo,
		fetcher:    fetcher,
		hash:       hash,
		ocrEngine:  ocrEngine,
		classifier: classifier,
		cache:      cache,
		archiver:   archiver,
		scoring:    scoring,
	}
}

// AnalyzeImage runs the image-forensics pipeline for one submission and
// persists the full evidence trail. Individual analyzer failures degrade
// to neutral signals; only an unreachable image aborts the analysis.
func (s *Service) AnalyzeImage(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	log := logger.WithContext(ctx)

	analysis := &ImageFraudAnalysis{
		ID:                  uuid.New(),
		PaymentSubmissionID: req.PaymentSubmissionID,
		ImageURL:            req.ImageURL,
		Status:              AnalysisAnalyzing,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.repo.UpsertAnalysisPending(ctx, analysis); err != nil {
		return nil, common.NewInternalServerError("failed to start analysis", err)
	}

	image, err := s.fetcher.Fetch(ctx, req.ImageURL)
	if err != nil {
		log.Error("image fetch failed, aborting analysis",
			zap.String("payment_submission_id", req.PaymentSubmissionID),
			zap.Error(err))
		if failErr := s.repo.MarkAnalysisFailed(ctx, req.PaymentSubmissionID); failErr != nil {
			log.Error("failed to mark analysis as failed", zap.Error(failErr))
		}
		return nil, common.NewBadGatewayError("failed to fetch payment image", err)
	}

	// The duplicate, metadata and manipulation analyzers are independent
	// of each other; run them concurrently.
	var (
		wg         sync.WaitGroup
		hashResult *phash.CheckResult
		meta       forensics.MetadataResult
		manip      forensics.ManipulationResult
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		result, hashErr := s.hash.CheckAndRecord(ctx, req.PaymentSubmissionID, image)
		if hashErr != nil {
			analyzerFailuresTotal.WithLabelValues("phash").Inc()
			log.Warn("duplicate check failed, continuing without hash signal",
				zap.String("payment_submission_id", req.PaymentSubmissionID),
				zap.Error(hashErr))
			return
		}
		hashResult = result
	}()
	go func() {
		defer wg.Done()
		meta = forensics.AnalyzeMetadata(image)
	}()
	go func() {
		defer wg.Done()
		manip = forensics.AnalyzeManipulation(image)
	}()
	wg.Wait()

	ocrResult := s.ocrEngine.ExtractText(ctx, image)
	signals := textsignals.Detect(ocrResult.Text)

	evidence := FraudEvidence{
		Signals:           signals,
		HasEditorMetadata: meta.HasEditorMetadata,
		ConsistencyScore:  manip.ConsistencyScore,
		ELAScore:          manip.ELAScore,
	}
	if hashResult != nil {
		evidence.HashSimilarity = hashResult.SimilarityScore
	}
	score, flagged := s.scoring.ComputeFraudRisk(evidence)

	analysis.FraudRiskScore = score
	analysis.IsFlagged = flagged
	if hashResult != nil {
		analysis.PHashValue = hashResult.HashValue
		analysis.PHashDuplicateFound = hashResult.DuplicateFound
		analysis.PHashSimilarityScore = hashResult.SimilarityScore
		analysis.DuplicateOfPaymentID = hashResult.DuplicateOfPaymentID
	}
	analysis.ExifData = meta.Tags
	analysis.ExifHasEditorMetadata = meta.HasEditorMetadata
	analysis.ExifSoftwareDetected = meta.SoftwareDetected
	analysis.ExifModificationDetected = meta.ModificationDetected
	analysis.ExifCreationDate = meta.CreateDate
	analysis.VisualConsistencyScore = manip.ConsistencyScore
	analysis.MatchedBankPattern = manip.MatchedBankPattern
	analysis.VisualAnomalies = manip.Anomalies
	analysis.ELAScore = manip.ELAScore
	analysis.ELAManipulationDetected = manip.ManipulationDetected
	analysis.ELASuspiciousRegions = manip.SuspiciousRegions
	now := time.Now().UTC()
	analysis.AnalyzedAt = &now
	analysis.Status = AnalysisCompleted

	if err := s.repo.CompleteAnalysis(ctx, analysis); err != nil {
		return nil, common.NewInternalServerError("failed to persist analysis", err)
	}

	if hashResult != nil && hashResult.DuplicateFound {
		duplicateProofsTotal.Inc()
	}
	if flagged {
		flaggedAnalysesTotal.Inc()
		s.archiveEvidence(ctx, req.PaymentSubmissionID, req.ImageURL, image)
	}

	log.Info("fraud analysis completed",
		zap.String("payment_submission_id", req.PaymentSubmissionID),
		zap.Int("fraud_risk_score", score),
		zap.Bool("is_flagged", flagged),
		zap.Bool("duplicate_found", analysis.PHashDuplicateFound))

	return &AnalyzeResponse{
		PaymentSubmissionID:     req.PaymentSubmissionID,
		FraudRiskScore:          score,
		IsFlagged:               flagged,
		PHashValue:              analysis.PHashValue,
		PHashDuplicateFound:     analysis.PHashDuplicateFound,
		ExifHasEditorMetadata:   analysis.ExifHasEditorMetadata,
		VisualConsistencyScore:  analysis.VisualConsistencyScore,
		ELAManipulationDetected: analysis.ELAManipulationDetected,
	}, nil
}

// ValidateProof runs the OCR and decision pipeline for one submission and
// persists the resulting decision onto it
func (s *Service) ValidateProof(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	log := logger.WithContext(ctx)

	image, err := s.fetcher.Fetch(ctx, req.FileURL)
	if err != nil {
		return nil, common.NewBadGatewayError("failed to fetch payment proof", err)
	}

	ocrResult := s.ocrEngine.ExtractText(ctx, image)
	signals := textsignals.Detect(ocrResult.Text)
	ai := s.classify(ctx, image, ocrResult, signals)

	decision := s.scoring.BuildDecision(ocrResult, signals, ai)
	if err := s.repo.SaveDecision(ctx, req.PaymentSubmissionID, &decision); err != nil {
		return nil, common.NewInternalServerError("failed to persist validation decision", err)
	}
	decisionsTotal.WithLabelValues(string(decision.Status)).Inc()

	log.Info("payment proof validated",
		zap.String("payment_submission_id", req.PaymentSubmissionID),
		zap.String("validation_status", string(decision.Status)),
		zap.Int("confidence_score", decision.ConfidenceScore),
		zap.String("ocr_quality", string(ocrResult.Quality)))

	return &ValidateResponse{
		PaymentSubmissionID:  req.PaymentSubmissionID,
		ValidationStatus:     decision.Status,
		ConfidenceScore:      decision.ConfidenceScore,
		OCRQuality:           ocrResult.Quality,
		OCRConfidence:        ocrResult.Confidence,
		RequiresManualReview: decision.RequiresManualReview,
		Reason:               decision.Reason,
		ExtractedData:        extractedDataFromSignals(signals),
	}, nil
}

// GetAnalysis returns the stored fraud analysis for a submission
func (s *Service) GetAnalysis(ctx context.Context, paymentSubmissionID string) (*ImageFraudAnalysis, error) {
	analysis, err := s.repo.GetAnalysisBySubmission(ctx, paymentSubmissionID)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// classify decides whether and how to consult the external classifier.
// Vision analysis is the fallback when OCR could not produce usable text;
// text analysis backs up receipts whose deterministic signals are too thin
// to decide on. Strong receipts skip the model entirely.
func (s *Service) classify(ctx context.Context, image []byte, ocrResult ocr.Result, signals textsignals.PaymentSignals) aiclass.Classification {
	switch {
	case ocrResult.Quality == ocr.QualityFailed || ocrResult.Quality == ocr.QualityLow:
		return s.classifyImageCached(ctx, image)
	case !signals.HasAmount && !signals.HasTransactionRef:
		return s.classifier.ClassifyText(ctx, ocrResult.Text)
	default:
		return aiclass.Neutral()
	}
}

// classifyImageCached consults the fingerprint cache before calling the
// vision model. Resubmissions of the same screenshot are common in
// dispute flows and the verdict for identical pixels never changes.
func (s *Service) classifyImageCached(ctx context.Context, image []byte) aiclass.Classification {
	log := logger.WithContext(ctx)

	var cacheKey string
	if s.cache != nil {
		if hash, err := phash.ComputeHash(image); err == nil {
			cacheKey = classificationCachePrefix + hash
			if raw, err := s.cache.GetString(ctx, cacheKey); err == nil && raw != "" {
				var cached aiclass.Classification
				if err := json.Unmarshal([]byte(raw), &cached); err == nil {
					classifierCacheHitsTotal.Inc()
					return cached
				}
			}
		}
	}

	result := s.classifier.ClassifyImage(ctx, image)
	if cacheKey != "" && !result.Unavailable() {
		payload, err := json.Marshal(result)
		if err == nil {
			if err := s.cache.SetWithExpiration(ctx, cacheKey, string(payload), classificationCacheTTL); err != nil {
				log.Warn("failed to cache classification", zap.Error(err))
			}
		}
	}
	return result
}

// archiveEvidence uploads a copy of a flagged image for audit. Archival
// is best effort and never fails the analysis.
func (s *Service) archiveEvidence(ctx context.Context, paymentSubmissionID, imageURL string, image []byte) {
	if s.archiver == nil {
		return
	}
	log := logger.WithContext(ctx)

	key := storage.GenerateEvidenceKey(paymentSubmissionID, imageURL)
	contentType := storage.SniffImageMimeType(image)
	if _, err := s.archiver.Upload(ctx, key, bytes.NewReader(image), int64(len(image)), contentType); err != nil {
		analyzerFailuresTotal.WithLabelValues("evidence_archive").Inc()
		log.Warn("failed to archive flagged image",
			zap.String("payment_submission_id", paymentSubmissionID),
			zap.String("key", key),
			zap.Error(err))
	}
}
