package phash

import (
	"context"
	"fmt"

	"github.com/sammathaik/flatfundpro/pkg/logger"
	"go.uber.org/zap"
)

// Service runs the duplicate-screenshot check for one submission
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new perceptual hash service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// CheckAndRecord fingerprints the image, records the sighting and reports
// whether the same fingerprint was already submitted by someone else.
// A fingerprint collision with a different submission is evidence of screenshot
// reuse, not an error.
func (s *Service) CheckAndRecord(ctx context.Context, paymentSubmissionID string, image []byte) (*CheckResult, error) {
	hashValue, err := ComputeHash(image)
	if err != nil {
		return nil, fmt.Errorf("fingerprint image: %w", err)
	}

	result := &CheckResult{HashValue: hashValue}

	// Record our own sighting before checking so two concurrent submissions
	// with the same fingerprint each see the other's row.
	if err := s.repo.InsertSighting(ctx, hashValue, paymentSubmissionID); err != nil {
		return nil, fmt.Errorf("record fingerprint: %w", err)
	}

	duplicateOf, err := s.repo.DetectReuse(ctx, hashValue, paymentSubmissionID)
	if err != nil {
		return nil, fmt.Errorf("check fingerprint reuse: %w", err)
	}

	if duplicateOf != "" {
		result.DuplicateFound = true
		result.SimilarityScore = exactMatchSimilarity
		result.DuplicateOfPaymentID = duplicateOf

		if err := s.repo.MarkFlagged(ctx, hashValue, paymentSubmissionID); err != nil {
			logger.WithContext(ctx).Warn("Failed to flag duplicate fingerprint record",
				zap.String("payment_submission_id", paymentSubmissionID),
				zap.Error(err),
			)
		}

		logger.WithContext(ctx).Info("Duplicate payment proof detected",
			zap.String("payment_submission_id", paymentSubmissionID),
			zap.String("duplicate_of", duplicateOf),
			zap.String("hash", hashValue),
		)
	}

	return result, nil
}
