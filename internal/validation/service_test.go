package validation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sammathaik/flatfundpro/internal/aiclass"
	"github.com/sammathaik/flatfundpro/internal/ocr"
	"github.com/sammathaik/flatfundpro/internal/phash"
	"github.com/sammathaik/flatfundpro/pkg/common"
)

type mockValidationRepository struct {
	mock.Mock
}

func (m *mockValidationRepository) UpsertAnalysisPending(ctx context.Context, analysis *ImageFraudAnalysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *mockValidationRepository) CompleteAnalysis(ctx context.Context, analysis *ImageFraudAnalysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *mockValidationRepository) MarkAnalysisFailed(ctx context.Context, paymentSubmissionID string) error {
	args := m.Called(ctx, paymentSubmissionID)
	return args.Error(0)
}

func (m *mockValidationRepository) GetAnalysisBySubmission(ctx context.Context, paymentSubmissionID string) (*ImageFraudAnalysis, error) {
	args := m.Called(ctx, paymentSubmissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ImageFraudAnalysis), args.Error(1)
}

func (m *mockValidationRepository) SaveDecision(ctx context.Context, paymentSubmissionID string, decision *ValidationDecision) error {
	args := m.Called(ctx, paymentSubmissionID, decision)
	return args.Error(0)
}

type mockHashChecker struct {
	mock.Mock
}

func (m *mockHashChecker) CheckAndRecord(ctx context.Context, paymentSubmissionID string, img []byte) (*phash.CheckResult, error) {
	args := m.Called(ctx, paymentSubmissionID, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*phash.CheckResult), args.Error(1)
}

type stubFetcher struct {
	data []byte
	err  error
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return s.data, s.err
}

type stubTextEngine struct {
	result ocr.Result
}

func (s *stubTextEngine) ExtractText(ctx context.Context, image []byte) ocr.Result {
	return s.result
}

type recordingClassifier struct {
	textCalls  int
	imageCalls int
	result     aiclass.Classification
}

func (r *recordingClassifier) ClassifyText(ctx context.Context, text string) aiclass.Classification {
	r.textCalls++
	return r.result
}

func (r *recordingClassifier) ClassifyImage(ctx context.Context, image []byte) aiclass.Classification {
	r.imageCalls++
	return r.result
}

type fakeCache struct {
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) GetString(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (f *fakeCache) SetWithExpiration(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

// receiptImage renders a small gradient PNG so the fingerprint pipeline
// has real pixels to hash
func receiptImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const receiptText = "Payment Successful! ₹5,000 paid via Google Pay. UPI transaction ID: 123456789012 on 15/03/2024"

func highQualityOCR() ocr.Result {
	return ocr.Result{
		Text:       receiptText,
		Confidence: 88,
		Quality:    ocr.QualityHigh,
		Attempts:   []ocr.Attempt{{Method: "direct", Success: true, TextLength: len(receiptText), Confidence: 88}},
	}
}

func TestAnalyzeImageCompletes(t *testing.T) {
	img := receiptImage(t)
	repo := new(mockValidationRepository)
	hash := new(mockHashChecker)
	classifier := &recordingClassifier{result: aiclass.Neutral()}

	repo.On("UpsertAnalysisPending", mock.Anything, mock.AnythingOfType("*validation.ImageFraudAnalysis")).Return(nil)
	repo.On("CompleteAnalysis", mock.Anything, mock.AnythingOfType("*validation.ImageFraudAnalysis")).Return(nil)
	hash.On("CheckAndRecord", mock.Anything, "sub-1", img).Return(&phash.CheckResult{
		HashValue:       "a1b2c3d4e5f60718",
		DuplicateFound:  false,
		SimilarityScore: 0,
	}, nil)

	svc := NewService(repo, &stubFetcher{data: img}, hash, &stubTextEngine{result: highQualityOCR()}, classifier, nil, nil, DefaultScoringConfig())

	result, err := svc.AnalyzeImage(context.Background(), AnalyzeRequest{
		PaymentSubmissionID: "sub-1",
		ImageURL:            "https://cdn.example.com/proofs/sub-1.png",
	})

	require.NoError(t, err)
	assert.Equal(t, "sub-1", result.PaymentSubmissionID)
	assert.Equal(t, "a1b2c3d4e5f60718", result.PHashValue)
	assert.False(t, result.PHashDuplicateFound)
	assert.GreaterOrEqual(t, result.FraudRiskScore, 0)
	assert.LessOrEqual(t, result.FraudRiskScore, 100)
	assert.False(t, result.IsFlagged)
	repo.AssertExpectations(t)
	hash.AssertExpectations(t)
}

func TestAnalyzeImageFetchFailureMarksFailed(t *testing.T) {
	repo := new(mockValidationRepository)
	hash := new(mockHashChecker)

	repo.On("UpsertAnalysisPending", mock.Anything, mock.Anything).Return(nil)
	repo.On("MarkAnalysisFailed", mock.Anything, "sub-2").Return(nil)

	svc := NewService(repo, &stubFetcher{err: errors.New("connection refused")}, hash,
		&stubTextEngine{}, aiclass.Disabled{}, nil, nil, DefaultScoringConfig())

	_, err := svc.AnalyzeImage(context.Background(), AnalyzeRequest{
		PaymentSubmissionID: "sub-2",
		ImageURL:            "https://cdn.example.com/missing.png",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, common.StatusCode(err))
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "CompleteAnalysis", mock.Anything, mock.Anything)
	hash.AssertNotCalled(t, "CheckAndRecord", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeImageHashFailureDegrades(t *testing.T) {
	img := receiptImage(t)
	repo := new(mockValidationRepository)
	hash := new(mockHashChecker)

	repo.On("UpsertAnalysisPending", mock.Anything, mock.Anything).Return(nil)
	var completed *ImageFraudAnalysis
	repo.On("CompleteAnalysis", mock.Anything, mock.AnythingOfType("*validation.ImageFraudAnalysis")).
		Run(func(args mock.Arguments) {
			completed = args.Get(1).(*ImageFraudAnalysis)
		}).Return(nil)
	hash.On("CheckAndRecord", mock.Anything, "sub-3", img).Return(nil, errors.New("database unavailable"))

	svc := NewService(repo, &stubFetcher{data: img}, hash, &stubTextEngine{result: highQualityOCR()},
		aiclass.Disabled{}, nil, nil, DefaultScoringConfig())

	result, err := svc.AnalyzeImage(context.Background(), AnalyzeRequest{
		PaymentSubmissionID: "sub-3",
		ImageURL:            "https://cdn.example.com/proofs/sub-3.png",
	})

	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, AnalysisCompleted, completed.Status)
	assert.Empty(t, completed.PHashValue)
	assert.False(t, result.PHashDuplicateFound)
}

func TestAnalyzeImageDuplicateRaisesScore(t *testing.T) {
	img := receiptImage(t)
	repo := new(mockValidationRepository)
	hash := new(mockHashChecker)

	repo.On("UpsertAnalysisPending", mock.Anything, mock.Anything).Return(nil)
	repo.On("CompleteAnalysis", mock.Anything, mock.Anything).Return(nil)
	hash.On("CheckAndRecord", mock.Anything, "sub-dup", img).Return(&phash.CheckResult{
		HashValue:            "a1b2c3d4e5f60718",
		DuplicateFound:       true,
		SimilarityScore:      100,
		DuplicateOfPaymentID: "sub-original",
	}, nil)

	svc := NewService(repo, &stubFetcher{data: img}, hash, &stubTextEngine{result: highQualityOCR()},
		aiclass.Disabled{}, nil, nil, DefaultScoringConfig())

	dup, err := svc.AnalyzeImage(context.Background(), AnalyzeRequest{
		PaymentSubmissionID: "sub-dup",
		ImageURL:            "https://cdn.example.com/proofs/sub-dup.png",
	})
	require.NoError(t, err)

	hash.ExpectedCalls = nil
	hash.On("CheckAndRecord", mock.Anything, "sub-clean", img).Return(&phash.CheckResult{
		HashValue:       "a1b2c3d4e5f60718",
		SimilarityScore: 0,
	}, nil)
	clean, err := svc.AnalyzeImage(context.Background(), AnalyzeRequest{
		PaymentSubmissionID: "sub-clean",
		ImageURL:            "https://cdn.example.com/proofs/sub-clean.png",
	})
	require.NoError(t, err)

	assert.True(t, dup.PHashDuplicateFound)
	assert.Greater(t, dup.FraudRiskScore, clean.FraudRiskScore)
}

func TestValidateProofAutoApproved(t *testing.T) {
	img := receiptImage(t)
	repo := new(mockValidationRepository)
	classifier := &recordingClassifier{result: aiclass.Classification{Classification: "Valid Payment", Confidence: 90}}

	var saved *ValidationDecision
	repo.On("SaveDecision", mock.Anything, "sub-4", mock.AnythingOfType("*validation.ValidationDecision")).
		Run(func(args mock.Arguments) {
			saved = args.Get(2).(*ValidationDecision)
		}).Return(nil)

	svc := NewService(repo, &stubFetcher{data: img}, new(mockHashChecker),
		&stubTextEngine{result: highQualityOCR()}, classifier, nil, nil, DefaultScoringConfig())

	result, err := svc.ValidateProof(context.Background(), ValidateRequest{
		PaymentSubmissionID: "sub-4",
		FileURL:             "https://cdn.example.com/proofs/sub-4.png",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusAutoApproved, result.ValidationStatus)
	assert.False(t, result.RequiresManualReview)
	assert.Equal(t, ocr.QualityHigh, result.OCRQuality)
	require.NotNil(t, result.ExtractedData.Amount)
	assert.Equal(t, 5000.0, *result.ExtractedData.Amount)
	require.NotNil(t, result.ExtractedData.TransactionRef)
	assert.Equal(t, "123456789012", *result.ExtractedData.TransactionRef)
	assert.Equal(t, "UPI", result.ExtractedData.PaymentType)
	assert.Equal(t, "Google Pay", result.ExtractedData.Platform)

	require.NotNil(t, saved)
	assert.Equal(t, StatusAutoApproved, saved.Status)

	// A receipt with strong deterministic signals never consults the model
	assert.Zero(t, classifier.textCalls)
	assert.Zero(t, classifier.imageCalls)
}

func TestValidateProofVisionFallbackCached(t *testing.T) {
	img := receiptImage(t)
	repo := new(mockValidationRepository)
	classifier := &recordingClassifier{result: aiclass.Classification{Classification: "Valid Payment", Confidence: 85, Reason: "receipt layout"}}
	cache := newFakeCache()

	repo.On("SaveDecision", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	lowOCR := ocr.Result{Text: "bl ur", Confidence: 15, Quality: ocr.QualityLow}
	svc := NewService(repo, &stubFetcher{data: img}, new(mockHashChecker),
		&stubTextEngine{result: lowOCR}, classifier, cache, nil, DefaultScoringConfig())

	_, err := svc.ValidateProof(context.Background(), ValidateRequest{
		PaymentSubmissionID: "sub-5",
		FileURL:             "https://cdn.example.com/proofs/sub-5.png",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, classifier.imageCalls)

	// Same pixels resubmitted: the verdict comes from the cache
	_, err = svc.ValidateProof(context.Background(), ValidateRequest{
		PaymentSubmissionID: "sub-6",
		FileURL:             "https://cdn.example.com/proofs/sub-6.png",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, classifier.imageCalls)
}

func TestValidateProofTextFallbackOnThinSignals(t *testing.T) {
	img := receiptImage(t)
	repo := new(mockValidationRepository)
	classifier := &recordingClassifier{result: aiclass.Neutral()}

	repo.On("SaveDecision", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Good OCR text but no amount and no reference
	thinOCR := ocr.Result{
		Text:       "some long block of recognized text without any payment details in it at all, just words",
		Confidence: 80,
		Quality:    ocr.QualityHigh,
	}
	svc := NewService(repo, &stubFetcher{data: img}, new(mockHashChecker),
		&stubTextEngine{result: thinOCR}, classifier, nil, nil, DefaultScoringConfig())

	_, err := svc.ValidateProof(context.Background(), ValidateRequest{
		PaymentSubmissionID: "sub-7",
		FileURL:             "https://cdn.example.com/proofs/sub-7.png",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, classifier.textCalls)
	assert.Zero(t, classifier.imageCalls)
}

func TestValidateProofOCRFailedWithoutClassifier(t *testing.T) {
	img := receiptImage(t)
	repo := new(mockValidationRepository)

	var saved *ValidationDecision
	repo.On("SaveDecision", mock.Anything, "sub-8", mock.AnythingOfType("*validation.ValidationDecision")).
		Run(func(args mock.Arguments) {
			saved = args.Get(2).(*ValidationDecision)
		}).Return(nil)

	svc := NewService(repo, &stubFetcher{data: img}, new(mockHashChecker),
		&stubTextEngine{result: ocr.Result{Quality: ocr.QualityFailed}}, aiclass.Disabled{}, nil, nil, DefaultScoringConfig())

	result, err := svc.ValidateProof(context.Background(), ValidateRequest{
		PaymentSubmissionID: "sub-8",
		FileURL:             "https://cdn.example.com/proofs/sub-8.png",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusManualReview, result.ValidationStatus)
	assert.True(t, result.RequiresManualReview)
	assert.Equal(t, "OCR extraction failed completely; AI vision analysis not available.", result.Reason)
	require.NotNil(t, saved)
	assert.Equal(t, StatusManualReview, saved.Status)
}

func TestGetAnalysisPassthrough(t *testing.T) {
	repo := new(mockValidationRepository)
	stored := &ImageFraudAnalysis{PaymentSubmissionID: "sub-9", Status: AnalysisCompleted, FraudRiskScore: 42}
	repo.On("GetAnalysisBySubmission", mock.Anything, "sub-9").Return(stored, nil)

	svc := NewService(repo, &stubFetcher{}, new(mockHashChecker), &stubTextEngine{},
		aiclass.Disabled{}, nil, nil, DefaultScoringConfig())

	analysis, err := svc.GetAnalysis(context.Background(), "sub-9")

	require.NoError(t, err)
	assert.Equal(t, stored, analysis)
}
