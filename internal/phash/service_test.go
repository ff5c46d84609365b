package phash

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHashRepository struct {
	mock.Mock
}

func (m *mockHashRepository) InsertSighting(ctx context.Context, hashValue, paymentSubmissionID string) error {
	args := m.Called(ctx, hashValue, paymentSubmissionID)
	return args.Error(0)
}

func (m *mockHashRepository) DetectReuse(ctx context.Context, hashValue, paymentSubmissionID string) (string, error) {
	args := m.Called(ctx, hashValue, paymentSubmissionID)
	return args.String(0), args.Error(1)
}

func (m *mockHashRepository) MarkFlagged(ctx context.Context, hashValue, paymentSubmissionID string) error {
	args := m.Called(ctx, hashValue, paymentSubmissionID)
	return args.Error(0)
}

// testImage renders a small gradient so the perceptual hash has structure
func testImage(t *testing.T, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x*4) + seed, G: uint8(y * 4), B: seed, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestComputeHashDeterministic(t *testing.T) {
	img := testImage(t, 0)

	first, err := ComputeHash(img)
	require.NoError(t, err)
	second, err := ComputeHash(img)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
}

func TestComputeHashRejectsGarbage(t *testing.T) {
	_, err := ComputeHash([]byte("not an image"))
	require.Error(t, err)
}

func TestCheckAndRecordFirstSighting(t *testing.T) {
	ctx := context.Background()
	img := testImage(t, 0)
	repo := new(mockHashRepository)
	service := NewService(repo)

	repo.On("InsertSighting", ctx, mock.AnythingOfType("string"), "sub-1").Return(nil).Once()
	repo.On("DetectReuse", ctx, mock.AnythingOfType("string"), "sub-1").Return("", nil).Once()

	result, err := service.CheckAndRecord(ctx, "sub-1", img)
	require.NoError(t, err)
	assert.False(t, result.DuplicateFound)
	assert.Zero(t, result.SimilarityScore)
	assert.Empty(t, result.DuplicateOfPaymentID)
	assert.NotEmpty(t, result.HashValue)
	repo.AssertExpectations(t)
}

func TestCheckAndRecordDetectsReuse(t *testing.T) {
	ctx := context.Background()
	img := testImage(t, 0)
	repo := new(mockHashRepository)
	service := NewService(repo)

	repo.On("InsertSighting", ctx, mock.AnythingOfType("string"), "sub-2").Return(nil).Once()
	repo.On("DetectReuse", ctx, mock.AnythingOfType("string"), "sub-2").Return("sub-1", nil).Once()
	repo.On("MarkFlagged", ctx, mock.AnythingOfType("string"), "sub-2").Return(nil).Once()

	result, err := service.CheckAndRecord(ctx, "sub-2", img)
	require.NoError(t, err)
	assert.True(t, result.DuplicateFound)
	assert.Equal(t, 100, result.SimilarityScore)
	assert.Equal(t, "sub-1", result.DuplicateOfPaymentID)
	repo.AssertExpectations(t)
}

func TestCheckAndRecordUndecodableImage(t *testing.T) {
	repo := new(mockHashRepository)
	service := NewService(repo)

	_, err := service.CheckAndRecord(context.Background(), "sub-3", []byte("junk"))
	require.Error(t, err)
	repo.AssertNotCalled(t, "InsertSighting", mock.Anything, mock.Anything, mock.Anything)
}
