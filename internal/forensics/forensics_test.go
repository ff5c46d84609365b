package forensics

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAnalyzeMetadataNoEXIFNeverErrors(t *testing.T) {
	// PNG screenshots carry no EXIF block at all
	data := encodePNG(t, solidImage(32, 32, color.RGBA{200, 200, 200, 255}))

	result := AnalyzeMetadata(data)

	assert.False(t, result.HasEditorMetadata)
	assert.False(t, result.ModificationDetected)
	assert.Empty(t, result.SoftwareDetected)
}

func TestAnalyzeMetadataGarbageInput(t *testing.T) {
	result := AnalyzeMetadata([]byte("definitely not an image"))

	assert.False(t, result.HasEditorMetadata)
	assert.False(t, result.ModificationDetected)
	assert.Nil(t, result.Tags)
}

func TestAnalyzeManipulationUniformImage(t *testing.T) {
	// A flat image recompresses with near-zero, evenly spread error
	data := encodeJPEG(t, solidImage(320, 640, color.RGBA{180, 180, 180, 255}))

	result := AnalyzeManipulation(data)

	assert.LessOrEqual(t, result.ELAScore, 30)
	assert.False(t, result.ManipulationDetected)
	assert.GreaterOrEqual(t, result.ConsistencyScore, 60)
	assert.Equal(t, AnomaliesVersion, result.Anomalies.Version)
}

func TestAnalyzeManipulationScoresBounded(t *testing.T) {
	// Noisy content must still produce bounded scores
	img := image.NewRGBA(image.Rect(0, 0, 160, 320))
	for y := 0; y < 320; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, color.RGBA{uint8(x * y % 255), uint8(x % 255), uint8(y % 255), 255})
		}
	}
	result := AnalyzeManipulation(encodeJPEG(t, img))

	assert.GreaterOrEqual(t, result.ELAScore, 0)
	assert.LessOrEqual(t, result.ELAScore, 100)
	assert.GreaterOrEqual(t, result.ConsistencyScore, 0)
	assert.LessOrEqual(t, result.ConsistencyScore, 100)
	assert.Equal(t, result.ManipulationDetected, result.ELAScore > 60)
}

func TestAnalyzeManipulationUndecodableIsNeutral(t *testing.T) {
	result := AnalyzeManipulation([]byte("junk"))

	assert.Zero(t, result.ELAScore)
	assert.False(t, result.ManipulationDetected)
	assert.Equal(t, 100, result.ConsistencyScore)
}

func TestMatchBankTemplateHeaderColors(t *testing.T) {
	tests := []struct {
		name     string
		header   color.RGBA
		expected string
	}{
		{"phonepe purple", color.RGBA{103, 58, 183, 255}, "phonepe_receipt_v1"},
		{"dark theme", color.RGBA{20, 20, 20, 255}, "gpay_dark_receipt_v1"},
		{"white banking ui", color.RGBA{250, 250, 250, 255}, "bank_statement_v1"},
		{"unmatched green", color.RGBA{20, 180, 20, 255}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Portrait screenshot with a colored header band
			img := solidImage(200, 400, color.RGBA{128, 128, 128, 255})
			for y := 0; y < 400/6; y++ {
				for x := 0; x < 200; x++ {
					img.Set(x, y, tt.header)
				}
			}
			assert.Equal(t, tt.expected, matchBankTemplate(img))
		})
	}
}

func TestMatchBankTemplateSkipsLandscape(t *testing.T) {
	img := solidImage(400, 200, color.RGBA{103, 58, 183, 255})
	assert.Empty(t, matchBankTemplate(img))
}
