package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Tesseract struggles below ~1000px of height on phone screenshots.
const minOCRHeight = 1000

// enhanceForOCR grayscales, boosts contrast and upscales small images,
// which recovers text from low-contrast screenshots.
func enhanceForOCR(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	processed := imaging.Grayscale(img)
	processed = imaging.AdjustContrast(processed, 30)
	processed = imaging.Sharpen(processed, 1.0)

	if processed.Bounds().Dy() < minOCRHeight {
		processed = imaging.Resize(processed, 0, minOCRHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, processed, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// invertForOCR flips colors for dark-themed payment app screenshots,
// where light text on dark backgrounds defeats a direct pass.
func invertForOCR(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	processed := imaging.Invert(imaging.Grayscale(img))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, processed, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
