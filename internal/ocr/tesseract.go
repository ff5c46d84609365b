package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractExtractor implements TextExtractor on a local Tesseract install
type TesseractExtractor struct {
	languages []string
	timeout   time.Duration
}

// NewTesseractExtractor creates a Tesseract-backed extractor.
// languages is a "+"-separated list, e.g. "eng+hin".
func NewTesseractExtractor(languages string, timeout time.Duration) *TesseractExtractor {
	langs := strings.Split(languages, "+")
	if len(langs) == 0 || langs[0] == "" {
		langs = []string{"eng"}
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &TesseractExtractor{languages: langs, timeout: timeout}
}

type extractOutcome struct {
	text       string
	confidence float64
	err        error
}

// Extract runs Tesseract on the image bytes. A fresh client per call:
// gosseract clients are not safe for concurrent use.
func (t *TesseractExtractor) Extract(ctx context.Context, image []byte) (string, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan extractOutcome, 1)
	go func() {
		done <- t.run(image)
	}()

	select {
	case <-ctx.Done():
		return "", 0, fmt.Errorf("ocr timed out: %w", ctx.Err())
	case outcome := <-done:
		return outcome.text, outcome.confidence, outcome.err
	}
}

func (t *TesseractExtractor) run(image []byte) extractOutcome {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return extractOutcome{err: fmt.Errorf("set language: %w", err)}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return extractOutcome{err: fmt.Errorf("set image: %w", err)}
	}

	text, err := client.Text()
	if err != nil {
		return extractOutcome{err: fmt.Errorf("extract text: %w", err)}
	}
	text = strings.TrimSpace(text)

	confidence := meanWordConfidence(client)
	return extractOutcome{text: text, confidence: confidence}
}

// meanWordConfidence averages per-word confidences; zero when no words found
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}

	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return sum / float64(len(boxes))
}
