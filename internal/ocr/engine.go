package ocr

import (
	"context"

	"github.com/sammathaik/flatfundpro/pkg/logger"
	"go.uber.org/zap"
)

// TextExtractor turns image bytes into text. Implementations must tolerate
// being called repeatedly with transformed variants of the same image.
type TextExtractor interface {
	Extract(ctx context.Context, image []byte) (text string, confidence float64, err error)
}

// strategy is one named extraction pass. transform may be nil for the
// direct pass; a transform failure fails the attempt, not the engine.
type strategy struct {
	name      string
	transform func([]byte) ([]byte, error)
}

// EngineConfig holds the fallback thresholds
type EngineConfig struct {
	// An attempt is weak when text length <= WeakTextLength or
	// confidence <= WeakConfidence; weakness triggers the next strategy.
	WeakTextLength int
	WeakConfidence float64
}

// DefaultEngineConfig returns the tuned fallback thresholds
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WeakTextLength: 50,
		WeakConfidence: 70,
	}
}

// Engine runs the ordered extraction strategies with a stopping predicate
type Engine struct {
	extractor  TextExtractor
	config     EngineConfig
	strategies []strategy
}

// NewEngine creates an OCR engine with the direct, enhanced and inverted passes
func NewEngine(extractor TextExtractor, config EngineConfig) *Engine {
	return &Engine{
		extractor: extractor,
		config:    config,
		strategies: []strategy{
			{name: "direct", transform: nil},
			{name: "enhanced", transform: enhanceForOCR},
			{name: "inverted", transform: invertForOCR},
		},
	}
}

// ExtractText runs extraction passes in order until one is strong enough,
// then returns the best-scoring successful attempt. Every attempt is
// recorded regardless of which one wins.
func (e *Engine) ExtractText(ctx context.Context, image []byte) Result {
	result := Result{Attempts: make([]Attempt, 0, len(e.strategies))}

	bestScore := -1.0
	var bestText string
	var bestConfidence float64

	for _, strat := range e.strategies {
		if ctx.Err() != nil {
			break
		}

		input := image
		if strat.transform != nil {
			transformed, err := strat.transform(image)
			if err != nil {
				logger.WithContext(ctx).Warn("OCR preprocessing failed",
					zap.String("method", strat.name),
					zap.Error(err),
				)
				result.Attempts = append(result.Attempts, Attempt{Method: strat.name})
				continue
			}
			input = transformed
		}

		text, confidence, err := e.extractor.Extract(ctx, input)
		if err != nil {
			logger.WithContext(ctx).Warn("OCR extraction attempt failed",
				zap.String("method", strat.name),
				zap.Error(err),
			)
			result.Attempts = append(result.Attempts, Attempt{Method: strat.name})
			continue
		}

		attempt := Attempt{
			Method:     strat.name,
			Success:    true,
			TextLength: len(text),
			Confidence: confidence,
		}
		result.Attempts = append(result.Attempts, attempt)

		// score = text_length x confidence/100 breaks ties between passes
		score := float64(len(text)) * confidence / 100
		if score > bestScore {
			bestScore = score
			bestText = text
			bestConfidence = confidence
		}

		if !e.isWeak(attempt) {
			break
		}
	}

	result.Text = bestText
	result.Confidence = bestConfidence
	result.Quality = GradeQuality(len(bestText), bestConfidence)
	return result
}

func (e *Engine) isWeak(attempt Attempt) bool {
	return attempt.TextLength <= e.config.WeakTextLength ||
		attempt.Confidence <= e.config.WeakConfidence
}
