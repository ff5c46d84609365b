package aiclass

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sammathaik/flatfundpro/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const textPrompt = `You are validating a payment receipt for an apartment society maintenance platform.
Classify the following extracted receipt text as one of: "Valid Payment Receipt",
"Suspicious Receipt", "Not a Payment Receipt".
Respond with ONLY a JSON object: {"classification": string, "confidence": number 0-100, "reason": string}.

Receipt text:
%s`

const imagePrompt = `You are validating a payment receipt image for an apartment society maintenance platform.
Classify the image as one of: "Valid Payment Receipt", "Suspicious Receipt", "Not a Payment Receipt".
Respond with ONLY a JSON object: {"classification": string, "confidence": number 0-100, "reason": string}.`

// GeminiClassifier implements Classifier on the Gemini API
type GeminiClassifier struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ Classifier = (*GeminiClassifier)(nil)

// NewGeminiClassifier creates a Gemini-backed classifier
func NewGeminiClassifier(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &GeminiClassifier{client: client, model: model, timeout: timeout}, nil
}

// Close releases the underlying client
func (g *GeminiClassifier) Close() error {
	return g.client.Close()
}

// ClassifyText classifies extracted receipt text
func (g *GeminiClassifier) ClassifyText(ctx context.Context, text string) Classification {
	return g.generate(ctx, "text", genai.Text(fmt.Sprintf(textPrompt, text)))
}

// ClassifyImage classifies the raw receipt image (vision fallback for
// unreadable screenshots)
func (g *GeminiClassifier) ClassifyImage(ctx context.Context, image []byte) Classification {
	return g.generate(ctx, "vision", genai.ImageData("jpeg", image), genai.Text(imagePrompt))
}

func (g *GeminiClassifier) generate(ctx context.Context, mode string, parts ...genai.Part) Classification {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, parts...)
	if err != nil {
		logger.WithContext(ctx).Warn("AI classification failed",
			zap.String("mode", mode),
			zap.Error(err),
		)
		return Neutral()
	}

	raw := responseText(resp)
	classification, err := parseClassification(raw)
	if err != nil {
		logger.WithContext(ctx).Warn("AI classification returned unparseable response",
			zap.String("mode", mode),
			zap.String("response", truncate(raw, 200)),
			zap.Error(err),
		)
		return Neutral()
	}
	return classification
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// parseClassification tolerates markdown fences and prose around the JSON
// object, which Gemini emits despite instructions
func parseClassification(raw string) (Classification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Classification{}, fmt.Errorf("no JSON object in response")
	}

	var result Classification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return Classification{}, fmt.Errorf("parse classification JSON: %w", err)
	}
	if result.Classification == "" {
		return Classification{}, fmt.Errorf("missing classification field")
	}

	// Some models report confidence as a 0-1 fraction
	if result.Confidence > 0 && result.Confidence <= 1 {
		result.Confidence *= 100
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 100 {
		result.Confidence = 100
	}
	return result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
