package aiclass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassificationPlainJSON(t *testing.T) {
	result, err := parseClassification(`{"classification": "Valid Payment Receipt", "confidence": 85, "reason": "UPI reference and amount present"}`)
	require.NoError(t, err)
	assert.Equal(t, "Valid Payment Receipt", result.Classification)
	assert.Equal(t, 85.0, result.Confidence)
	assert.False(t, result.Unavailable())
}

func TestParseClassificationMarkdownFenced(t *testing.T) {
	raw := "```json\n{\"classification\": \"Suspicious Receipt\", \"confidence\": 60, \"reason\": \"no reference number\"}\n```"
	result, err := parseClassification(raw)
	require.NoError(t, err)
	assert.Equal(t, "Suspicious Receipt", result.Classification)
	assert.Equal(t, 60.0, result.Confidence)
}

func TestParseClassificationFractionalConfidence(t *testing.T) {
	result, err := parseClassification(`{"classification": "Valid Payment Receipt", "confidence": 0.9, "reason": "ok"}`)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, result.Confidence, 0.001)
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	result, err := parseClassification(`{"classification": "x", "confidence": 250, "reason": ""}`)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Confidence)
}

func TestParseClassificationGarbage(t *testing.T) {
	_, err := parseClassification("I could not process this image, sorry.")
	require.Error(t, err)

	_, err = parseClassification(`{"confidence": 50}`)
	require.Error(t, err)
}

func TestNeutralIsUnavailable(t *testing.T) {
	neutral := Neutral()
	assert.True(t, neutral.Unavailable())
	assert.Equal(t, "Error", neutral.Classification)
	assert.Zero(t, neutral.Confidence)
}

func TestDisabledClassifier(t *testing.T) {
	var c Classifier = Disabled{}
	assert.True(t, c.ClassifyText(context.Background(), "any").Unavailable())
	assert.True(t, c.ClassifyImage(context.Background(), []byte{1}).Unavailable())
}
