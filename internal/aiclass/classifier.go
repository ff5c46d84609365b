package aiclass

import "context"

// Classification is the external classifier's verdict on a payment proof
type Classification struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"` // 0-100
	Reason         string  `json:"reason"`
}

// Unavailable reports whether this is the neutral no-signal result. The
// scorer only needs to know the signal is missing, not why.
func (c Classification) Unavailable() bool {
	return c.Classification == "" || c.Classification == "Error"
}

// Neutral is the zero-weight result returned on any classifier failure
func Neutral() Classification {
	return Classification{Classification: "Error", Confidence: 0}
}

// Classifier delegates to an external text- or vision-capable model.
// Implementations never return an error: failures degrade to Neutral()
// so the pipeline proceeds without this signal.
type Classifier interface {
	ClassifyText(ctx context.Context, text string) Classification
	ClassifyImage(ctx context.Context, image []byte) Classification
}

// Disabled is the Classifier used when no external model is configured
type Disabled struct{}

// ClassifyText returns the neutral result
func (Disabled) ClassifyText(ctx context.Context, text string) Classification {
	return Neutral()
}

// ClassifyImage returns the neutral result
func (Disabled) ClassifyImage(ctx context.Context, image []byte) Classification {
	return Neutral()
}
