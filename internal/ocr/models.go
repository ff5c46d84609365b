package ocr

// Quality grades the usability of an extraction result
type Quality string

const (
	QualityHigh   Quality = "HIGH"
	QualityMedium Quality = "MEDIUM"
	QualityLow    Quality = "LOW"
	QualityFailed Quality = "FAILED"
)

// Attempt records one extraction pass for later diagnosis
type Attempt struct {
	Method     string  `json:"method"`
	Success    bool    `json:"success"`
	TextLength int     `json:"text_length"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of the multi-pass extraction
type Result struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"` // 0-100
	Quality    Quality   `json:"quality"`
	Attempts   []Attempt `json:"attempts"`
}

// GradeQuality maps text length and confidence to a quality grade
func GradeQuality(textLength int, confidence float64) Quality {
	switch {
	case textLength == 0:
		return QualityFailed
	case textLength > 50 && confidence > 60:
		return QualityHigh
	case textLength > 20 && confidence > 40:
		return QualityMedium
	default:
		return QualityLow
	}
}
