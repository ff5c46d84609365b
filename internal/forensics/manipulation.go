package forensics

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
)

const (
	// manipulationThreshold: ela_score above this flags the image
	manipulationThreshold = 60

	// recompressionQuality for the error-level pass
	recompressionQuality = 90

	// analysis grid is gridSize x gridSize cells
	gridSize = 8

	// errorAmplification lifts the small residual differences into a
	// usable 0-100 range
	errorAmplification = 4.0
)

// bankTemplate matches known payment-app receipt layouts by header color
// and portrait aspect ratio
type bankTemplate struct {
	id    string
	match func(r, g, b float64) bool
}

var bankTemplates = []bankTemplate{
	{"phonepe_receipt_v1", func(r, g, b float64) bool {
		return b > 120 && r > 70 && r < 150 && g < 90 // purple header
	}},
	{"gpay_dark_receipt_v1", func(r, g, b float64) bool {
		return r < 45 && g < 45 && b < 45 // dark theme header
	}},
	{"paytm_receipt_v1", func(r, g, b float64) bool {
		return b > 180 && r < 130 && g > 150 // light blue header
	}},
	{"bank_statement_v1", func(r, g, b float64) bool {
		return r > 235 && g > 235 && b > 235 // plain white banking UI
	}},
}

// AnalyzeManipulation estimates forgery likelihood from recompression
// artifacts. The contract is the two bounded scores and the boolean;
// an undecodable image yields the neutral zero-evidence result.
func AnalyzeManipulation(data []byte) ManipulationResult {
	result := ManipulationResult{
		ConsistencyScore: 100,
		Anomalies:        Anomalies{Version: AnomaliesVersion},
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return result
	}

	cells, cellW, cellH := errorLevelGrid(img)
	if cells == nil {
		return result
	}

	mean, peak, variance := gridStats(cells)
	stddev := math.Sqrt(variance)

	result.Anomalies.MeanError = round2(mean)
	result.Anomalies.PeakError = round2(peak)
	result.Anomalies.ErrorVariance = round2(variance)

	// Localized editing shows as cells standing far above the image-wide
	// recompression floor; uniform noise does not.
	result.ELAScore = clampScore(int(math.Round((peak - mean) * 1.5)))
	result.ManipulationDetected = result.ELAScore > manipulationThreshold

	outlierCut := mean + 0.6*(peak-mean)
	if peak-mean > 10 {
		for i, score := range cells {
			if score >= outlierCut {
				col := i % gridSize
				row := i / gridSize
				result.SuspiciousRegions = append(result.SuspiciousRegions, Region{
					X:     col * cellW,
					Y:     row * cellH,
					W:     cellW,
					H:     cellH,
					Score: clampScore(int(math.Round(score))),
				})
			}
		}
	}
	result.Anomalies.OutlierRegions = len(result.SuspiciousRegions)

	result.ConsistencyScore = clampScore(100 - int(math.Round(stddev*2)) - 5*len(result.SuspiciousRegions))
	result.MatchedBankPattern = matchBankTemplate(img)

	return result
}

// errorLevelGrid recompresses the image and averages the per-pixel
// luminance error over a gridSize x gridSize grid
func errorLevelGrid(img image.Image) ([]float64, int, int) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: recompressionQuality}); err != nil {
		return nil, 0, 0
	}
	recompressed, err := jpeg.Decode(&buf)
	if err != nil {
		return nil, 0, 0
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < gridSize || height < gridSize {
		return nil, 0, 0
	}

	cellW := width / gridSize
	cellH := height / gridSize

	sums := make([]float64, gridSize*gridSize)
	counts := make([]int, gridSize*gridSize)

	for y := 0; y < cellH*gridSize; y++ {
		for x := 0; x < cellW*gridSize; x++ {
			origY := luminance(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			recompY := luminance(recompressed.At(x, y))

			cell := (y/cellH)*gridSize + x/cellW
			sums[cell] += math.Abs(origY - recompY)
			counts[cell]++
		}
	}

	cells := make([]float64, gridSize*gridSize)
	for i := range cells {
		if counts[i] == 0 {
			continue
		}
		meanDiff := sums[i] / float64(counts[i])
		score := meanDiff / 255 * 100 * errorAmplification
		cells[i] = math.Min(score, 100)
	}
	return cells, cellW, cellH
}

func gridStats(cells []float64) (mean, peak, variance float64) {
	for _, score := range cells {
		mean += score
		if score > peak {
			peak = score
		}
	}
	mean /= float64(len(cells))

	for _, score := range cells {
		variance += (score - mean) * (score - mean)
	}
	variance /= float64(len(cells))
	return mean, peak, variance
}

// matchBankTemplate compares the header band color of portrait screenshots
// against known receipt layouts; first match wins
func matchBankTemplate(img image.Image) string {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return ""
	}

	// Receipts are phone screenshots; skip landscape or square images
	ratio := float64(height) / float64(width)
	if ratio < 1.3 {
		return ""
	}

	headerHeight := height / 6
	var r, g, b float64
	var count int
	for y := bounds.Min.Y; y < bounds.Min.Y+headerHeight; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			r += float64(pr >> 8)
			g += float64(pg >> 8)
			b += float64(pb >> 8)
			count++
		}
	}
	if count == 0 {
		return ""
	}
	r /= float64(count)
	g /= float64(count)
	b /= float64(count)

	for _, template := range bankTemplates {
		if template.match(r, g, b) {
			return template.id
		}
	}
	return ""
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
