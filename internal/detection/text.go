package detection

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// Bounds is a pixel bounding box. (X1, Y1) is inclusive, (X2, Y2) exclusive.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// TextRegion is a rectangle likely to contain a line or word of text.
type TextRegion struct {
	Label      string  `json:"label"`
	Bounds     Bounds  `json:"bounds"`
	Confidence float64 `json:"confidence"`
	Area       int     `json:"area"`
}

// Rect converts the region bounds to an image.Rectangle.
func (r TextRegion) Rect() image.Rectangle {
	return image.Rect(r.Bounds.X1, r.Bounds.Y1, r.Bounds.X2, r.Bounds.Y2)
}

// TextOptions tunes the text-region heuristic.
type TextOptions struct {
	// MinConfidence drops candidate windows scoring below it (0-1).
	MinConfidence float64

	// MaxRegions caps the result. Zero means no cap.
	MaxRegions int

	// ContrastBoost is passed to bild's adjust.Contrast before edge detection.
	ContrastBoost float64

	// EdgeLevel is the Sobel magnitude (0-255) above which a pixel is an edge.
	EdgeLevel uint8
}

// DefaultTextOptions returns the settings used when OCR is unavailable.
func DefaultTextOptions() TextOptions {
	return TextOptions{
		MinConfidence: 0.15,
		MaxRegions:    50,
		ContrastBoost: 0.3,
		EdgeLevel:     64,
	}
}

type windowSize struct{ w, h int }

var textWindows = []windowSize{
	{100, 30}, // Small text
	{150, 40}, // Medium text
	{200, 50}, // Large text
	{80, 25},  // Very small text
}

// DetectTextRegions finds regions likely to contain text.
//
// Windows of typical text-line sizes slide over an edge map; a window is a
// candidate when its edge density is moderate (0.05-0.4) and its edges form
// more horizontal than vertical runs. Overlapping candidates are merged.
// Regions are returned in reading order (top to bottom, then left to right)
// and labelled "region 1", "region 2", ...
func DetectTextRegions(img image.Image, opts TextOptions) []TextRegion {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return []TextRegion{}
	}

	edges := edgeMap(img, opts.ContrastBoost, opts.EdgeLevel)
	sums := newIntegral(edges)

	candidates := make([]TextRegion, 0)
	for _, ws := range textWindows {
		if ws.w > width || ws.h > height {
			continue
		}
		stepX, stepY := ws.w/2, ws.h/2
		area := ws.w * ws.h

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				density := float64(sums.count(x, y, ws.w, ws.h)) / float64(area)

				// Text has medium edge density: not blank, not texture.
				if density < 0.05 || density > 0.4 {
					continue
				}

				horizontalScore := calculateHorizontalScore(edges, x, y, ws.w, ws.h)
				confidence := horizontalScore * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < opts.MinConfidence {
					continue
				}

				candidates = append(candidates, TextRegion{
					Bounds: Bounds{
						X1: x + bounds.Min.X,
						Y1: y + bounds.Min.Y,
						X2: x + ws.w + bounds.Min.X,
						Y2: y + ws.h + bounds.Min.Y,
					},
					Confidence: math.Round(confidence*1000) / 1000,
					Area:       area,
				})
			}
		}
	}

	merged := mergeOverlappingRegions(candidates)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Bounds.Y1 != merged[j].Bounds.Y1 {
			return merged[i].Bounds.Y1 < merged[j].Bounds.Y1
		}
		return merged[i].Bounds.X1 < merged[j].Bounds.X1
	})

	if opts.MaxRegions > 0 && len(merged) > opts.MaxRegions {
		merged = merged[:opts.MaxRegions]
	}
	for i := range merged {
		merged[i].Label = fmt.Sprintf("region %d", i+1)
	}
	return merged
}

// calculateHorizontalScore is the share of runs found scanning rows among
// all runs found scanning rows and columns. Text, made of many short
// vertical strokes, scores high; horizontal rules and box borders score low.
func calculateHorizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlappingRegions repeatedly unions overlapping regions until no
// two overlap, keeping the highest confidence.
func mergeOverlappingRegions(regions []TextRegion) []TextRegion {
	merged := make([]TextRegion, 0, len(regions))
	for _, r := range regions {
		merged = append(merged, r)
		// A union can newly overlap earlier regions, so fold until stable.
		for changed := true; changed; {
			changed = false
			last := len(merged) - 1
			for i := 0; i < last; i++ {
				if !regionsOverlap(merged[i].Bounds, merged[last].Bounds) {
					continue
				}
				u := merged[last]
				u.Bounds = mergeBounds(u.Bounds, merged[i].Bounds)
				u.Confidence = math.Max(u.Confidence, merged[i].Confidence)
				u.Area = (u.Bounds.X2 - u.Bounds.X1) * (u.Bounds.Y2 - u.Bounds.Y1)
				merged = append(merged[:i], merged[i+1:]...)
				merged[len(merged)-1] = u
				changed = true
				break
			}
		}
	}
	return merged
}

// regionsOverlap checks if two bounds overlap
func regionsOverlap(a, b Bounds) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

// mergeBounds combines two bounds into their union
func mergeBounds(a, b Bounds) Bounds {
	return Bounds{
		X1: minInt(a.X1, b.X1),
		Y1: minInt(a.Y1, b.Y1),
		X2: maxInt(a.X2, b.X2),
		Y2: maxInt(a.Y2, b.Y2),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
