package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
)

// DefaultPadding is how far beyond a word box the background is sampled.
const DefaultPadding = 10

const (
	// Candidate foreground buckets considered inside a word box.
	maxForegroundCandidates = 6
	// Buckets covering less of the box than this are treated as noise.
	minForegroundShare = 0.02
)

// TextColors is the estimated color pair of a piece of rendered text.
type TextColors struct {
	Foreground contrast.Color
	Background contrast.Color
}

// SampleTextColors estimates the text and background colors of the word
// inside box.
//
// The background is the dominant quantized color of box padded by padding
// pixels on every side (clipped to the image). The foreground is, among the
// dominant colors inside box, the one contrasting most with that background.
// Anti-aliased edge pixels fall into intermediate buckets and lose to the
// solid stroke color. Both colors are bucket means, not bucket corners.
//
// A box with no pixel distinct from the background yields Foreground ==
// Background.
func SampleTextColors(img image.Image, box image.Rectangle, padding int) (TextColors, error) {
	bounds := img.Bounds()
	box = box.Intersect(bounds)
	if box.Empty() {
		return TextColors{}, fmt.Errorf("text box outside image bounds %v", bounds)
	}
	if padding < 0 {
		padding = 0
	}

	outer := box.Inset(-padding).Intersect(bounds)
	bgBuckets := histogram(imaging.Crop(img, outer))
	bg := bgBuckets[0].mean()

	inner := histogram(imaging.Crop(img, box))
	minCount := int(float64(box.Dx()*box.Dy()) * minForegroundShare)
	if minCount < 1 {
		minCount = 1
	}

	fg := bg
	best := 1.0
	for i, b := range inner {
		if i >= maxForegroundCandidates || b.count < minCount {
			break
		}
		c := b.mean()
		if r := contrast.Ratio(c, bg); r > best {
			best = r
			fg = c
		}
	}

	return TextColors{Foreground: fg, Background: bg}, nil
}
