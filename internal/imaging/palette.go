package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
)

// quantStep is the channel bucket width used when grouping similar colors.
const quantStep = 16

// ColorFrequency is one bucket of a quantized color histogram.
type ColorFrequency struct {
	// Color is the mean of the pixels that fell into the bucket, not the
	// bucket corner, so a flat fill reports its exact color.
	Color      contrast.Color `json:"-"`
	Hex        string         `json:"hex"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// DominantColorsResult contains the most common colors found in a region.
type DominantColorsResult struct {
	Colors      []ColorFrequency `json:"colors"`
	TotalPixels int              `json:"total_pixels"`
}

type bucket struct {
	key     uint32
	count   int
	r, g, b int
}

// DominantColors finds the most common colors in rect (clipped to the
// image), quantizing each channel into 16 levels to group near-identical
// shades. Results are sorted by frequency, ties broken by bucket so the
// order is stable across calls. count <= 0 returns every bucket.
func DominantColors(img image.Image, rect image.Rectangle, count int) (*DominantColorsResult, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("region %v outside image bounds %v", rect, img.Bounds())
	}

	buckets := histogram(imaging.Crop(img, rect))
	total := rect.Dx() * rect.Dy()

	if count > 0 && len(buckets) > count {
		buckets = buckets[:count]
	}

	colors := make([]ColorFrequency, len(buckets))
	for i, b := range buckets {
		c := b.mean()
		colors[i] = ColorFrequency{
			Color:      c,
			Hex:        c.Hex(),
			Count:      b.count,
			Percentage: math.Round(float64(b.count)/float64(total)*10000) / 100,
		}
	}

	return &DominantColorsResult{Colors: colors, TotalPixels: total}, nil
}

// histogram buckets every pixel of img, flattened over white, and returns
// the buckets by descending count.
func histogram(img *image.NRGBA) []*bucket {
	index := make(map[uint32]*bucket)
	w, h := img.Rect.Dx(), img.Rect.Dy()

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			c := flattenNRGBA(p[0], p[1], p[2], p[3])
			key := uint32(c.R/quantStep)<<16 | uint32(c.G/quantStep)<<8 | uint32(c.B/quantStep)

			b, ok := index[key]
			if !ok {
				b = &bucket{key: key}
				index[key] = b
			}
			b.count++
			b.r += int(c.R)
			b.g += int(c.G)
			b.b += int(c.B)
		}
	}

	buckets := make([]*bucket, 0, len(index))
	for _, b := range index {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].key < buckets[j].key
	})
	return buckets
}

func (b *bucket) mean() contrast.Color {
	n := b.count
	return contrast.Color{
		R: uint8((b.r + n/2) / n),
		G: uint8((b.g + n/2) / n),
		B: uint8((b.b + n/2) / n),
	}
}
