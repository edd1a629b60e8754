package detection

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// edgeMap returns a binary edge mask of img, indexed [y][x] relative to
// img.Bounds().Min.
//
// The image is converted to grayscale, optionally contrast-stretched so
// faint text still produces edges, run through a Sobel filter and
// thresholded at level.
func edgeMap(img image.Image, contrastBoost float64, level uint8) [][]bool {
	gray := effect.Grayscale(img)
	if contrastBoost != 0 {
		gray = adjust.Contrast(gray, contrastBoost)
	}
	mask := segment.Threshold(effect.Sobel(gray), level)

	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	edges := make([][]bool, h)
	for y := 0; y < h; y++ {
		edges[y] = make([]bool, w)
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, v := range row {
			edges[y][x] = v != 0
		}
	}
	return edges
}

// integral is a summed-area table over an edge mask.
// sum[y][x] counts edge pixels in [0,x) x [0,y).
type integral [][]int

func newIntegral(edges [][]bool) integral {
	h := len(edges)
	w := 0
	if h > 0 {
		w = len(edges[0])
	}
	sum := make(integral, h+1)
	for y := range sum {
		sum[y] = make([]int, w+1)
	}
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			if edges[y][x] {
				rowSum++
			}
			sum[y+1][x+1] = sum[y][x+1] + rowSum
		}
	}
	return sum
}

// count returns the number of edge pixels in the window [x, x+w) x [y, y+h).
func (s integral) count(x, y, w, h int) int {
	return s[y+h][x+w] - s[y][x+w] - s[y+h][x] + s[y][x]
}
