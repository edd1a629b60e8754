package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-hclog"
	"github.com/otiai10/gosseract/v2"
)

// ErrUnavailable is returned when Tesseract or its language data cannot be used.
var ErrUnavailable = errors.New("tesseract OCR unavailable")

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// Rect converts b to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Word is one recognized word with its location in the original image.
type Word struct {
	Text string `json:"text"`

	// Confidence is Tesseract's word confidence on its native 0-100 scale.
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// Options controls word extraction.
type Options struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// MinConfidence drops words below this confidence (0-100).
	MinConfidence float64

	// MaxWords caps the number of words returned, in reading order. Zero means no cap.
	MaxWords int

	// MinHeight upscales shorter images before recognition, up to 4x.
	// Tesseract struggles with glyphs under roughly 20 px. Zero disables.
	MinHeight int
}

// DefaultOptions returns English, confidence 60, at most 50 words.
func DefaultOptions() Options {
	return Options{
		Language:      "eng",
		MinConfidence: 60,
		MaxWords:      50,
		MinHeight:     400,
	}
}

// Engine extracts words from images with Tesseract. Each call uses its own
// gosseract client, so an Engine is safe for concurrent use.
type Engine struct {
	opts   Options
	logger hclog.Logger
}

// New creates an Engine. logger may be nil.
func New(opts Options, logger hclog.Logger) *Engine {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{opts: opts, logger: logger}
}

// Available reports whether the configured language can be loaded.
func (e *Engine) Available() error {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for _, want := range strings.Split(e.opts.Language, "+") {
		found := false
		for _, l := range langs {
			if l == want {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: language %q not installed", ErrUnavailable, want)
		}
	}
	return nil
}

// Words recognizes the words in img and returns those passing the
// confidence filter, in Tesseract's reading order, capped at MaxWords.
// Bounds are in img's coordinate space.
//
// Tesseract has no cancellation hook; when ctx ends first Words returns
// ctx.Err() and the recognition finishes in the background.
func (e *Engine) Words(ctx context.Context, img image.Image) ([]Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		words []Word
		err   error
	}
	done := make(chan result, 1)
	go func() {
		words, err := e.recognize(img)
		done <- result{words, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.words, r.err
	}
}

func (e *Engine) recognize(img image.Image) ([]Word, error) {
	src, scale := upscale(img, e.opts.MinHeight)

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.opts.Language); err != nil {
		return nil, fmt.Errorf("%w: failed to set language: %v", ErrUnavailable, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	words := selectWords(boxes, scale, img.Bounds().Min, e.opts)
	e.logger.Debug("ocr complete", "boxes", len(boxes), "words", len(words), "scale", scale)
	return words, nil
}

// upscale enlarges img by an integer factor (at most 4) so its height
// reaches minHeight. The returned factor is 1 when no resize happened.
func upscale(img image.Image, minHeight int) (image.Image, int) {
	h := img.Bounds().Dy()
	if minHeight <= 0 || h <= 0 || h >= minHeight {
		return img, 1
	}
	factor := (minHeight + h - 1) / h
	if factor > 4 {
		factor = 4
	}
	if factor < 2 {
		return img, 1
	}
	w := img.Bounds().Dx()
	return imaging.Resize(img, w*factor, h*factor, imaging.Lanczos), factor
}

// selectWords filters Tesseract boxes and maps them back from the scaled,
// zero-origin OCR image to the original image's coordinates.
func selectWords(boxes []gosseract.BoundingBox, scale int, origin image.Point, opts Options) []Word {
	if scale < 1 {
		scale = 1
	}
	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		if box.Confidence < opts.MinConfidence {
			continue
		}
		words = append(words, Word{
			Text:       text,
			Confidence: box.Confidence,
			Bounds: Bounds{
				X1: origin.X + box.Box.Min.X/scale,
				Y1: origin.Y + box.Box.Min.Y/scale,
				X2: origin.X + (box.Box.Max.X+scale-1)/scale,
				Y2: origin.Y + (box.Box.Max.Y+scale-1)/scale,
			},
		})
		if opts.MaxWords > 0 && len(words) == opts.MaxWords {
			break
		}
	}
	return words
}
