package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// createTextImage renders text scaled up 3x so strokes are several pixels
// wide, returning the image and the box around the glyphs.
func createTextImage(text string, fg, bg color.Color) (*image.RGBA, image.Rectangle) {
	const scale = 3
	width := len(text)*7 + 20
	height := 30

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(fg),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(10), Y: fixed.I(20)},
	}
	d.DrawString(text)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			draw.Draw(img, image.Rect(x*scale, y*scale, (x+1)*scale, (y+1)*scale),
				image.NewUniform(small.At(x, y)), image.Point{}, draw.Src)
		}
	}

	box := image.Rect(10*scale, 9*scale, (10+len(text)*7)*scale, 22*scale)
	return img, box
}

func TestSampleTextColors(t *testing.T) {
	tests := []struct {
		name   string
		fg, bg color.RGBA
		wantFG string
		wantBG string
	}{
		{"black on white", color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255}, "#000000", "#FFFFFF"},
		{"white on navy", color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0x80, 255}, "#FFFFFF", "#000080"},
		{"gray on light gray", color.RGBA{0x77, 0x77, 0x77, 255}, color.RGBA{0xEE, 0xEE, 0xEE, 255}, "#777777", "#EEEEEE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, box := createTextImage("Sample", tt.fg, tt.bg)

			got, err := SampleTextColors(img, box, DefaultPadding)
			if err != nil {
				t.Fatalf("SampleTextColors failed: %v", err)
			}
			if got.Foreground.Hex() != tt.wantFG {
				t.Errorf("Foreground = %s, want %s", got.Foreground.Hex(), tt.wantFG)
			}
			if got.Background.Hex() != tt.wantBG {
				t.Errorf("Background = %s, want %s", got.Background.Hex(), tt.wantBG)
			}
		})
	}
}

func TestSampleTextColors_AntiAliased(t *testing.T) {
	// Solid black strokes with a mid-gray fringe: the fringe contrasts less
	// with the white background and must not be picked.
	img := createInMemoryImage(60, 30, color.White)
	for x := 10; x < 50; x += 6 {
		for y := 8; y < 22; y++ {
			img.Set(x, y, color.RGBA{0x99, 0x99, 0x99, 255})
			img.Set(x+1, y, color.Black)
			img.Set(x+2, y, color.Black)
			img.Set(x+3, y, color.RGBA{0x99, 0x99, 0x99, 255})
		}
	}

	got, err := SampleTextColors(img, image.Rect(8, 6, 52, 24), DefaultPadding)
	if err != nil {
		t.Fatalf("SampleTextColors failed: %v", err)
	}
	if got.Foreground.Hex() != "#000000" {
		t.Errorf("Foreground = %s, want #000000", got.Foreground.Hex())
	}
}

func TestSampleTextColors_Uniform(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{0x12, 0x34, 0x56, 255})

	got, err := SampleTextColors(img, image.Rect(5, 5, 15, 15), DefaultPadding)
	if err != nil {
		t.Fatalf("SampleTextColors failed: %v", err)
	}
	if got.Foreground != got.Background {
		t.Errorf("uniform box should yield fg == bg, got %s on %s", got.Foreground.Hex(), got.Background.Hex())
	}
}

func TestSampleTextColors_ClipsToImage(t *testing.T) {
	img, _ := createTextImage("Edge", color.Black, color.White)

	// Box hanging off the right edge; padding extends past every side.
	b := img.Bounds()
	box := image.Rect(b.Max.X-30, 0, b.Max.X+30, b.Max.Y)
	if _, err := SampleTextColors(img, box, 50); err != nil {
		t.Errorf("partially outside box should be clipped, got %v", err)
	}

	if _, err := SampleTextColors(img, image.Rect(-50, -50, -10, -10), DefaultPadding); err == nil {
		t.Error("expected error for box entirely outside the image")
	}
}

func TestSampleTextColors_NegativePadding(t *testing.T) {
	img, box := createTextImage("Hi", color.Black, color.White)

	got, err := SampleTextColors(img, box, -5)
	if err != nil {
		t.Fatalf("SampleTextColors failed: %v", err)
	}
	if got.Background.Hex() != "#FFFFFF" {
		t.Errorf("Background = %s, want #FFFFFF", got.Background.Hex())
	}
}
