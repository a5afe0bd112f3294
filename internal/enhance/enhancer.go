// Package enhance applies corrective preprocessing (deskew, contrast
// stretch, denoise) to maximize OCR yield. Enhancement never fails the
// pipeline: a transform that cannot be applied is skipped and reported, and
// the caller always receives a usable image.
package enhance

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Operation names reported in Result.Applied / Result.Skipped.
const (
	OpDeskew   = "deskew"
	OpContrast = "contrast_stretch"
	OpDenoise  = "denoise"
)

// deskewMinDegrees is the magnitude below which rotation is skipped; resampling
// a near-straight image costs more quality than it recovers. This also keeps
// re-enhancing an already-deskewed image a no-op.
const deskewMinDegrees = 0.5

// Result carries the enhanced image and the audit trail of what was done.
type Result struct {
	Image   image.Image
	Applied []string
	Skipped []string
}

// Enhancer applies the corrective transform chain.
type Enhancer struct{}

// NewEnhancer builds an enhancer.
func NewEnhancer() *Enhancer {
	return &Enhancer{}
}

// Enhance loads the image at path and applies the transform chain.
// skewDegrees is the signed skew estimate from quality assessment; pass 0 to
// skip deskewing. The only hard failure is an unreadable source image.
func (e *Enhancer) Enhance(path string, skewDegrees float64) (Result, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("cannot load image for enhancement: %w", err)
	}
	return e.EnhanceImage(img, skewDegrees), nil
}

// EnhanceImage applies the chain to an already-decoded image.
func (e *Enhancer) EnhanceImage(img image.Image, skewDegrees float64) Result {
	res := Result{Image: img}

	if math.Abs(skewDegrees) >= deskewMinDegrees {
		// Rotate opposite the estimated skew to bring text lines horizontal.
		res.Image = imaging.Rotate(res.Image, -skewDegrees, color.White)
		res.Applied = append(res.Applied, OpDeskew)
	} else {
		res.Skipped = append(res.Skipped, OpDeskew)
	}

	if stretched, ok := contrastStretch(res.Image); ok {
		res.Image = stretched
		res.Applied = append(res.Applied, OpContrast)
	} else {
		res.Skipped = append(res.Skipped, OpContrast)
	}

	// A light gaussian pass suppresses sensor noise without eating glyph
	// edges at document resolutions.
	res.Image = imaging.Blur(res.Image, 0.5)
	res.Applied = append(res.Applied, OpDenoise)

	return res
}

// contrastStretch widens the luminance range when the image is flat. Returns
// ok=false when the image already spans enough range, which keeps the
// operation idempotent: a stretched image will not be stretched again.
func contrastStretch(img image.Image) (image.Image, bool) {
	gray := imaging.Grayscale(img)
	lo, hi := luminanceRange(gray)
	if hi-lo >= 200 || hi <= lo {
		return img, false
	}
	// Map the observed range onto a percentage boost for AdjustContrast;
	// flatter images get a stronger stretch, capped to avoid clipping.
	boost := math.Min(40, (200-float64(hi-lo))/4)
	return imaging.AdjustContrast(img, boost), true
}

func luminanceRange(gray *image.NRGBA) (lo, hi int) {
	b := gray.Bounds()
	lo, hi = 255, 0
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := int(row[x*4])
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}
