// Package quality scores a single document image on five independent axes
// (resolution, contrast, skew, blur, brightness) and derives a composite
// legibility score. Pure computation over the decoded image plus configured
// thresholds; no side effects.
package quality

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"veridoc/internal/platform/config"
	"veridoc/pkg/domain"
)

// assumedPageWidthInches approximates an A4/letter page for DPI estimation
// when the image carries no physical metadata.
const assumedPageWidthInches = 8.27

// analysisWidth bounds the working copies used for skew and blur estimation.
const analysisWidth = 512

// Assessor evaluates document images against configured thresholds.
type Assessor struct {
	cfg config.Quality
}

// NewAssessor builds an assessor with the given thresholds.
func NewAssessor(cfg config.Quality) *Assessor {
	return &Assessor{cfg: cfg}
}

// Assess scores the image at path. Decode failures are folded into the report
// (Success=false) rather than returned as errors.
func (a *Assessor) Assess(path string) Report {
	img, err := imaging.Open(path)
	if err != nil {
		return Report{Success: false, Error: fmt.Sprintf("cannot load image: %v", err), Path: path}
	}
	return a.AssessImage(path, img)
}

// AssessImage scores an already-decoded image. Exposed so the pipeline can
// reuse a single decode across quality assessment and enhancement checks.
func (a *Assessor) AssessImage(path string, img image.Image) Report {
	gray := imaging.Grayscale(img)

	r := Report{Success: true, Path: path}
	r.Resolution = a.assessResolution(img)
	r.Contrast = a.assessContrast(gray)
	r.Skew, r.SkewAngle = a.assessSkew(gray)
	r.Blur = a.assessBlur(gray)
	r.Brightness = a.assessBrightness(gray)
	r.Score = compositeScore(r.Severities())
	return r
}

// assessResolution estimates DPI from pixel width over an assumed physical
// page width. Higher is better.
func (a *Assessor) assessResolution(img image.Image) Metric {
	dpi := float64(img.Bounds().Dx()) / assumedPageWidthInches
	sev := severityHigherBetter(dpi, a.cfg.DPIMin, a.cfg.DPITarget)
	return Metric{Value: round1(dpi), Severity: sev, Status: statusFor(sev)}
}

// assessContrast maps the luminance standard deviation onto 0-100.
func (a *Assessor) assessContrast(gray *image.NRGBA) Metric {
	_, std := luminanceStats(gray)
	contrast := clamp(std/127.5*100, 0, 100)
	sev := severityHigherBetter(contrast, a.cfg.ContrastMin, a.cfg.ContrastTarget)
	return Metric{Value: round1(contrast), Severity: sev, Status: statusFor(sev)}
}

// assessSkew estimates the dominant text-line angle by sweeping candidate
// rotations of a working copy and picking the one that maximizes the
// variance of horizontal darkness profiles: aligned text concentrates ink
// into rows. Returns the severity metric (magnitude) and the signed angle.
func (a *Assessor) assessSkew(gray *image.NRGBA) (Metric, float64) {
	thumb := imaging.Resize(gray, analysisWidth/2, 0, imaging.Box)

	bestAngle, bestVar := 0.0, -1.0
	for angle := -a.cfg.SkewMaxDegrees; angle <= a.cfg.SkewMaxDegrees+1e-9; angle += 0.5 {
		rotated := imaging.Rotate(thumb, angle, color.White)
		if v := rowProfileVariance(rotated); v > bestVar {
			bestVar, bestAngle = v, angle
		}
	}
	// Rotating by bestAngle aligned the text, so the document is skewed by
	// the opposite amount.
	skew := -bestAngle
	magnitude := math.Abs(skew)
	sev := severityLowerBetter(magnitude, a.cfg.SkewTargetDegrees, a.cfg.SkewMaxDegrees)
	return Metric{Value: round1(magnitude), Severity: sev, Status: statusFor(sev)}, skew
}

// assessBlur runs an ensemble of two sharpness estimators (Laplacian
// variance and Tenengrad gradient energy), inverts each into a blur value,
// and reconciles them by worst case.
func (a *Assessor) assessBlur(gray *image.NRGBA) Metric {
	work := gray
	if gray.Bounds().Dx() > analysisWidth {
		work = imaging.Resize(gray, analysisWidth, 0, imaging.Box)
	}

	lapSharpness := clamp(laplacianVariance(work)/20, 0, 100)
	tenSharpness := clamp(math.Sqrt(tenengradEnergy(work))*4, 0, 100)

	blurLap := 100 - lapSharpness
	blurTen := 100 - tenSharpness
	blur := math.Max(blurLap, blurTen)

	sev := severityLowerBetter(blur, a.cfg.BlurTarget, a.cfg.BlurMax)
	return Metric{
		Value:    round1(blur),
		Severity: sev,
		Status:   statusFor(sev),
		Methods:  []string{"laplacian_variance", "tenengrad"},
	}
}

// assessBrightness checks mean luminance against the absolute and target
// bands.
func (a *Assessor) assessBrightness(gray *image.NRGBA) Metric {
	mean, _ := luminanceStats(gray)
	var sev domain.Severity
	switch {
	case mean < a.cfg.BrightnessMin || mean > a.cfg.BrightnessMax:
		sev = domain.SeverityRed
	case mean < a.cfg.BrightnessTargetMin || mean > a.cfg.BrightnessTargetMax:
		sev = domain.SeverityYellow
	default:
		sev = domain.SeverityGreen
	}
	return Metric{Value: round1(mean), Severity: sev, Status: statusFor(sev)}
}

func severityHigherBetter(value, min, target float64) domain.Severity {
	switch {
	case value < min:
		return domain.SeverityRed
	case value < target:
		return domain.SeverityYellow
	default:
		return domain.SeverityGreen
	}
}

func severityLowerBetter(value, target, max float64) domain.Severity {
	switch {
	case value > max:
		return domain.SeverityRed
	case value > target:
		return domain.SeverityYellow
	default:
		return domain.SeverityGreen
	}
}

// luminanceStats returns the mean and standard deviation of the gray image's
// luminance channel.
func luminanceStats(gray *image.NRGBA) (mean, std float64) {
	b := gray.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[(y-b.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := float64(row[x*4])
			sum += v
			sumSq += v * v
		}
	}
	mean = sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// rowProfileVariance measures how unevenly darkness is distributed across
// rows; text aligned with the horizontal axis maximizes it.
func rowProfileVariance(gray *image.NRGBA) float64 {
	b := gray.Bounds()
	h := b.Dy()
	if h == 0 {
		return 0
	}
	profiles := make([]float64, h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		var dark float64
		for x := 0; x < b.Dx(); x++ {
			dark += 255 - float64(row[x*4])
		}
		profiles[y] = dark
	}
	var sum, sumSq float64
	for _, p := range profiles {
		sum += p
		sumSq += p * p
	}
	mean := sum / float64(h)
	v := sumSq/float64(h) - mean*mean
	if v < 0 {
		v = 0
	}
	return v
}

// laplacianVariance is the variance of the 4-neighbour Laplacian response;
// near zero on defocused images.
func laplacianVariance(gray *image.NRGBA) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}
	at := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x*4]) }

	var sum, sumSq float64
	n := float64((w - 2) * (h - 2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += lap
			sumSq += lap * lap
		}
	}
	mean := sum / n
	v := sumSq/n - mean*mean
	if v < 0 {
		v = 0
	}
	return v
}

// tenengradEnergy is the mean squared Sobel gradient magnitude.
func tenengradEnergy(gray *image.NRGBA) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}
	at := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x*4]) }

	var sum float64
	n := float64((w - 2) * (h - 2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			sum += (gx*gx + gy*gy) / (255 * 255)
		}
	}
	return sum / n * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
