package quality

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/internal/platform/config"
	"veridoc/pkg/domain"
)

func newAssessor() *Assessor {
	return NewAssessor(config.DefaultQuality())
}

// flatImage returns a uniform image at the given luminance.
func flatImage(w, h int, lum uint8) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = lum, lum, lum, 255
	}
	return img
}

// checkerboard returns a high-contrast, sharp-edged image.
func checkerboard(w, h, cell int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{0, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestAssessUnreadablePathIsFailSoft(t *testing.T) {
	report := newAssessor().Assess("/nonexistent/document.png")

	assert.False(t, report.Success)
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, "/nonexistent/document.png", report.Path)
	assert.Zero(t, report.Score)
}

func TestAssessResolution(t *testing.T) {
	tests := []struct {
		name  string
		width int
		want  domain.Severity
	}{
		{"wide scan is good", 1700, domain.SeverityGreen},
		{"mid-range scan is acceptable", 1000, domain.SeverityYellow},
		{"low-res photo is poor", 600, domain.SeverityRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newAssessor().assessResolution(flatImage(tt.width, 50, 128))
			assert.Equal(t, tt.want, m.Severity)
		})
	}
}

func TestAssessContrast(t *testing.T) {
	a := newAssessor()

	sharp := a.AssessImage("doc.png", checkerboard(400, 400, 4))
	assert.Equal(t, domain.SeverityGreen, sharp.Contrast.Severity)

	flat := a.AssessImage("doc.png", flatImage(400, 400, 128))
	assert.Equal(t, domain.SeverityRed, flat.Contrast.Severity)
}

func TestAssessBlurEnsemble(t *testing.T) {
	a := newAssessor()

	sharp := a.AssessImage("doc.png", checkerboard(400, 400, 4))
	assert.Equal(t, domain.SeverityGreen, sharp.Blur.Severity)
	assert.ElementsMatch(t, []string{"laplacian_variance", "tenengrad"}, sharp.Blur.Methods)

	// A featureless image has no edges at all, which reads as maximal blur.
	flat := a.AssessImage("doc.png", flatImage(400, 400, 128))
	assert.Equal(t, domain.SeverityRed, flat.Blur.Severity)
	assert.InDelta(t, 100, flat.Blur.Value, 0.5)
}

func TestAssessBrightnessBands(t *testing.T) {
	tests := []struct {
		name string
		lum  uint8
		want domain.Severity
	}{
		{"mid gray is good", 128, domain.SeverityGreen},
		{"dim is acceptable", 40, domain.SeverityYellow},
		{"bright is acceptable", 210, domain.SeverityYellow},
		{"near black is poor", 10, domain.SeverityRed},
		{"blown out is poor", 245, domain.SeverityRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newAssessor().AssessImage("doc.png", flatImage(200, 200, tt.lum))
			assert.Equal(t, tt.want, report.Brightness.Severity)
		})
	}
}

func TestAssessImageIsDeterministic(t *testing.T) {
	a := newAssessor()
	img := checkerboard(400, 400, 4)

	first := a.AssessImage("doc.png", img)
	second := a.AssessImage("doc.png", img)

	require.True(t, first.Success)
	assert.Equal(t, first, second)
}

func TestCompositeScore(t *testing.T) {
	g, y, r := domain.SeverityGreen, domain.SeverityYellow, domain.SeverityRed

	assert.Equal(t, 100, compositeScore([]domain.Severity{g, g, g, g, g}))
	assert.Equal(t, 90, compositeScore([]domain.Severity{g, y, g, g, g}))
	assert.Equal(t, 70, compositeScore([]domain.Severity{r, g, g, g, g}))
	assert.Equal(t, 0, compositeScore([]domain.Severity{r, r, r, r, g}))

	// More RED axes can never score higher, all else equal.
	assert.Less(t,
		compositeScore([]domain.Severity{r, r, g, g, g}),
		compositeScore([]domain.Severity{r, y, g, g, g}),
	)
}

func TestSeveritiesCoversAllAxes(t *testing.T) {
	report := newAssessor().AssessImage("doc.png", flatImage(200, 200, 128))
	assert.Len(t, report.Severities(), 5)
}
