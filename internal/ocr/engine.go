// Package ocr runs text recognition over an enhanced document image,
// calibrates per-token confidence against a known engine baseline, and maps
// raw tokens onto semantic fields.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Token is one recognized text unit in reading order. Confidence is the
// engine's native score; ConfidenceCalibrated the rescaled one. Both are
// retained for audit.
type Token struct {
	Text                 string  `json:"text"`
	Confidence           float64 `json:"confidence"`
	ConfidenceCalibrated float64 `json:"confidence_calibrated"`
}

// Engine is the pluggable recognition backend. Implementations return tokens
// with raw confidence in [0,100]; calibration happens in the extractor.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]Token, error)
}

// TesseractEngine shells out to the tesseract CLI and parses its TSV output.
// The binary path is configurable so deployments can pin a specific build.
type TesseractEngine struct {
	cmd string
}

// NewTesseractEngine builds an engine around the given tesseract binary.
func NewTesseractEngine(cmd string) *TesseractEngine {
	return &TesseractEngine{cmd: cmd}
}

// Recognize renders the image to a temp file, invokes tesseract in TSV mode,
// and groups word rows into line-level tokens with averaged confidence.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	tmp, err := os.CreateTemp("", "veridoc-ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, img, imaging.PNG); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encode temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp image: %w", err)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, e.cmd, tmp.Name(), "stdout", "tsv")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract: %w", err)
	}
	return parseTSV(out.String()), nil
}

// parseTSV folds tesseract's word-level TSV rows into line-level tokens.
// Rows with confidence -1 are structural (page/block markers) and skipped.
func parseTSV(tsv string) []Token {
	type lineKey struct{ block, par, line string }

	var tokens []Token
	var current lineKey
	var words []string
	var confSum float64
	var confN int

	flush := func() {
		if len(words) == 0 {
			return
		}
		tokens = append(tokens, Token{
			Text:       strings.Join(words, " "),
			Confidence: confSum / float64(confN),
		})
		words, confSum, confN = nil, 0, 0
	}

	for i, row := range strings.Split(tsv, "\n") {
		if i == 0 { // header
			continue
		}
		cols := strings.Split(row, "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		key := lineKey{cols[2], cols[3], cols[4]}
		if key != current {
			flush()
			current = key
		}
		words = append(words, text)
		confSum += conf
		confN++
	}
	flush()
	return tokens
}
