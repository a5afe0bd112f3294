package ocr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// Semantic field names produced by MapFields.
const (
	FieldName       = "name"
	FieldAddress    = "address"
	FieldPostcode   = "postcode"
	FieldPhone      = "phone"
	FieldIdentifier = "identifier"
)

// phoneRegion drives phone validation; documents handled today are
// Australian, where postcodes are also 4-digit.
const phoneRegion = "AU"

// FieldValue is one extracted field with the confidence of the token it came
// from.
type FieldValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// StructuredFields maps semantic field names onto extracted values. Unknown
// fields are simply absent. RawText preserves the full recognized text so
// unmatched tokens are never lost from the audit record.
type StructuredFields struct {
	Fields  map[string]FieldValue `json:"fields"`
	RawText string                `json:"raw_text"`
}

// Values flattens the field map for comparison.
func (s StructuredFields) Values() map[string]string {
	out := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		out[k] = v.Value
	}
	return out
}

var (
	digitsRe     = regexp.MustCompile(`^[0-9]+$`)
	nameAnchorRe = regexp.MustCompile(`(?i)^name\s*[:\-]?\s*`)
	personNameRe = regexp.MustCompile(`^[A-Z][A-Za-z'\-]+(?:\s+[A-Z][A-Za-z'\-]+)+$`)
)

var streetSuffixes = []string{
	"st", "street", "rd", "road", "ave", "avenue", "dr", "drive",
	"ln", "lane", "ct", "court", "hwy", "highway", "pl", "place",
}

// MapFields assigns ordered tokens to semantic fields using pattern rules.
// When multiple tokens match a field, the higher calibrated confidence wins;
// on a tie, the earlier token in reading order wins. Tokens that match
// nothing survive only in RawText.
func MapFields(tokens []Token) StructuredFields {
	type candidate struct {
		value string
		conf  float64
	}
	best := make(map[string]candidate)

	// Tokens arrive in reading order, so a strict > here is the whole
	// tie-break: an equally confident later token never displaces an earlier
	// one.
	consider := func(field, value string, conf float64) {
		if cur, ok := best[field]; !ok || conf > cur.conf {
			best[field] = candidate{value: value, conf: conf}
		}
	}

	var raw []string
	for _, t := range tokens {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		raw = append(raw, text)

		if field, value, ok := classify(text); ok {
			consider(field, value, t.ConfidenceCalibrated)
		}
	}

	fields := make(map[string]FieldValue, len(best))
	for field, c := range best {
		fields[field] = FieldValue{Value: c.value, Confidence: c.conf}
	}
	return StructuredFields{Fields: fields, RawText: strings.Join(raw, " ")}
}

// classify applies the pattern rules in priority order and assigns the token
// to at most one field.
func classify(text string) (field, value string, ok bool) {
	if digitsRe.MatchString(text) {
		return classifyNumeric(text)
	}

	if m := nameAnchorRe.FindString(text); m != "" && len(m) < len(text) {
		return FieldName, strings.TrimSpace(text[len(m):]), true
	}

	if looksLikeAddress(text) {
		return FieldAddress, text, true
	}

	if personNameRe.MatchString(text) {
		return FieldName, text, true
	}

	return "", "", false
}

func classifyNumeric(text string) (string, string, bool) {
	if len(text) == 4 {
		if n, err := strconv.Atoi(text); err == nil && n >= 200 && n <= 9999 {
			return FieldPostcode, text, true
		}
	}
	if len(text) >= 9 && len(text) <= 11 {
		if num, err := libphonenumber.Parse(text, phoneRegion); err == nil && libphonenumber.IsValidNumber(num) {
			return FieldPhone, text, true
		}
	}
	if len(text) >= 6 && len(text) <= 12 {
		return FieldIdentifier, text, true
	}
	return "", "", false
}

// looksLikeAddress wants both a house number and a street suffix word.
func looksLikeAddress(text string) bool {
	words := strings.Fields(text)
	if len(words) < 2 {
		return false
	}
	hasNumber := digitsRe.MatchString(words[0])
	last := strings.ToLower(strings.TrimRight(words[len(words)-1], "."))
	for _, suffix := range streetSuffixes {
		if last == suffix {
			return hasNumber
		}
	}
	return false
}
