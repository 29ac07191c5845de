package parser

import (
	"casaideal/internal/core"
	"casaideal/internal/logger"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cast"
	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedResponse is returned when the generated text is not a JSON array.
var ErrMalformedResponse = errors.New("malformed listings response")

// Matches one enclosing code fence, optionally tagged with a language: ```json ... ```
var codeFenceRegex = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// listingSchema is what every array element must satisfy to be kept.
const listingSchema = `{
  "type": "object",
  "required": ["id", "title", "imagePrompt"],
  "properties": {
    "id": {"type": ["string", "number"]},
    "title": {"type": "string"},
    "imagePrompt": {"type": "string"}
  }
}`

var compiledListingSchema = mustCompileSchema(listingSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid listing schema: %v", err))
	}
	return s
}

// Result holds the kept listings and how many elements were discarded.
type Result struct {
	Listings []core.PartialProperty
	Dropped  int
}

// ParseListings turns generated text into partial properties. Invalid elements
// are dropped; only a response that is not a JSON array is an error.
func ParseListings(raw string) ([]core.PartialProperty, error) {
	result, err := ParseListingsDetailed(raw)
	if err != nil {
		return nil, err
	}
	return result.Listings, nil
}

// ParseListingsDetailed is ParseListings that also reports the dropped count.
func ParseListingsDetailed(raw string) (Result, error) {
	text := StripCodeFence(raw)
	if !strings.HasPrefix(text, "[") {
		return Result{}, fmt.Errorf("%w: expected a JSON array, got %s", ErrMalformedResponse, preview(text))
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	log := logger.Component("parser")
	result := Result{Listings: make([]core.PartialProperty, 0, len(elements))}

	for i, element := range elements {
		listing, err := parseElement(element)
		if err != nil {
			result.Dropped++
			log.Debug("dropping invalid listing", "index", i, "reason", err)
			continue
		}
		result.Listings = append(result.Listings, listing)
	}

	if result.Dropped > 0 {
		log.Info("discarded invalid listings", "kept", len(result.Listings), "dropped", result.Dropped)
	}

	return result, nil
}

// StripCodeFence trims raw and removes one enclosing code fence, if present.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if match := codeFenceRegex.FindStringSubmatch(text); match != nil && match[2] != "" {
		text = strings.TrimSpace(match[2])
	}
	return text
}

func parseElement(element json.RawMessage) (core.PartialProperty, error) {
	validation, err := compiledListingSchema.Validate(gojsonschema.NewBytesLoader(element))
	if err != nil {
		return core.PartialProperty{}, err
	}
	if !validation.Valid() {
		reasons := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			reasons = append(reasons, desc.String())
		}
		return core.PartialProperty{}, errors.New(strings.Join(reasons, "; "))
	}

	var fields map[string]any
	if err := json.Unmarshal(element, &fields); err != nil {
		return core.PartialProperty{}, err
	}

	return core.PartialProperty{
		ID:                cast.ToString(fields["id"]),
		Title:             cast.ToString(fields["title"]),
		Address:           cast.ToString(fields["address"]),
		Price:             toInt64(fields["price"]),
		Bedrooms:          int(toInt64(fields["bedrooms"])),
		Bathrooms:         int(toInt64(fields["bathrooms"])),
		Area:              int(toInt64(fields["sqft"])),
		Description:       cast.ToString(fields["description"]),
		ImagePrompt:       cast.ToString(fields["imagePrompt"]),
		PersonalizedPitch: cast.ToString(fields["personalizedPitch"]),
		SuggestionReason:  cast.ToString(fields["suggestionReason"]),
	}, nil
}

// Trailing decimal part of an amount, with any unit after it: ",00", ".5",
// ",5 m²". Three digits after a separator are thousands grouping.
var fractionRegex = regexp.MustCompile(`[.,]\d{1,2}\D*$`)

// toInt64 accepts numbers, numeric strings and formatted amounts like
// "R$ 1.250.000,00". Fractions are truncated. Anything else, including floats
// outside the int64 range, becomes 0.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return floatToInt64(n)
	case string:
		return parseAmount(n)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0
	}
	return n
}

func floatToInt64(f float64) int64 {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

func parseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	s = fractionRegex.ReplaceAllString(s, "")
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func preview(text string) string {
	const limit = 40
	if text == "" {
		return "empty text"
	}
	if len(text) > limit {
		return fmt.Sprintf("%q...", text[:limit])
	}
	return fmt.Sprintf("%q", text)
}
