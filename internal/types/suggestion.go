package types

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/nathanieluriri/omas-portfolio/internal/content"
)

// Suggestion is one field-level improvement proposed by resume analysis.
type Suggestion struct {
	ID             string  `json:"id"`
	Field          string  `json:"field"`
	CurrentValue   string  `json:"currentValue"`
	SuggestedValue string  `json:"suggestedValue"`
	Reasoning      string  `json:"reasoning"`
	Confidence     float64 `json:"confidence"`
}

// AnalyzeResult is the data payload of POST /portfolios/analyze.
type AnalyzeResult struct {
	FileURL     string       `json:"fileUrl,omitempty"`
	Suggestions []Suggestion `json:"suggestions"`
}

// SuggestionPatchData is the data payload of POST /suggestions/generate: a partial
// document holding the suggested value at Target.
type SuggestionPatchData struct {
	Target       string        `json:"target"`
	Patch        content.Value `json:"patch"`
	SourceLength int           `json:"source_length"`
}

// ApplyUpdate is one field write in a batch apply. ExpectedCurrent lets the backend
// detect that the field changed since analysis.
type ApplyUpdate struct {
	Field           string `json:"field" validate:"required"`
	Value           string `json:"value"`
	ExpectedCurrent string `json:"expectedCurrent"`
}

// ApplyRequest is the body of POST /portfolios/apply.
type ApplyRequest struct {
	Updates []ApplyUpdate `json:"updates" validate:"required,min=1,dive"`
}

// Validate validates the ApplyRequest using the validator.
func (r *ApplyRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// UpdateFrom builds the apply payload for a suggestion.
func UpdateFrom(s Suggestion) ApplyUpdate {
	return ApplyUpdate{
		Field:           s.Field,
		Value:           s.SuggestedValue,
		ExpectedCurrent: s.CurrentValue,
	}
}

// NormalizeConfidence maps a confidence to the 0..1 range. Values above 1 are taken
// to be percentages already and are divided by 100.
//
// The rule cannot tell a percentage of exactly 1 (1%) from the fraction 1.0 (100%);
// both are read as 100%. It is kept for compatibility with the analysis service.
func NormalizeConfidence(c float64) float64 {
	if c > 1 {
		return c / 100
	}
	return c
}

// ConfidencePercent is the rounded 0..100 display value of a confidence.
func ConfidencePercent(c float64) int {
	return int(math.Round(NormalizeConfidence(c) * 100))
}

// ConfidenceTone buckets a confidence for display.
type ConfidenceTone string

// Confidence tones
const (
	ToneHigh   ConfidenceTone = "high"
	ToneMedium ConfidenceTone = "medium"
	ToneLow    ConfidenceTone = "low"
)

// ToneOf returns the display bucket of a confidence, normalised the same way as
// ConfidencePercent.
func ToneOf(c float64) ConfidenceTone {
	normalized := NormalizeConfidence(c)
	switch {
	case normalized >= 0.8:
		return ToneHigh
	case normalized >= 0.6:
		return ToneMedium
	default:
		return ToneLow
	}
}
