package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// AnalysisType names the kind of enrichment record a pattern was mined from.
type AnalysisType string

const (
	AnalysisImage AnalysisType = "image"
	AnalysisCopy  AnalysisType = "copy"
)

// Valid reports whether t is a known analysis type.
func (t AnalysisType) Valid() bool {
	return t == AnalysisImage || t == AnalysisCopy
}

// ImageAnalysis is the AI-produced description of an ad's creative image.
// Every field is optional: the model may omit any of them.
type ImageAnalysis struct {
	AdID             string          `json:"ad_id" db:"ad_id"`
	HasPerson        *bool           `json:"has_person" db:"has_person"`
	PersonType       *string         `json:"person_type" db:"person_type"`
	TextRatio        *int            `json:"text_ratio" db:"text_ratio"`
	HasChart         *bool           `json:"has_chart" db:"has_chart"`
	LogoPosition     *string         `json:"logo_position" db:"logo_position"`
	PrimaryColor     *string         `json:"primary_color" db:"primary_color"`
	SecondaryColor   *string         `json:"secondary_color" db:"secondary_color"`
	TertiaryColor    *string         `json:"tertiary_color" db:"tertiary_color"`
	ColorTone        *string         `json:"color_tone" db:"color_tone"`
	Saturation       *string         `json:"saturation" db:"saturation"`
	LayoutType       *string         `json:"layout_type" db:"layout_type"`
	Atmosphere       *string         `json:"atmosphere" db:"atmosphere"`
	EmphasisElements []string        `json:"emphasis_elements" db:"emphasis_elements"`
	MentionedRegions []string        `json:"mentioned_regions" db:"mentioned_regions"`
	Raw              json.RawMessage `json:"analysis_raw,omitempty" db:"analysis_raw"`
	AnalyzedAt       time.Time       `json:"analyzed_at" db:"analyzed_at"`
}

// FieldValue returns the stringified value of a categorical field and
// whether it is present. Unknown field names report absent.
func (a *ImageAnalysis) FieldValue(name string) (string, bool) {
	if a == nil {
		return "", false
	}
	switch name {
	case "has_person":
		return boolField(a.HasPerson)
	case "person_type":
		return stringField(a.PersonType)
	case "text_ratio":
		return intField(a.TextRatio)
	case "has_chart":
		return boolField(a.HasChart)
	case "logo_position":
		return stringField(a.LogoPosition)
	case "primary_color":
		return stringField(a.PrimaryColor)
	case "secondary_color":
		return stringField(a.SecondaryColor)
	case "tertiary_color":
		return stringField(a.TertiaryColor)
	case "color_tone":
		return stringField(a.ColorTone)
	case "saturation":
		return stringField(a.Saturation)
	case "layout_type":
		return stringField(a.LayoutType)
	case "atmosphere":
		return stringField(a.Atmosphere)
	}
	return "", false
}

// NumberMention is a number quoted in ad copy along with its unit and context.
type NumberMention struct {
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Context string  `json:"context"`
}

// CopyAnalysis is the AI-produced description of an ad's copy text.
type CopyAnalysis struct {
	AdID            string          `json:"ad_id" db:"ad_id"`
	Headline        *string         `json:"headline" db:"headline"`
	HeadlineLength  *int            `json:"headline_length" db:"headline_length"`
	Body            *string         `json:"body" db:"body"`
	CTA             *string         `json:"cta" db:"cta"`
	CoreMessage     *string         `json:"core_message" db:"core_message"`
	Numbers         []NumberMention `json:"numbers" db:"numbers"`
	Regions         []string        `json:"regions" db:"regions"`
	DiscountInfo    *string         `json:"discount_info" db:"discount_info"`
	FreeBenefit     *string         `json:"free_benefit" db:"free_benefit"`
	SocialProof     *string         `json:"social_proof" db:"social_proof"`
	Urgency         *string         `json:"urgency" db:"urgency"`
	Differentiation *string         `json:"differentiation" db:"differentiation"`
	Formality       *string         `json:"formality" db:"formality"`
	Emotion         *string         `json:"emotion" db:"emotion"`
	Style           *string         `json:"style" db:"style"`
	TargetAudience  *string         `json:"target_audience" db:"target_audience"`
	Keywords        []string        `json:"keywords" db:"keywords"`
	Raw             json.RawMessage `json:"analysis_raw,omitempty" db:"analysis_raw"`
	AnalyzedAt      time.Time       `json:"analyzed_at" db:"analyzed_at"`
}

// FieldValue returns the stringified value of a categorical field and
// whether it is present.
func (c *CopyAnalysis) FieldValue(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	switch name {
	case "headline":
		return stringField(c.Headline)
	case "headline_length":
		return intField(c.HeadlineLength)
	case "cta":
		return stringField(c.CTA)
	case "core_message":
		return stringField(c.CoreMessage)
	case "formality":
		return stringField(c.Formality)
	case "emotion":
		return stringField(c.Emotion)
	case "style":
		return stringField(c.Style)
	case "target_audience":
		return stringField(c.TargetAudience)
	case "discount_info":
		return stringField(c.DiscountInfo)
	case "free_benefit":
		return stringField(c.FreeBenefit)
	case "social_proof":
		return stringField(c.SocialProof)
	case "urgency":
		return stringField(c.Urgency)
	}
	return "", false
}

func stringField(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return *v, true
}

func boolField(v *bool) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.FormatBool(*v), true
}

func intField(v *int) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.Itoa(*v), true
}
