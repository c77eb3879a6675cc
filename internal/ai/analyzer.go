package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ignite/ad-insights/internal/domain"
)

// Analyzer describes ad creatives with the model. It implements
// analysis.Analyzer.
type Analyzer struct {
	client *Client
}

// NewAnalyzer creates an analyzer on client.
func NewAnalyzer(c *Client) *Analyzer { return &Analyzer{client: c} }

type imageReply struct {
	Composition struct {
		HasPerson    *bool   `json:"has_person"`
		PersonType   *string `json:"person_type"`
		TextRatio    *int    `json:"text_ratio"`
		HasChart     *bool   `json:"has_chart"`
		LogoPosition *string `json:"logo_position"`
	} `json:"composition"`
	Colors struct {
		Primary    *string `json:"primary"`
		Secondary  *string `json:"secondary"`
		Tertiary   *string `json:"tertiary"`
		Tone       *string `json:"tone"`
		Saturation *string `json:"saturation"`
	} `json:"colors"`
	Layout struct {
		Type             *string  `json:"type"`
		Atmosphere       *string  `json:"atmosphere"`
		EmphasisElements []string `json:"emphasis_elements"`
	} `json:"layout"`
	MentionedRegions []string `json:"mentioned_regions"`
}

// AnalyzeImage sends the image inline and maps the reply onto an
// ImageAnalysis. The reply is kept verbatim in Raw.
func (a *Analyzer) AnalyzeImage(ctx context.Context, image []byte, mediaType string) (*domain.ImageAnalysis, error) {
	if mediaType == "" {
		mediaType = "image/png"
	}
	text, err := a.client.Complete(ctx, []ContentBlock{
		{Type: "image", Source: &ImageSource{
			Type:      "base64",
			MediaType: mediaType,
			Data:      base64.StdEncoding.EncodeToString(image),
		}},
		Text(imagePrompt),
	}, 0)
	if err != nil {
		return nil, err
	}
	return parseImageReply(text)
}

func parseImageReply(text string) (*domain.ImageAnalysis, error) {
	var raw json.RawMessage
	if err := decodeJSON(text, &raw); err != nil {
		return nil, err
	}
	var r imageReply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode image analysis: %w", err)
	}
	return &domain.ImageAnalysis{
		HasPerson:        r.Composition.HasPerson,
		PersonType:       r.Composition.PersonType,
		TextRatio:        r.Composition.TextRatio,
		HasChart:         r.Composition.HasChart,
		LogoPosition:     r.Composition.LogoPosition,
		PrimaryColor:     r.Colors.Primary,
		SecondaryColor:   r.Colors.Secondary,
		TertiaryColor:    r.Colors.Tertiary,
		ColorTone:        r.Colors.Tone,
		Saturation:       r.Colors.Saturation,
		LayoutType:       r.Layout.Type,
		Atmosphere:       r.Layout.Atmosphere,
		EmphasisElements: r.Layout.EmphasisElements,
		MentionedRegions: r.MentionedRegions,
		Raw:              raw,
	}, nil
}

type copyReply struct {
	Structure struct {
		Headline       *string `json:"headline"`
		HeadlineLength *int    `json:"headline_length"`
		Body           *string `json:"body"`
		CTA            *string `json:"cta"`
		CoreMessage    *string `json:"core_message"`
	} `json:"structure"`
	Numbers []domain.NumberMention `json:"numbers"`
	Offer   struct {
		DiscountInfo    *string `json:"discount_info"`
		FreeBenefit     *string `json:"free_benefit"`
		SocialProof     *string `json:"social_proof"`
		Urgency         *string `json:"urgency"`
		Differentiation *string `json:"differentiation"`
	} `json:"offer"`
	Tone struct {
		Formality *string `json:"formality"`
		Emotion   *string `json:"emotion"`
		Style     *string `json:"style"`
	} `json:"tone"`
	TargetAudience *string  `json:"target_audience"`
	Keywords       []string `json:"keywords"`
	Regions        []string `json:"regions"`
}

// AnalyzeCopy analyzes the body and link title of an ad.
func (a *Analyzer) AnalyzeCopy(ctx context.Context, body, title string) (*domain.CopyAnalysis, error) {
	prompt, err := render(copyPrompt, map[string]any{"body": body, "title": title})
	if err != nil {
		return nil, err
	}
	text, err := a.client.Complete(ctx, []ContentBlock{Text(prompt)}, 0)
	if err != nil {
		return nil, err
	}
	return parseCopyReply(text)
}

func parseCopyReply(text string) (*domain.CopyAnalysis, error) {
	var raw json.RawMessage
	if err := decodeJSON(text, &raw); err != nil {
		return nil, err
	}
	var r copyReply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode copy analysis: %w", err)
	}
	return &domain.CopyAnalysis{
		Headline:        r.Structure.Headline,
		HeadlineLength:  r.Structure.HeadlineLength,
		Body:            r.Structure.Body,
		CTA:             r.Structure.CTA,
		CoreMessage:     r.Structure.CoreMessage,
		Numbers:         r.Numbers,
		Regions:         r.Regions,
		DiscountInfo:    r.Offer.DiscountInfo,
		FreeBenefit:     r.Offer.FreeBenefit,
		SocialProof:     r.Offer.SocialProof,
		Urgency:         r.Offer.Urgency,
		Differentiation: r.Offer.Differentiation,
		Formality:       r.Tone.Formality,
		Emotion:         r.Tone.Emotion,
		Style:           r.Tone.Style,
		TargetAudience:  r.TargetAudience,
		Keywords:        r.Keywords,
		Raw:             raw,
	}, nil
}
