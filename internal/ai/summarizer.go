package ai

import (
	"context"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/pattern"
)

// SummaryMaxTokens bounds the formula reply.
const SummaryMaxTokens = 2048

// Summarizer turns top patterns into a success formula. It implements
// pattern.Summarizer.
type Summarizer struct {
	client *Client
}

// NewSummarizer creates a summarizer on client.
func NewSummarizer(c *Client) *Summarizer { return &Summarizer{client: c} }

// Summarize prompts the model with one line per pattern and parses the
// JSON formula it returns. A missing confidence is left at zero for the
// caller to default.
func (s *Summarizer) Summarize(ctx context.Context, req pattern.SummaryRequest) (*domain.Formula, error) {
	prompt, err := summaryText(req)
	if err != nil {
		return nil, err
	}
	text, err := s.client.Complete(ctx, []ContentBlock{Text(prompt)}, SummaryMaxTokens)
	if err != nil {
		return nil, err
	}
	var f domain.Formula
	if err := decodeJSON(text, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func summaryText(req pattern.SummaryRequest) (string, error) {
	rows := make([]map[string]any, len(req.Patterns))
	for i, p := range req.Patterns {
		rows[i] = map[string]any{
			"field_name":       p.FieldName,
			"field_value":      p.FieldValue,
			"successful_ratio": p.SuccessfulRatio,
			"general_ratio":    p.GeneralRatio,
			"lift":             p.Lift,
		}
	}
	return render(summaryPrompt, map[string]any{"industry": req.Industry, "patterns": rows})
}
