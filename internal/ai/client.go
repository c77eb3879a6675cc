// Package ai wraps Claude on AWS Bedrock for the three model-backed
// operations of the service: image analysis, copy analysis and success
// formula summaries.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/ad-insights/internal/pkg/logger"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	DefaultModelID   = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	DefaultMaxTokens = 1024
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("ai: empty model response")

// Invoker is the subset of the Bedrock runtime client used here.
type Invoker interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Message is one turn in the Anthropic messages format.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is a text or base64 image block.
type ContentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource carries an inline image.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type request struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Client sends single-turn prompts to a Claude model on Bedrock.
type Client struct {
	invoker   Invoker
	modelID   string
	maxTokens int
	timeout   time.Duration
}

// NewClient creates a client. Empty modelID and non-positive maxTokens
// fall back to the defaults.
func NewClient(inv Invoker, modelID string, maxTokens int) *Client {
	if modelID == "" {
		modelID = DefaultModelID
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Client{invoker: inv, modelID: modelID, maxTokens: maxTokens}
}

// NewBedrockClient builds a client on the Bedrock runtime service.
func NewBedrockClient(cfg aws.Config, modelID string, maxTokens int) *Client {
	return NewClient(bedrockruntime.NewFromConfig(cfg), modelID, maxTokens)
}

// SetTimeout bounds each model call. Zero leaves calls bounded only by
// the caller's context.
func (c *Client) SetTimeout(d time.Duration) { c.timeout = d }

// Complete sends one user turn and returns the concatenated text reply.
// maxTokens overrides the client default when positive.
func (c *Client) Complete(ctx context.Context, content []ContentBlock, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	body, err := json.Marshal(request{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Messages:         []Message{{Role: "user", Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out, err := c.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke: %w", err)
	}

	var resp response
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parse bedrock response: %w", err)
	}
	var sb strings.Builder
	for _, blk := range resp.Content {
		if blk.Type == "text" {
			sb.WriteString(blk.Text)
		}
	}
	logger.Debug("[AI] model call", "model", c.modelID,
		"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// Text is a convenience text block.
func Text(s string) ContentBlock { return ContentBlock{Type: "text", Text: s} }

// decodeJSON parses a model reply that may be wrapped in a markdown fence.
func decodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}
