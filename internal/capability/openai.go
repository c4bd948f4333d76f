package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/compliance-sentinel/sentinel/pkg/formatting"
)

const rewriteSystemPrompt = `You are a compliance remediation assistant. Given a
policy violation and its context, propose a minimal replacement for the
offending text. Respond with JSON only:
{"replacement": string, "explanation": [string], "citations": [string]}`

const classifySystemPrompt = `You classify business documents. Respond with JSON
only: {"document_type": one of "contract","policy","invoice","hr_form","unknown",
"confidence": number between 0 and 1}`

// OpenAIClient backs the Rewriter and Classifier capabilities with an
// OpenAI-compatible chat completions endpoint. Any text reaching this client
// must already be redacted.
type OpenAIClient struct {
	client         openai.Client
	model          string
	maxReplacement int
	logger         *slog.Logger
}

// NewOpenAIClient creates a client for the given endpoint. baseURL may point
// at any OpenAI-compatible server; an empty baseURL uses the default API.
// maxReplacement bounds the byte length of accepted rewrite replacements.
func NewOpenAIClient(apiKey, baseURL, model string, maxReplacement int, logger *slog.Logger) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client:         openai.NewClient(opts...),
		model:          model,
		maxReplacement: maxReplacement,
		logger:         logger.With("capability", "openai"),
	}
}

// Rewrite sends the redacted violation context to the model and parses a
// RewriteResult from the response.
func (c *OpenAIClient) Rewrite(ctx context.Context, req RewriteRequest) (*RewriteResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal rewrite request: %w", err)
	}

	content, err := c.complete(ctx, rewriteSystemPrompt, string(payload))
	if err != nil {
		return nil, fmt.Errorf("rewrite completion: %w", err)
	}

	result, err := formatting.Parse[RewriteResult](content)
	if err != nil {
		return nil, fmt.Errorf("parse rewrite response: %w", err)
	}

	if err := result.Validate(c.maxReplacement); err != nil {
		return nil, err
	}

	return &result, nil
}

// Classify asks the model for the document type of the given leading text.
func (c *OpenAIClient) Classify(ctx context.Context, text string) (Classification, error) {
	content, err := c.complete(ctx, classifySystemPrompt, text)
	if err != nil {
		return Classification{}, fmt.Errorf("classify completion: %w", err)
	}

	result, err := formatting.Parse[Classification](content)
	if err != nil {
		return Classification{}, fmt.Errorf("parse classification: %w", err)
	}

	if result.DocumentType == "" {
		result.DocumentType = DocumentTypeUnknown
	}

	return result, nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoCompletion
	}

	return resp.Choices[0].Message.Content, nil
}
