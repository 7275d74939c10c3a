package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// AnthropicClient implements Client using the Anthropic Messages API,
// either directly or through AWS Bedrock.
type AnthropicClient struct {
	inner   anthropic.Client
	model   anthropic.Model
	tracker *TokenTracker
}

// AnthropicOptions configures an AnthropicClient.
type AnthropicOptions struct {
	// APIKey is the Anthropic API key. Required unless UseAWSBedrock is set.
	APIKey string
	// Model is the Claude model to use.
	Model string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the
	// direct API. Credentials come from the default AWS config chain.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// NewAnthropicClient creates a new Anthropic-backed completion client.
func NewAnthropicClient(opts AnthropicOptions) (*AnthropicClient, error) {
	var reqOpts []option.RequestOption

	if opts.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if opts.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(opts.AWSRegion))
		}
		if opts.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.AWSProfile))
		}

		reqOpts = append(reqOpts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic client: API key is required")
		}
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}

	model := anthropic.Model(opts.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	return &AnthropicClient{
		inner:   anthropic.NewClient(reqOpts...),
		model:   model,
		tracker: NewTokenTracker(),
	}, nil
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages API: %w", err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("messages API: no text content in response")
	}

	return text, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string {
	return string(c.model)
}

// Tracker returns the token tracker for this client.
func (c *AnthropicClient) Tracker() *TokenTracker {
	return c.tracker
}
