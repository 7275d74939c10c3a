package llm

import "fmt"

// ProviderConfig selects and configures a completion provider.
type ProviderConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint, the default)
	// or "anthropic".
	Provider string
	// APIKey authenticates against the provider.
	APIKey string
	// Model is the model name to request.
	Model string
	// BaseURL overrides the endpoint for OpenAI-compatible providers.
	BaseURL string
	// UseAWSBedrock routes Anthropic requests through Bedrock.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region.
	AWSRegion string
	// AWSProfile is the optional AWS profile name.
	AWSProfile string
}

// NewClient builds a completion client from the provider configuration.
func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "", "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIClient(cfg.APIKey, model, cfg.BaseURL)
	case "anthropic":
		return NewAnthropicClient(AnthropicOptions{
			APIKey:        cfg.APIKey,
			Model:         cfg.Model,
			UseAWSBedrock: cfg.UseAWSBedrock,
			AWSRegion:     cfg.AWSRegion,
			AWSProfile:    cfg.AWSProfile,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic)", cfg.Provider)
	}
}
