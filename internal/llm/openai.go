package llm

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/healthlens/internal/util"
)

const defaultOllamaURL = "http://localhost:11434/v1"

const systemPrompt = "You explain health-news risk reports to general readers and cite only the sources you are given."

var citedURLPattern = regexp.MustCompile(`https?://[^\s)\]>"]+`)

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible endpoints
type OpenAIProvider struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return newCompatibleProvider("openai", config), nil
}

// NewOllamaProvider talks to a local Ollama server through its OpenAI-compatible API
func NewOllamaProvider(config Config) (*OpenAIProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = defaultOllamaURL
	}
	if config.APIKey == "" {
		config.APIKey = "ollama" // ignored by Ollama, required by the client
	}
	if config.Model == "" {
		config.Model = "llama3.1"
	}
	return newCompatibleProvider("ollama", config), nil
}

func newCompatibleProvider(name string, config Config) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: util.NewTransport(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   name,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable lists models as a lightweight reachability and credentials check
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Summarize generates an explanation using the Chat Completions API
func (p *OpenAIProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	chat := p.chatRequest(req)

	ctx, cancel := context.WithTimeout(ctx, cmp.Or(time.Duration(p.config.Timeout)*time.Second, 30*time.Second))
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	cited := extractURLs(text)
	if p.config.StrictEvidence {
		if err := checkAllowlist(cited, req.EvidenceURLs); err != nil {
			return nil, err
		}
	}

	return &SummarizeResponse{
		Summary:    text,
		CitedURLs:  cited,
		Model:      chat.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// chatRequest resolves the prompt, model and token budget: request values
// first, then provider config, then built-in defaults
func (p *OpenAIProvider) chatRequest(req SummarizeRequest) openai.ChatCompletionRequest {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.EvidenceURLs)
	}

	return openai.ChatCompletionRequest{
		Model:     cmp.Or(req.Model, p.config.Model, openai.GPT4oMini),
		MaxTokens: cmp.Or(req.MaxTokens, p.config.MaxTokens, 600),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	}
}

// checkAllowlist fails on the first cited URL that is not in allowed
func checkAllowlist(cited, allowed []string) error {
	for _, u := range cited {
		if !slices.Contains(allowed, u) {
			return fmt.Errorf("citation leak: model cited disallowed URL: %s", u)
		}
	}
	return nil
}

// extractURLs returns the distinct URLs in text, trailing punctuation removed
func extractURLs(text string) []string {
	var found []string
	for _, u := range citedURLPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if !slices.Contains(found, u) {
			found = append(found, u)
		}
	}
	return found
}
