package services

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"text/template"

	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

//go:embed prompts/extract_jobs.tmpl
var extractJobsPrompt string

var extractJobsTmpl = template.Must(template.New("extract_jobs").Parse(extractJobsPrompt))

// ErrExtractorUnavailable means no language model could be configured.
var ErrExtractorUnavailable = errors.New("extraction model is not configured")

// Extractor turns captured job-card markup into the model's raw JSON reply.
type Extractor interface {
	Extract(ctx context.Context, markup string, site config.Site) (string, error)
}

type LLMService struct {
	// Client is held here so we don't recreate it for every site
	Client    llms.Model
	MaxTokens int
	cfg       config.LLMConfig
	logger    *slog.Logger
}

// NewLLMService builds the langchaingo client for the configured provider.
// Groq is reached through its OpenAI-compatible endpoint.
func NewLLMService(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key for provider %q", ErrExtractorUnavailable, cfg.Provider)
	}

	var (
		client llms.Model
		err    error
	)
	switch cfg.Provider {
	case config.ProviderGroq:
		client, err = openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
			openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		)
	case config.ProviderGoogleAI:
		client, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	logger.Info("extraction client ready", "provider", cfg.Provider, "model", cfg.Model)
	return NewLLMServiceWithClient(client, cfg, logger), nil
}

// NewLLMServiceWithClient wraps an existing model, used by tests and alternate providers.
func NewLLMServiceWithClient(client llms.Model, cfg config.LLMConfig, logger *slog.Logger) *LLMService {
	maxTokens := cfg.MaxTokens
	if maxTokens < 1 {
		maxTokens = 2048
	}
	return &LLMService{
		Client:    client,
		MaxTokens: maxTokens,
		cfg:       cfg,
		logger:    logger,
	}
}

// BuildPrompt renders the extraction prompt for one site's markup.
func BuildPrompt(markup string, site config.Site) (string, error) {
	var buf bytes.Buffer
	err := extractJobsTmpl.Execute(&buf, struct {
		Source string
		Guide  string
		Markup string
	}{
		Source: site.Source,
		Guide:  site.Guide,
		Markup: SanitizeMarkup(markup),
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// Extract sends one prompt and returns the reply text unvalidated.
// There is no retry; API errors go straight back to the caller.
func (s *LLMService) Extract(ctx context.Context, markup string, site config.Site) (string, error) {
	prompt, err := BuildPrompt(markup, site)
	if err != nil {
		return "", err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	s.logger.Debug("requesting extraction", "site", site.Label(), "prompt_chars", len(prompt))

	resp, err := s.Client.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithTemperature(0.1),
		llms.WithTopP(1),
		llms.WithMaxTokens(s.MaxTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
