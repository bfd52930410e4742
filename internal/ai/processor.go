package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmartins/obsidian-sync/internal/config"
	"github.com/lmartins/obsidian-sync/internal/domain"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// maxRetryDelay caps the exponential backoff between attempts
	maxRetryDelay = 10 * time.Second

	// truncateLimit bounds the input on the single truncate-and-resubmit
	// attempt after a context-length error
	truncateLimit = 10000

	truncationMarker = "...\n[TEXT TRUNCATED]"
)

// Processor turns free-form text into a structured note draft by calling
// an LLM with a category-specific prompt. ProcessWithFallback never fails:
// when the remote call or parsing breaks down it degrades to a
// deterministic local result.
type Processor struct {
	llm           llms.Model
	model         string
	maxTokens     int
	temperature   float64
	retryAttempts int
	retryDelay    time.Duration
	rateLimitWait time.Duration
	callTimeout   time.Duration
	logger        *slog.Logger
}

// NewProcessor builds a processor for the configured provider.
// API keys come from the environment (ANTHROPIC_API_KEY, OPENAI_API_KEY).
func NewProcessor(cfg *config.AIConfig, logger *slog.Logger) (*Processor, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case "anthropic":
		model, err = anthropic.New(
			anthropic.WithToken(os.Getenv("ANTHROPIC_API_KEY")),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic model: %w", err)
		}

	case "openai":
		model, err = openai.New(
			openai.WithToken(os.Getenv("OPENAI_API_KEY")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai model: %w", err)
		}

	case "ollama":
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	return NewProcessorWithModel(model, cfg, logger), nil
}

// NewProcessorWithModel builds a processor around an existing model.
// Tests use this to substitute a fake.
func NewProcessorWithModel(model llms.Model, cfg *config.AIConfig, logger *slog.Logger) *Processor {
	return &Processor{
		llm:           model,
		model:         cfg.Model,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		rateLimitWait: cfg.RateLimitWait,
		callTimeout:   cfg.CallTimeout,
		logger:        logger,
	}
}

// Process calls the model with the category template and parses the result.
// It returns an error on remote or parse failure; callers that need the
// never-fails guarantee use ProcessWithFallback.
func (p *Processor) Process(ctx context.Context, text string, category domain.Category, prefs *domain.AIPreferences) (*domain.NoteDraft, error) {
	start := time.Now()

	tpl := templateFor(category)
	userPrompt := buildUserPrompt(tpl, text, prefs)

	response, err := p.callModel(ctx, tpl.System, userPrompt)
	if err != nil {
		return nil, err
	}

	draft, err := parseResponse(response)
	if err != nil {
		return nil, err
	}

	if draft.Category == "" {
		draft.Category = category
	}
	draft.Processing = p.processingMetadata(text, category, p.model, time.Since(start))

	p.logger.Info("Text processed",
		slog.String("category", category.String()),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("text_length", len(text)),
	)

	return draft, nil
}

// ProcessWithFallback wraps Process with the recovery strategy: one
// truncate-and-resubmit attempt on a context-length error, and the
// deterministic fallback for everything else. It always returns a
// structurally valid draft.
func (p *Processor) ProcessWithFallback(ctx context.Context, text string, category domain.Category, prefs *domain.AIPreferences) (*domain.NoteDraft, error) {
	draft, err := p.Process(ctx, text, category, prefs)
	if err == nil {
		return draft, nil
	}

	if errors.Is(err, domain.ErrContextTooLarge) && len(text) > truncateLimit {
		p.logger.Warn("Input exceeds context window, retrying truncated",
			slog.Int("text_length", len(text)),
			slog.Int("truncate_limit", truncateLimit),
		)

		truncated := text[:truncateLimit] + truncationMarker
		draft, err = p.Process(ctx, truncated, category, prefs)
		if err == nil {
			return draft, nil
		}
	}

	p.logger.Warn("Falling back to basic processing",
		slog.String("category", category.String()),
		slog.Any("error", err),
	)

	return p.Fallback(text, category), nil
}

// callModel performs the chat completion with bounded retries.
// Rate-limit errors wait out an extended fixed delay before the retry
// counts; context-length errors are surfaced immediately and never retried.
func (p *Processor) callModel(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	var lastErr error
	delay := p.retryDelay

	for attempt := 1; attempt <= p.retryAttempts; attempt++ {
		response, err := p.generate(ctx, messages)
		if err == nil {
			return response, nil
		}

		if isContextLengthError(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrContextTooLarge, err)
		}

		lastErr = err

		if attempt == p.retryAttempts {
			break
		}

		wait := delay
		if isRateLimitError(err) {
			wait = p.rateLimitWait
		}

		p.logger.Warn("Model call failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.retryAttempts),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	return "", domain.NewTransientError(fmt.Errorf("model call failed after %d attempts: %w", p.retryAttempts, lastErr))
}

// generate performs one attempt with the per-call timeout applied
func (p *Processor) generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	callCtx := ctx
	if p.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.callTimeout)
		defer cancel()
	}

	var opts []llms.CallOption
	if p.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.maxTokens))
	}
	opts = append(opts, llms.WithTemperature(p.temperature))

	response, err := p.llm.GenerateContent(callCtx, messages, opts...)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return response.Choices[0].Content, nil
}

// Fallback produces the deterministic degraded result: title from the
// first input line, content wrapping the original text, per-category tags,
// and metadata flagging the note for review.
func (p *Processor) Fallback(text string, category domain.Category) *domain.NoteDraft {
	title := "Untitled note"
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			title = trimmed
			break
		}
	}
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:50]) + "..."
	}

	tags, ok := fallbackTags[category]
	if !ok {
		tags = []string{"note"}
	}

	return &domain.NoteDraft{
		Title:    title,
		Content:  fmt.Sprintf("# %s\n\n%s", title, text),
		Tags:     tags,
		Category: category,
		Metadata: map[string]any{
			"priority":     "normal",
			"type":         "note",
			"processed_by": "fallback",
			"needs_review": true,
		},
		Processing: p.processingMetadata(text, category, "fallback", 0),
	}
}

func (p *Processor) processingMetadata(text string, category domain.Category, model string, elapsed time.Duration) domain.ProcessingMetadata {
	return domain.ProcessingMetadata{
		ProcessingTimeSeconds: elapsed.Seconds(),
		AIModelUsed:           model,
		CategoryUsed:          category.String(),
		TextLength:            len(text),
		WordCount:             len(strings.Fields(text)),
	}
}

// isRateLimitError recognizes provider throttling by message shape;
// langchaingo does not expose typed provider errors.
func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429")
}

// isContextLengthError recognizes oversized-input rejections
func isContextLengthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context length") ||
		strings.Contains(msg, "context_length") ||
		strings.Contains(msg, "maximum context") ||
		strings.Contains(msg, "prompt is too long")
}
