package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
	"github.com/kailas-cloud/urbansearch/internal/metrics"
)

const extractionPrompt = `Analyze this travel/dining search query and extract structured information.
Return ONLY valid JSON with this exact structure:
{
  "keywords": ["array", "of", "main", "keywords"],
  "city": "city name or null",
  "category": "category like restaurant/cafe/hotel or null",
  "filters": {
    "openNow": true/false/null,
    "priceLevel": 1-4 or null,
    "rating": 4-5 or null,
    "michelinStar": 1-3 or null
  }
}

Examples:
- "romantic restaurant in tokyo" -> {"keywords": ["romantic", "restaurant"], "city": "tokyo", "category": "restaurant"}
- "best cafes paris open now" -> {"keywords": ["best", "cafes"], "city": "paris", "category": "cafe", "filters": {"openNow": true}}
- "michelin star dining new york" -> {"keywords": ["dining"], "city": "new york", "filters": {"michelinStar": 1}}`

// Extractor turns a raw query into an Intent with a JSON-mode chat completion.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// ExtractorConfig holds the extraction provider settings.
type ExtractorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewExtractor creates an OpenAI-compatible intent extractor.
func NewExtractor(cfg *ExtractorConfig) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}
}

// Extract asks the model for the structured reading of query. Any transport
// or contract failure is returned wrapped in domain.ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, query string) (intent.Intent, error) {
	start := time.Now()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Query: %q", query)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		metrics.ExtractionRequestsTotal.WithLabelValues(e.model, "error").Inc()
		return intent.Intent{}, parseAPIError("extraction", err, domain.ErrExtractionFailed)
	}

	if len(resp.Choices) == 0 {
		metrics.ExtractionRequestsTotal.WithLabelValues(e.model, "empty_response").Inc()
		return intent.Intent{}, fmt.Errorf("empty completion: %w", domain.ErrExtractionFailed)
	}

	in, err := ParseIntent(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.ExtractionRequestsTotal.WithLabelValues(e.model, "malformed").Inc()
		return intent.Intent{}, err
	}

	metrics.ExtractionRequestsTotal.WithLabelValues(e.model, "success").Inc()
	e.logger.Debug("Intent extracted",
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("keywords", len(in.Keywords())))
	return in, nil
}

// HealthCheck verifies API availability via ListModels.
func (e *Extractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

type wireIntent struct {
	Keywords []string     `json:"keywords"`
	City     *string      `json:"city"`
	Category *string      `json:"category"`
	Filters  *wireFilters `json:"filters"`
}

type wireFilters struct {
	OpenNow      *bool      `json:"openNow"`
	PriceLevel   flexNumber `json:"priceLevel"`
	Rating       flexNumber `json:"rating"`
	MichelinStar flexNumber `json:"michelinStar"`
}

// flexNumber accepts a JSON number, a numeric string, or null. Non-finite
// values decode as 0.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		// out-of-contract values are dropped rather than failing the whole intent
		*n = 0
		return nil //nolint:nilerr // lenient decoding
	}
	*n = flexNumber(f)
	return nil
}

// ParseIntent decodes a model response: markdown fences are stripped and the
// outermost {...} object is decoded.
func ParseIntent(text string) (intent.Intent, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return intent.Intent{}, fmt.Errorf("no JSON object in response: %w", domain.ErrExtractionFailed)
	}

	var w wireIntent
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return intent.Intent{}, fmt.Errorf("decode intent: %v: %w", err, domain.ErrExtractionFailed)
	}

	var f intent.Filters
	if w.Filters != nil {
		f = intent.Filters{
			OpenNow:      w.Filters.OpenNow != nil && *w.Filters.OpenNow,
			PriceLevel:   wholeNumber(w.Filters.PriceLevel),
			Rating:       float64(w.Filters.Rating),
			MichelinStar: wholeNumber(w.Filters.MichelinStar),
		}
	}

	return intent.New(w.Keywords, deref(w.City), deref(w.Category), f, intent.SourceAI), nil
}

// wholeNumber returns 0 for fractional values so they are dropped as out of range.
func wholeNumber(n flexNumber) int {
	f := float64(n)
	if f != float64(int(f)) {
		return 0
	}
	return int(f)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
