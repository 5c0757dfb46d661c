package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
)

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response format, got %q", req.ResponseFormat.Type)
		}

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "upstream failure", "type": "server_error"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	}))
}

func TestExtractor_Extract(t *testing.T) {
	server := chatServer(t,
		`{"keywords":["romantic","restaurant"],"city":"tokyo","category":"restaurant","filters":{"priceLevel":3}}`,
		http.StatusOK)
	defer server.Close()

	ex := NewExtractor(&ExtractorConfig{APIKey: "k", BaseURL: server.URL, Model: "gpt-test"})

	in, err := ex.Extract(context.Background(), "romantic restaurant in tokyo")
	require.NoError(t, err)
	assert.Equal(t, []string{"romantic", "restaurant"}, in.Keywords())
	assert.Equal(t, "tokyo", in.City())
	assert.Equal(t, "restaurant", in.Category())
	assert.Equal(t, 3, in.Filters().PriceLevel)
	assert.Equal(t, intent.SourceAI, in.Source())
}

func TestExtractor_APIError(t *testing.T) {
	server := chatServer(t, "", http.StatusInternalServerError)
	defer server.Close()

	ex := NewExtractor(&ExtractorConfig{APIKey: "k", BaseURL: server.URL, Model: "gpt-test"})

	_, err := ex.Extract(context.Background(), "jazz bar")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}

func TestExtractor_MalformedContent(t *testing.T) {
	server := chatServer(t, "sorry, I cannot help with that", http.StatusOK)
	defer server.Close()

	ex := NewExtractor(&ExtractorConfig{APIKey: "k", BaseURL: server.URL, Model: "gpt-test"})

	_, err := ex.Extract(context.Background(), "jazz bar")
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		city     string
		category string
		filters  intent.Filters
	}{
		{
			name:     "plain object",
			text:     `{"keywords":["dining"],"city":"new york","filters":{"michelinStar":1}}`,
			keywords: []string{"dining"},
			city:     "new york",
			filters:  intent.Filters{MichelinStar: 1},
		},
		{
			name:     "markdown fence",
			text:     "```json\n{\"keywords\":[\"best\",\"cafes\"],\"city\":\"paris\",\"category\":\"cafe\",\"filters\":{\"openNow\":true}}\n```",
			keywords: []string{"best", "cafes"},
			city:     "paris",
			category: "cafe",
			filters:  intent.Filters{OpenNow: true},
		},
		{
			name:     "surrounding prose",
			text:     `Here you go: {"keywords":["sushi"],"city":null,"category":"null"} hope it helps`,
			keywords: []string{"sushi"},
		},
		{
			name:     "out of range filters dropped",
			text:     `{"keywords":[],"filters":{"priceLevel":7,"rating":3.5,"michelinStar":"2"}}`,
			keywords: []string{},
			filters:  intent.Filters{MichelinStar: 2},
		},
		{
			name:     "string and null filter values",
			text:     `{"keywords":["bar"],"filters":{"priceLevel":"2","rating":null,"openNow":null}}`,
			keywords: []string{"bar"},
			filters:  intent.Filters{PriceLevel: 2},
		},
		{
			name:     "fractional price dropped",
			text:     `{"keywords":["bar"],"filters":{"priceLevel":2.5,"rating":4.5}}`,
			keywords: []string{"bar"},
			filters:  intent.Filters{Rating: 4.5},
		},
		{
			name:     "non-finite filter values dropped",
			text:     `{"keywords":["sushi"],"filters":{"rating":"NaN","priceLevel":"Infinity","michelinStar":"-Inf"}}`,
			keywords: []string{"sushi"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in, err := ParseIntent(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.keywords, in.Keywords())
			assert.Equal(t, tc.city, in.City())
			assert.Equal(t, tc.category, in.Category())
			assert.Equal(t, tc.filters, in.Filters())
		})
	}
}

func TestParseIntent_NaNRatingStillEncodes(t *testing.T) {
	in, err := ParseIntent(`{"keywords":["sushi"],"filters":{"rating":"NaN"}}`)
	require.NoError(t, err)

	body, err := json.Marshal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "rating")
}

func TestParseIntent_Errors(t *testing.T) {
	for _, text := range []string{"", "no json here", "{not json}", `{"keywords": "jazz"}`} {
		_, err := ParseIntent(text)
		assert.Truef(t, errors.Is(err, domain.ErrExtractionFailed), "text %q: %v", text, err)
	}
}

func TestExtractionPrompt_DescribesContract(t *testing.T) {
	for _, field := range []string{"keywords", "city", "category", "openNow", "priceLevel", "rating", "michelinStar"} {
		assert.True(t, strings.Contains(extractionPrompt, field), field)
	}
}
