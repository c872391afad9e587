package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// Completer turns a prompt into model text
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiCompleter asks a Gemini model
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: "gemini-1.5-flash"}, nil
}

func (g *GeminiCompleter) Name() string { return "gemini" }

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("unexpected part type in Gemini response")
	}
	return string(text), nil
}

// Close releases the underlying client
func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

// OpenAICompleter asks an OpenAI chat model
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(apiKey string) *OpenAICompleter {
	return &OpenAICompleter{client: openai.NewClient(apiKey), model: openai.GPT4oMini}
}

func (o *OpenAICompleter) Name() string { return "openai" }

func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

const searchPrompt = `You are a nutrition database. List up to 5 common foods matching the query %q.

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a valid JSON object
- Do not include any explanatory text before or after the JSON
- carbs_per_100g is grams of carbohydrate per 100 grams of the food
- The JSON must have these exact fields:
  {
    "foods": [
      {"name": "Apple, raw", "carbs_per_100g": 13.8}
    ]
  }`

type aiFoods struct {
	Foods []struct {
		Name         string  `json:"name"`
		CarbsPer100g float64 `json:"carbs_per_100g"`
	} `json:"foods"`
}

// AILookup estimates carbohydrate values with language models. Completers are
// asked in order until one produces a parsable answer. Candidate ids are
// negative so they never collide with FoodData Central ids.
type AILookup struct {
	completers []Completer

	mu     sync.Mutex
	lastID int
	known  map[int]float64
}

func NewAILookup(completers ...Completer) *AILookup {
	return &AILookup{completers: completers, known: make(map[int]float64)}
}

func (l *AILookup) Search(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	if len(l.completers) == 0 {
		return nil, errors.New("no AI provider configured")
	}

	var lastErr error
	for _, c := range l.completers {
		foods, err := l.ask(ctx, c, query)
		if err == nil {
			return l.remember(foods), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("AI lookup failed, trying next provider", "provider", c.Name(), "error", err)
		lastErr = err
	}
	return nil, lastErr
}

func (l *AILookup) ask(ctx context.Context, c Completer, query string) (aiFoods, error) {
	var foods aiFoods
	text, err := c.Complete(ctx, fmt.Sprintf(searchPrompt, query))
	if err != nil {
		return foods, err
	}
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return foods, fmt.Errorf("%w: no valid JSON found in response", ErrParse)
	}
	if err := json.Unmarshal([]byte(jsonStr), &foods); err != nil {
		return foods, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return foods, nil
}

func (l *AILookup) remember(foods aiFoods) []domain.FoodCandidate {
	l.mu.Lock()
	defer l.mu.Unlock()

	candidates := make([]domain.FoodCandidate, 0, len(foods.Foods))
	for _, f := range foods.Foods {
		l.lastID--
		l.known[l.lastID] = f.CarbsPer100g
		candidates = append(candidates, domain.FoodCandidate{
			ID:                 l.lastID,
			Name:               f.Name,
			CarbsPer100g:       f.CarbsPer100g,
			StillLoadingDetail: f.CarbsPer100g <= 0,
		})
	}
	return candidates
}

// Detail returns the estimate given with an earlier search result
func (l *AILookup) Detail(ctx context.Context, id int) (float64, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	carbs, ok := l.known[id]
	return carbs, ok, nil
}

// extractJSON attempts to extract a valid JSON object from the given string.
// It handles cases where the JSON is wrapped in code blocks (```json ... ```) or other text.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
