// Package ai provides the LLM arbiter that makes the final relevance
// decision for a candidate signal against a channel's topics.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Topic is the minimal topic view sent to the arbiter.
type Topic struct {
	ID   string
	Name string
}

// Decision is the arbiter's verdict for one signal.
type Decision struct {
	Category   string  `json:"category"`
	Relevant   bool    `json:"isRelevantToChannel"`
	TopicID    string  `json:"matchedTopicId"`
	TopicName  string  `json:"matchedTopicName"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Arbiter classifies a signal against channel topics.
type Arbiter interface {
	Classify(ctx context.Context, title, summary string, topics []Topic) (Decision, error)
}

// Options configures a provider-backed arbiter.
type Options struct {
	Provider string // "claude" or "openai"
	APIKey   string
	Model    string
	// RPS limits outbound calls. Zero means 2 requests/second.
	RPS float64
}

const (
	callTimeout  = 10 * time.Second
	cacheTTL     = 24 * time.Hour
	cacheMaxSize = 1000
	maxTopics    = 15
)

// Client wraps a provider with a decision cache and a rate limiter.
type Client struct {
	provider provider
	limiter  *rate.Limiter
	cache    *decisionCache
}

type provider interface {
	call(ctx context.Context, prompt string) (string, error)
}

// New creates an Arbiter from the given options.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("arbiter not configured: missing API key")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	var p provider
	switch opts.Provider {
	case "claude":
		model := opts.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		p = &claudeProvider{apiKey: opts.APIKey, model: model, client: httpClient}
	case "openai":
		model := opts.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		p = &openaiProvider{apiKey: opts.APIKey, model: model, client: httpClient}
	default:
		return nil, fmt.Errorf("unknown arbiter provider: %q (valid: claude, openai)", opts.Provider)
	}

	rps := opts.RPS
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		provider: p,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		cache:    newDecisionCache(cacheTTL, cacheMaxSize),
	}, nil
}

const classifyPrompt = `You are a content relevance classifier for a news analysis channel.

The channel covers these topics:
%s

Signal title: %s
Signal summary: %s

Decide whether this signal is relevant to the channel and, if so, which topic it matches best. Entertainment, sports and celebrity content is never relevant.

Respond with ONLY a JSON object, no other text:
{"category": "<story category>", "isRelevantToChannel": true/false, "matchedTopicId": "<topic id or empty>", "matchedTopicName": "<topic name or empty>", "confidence": <0.0-1.0>, "reason": "<one short sentence>"}`

// Classify asks the provider for a relevance decision. Decisions are
// cached by title for 24h so repeated batch runs do not re-bill the
// same signals.
func (c *Client) Classify(ctx context.Context, title, summary string, topics []Topic) (Decision, error) {
	key := strings.ToLower(strings.TrimSpace(title))
	if d, ok := c.cache.get(key); ok {
		return d, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Decision{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	prompt := fmt.Sprintf(classifyPrompt, formatTopics(topics), title, summary)

	text, err := c.provider.call(ctx, prompt)
	if err != nil {
		return Decision{}, err
	}

	d, err := parseDecision(text)
	if err != nil {
		return Decision{}, err
	}

	c.cache.put(key, d)
	return d, nil
}

func formatTopics(topics []Topic) string {
	var sb strings.Builder
	for _, t := range topics {
		sb.WriteString("- ")
		sb.WriteString(t.ID)
		sb.WriteString(": ")
		sb.WriteString(t.Name)
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseDecision extracts the JSON decision, tolerating markdown code
// fences some models wrap around JSON output.
func parseDecision(text string) (Decision, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var d Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return Decision{}, fmt.Errorf("parsing arbiter response: %w", err)
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
	return d, nil
}

// --- decision cache ---

type cacheEntry struct {
	decision Decision
	added    time.Time
}

type decisionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]cacheEntry
	order   []string
}

func newDecisionCache(ttl time.Duration, max int) *decisionCache {
	return &decisionCache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]cacheEntry),
	}
}

func (c *decisionCache) get(key string) (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Decision{}, false
	}
	if time.Since(e.added) > c.ttl {
		delete(c.entries, key)
		return Decision{}, false
	}
	return e.decision, true
}

func (c *decisionCache) put(key string, d Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		// Evict oldest entries once full.
		for len(c.entries) >= c.max && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{decision: d, added: time.Now()}
}

// --- Claude provider ---

type claudeProvider struct {
	apiKey string
	model  string
	client *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: 256,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("claude API %d: %s", resp.StatusCode, string(b))
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Content) == 0 {
		return "", fmt.Errorf("empty claude response")
	}
	return cr.Content[0].Text, nil
}

// --- OpenAI provider ---

type openaiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", err
	}
	if len(or.Choices) == 0 {
		return "", fmt.Errorf("empty openai response")
	}
	return or.Choices[0].Message.Content, nil
}
