package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Options{Provider: "claude"}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(Options{Provider: "llama", APIKey: "k"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewDefaultModels(t *testing.T) {
	c, err := New(Options{Provider: "claude", APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := c.provider.(*claudeProvider); !ok || p.model == "" {
		t.Errorf("expected claude provider with default model, got %#v", c.provider)
	}

	c, err = New(Options{Provider: "openai", APIKey: "k", Model: "gpt-4o"})
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := c.provider.(*openaiProvider); !ok || p.model != "gpt-4o" {
		t.Errorf("expected openai provider with gpt-4o, got %#v", c.provider)
	}
}

func TestParseDecision(t *testing.T) {
	d, err := parseDecision(`{"category": "energy", "isRelevantToChannel": true, "matchedTopicId": "energy_markets", "matchedTopicName": "Energy Markets", "confidence": 0.9, "reason": "OPEC output decision"}`)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Relevant || d.TopicID != "energy_markets" || d.Confidence != 0.9 {
		t.Errorf("got %+v", d)
	}
}

func TestParseDecisionMarkdownFence(t *testing.T) {
	for _, text := range []string{
		"```json\n{\"isRelevantToChannel\": true, \"matchedTopicId\": \"t1\", \"confidence\": 0.7}\n```",
		"```\n{\"isRelevantToChannel\": true, \"matchedTopicId\": \"t1\", \"confidence\": 0.7}\n```",
	} {
		d, err := parseDecision(text)
		if err != nil {
			t.Fatalf("parseDecision(%q): %v", text, err)
		}
		if !d.Relevant || d.TopicID != "t1" {
			t.Errorf("got %+v", d)
		}
	}
}

func TestParseDecisionClampsConfidence(t *testing.T) {
	d, err := parseDecision(`{"confidence": 1.8}`)
	if err != nil {
		t.Fatal(err)
	}
	if d.Confidence != 1 {
		t.Errorf("Confidence = %v, want clamped to 1", d.Confidence)
	}

	d, err = parseDecision(`{"confidence": -0.2}`)
	if err != nil {
		t.Fatal(err)
	}
	if d.Confidence != 0 {
		t.Errorf("Confidence = %v, want clamped to 0", d.Confidence)
	}
}

func TestParseDecisionInvalid(t *testing.T) {
	if _, err := parseDecision("the signal looks relevant to me"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestFormatTopics(t *testing.T) {
	got := formatTopics([]Topic{{ID: "a", Name: "Topic A"}, {ID: "b", Name: "Topic B"}})
	want := "- a: Topic A\n- b: Topic B\n"
	if got != want {
		t.Errorf("formatTopics = %q, want %q", got, want)
	}
}

func TestDecisionCachePutGet(t *testing.T) {
	c := newDecisionCache(time.Hour, 10)

	if _, ok := c.get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	c.put("k", Decision{TopicID: "t1"})
	d, ok := c.get("k")
	if !ok || d.TopicID != "t1" {
		t.Errorf("got %+v ok=%v, want cached decision", d, ok)
	}
}

func TestDecisionCacheExpiry(t *testing.T) {
	c := newDecisionCache(time.Hour, 10)
	c.put("k", Decision{TopicID: "t1"})

	// Backdate the entry past its TTL.
	c.mu.Lock()
	e := c.entries["k"]
	e.added = time.Now().Add(-2 * time.Hour)
	c.entries["k"] = e
	c.mu.Unlock()

	if _, ok := c.get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDecisionCacheEvictsOldest(t *testing.T) {
	c := newDecisionCache(time.Hour, 3)
	c.put("a", Decision{})
	c.put("b", Decision{})
	c.put("c", Decision{})
	c.put("d", Decision{}) // evicts a

	if _, ok := c.get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.get("d"); !ok {
		t.Error("newest entry should be present")
	}
	if len(c.entries) != 3 {
		t.Errorf("cache size = %d, want 3", len(c.entries))
	}
}

// stubProvider records the prompt and returns a canned response.
type stubProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *stubProvider) call(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func newTestClient(p provider) *Client {
	return &Client{
		provider: p,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		cache:    newDecisionCache(time.Hour, 10),
	}
}

func TestClassifyCachesByTitle(t *testing.T) {
	stub := &stubProvider{response: `{"isRelevantToChannel": true, "matchedTopicId": "t1", "confidence": 0.8}`}
	c := newTestClient(stub)

	topics := []Topic{{ID: "t1", Name: "Topic"}}
	for i := 0; i < 3; i++ {
		d, err := c.Classify(context.Background(), "Same Title", "summary", topics)
		if err != nil {
			t.Fatal(err)
		}
		if d.TopicID != "t1" {
			t.Errorf("got %+v", d)
		}
	}
	if len(stub.prompts) != 1 {
		t.Errorf("provider called %d times, want 1 (cached)", len(stub.prompts))
	}

	// Title match is case-insensitive.
	if _, err := c.Classify(context.Background(), "  same title ", "summary", topics); err != nil {
		t.Fatal(err)
	}
	if len(stub.prompts) != 1 {
		t.Errorf("provider called %d times after case-variant title, want 1", len(stub.prompts))
	}
}

func TestClassifyPromptContents(t *testing.T) {
	stub := &stubProvider{response: `{"isRelevantToChannel": false, "confidence": 0.2}`}
	c := newTestClient(stub)

	_, err := c.Classify(context.Background(), "Oil prices surge", "OPEC cut output", []Topic{{ID: "energy", Name: "Energy"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(stub.prompts) != 1 {
		t.Fatalf("provider called %d times, want 1", len(stub.prompts))
	}
	prompt := stub.prompts[0]
	for _, want := range []string{"Oil prices surge", "OPEC cut output", "- energy: Energy"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestClassifyTruncatesTopicList(t *testing.T) {
	stub := &stubProvider{response: `{"isRelevantToChannel": false}`}
	c := newTestClient(stub)

	topics := make([]Topic, 30)
	for i := range topics {
		topics[i] = Topic{ID: "t", Name: "T"}
	}
	if _, err := c.Classify(context.Background(), "x", "", topics); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(stub.prompts[0], "- t: T\n"); n != maxTopics {
		t.Errorf("prompt lists %d topics, want %d", n, maxTopics)
	}
}

func TestClassifyProviderError(t *testing.T) {
	stub := &stubProvider{err: errors.New("rate limited")}
	c := newTestClient(stub)

	if _, err := c.Classify(context.Background(), "x", "", nil); err == nil {
		t.Error("expected provider error to surface")
	}
	// Errors are not cached.
	stub.err = nil
	stub.response = `{"isRelevantToChannel": true}`
	d, err := c.Classify(context.Background(), "x", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Relevant {
		t.Errorf("got %+v after retry", d)
	}
}
