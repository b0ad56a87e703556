// Package match scores candidate signals against a channel's topics.
// Keyword matching runs first and is free; the LLM arbiter validates
// anything the keywords are not sure about, and its decision is final.
package match

import (
	"context"
	"strings"

	"github.com/EslamH-coder/ContentDNA-sub003/internal/ai"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/entity"
	"go.uber.org/zap"
)

// Topic is one channel topic with its matching vocabulary.
type Topic struct {
	ID      string
	Name    string
	NameAr  string
	Keyword []string
	// Learned keywords picked up from feedback, matched the same way.
	Learned []string
}

func (t Topic) allKeywords() []string {
	out := make([]string, 0, len(t.Keyword)+len(t.Learned))
	out = append(out, t.Keyword...)
	out = append(out, t.Learned...)
	return out
}

// Keyword weight classes. Generic words appear in too many contexts to
// carry a match on their own; high-value words are specific enough to
// anchor one.
var genericKeywords = map[string]bool{}
var highValueKeywords = map[string]bool{}

func init() {
	generic := []string{
		"war", "economy", "economic", "economics", "market", "markets", "trade",
		"business", "finance", "financial", "money", "investment", "investments",
		"crisis", "conflict", "politics", "political", "government", "policy",
		"news", "report", "analysis", "update", "global", "world", "international",
		"president", "leader", "minister", "official", "country", "nation",
		"حرب", "اقتصاد", "اقتصادي", "سوق", "تجارة", "مال", "استثمار", "أزمة",
		"سياسة", "سياسي", "حكومة", "رئيس", "وزير", "دولة", "عالمي", "دولي",
	}
	highValue := []string{
		"china", "الصين", "iran", "إيران", "russia", "روسيا", "israel", "إسرائيل",
		"saudi", "السعودية", "qatar", "قطر", "yemen", "يمن", "syria", "سوريا",
		"ukraine", "أوكرانيا", "turkey", "تركيا", "egypt", "مصر", "europe", "أوروبا",
		"tariff", "tariffs", "تعريفة", "رسوم جمركية", "sanctions", "عقوبات",
		"oil", "نفط", "lng", "gas", "غاز", "nuclear", "نووي",
		"bitcoin", "بتكوين", "crypto", "blockchain",
		"tesla", "تسلا", "nvidia", "openai", "chatgpt",
		"missile", "صاروخ", "drone", "مسيرة", "greenland", "غرينلاند",
		"houthi", "حوثي", "hezbollah", "حزب الله", "hamas", "حماس",
	}
	for _, w := range generic {
		genericKeywords[w] = true
	}
	for _, w := range highValue {
		highValueKeywords[w] = true
	}
}

// Scoring constants for keyword matching.
const (
	highValueWeight = 25
	regularWeight   = 10
	genericWeight   = 3

	entityMatchBonus  = 20
	topicNameBonus    = 25
	twoKeywordBonus   = 10
	threeKeywordBonus = 15

	// If only generic keywords matched, keep 30% of the score.
	allGenericFactor = 0.3

	acceptScore = 25
	highScore   = 40
)

// KeywordMatch is the result of scoring one topic against a signal.
type KeywordMatch struct {
	TopicID    string
	TopicName  string
	Score      int
	Confidence string // "high", "medium", "low"
	Matched    []string
	HighValue  []string
	Generic    []string
	// NameInText is set when the topic's own name appeared in the text.
	NameInText bool
	// Contested is set when another topic also matched acceptably.
	Contested bool
}

// BestKeywordMatch scores every topic and returns the best acceptable
// match, or nil. A match needs score >= 25 and either a high-value
// keyword or at least two matched keywords.
func BestKeywordMatch(title, summary string, topics []Topic, ents entity.Set) *KeywordMatch {
	fullText := strings.ToLower(title + " " + summary)
	entityText := strings.ToLower(strings.Join(ents.All(), " "))

	var best *KeywordMatch
	acceptable := 0
	for _, topic := range topics {
		m := scoreTopic(fullText, entityText, topic)
		if m.Score >= acceptScore && (len(m.HighValue) > 0 || len(m.Matched) >= 2) {
			acceptable++
		}
		if best == nil || m.Score > best.Score {
			best = &m
		}
	}

	if best == nil || best.Score < acceptScore {
		return nil
	}
	if len(best.HighValue) == 0 && len(best.Matched) < 2 {
		return nil
	}
	best.Contested = acceptable > 1
	return best
}

func scoreTopic(fullText, entityText string, topic Topic) KeywordMatch {
	m := KeywordMatch{TopicID: topic.ID, TopicName: topic.Name}

	for _, kw := range topic.allKeywords() {
		if len(kw) < 3 {
			continue
		}
		lower := strings.ToLower(kw)
		if !strings.Contains(fullText, lower) {
			continue
		}
		switch {
		case highValueKeywords[lower]:
			m.Score += highValueWeight
			m.HighValue = append(m.HighValue, kw)
		case genericKeywords[lower]:
			m.Score += genericWeight
			m.Generic = append(m.Generic, kw)
		default:
			m.Score += regularWeight
		}
		m.Matched = append(m.Matched, kw)
	}

	if len(m.Matched) > 0 && len(m.HighValue) == 0 && len(m.Matched) == len(m.Generic) {
		m.Score = int(float64(m.Score) * allGenericFactor)
	}

	if len(m.HighValue) > 0 || len(m.Matched) > len(m.Generic) {
		if len(m.Matched) >= 2 {
			m.Score += twoKeywordBonus
		}
		if len(m.Matched) >= 3 {
			m.Score += threeKeywordBonus
		}
	}

	if entityText != "" {
		for _, kw := range topic.allKeywords() {
			lower := strings.ToLower(kw)
			if lower != "" && strings.Contains(entityText, lower) {
				m.Score += entityMatchBonus
			}
		}
	}

	if nameEn := strings.ToLower(topic.Name); nameEn != "" && strings.Contains(fullText, nameEn) {
		m.Score += topicNameBonus
		m.NameInText = true
	} else if nameAr := strings.ToLower(topic.NameAr); nameAr != "" && strings.Contains(fullText, nameAr) {
		m.Score += topicNameBonus
		m.NameInText = true
	}

	switch {
	case m.Score >= highScore:
		m.Confidence = "high"
	case m.Score >= acceptScore:
		m.Confidence = "medium"
	default:
		m.Confidence = "low"
	}
	return m
}

// Result is the outcome of the hybrid matching flow.
type Result struct {
	Relevant   bool
	TopicID    string
	TopicName  string
	Category   string
	Confidence int // 0-100
	Source     string
	Reason     string
}

// Source values for Result.
const (
	SourceKeywords         = "keywords"
	SourceAI               = "ai"
	SourceKeywordsFallback = "keywords_fallback"
	SourceAIError          = "ai_error"
	SourceQuickFilter      = "quick_filter"
)

// Matcher runs the hybrid keyword + arbiter flow for one channel.
type Matcher struct {
	topics  []Topic
	arbiter ai.Arbiter
	log     *zap.Logger
}

// New creates a Matcher. The arbiter may be nil, in which case keyword
// results stand on their own with reduced confidence.
func New(topics []Topic, arbiter ai.Arbiter, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{topics: topics, arbiter: arbiter, log: log}
}

var entertainmentWords = []string{
	"movie", "film", "actor", "actress", "netflix", "hollywood", "celebrity",
	"football", "soccer", "nba", "nfl", "world cup",
	"فيلم", "ممثل", "كرة القدم", "مباراة",
}

var geopoliticsTopicHints = []string{
	"us_china", "russia_ukraine", "middle_east", "iran", "sanctions", "war",
}

// Generic title words that need arbiter context even when keywords hit.
var genericTriggerWords = []string{
	"war", "حرب", "conflict", "صراع", "crisis", "أزمة",
	"market", "سوق", "economy", "اقتصاد", "investment", "استثمار",
}

// Match runs the hybrid flow: quick entertainment filter, keyword
// scoring with a domain-mismatch veto, then arbitration for anything
// below very high confidence. The arbiter's decision is final; on
// arbiter failure the keyword result survives with capped confidence.
func (m *Matcher) Match(ctx context.Context, directTopicID, title, summary string) Result {
	// Direct topic id from the source wins outright.
	if directTopicID != "" {
		for _, t := range m.topics {
			if t.ID == directTopicID {
				return Result{
					Relevant:   true,
					TopicID:    t.ID,
					TopicName:  t.Name,
					Confidence: 100,
					Source:     SourceKeywords,
					Reason:     "direct topic id match",
				}
			}
		}
	}

	titleLower := strings.ToLower(title)

	if isLikelyEntertainment(titleLower) {
		m.log.Debug("quick filter rejected signal", zap.String("title", title))
		return Result{Source: SourceQuickFilter, Reason: "entertainment/sports content"}
	}

	ents := entity.Extract(title + " " + summary)
	category := entity.Categorize(ents)

	kw := BestKeywordMatch(title, summary, m.topics, ents)
	confidence := 0
	if kw != nil && domainMismatch(titleLower, kw.TopicID) {
		m.log.Debug("domain mismatch veto",
			zap.String("title", title),
			zap.String("topic", kw.TopicID))
		kw = nil
	}
	if kw != nil {
		confidence = 60
		if !ents.Empty() {
			confidence = 80
		}
		if hasAny(titleLower, genericTriggerWords) {
			if confidence > 70 {
				confidence = 70
			}
		}
		// An uncontested match anchored by the topic's own name, with
		// entities and multiple keyword hits, needs no second opinion.
		if confidence == 80 && kw.NameInText && len(kw.Matched) >= 2 && !kw.Contested {
			confidence = 90
		}
	}

	// Very high keyword confidence skips arbitration entirely.
	if kw != nil && confidence >= 90 {
		return Result{
			Relevant:   true,
			TopicID:    kw.TopicID,
			TopicName:  kw.TopicName,
			Category:   category,
			Confidence: confidence,
			Source:     SourceKeywords,
			Reason:     "high confidence keyword match",
		}
	}

	if m.arbiter == nil {
		if kw == nil {
			return Result{Category: category, Source: SourceKeywordsFallback, Reason: "no keyword match"}
		}
		return Result{
			Relevant:   true,
			TopicID:    kw.TopicID,
			TopicName:  kw.TopicName,
			Category:   category,
			Confidence: confidence,
			Source:     SourceKeywordsFallback,
			Reason:     "keyword match (arbiter unavailable)",
		}
	}

	decision, err := m.arbiter.Classify(ctx, title, summary, m.arbiterTopics())
	if err != nil {
		m.log.Warn("arbiter call failed", zap.Error(err))
		if kw == nil {
			return Result{Category: category, Source: SourceAIError, Reason: "arbiter unavailable, no keyword match"}
		}
		if confidence > 50 {
			confidence = 50
		}
		return Result{
			Relevant:   true,
			TopicID:    kw.TopicID,
			TopicName:  kw.TopicName,
			Category:   category,
			Confidence: confidence,
			Source:     SourceKeywordsFallback,
			Reason:     "keyword match (arbiter failed)",
		}
	}

	if decision.Category != "" {
		category = decision.Category
	}
	if !decision.Relevant || decision.TopicID == "" {
		return Result{
			Category: category,
			Source:   SourceAI,
			Reason:   nonEmpty(decision.Reason, "not relevant to channel"),
		}
	}
	return Result{
		Relevant:   true,
		TopicID:    decision.TopicID,
		TopicName:  decision.TopicName,
		Category:   category,
		Confidence: int(decision.Confidence * 100),
		Source:     SourceAI,
		Reason:     nonEmpty(decision.Reason, "arbiter validated match"),
	}
}

func (m *Matcher) arbiterTopics() []ai.Topic {
	out := make([]ai.Topic, 0, len(m.topics))
	for _, t := range m.topics {
		out = append(out, ai.Topic{ID: t.ID, Name: t.Name})
	}
	return out
}

func isLikelyEntertainment(titleLower string) bool {
	if !hasAny(titleLower, entertainmentWords) {
		return false
	}
	// A geopolitics anchor keeps the signal in play even when an
	// entertainment word appears ("Netflix faces China ban").
	for kw := range highValueKeywords {
		if strings.Contains(titleLower, kw) {
			return false
		}
	}
	return true
}

// domainMismatch vetoes entertainment or sports titles that keyword
// matching pinned to a geopolitics topic.
func domainMismatch(titleLower, topicID string) bool {
	if !hasAny(titleLower, entertainmentWords) {
		return false
	}
	topicLower := strings.ToLower(topicID)
	for _, hint := range geopoliticsTopicHints {
		if strings.Contains(topicLower, hint) {
			return true
		}
	}
	return false
}

func hasAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
