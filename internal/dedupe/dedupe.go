// Package dedupe detects semantically-equivalent stories using topic
// fingerprints: normalized text, extracted entities and an optional
// embedding. Two items reporting the same underlying story collapse
// into one merged signal.
package dedupe

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/EslamH-coder/ContentDNA-sub003/internal/entity"
)

// Similarity thresholds. Cross-language pairs get looser semantic
// thresholds because translations share few surface tokens.
const (
	DefaultThreshold   = 0.85
	sameStoryThreshold = 0.80
	relatedThreshold   = 0.65
	crossLangSameStory = 0.55
	crossLangRelated   = 0.50

	entitySameStoryMin  = 0.4
	crossLangEntityMin  = 0.5
	looselyRelatedFloor = 0.4
)

// Relationship between two fingerprints.
const (
	SameStory      = "same_story"
	RelatedTopic   = "related_topic"
	LooselyRelated = "loosely_related"
	Unrelated      = "unrelated"
)

// Fingerprint is the comparable identity of one story.
type Fingerprint struct {
	Normalized string
	Entities   entity.Set
	Language   string
	Category   string
	// Embedding is optional; without it semantic similarity falls
	// back to token overlap of the normalized text.
	Embedding []float64
}

// NewFingerprint builds a fingerprint from signal text.
func NewFingerprint(title, summary string) Fingerprint {
	text := title + " " + summary
	ents := entity.Extract(text)
	return Fingerprint{
		Normalized: entity.Normalize(text),
		Entities:   ents,
		Language:   entity.DetectLanguage(text),
		Category:   entity.Categorize(ents),
	}
}

// Comparison is the outcome of comparing two fingerprints.
type Comparison struct {
	Relationship  string
	Confidence    float64
	Semantic      float64
	EntityScore   float64
	CrossLanguage bool
}

// Compare classifies the relationship between two stories.
func Compare(a, b Fingerprint) Comparison {
	c := Comparison{
		Semantic:      semanticSimilarity(a, b),
		CrossLanguage: a.Language != b.Language,
	}

	overlap := entityOverlap(a.Entities, b.Entities)
	c.EntityScore = overlap.score

	sameCategory := a.Category != "" && a.Category == b.Category
	hasTopicOverlap := len(overlap.topics) > 0
	hasCountryOverlap := len(overlap.countries) > 0
	personOnly := len(overlap.people) > 0 && !hasTopicOverlap && !hasCountryOverlap

	sameStoryMin := sameStoryThreshold
	relatedMin := relatedThreshold
	if c.CrossLanguage {
		sameStoryMin = crossLangSameStory
		relatedMin = crossLangRelated
	}

	switch {
	case c.Semantic >= sameStoryMin && c.EntityScore >= entitySameStoryMin:
		c.Relationship = SameStory
		c.Confidence = math.Max(c.Semantic, c.EntityScore)
	case c.CrossLanguage && c.EntityScore >= crossLangEntityMin && (hasTopicOverlap || hasCountryOverlap):
		c.Relationship = SameStory
		c.Confidence = c.EntityScore
	case c.Semantic >= sameStoryMin:
		c.Relationship = SameStory
		c.Confidence = c.Semantic
	case (c.Semantic >= relatedMin || (sameCategory && c.EntityScore >= 0.3)) && !personOnly:
		c.Relationship = RelatedTopic
		c.Confidence = math.Max(c.Semantic, c.EntityScore)
	case personOnly && c.Semantic < relatedMin:
		// Two stories about the same person are usually different
		// stories.
		c.Relationship = Unrelated
		c.Confidence = 1 - c.Semantic
	case (sameCategory && !personOnly) || c.EntityScore >= 0.3:
		c.Relationship = LooselyRelated
		c.Confidence = math.Max(c.EntityScore, looselyRelatedFloor)
	default:
		c.Relationship = Unrelated
	}
	return c
}

func semanticSimilarity(a, b Fingerprint) float64 {
	if len(a.Embedding) > 0 && len(a.Embedding) == len(b.Embedding) {
		return cosine(a.Embedding, b.Embedding)
	}
	return entity.Similarity(a.Normalized, b.Normalized)
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type overlapDetail struct {
	people, countries, organizations, topics []string
	score                                    float64
}

// entityOverlap scores shared entities. Countries and topics weigh
// more than people: leaders appear in every story, borders do not.
func entityOverlap(a, b entity.Set) overlapDetail {
	d := overlapDetail{
		people:        intersect(a.People, b.People),
		countries:     intersect(a.Countries, b.Countries),
		organizations: intersect(a.Organizations, b.Organizations),
		topics:        intersect(a.Topics, b.Topics),
	}

	type kind struct {
		weight  float64
		a, b    []string
		matched []string
	}
	kinds := []kind{
		{1.0, a.People, b.People, d.people},
		{2.5, a.Countries, b.Countries, d.countries},
		{1.5, a.Organizations, b.Organizations, d.organizations},
		{2.5, a.Topics, b.Topics, d.topics},
	}

	var totalWeight, matchedWeight float64
	for _, k := range kinds {
		if len(k.a) == 0 && len(k.b) == 0 {
			continue
		}
		totalWeight += k.weight
		if len(k.matched) > 0 {
			max := len(k.a)
			if len(k.b) > max {
				max = len(k.b)
			}
			matchedWeight += k.weight * float64(len(k.matched)) / float64(max)
		}
	}
	if totalWeight > 0 {
		d.score = matchedWeight / totalWeight
	}
	return d
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}

// Item is one signal entering batch deduplication.
type Item struct {
	ID          string
	Title       string
	Fingerprint Fingerprint
	// Score orders the batch; higher-evidence items are kept and
	// later duplicates fold into them.
	Score     int
	Sources   []string
	Published time.Time
	// Merged counts how many raw signals this item absorbed.
	Merged int
}

// Duplicate records an item removed from a batch.
type Duplicate struct {
	Item        Item
	DuplicateOf string
	Confidence  float64
	Reason      string
}

// Result of a batch run.
type Result struct {
	Unique     []Item
	Duplicates []Duplicate
}

// Batch deduplicates items against each other. Items are processed in
// descending score order and each one is compared against the already
// accepted set, so the output depends on that order: the strongest
// telling of a story survives.
func Batch(items []Item, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var res Result
	for _, item := range sorted {
		dup := false
		for i := range res.Unique {
			c := Compare(item.Fingerprint, res.Unique[i].Fingerprint)
			if isDuplicate(c, threshold) {
				res.Unique[i] = Merge([]Item{res.Unique[i], item})
				res.Duplicates = append(res.Duplicates, Duplicate{
					Item:        item,
					DuplicateOf: res.Unique[i].ID,
					Confidence:  c.Confidence,
					Reason:      fmt.Sprintf("%s (semantic %.2f, entities %.2f)", c.Relationship, c.Semantic, c.EntityScore),
				})
				dup = true
				break
			}
		}
		if !dup {
			res.Unique = append(res.Unique, item)
		}
	}
	return res
}

func isDuplicate(c Comparison, threshold float64) bool {
	if c.Semantic >= threshold {
		return true
	}
	return c.Relationship == SameStory && c.Confidence >= threshold
}

// Merge collapses duplicates into one item: the highest-scored item is
// the base, sources union, and the earliest published time wins.
func Merge(items []Item) Item {
	if len(items) == 0 {
		return Item{}
	}
	if len(items) == 1 {
		return items[0]
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	base := sorted[0]

	seen := make(map[string]bool)
	var sources []string
	merged := 0
	for _, it := range sorted {
		for _, s := range it.Sources {
			if s != "" && !seen[s] {
				seen[s] = true
				sources = append(sources, s)
			}
		}
		if !it.Published.IsZero() && (base.Published.IsZero() || it.Published.Before(base.Published)) {
			base.Published = it.Published
		}
		if it.Merged > 0 {
			merged += it.Merged
		} else {
			merged++
		}
	}
	base.Sources = sources
	base.Merged = merged
	return base
}
