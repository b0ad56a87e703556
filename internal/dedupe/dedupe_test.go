package dedupe

import (
	"testing"
	"time"
)

func TestCompareSameStory(t *testing.T) {
	a := NewFingerprint("China imposes new tariffs on US goods", "Beijing escalates the trade war with sweeping import duties")
	b := NewFingerprint("China imposes new tariffs on US imports", "Beijing escalates the trade war with sweeping import duties")

	c := Compare(a, b)
	if c.Relationship != SameStory {
		t.Errorf("Relationship = %s, want same_story (semantic %.2f, entities %.2f)", c.Relationship, c.Semantic, c.EntityScore)
	}
	if c.Confidence < 0.8 {
		t.Errorf("Confidence = %.2f, want >= 0.8", c.Confidence)
	}
}

func TestCompareCrossLanguageSameStory(t *testing.T) {
	a := NewFingerprint("China hits US with new trade tariffs", "")
	b := NewFingerprint("الصين تفرض رسوم جمركية جديدة على أمريكا", "")

	c := Compare(a, b)
	if !c.CrossLanguage {
		t.Fatal("expected cross-language comparison")
	}
	if c.Relationship != SameStory {
		t.Errorf("Relationship = %s, want same_story (semantic %.2f, entities %.2f)", c.Relationship, c.Semantic, c.EntityScore)
	}
}

func TestComparePersonOnlyOverlapIsUnrelated(t *testing.T) {
	a := NewFingerprint("Trump opens new golf resort in Florida", "")
	b := NewFingerprint("Trump comments on baseball season", "")

	c := Compare(a, b)
	if c.Relationship != Unrelated {
		t.Errorf("Relationship = %s, want unrelated (semantic %.2f, entities %.2f)", c.Relationship, c.Semantic, c.EntityScore)
	}
}

func TestCompareRelatedTopic(t *testing.T) {
	a := NewFingerprint("OPEC announces oil production cut for next quarter", "")
	b := NewFingerprint("Oil prices climb as OPEC members weigh supply limits", "")

	c := Compare(a, b)
	if c.Relationship != RelatedTopic && c.Relationship != SameStory {
		t.Errorf("Relationship = %s, want related_topic or same_story", c.Relationship)
	}
}

func TestCompareUnrelated(t *testing.T) {
	a := NewFingerprint("Bitcoin breaks record high", "")
	b := NewFingerprint("Russia strikes Ukraine power grid", "")

	c := Compare(a, b)
	if c.Relationship == SameStory || c.Relationship == RelatedTopic {
		t.Errorf("Relationship = %s, want unrelated or loosely_related", c.Relationship)
	}
}

func TestCompareEmbeddings(t *testing.T) {
	a := Fingerprint{Embedding: []float64{1, 0, 0}}
	b := Fingerprint{Embedding: []float64{1, 0, 0}}
	if c := Compare(a, b); c.Semantic != 1 {
		t.Errorf("identical embeddings: semantic = %.2f, want 1", c.Semantic)
	}

	b.Embedding = []float64{0, 1, 0}
	if c := Compare(a, b); c.Semantic != 0 {
		t.Errorf("orthogonal embeddings: semantic = %.2f, want 0", c.Semantic)
	}
}

func TestEntityOverlapWeighting(t *testing.T) {
	a := NewFingerprint("Iran nuclear sanctions tighten", "")
	b := NewFingerprint("Iran nuclear program advances", "")

	d := entityOverlap(a.Entities, b.Entities)
	if d.score < 0.5 {
		t.Errorf("country+topic overlap score = %.2f, want >= 0.5", d.score)
	}

	// A shared country outweighs a shared person when the other kind
	// diverges.
	p1 := NewFingerprint("Musk visits China", "")
	p2 := NewFingerprint("Musk visits Germany", "")
	personMatch := entityOverlap(p1.Entities, p2.Entities).score

	c1 := NewFingerprint("Putin visits China", "")
	c2 := NewFingerprint("Biden visits China", "")
	countryMatch := entityOverlap(c1.Entities, c2.Entities).score

	if personMatch <= 0 || personMatch >= countryMatch {
		t.Errorf("person match %.2f should be positive and below country match %.2f", personMatch, countryMatch)
	}
}

func TestBatchKeepsStrongestAndMerges(t *testing.T) {
	early := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	items := []Item{
		{
			ID:          "weak",
			Title:       "China imposes sweeping new tariffs on US goods",
			Fingerprint: NewFingerprint("China imposes sweeping new tariffs on US goods", ""),
			Score:       40,
			Sources:     []string{"reuters"},
			Published:   early,
		},
		{
			ID:          "strong",
			Title:       "China imposes sweeping new tariffs on U.S. goods",
			Fingerprint: NewFingerprint("China imposes sweeping new tariffs on U.S. goods", ""),
			Score:       80,
			Sources:     []string{"ap"},
			Published:   late,
		},
		{
			ID:          "other",
			Title:       "Bitcoin breaks record high after ETF inflows",
			Fingerprint: NewFingerprint("Bitcoin breaks record high after ETF inflows", ""),
			Score:       60,
			Sources:     []string{"reuters"},
		},
	}

	res := Batch(items, 0.85)
	if len(res.Unique) != 2 {
		t.Fatalf("Unique = %d items, want 2", len(res.Unique))
	}
	if len(res.Duplicates) != 1 {
		t.Fatalf("Duplicates = %d, want 1", len(res.Duplicates))
	}

	// Highest score is processed first and survives.
	kept := res.Unique[0]
	if kept.ID != "strong" {
		t.Errorf("kept ID = %s, want strong", kept.ID)
	}
	if kept.Merged != 2 {
		t.Errorf("Merged = %d, want 2", kept.Merged)
	}
	if len(kept.Sources) != 2 {
		t.Errorf("Sources = %v, want union of reuters and ap", kept.Sources)
	}
	if !kept.Published.Equal(early) {
		t.Errorf("Published = %v, want earliest %v", kept.Published, early)
	}

	if res.Duplicates[0].Item.ID != "weak" || res.Duplicates[0].DuplicateOf != "strong" {
		t.Errorf("duplicate record = %+v, want weak folded into strong", res.Duplicates[0])
	}
}

func TestBatchIdempotent(t *testing.T) {
	items := []Item{
		{
			ID:          "weak",
			Title:       "China imposes sweeping new tariffs on US goods",
			Fingerprint: NewFingerprint("China imposes sweeping new tariffs on US goods", ""),
			Score:       40,
			Sources:     []string{"reuters"},
		},
		{
			ID:          "strong",
			Title:       "China imposes sweeping new tariffs on U.S. goods",
			Fingerprint: NewFingerprint("China imposes sweeping new tariffs on U.S. goods", ""),
			Score:       80,
			Sources:     []string{"ap"},
		},
		{
			ID:          "other",
			Title:       "Bitcoin breaks record high after ETF inflows",
			Fingerprint: NewFingerprint("Bitcoin breaks record high after ETF inflows", ""),
			Score:       60,
			Sources:     []string{"reuters"},
		},
	}

	first := Batch(items, DefaultThreshold)
	second := Batch(first.Unique, DefaultThreshold)

	if len(second.Duplicates) != 0 {
		t.Fatalf("second pass found %d duplicates, want 0", len(second.Duplicates))
	}
	if len(second.Unique) != len(first.Unique) {
		t.Fatalf("second pass Unique = %d, want %d", len(second.Unique), len(first.Unique))
	}
	for i := range first.Unique {
		if second.Unique[i].ID != first.Unique[i].ID {
			t.Errorf("order changed at %d: %s vs %s", i, second.Unique[i].ID, first.Unique[i].ID)
		}
		if second.Unique[i].Merged != first.Unique[i].Merged {
			t.Errorf("merge count changed for %s: %d vs %d",
				second.Unique[i].ID, second.Unique[i].Merged, first.Unique[i].Merged)
		}
		if len(second.Unique[i].Sources) != len(first.Unique[i].Sources) {
			t.Errorf("sources changed for %s", second.Unique[i].ID)
		}
	}
}

func TestBatchDefaultThreshold(t *testing.T) {
	items := []Item{
		{ID: "a", Fingerprint: NewFingerprint("Gold prices steady ahead of Fed decision", ""), Score: 10},
		{ID: "b", Fingerprint: NewFingerprint("Gold prices steady ahead of Fed decision", ""), Score: 5},
	}
	res := Batch(items, 0)
	if len(res.Unique) != 1 {
		t.Errorf("identical items with default threshold: Unique = %d, want 1", len(res.Unique))
	}
}

func TestMerge(t *testing.T) {
	if got := Merge(nil); got.ID != "" {
		t.Errorf("Merge(nil) = %+v, want zero item", got)
	}

	one := Item{ID: "solo", Merged: 3}
	if got := Merge([]Item{one}); got.Merged != 3 {
		t.Errorf("Merge of one item should be returned as-is, got %+v", got)
	}

	merged := Merge([]Item{
		{ID: "a", Score: 30, Sources: []string{"x"}, Merged: 2},
		{ID: "b", Score: 70, Sources: []string{"x", "y"}},
	})
	if merged.ID != "b" {
		t.Errorf("base ID = %s, want b (highest score)", merged.ID)
	}
	if merged.Merged != 3 {
		t.Errorf("Merged = %d, want 3 (2 absorbed + itself)", merged.Merged)
	}
	if len(merged.Sources) != 2 {
		t.Errorf("Sources = %v, want deduplicated union", merged.Sources)
	}
}
