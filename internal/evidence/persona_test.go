package evidence

import "testing"

func TestMatchPersonasTierWeights(t *testing.T) {
	personas := []Persona{
		{
			ID:        "investor",
			Name:      "Individual Investor",
			Triggers:  []string{"gold", "interest rate"},
			Primary:   []string{"central bank"},
			Secondary: []string{"bonds"},
		},
	}

	tests := []struct {
		text string
		want int
	}{
		{"Gold rallies on safe haven demand", 10},
		{"Central bank raises interest rates", 25}, // trigger + primary
		{"Treasury bonds slide", 8},
		{"Football transfer window opens", 0},
	}
	for _, tt := range tests {
		matches := MatchPersonas(tt.text, personas)
		got := 0
		if len(matches) > 0 {
			got = matches[0].Score
		}
		if got != tt.want {
			t.Errorf("%q: score = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestMatchPersonasRelevanceBands(t *testing.T) {
	personas := []Persona{
		{
			ID:       "p",
			Triggers: []string{"gold", "dollar", "inflation"},
		},
	}

	tests := []struct {
		text string
		want string
	}{
		{"Gold, dollar and inflation all move at once", RelevanceHigh},  // 30
		{"Gold and the dollar diverge", RelevanceMedium},                // 20
		{"Gold steadies", RelevanceLow},                                 // 10
	}
	for _, tt := range tests {
		matches := MatchPersonas(tt.text, personas)
		if len(matches) != 1 {
			t.Fatalf("%q: expected 1 match, got %d", tt.text, len(matches))
		}
		if matches[0].Relevance != tt.want {
			t.Errorf("%q: relevance = %s, want %s", tt.text, matches[0].Relevance, tt.want)
		}
	}
}

func TestMatchPersonasSortsStrongestFirst(t *testing.T) {
	personas := []Persona{
		{ID: "weak", Triggers: []string{"oil"}},
		{ID: "strong", Triggers: []string{"oil"}, Primary: []string{"oil prices"}},
	}

	matches := MatchPersonas("Oil prices surge on supply fears", personas)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "strong" {
		t.Errorf("strongest persona should sort first, got %s", matches[0].ID)
	}
}

func TestBestPersonaDefaults(t *testing.T) {
	pm := BestPersona("Central bank raises interest rates by 0.5%")
	if pm == nil {
		t.Fatal("expected a persona match")
	}
	if pm.ID != "investor" {
		t.Errorf("persona = %s, want investor", pm.ID)
	}

	if BestPersona("Football transfer window opens") != nil {
		t.Error("expected no persona for off-topic text")
	}
}

func TestBestPersonaArabic(t *testing.T) {
	pm := BestPersona("أوبك تخفض إنتاج النفط")
	if pm == nil {
		t.Fatal("expected a persona match")
	}
	if pm.ID != "gulf_oil" {
		t.Errorf("persona = %s, want gulf_oil", pm.ID)
	}
}

func TestScorePersonaCappedAndNotASource(t *testing.T) {
	b := Score(Input{PersonaScore: 33})
	if b.Persona != 10 {
		t.Errorf("Persona = %d, want 10 (capped)", b.Persona)
	}
	if b.Total != 10 {
		t.Errorf("Total = %d, want 10", b.Total)
	}
	if b.Sources != 0 {
		t.Errorf("Sources = %d, want 0: persona affinity corroborates but is not an independent source", b.Sources)
	}

	b = Score(Input{SearchViews: 14000, PersonaScore: 8})
	if b.Total != 43 {
		t.Errorf("Total = %d, want 43", b.Total)
	}
	if b.Sources != 1 {
		t.Errorf("Sources = %d, want 1", b.Sources)
	}
}
