package evidence

import (
	"sort"
	"strings"
)

// Persona relevance bands.
const (
	RelevanceHigh   = "high"
	RelevanceMedium = "medium"
	RelevanceLow    = "low"
)

// Vocabulary tier weights. A trigger keyword is a strong hint, a
// primary interest is stronger, a secondary interest weaker.
const (
	triggerWeight   = 10
	primaryWeight   = 15
	secondaryWeight = 8
)

// Persona describes one audience segment by the vocabulary that
// activates it. Matching is plain substring search over lowercased
// text, so triggers work for Arabic and English alike.
type Persona struct {
	ID        string
	Name      string
	NameAr    string
	Triggers  []string
	Primary   []string
	Secondary []string
}

// PersonaMatch is the affinity of one signal to one persona.
type PersonaMatch struct {
	ID        string
	Name      string
	Score     int
	Matched   []string
	Relevance string
}

// DefaultPersonas are the channel's known audience segments.
var DefaultPersonas = []Persona{
	{
		ID:     "egyptian_business",
		Name:   "Egyptian Business Professional",
		NameAr: "رجل الأعمال المصري",
		Triggers: []string{
			"مصر", "egypt", "egyptian", "مصري",
			"الجنيه", "egp",
			"السويس", "suez",
			"القاهرة", "cairo",
			"البنك المركزي المصري",
		},
		Primary: []string{
			"سعر الجنيه المصري", "قناة السويس", "الاستثمار في مصر",
		},
		Secondary: []string{
			"صندوق النقد الدولي", "imf",
		},
	},
	{
		ID:     "gulf_oil",
		Name:   "Gulf Oil & Energy Follower",
		NameAr: "متابع النفط الخليجي",
		Triggers: []string{
			"السعودية", "saudi", "سعودي",
			"الإمارات", "uae", "دبي", "أبوظبي",
			"النفط", "oil", "نفط",
			"أوبك", "opec",
			"أرامكو", "aramco",
			"رؤية 2030", "نيوم", "neom",
			"الخليج", "gulf",
		},
		Primary: []string{
			"أسعار النفط", "oil prices", "أوبك+",
		},
		Secondary: []string{
			"الطاقة المتجددة", "renewable energy",
		},
	},
	{
		ID:     "geopolitics",
		Name:   "Geopolitics Analyst",
		NameAr: "المحلل الجيوسياسي",
		Triggers: []string{
			"ترامب", "trump",
			"الصين", "china",
			"روسيا", "russia", "بوتين", "putin",
			"إيران", "iran",
			"حرب", "war", "صراع", "conflict",
			"عقوبات", "sanctions",
			"نووي", "nuclear",
			"أوكرانيا", "ukraine",
			"تايوان", "taiwan",
		},
		Primary: []string{
			"صراع أمريكا والصين", "trade war", "الحرب التجارية",
		},
		Secondary: []string{
			"حلف الناتو", "nato",
		},
	},
	{
		ID:     "investor",
		Name:   "Individual Investor",
		NameAr: "المستثمر الفردي",
		Triggers: []string{
			"الذهب", "gold",
			"الدولار", "dollar",
			"الفيدرالي", "federal reserve", "fed",
			"فائدة", "interest rate",
			"تضخم", "inflation",
			"بورصة", "stock",
			"استثمار", "invest",
			"انهيار", "crash",
		},
		Primary: []string{
			"أسعار الفائدة", "central bank", "البنك المركزي",
		},
		Secondary: []string{
			"العقارات", "الأسهم", "bonds",
		},
	},
}

// MatchPersonas scores text against every persona and returns the
// matches sorted strongest first. Personas with no matched vocabulary
// are omitted.
func MatchPersonas(text string, personas []Persona) []PersonaMatch {
	lower := strings.ToLower(text)

	var matches []PersonaMatch
	for _, p := range personas {
		m := PersonaMatch{ID: p.ID, Name: p.Name}
		for _, kw := range p.Triggers {
			if strings.Contains(lower, strings.ToLower(kw)) {
				m.Score += triggerWeight
				m.Matched = append(m.Matched, kw)
			}
		}
		for _, kw := range p.Primary {
			if strings.Contains(lower, strings.ToLower(kw)) {
				m.Score += primaryWeight
				m.Matched = append(m.Matched, kw)
			}
		}
		for _, kw := range p.Secondary {
			if strings.Contains(lower, strings.ToLower(kw)) {
				m.Score += secondaryWeight
				m.Matched = append(m.Matched, kw)
			}
		}
		if m.Score == 0 {
			continue
		}
		m.Relevance = relevance(m.Score)
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// BestPersona returns the strongest match against the default persona
// set, or nil when nothing in the text activates a persona.
func BestPersona(text string) *PersonaMatch {
	matches := MatchPersonas(text, DefaultPersonas)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

func relevance(score int) string {
	switch {
	case score >= 30:
		return RelevanceHigh
	case score >= 15:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}
