package learning

import (
	"strings"
	"unicode/utf8"
)

// Angle types.
const (
	AngleNone         = "none"
	AngleQuestion     = "question"
	AngleInquiry      = "inquiry"
	AngleRelationship = "relationship"
	AngleEvent        = "event"
	AngleTimely       = "timely"
	AngleComparison   = "comparison"
	AngleBroadEntity  = "broad_entity"
)

// AngleAnalysis says whether a topic title carries a specific angle or
// is just a broad subject ("China" vs "How China wins the chip war").
type AngleAnalysis struct {
	HasAngle   bool
	Type       string
	Confidence float64
}

var questionWords = []string{
	"how", "why", "what", "when", "where", "will", "can",
	"كيف", "لماذا", "ماذا", "متى", "أين", "هل", "ما هو", "ما هي",
}

var relationWords = []string{
	"between", "versus", "against", "impact", "future", "crisis",
	"بين", "مع", "ضد", "تأثير", "مستقبل", "أزمة", "حرب", "صراع",
}

var actionWords = []string{
	"announces", "reveals", "warns", "threatens", "imposes", "rises",
	"falls", "collapses", "acquisition", "deal",
	"يعلن", "يكشف", "يحذر", "يهدد", "يفرض", "ترتفع", "تنخفض", "تتراجع",
	"استحواذ", "صفقة", "تحت حكم", "في عهد",
}

var contextWords = []string{
	"2024", "2025", "2026", "new", "latest", "breaking", "exclusive",
	"الجديد", "الأخير", "القادم", "حصري", "عاجل",
}

var angleEntities = []string{
	"china", "america", "russia", "egypt", "saudi", "iran", "turkey",
	"trump", "putin", "musk", "biden",
	"tesla", "meta", "google", "apple", "amazon", "nvidia",
	"الصين", "أمريكا", "روسيا", "مصر", "السعودية", "الإمارات", "إيران", "تركيا",
	"ترامب", "بوتين", "ماسك", "بايدن",
	"تسلا", "ميتا", "جوجل", "أبل", "أمازون", "إنفيديا",
}

// AnalyzeAngle scores how specific a topic title is. Questions, named
// events and multi-entity comparisons count as angles; a lone entity
// name does not.
func AnalyzeAngle(topic string) AngleAnalysis {
	a := AngleAnalysis{Type: AngleNone}
	if topic == "" {
		return a
	}
	lower := strings.ToLower(topic)

	if strings.ContainsAny(topic, "?؟") {
		a.Type = AngleQuestion
		a.Confidence += 0.4
	}
	if containsAny(lower, questionWords) {
		if a.Type == AngleNone {
			a.Type = AngleInquiry
		}
		a.Confidence += 0.3
	}

	relations := 0
	for _, w := range relationWords {
		if strings.Contains(lower, w) {
			relations++
		}
	}
	if relations >= 1 {
		if a.Type == AngleNone {
			a.Type = AngleRelationship
		}
		bonus := float64(relations) * 0.1
		if bonus > 0.3 {
			bonus = 0.3
		}
		a.Confidence += bonus
	}

	if containsAny(lower, actionWords) {
		if a.Type == AngleNone {
			a.Type = AngleEvent
		}
		a.Confidence += 0.3
	}
	if containsAny(lower, contextWords) {
		if a.Type == AngleNone {
			a.Type = AngleTimely
		}
		a.Confidence += 0.2
	}

	// Length is a weak proxy for context.
	switch n := utf8.RuneCountInString(topic); {
	case n > 35:
		a.Confidence += 0.2
	case n < 20:
		a.Confidence -= 0.3
	}

	entityCount := 0
	for _, e := range angleEntities {
		if strings.Contains(lower, e) {
			entityCount++
		}
	}
	if entityCount >= 2 {
		a.Type = AngleComparison
		a.Confidence += 0.3
	}

	// A bare entity name is the canonical broad topic.
	if entityCount == 1 && len(strings.Fields(topic)) <= 2 {
		a.Type = AngleBroadEntity
		a.Confidence = 0
	}

	if a.Confidence > 1 {
		a.Confidence = 1
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	a.HasAngle = a.Confidence >= 0.3
	return a
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
