// Package evidence aggregates demand signals from independent sources
// into a single 0-100 score. Each source is capped so no single source
// can carry a signal on its own.
package evidence

// Per-source caps.
const (
	searchCap   = 35
	commentsCap = 30
	audienceCap = 20
	manualScore = 15
	boostCap    = 25
	personaCap  = 10

	totalCap = 100
)

// Strength labels.
const (
	StrengthStrong   = "strong"
	StrengthModerate = "moderate"
	StrengthWeak     = "weak"
	StrengthNone     = "none"
)

// Recommendation labels.
const (
	RecommendStrongMake = "strong_make"
	RecommendMake       = "make"
	RecommendConsider   = "consider"
	RecommendSkip       = "skip"
)

// Input holds raw evidence counts for one signal.
type Input struct {
	// SearchViews is the view volume of matching search results.
	SearchViews int
	// CommentRequests is how many audience comments asked for this.
	CommentRequests int
	// AudienceVideos is how many recent audience-channel uploads cover it.
	AudienceVideos int
	// ManualTrend marks a trend flagged by the user.
	ManualTrend bool
	// CompetitorBoost is the bounded bonus from competitor activity.
	CompetitorBoost int
	// PersonaScore is the raw affinity of the signal to a known
	// audience persona, from MatchPersonas.
	PersonaScore int
}

// Breakdown shows how each source contributed to the composite score.
type Breakdown struct {
	Search     int
	Comments   int
	Audience   int
	Manual     int
	Competitor int
	Persona    int

	Sources        int
	Total          int
	Strength       string
	Recommendation string
}

// Score aggregates the input into a capped composite with a strength
// label and a recommendation band.
func Score(in Input) Breakdown {
	var b Breakdown

	if in.SearchViews > 0 {
		b.Search = min(searchCap, in.SearchViews/400)
	}
	if in.CommentRequests > 0 {
		b.Comments = min(commentsCap, 10+in.CommentRequests*5)
	}
	if in.AudienceVideos > 0 {
		b.Audience = min(audienceCap, in.AudienceVideos*4)
	}
	if in.ManualTrend {
		b.Manual = manualScore
	}
	if in.CompetitorBoost > 0 {
		b.Competitor = min(boostCap, in.CompetitorBoost)
	}
	if in.PersonaScore > 0 {
		b.Persona = min(personaCap, in.PersonaScore)
	}

	// Persona affinity adds to the total but does not count as an
	// independent demand source.
	for _, part := range []int{b.Search, b.Comments, b.Audience, b.Manual, b.Competitor} {
		if part > 0 {
			b.Sources++
		}
	}

	b.Total = min(totalCap, b.Search+b.Comments+b.Audience+b.Manual+b.Competitor+b.Persona)
	b.Strength = strength(b.Sources, b.Total)
	b.Recommendation = recommendation(b.Total)
	return b
}

// strength labels how corroborated the evidence is. Either breadth
// (independent sources) or depth (raw score) can satisfy a band.
func strength(sources, total int) string {
	switch {
	case sources >= 3 || total >= 60:
		return StrengthStrong
	case sources == 2 || total >= 40:
		return StrengthModerate
	case sources == 1 || total >= 20:
		return StrengthWeak
	default:
		return StrengthNone
	}
}

func recommendation(total int) string {
	switch {
	case total >= 70:
		return RecommendStrongMake
	case total >= 50:
		return RecommendMake
	case total >= 30:
		return RecommendConsider
	default:
		return RecommendSkip
	}
}

// Weak reports whether the evidence is too thin to defend a topic the
// audience has already flagged as needing proof.
func (b Breakdown) Weak() bool {
	return b.Strength == StrengthWeak || b.Strength == StrengthNone
}
