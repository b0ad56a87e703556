// Package rank runs the full signal pipeline for one channel: topic
// matching, deduplication, evidence scoring, learned-weight adjustment
// and tier assignment.
package rank

import (
	"context"
	"sort"
	"time"

	"github.com/EslamH-coder/ContentDNA-sub003/internal/dedupe"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/evidence"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/learning"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/match"
	"go.uber.org/zap"
)

// Signal is one candidate story moving through the pipeline.
type Signal struct {
	ID        string
	Title     string
	Summary   string
	TopicID   string // direct topic hint from the source, if any
	URL       string
	Sources   []string
	Published time.Time

	Evidence evidence.Input
	Urgency  Urgency

	// Filled in by the pipeline.
	Match           match.Result
	Breakdown       evidence.Breakdown
	OriginalScore   int
	Score           int
	LearningApplied bool
	Protected       bool
	Level           string
	Tier            string
	Merged          int
	HiddenReason    string
}

// Result of one pipeline run.
type Result struct {
	Ranked     []Signal
	Irrelevant []Signal
	Hidden     []Signal
	Duplicates []dedupe.Duplicate
}

// Pipeline wires the stages together for one channel.
type Pipeline struct {
	matcher   *match.Matcher
	weights   *learning.Weights
	hidden    *learning.Hidden
	threshold float64
	log       *zap.Logger
}

// New creates a Pipeline. weights and hidden may be nil for a channel
// with no feedback history yet; threshold <= 0 uses the dedupe default.
func New(matcher *match.Matcher, weights *learning.Weights, hidden *learning.Hidden, threshold float64, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = dedupe.DefaultThreshold
	}
	return &Pipeline{
		matcher:   matcher,
		weights:   weights,
		hidden:    hidden,
		threshold: threshold,
		log:       log,
	}
}

// Run executes the pipeline over a batch of candidate signals.
func (p *Pipeline) Run(ctx context.Context, signals []Signal) Result {
	var res Result

	// Stage 1: relevance. Irrelevant signals stop here.
	relevant := make([]Signal, 0, len(signals))
	for _, s := range signals {
		s.Match = p.matcher.Match(ctx, s.TopicID, s.Title, s.Summary)
		if !s.Match.Relevant {
			res.Irrelevant = append(res.Irrelevant, s)
			continue
		}
		relevant = append(relevant, s)
	}
	p.log.Info("relevance stage done",
		zap.Int("candidates", len(signals)),
		zap.Int("relevant", len(relevant)))

	// Stage 2: evidence scoring. The competitor boost folds in here
	// as a bounded bonus.
	for i := range relevant {
		s := &relevant[i]
		s.Evidence.CompetitorBoost = Boost(s.Urgency.Competitors)
		s.Breakdown = evidence.Score(s.Evidence)
		s.OriginalScore = s.Breakdown.Total
	}

	// Stage 3: deduplication, strongest evidence first.
	relevant, dups := p.deduplicate(relevant)
	res.Duplicates = dups

	// Stage 4: learned weights, protection and hidden topics.
	for _, s := range relevant {
		score, adj := p.applyWeights(s.Title, s.OriginalScore, s.Breakdown)
		s.Score = score
		s.LearningApplied = adj

		if p.weights.Protected(s.Title) {
			s.Protected = true
			s.Score = learning.ProtectScore(s.Score)
		} else if hide, reason := p.hidden.ShouldHide(s.Title); hide {
			s.HiddenReason = reason
			res.Hidden = append(res.Hidden, s)
			continue
		}

		s.Level = learning.Level(s.Score)
		s.Tier = AssignTier(s.Score, s.Urgency)
		res.Ranked = append(res.Ranked, s)
	}

	sort.SliceStable(res.Ranked, func(i, j int) bool {
		a, b := res.Ranked[i], res.Ranked[j]
		if TierRank(a.Tier) != TierRank(b.Tier) {
			return TierRank(a.Tier) > TierRank(b.Tier)
		}
		return a.Score > b.Score
	})

	p.log.Info("pipeline done",
		zap.Int("ranked", len(res.Ranked)),
		zap.Int("hidden", len(res.Hidden)),
		zap.Int("duplicates", len(res.Duplicates)))
	return res
}

func (p *Pipeline) applyWeights(title string, score int, b evidence.Breakdown) (int, bool) {
	if p.weights == nil {
		return learning.Clamp(float64(score)), false
	}
	adjusted, adj := p.weights.Apply(title, score, b)
	return adjusted, adj.Applied
}

func (p *Pipeline) deduplicate(signals []Signal) ([]Signal, []dedupe.Duplicate) {
	items := make([]dedupe.Item, len(signals))
	byID := make(map[string]Signal, len(signals))
	for i, s := range signals {
		items[i] = dedupe.Item{
			ID:          s.ID,
			Title:       s.Title,
			Fingerprint: dedupe.NewFingerprint(s.Title, s.Summary),
			Score:       s.OriginalScore,
			Sources:     s.Sources,
			Published:   s.Published,
		}
		byID[s.ID] = s
	}

	batch := dedupe.Batch(items, p.threshold)

	out := make([]Signal, 0, len(batch.Unique))
	for _, item := range batch.Unique {
		s := byID[item.ID]
		s.Sources = item.Sources
		s.Published = item.Published
		s.Merged = item.Merged
		out = append(out, s)
	}
	return out, batch.Duplicates
}
