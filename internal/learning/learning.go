// Package learning maintains per-channel weights learned from user
// feedback and applies them to recommendation scores. Weights are
// multiplicative and drift slowly: a single piece of feedback nudges,
// a pattern of feedback reshapes.
package learning

import (
	"math"
	"strings"
	"time"

	"github.com/EslamH-coder/ContentDNA-sub003/internal/entity"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/evidence"
)

// Feedback actions.
const (
	ActionLiked    = "liked"
	ActionRejected = "rejected"
	ActionSaved    = "saved"
	ActionProduced = "produced"
	ActionIgnored  = "ignored"
)

// ValidAction reports whether a feedback action is recognized.
func ValidAction(a string) bool {
	switch a {
	case ActionLiked, ActionRejected, ActionSaved, ActionProduced, ActionIgnored:
		return true
	}
	return false
}

// Rejection reasons that feed pattern counters.
const (
	ReasonAngleTooBroad      = "angle_too_broad"
	ReasonNeedsStrongEvidence = "needs_strong_evidence"
)

// Weights apply only after this many feedback events. Below it the
// sample is too small to mean anything.
const MinFeedback = 3

// Multipliers per feedback action.
const (
	categoryBoost   = 1.1
	entityBoost     = 1.08
	personBoost     = 1.05
	categoryPenalty = 0.95
	entityPenalty   = 0.95
	personPenalty   = 0.97
)

// likedPrefixLen is how much of a normalized liked topic must match
// for protection to kick in.
const likedPrefixLen = 40

// Weight tracks one learned multiplier with its feedback tallies.
type Weight struct {
	Liked    int     `json:"liked"`
	Rejected int     `json:"rejected"`
	Value    float64 `json:"weight"`
}

// Weights is the full learned state for one channel. It serializes to
// JSON for storage; the store treats it as opaque.
type Weights struct {
	Categories map[string]*Weight `json:"category_weights,omitempty"`
	Topics     map[string]*Weight `json:"topic_weights,omitempty"`
	Format     map[string]float64 `json:"format_weights,omitempty"`
	Evidence   map[string]float64 `json:"evidence_weights,omitempty"`
	Rejections map[string]int     `json:"rejection_patterns,omitempty"`
	// Liked holds normalized titles of liked recommendations. These
	// are protected: never hidden, score floored at 100.
	Liked         []string `json:"liked_topics,omitempty"`
	FeedbackCount int      `json:"total_feedback_count"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// NewWeights returns an empty weight set.
func NewWeights() *Weights {
	return &Weights{
		Categories: make(map[string]*Weight),
		Topics:     make(map[string]*Weight),
		Format:     make(map[string]float64),
		Evidence:   make(map[string]float64),
		Rejections: make(map[string]int),
	}
}

func (w *Weights) ensureMaps() {
	if w.Categories == nil {
		w.Categories = make(map[string]*Weight)
	}
	if w.Topics == nil {
		w.Topics = make(map[string]*Weight)
	}
	if w.Format == nil {
		w.Format = make(map[string]float64)
	}
	if w.Evidence == nil {
		w.Evidence = make(map[string]float64)
	}
	if w.Rejections == nil {
		w.Rejections = make(map[string]int)
	}
}

// Feedback is one user action on a recommendation.
type Feedback struct {
	Action   string
	Topic    string
	Category string
	Entities entity.Set
	// Reason is an optional rejection reason.
	Reason string
}

// Record folds one feedback event into the weights.
func (w *Weights) Record(fb Feedback) {
	w.ensureMaps()
	w.FeedbackCount++
	w.UpdatedAt = time.Now()

	positive := fb.Action == ActionLiked || fb.Action == ActionSaved || fb.Action == ActionProduced
	negative := fb.Action == ActionRejected
	if !positive && !negative {
		return
	}

	if fb.Category != "" {
		adjust(w.Categories, fb.Category, positive, categoryBoost, categoryPenalty)
	}
	for _, c := range fb.Entities.Countries {
		adjust(w.Topics, strings.ToLower(c), positive, entityBoost, entityPenalty)
	}
	for _, t := range fb.Entities.Topics {
		adjust(w.Topics, strings.ToLower(t), positive, entityBoost, entityPenalty)
	}
	// People get lighter adjustments: leaders show up in too many
	// unrelated stories to learn much from them.
	for _, p := range fb.Entities.People {
		adjust(w.Topics, strings.ToLower(p), positive, personBoost, personPenalty)
	}

	if fb.Action == ActionLiked {
		norm := entity.Normalize(fb.Topic)
		if norm != "" && !contains(w.Liked, norm) {
			w.Liked = append(w.Liked, norm)
		}
	}
	if negative && fb.Reason != "" {
		w.Rejections[fb.Reason]++
	}
}

func adjust(m map[string]*Weight, key string, positive bool, boost, penalty float64) {
	wt, ok := m[key]
	if !ok {
		wt = &Weight{Value: 1.0}
		m[key] = wt
	}
	if positive {
		wt.Liked++
		wt.Value *= boost
	} else {
		wt.Rejected++
		wt.Value *= penalty
	}
}

// Adjustment describes the applied multipliers for one signal.
type Adjustment struct {
	TopicBoost     float64
	FormatBoost    float64
	EvidenceBoost  float64
	RejectionPenal float64
	Angle          AngleAnalysis
	Applied        bool
}

// Apply adjusts a score using the learned weights. Returns the score
// unchanged with Applied=false when there is not enough feedback yet.
// The result is rounded and clamped to [1,100].
func (w *Weights) Apply(topic string, score int, ev evidence.Breakdown) (int, Adjustment) {
	adj := Adjustment{TopicBoost: 1, FormatBoost: 1, EvidenceBoost: 1, RejectionPenal: 1}
	adj.Angle = AnalyzeAngle(topic)

	if w == nil || w.FeedbackCount < MinFeedback {
		return score, adj
	}
	w.ensureMaps()
	adj.Applied = true

	adj.TopicBoost = w.topicBoost(topic)
	adj.FormatBoost = w.formatBoost(adj.Angle)
	adj.EvidenceBoost = w.evidenceBoost(ev)
	adj.RejectionPenal = w.rejectionPenalty(adj.Angle, ev)

	adjusted := float64(score) * adj.TopicBoost * adj.FormatBoost * adj.EvidenceBoost * adj.RejectionPenal
	return Clamp(adjusted), adj
}

// topicBoost multiplies the weights of every learned key mentioned in
// the topic, geometric-averaged so stacking mentions does not explode.
func (w *Weights) topicBoost(topic string) float64 {
	lower := strings.ToLower(topic)
	boost := 1.0
	matched := 0
	for key, wt := range w.Topics {
		if key != "" && strings.Contains(lower, key) {
			boost *= wt.Value
			matched++
		}
	}
	if matched > 1 {
		boost = math.Pow(boost, 1/float64(matched))
	}
	return boost
}

func (w *Weights) formatBoost(angle AngleAnalysis) float64 {
	specific := w.Format["specific_angle"]
	if specific == 0 {
		specific = 1.5
	}
	broad := w.Format["broad_topic"]
	if broad == 0 {
		broad = 0.3
	}

	boost := 1.0
	switch {
	case angle.HasAngle && angle.Confidence >= 0.5:
		boost *= specific
	case angle.HasAngle && angle.Confidence >= 0.3:
		boost *= math.Sqrt(specific)
	case !angle.HasAngle || angle.Type == AngleBroadEntity:
		boost *= broad
	}
	if angle.Type == AngleQuestion {
		if q := w.Format["question_format"]; q != 0 {
			boost *= q
		}
	}
	return boost
}

func (w *Weights) evidenceBoost(ev evidence.Breakdown) float64 {
	boost := 1.0
	if ev.Search > 0 {
		if v := w.Evidence["search_volume"]; v != 0 {
			boost *= v
		}
	}
	if ev.Competitor > 0 {
		if v := w.Evidence["competitor_proof"]; v != 0 {
			boost *= v
		}
	}
	if ev.Comments > 0 {
		if v := w.Evidence["audience_comments"]; v != 0 {
			boost *= v
		}
	}
	return boost
}

func (w *Weights) rejectionPenalty(angle AngleAnalysis, ev evidence.Breakdown) float64 {
	penalty := 1.0
	if w.Rejections[ReasonAngleTooBroad] >= 2 {
		if !angle.HasAngle {
			penalty *= 0.5
		} else if angle.Confidence < 0.4 {
			penalty *= 0.7
		}
	}
	if w.Rejections[ReasonNeedsStrongEvidence] >= 1 && ev.Weak() {
		penalty *= 0.7
	}
	return penalty
}

// Protected reports whether a topic matches a liked recommendation.
// Matching is a partial prefix comparison so later rewordings of the
// same story stay protected.
func (w *Weights) Protected(topic string) bool {
	if w == nil || len(w.Liked) == 0 {
		return false
	}
	norm := entity.Normalize(topic)
	if norm == "" {
		return false
	}
	for _, liked := range w.Liked {
		if strings.Contains(norm, prefix(liked, likedPrefixLen)) ||
			strings.Contains(liked, prefix(norm, likedPrefixLen)) {
			return true
		}
	}
	return false
}

// ProtectScore floors a protected signal's score at 100 so it never
// drops out of view.
func ProtectScore(score int) int {
	if score < 100 {
		return 100
	}
	return score
}

// Clamp rounds and clamps a score to [1,100].
func Clamp(score float64) int {
	s := int(math.Round(score))
	if s < 1 {
		return 1
	}
	if s > 100 {
		return 100
	}
	return s
}

// Level maps a final score to a recommendation level.
func Level(score int) string {
	switch {
	case score >= 80:
		return "highly_recommended"
	case score >= 50:
		return "recommended"
	default:
		return "consider"
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
