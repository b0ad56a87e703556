package learning

import (
	"time"

	"github.com/EslamH-coder/ContentDNA-sub003/internal/entity"
)

// Hide windows. Rejected topics stay hidden until the user changes
// their mind explicitly; produced and saved ones resurface after a
// week so follow-up stories are not lost.
const (
	HideProducedFor = 168 * time.Hour
	HideSavedFor    = 168 * time.Hour

	fuzzyHideThreshold = 0.8
)

// Event is one feedback event as stored, used to rebuild hide state.
type Event struct {
	Action    string
	Topic     string
	CreatedAt time.Time
}

// Hidden holds the topics currently suppressed for a channel.
type Hidden struct {
	rejected []string
	expiring []string // produced/saved, still inside their window
}

// BuildHidden derives the hide set from feedback events at a point in
// time. Liked topics are never hidden regardless of later events.
func BuildHidden(events []Event, now time.Time) *Hidden {
	h := &Hidden{}
	for _, ev := range events {
		norm := entity.Normalize(ev.Topic)
		if norm == "" {
			continue
		}
		switch ev.Action {
		case ActionRejected:
			if !contains(h.rejected, norm) {
				h.rejected = append(h.rejected, norm)
			}
		case ActionProduced:
			if now.Sub(ev.CreatedAt) < HideProducedFor && !contains(h.expiring, norm) {
				h.expiring = append(h.expiring, norm)
			}
		case ActionSaved:
			if now.Sub(ev.CreatedAt) < HideSavedFor && !contains(h.expiring, norm) {
				h.expiring = append(h.expiring, norm)
			}
		}
	}
	return h
}

// ShouldHide reports whether a topic matches the hide set, either
// exactly or by fuzzy word overlap. Protection is checked by the
// caller first; a protected topic never reaches here.
func (h *Hidden) ShouldHide(topic string) (bool, string) {
	if h == nil {
		return false, ""
	}
	norm := entity.Normalize(topic)
	if norm == "" {
		return false, ""
	}

	for _, r := range h.rejected {
		if norm == r {
			return true, "rejected"
		}
	}
	for _, e := range h.expiring {
		if norm == e {
			return true, "recently_acted_on"
		}
	}
	for _, r := range h.rejected {
		if entity.Similarity(norm, r) > fuzzyHideThreshold {
			return true, "rejected_similar"
		}
	}
	for _, e := range h.expiring {
		if entity.Similarity(norm, e) > fuzzyHideThreshold {
			return true, "recently_acted_on_similar"
		}
	}
	return false, ""
}
