package learning

import (
	"testing"
	"time"
)

func TestBuildHiddenRejectedNeverExpires(t *testing.T) {
	now := time.Now()
	h := BuildHidden([]Event{
		{Action: ActionRejected, Topic: "Celebrity crypto endorsements", CreatedAt: now.Add(-90 * 24 * time.Hour)},
	}, now)

	hide, reason := h.ShouldHide("Celebrity crypto endorsements")
	if !hide || reason != "rejected" {
		t.Errorf("got hide=%v reason=%q, want rejected", hide, reason)
	}
}

func TestBuildHiddenProducedExpires(t *testing.T) {
	now := time.Now()
	h := BuildHidden([]Event{
		{Action: ActionProduced, Topic: "OPEC output cut", CreatedAt: now.Add(-100 * time.Hour)},
		{Action: ActionProduced, Topic: "Gold price rally", CreatedAt: now.Add(-200 * time.Hour)},
	}, now)

	if hide, _ := h.ShouldHide("OPEC output cut"); !hide {
		t.Error("produced 100h ago should still be hidden")
	}
	if hide, _ := h.ShouldHide("Gold price rally"); hide {
		t.Error("produced 200h ago should have resurfaced")
	}
}

func TestBuildHiddenSavedExpires(t *testing.T) {
	now := time.Now()
	h := BuildHidden([]Event{
		{Action: ActionSaved, Topic: "Iran sanctions deal", CreatedAt: now.Add(-24 * time.Hour)},
	}, now)

	hide, reason := h.ShouldHide("Iran sanctions deal")
	if !hide || reason != "recently_acted_on" {
		t.Errorf("got hide=%v reason=%q, want recently_acted_on", hide, reason)
	}
}

func TestShouldHideFuzzyMatch(t *testing.T) {
	now := time.Now()
	h := BuildHidden([]Event{
		{Action: ActionRejected, Topic: "China imposes sweeping new tariffs on US goods", CreatedAt: now},
	}, now)

	// Near-identical rewording crosses the fuzzy threshold.
	hide, reason := h.ShouldHide("China imposes sweeping new tariffs on EU goods")
	if !hide || reason != "rejected_similar" {
		t.Errorf("got hide=%v reason=%q, want rejected_similar", hide, reason)
	}

	// A different story about the same subject does not.
	if hide, _ := h.ShouldHide("China lifts tariffs after trade talks succeed"); hide {
		t.Error("loosely related topic should not be hidden")
	}
}

func TestShouldHideNilAndEmpty(t *testing.T) {
	var h *Hidden
	if hide, _ := h.ShouldHide("anything"); hide {
		t.Error("nil hide set should hide nothing")
	}

	h = BuildHidden(nil, time.Now())
	if hide, _ := h.ShouldHide("anything"); hide {
		t.Error("empty hide set should hide nothing")
	}
	if hide, _ := h.ShouldHide(""); hide {
		t.Error("empty topic should never be hidden")
	}
}

func TestBuildHiddenLikedNotHidden(t *testing.T) {
	now := time.Now()
	h := BuildHidden([]Event{
		{Action: ActionLiked, Topic: "Energy transition investment", CreatedAt: now},
	}, now)

	if hide, _ := h.ShouldHide("Energy transition investment"); hide {
		t.Error("liked topics must never be hidden")
	}
}
