package learning

import "testing"

func TestAnalyzeAngleQuestion(t *testing.T) {
	a := AnalyzeAngle("Will OPEC cuts actually raise oil prices this winter?")
	if a.Type != AngleQuestion {
		t.Errorf("Type = %s, want question", a.Type)
	}
	if !a.HasAngle {
		t.Error("question title should have an angle")
	}
	if a.Confidence < 0.5 {
		t.Errorf("Confidence = %v, want >= 0.5", a.Confidence)
	}
}

func TestAnalyzeAngleArabicQuestion(t *testing.T) {
	a := AnalyzeAngle("لماذا ترتفع أسعار النفط رغم زيادة الإنتاج؟")
	if a.Type != AngleQuestion {
		t.Errorf("Type = %s, want question", a.Type)
	}
	if !a.HasAngle {
		t.Error("Arabic question should have an angle")
	}
}

func TestAnalyzeAngleEvent(t *testing.T) {
	a := AnalyzeAngle("Washington imposes sweeping export restrictions")
	if a.Type != AngleEvent {
		t.Errorf("Type = %s, want event", a.Type)
	}
	if !a.HasAngle {
		t.Error("action title should have an angle")
	}
}

func TestAnalyzeAngleComparison(t *testing.T) {
	a := AnalyzeAngle("China and Russia deepen their energy partnership")
	if a.Type != AngleComparison {
		t.Errorf("Type = %s, want comparison", a.Type)
	}
	if !a.HasAngle {
		t.Error("two-entity title should have an angle")
	}
}

func TestAnalyzeAngleBroadEntity(t *testing.T) {
	for _, topic := range []string{"China", "Trump", "Tesla news"} {
		a := AnalyzeAngle(topic)
		if a.Type != AngleBroadEntity {
			t.Errorf("AnalyzeAngle(%q).Type = %s, want broad_entity", topic, a.Type)
		}
		if a.HasAngle {
			t.Errorf("AnalyzeAngle(%q) should not have an angle", topic)
		}
		if a.Confidence != 0 {
			t.Errorf("AnalyzeAngle(%q).Confidence = %v, want 0", topic, a.Confidence)
		}
	}
}

func TestAnalyzeAngleShortVagueTitle(t *testing.T) {
	a := AnalyzeAngle("markets update")
	if a.HasAngle {
		t.Errorf("short vague title should not have an angle, got %+v", a)
	}
}

func TestAnalyzeAngleEmpty(t *testing.T) {
	a := AnalyzeAngle("")
	if a.HasAngle || a.Type != AngleNone {
		t.Errorf("empty topic: got %+v", a)
	}
}

func TestAnalyzeAngleConfidenceCapped(t *testing.T) {
	a := AnalyzeAngle("Why does Washington's new 2026 crisis policy threaten sweeping sanctions against Moscow's oil exports?")
	if a.Confidence != 1 {
		t.Errorf("Confidence = %v, want capped at 1", a.Confidence)
	}
}
