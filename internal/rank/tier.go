package rank

// Publish-urgency tiers.
const (
	TierPostToday   = "post_today"
	TierThisWeek    = "this_week"
	TierBacklog     = "backlog"
	TierNeedsReview = "needs_review"
	TierReject      = "reject"
)

var tierOrder = map[string]int{
	TierPostToday:   4,
	TierThisWeek:    3,
	TierBacklog:     2,
	TierNeedsReview: 1,
	TierReject:      0,
}

// TierRank orders tiers for sorting; higher is more urgent.
func TierRank(tier string) int {
	return tierOrder[tier]
}

// Urgency windows for post_today triggers, in hours.
const (
	breakoutWindow       = 48
	trendsetterWindow    = 24
	trendsetterLateWin   = 72
	postTodayScoreFloor  = 50
	postTodayHighScore   = 80
	thisWeekScoreFloor   = 50
	backlogScoreFloor    = 30
	recentlyCoveredDays  = 3
	multiCompetitorCount = 3
)

// CompetitorSignal is one competitor video matching a signal's story.
type CompetitorSignal struct {
	// Direct marks a direct competitor rather than an adjacent channel.
	Direct bool
	// ViewsRatio is the video's views over that channel's median.
	ViewsRatio float64
	HoursAgo   float64
}

// Boost converts competitor activity into a bounded evidence bonus.
// It never exceeds 25 points, so competitor noise cannot carry a
// signal past the quality bands on its own.
func Boost(matches []CompetitorSignal) int {
	if len(matches) == 0 {
		return 0
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if m.ViewsRatio > best.ViewsRatio {
			best = m
		}
	}

	boost := 0
	if best.Direct {
		boost += 15
	} else {
		boost += 10
	}
	switch {
	case best.ViewsRatio >= 3:
		boost += 10
	case best.ViewsRatio >= 2:
		boost += 5
	}
	if len(matches) >= 2 {
		boost += 5
	}
	if boost > 25 {
		boost = 25
	}
	return boost
}

// Urgency describes the time-sensitive context around a signal.
type Urgency struct {
	Competitors []CompetitorSignal
	// Trendsetter is set when a trendsetting channel posted the story.
	Trendsetter         bool
	TrendsetterHoursAgo float64
	// RecentlyCoveredDays is how many days ago the user covered this
	// same story; negative means never.
	RecentlyCoveredDays float64
	// NewDevelopment overrides the recently-covered demotion.
	NewDevelopment bool
}

func (u Urgency) recentlyCovered() bool {
	return u.RecentlyCoveredDays >= 0 && u.RecentlyCoveredDays < recentlyCoveredDays && !u.NewDevelopment
}

func (u Urgency) directBreakoutRecent() bool {
	for _, c := range u.Competitors {
		if c.Direct && c.HoursAgo < breakoutWindow {
			return true
		}
	}
	return false
}

func (u Urgency) competitorsRecent() int {
	n := 0
	for _, c := range u.Competitors {
		if c.HoursAgo < breakoutWindow {
			n++
		}
	}
	return n
}

// AssignTier picks the publish tier for a scored signal. post_today
// needs both a minimum score and an urgency trigger; a story the user
// already covered days ago is demoted unless it has a new development.
func AssignTier(score int, u Urgency) string {
	if !u.recentlyCovered() && score >= postTodayScoreFloor {
		switch {
		case u.directBreakoutRecent():
			return TierPostToday
		case u.Trendsetter && u.TrendsetterHoursAgo < trendsetterWindow:
			return TierPostToday
		case u.competitorsRecent() >= multiCompetitorCount:
			return TierPostToday
		case score >= postTodayHighScore && len(u.Competitors) > 0:
			return TierPostToday
		case u.Trendsetter && u.TrendsetterHoursAgo < trendsetterLateWin && len(u.Competitors) >= 2:
			return TierPostToday
		}
	}

	switch {
	case score >= thisWeekScoreFloor:
		return TierThisWeek
	case score >= backlogScoreFloor:
		return TierBacklog
	default:
		return TierNeedsReview
	}
}
