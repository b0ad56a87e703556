package store

import "time"

// Signal is a persisted candidate signal.
type Signal struct {
	ID        string
	Channel   string
	Title     string
	Summary   string
	TopicID   string
	Source    string
	URL       string
	Published time.Time
	FetchedAt time.Time
}

type QueryOpts struct {
	Channel string
	Since   time.Time
	Search  string
	Limit   int
}
