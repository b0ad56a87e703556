package cmd

import (
	"fmt"
	"time"

	"github.com/EslamH-coder/ContentDNA-sub003/internal/ai"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/config"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/evidence"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/feed"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/learning"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/match"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/rank"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagSince   string
	flagRefresh bool
	flagTop     int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Fetch signals and rank them for the channel",
	Long: `Pull candidate signals from the configured sources, match them against
the channel's topics, deduplicate, score the evidence, apply learned
weights and print the ranked result by publish tier.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&flagSince, "since", "7d", "only consider signals from the last duration (e.g., 7d, 24h)")
	rankCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "force refresh sources before ranking")
	rankCmd.Flags().IntVar(&flagTop, "top", 20, "number of signals to print")
}

func runRank(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	channel := cfg.DefaultChannel()
	if flagChannel != "" {
		channel = cfg.Channel(flagChannel)
	}
	if channel == nil {
		return fmt.Errorf("no channel configured (check --channel and config)")
	}

	db, err := store.Open(config.StorePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	if flagRefresh || db.NeedsRefresh(cfg.RefreshDuration()) {
		result := feed.FetchAll(ctx, cfg.EnabledSources())
		for _, ferr := range result.Errors {
			log.Warn("source fetch failed", zap.Error(ferr))
		}
		for i := range result.Signals {
			result.Signals[i].Channel = channel.ID
		}
		if err := db.UpsertSignals(result.Signals); err != nil {
			return fmt.Errorf("storing signals: %w", err)
		}
		if err := db.SetLastRefresh(); err != nil {
			log.Warn("updating refresh marker failed", zap.Error(err))
		}
	}

	since, err := parseSince(flagSince)
	if err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}
	stored, err := db.GetSignals(store.QueryOpts{
		Channel: channel.ID,
		Since:   time.Now().Add(-since),
	})
	if err != nil {
		return fmt.Errorf("loading signals: %w", err)
	}

	weights, err := db.LoadWeights(channel.ID)
	if err != nil {
		return fmt.Errorf("loading weights: %w", err)
	}
	events, err := db.FeedbackEvents(channel.ID)
	if err != nil {
		return fmt.Errorf("loading feedback: %w", err)
	}
	hidden := learning.BuildHidden(events, time.Now())

	var arbiter ai.Arbiter
	if cfg.AIEnabled() {
		client, err := ai.New(ai.Options{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AIKey(),
			Model:    cfg.AI.Model,
			RPS:      cfg.AI.RPS,
		})
		if err != nil {
			return fmt.Errorf("configuring arbiter: %w", err)
		}
		arbiter = client
	}

	matcher := match.New(channelTopics(channel), arbiter, log)
	pipeline := rank.New(matcher, weights, hidden, cfg.Threshold(), log)

	candidates := make([]rank.Signal, 0, len(stored))
	for _, s := range stored {
		sig := rank.Signal{
			ID:        s.ID,
			Title:     s.Title,
			Summary:   s.Summary,
			TopicID:   s.TopicID,
			URL:       s.URL,
			Sources:   []string{s.Source},
			Published: s.Published,
			// No coverage history is tracked for stored signals yet.
			Urgency: rank.Urgency{RecentlyCoveredDays: -1},
		}
		if pm := evidence.BestPersona(s.Title + " " + s.Summary); pm != nil {
			sig.Evidence.PersonaScore = pm.Score
		}
		candidates = append(candidates, sig)
	}

	res := pipeline.Run(ctx, candidates)
	printRanked(res, flagTop)
	return nil
}

func channelTopics(ch *config.Channel) []match.Topic {
	topics := make([]match.Topic, 0, len(ch.Topics))
	for _, t := range ch.Topics {
		topics = append(topics, match.Topic{
			ID:      t.ID,
			Name:    t.Name,
			NameAr:  t.NameAr,
			Keyword: t.Keywords,
			Learned: t.Learned,
		})
	}
	return topics
}

func printRanked(res rank.Result, top int) {
	if len(res.Ranked) == 0 {
		fmt.Println("No relevant signals.")
		return
	}

	currentTier := ""
	shown := 0
	for _, s := range res.Ranked {
		if shown >= top {
			break
		}
		if s.Tier != currentTier {
			currentTier = s.Tier
			fmt.Printf("\n== %s ==\n", currentTier)
		}
		marker := " "
		if s.Protected {
			marker = "*"
		}
		fmt.Printf("%s %3d  [%-18s] %s\n", marker, s.Score, s.Level, s.Title)
		if s.URL != "" {
			fmt.Printf("       %s\n", s.URL)
		}
		if s.Merged > 1 {
			fmt.Printf("       merged from %d signals (%d sources)\n", s.Merged, len(s.Sources))
		}
		shown++
	}

	fmt.Printf("\n%d ranked, %d hidden, %d duplicates removed, %d irrelevant\n",
		len(res.Ranked), len(res.Hidden), len(res.Duplicates), len(res.Irrelevant))
}
