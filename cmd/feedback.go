package cmd

import (
	"fmt"
	"strings"

	"github.com/EslamH-coder/ContentDNA-sub003/internal/config"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/dedupe"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/entity"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/learning"
	"github.com/EslamH-coder/ContentDNA-sub003/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagReason string

var feedbackCmd = &cobra.Command{
	Use:   "feedback <action> <topic title>",
	Short: "Record feedback on a recommendation",
	Long: `Record a feedback action for a topic and fold it into the channel's
learned weights. Valid actions: liked, rejected, saved, produced, ignored.

Rejections can carry a reason with --reason (angle_too_broad,
needs_strong_evidence).`,
	Args: cobra.MinimumNArgs(2),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&flagReason, "reason", "", "rejection reason")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	action := args[0]
	topic := strings.Join(args[1:], " ")

	if !learning.ValidAction(action) {
		return fmt.Errorf("invalid action %q (valid: liked, rejected, saved, produced, ignored)", action)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	channel := cfg.DefaultChannel()
	if flagChannel != "" {
		channel = cfg.Channel(flagChannel)
	}
	if channel == nil {
		return fmt.Errorf("no channel configured")
	}

	db, err := store.Open(config.StorePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	id, err := db.RecordFeedback(channel.ID, action, topic, flagReason)
	if err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}

	// Weight updates ride along with recording but never fail it:
	// the event row is the source of truth.
	fp := dedupe.NewFingerprint(topic, "")
	err = db.UpdateWeights(channel.ID, func(w *learning.Weights) error {
		w.Record(learning.Feedback{
			Action:   action,
			Topic:    topic,
			Category: fp.Category,
			Entities: entity.Extract(topic),
			Reason:   flagReason,
		})
		return nil
	})
	if err != nil {
		log.Warn("updating learned weights failed", zap.Error(err))
	}

	fmt.Printf("Recorded %s for %q (event %s)\n", action, topic, id)
	return nil
}
