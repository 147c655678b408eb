// Package scheduler posts a daily mod-log digest: the day's archived
// moderation actions per server, formatted and delivered to the server's
// configured digest channel.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ModMate/db"
	"ModMate/moderation"

	"github.com/inconshreveable/log15"
	"github.com/robfig/cron/v3"
)

var logger = log15.New("module", "scheduler")

// DefaultCronSpec posts the digest every day at 09:00.
const DefaultCronSpec = "0 9 * * *"

// Summarizer condenses the formatted activity log before it is posted.
type Summarizer interface {
	SummarizeActivity(ctx context.Context, log string) (string, error)
}

// Start schedules the digest job. Returns nil when the archive is disabled.
func Start(cronSpec string, gw moderation.Gateway, summ Summarizer) (*cron.Cron, error) {
	if !db.Enabled() {
		logger.Warn("archive disabled, digest scheduler not started")
		return nil, nil
	}
	if cronSpec == "" {
		cronSpec = DefaultCronSpec
	}

	c := cron.New()
	if _, err := c.AddFunc(cronSpec, func() { postDigests(gw, summ) }); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", cronSpec, err)
	}
	c.Start()
	logger.Info("digest scheduler started", "spec", cronSpec)
	return c, nil
}

func postDigests(gw moderation.Gateway, summ Summarizer) {
	configs, err := db.GetAllServerConfigs()
	if err != nil {
		logger.Error("failed to fetch server configs", "err", err)
		return
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	for _, config := range configs {
		if config.DigestChannelID == "" {
			continue
		}

		actions, err := db.GetActionsForServerSince(config.ServerID, since)
		if err != nil {
			logger.Error("failed to fetch actions", "server", config.ServerID, "err", err)
			continue
		}
		if len(actions) == 0 {
			logger.Info("no actions to digest", "server", config.ServerID)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := gw.SendMessage(ctx, config.DigestChannelID, digestMessage(ctx, summ, actions)); err != nil {
			logger.Error("failed to post digest", "server", config.ServerID, "err", err)
		}
		cancel()
	}
}

// digestMessage renders the day's actions and has the oracle condense them.
// When the oracle is unavailable the raw listing is posted on its own.
func digestMessage(ctx context.Context, summ Summarizer, actions []db.ModActionRecord) string {
	formatted := formatDigest(actions)
	summary, err := summ.SummarizeActivity(ctx, formatted)
	if err != nil {
		logger.Error("digest summarization failed, posting raw log", "err", err)
		return formatted
	}
	return formatted + "\nSummary: " + summary
}

// formatDigest groups the day's actions per user.
func formatDigest(actions []db.ModActionRecord) string {
	userMap := make(map[string][]db.ModActionRecord)
	var order []string
	for _, a := range actions {
		if _, ok := userMap[a.UserID]; !ok {
			order = append(order, a.UserID)
		}
		userMap[a.UserID] = append(userMap[a.UserID], a)
	}

	var digest strings.Builder
	digest.WriteString("Moderation digest for the last 24 hours:\n")
	for _, userID := range order {
		fmt.Fprintf(&digest, "\n• <@%s>\n", userID)
		for _, a := range userMap[userID] {
			fmt.Fprintf(&digest, "   - %s (message: %s)\n", a.Action, a.Content)
		}
	}
	return digest.String()
}
