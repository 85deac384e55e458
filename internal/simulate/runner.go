// Package simulate drives a live service through a full session over its
// HTTP API with synthetic members. Registered handles are fabricated, so the
// external gateway lookups will fail and every participant scores zero; the
// point is exercising the window lifecycle, not the scoring math.
package simulate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/raidline/pkg/logger"
)

// Run executes a complete simulated session.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting session simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("members", config.Members),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("close", config.Close),
	)

	client := newHTTPClient(config.Timeout, config.AdminToken)

	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	members := generateMembers(config.Members)

	if err := registerMembers(ctx, client, config, members, stats); err != nil {
		return fmt.Errorf("member registration failed: %w", err)
	}
	if err := openWindow(ctx, client, config); err != nil {
		return fmt.Errorf("window open failed: %w", err)
	}
	if err := submitLinks(ctx, client, config, members, stats); err != nil {
		return fmt.Errorf("link submission failed: %w", err)
	}

	if err := showStatus(ctx, client, config); err != nil {
		logger.Get().Warn(ctx, "status fetch failed", logger.Error(err))
	}

	if config.Close {
		if err := closeWindow(ctx, client, config); err != nil {
			return fmt.Errorf("window close failed: %w", err)
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient, config *Config) error {
	resp, err := client.get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	// Any 200 is healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// registerMembers registers every synthetic member.
func registerMembers(ctx context.Context, client *httpClient, config *Config, members []Member, stats *Stats) error {
	for _, m := range members {
		resp, err := client.post(ctx, config.BaseURL+"/registrations",
			map[string]string{"member": m.ID, "handle": m.Handle})
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("registration rejected with status: %d", resp.StatusCode)
		}
		stats.MembersRegistered++
		if config.Verbose {
			logger.Get().Info(ctx, "registered member",
				logger.String("member", m.ID),
				logger.String("handle", m.Handle),
			)
		}
	}
	logger.Get().Info(ctx, "members registered", logger.Int("count", stats.MembersRegistered))
	return nil
}

// openWindow opens a session on demand. An already-open window is fine.
func openWindow(ctx context.Context, client *httpClient, config *Config) error {
	resp, err := client.post(ctx, config.BaseURL+"/session/open", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		logger.Get().Info(ctx, "window opened")
		return nil
	case http.StatusConflict:
		logger.Get().Info(ctx, "window already open, reusing it")
		return nil
	default:
		return fmt.Errorf("open rejected with status: %d", resp.StatusCode)
	}
}

// submitLinks posts each member's link into the open window.
func submitLinks(ctx context.Context, client *httpClient, config *Config, members []Member, stats *Stats) error {
	for _, m := range members {
		resp, err := client.post(ctx, config.BaseURL+"/submissions",
			map[string]string{"member": m.ID, "text": "check this out " + m.Link})
		if err != nil {
			return err
		}
		var ack submissionAck
		if err := readJSON(resp, &ack); err != nil {
			return fmt.Errorf("failed to decode submission ack: %w", err)
		}
		if ack.Recorded {
			stats.SubmissionsPosted++
		} else {
			stats.SubmissionsIgnored++
		}
		if config.Verbose {
			logger.Get().Info(ctx, "submitted link",
				logger.String("member", m.ID),
				logger.String("target", ack.Target),
				logger.Any("recorded", ack.Recorded),
			)
		}
	}
	logger.Get().Info(ctx, "links submitted",
		logger.Int("posted", stats.SubmissionsPosted),
		logger.Int("ignored", stats.SubmissionsIgnored),
	)
	return nil
}

// closeWindow closes the session, which scores it and emits the report on
// the service side.
func closeWindow(ctx context.Context, client *httpClient, config *Config) error {
	resp, err := client.post(ctx, config.BaseURL+"/session/close", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("close rejected with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "window closed and scored")
	return nil
}

// showStatus fetches and logs the machine status.
func showStatus(ctx context.Context, client *httpClient, config *Config) error {
	resp, err := client.get(ctx, config.BaseURL+"/status")
	if err != nil {
		return err
	}
	var st statusView
	if err := readJSON(resp, &st); err != nil {
		return err
	}
	logger.Get().Info(ctx, "machine status",
		logger.String("state", st.State),
		logger.String("session", st.SessionID),
		logger.Int("targets", st.Targets),
		logger.Int("participants", st.Participants),
	)
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("membersRegistered", stats.MembersRegistered),
		logger.Int("submissionsPosted", stats.SubmissionsPosted),
		logger.Int("submissionsIgnored", stats.SubmissionsIgnored),
		logger.String("duration", stats.Duration.String()),
	)
}
