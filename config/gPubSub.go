package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// WeeklyReportMessage asks a worker to (re)compute one household's report.
// An empty WeekStartDate means the Monday of the current week.
type WeeklyReportMessage struct {
	HouseholdId   string `json:"household_id"`
	WeekStartDate string `json:"week_start_date,omitempty"`
	CorrelationId string `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

// GetClient returns a Pub/Sub client, initializing with retries if needed.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func GetClient(ctx context.Context) (*pubsub.Client, error) {
	return getPubSubClient(ctx)
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run sets this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		return v
	}
	return ""
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var attempt int
	for {
		attempt++

		var (
			c   *pubsub.Client
			err error
		)
		if credJSON != "" {
			c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
		} else {
			// Application Default Credentials (Cloud Run service account or GOOGLE_APPLICATION_CREDENTIALS).
			c, err = pubsub.NewClient(ctx, projectID)
		}
		if err == nil {
			pubsubClientMu.Lock()
			if pubsubClient == nil {
				pubsubClient = c
			} else {
				// Another goroutine won the race; close ours.
				_ = c.Close()
			}
			c2 := pubsubClient
			pubsubClientMu.Unlock()

			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return c2, nil
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to init pubsub client (project_id=%s attempt=%d): %v; retrying in %s", projectID, attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// weeklyReportTopic reads WEEKLY_REPORT_TOPIC, falling back to PUBSUB_TOPIC.
func weeklyReportTopic() string {
	if v := os.Getenv("WEEKLY_REPORT_TOPIC"); v != "" {
		return v
	}
	return os.Getenv("PUBSUB_TOPIC")
}

// PublishWeeklyReportRequests publishes one message per household and waits for every
// publish result. It returns the number published and the first error seen.
func PublishWeeklyReportRequests(ctx context.Context, msgs []WeeklyReportMessage) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	client, err := getPubSubClient(ctx)
	if err != nil {
		return 0, err
	}

	topicName := weeklyReportTopic()
	if topicName == "" {
		return 0, errors.New("WEEKLY_REPORT_TOPIC or PUBSUB_TOPIC is required")
	}
	t := client.Topic(topicName)
	defer t.Stop()

	results := make([]*pubsub.PublishResult, 0, len(msgs))
	for _, msg := range msgs {
		msgJSON, err := json.Marshal(msg)
		if err != nil {
			return 0, err
		}
		results = append(results, t.Publish(ctx, &pubsub.Message{
			Data: msgJSON,
			Attributes: map[string]string{
				"household_id": msg.HouseholdId,
			},
		}))
	}

	var firstErr error
	published := 0
	for i, r := range results {
		if _, err := r.Get(ctx); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("publish weekly report request for %s: %w", msgs[i].HouseholdId, err)
			}
			continue
		}
		published++
	}
	return published, firstErr
}
