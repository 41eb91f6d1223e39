package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"quizify-engine/internal/domain"
	"quizify-engine/internal/engine"
	"quizify-engine/internal/ratelimit"
)

const (
	rateKey       = "trivia:ratelimit"
	comparisonKey = "quiz:latest_comparison"
	snapshotTTL   = 24 * time.Hour
)

// StateStore keeps the durable key/value state in Redis so rate limits and
// unfinished sessions survive process restarts.
type StateStore struct {
	client *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

func (s *StateStore) LoadRateState(ctx context.Context) (ratelimit.State, bool, error) {
	return loadJSON[ratelimit.State](ctx, s.client, rateKey)
}

func (s *StateStore) SaveRateState(ctx context.Context, state ratelimit.State) error {
	return saveJSON(ctx, s.client, rateKey, state, 0)
}

func (s *StateStore) SaveSnapshot(ctx context.Context, snap engine.Snapshot) error {
	return saveJSON(ctx, s.client, snapshotKey(snap.QuizID), snap, snapshotTTL)
}

func (s *StateStore) LoadSnapshot(ctx context.Context, quizID string) (engine.Snapshot, bool, error) {
	return loadJSON[engine.Snapshot](ctx, s.client, snapshotKey(quizID))
}

func (s *StateStore) ClearSnapshot(ctx context.Context, quizID string) error {
	return s.client.Del(ctx, snapshotKey(quizID)).Err()
}

func (s *StateStore) SaveLatestComparison(ctx context.Context, summary domain.SubmissionSummary) error {
	// The comparison list is the whole point of this record; marshal a
	// wrapper so the json:"-" fields survive the round trip.
	return saveJSON(ctx, s.client, comparisonKey, comparisonRecord{
		Summary:     summary,
		PerQuestion: summary.PerQuestion,
	}, snapshotTTL)
}

func (s *StateStore) LatestComparison(ctx context.Context) (domain.SubmissionSummary, bool, error) {
	record, ok, err := loadJSON[comparisonRecord](ctx, s.client, comparisonKey)
	if err != nil || !ok {
		return domain.SubmissionSummary{}, ok, err
	}
	summary := record.Summary
	summary.PerQuestion = record.PerQuestion
	return summary, true, nil
}

type comparisonRecord struct {
	Summary     domain.SubmissionSummary `json:"summary"`
	PerQuestion []domain.ComparisonEntry `json:"perQuestionComparison"`
}

func snapshotKey(quizID string) string {
	return "quiz:state:" + quizID
}

func loadJSON[T any](ctx context.Context, client *redis.Client, key string) (T, bool, error) {
	var value T
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

func saveJSON(ctx context.Context, client *redis.Client, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}
