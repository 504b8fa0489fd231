package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/models"
)

// SessionStore persists the signed-in profile and its emotion history.
//
// Reads never fail: missing or malformed values are logged and read as absent.
type SessionStore struct {
	kv     *KVRepository
	logger *log.Logger
}

// NewSessionStore creates a [SessionStore] backed by kv.
func NewSessionStore(kv *KVRepository, logger *log.Logger) *SessionStore {
	return &SessionStore{kv: kv, logger: logger}
}

// GetUser returns the cached profile, or nil when none is stored or it cannot be parsed.
func (s *SessionStore) GetUser(ctx context.Context) *models.Profile {
	raw, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		s.logger.Error("Error getting user from storage", "error", err)
		return nil
	}
	if raw == nil || *raw == "" {
		return nil
	}

	var p models.Profile
	if err := json.Unmarshal([]byte(*raw), &p); err != nil {
		s.logger.Error("Error parsing stored user", "error", err)
		return nil
	}
	return &p
}

// SaveUser stores profile as given, marked authenticated.
func (s *SessionStore) SaveUser(ctx context.Context, profile models.Profile) error {
	profile.IsAuthenticated = true

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.kv.Set(ctx, KeyUser, string(data))
}

func (s *SessionStore) ClearUser(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyUser)
}

// GetEmotionHistory returns the cached history in stored order, or an empty slice.
func (s *SessionStore) GetEmotionHistory(ctx context.Context) []models.EmotionRecord {
	raw, err := s.kv.Get(ctx, KeyEmotionHistory)
	if err != nil {
		s.logger.Error("Error getting emotion history from storage", "error", err)
		return []models.EmotionRecord{}
	}
	if raw == nil || *raw == "" {
		return []models.EmotionRecord{}
	}

	var records []models.EmotionRecord
	if err := json.Unmarshal([]byte(*raw), &records); err != nil {
		s.logger.Error("Error parsing stored emotion history", "error", err)
		return []models.EmotionRecord{}
	}
	if records == nil {
		records = []models.EmotionRecord{}
	}
	return records
}

// ReplaceEmotionHistory overwrites the stored history with records.
func (s *SessionStore) ReplaceEmotionHistory(ctx context.Context, records []models.EmotionRecord) error {
	if records == nil {
		records = []models.EmotionRecord{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode emotion history: %w", err)
	}
	return s.kv.Set(ctx, KeyEmotionHistory, string(data))
}

func (s *SessionStore) ClearEmotionHistory(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyEmotionHistory)
}

// EmotionStats counts the cached history per lower-cased label.
func (s *SessionStore) EmotionStats(ctx context.Context) map[string]int {
	stats := make(map[string]int)
	for _, r := range s.GetEmotionHistory(ctx) {
		stats[strings.ToLower(r.Emotion)]++
	}
	return stats
}
