package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
)

const detectEndpoint = "/emotion-detection/detect"

// DetectionResult is the detect endpoint response. Status may be a number or a word like "success".
type DetectionResult struct {
	Status  json.RawMessage       `json:"status"`
	Message string                `json:"message,omitempty"`
	Data    *models.EmotionRecord `json:"data,omitempty"`
}

// Emotion returns the detected label, or "" when the response carried none.
func (r *DetectionResult) Emotion() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.Emotion
}

type detectRequest struct {
	Image  string `json:"image"`
	UserID string `json:"user_id"`
}

// EmotionService submits images for detection.
type EmotionService struct {
	client  *Client
	auth    *AuthService
	session *session.Session
	logger  *log.Logger
}

func NewEmotionService(client *Client, auth *AuthService, sess *session.Session, logger *log.Logger) *EmotionService {
	return &EmotionService{client: client, auth: auth, session: sess, logger: shared.WithLogger(logger, "component", "emotion")}
}

// StripDataURI removes a "data:<mime>;base64," prefix.
func StripDataURI(image string) string {
	if _, data, ok := strings.Cut(image, "base64,"); ok {
		return data
	}
	return image
}

// Detect submits a base64 image for userID.
func (s *EmotionService) Detect(ctx context.Context, image, userID string) (*DetectionResult, error) {
	resp, err := s.client.Post(ctx, detectEndpoint, detectRequest{Image: StripDataURI(image), UserID: userID})
	if err != nil {
		return nil, err
	}

	var result DetectionResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode detection response: %w", err)
	}
	return &result, nil
}

// DetectAndRefresh detects for the cached user and refreshes the session on success.
func (s *EmotionService) DetectAndRefresh(ctx context.Context, image string) (*DetectionResult, error) {
	user := s.session.User(ctx)
	if user == nil || user.ID == "" {
		s.logger.Error("Emotion detection or refresh failed", "error", shared.ErrUserNotFound)
		return nil, shared.ErrUserNotFound
	}

	result, err := s.Detect(ctx, image, user.ID)
	if err != nil {
		s.logger.Error("Emotion detection or refresh failed", "error", err)
		return nil, err
	}

	s.auth.Refresh(ctx)
	return result, nil
}
