package models

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Validator is implemented by payloads that check themselves before being sent.
type Validator interface {
	Validate() error
}

// Profile is the signed-in user.
//
// Role is an open string in practice; only [RoleAdmin] unlocks admin views.
type Profile struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	Role            string          `json:"role"`
	Emotion         string          `json:"emotion,omitempty"`
	Image           string          `json:"profile,omitempty"`
	IsAuthenticated bool            `json:"isAuthenticated,omitempty"`
	EmotionHistory  []EmotionRecord `json:"emotion_history,omitempty"`

	// Extra keeps fields this client does not model so a stored profile round-trips unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// profileFields is Profile without its JSON methods.
type profileFields Profile

var profileKeys = []string{"id", "email", "name", "role", "emotion", "profile", "isAuthenticated", "emotion_history"}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var fields profileFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	for _, k := range profileKeys {
		delete(extra, k)
	}
	if len(extra) == 0 {
		extra = nil
	}

	*p = Profile(fields)
	p.Extra = extra
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(profileFields(p))
	if err != nil || len(p.Extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && strings.EqualFold(p.Role, RoleAdmin)
}

// EmotionRecord is a single detection result.
type EmotionRecord struct {
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// timestampLayouts are tried in order when reviving a record timestamp.
// The API emits naive ISO timestamps (no zone) which are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp revives a serialized timestamp. Unrecognized input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r *EmotionRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Emotion    string          `json:"emotion"`
		Confidence float64         `json:"confidence"`
		Timestamp  json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Emotion = raw.Emotion
	r.Confidence = raw.Confidence
	r.Timestamp = time.Time{}

	var ts string
	if err := json.Unmarshal(raw.Timestamp, &ts); err == nil {
		r.Timestamp = ParseTimestamp(ts)
	}
	return nil
}

// ConfidencePercent formats the confidence as a whole percentage, e.g. "87%".
func (r EmotionRecord) ConfidencePercent() string {
	return fmt.Sprintf("%.0f%%", r.Confidence*100)
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// Registration is the payload an admin sends to create a user.
type Registration struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Validate applies the registration form rules and defaults the role to employee.
func (r *Registration) Validate() error {
	if len(strings.TrimSpace(r.Name)) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("please enter a valid email address")
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if r.Role == "" {
		r.Role = RoleEmployee
	}
	return nil
}

// AuthResult is the payload returned by login and register.
type AuthResult struct {
	AccessToken string  `json:"access_token"`
	User        Profile `json:"user"`
}
