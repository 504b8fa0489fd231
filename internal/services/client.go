package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Session is the part of the session context the client needs.
type Session interface {
	Token(ctx context.Context) (string, bool)
	Unauthorized(ctx context.Context)
}

// ClientOptions configures a [Client]. Zero values select defaults.
type ClientOptions struct {
	BaseURL        string
	HTTPClient     *http.Client
	Timeout        time.Duration
	UseCredentials bool    // attach a cookie jar, the equivalent of credentials "include"
	RateLimit      float64 // requests per second, 0 disables limiting
	Logger         *log.Logger
}

// Client issues authenticated requests against the API base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a [Client] bound to sess.
func NewClient(opts ClientOptions, sess Session) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: API base URL is empty", shared.ErrInvalidConfig)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var hc http.Client
	if opts.HTTPClient != nil {
		hc = *opts.HTTPClient
	} else {
		hc = http.Client{Timeout: opts.Timeout}
	}
	if opts.UseCredentials {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	c := &Client{
		baseURL:    opts.BaseURL,
		httpClient: &hc,
		session:    sess,
		logger:     shared.WithLogger(opts.Logger, "component", "api"),
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c, nil
}

// RequestOptions holds the optional parts of a request.
//
// Body is sent as-is when it is an [io.Reader] or []byte and JSON-encoded otherwise. ContentType
// overrides the default application/json, e.g. for multipart form bodies.
type RequestOptions struct {
	Params      map[string]string
	Body        any
	ContentType string
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the envelope "data" field into v, or the whole body when there is none.
func (r *Response) Decode(v any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// APIError is an HTTP or application-level failure.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string   { return e.Message }
func (e *APIError) Unwrap() error   { return e.Err }
func (e *APIError) StatusCode() int { return e.Status }

func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, RequestOptions{Params: params})
}

func (c *Client) Post(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, endpoint, RequestOptions{Body: body})
}

// Do sends one request and classifies the response.
func (c *Client) Do(ctx context.Context, method, endpoint string, opts RequestOptions) (*Response, error) {
	fullURL, err := c.buildURL(endpoint, opts.Params)
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if token, ok := c.session.Token(ctx); ok {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("API response",
		"method", method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"))

	return c.classify(ctx, resp, data)
}

func (c *Client) buildURL(endpoint string, params map[string]string) (string, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Add(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

func (c *Client) classify(ctx context.Context, resp *http.Response, body []byte) (*Response, error) {
	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	httpOK := resp.StatusCode >= 200 && resp.StatusCode < 300

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil && obj != nil {
		if raw, ok := obj["status"]; ok {
			if st := parseStatus(raw); st.numeric && (st.code < 200 || st.code >= 300) {
				if (st.literal && st.code == http.StatusUnauthorized) || resp.StatusCode == http.StatusUnauthorized {
					return nil, c.unauthorized(ctx)
				}
				msg := messageOf(obj)
				if msg == "" {
					msg = "API error: " + st.text
				}
				// only a JSON number is reported as the status; "401" must not read as an auth failure
				status := resp.StatusCode
				if st.literal {
					status = st.code
				}
				return nil, &APIError{Status: status, Message: msg, Err: shared.ErrAPIRequest}
			}

			if !httpOK {
				return nil, &APIError{
					Status:  resp.StatusCode,
					Message: fmt.Sprintf("unexpected API response: %d", resp.StatusCode),
					Err:     shared.ErrAPIRequest,
				}
			}
			return out, nil
		}
	}

	if !httpOK {
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, c.unauthorized(ctx)
		}
		kind := shared.ErrAPIRequest
		if resp.StatusCode >= 500 {
			kind = shared.ErrServiceUnavailable
		}
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("API error: %d", resp.StatusCode),
			Err:     kind,
		}
	}
	return out, nil
}

func (c *Client) unauthorized(ctx context.Context) error {
	c.session.Unauthorized(ctx)
	return &APIError{
		Status:  http.StatusUnauthorized,
		Message: shared.ErrUnauthorized.Error(),
		Err:     shared.ErrUnauthorized,
	}
}

// envelopeStatus is an envelope status field read with loose numeric coercion: numeric strings,
// null, empty strings and booleans all count as numbers, while words like "success" do not.
type envelopeStatus struct {
	code    int
	text    string
	numeric bool // coerces to a number
	literal bool // a JSON number
}

func parseStatus(raw json.RawMessage) envelopeStatus {
	trimmedRaw := bytes.TrimSpace(raw)
	if len(trimmedRaw) > 0 && trimmedRaw[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(trimmedRaw, &n); err == nil {
			if f, err := n.Float64(); err == nil {
				return envelopeStatus{code: int(f), text: n.String(), numeric: true, literal: true}
			}
		}
	}

	var s string
	if err := json.Unmarshal(trimmedRaw, &s); err == nil {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return envelopeStatus{text: s, numeric: true}
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return envelopeStatus{code: int(f), text: s, numeric: true}
		}
		return envelopeStatus{text: s}
	}

	switch string(trimmedRaw) {
	case "null", "false":
		return envelopeStatus{text: string(raw), numeric: true}
	case "true":
		return envelopeStatus{code: 1, text: "true", numeric: true}
	}
	return envelopeStatus{text: string(trimmedRaw)}
}

func messageOf(obj map[string]json.RawMessage) string {
	var msg string
	if raw, ok := obj["message"]; ok {
		if err := json.Unmarshal(raw, &msg); err != nil {
			return ""
		}
	}
	return msg
}

// IsUnauthorized reports whether err is the client's unauthorized failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, shared.ErrUnauthorized)
}
