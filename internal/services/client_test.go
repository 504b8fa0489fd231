package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
	tu "github.com/desertthunder/emosense/internal/testing"
)

func newTestClient(t *testing.T, serverURL string, fx *tu.Fixture) *Client {
	t.Helper()
	c, err := NewClient(ClientOptions{BaseURL: serverURL, Logger: fx.Logger}, fx.Session)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		t.Run("Empty BaseURL", func(t *testing.T) {
			fx := tu.NewFixture(t, session.HomePath)
			if _, err := NewClient(ClientOptions{}, fx.Session); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("Credentials Attach Cookie Jar", func(t *testing.T) {
			fx := tu.NewFixture(t, session.HomePath)
			c, err := NewClient(ClientOptions{BaseURL: "http://example.com", UseCredentials: true}, fx.Session)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.httpClient.Jar == nil {
				t.Error("expected cookie jar when credentials are included")
			}

			c, _ = NewClient(ClientOptions{BaseURL: "http://example.com"}, fx.Session)
			if c.httpClient.Jar != nil {
				t.Error("expected no cookie jar by default")
			}
		})

		t.Run("Custom Client Is Not Mutated", func(t *testing.T) {
			fx := tu.NewFixture(t, session.HomePath)
			custom := &http.Client{}
			if _, err := NewClient(ClientOptions{BaseURL: "http://example.com", HTTPClient: custom, UseCredentials: true}, fx.Session); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if custom.Jar != nil {
				t.Error("expected caller's client to stay untouched")
			}
		})
	})

	t.Run("Request Construction", func(t *testing.T) {
		fx := tu.NewFixture(t, session.HomePath)
		_ = fx.Session.Tokens.Set(ctx, "t1")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/items" {
				t.Errorf("expected path /api/items, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("q") != "a b" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer t1" {
				t.Errorf("expected bearer header, got %q", got)
			}
			if got := r.Header.Get("Content-Type"); got != "application/json" {
				t.Errorf("expected JSON content type, got %q", got)
			}
			if r.Header.Get("X-Request-ID") == "" {
				t.Error("expected request ID header")
			}

			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["hello"] != "world" {
				t.Errorf("unexpected body %v (%v)", body, err)
			}
			jsonHandler(http.StatusOK, `{"ok":true}`)(w, r)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL+"/api", fx)
		resp, err := c.Do(ctx, http.MethodPost, "/items", RequestOptions{
			Params: map[string]string{"page": "2", "q": "a b"},
			Body:   map[string]string{"hello": "world"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(resp.Body) != `{"ok":true}` {
			t.Errorf("expected raw body, got %s", resp.Body)
		}
	})

	t.Run("No Token No Authorization Header", func(t *testing.T) {
		fx := tu.NewFixture(t, session.HomePath)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Error("expected no Authorization header without token")
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		if _, err := newTestClient(t, server.URL, fx).Get(ctx, "/x", nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Explicit Content Type And Reader Body", func(t *testing.T) {
		fx := tu.NewFixture(t, session.HomePath)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Content-Type"); got != "image/png" {
				t.Errorf("expected image/png, got %q", got)
			}
			data, _ := io.ReadAll(r.Body)
			if string(data) != "raw-bytes" {
				t.Errorf("expected raw body, got %q", data)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL, fx).Do(ctx, http.MethodPut, "/upload", RequestOptions{
			Body:        strings.NewReader("raw-bytes"),
			ContentType: "image/png",
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Classification", func(t *testing.T) {
		tc := []struct {
			name       string
			httpStatus int
			body       string
			wantErr    string
			wantStatus int
			teardown   bool
		}{
			{name: "envelope success", httpStatus: 200, body: `{"status":200,"data":{}}`},
			{name: "envelope numeric string success", httpStatus: 200, body: `{"status":"201"}`},
			{name: "envelope word status", httpStatus: 200, body: `{"status":"success"}`},
			{name: "envelope null status", httpStatus: 200, body: `{"status":null}`, wantErr: "API error: null", wantStatus: 200},
			{name: "envelope boolean status", httpStatus: 200, body: `{"status":true}`, wantErr: "API error: true", wantStatus: 200},
			{name: "envelope empty string status", httpStatus: 200, body: `{"status":""}`, wantErr: "API error: ", wantStatus: 200},
			{name: "envelope string 401 is not an auth failure", httpStatus: 200, body: `{"status":"401","message":"denied"}`, wantErr: "denied", wantStatus: 200},
			{name: "envelope failure with message", httpStatus: 200, body: `{"status":400,"message":"bad image"}`, wantErr: "bad image", wantStatus: 400},
			{name: "envelope failure without message", httpStatus: 200, body: `{"status":500}`, wantErr: "API error: 500", wantStatus: 500},
			{name: "envelope 401 wins over http 200", httpStatus: 200, body: `{"status":401}`, wantErr: "Unauthorized: Please log in again", wantStatus: 401, teardown: true},
			{name: "envelope failure with http 401", httpStatus: 401, body: `{"status":403,"message":"nope"}`, wantErr: "Unauthorized: Please log in again", wantStatus: 401, teardown: true},
			{name: "envelope success http failure", httpStatus: 500, body: `{"status":200}`, wantErr: "unexpected API response: 500", wantStatus: 500},
			{name: "no status http failure", httpStatus: 422, body: `{"detail":"invalid"}`, wantErr: "API error: 422", wantStatus: 422},
			{name: "no status http 401", httpStatus: 401, body: `{"detail":"expired"}`, wantErr: "Unauthorized: Please log in again", wantStatus: 401, teardown: true},
			{name: "non-object http 401", httpStatus: 401, body: `not json`, wantErr: "Unauthorized: Please log in again", wantStatus: 401, teardown: true},
			{name: "array body success", httpStatus: 200, body: `[1,2,3]`},
			{name: "non-json success", httpStatus: 200, body: `plain text`},
			{name: "non-json failure", httpStatus: 502, body: `<html>bad gateway</html>`, wantErr: "API error: 502", wantStatus: 502},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				fx := tu.NewFixture(t, "/dashboard")
				_ = fx.Session.Start(ctx, "t1", models.Profile{ID: "1"})

				server := httptest.NewServer(jsonHandler(tt.httpStatus, tt.body))
				defer server.Close()

				resp, err := newTestClient(t, server.URL, fx).Get(ctx, "/x", nil)

				if tt.wantErr == "" {
					if err != nil {
						t.Fatalf("expected success, got %v", err)
					}
					if string(resp.Body) != tt.body {
						t.Errorf("expected body %s, got %s", tt.body, resp.Body)
					}
				} else {
					var apiErr *APIError
					if !errors.As(err, &apiErr) {
						t.Fatalf("expected *APIError, got %v", err)
					}
					if apiErr.Error() != tt.wantErr {
						t.Errorf("expected error %q, got %q", tt.wantErr, apiErr.Error())
					}
					if apiErr.StatusCode() != tt.wantStatus {
						t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.StatusCode())
					}
					if tt.httpStatus == 502 && !errors.Is(err, shared.ErrServiceUnavailable) {
						t.Errorf("expected ErrServiceUnavailable, got %v", err)
					}
				}

				_, hasToken := fx.Session.Token(ctx)
				if tt.teardown {
					if hasToken || fx.Session.User(ctx) != nil {
						t.Error("expected token and profile cleared")
					}
					if !IsUnauthorized(err) {
						t.Errorf("expected ErrUnauthorized, got %v", err)
					}
					if fx.Router.Location() != "/auth?from=%2Fdashboard" {
						t.Errorf("expected login redirect, got %s", fx.Router.Location())
					}
				} else {
					if !hasToken {
						t.Error("expected token kept")
					}
					if len(fx.Router.History()) != 0 {
						t.Errorf("expected no navigation, got %v", fx.Router.History())
					}
				}
			})
		}
	})

	t.Run("Concurrent 401 Redirects Once", func(t *testing.T) {
		fx := tu.NewFixture(t, "/")
		_ = fx.Session.Start(ctx, "t1", models.Profile{ID: "1"})

		server := httptest.NewServer(jsonHandler(http.StatusUnauthorized, `{}`))
		defer server.Close()
		c := newTestClient(t, server.URL, fx)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := c.Get(ctx, "/x", nil); !IsUnauthorized(err) {
					t.Errorf("expected unauthorized, got %v", err)
				}
			}()
		}
		wg.Wait()

		if got := fx.Router.History(); len(got) != 1 {
			t.Errorf("expected a single redirect, got %v", got)
		}
	})

	t.Run("Transport Errors", func(t *testing.T) {
		t.Run("Failed HTTP Request", func(t *testing.T) {
			fx := tu.NewFixture(t, session.HomePath)
			hc := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			c, _ := NewClient(ClientOptions{BaseURL: "http://example.com", HTTPClient: hc, Logger: fx.Logger}, fx.Session)

			_, err := c.Get(ctx, "/x", nil)
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Body Read", func(t *testing.T) {
			fx := tu.NewFixture(t, session.HomePath)
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
			hc := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
			c, _ := NewClient(ClientOptions{BaseURL: "http://example.com", HTTPClient: hc, Logger: fx.Logger}, fx.Session)

			_, err := c.Get(ctx, "/x", nil)
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			fx := tu.NewFixture(t, session.HomePath)
			c, _ := NewClient(ClientOptions{BaseURL: "http://example.com", Logger: fx.Logger}, fx.Session)

			_, err := c.Get(ctx, "/test\x00invalid", nil)
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Unencodable Body", func(t *testing.T) {
			fx := tu.NewFixture(t, session.HomePath)
			c, _ := NewClient(ClientOptions{BaseURL: "http://example.com", Logger: fx.Logger}, fx.Session)

			_, err := c.Post(ctx, "/x", map[string]any{"ch": make(chan int)})
			if err == nil || !strings.Contains(err.Error(), "failed to encode request body") {
				t.Errorf("expected encode error, got %v", err)
			}
		})
	})

	t.Run("Rate Limit Honors Context", func(t *testing.T) {
		fx := tu.NewFixture(t, session.HomePath)
		server := httptest.NewServer(jsonHandler(http.StatusOK, `{}`))
		defer server.Close()

		c, _ := NewClient(ClientOptions{BaseURL: server.URL, RateLimit: 0.001, Logger: fx.Logger}, fx.Session)
		if _, err := c.Get(ctx, "/x", nil); err != nil {
			t.Fatalf("first request should pass the limiter: %v", err)
		}

		tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		if _, err := c.Get(tctx, "/x", nil); err == nil || !strings.Contains(err.Error(), "rate limiter") {
			t.Errorf("expected rate limiter error, got %v", err)
		}
	})
}

func TestResponseDecode(t *testing.T) {
	t.Run("Envelope Data", func(t *testing.T) {
		r := &Response{Body: []byte(`{"status":200,"data":{"id":"1","name":"A"}}`)}
		var p models.Profile
		if err := r.Decode(&p); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if p.ID != "1" || p.Name != "A" {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("Bare Body", func(t *testing.T) {
		r := &Response{Body: []byte(`{"id":"2","name":"B"}`)}
		var p models.Profile
		if err := r.Decode(&p); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if p.ID != "2" {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("Bare Array", func(t *testing.T) {
		r := &Response{Body: []byte(`[{"id":"1"},{"id":"2"}]`)}
		var users []models.Profile
		if err := r.Decode(&users); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		r := &Response{Body: []byte(`nope`)}
		var p models.Profile
		if err := r.Decode(&p); err == nil {
			t.Error("expected decode error")
		}
	})
}
