package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tu "github.com/desertthunder/tvbf/internal/testing"
	"golang.org/x/oauth2"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != "http://localhost:8080" {
				t.Errorf("expected default baseURL 'http://localhost:8080', got %s", srv.baseURL)
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	send := map[string]func(a *APIService, ctx context.Context, path string) (*APIResponse, error){
		http.MethodGet: func(a *APIService, ctx context.Context, path string) (*APIResponse, error) {
			return a.Get(ctx, path)
		},
		http.MethodPost: func(a *APIService, ctx context.Context, path string) (*APIResponse, error) {
			return a.Post(ctx, path, []byte(`{"q":"harbor"}`))
		},
	}

	t.Run("Get Show", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/api/shows/1" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept = %q", r.Header.Get("Accept"))
			}
			w.Header().Set("X-Total", "1")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":1,"name":"Harbor Lights"}`))
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/api/shows/1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !resp.OK() || !resp.IsJSON || resp.JSONData == nil {
			t.Errorf("unexpected response: %+v", resp)
		}
		if resp.Headers.Get("X-Total") != "1" {
			t.Errorf("response headers not preserved: %v", resp.Headers)
		}
	})

	t.Run("Post Sends JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
			}
			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds["username"] != "alice" {
				t.Errorf("unexpected body %v (%v)", creds, err)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte("created"))
		}))
		defer server.Close()

		body, _ := json.Marshal(map[string]string{"username": "alice"})
		resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/login", body)
		if err != nil {
			t.Fatalf("Post() error = %v", err)
		}
		if resp.StatusCode != http.StatusCreated || resp.IsJSON || string(resp.Body) != "created" {
			t.Errorf("unexpected response: %d %v %q", resp.StatusCode, resp.IsJSON, resp.Body)
		}
	})

	t.Run("Post Nil Body Sends Empty Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if len(body) != 0 {
				t.Errorf("expected empty body, got %q", body)
			}
		}))
		defer server.Close()

		if _, err := NewAPIService(server.URL, nil).Post(context.Background(), "/logout", nil); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
	})

	for method, call := range send {
		t.Run(method+" Failures", func(t *testing.T) {
			tests := []struct {
				name    string
				client  *http.Client
				path    string
				want    string
				context func() context.Context
			}{
				{name: "Bad Path", path: "/shows\x00", want: "failed to create request"},
				{
					name:   "Transport Error",
					client: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
					path:   "/shows",
					want:   "request failed",
				},
				{
					name: "Body Read Error",
					client: &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
						StatusCode: http.StatusOK,
						Body:       &tu.FCloser{},
						Header:     http.Header{},
					}, nil)},
					path: "/shows",
					want: "failed to read response",
				},
				{
					name: "Canceled Context",
					path: "/shows",
					want: "request failed",
					context: func() context.Context {
						ctx, cancel := context.WithCancel(context.Background())
						cancel()
						return ctx
					},
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					ctx := context.Background()
					if tt.context != nil {
						ctx = tt.context()
					}
					_, err := call(NewAPIService("http://127.0.0.1:1", tt.client), ctx, tt.path)
					if err == nil || !strings.Contains(err.Error(), tt.want) {
						t.Errorf("expected %q error, got %v", tt.want, err)
					}
				})
			}
		})
	}

	t.Run("Do", func(t *testing.T) {
		t.Run("Sets Request ID", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(RequestIDHeader)
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			if _, err := srv.Do(context.Background(), http.MethodDelete, "/test", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 36 {
				t.Errorf("expected UUID request ID, got %q", got)
			}
		})

		t.Run("No Body Omits Content-Type", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ct := r.Header.Get("Content-Type"); ct != "" {
					t.Errorf("expected no Content-Type, got %s", ct)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			if _, err := srv.Get(context.Background(), "/test"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("WithToken Overwrites Caller Authorization", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer A1" {
					t.Errorf("expected 'Bearer A1', got %s", got)
				}
				if got := r.Header.Get("X-Extra"); got != "yes" {
					t.Errorf("expected X-Extra 'yes', got %s", got)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			header := http.Header{}
			header.Set("Authorization", "Bearer caller")
			header.Set("X-Extra", "yes")

			_, err := srv.Get(context.Background(), "/test",
				WithHeader(header),
				WithToken(&oauth2.Token{AccessToken: "A1", TokenType: "Bearer"}),
			)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("WithToken Empty Leaves Header Alone", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("expected no Authorization header, got %s", got)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			if _, err := srv.Get(context.Background(), "/test", WithToken(nil), WithToken(&oauth2.Token{})); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Trims Trailing Slash From BaseURL", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/health" {
					t.Errorf("expected path '/api/health', got %s", r.URL.Path)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL+"/", nil)
			if srv.BaseURL() != server.URL {
				t.Errorf("expected base URL %s, got %s", server.URL, srv.BaseURL())
			}
			if _, err := srv.Get(context.Background(), "/api/health"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("APIResponse", func(t *testing.T) {
		t.Run("JSON Detection", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"valid": "json"}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.IsJSON {
				t.Error("expected valid JSON to be detected")
			}

			jsonMap, ok := resp.JSONData.(map[string]any)
			if !ok {
				t.Error("expected JSONData to be map[string]interface{}")
			}
			if jsonMap["valid"] != "json" {
				t.Errorf("expected JSONData['valid'] to be 'json', got %v", jsonMap["valid"])
			}
		})

		t.Run("Invalid JSON Detection", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("not json"))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected invalid JSON to not be detected as JSON")
			}
			if resp.JSONData != nil {
				t.Error("expected JSONData to be nil for invalid JSON")
			}
		})

		t.Run("OK And Decode", func(t *testing.T) {
			resp := &APIResponse{StatusCode: http.StatusCreated, Body: []byte(`{"id": 7}`)}
			if !resp.OK() {
				t.Error("expected 201 to be OK")
			}

			var out struct {
				ID int `json:"id"`
			}
			if err := resp.Decode(&out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out.ID != 7 {
				t.Errorf("expected id 7, got %d", out.ID)
			}

			bad := &APIResponse{StatusCode: http.StatusUnauthorized, Body: []byte("nope")}
			if bad.OK() {
				t.Error("expected 401 to not be OK")
			}
			if err := bad.Decode(&out); err == nil {
				t.Error("expected decode error for non-JSON body")
			}
		})
	})
}
