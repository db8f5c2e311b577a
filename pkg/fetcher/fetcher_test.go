package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><head><title>  Cosy  loft </title></head><body>ok "+r.Header.Get("X-Test")+"</body></html>")
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/busy", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	mux.HandleFunc("/private/x", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "secret")
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// --- Static Fetch Tests ---

func TestStatic_GetHTML(t *testing.T) {
	srv := newTestServer(t)
	f := NewStatic(StaticConfig{})

	content, err := f.Fetch(context.Background(), srv.URL+"/page", Options{Headers: map[string]string{"X-Test": "hdr"}})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if content.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", content.StatusCode)
	}
	if content.Title != "Cosy loft" {
		t.Errorf("Title = %q, want %q", content.Title, "Cosy loft")
	}
	if got := string(content.Body); !strings.Contains(got, "ok hdr") {
		t.Errorf("Body = %q, want custom header echoed", got)
	}
}

func TestStatic_PostBody(t *testing.T) {
	srv := newTestServer(t)
	f := NewStatic(StaticConfig{})

	content, err := f.Fetch(context.Background(), srv.URL+"/api", Options{
		Method: http.MethodPost,
		Body:   []byte(`{"operationName":"StaysSearch"}`),
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(content.Body) != `{"operationName":"StaysSearch"}` {
		t.Errorf("Body = %s", content.Body)
	}
	if content.Title != "" {
		t.Errorf("Title should be empty for JSON, got %q", content.Title)
	}
}

func TestStatic_StatusErrors(t *testing.T) {
	srv := newTestServer(t)
	f := NewStatic(StaticConfig{})

	tests := []struct {
		path string
		want int
	}{
		{"/missing", http.StatusNotFound},
		{"/busy", http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			content, err := f.Fetch(context.Background(), srv.URL+tt.path, Options{})
			if err == nil {
				t.Fatal("expected status error")
			}
			if got := StatusCode(err); got != tt.want {
				t.Errorf("StatusCode(err) = %d, want %d", got, tt.want)
			}
			if content.StatusCode != tt.want {
				t.Errorf("content.StatusCode = %d, want %d", content.StatusCode, tt.want)
			}
		})
	}
}

func TestStatic_RobotsTxt(t *testing.T) {
	srv := newTestServer(t)

	respectful := NewStatic(StaticConfig{RespectRobotsTxt: true})
	_, err := respectful.Fetch(context.Background(), srv.URL+"/private/x", Options{})
	if !errors.Is(err, ErrBlockedByRobots) {
		t.Errorf("Fetch() error = %v, want ErrBlockedByRobots", err)
	}

	ignoring := NewStatic(StaticConfig{RespectRobotsTxt: false})
	if _, err := ignoring.Fetch(context.Background(), srv.URL+"/private/x", Options{}); err != nil {
		t.Errorf("Fetch() with robots ignored error = %v", err)
	}
}

func TestStatic_ContextCancelled(t *testing.T) {
	srv := newTestServer(t)
	f := NewStatic(StaticConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL+"/slow", Options{})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if time.Since(start) > time.Second {
		t.Errorf("cancelled fetch took %v", time.Since(start))
	}
}

func TestStatic_UnsupportedMethod(t *testing.T) {
	f := NewStatic(StaticConfig{})
	_, err := f.Fetch(context.Background(), "http://example.invalid", Options{Method: http.MethodDelete})
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("Fetch() error = %v, want ErrUnsupportedMethod", err)
	}
}

func TestNewStatic_Defaults(t *testing.T) {
	f := NewStatic(StaticConfig{})
	if f.config.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", f.config.UserAgent)
	}
	if f.config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", f.config.Timeout)
	}
	if f.Type() != "static" {
		t.Errorf("Type() = %q", f.Type())
	}
}

// --- Dynamic Tests ---

func TestDynamic_RejectsPost(t *testing.T) {
	f := NewDynamic(DynamicConfig{Headless: true})
	defer f.Close()

	_, err := f.Fetch(context.Background(), "http://example.invalid", Options{Method: http.MethodPost})
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("Fetch() error = %v, want ErrUnsupportedMethod", err)
	}
	if f.Type() != "dynamic" {
		t.Errorf("Type() = %q", f.Type())
	}
}

// --- StatusError Tests ---

func TestStatusCode_Wrapped(t *testing.T) {
	err := &StatusError{URL: "u", StatusCode: 503}
	wrapped := errors.Join(errors.New("outer"), err)
	if StatusCode(wrapped) != 503 {
		t.Errorf("StatusCode() = %d, want 503", StatusCode(wrapped))
	}
	if StatusCode(errors.New("plain")) != 0 {
		t.Error("StatusCode() of plain error should be 0")
	}
}

// --- FindChrome Tests ---

func TestFindChrome(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	lookPath = func(name string) (string, error) {
		if name == "chromium" {
			return "/usr/bin/chromium", nil
		}
		return "", errors.New("not found")
	}
	if got := FindChrome(); got != "/usr/bin/chromium" {
		t.Errorf("FindChrome() = %q", got)
	}

	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if got := FindChrome(); got != "" {
		t.Errorf("FindChrome() = %q, want empty", got)
	}
}
