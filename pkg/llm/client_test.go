package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"askit-go/internal/config"
	"askit-go/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

func newTestClient(baseURL string, maxRetries int) Client {
	return NewClient(config.AIConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "gemini-2.0-flash",
		TimeoutSeconds: 5,
		MaxRetries:     maxRetries,
	})
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("api key = %q", got)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"world.\n"}]}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 0).Generate(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != "Hello world." {
		t.Fatalf("Generate = %q, want concatenated trimmed parts", got)
	}
}

func TestGenerateAuthErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Generate(context.Background(), "p")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("Generate error = %v, want ErrAuth", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("auth failure retried %d times, want single call", n)
	}
}

func TestGenerateQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, 0).Generate(context.Background(), "p"); !errors.Is(err, ErrQuota) {
		t.Fatalf("Generate error = %v, want ErrQuota", err)
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"candidates":`},
		{"empty candidates", `{"candidates":[]}`},
		{"empty parts", `{"candidates":[{"content":{"parts":[]}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			if _, err := newTestClient(srv.URL, 0).Generate(context.Background(), "p"); !errors.Is(err, ErrMalformed) {
				t.Fatalf("Generate error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"recovered"}]}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 1).Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate returned error after retry: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("Generate = %q, want recovered response", got)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("call count = %d, want 2", n)
	}
}

func TestGenerateExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1).Generate(context.Background(), "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Generate error = %v, want ErrUnavailable", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("call count = %d, want initial attempt plus one retry", n)
	}
}

func TestGenerateContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestClient(srv.URL, 0).Generate(ctx, "p"); err == nil {
		t.Fatal("Generate with cancelled context must fail")
	}
}
