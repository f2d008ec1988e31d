package forecast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

func TestDoSucceedsOnFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := HTTPConfig{
		Client:  srv.Client(),
		Breaker: NewBreaker("test-ok"),
		Timeout: DefaultTimeout,
	}

	resp, err := Do(context.Background(), "test-ok", cfg, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	resp.Body.Close()
}

func TestDoSurfacesUpstreamTransientOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := HTTPConfig{
		Client:  srv.Client(),
		Breaker: NewBreaker("test-404"),
		Timeout: DefaultTimeout,
	}

	_, err := Do(context.Background(), "test-404", cfg, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err == nil {
		t.Fatal("expected an error for a non-2xx, non-retryable response")
	}
	if kind, ok := core.KindOf(err); !ok || kind != core.KindUpstreamTransient {
		t.Fatalf("expected KindUpstreamTransient, got %v", kind)
	}
}
