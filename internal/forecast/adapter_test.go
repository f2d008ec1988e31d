package forecast

import (
	"context"
	"testing"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

type stubAdapter struct{ tag string }

func (s stubAdapter) Tag() string { return s.tag }
func (s stubAdapter) FetchDaily(ctx context.Context, coords core.GeoCoordinates) ([]core.ForecastDay, error) {
	return nil, nil
}

func TestRegistryGetReturnsInvalidProviderForUnknownTag(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent")
	if err == nil {
		t.Fatal("expected an error for an unregistered provider tag")
	}
	kind, ok := core.KindOf(err)
	if !ok || kind != core.KindInvalidProvider {
		t.Fatalf("expected KindInvalidProvider, got %v", kind)
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(stubAdapter{tag: "openmeteo"})

	a, err := r.Get("openmeteo")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a.Tag() != "openmeteo" {
		t.Fatalf("Tag() = %q, want openmeteo", a.Tag())
	}
}

func TestRegistryTagsListsAllRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register(stubAdapter{tag: "a"})
	r.Register(stubAdapter{tag: "b"})

	tags := r.Tags()
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
}
