package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_ListSystems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/systems" {
			t.Errorf("path = %s, want /systems", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`[{"id":"fem_long","name":"FEM long","system_type":"RP","compound_count":400}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	systems, err := c.ListSystems(context.Background())
	if err != nil {
		t.Fatalf("ListSystems() error = %v", err)
	}
	if len(systems) != 1 {
		t.Fatalf("got %d systems, want 1", len(systems))
	}
	if systems[0].ID != "fem_long" || systems[0].CompoundCount != 400 {
		t.Errorf("system = %+v", systems[0])
	}
}

func TestClient_FetchSystem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/systems/fem_long/rts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"compound":"Caffeine","inchi":"InChI=1S/caf","rt":3.2}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ms, err := c.FetchSystem(context.Background(), "fem_long")
	if err != nil {
		t.Fatalf("FetchSystem() error = %v", err)
	}
	if len(ms) != 1 || ms[0].Compound != "Caffeine" || ms[0].RT != 3.2 {
		t.Errorf("measurements = %+v", ms)
	}
}

func TestClient_FetchSystem_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchSystem(context.Background(), "empty"); err == nil {
		t.Fatal("expected error for system without measurements")
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such system", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.FetchSystem(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

func TestClient_APIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAPIKey("secret"))
	if _, err := c.ListSystems(context.Background()); err != nil {
		t.Fatalf("ListSystems() error = %v", err)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	c := NewClient("http://127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.ListSystems(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
