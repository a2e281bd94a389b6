package fx

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeStore is an in-memory CacheStore for tests.
type fakeStore struct {
	entries map[string]CachedRate
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]CachedRate)}
}

func (s *fakeStore) Get(ctx context.Context, key string) (CachedRate, bool, error) {
	entry, ok := s.entries[key]
	return entry, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, entry CachedRate) error {
	s.entries[key] = entry
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	delete(s.entries, key)
	return nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.entries = make(map[string]CachedRate)
	return nil
}

func rateServer(calls *int32, serviceDate string, rate float64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		to := r.URL.Query().Get("to")
		fmt.Fprintf(w, `{"base":%q,"date":%q,"rates":{%q:%v}}`, r.URL.Query().Get("from"), serviceDate, to, rate)
	}))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestResolveIdentityNoNetworkCall(t *testing.T) {
	var calls int32
	srv := rateServer(&calls, "2024-06-10", 1.08)
	defer srv.Close()

	r := NewResolver(nil, Config{BaseURL: srv.URL})
	rate, err := r.Resolve(context.Background(), mustDate(t, "2024-06-10"), "EUR", "EUR")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rate.Rate != 1 {
		t.Errorf("identity rate = %v, want 1", rate.Rate)
	}
	if rate.Source != SourceIdentity {
		t.Errorf("identity source = %v, want %v", rate.Source, SourceIdentity)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("identity resolve issued %d network calls, want 0", calls)
	}
}

func TestResolveMemoryTierCaching(t *testing.T) {
	var calls int32
	srv := rateServer(&calls, "2024-06-10", 1.08)
	defer srv.Close()

	r := NewResolver(nil, Config{BaseURL: srv.URL})
	date := mustDate(t, "2024-06-10")

	first, err := r.Resolve(context.Background(), date, "EUR", "USD")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if first.Source != SourceLive {
		t.Errorf("first resolve source = %v, want %v", first.Source, SourceLive)
	}
	if math.Abs(first.Rate-1.08) > 1e-9 {
		t.Errorf("rate = %v, want 1.08", first.Rate)
	}

	second, err := r.Resolve(context.Background(), date, "EUR", "USD")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if second.Source != SourceCached {
		t.Errorf("second resolve source = %v, want %v", second.Source, SourceCached)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("two resolves issued %d network calls, want 1", calls)
	}
}

func TestResolveDurableTierSurvivesNewResolver(t *testing.T) {
	var calls int32
	srv := rateServer(&calls, "2024-06-10", 1.08)
	defer srv.Close()

	store := newFakeStore()
	date := mustDate(t, "2024-06-10")

	r1 := NewResolver(store, Config{BaseURL: srv.URL})
	if _, err := r1.Resolve(context.Background(), date, "EUR", "USD"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// A fresh resolver has an empty memory tier but shares the durable tier.
	r2 := NewResolver(store, Config{BaseURL: srv.URL})
	rate, err := r2.Resolve(context.Background(), date, "EUR", "USD")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rate.Source != SourceCached {
		t.Errorf("durable hit source = %v, want %v", rate.Source, SourceCached)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("durable tier hit issued %d network calls, want 1", calls)
	}
}

func TestResolveDurableTierTTLExpiry(t *testing.T) {
	var calls int32
	srv := rateServer(&calls, "2024-06-10", 1.08)
	defer srv.Close()

	store := newFakeStore()
	date := mustDate(t, "2024-06-10")
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	r1 := NewResolver(store, Config{BaseURL: srv.URL, Now: clock})
	if _, err := r1.Resolve(context.Background(), date, "EUR", "USD"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// 25h later the durable entry is expired, purged and refetched.
	now = now.Add(25 * time.Hour)
	r2 := NewResolver(store, Config{BaseURL: srv.URL, Now: clock})
	rate, err := r2.Resolve(context.Background(), date, "EUR", "USD")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rate.Source != SourceLive {
		t.Errorf("post-expiry source = %v, want %v", rate.Source, SourceLive)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expired entry caused %d network calls, want 2", calls)
	}

	entry, ok := store.entries["2024-06-10_EUR_USD"]
	if !ok {
		t.Fatal("refetched rate was not written back to the durable tier")
	}
	if entry.CachedAt != now.Unix() {
		t.Errorf("refreshed CachedAt = %d, want %d", entry.CachedAt, now.Unix())
	}
}

func TestResolveFutureDateUsesLatest(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"base":"EUR","date":"2024-06-10","rates":{"USD":1.08}}`)
	}))
	defer srv.Close()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	r := NewResolver(nil, Config{BaseURL: srv.URL, Now: func() time.Time { return now }})

	rate, err := r.Resolve(context.Background(), mustDate(t, "2024-07-01"), "EUR", "USD")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want fallback to latest", err)
	}
	if !strings.HasSuffix(gotPath, "/latest") {
		t.Errorf("future date hit path %q, want /latest", gotPath)
	}
	if rate.Date.Format("2006-01-02") != "2024-06-10" {
		t.Errorf("rate date = %v, want the service-returned 2024-06-10", rate.Date)
	}
}

func TestResolveServiceDateSnapping(t *testing.T) {
	var calls int32
	// Requesting a Sunday; the service answers with Friday's rate.
	srv := rateServer(&calls, "2024-06-07", 1.08)
	defer srv.Close()

	r := NewResolver(newFakeStore(), Config{BaseURL: srv.URL})
	requested := mustDate(t, "2024-06-09")

	rate, err := r.Resolve(context.Background(), requested, "EUR", "USD")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rate.Date.Format("2006-01-02") != "2024-06-07" {
		t.Errorf("rate date = %v, want snapped 2024-06-07", rate.Date)
	}

	// Cached under the originally-requested key: no second fetch.
	if _, err := r.Resolve(context.Background(), requested, "EUR", "USD"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("snapped date resolve issued %d network calls, want 1", calls)
	}
}

func TestResolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "service error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream down", http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `not json`)
			},
		},
		{
			name: "rate missing for target currency",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"base":"EUR","date":"2024-06-10","rates":{"GBP":0.85}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			r := NewResolver(nil, Config{BaseURL: srv.URL})
			if _, err := r.Resolve(context.Background(), mustDate(t, "2024-06-10"), "EUR", "USD"); err == nil {
				t.Error("Resolve() error = nil, want conversion failure")
			}
		})
	}
}

func TestClearCacheWipesBothTiers(t *testing.T) {
	var calls int32
	srv := rateServer(&calls, "2024-06-10", 1.08)
	defer srv.Close()

	store := newFakeStore()
	r := NewResolver(store, Config{BaseURL: srv.URL})
	date := mustDate(t, "2024-06-10")

	if _, err := r.Resolve(context.Background(), date, "EUR", "USD"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := r.ClearCache(context.Background()); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if len(store.entries) != 0 {
		t.Errorf("durable tier has %d entries after ClearCache, want 0", len(store.entries))
	}

	if _, err := r.Resolve(context.Background(), date, "EUR", "USD"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("resolve after ClearCache issued %d total network calls, want 2", calls)
	}
}
