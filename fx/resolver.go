package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

type RateSource string

const (
	SourceLive     RateSource = "live"
	SourceCached   RateSource = "cached"
	SourceIdentity RateSource = "identity"
)

// FXRate is a historical conversion rate for one (date, from, to) triple.
// Date is the date the rate actually applies to, which may be earlier than
// the requested date (weekends and holidays snap to the last trading day).
type FXRate struct {
	Rate   float64    `json:"rate"`
	Date   time.Time  `json:"date"`
	From   string     `json:"from"`
	To     string     `json:"to"`
	Source RateSource `json:"source"`
}

type Config struct {
	BaseURL    string
	TTL        time.Duration // durable-tier time-to-live, measured from insertion
	HTTPClient *http.Client
	Now        func() time.Time
}

// Resolver resolves historical FX rates through a two-tier cache: an
// in-process memory tier (session lifetime) and an optional durable tier
// with a TTL. Construct one per process; all methods are safe for
// concurrent use. Races on the same key are benign: identical keys always
// resolve to identical values, so the last writer wins.
type Resolver struct {
	baseURL    string
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
	store      CacheStore // nil disables the durable tier

	mu     sync.Mutex
	memory map[string]FXRate
}

// NewResolver builds a resolver over the given durable store (nil for
// memory-only). Zero-value Config fields get production defaults.
func NewResolver(store CacheStore, cfg Config) *Resolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.frankfurter.app"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Resolver{
		baseURL:    cfg.BaseURL,
		ttl:        cfg.TTL,
		httpClient: cfg.HTTPClient,
		now:        cfg.Now,
		store:      store,
		memory:     make(map[string]FXRate),
	}
}

func cacheKey(date, from, to string) string {
	return date + "_" + from + "_" + to
}

// Resolve returns the rate converting from -> to on the given date.
// Identity pairs resolve to 1 without any I/O. Cache tiers are consulted
// in order; both are populated on a successful fetch, keyed by the
// originally-requested date.
func (r *Resolver) Resolve(ctx context.Context, date time.Time, from, to string) (FXRate, error) {
	if from == to {
		return FXRate{Rate: 1, Date: date, From: from, To: to, Source: SourceIdentity}, nil
	}

	requested := date.Format(dateLayout)
	key := cacheKey(requested, from, to)

	r.mu.Lock()
	if rate, ok := r.memory[key]; ok {
		r.mu.Unlock()
		cacheHits.WithLabelValues("memory").Inc()
		return rate, nil
	}
	r.mu.Unlock()

	if r.store != nil {
		entry, ok, err := r.store.Get(ctx, key)
		if err != nil {
			log.Println("⚠️  FX durable cache read failed:", err)
		}
		if ok {
			if r.now().Unix()-entry.CachedAt > int64(r.ttl.Seconds()) {
				// Expired entries are treated as absent and purged.
				if err := r.store.Delete(ctx, key); err != nil {
					log.Println("⚠️  FX durable cache purge failed:", err)
				}
			} else {
				rate := entryToRate(entry)
				r.mu.Lock()
				r.memory[key] = rate
				r.mu.Unlock()
				cacheHits.WithLabelValues("durable").Inc()
				return rate, nil
			}
		}
	}

	cacheMisses.Inc()

	rate, err := r.fetch(ctx, date, from, to)
	if err != nil {
		fetchErrors.Inc()
		return FXRate{}, err
	}

	cached := rate
	cached.Source = SourceCached
	r.mu.Lock()
	r.memory[key] = cached
	r.mu.Unlock()

	if r.store != nil {
		entry := CachedRate{
			Rate:     rate.Rate,
			Date:     rate.Date.Format(dateLayout),
			From:     from,
			To:       to,
			CachedAt: r.now().Unix(),
		}
		if err := r.store.Set(ctx, key, entry); err != nil {
			log.Println("⚠️  FX durable cache write failed:", err)
		}
	}

	return rate, nil
}

// ClearCache wipes both tiers. Used by tests and the operator cache
// invalidation endpoint.
func (r *Resolver) ClearCache(ctx context.Context) error {
	r.mu.Lock()
	r.memory = make(map[string]FXRate)
	r.mu.Unlock()

	if r.store != nil {
		return r.store.Clear(ctx)
	}
	return nil
}

type rateResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func (r *Resolver) fetch(ctx context.Context, date time.Time, from, to string) (FXRate, error) {
	endpoint := date.Format(dateLayout)
	if date.After(r.now()) {
		// A future date is not an error: substitute the latest available rate.
		log.Printf("FX rate requested for future date %s, using latest", endpoint)
		endpoint = "latest"
	}

	url := fmt.Sprintf("%s/%s?from=%s&to=%s", r.baseURL, endpoint, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FXRate{}, fmt.Errorf("building FX rate request: %w", err)
	}

	fetches.Inc()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return FXRate{}, fmt.Errorf("FX rate service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FXRate{}, fmt.Errorf("FX rate service returned status %d", resp.StatusCode)
	}

	var parsed rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return FXRate{}, fmt.Errorf("decoding FX rate response: %w", err)
	}

	value, ok := parsed.Rates[to]
	if !ok || value <= 0 {
		return FXRate{}, fmt.Errorf("no %s rate in FX response for %s", to, endpoint)
	}

	// The service may snap to the nearest trading day; keep its date.
	rateDate := date
	if parsed.Date != "" {
		if d, err := time.Parse(dateLayout, parsed.Date); err == nil {
			rateDate = d
		}
	}

	return FXRate{Rate: value, Date: rateDate, From: from, To: to, Source: SourceLive}, nil
}

func entryToRate(entry CachedRate) FXRate {
	rateDate, err := time.Parse(dateLayout, entry.Date)
	if err != nil {
		rateDate = time.Unix(entry.CachedAt, 0).UTC()
	}
	return FXRate{
		Rate:   entry.Rate,
		Date:   rateDate,
		From:   entry.From,
		To:     entry.To,
		Source: SourceCached,
	}
}
