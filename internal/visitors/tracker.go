package visitors

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gothyxan/storefront/internal/domain"
	"github.com/gothyxan/storefront/internal/platform/kvstore"
)

const (
	visitsKey          = "visitors"
	totalVisitsKey     = "total_visits"
	uniqueVisitsKey    = "unique_visits"
	uniqueVisitDateKey = "unique_visits_date"

	maxStoredVisits = 1000
)

var errTrackerStoreRequired = errors.New("visitor tracker: store is required")

// GeoLookup resolves the location of the given visitor address. A failing
// lookup degrades the visit record, it never blocks tracking.
type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (domain.GeoRecord, error)
}

// PageView describes one tracked hit. IP is the visitor address as seen by
// the HTTP layer.
type PageView struct {
	Page      string
	IP        string
	UserAgent string
	Referrer  string
}

// Counters reports the daily visit counters for the analytics view.
type Counters struct {
	Total  int `json:"total"`
	Unique int `json:"unique"`
}

// TrackerDeps bundles constructor inputs for the visitor tracker.
type TrackerDeps struct {
	Store       kvstore.Store
	Geo         GeoLookup
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

// Tracker records page views under a fixed key, keeping only the most recent
// thousand, and maintains the total/unique daily counters. All failures
// degrade; tracking never surfaces an error to the page.
type Tracker struct {
	store  kvstore.Store
	geo    GeoLookup
	now    func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)

	mu sync.Mutex
}

// NewTracker constructs the tracker with the supplied dependencies.
func NewTracker(deps TrackerDeps) (*Tracker, error) {
	if deps.Store == nil {
		return nil, errTrackerStoreRequired
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Tracker{
		store:  deps.Store,
		geo:    deps.Geo,
		now:    func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Track records one page view. The geo lookup enriches the record when it
// succeeds; otherwise the visit keeps only the request-derived fields.
func (t *Tracker) Track(ctx context.Context, view PageView) domain.Visit {
	visit := domain.Visit{
		ID:        t.newID(),
		Timestamp: t.now(),
		Page:      view.Page,
		IP:        view.IP,
		UserAgent: view.UserAgent,
		Referrer:  view.Referrer,
	}

	if t.geo != nil {
		record, err := t.geo.Lookup(ctx, view.IP)
		if err != nil {
			t.logger(ctx, "visitors.geo_lookup_failed", map[string]any{"error": err.Error()})
		} else {
			if record.IP != "" {
				visit.IP = record.IP
			}
			visit.Country = record.Country
			visit.City = record.City
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.appendVisit(ctx, visit)
	t.bumpTotal(ctx)
	t.bumpUnique(ctx)
	return visit
}

// Visits returns the stored visit log, most recent last.
func (t *Tracker) Visits(ctx context.Context) []domain.Visit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadVisits(ctx)
}

// CountersFor reports today's counters.
func (t *Tracker) CountersFor(ctx context.Context) Counters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Counters{
		Total:  t.readCounter(ctx, totalVisitsKey),
		Unique: t.readCounter(ctx, uniqueVisitsKey),
	}
}

func (t *Tracker) appendVisit(ctx context.Context, visit domain.Visit) {
	visits := t.loadVisits(ctx)
	visits = append(visits, visit)
	if len(visits) > maxStoredVisits {
		visits = visits[len(visits)-maxStoredVisits:]
	}
	if err := kvstore.SetJSON(ctx, t.store, visitsKey, visits); err != nil {
		t.logger(ctx, "visitors.persist_failed", map[string]any{"error": err.Error()})
	}
}

func (t *Tracker) loadVisits(ctx context.Context) []domain.Visit {
	var visits []domain.Visit
	if err := kvstore.GetJSON(ctx, t.store, visitsKey, &visits); err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			t.logger(ctx, "visitors.load_failed", map[string]any{"error": err.Error()})
		}
		return nil
	}
	return visits
}

// bumpTotal advances the lifetime hit counter on every visit.
func (t *Tracker) bumpTotal(ctx context.Context) {
	total := t.readCounter(ctx, totalVisitsKey) + 1
	if err := kvstore.SetJSON(ctx, t.store, totalVisitsKey, total); err != nil {
		t.logger(ctx, "visitors.counter_persist_failed", map[string]any{"key": totalVisitsKey, "error": err.Error()})
	}
}

// bumpUnique advances the unique counter at most once per calendar day. The
// day of the last increment is kept under its own key so the counter value
// stays a bare integer.
func (t *Tracker) bumpUnique(ctx context.Context) {
	today := t.now().Format("2006-01-02")

	var lastDay string
	if err := kvstore.GetJSON(ctx, t.store, uniqueVisitDateKey, &lastDay); err != nil && !errors.Is(err, kvstore.ErrKeyNotFound) {
		t.logger(ctx, "visitors.counter_load_failed", map[string]any{"key": uniqueVisitDateKey, "error": err.Error()})
	}
	if lastDay == today {
		return
	}

	unique := t.readCounter(ctx, uniqueVisitsKey) + 1
	if err := kvstore.SetJSON(ctx, t.store, uniqueVisitsKey, unique); err != nil {
		t.logger(ctx, "visitors.counter_persist_failed", map[string]any{"key": uniqueVisitsKey, "error": err.Error()})
	}
	if err := kvstore.SetJSON(ctx, t.store, uniqueVisitDateKey, today); err != nil {
		t.logger(ctx, "visitors.counter_persist_failed", map[string]any{"key": uniqueVisitDateKey, "error": err.Error()})
	}
}

func (t *Tracker) readCounter(ctx context.Context, key string) int {
	var value int
	if err := kvstore.GetJSON(ctx, t.store, key, &value); err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			t.logger(ctx, "visitors.counter_load_failed", map[string]any{"key": key, "error": err.Error()})
		}
		return 0
	}
	return value
}
