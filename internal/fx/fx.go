// Package fx maintains exchange-rate snapshots and converts amounts between
// currencies. Rates come from an upstream provider; when the upstream is
// down the newest stored snapshot keeps serving, flagged stale.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Reidond/subsctl/internal/apperr"
	"github.com/Reidond/subsctl/internal/store"
)

// Base is the currency every snapshot is quoted against.
const Base = "USD"

// refreshInterval is how long a snapshot stays fresh.
const refreshInterval = 24 * time.Hour

// Snapshot is one coherent set of rates, all sharing a fetch time.
type Snapshot struct {
	Rates     map[string]float64
	FetchedAt time.Time
	Stale     bool
}

// Rate returns units of code per 1 USD.
func (s *Snapshot) Rate(code string) (float64, bool) {
	r, ok := s.Rates[strings.ToUpper(code)]
	return r, ok
}

type Service struct {
	store   *store.FxStore
	client  *http.Client
	baseURL string
	appID   string
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(fxStore *store.FxStore, baseURL, appID string, logger *slog.Logger) *Service {
	return &Service{
		store:   fxStore,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		appID:   appID,
		logger:  logger.With("component", "fx"),
		now:     time.Now,
	}
}

// Current returns a usable snapshot, refreshing first when the stored one
// has aged out. It fails only when no snapshot exists and the upstream
// cannot be reached, which callers surface as service unavailability.
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	if snap != nil && s.now().UTC().Sub(snap.FetchedAt) < refreshInterval {
		return snap, nil
	}

	fresh, fetchErr := s.fetch(ctx)
	if fetchErr == nil {
		if err := s.store.InsertSnapshot(Base, fresh.Rates, fresh.FetchedAt); err != nil {
			return nil, fmt.Errorf("store snapshot: %w", err)
		}
		return fresh, nil
	}

	if snap == nil {
		s.logger.Error("no rates available", "error", fetchErr)
		return nil, apperr.Unavailable("exchange rates unavailable")
	}

	s.logger.Warn("rate refresh failed, serving stale snapshot",
		"fetched_at", snap.FetchedAt, "error", fetchErr)
	if err := s.store.MarkStale(Base, snap.FetchedAt); err != nil {
		return nil, err
	}
	snap.Stale = true
	return snap, nil
}

// Refresh is the scheduler entry point. It never returns an error: failures
// are logged and the stored snapshot, if any, is marked stale. The returned
// snapshot may be nil when the store is empty and the upstream is down.
func (s *Service) Refresh(ctx context.Context) *Snapshot {
	snap, err := s.Current(ctx)
	if err != nil {
		s.logger.Error("rate refresh", "error", err)
		return nil
	}
	return snap
}

func (s *Service) latest() (*Snapshot, error) {
	fetchedAt, err := s.store.LatestFetchedAt(Base)
	if err != nil {
		return nil, err
	}
	if fetchedAt.IsZero() {
		return nil, nil
	}
	rows, err := s.store.RatesAt(Base, fetchedAt)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Rates: make(map[string]float64, len(rows)), FetchedAt: fetchedAt}
	for _, r := range rows {
		snap.Rates[r.Target] = r.Rate
		if r.IsStale {
			snap.Stale = true
		}
	}
	return snap, nil
}

type upstreamResponse struct {
	Base      string             `json:"base"`
	Timestamp int64              `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	if s.appID == "" {
		return nil, fmt.Errorf("no rate source configured")
	}

	url := fmt.Sprintf("%s?app_id=%s&base=%s", s.baseURL, s.appID, Base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned %d", resp.StatusCode)
	}

	var body upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if !strings.EqualFold(body.Base, Base) {
		return nil, fmt.Errorf("rate provider returned base %q, want %s", body.Base, Base)
	}

	rates := normalize(body.Rates)
	if len(rates) == 0 {
		return nil, fmt.Errorf("rate provider returned no usable rates")
	}

	fetchedAt := s.now().UTC()
	if body.Timestamp > 0 {
		fetchedAt = time.Unix(body.Timestamp, 0).UTC()
	}
	return &Snapshot{Rates: rates, FetchedAt: fetchedAt}, nil
}

// normalize keeps only well-formed entries: 3-letter codes, finite positive
// values. The base currency is always pinned to exactly 1.
func normalize(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for code, rate := range raw {
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 3 {
			continue
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			continue
		}
		out[code] = rate
	}
	if len(out) > 0 {
		out[Base] = 1
	}
	return out
}
