// Package stats aggregates an owner's subscriptions into spend figures in
// their primary currency.
package stats

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Reidond/subsctl/internal/cadence"
	"github.com/Reidond/subsctl/internal/fx"
	"github.com/Reidond/subsctl/internal/model"
	"github.com/Reidond/subsctl/internal/store"
)

// Totals are whole-portfolio figures in major units of the primary currency.
type Totals struct {
	TotalMonthlySpend     float64 `json:"total_monthly_spend"`
	TotalYearlyProjection float64 `json:"total_yearly_projection"`
	ActiveCount           int     `json:"active_count"`
	PausedCount           int     `json:"paused_count"`
	MonthOverMonthChange  float64 `json:"month_over_month_change"`
}

// CategoryBreakdown is one category's share of monthly spend. A nil
// CategoryID groups subscriptions with no category.
type CategoryBreakdown struct {
	CategoryID   *string `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Amount       float64 `json:"amount"`
	Percentage   float64 `json:"percentage"`
}

type Summary struct {
	Totals     Totals              `json:"totals"`
	ByCategory []CategoryBreakdown `json:"by_category"`
	Currency   string              `json:"currency"`
	RatesStale bool                `json:"rates_stale"`
}

type Service struct {
	subs       *store.SubscriptionStore
	events     *store.EventStore
	categories *store.CategoryStore
	users      *store.UserStore
	fx         *fx.Service
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(subs *store.SubscriptionStore, events *store.EventStore, categories *store.CategoryStore, users *store.UserStore, fxService *fx.Service, logger *slog.Logger) *Service {
	return &Service{
		subs:       subs,
		events:     events,
		categories: categories,
		users:      users,
		fx:         fxService,
		logger:     logger.With("component", "stats"),
		now:        time.Now,
	}
}

// Summary computes the owner's spend figures. Missing live rates degrade
// per subscription, never fail the whole summary: the rate frozen at
// creation is used next, then the identity rule.
func (s *Service) Summary(ctx context.Context, ownerEmail string) (*Summary, error) {
	var primary string
	user, err := s.users.GetByEmail(ownerEmail)
	if err != nil {
		return nil, err
	}
	if user != nil && user.PrimaryCurrency != nil {
		primary = *user.PrimaryCurrency
	}

	snap, err := s.fx.Current(ctx)
	if err != nil {
		// Stats must still render from frozen rates.
		s.logger.Warn("summary without live rates", "error", err)
		snap = nil
	}

	active, err := s.subs.List(ownerEmail, store.ListFilter{Status: model.StatusActive})
	if err != nil {
		return nil, err
	}
	pausedCount, err := s.subs.CountByStatus(ownerEmail, model.StatusPaused)
	if err != nil {
		return nil, err
	}

	var totalMonthlyCents float64
	byCategory := make(map[string]*CategoryBreakdown)
	for i := range active {
		sub := &active[i]
		rate := resolveRate(snap, primary, sub.Currency, sub.RateAtCreation)
		monthlyCents := float64(fx.ConvertCents(sub.AmountCents, rate)) *
			cadence.MonthlyFactor(sub.CadenceUnit, sub.CadenceCount)
		totalMonthlyCents += monthlyCents

		key := ""
		if sub.CategoryID != nil {
			key = *sub.CategoryID
		}
		bucket, ok := byCategory[key]
		if !ok {
			bucket = &CategoryBreakdown{CategoryID: sub.CategoryID}
			byCategory[key] = bucket
		}
		bucket.Amount += monthlyCents
	}

	recent, prior, err := s.spendTrend(ownerEmail, snap, primary)
	if err != nil {
		return nil, err
	}
	var momChange float64
	if prior != 0 {
		momChange = (recent - prior) / prior * 100
	}

	summary := &Summary{
		Totals: Totals{
			TotalMonthlySpend:     totalMonthlyCents / 100,
			TotalYearlyProjection: totalMonthlyCents * 12 / 100,
			ActiveCount:           len(active),
			PausedCount:           pausedCount,
			MonthOverMonthChange:  momChange,
		},
		Currency:   primary,
		RatesStale: snap != nil && snap.Stale,
	}

	names, err := s.categoryNames(ownerEmail)
	if err != nil {
		return nil, err
	}
	for key, bucket := range byCategory {
		bucket.Amount /= 100
		if summary.Totals.TotalMonthlySpend != 0 {
			bucket.Percentage = bucket.Amount / summary.Totals.TotalMonthlySpend * 100
		}
		if key == "" {
			bucket.CategoryName = "Uncategorized"
		} else {
			bucket.CategoryName = names[key]
		}
		summary.ByCategory = append(summary.ByCategory, *bucket)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.CategoryName < b.CategoryName
	})

	return summary, nil
}

// spendTrend sums the last 60 days of payments into two 30-day buckets,
// in major units of the primary currency. The cutoff itself counts as
// recent.
func (s *Service) spendTrend(ownerEmail string, snap *fx.Snapshot, primary string) (recent, prior float64, err error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -30)
	events, err := s.events.ListSince(ownerEmail, now.AddDate(0, 0, -60))
	if err != nil {
		return 0, 0, err
	}
	for _, e := range events {
		rate := resolveEventRate(snap, primary, e.Currency, e.RateAtEvent)
		amount := float64(fx.ConvertCents(e.AmountCents, rate)) / 100
		if !e.OccurredAt.Before(cutoff) {
			recent += amount
		} else {
			prior += amount
		}
	}
	return recent, prior, nil
}

func (s *Service) categoryNames(ownerEmail string) (map[string]string, error) {
	list, err := s.categories.ListWithCounts(ownerEmail)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(list))
	for _, c := range list {
		names[c.ID] = c.Name
	}
	return names, nil
}

// resolveRate picks the conversion rate for one active subscription: the
// live cross rate when the snapshot has both legs, then the rate frozen at
// creation, then identity. Without a primary currency everything passes
// through unconverted.
func resolveRate(snap *fx.Snapshot, primary, currency string, frozen *float64) float64 {
	if r, ok := fx.RateToPrimary(snap, primary, currency); ok {
		return r
	}
	if frozen != nil {
		return *frozen
	}
	if primary == "" {
		return 1
	}
	if currency == primary {
		return 1
	}
	return 0
}

// resolveEventRate picks the conversion rate for one historical payment.
// The rate frozen when the payment was recorded wins over today's rate, so
// past spend is never re-rated by later fluctuations; the live rate only
// covers events that never captured one.
func resolveEventRate(snap *fx.Snapshot, primary, currency string, frozen *float64) float64 {
	if frozen != nil {
		return *frozen
	}
	if r, ok := fx.RateToPrimary(snap, primary, currency); ok {
		return r
	}
	if primary == "" {
		return 1
	}
	if currency == primary {
		return 1
	}
	return 0
}
