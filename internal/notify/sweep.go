package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Reidond/subsctl/internal/model"
	"github.com/Reidond/subsctl/internal/store"
)

// leadDays is how many local calendar days before renewal a reminder fires.
const leadDays = 3

// Sweeper finds subscriptions renewing soon and pushes one reminder per
// registered endpoint.
type Sweeper struct {
	subs     *store.SubscriptionStore
	push     *store.PushStore
	snoozes  *store.SnoozeStore
	delivery Deliverer
	logger   *slog.Logger
	now      func() time.Time
}

func NewSweeper(subs *store.SubscriptionStore, push *store.PushStore, snoozes *store.SnoozeStore, delivery Deliverer, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		subs:     subs,
		push:     push,
		snoozes:  snoozes,
		delivery: delivery,
		logger:   logger.With("component", "notify"),
		now:      time.Now,
	}
}

// Run executes one sweep. The candidate query uses a coarse UTC window that
// safely brackets every timezone; the exact local-day rule is applied per
// candidate. Failures are per item, a bad endpoint never stops the sweep.
func (s *Sweeper) Run() {
	now := s.now().UTC()
	candidates, err := s.subs.ListRenewalCandidates(now.Add(24*time.Hour), now.Add(120*time.Hour))
	if err != nil {
		s.logger.Error("list renewal candidates", "error", err)
		return
	}

	for _, c := range candidates {
		if err := s.remind(now, c); err != nil {
			s.logger.Error("reminder failed",
				"subscription_id", c.SubscriptionID, "user_id", c.UserID, "error", err)
		}
	}
}

func (s *Sweeper) remind(now time.Time, c model.RenewalCandidate) error {
	if !c.PushEnabled || c.Timezone == nil {
		return nil
	}
	loc, err := time.LoadLocation(*c.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", *c.Timezone, err)
	}
	if daysUntil(now, c.NextRenewalAt, loc) != leadDays {
		return nil
	}

	snoozed, err := s.snoozes.HasActive(c.SubscriptionID, c.UserID, now)
	if err != nil {
		return err
	}
	if snoozed {
		return nil
	}

	endpoints, err := s.push.ListByUser(c.UserID)
	if err != nil {
		return err
	}

	payload := Payload{
		Title: "Upcoming renewal",
		Body:  fmt.Sprintf("%s renews in %d days", c.Name, leadDays),
		URL:   "/subscriptions/" + c.SubscriptionID,
		Tag:   "renewal-" + c.SubscriptionID,
	}
	for i := range endpoints {
		ep := &endpoints[i]
		err := s.delivery.Send(ep, payload)
		if errors.Is(err, ErrGone) {
			s.logger.Info("deregistering dead endpoint", "endpoint", ep.Endpoint)
			if derr := s.push.DeleteByID(ep.ID); derr != nil {
				s.logger.Error("deregister endpoint", "error", derr)
			}
			continue
		}
		if err != nil {
			s.logger.Error("push delivery", "endpoint", ep.Endpoint, "error", err)
			continue
		}
		s.logger.Info("reminder sent",
			"subscription_id", c.SubscriptionID, "user_id", c.UserID)
	}
	return nil
}
