// Package service holds the business rules between the HTTP surface and
// the stores: input validation, lifecycle transitions, and renewal cursor
// movement.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Reidond/subsctl/internal/apperr"
	"github.com/Reidond/subsctl/internal/cadence"
	"github.com/Reidond/subsctl/internal/fx"
	"github.com/Reidond/subsctl/internal/model"
	"github.com/Reidond/subsctl/internal/store"
)

type SubscriptionService struct {
	subs   *store.SubscriptionStore
	events *store.EventStore
	cats   *store.CategoryStore
	users  *store.UserStore
	fx     *fx.Service
	logger *slog.Logger
	now    func() time.Time
}

func NewSubscriptionService(subs *store.SubscriptionStore, events *store.EventStore, cats *store.CategoryStore, users *store.UserStore, fxService *fx.Service, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		subs:   subs,
		events: events,
		cats:   cats,
		users:  users,
		fx:     fxService,
		logger: logger.With("component", "subscriptions"),
		now:    time.Now,
	}
}

type CreateSubscriptionInput struct {
	Name          string       `json:"name"`
	Merchant      *string      `json:"merchant"`
	AmountCents   int64        `json:"amount_cents"`
	Currency      string       `json:"currency"`
	CadenceUnit   cadence.Unit `json:"cadence_unit"`
	CadenceCount  int          `json:"cadence_count"`
	NextRenewalAt time.Time    `json:"next_renewal_at"`
	CategoryID    *string      `json:"category_id"`
	Notes         *string      `json:"notes"`
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", apperr.Validation("currency must be a 3-letter code, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", apperr.Validation("currency must be a 3-letter code, got %q", code)
		}
	}
	return code, nil
}

func (s *SubscriptionService) validateCadence(unit cadence.Unit, count int) error {
	if !unit.Valid() {
		return apperr.Validation("unknown cadence unit %q", unit)
	}
	if count < 1 {
		return apperr.Validation("cadence count must be at least 1, got %d", count)
	}
	return nil
}

func (s *SubscriptionService) Create(ctx context.Context, ownerEmail string, in CreateSubscriptionInput) (*model.Subscription, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.AmountCents < 0 {
		return nil, apperr.Validation("amount cannot be negative, got %d", in.AmountCents)
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.validateCadence(in.CadenceUnit, in.CadenceCount); err != nil {
		return nil, err
	}
	if in.NextRenewalAt.IsZero() {
		return nil, apperr.Validation("next renewal date is required")
	}
	if in.CategoryID != nil {
		cat, err := s.cats.GetByID(*in.CategoryID, ownerEmail)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, apperr.Validation("category %s does not exist", *in.CategoryID)
		}
	}

	sub := &model.Subscription{
		OwnerEmail:     ownerEmail,
		Name:           strings.TrimSpace(in.Name),
		Merchant:       in.Merchant,
		AmountCents:    in.AmountCents,
		Currency:       currency,
		CadenceUnit:    in.CadenceUnit,
		CadenceCount:   in.CadenceCount,
		NextRenewalAt:  in.NextRenewalAt.UTC(),
		Status:         model.StatusActive,
		CategoryID:     in.CategoryID,
		Notes:          in.Notes,
		RateAtCreation: s.freezeRate(ctx, ownerEmail, currency),
	}
	return s.subs.Create(sub)
}

// freezeRate captures the conversion rate in force at creation so later
// aggregation has a fallback when live rates drop a currency. A missing
// rate is fine, the record just carries nil.
func (s *SubscriptionService) freezeRate(ctx context.Context, ownerEmail, currency string) *float64 {
	user, err := s.users.GetByEmail(ownerEmail)
	if err != nil || user == nil || user.PrimaryCurrency == nil {
		return nil
	}
	snap, err := s.fx.Current(ctx)
	if err != nil {
		return nil
	}
	rate, ok := fx.RateToPrimary(snap, *user.PrimaryCurrency, currency)
	if !ok {
		return nil
	}
	return &rate
}

func (s *SubscriptionService) Get(ownerEmail, id string) (*model.Subscription, error) {
	sub, err := s.subs.GetByID(id, ownerEmail)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperr.NotFound("subscription not found")
	}
	return sub, nil
}

func (s *SubscriptionService) List(ownerEmail string, f store.ListFilter) ([]model.Subscription, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", f.Status)
	}
	return s.subs.List(ownerEmail, f)
}

func (s *SubscriptionService) Events(ownerEmail, id string) ([]model.SubscriptionEvent, error) {
	if _, err := s.Get(ownerEmail, id); err != nil {
		return nil, err
	}
	return s.events.ListBySubscription(id, ownerEmail)
}

type UpdateSubscriptionInput struct {
	Name          *string       `json:"name"`
	Merchant      *string       `json:"merchant"`
	AmountCents   *int64        `json:"amount_cents"`
	Currency      *string       `json:"currency"`
	CadenceUnit   *cadence.Unit `json:"cadence_unit"`
	CadenceCount  *int          `json:"cadence_count"`
	NextRenewalAt *time.Time    `json:"next_renewal_at"`
	CategoryID    *string       `json:"category_id"`
	Notes         *string       `json:"notes"`
}

func (s *SubscriptionService) Update(ownerEmail, id string, in UpdateSubscriptionInput) (*model.Subscription, error) {
	sub, err := s.Get(ownerEmail, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		sub.Name = strings.TrimSpace(*in.Name)
	}
	if in.Merchant != nil {
		sub.Merchant = in.Merchant
	}
	if in.AmountCents != nil {
		if *in.AmountCents < 0 {
			return nil, apperr.Validation("amount cannot be negative, got %d", *in.AmountCents)
		}
		sub.AmountCents = *in.AmountCents
	}
	if in.Currency != nil {
		currency, err := normalizeCurrency(*in.Currency)
		if err != nil {
			return nil, err
		}
		sub.Currency = currency
	}
	unit, count := sub.CadenceUnit, sub.CadenceCount
	if in.CadenceUnit != nil {
		unit = *in.CadenceUnit
	}
	if in.CadenceCount != nil {
		count = *in.CadenceCount
	}
	if err := s.validateCadence(unit, count); err != nil {
		return nil, err
	}
	sub.CadenceUnit, sub.CadenceCount = unit, count
	if in.NextRenewalAt != nil {
		if in.NextRenewalAt.IsZero() {
			return nil, apperr.Validation("next renewal date cannot be empty")
		}
		sub.NextRenewalAt = in.NextRenewalAt.UTC()
	}
	if in.CategoryID != nil {
		cat, err := s.cats.GetByID(*in.CategoryID, ownerEmail)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, apperr.Validation("category %s does not exist", *in.CategoryID)
		}
		sub.CategoryID = in.CategoryID
	}
	if in.Notes != nil {
		sub.Notes = in.Notes
	}

	return s.subs.Update(sub)
}

func (s *SubscriptionService) Delete(ownerEmail, id string) error {
	if _, err := s.Get(ownerEmail, id); err != nil {
		return err
	}
	return s.subs.Delete(id, ownerEmail)
}

func (s *SubscriptionService) transition(ownerEmail, id string, from []model.Status, to model.Status) (*model.Subscription, error) {
	sub, err := s.Get(ownerEmail, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, st := range from {
		if sub.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperr.Conflict(fmt.Sprintf("cannot move a %s subscription to %s", sub.Status, to))
	}
	sub.Status = to
	return s.subs.Update(sub)
}

func (s *SubscriptionService) Pause(ownerEmail, id string) (*model.Subscription, error) {
	return s.transition(ownerEmail, id, []model.Status{model.StatusActive}, model.StatusPaused)
}

func (s *SubscriptionService) Resume(ownerEmail, id string) (*model.Subscription, error) {
	return s.transition(ownerEmail, id, []model.Status{model.StatusPaused}, model.StatusActive)
}

func (s *SubscriptionService) Archive(ownerEmail, id string) (*model.Subscription, error) {
	return s.transition(ownerEmail, id, []model.Status{model.StatusActive, model.StatusPaused}, model.StatusArchived)
}

// Restore reactivates an archived subscription. A renewal date left behind
// in the past moves forward to the next occurrence so the record comes back
// in a billable state.
func (s *SubscriptionService) Restore(ownerEmail, id string) (*model.Subscription, error) {
	sub, err := s.Get(ownerEmail, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != model.StatusArchived {
		return nil, apperr.Conflict(fmt.Sprintf("cannot move a %s subscription to %s", sub.Status, model.StatusActive))
	}
	sub.Status = model.StatusActive

	now := s.now().UTC()
	if !sub.NextRenewalAt.After(now) {
		next, err := cadence.AdvanceRenewal(sub.NextRenewalAt, sub.CadenceUnit, sub.CadenceCount, now)
		if err != nil {
			return nil, apperr.Validation("cannot advance renewal: %v", err)
		}
		sub.NextRenewalAt = next
	}
	return s.subs.Update(sub)
}

type MarkPaidInput struct {
	AmountCents         *int64     `json:"amount_cents"`
	Note                *string    `json:"note"`
	OccurredAt          *time.Time `json:"occurred_at"`
	NextRenewalOverride *time.Time `json:"next_renewal_at"`
}

// MarkPaid records the payment and advances the renewal cursor to the first
// occurrence after the payment date, catching up past any missed periods. A
// cursor still in the future stays where it is: paying early does not push
// the next bill out. Both writes happen in one transaction; a cursor that
// cannot be advanced aborts the whole operation.
func (s *SubscriptionService) MarkPaid(ctx context.Context, ownerEmail, id string, in MarkPaidInput) (*model.Subscription, *model.SubscriptionEvent, error) {
	sub, err := s.Get(ownerEmail, id)
	if err != nil {
		return nil, nil, err
	}
	if sub.Status == model.StatusArchived {
		return nil, nil, apperr.Conflict("cannot mark an archived subscription paid")
	}

	occurred := s.now().UTC()
	if in.OccurredAt != nil {
		occurred = in.OccurredAt.UTC()
	}

	var next time.Time
	if in.NextRenewalOverride != nil {
		next = in.NextRenewalOverride.UTC()
		if !next.After(occurred) {
			return nil, nil, apperr.Validation("next renewal must be after the payment date")
		}
	} else {
		next, err = cadence.AdvanceRenewal(sub.NextRenewalAt, sub.CadenceUnit, sub.CadenceCount, occurred)
		if err != nil {
			return nil, nil, apperr.Validation("cannot advance renewal: %v", err)
		}
	}

	amount := sub.AmountCents
	if in.AmountCents != nil {
		if *in.AmountCents < 0 {
			return nil, nil, apperr.Validation("amount cannot be negative, got %d", *in.AmountCents)
		}
		amount = *in.AmountCents
	}

	event := &model.SubscriptionEvent{
		SubscriptionID: sub.ID,
		OwnerEmail:     ownerEmail,
		Type:           model.EventPayment,
		OccurredAt:     occurred,
		AmountCents:    amount,
		Currency:       sub.Currency,
		RateAtEvent:    s.freezeRate(ctx, ownerEmail, sub.Currency),
		Note:           in.Note,
	}
	if err := s.subs.RecordPayment(event, next); err != nil {
		return nil, nil, err
	}
	s.logger.Info("payment recorded",
		"subscription_id", sub.ID, "next_renewal_at", next)

	updated, err := s.subs.GetByID(sub.ID, ownerEmail)
	if err != nil {
		return nil, nil, err
	}
	return updated, event, nil
}
