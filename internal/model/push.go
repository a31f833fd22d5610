package model

import "time"

type PushSubscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationSnooze suppresses renewal reminders for one subscription and
// user until SnoozedUntil. Setting a new snooze replaces any prior one for
// the same pair.
type NotificationSnooze struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	SnoozedUntil   time.Time `json:"snoozed_until"`
	CreatedAt      time.Time `json:"created_at"`
}
