package model

import "time"

type Category struct {
	ID         string    `json:"id"`
	OwnerEmail string    `json:"owner_email"`
	Name       string    `json:"name"`
	Color      *string   `json:"color"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

// CategoryWithCount is a category plus the number of subscriptions
// currently assigned to it.
type CategoryWithCount struct {
	Category
	SubscriptionCount int `json:"subscription_count"`
}
