package model

import "time"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	// The single currency this owner's aggregates are converted into.
	// Nil until onboarding sets it; conversion is undefined without it.
	PrimaryCurrency *string   `json:"primary_currency"`
	Timezone        *string   `json:"timezone"`
	PushEnabled     bool      `json:"push_enabled"`
	OnboardingDone  bool      `json:"onboarding_done"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
