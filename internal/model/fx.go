package model

import "time"

// FxRate is one row of a rate snapshot: units of Target per 1 unit of Base.
// Rows sharing a FetchedAt form one snapshot and are immutable once written,
// except for the stale flag which may be set (never cleared) when no fresher
// snapshot can be obtained.
type FxRate struct {
	ID        string    `json:"id"`
	Base      string    `json:"base"`
	Target    string    `json:"target"`
	Rate      float64   `json:"rate"`
	FetchedAt time.Time `json:"fetched_at"`
	IsStale   bool      `json:"is_stale"`
}
