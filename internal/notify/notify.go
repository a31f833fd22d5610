// Package notify delivers renewal reminders over web push and runs the
// background sweep that decides who gets one.
package notify

import "errors"

// ErrGone is returned when a push endpoint is no longer valid and should be
// deregistered.
var ErrGone = errors.New("push subscription gone")

// Payload is the JSON handed to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}
