// Package tracker implements registration of outgoing emails and recording
// of their open events against a relational store.
package tracker

import "time"

// Registration represents one registered outgoing email. Immutable once created.
type Registration struct {
	TrackingID string    `json:"tracking_id"`
	Recipient  string    `json:"recipient"`
	Subject    string    `json:"subject"`
	SentAt     time.Time `json:"sent_at"`
}

// OpenEvent represents a single fetch of a tracking resource or click of a
// confirmation link. Append-only; never updated or deleted.
type OpenEvent struct {
	ID         int64     `json:"id"`
	TrackingID string    `json:"tracking_id"`
	OpenedAt   time.Time `json:"opened_at"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
}

// RegistrationReport pairs a registration with its open events for display.
// Events is never nil; a never-opened email carries an empty slice.
type RegistrationReport struct {
	Registration
	Events []OpenEvent `json:"events"`
}

// RegisterResult is returned to the sender after a successful registration.
type RegisterResult struct {
	TrackingID      string `json:"tracking_id"`
	TrackingURL     string `json:"tracking_url"`
	StylesheetURL   string `json:"stylesheet_url"`
	ConfirmationURL string `json:"confirmation_url"`
}
