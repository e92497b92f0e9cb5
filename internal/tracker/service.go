package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Path prefixes for the three tracking resources.
const (
	PixelPath      = "/track/"
	StylesheetPath = "/track.css/"
	ConfirmPath    = "/confirm-open/"
)

// Service implements email registration and open-event logging
type Service struct {
	store   *Store
	baseURL string
}

// NewService creates a new tracking service. baseURL may be empty, in which
// case Register falls back to the inbound request's own host.
func NewService(store *Store, baseURL string) *Service {
	return &Service{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

// Register mints a fresh tracking identifier, persists the registration and
// returns the tracking URLs to embed in the outgoing email. Each call
// produces a new identifier; re-sends of the same logical email are tracked
// independently.
func (s *Service) Register(ctx context.Context, recipient, subject, fallbackBase string) (*RegisterResult, error) {
	if strings.TrimSpace(recipient) == "" {
		return nil, &ValidationError{Field: "recipient"}
	}
	if strings.TrimSpace(subject) == "" {
		return nil, &ValidationError{Field: "subject"}
	}

	reg := &Registration{
		TrackingID: uuid.New().String(),
		Recipient:  recipient,
		Subject:    subject,
		SentAt:     time.Now().UTC(),
	}
	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		return nil, err
	}

	base := s.baseURL
	if base == "" {
		base = strings.TrimRight(fallbackBase, "/")
	}

	return &RegisterResult{
		TrackingID:      reg.TrackingID,
		TrackingURL:     fmt.Sprintf("%s%s%s", base, PixelPath, reg.TrackingID),
		StylesheetURL:   fmt.Sprintf("%s%s%s", base, StylesheetPath, reg.TrackingID),
		ConfirmationURL: fmt.Sprintf("%s%s%s", base, ConfirmPath, reg.TrackingID),
	}, nil
}

// LogOpen appends one open event for the given identifier. The identifier is
// treated as an opaque string: no format check, no existence check, so a
// fetch against an unknown id is a benign no-op from the reader's side.
// Callers serving tracking resources log the returned error and discard it.
func (s *Service) LogOpen(ctx context.Context, trackingID, ipAddress, userAgent string) error {
	if ipAddress == "" {
		ipAddress = "unknown"
	}
	if userAgent == "" {
		userAgent = "unknown"
	}
	evt := &OpenEvent{
		TrackingID: trackingID,
		OpenedAt:   time.Now().UTC(),
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}
	return s.store.RecordOpen(ctx, evt)
}

// Report returns all registrations joined with their open events for display
func (s *Service) Report(ctx context.Context) ([]*RegistrationReport, error) {
	return s.store.ListRegistrationsWithEvents(ctx)
}
