package tracker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	store, mock := newMockStore(t)
	svc := NewService(store, "https://track.example.com")

	tests := []struct {
		name      string
		recipient string
		subject   string
		wantField string
	}{
		{"empty recipient", "", "Hi", "recipient"},
		{"whitespace recipient", "   ", "Hi", "recipient"},
		{"empty subject", "a@b.com", "", "subject"},
		{"whitespace subject", "a@b.com", "\t", "subject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Register(context.Background(), tt.recipient, tt.subject, "")
			require.Error(t, err)
			assert.Nil(t, res)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}

	// No insert may reach the store for invalid input.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterMintsFreshIdentifier(t *testing.T) {
	store, mock := newMockStore(t)
	svc := NewService(store, "https://track.example.com")

	mock.ExpectExec("INSERT INTO tracked_emails").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tracked_emails").
		WillReturnResult(sqlmock.NewResult(0, 1))

	first, err := svc.Register(context.Background(), "a@b.com", "Hi", "")
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), "a@b.com", "Hi", "")
	require.NoError(t, err)

	// UUID-shaped and unique even for identical recipient/subject pairs.
	_, err = uuid.Parse(first.TrackingID)
	assert.NoError(t, err)
	_, err = uuid.Parse(second.TrackingID)
	assert.NoError(t, err)
	assert.NotEqual(t, first.TrackingID, second.TrackingID)

	assert.Equal(t, "https://track.example.com/track/"+first.TrackingID, first.TrackingURL)
	assert.Equal(t, "https://track.example.com/track.css/"+first.TrackingID, first.StylesheetURL)
	assert.Equal(t, "https://track.example.com/confirm-open/"+first.TrackingID, first.ConfirmationURL)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterFallbackBase(t *testing.T) {
	store, mock := newMockStore(t)
	svc := NewService(store, "")

	mock.ExpectExec("INSERT INTO tracked_emails").
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := svc.Register(context.Background(), "a@b.com", "Hi", "http://10.0.0.5:8080/")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.TrackingURL, "http://10.0.0.5:8080/track/"))
	assert.True(t, strings.HasSuffix(res.TrackingURL, res.TrackingID))
}

func TestRegisterStorageFailure(t *testing.T) {
	store, mock := newMockStore(t)
	svc := NewService(store, "https://track.example.com")

	mock.ExpectExec("INSERT INTO tracked_emails").
		WillReturnError(errors.New("disk full"))

	res, err := svc.Register(context.Background(), "a@b.com", "Hi", "")
	require.Error(t, err)
	// The identifier must not be handed out when the insert failed.
	assert.Nil(t, res)

	var storageErr *StorageError
	assert.True(t, errors.As(err, &storageErr))
}

func TestLogOpenDefaultsMissingClientInfo(t *testing.T) {
	store, mock := newMockStore(t)
	svc := NewService(store, "")

	mock.ExpectExec("INSERT INTO open_events").
		WithArgs("id-123", sqlmock.AnyArg(), "unknown", "unknown").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := svc.LogOpen(context.Background(), "id-123", "", "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogOpenSurfacesStorageError(t *testing.T) {
	store, mock := newMockStore(t)
	svc := NewService(store, "")

	mock.ExpectExec("INSERT INTO open_events").
		WillReturnError(errors.New("database is locked"))

	err := svc.LogOpen(context.Background(), "id-123", "203.0.113.9", "Mozilla/5.0")
	require.Error(t, err)

	var storageErr *StorageError
	assert.True(t, errors.As(err, &storageErr))
}
