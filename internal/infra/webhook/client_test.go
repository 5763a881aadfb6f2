package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padel_notifier/internal/app"
	"padel_notifier/internal/domain/booking"
)

func TestPost(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Post(context.Background(), app.SyncPayload{
		Event:     app.SyncEventCreated,
		Timestamp: "2026-01-27T12:00:00Z",
		Data: app.BookingSnapshot{
			ID: "b1", LocationID: "loc-x", Status: booking.StatusPending, Type: booking.TypeVenue,
			Courts: map[string][]string{"Court 1": {"6:00 PM"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "booking.created", got["event"])
	data := got["data"].(map[string]any)
	assert.Equal(t, "b1", data["id"])
	assert.Equal(t, "pending", data["status"])
	assert.NotContains(t, data, "previousStatus")
}

func TestPostNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Post(context.Background(), app.SyncPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
