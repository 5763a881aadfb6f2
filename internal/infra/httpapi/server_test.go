package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padel_notifier/internal/app"
	"padel_notifier/internal/domain/booking"
	"padel_notifier/internal/domain/notification"
	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/user"
	"padel_notifier/internal/infra/config"
	idb "padel_notifier/internal/infra/database"
	"padel_notifier/internal/infra/logger"
)

type stubBookings struct {
	created *app.NewBooking
	patched *booking.Patch
}

func (s *stubBookings) Create(_ context.Context, in app.NewBooking) (*booking.Booking, error) {
	s.created = &in
	if in.LocationID == "missing" {
		return nil, idb.ErrLocationNotFound
	}
	return &booking.Booking{ID: "b-new", LocationID: in.LocationID, Date: in.Date, Time: in.Time, Status: booking.StatusPending, Courts: in.Courts}, nil
}

func (s *stubBookings) Update(_ context.Context, id string, patch booking.Patch) (*booking.Booking, error) {
	if id != "b1" {
		return nil, idb.ErrBookingNotFound
	}
	s.patched = &patch
	b := &booking.Booking{ID: id, Status: booking.StatusPending}
	patch.Apply(b)
	return b, nil
}

func (s *stubBookings) ListByLocationAndDate(_ context.Context, locationID, date string) ([]*booking.Booking, error) {
	return []*booking.Booking{{ID: "b1", LocationID: locationID, Date: date, Status: booking.StatusApproved}}, nil
}

func (s *stubBookings) Availability(_ context.Context, _, _ string) (map[string][]string, error) {
	return map[string][]string{"Court 1": {"9:00 PM"}}, nil
}

type stubNotifications struct {
	got *notification.Intent
}

func (s *stubNotifications) CreateIntent(_ context.Context, intent notification.Intent) (*notification.Intent, error) {
	intent.ID = "n1"
	s.got = &intent
	return &intent, nil
}

type stubDevices struct {
	registered map[push.Platform]string
}

func (s *stubDevices) Register(_ context.Context, _ string, platform push.Platform, token string) error {
	if platform == push.PlatformUnknown {
		return app.ErrInvalidDevice
	}
	s.registered[platform] = token
	return nil
}

func (s *stubDevices) Unregister(_ context.Context, _ string, platform push.Platform) error {
	delete(s.registered, platform)
	return nil
}

func (s *stubDevices) IssueTelegramLink(_ context.Context, userID string) (*user.LinkCode, error) {
	if userID != "u1" {
		return nil, idb.ErrUserNotFound
	}
	return &user.LinkCode{Code: "c0de", UserID: userID, ExpiresAt: time.Date(2026, 1, 27, 10, 15, 0, 0, time.UTC)}, nil
}

type fixture struct {
	router        http.Handler
	bookings      *stubBookings
	notifications *stubNotifications
	devices       *stubDevices
}

func newFixture() *fixture {
	f := &fixture{
		bookings:      &stubBookings{},
		notifications: &stubNotifications{},
		devices:       &stubDevices{registered: map[push.Platform]string{}},
	}
	cfg := &config.HTTPConfig{APIKey: "secret", CORSAllowOrigins: []string{"*"}}
	h := NewHandler(f.bookings, f.notifications, f.devices, logger.Discard())
	f.router = NewRouter(cfg, h, http.NotFoundHandler())
	return f
}

func (f *fixture) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set(apiKeyHeader, "secret")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAPIKeyRequired(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/locations/loc-x/bookings?date=2026-01-27", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Error.Code)

	rec = f.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListBookings(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/locations/loc-x/bookings?date=2026-01-27", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Bookings []bookingView `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "loc-x", resp.Bookings[0].LocationID)

	rec = f.do(http.MethodGet, "/api/v1/locations/loc-x/bookings", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Error.Code)
}

func TestAvailabilityRoute(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/locations/loc-x/availability?date=27/01/2026", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"27/01/2026","courts":{"Court 1":["9:00 PM"]}}`, rec.Body.String())
}

func TestCreateBooking(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/v1/bookings",
		`{"userId":"u1","locationId":"loc-x","date":"2026-01-27","time":"7:45 PM","courts":{"Court 1":["7:45 PM"]}}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.bookings.created)
	assert.Equal(t, "u1", f.bookings.created.UserID)

	rec = f.do(http.MethodPost, "/api/v1/bookings",
		`{"userId":"u1","locationId":"loc-x","date":"tomorrow","time":"19:45","courts":{"Court 1":["7:45 PM"]}}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	msg := decodeError(t, rec).Error.Message
	assert.Contains(t, msg, "date")
	assert.Contains(t, msg, "time")

	rec = f.do(http.MethodPost, "/api/v1/bookings",
		`{"userId":"u1","locationId":"missing","date":"2026-01-27","time":"7:45 PM","courts":{"Court 1":["7:45 PM"]}}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/bookings", `{"bogus":true}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_JSON", decodeError(t, rec).Error.Code)
}

func TestUpdateBooking(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPatch, "/api/v1/bookings/b1", `{"status":"approved"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var view bookingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, booking.StatusApproved, view.Status)

	rec = f.do(http.MethodPatch, "/api/v1/bookings/b1", `{"status":"maybe"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/api/v1/bookings/nope", `{"status":"cancelled"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateNotification(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/v1/notifications", `{"isAdminNotification":true,"venue":"Venue X","title":"Hi"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.notifications.got)
	assert.Equal(t, "Venue X", f.notifications.got.Venue)

	rec = f.do(http.MethodPost, "/api/v1/notifications", `{"title":"nobody"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDevices(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPut, "/api/v1/users/u1/devices/ios", `{"token":"abc"}`, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "abc", f.devices.registered[push.PlatformIOS])

	rec = f.do(http.MethodPut, "/api/v1/users/u1/devices/pager", `{"token":"abc"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/users/u1/devices/ios", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.devices.registered)
}

func TestIssueTelegramLink(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/v1/users/u1/telegram-link", "", true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"code":"c0de","command":"/start c0de","expiresAt":"2026-01-27T10:15:00Z"}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/v1/users/ghost/telegram-link", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/users/u1/telegram-link", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(0.001, 2)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	l := newIPLimiter(1, 1)
	clock := time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock

	l.get("10.0.0.1")
	l.get("10.0.0.2")
	clock = clock.Add(limiterIdleTTL / 2)
	l.get("10.0.0.2")
	assert.Len(t, l.limiters, 2)

	clock = clock.Add(limiterIdleTTL / 2)
	l.get("10.0.0.3")
	assert.Len(t, l.limiters, 2)
	assert.NotContains(t, l.limiters, "10.0.0.1")
	assert.Contains(t, l.limiters, "10.0.0.2")
}
