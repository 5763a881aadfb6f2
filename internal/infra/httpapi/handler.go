package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"

	"padel_notifier/internal/app"
	"padel_notifier/internal/domain/booking"
	"padel_notifier/internal/domain/notification"
	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/schedule"
	"padel_notifier/internal/domain/user"
)

// DeviceRegistry is the device service surface exposed over HTTP.
type DeviceRegistry interface {
	Register(ctx context.Context, userID string, platform push.Platform, token string) error
	Unregister(ctx context.Context, userID string, platform push.Platform) error
	IssueTelegramLink(ctx context.Context, userID string) (*user.LinkCode, error)
}

type Handler struct {
	bookings      app.BookingService
	notifications app.NotificationService
	devices       DeviceRegistry
	logger        logrus.FieldLogger
}

func NewHandler(bookings app.BookingService, notifications app.NotificationService, devices DeviceRegistry, logger logrus.FieldLogger) *Handler {
	return &Handler{bookings: bookings, notifications: notifications, devices: devices, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type bookingView struct {
	ID         string              `json:"id"`
	UserID     string              `json:"userId"`
	LocationID string              `json:"locationId"`
	Location   string              `json:"location"`
	Date       string              `json:"date"`
	Time       string              `json:"time"`
	EndTime    string              `json:"endTime,omitempty"`
	Type       booking.Type        `json:"type"`
	Courts     map[string][]string `json:"courts"`
	Status     booking.Status      `json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

func toView(b *booking.Booking) bookingView {
	return bookingView{
		ID:         b.ID,
		UserID:     b.UserID,
		LocationID: b.LocationID,
		Location:   b.LocationName,
		Date:       b.Date,
		Time:       b.Time,
		EndTime:    b.EndTime,
		Type:       b.Type,
		Courts:     b.Courts,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func requireDate(r *http.Request) (string, error) {
	date := r.URL.Query().Get("date")
	return date, validation.Errors{"date": validation.Validate(date, validation.Required, validation.By(civilDate))}.Filter()
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	date, err := requireDate(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	bookings, err := h.bookings.ListByLocationAndDate(r.Context(), chi.URLParam(r, "locationID"), date)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toView(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	date, err := requireDate(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	free, err := h.bookings.Availability(r.Context(), chi.URLParam(r, "locationID"), date)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "courts": free})
}

type createBookingRequest struct {
	UserID     string              `json:"userId"`
	LocationID string              `json:"locationId"`
	Date       string              `json:"date"`
	Time       string              `json:"time"`
	EndTime    string              `json:"endTime"`
	Type       string              `json:"type"`
	Courts     map[string][]string `json:"courts"`
	Status     string              `json:"status"`
}

func (req createBookingRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.LocationID, validation.Required),
		validation.Field(&req.Date, validation.Required, validation.By(civilDate)),
		validation.Field(&req.Time, validation.Required, validation.By(civilClock)),
		validation.Field(&req.EndTime, validation.By(civilClock)),
		validation.Field(&req.Type, validation.In(string(booking.TypeVenue), string(booking.TypeTraining))),
		validation.Field(&req.Courts, validation.Required),
		validation.Field(&req.Status, validation.In(statusValues()...)),
	)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	b, err := h.bookings.Create(r.Context(), app.NewBooking{
		UserID:     req.UserID,
		LocationID: req.LocationID,
		Date:       req.Date,
		Time:       req.Time,
		EndTime:    req.EndTime,
		Type:       booking.Type(req.Type),
		Courts:     req.Courts,
		Status:     booking.Status(req.Status),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toView(b))
}

type updateBookingRequest struct {
	Status  *string             `json:"status"`
	Courts  map[string][]string `json:"courts"`
	Time    *string             `json:"time"`
	EndTime *string             `json:"endTime"`
}

func (req updateBookingRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.NilOrNotEmpty, validation.In(statusValues()...)),
		validation.Field(&req.Time, validation.NilOrNotEmpty, validation.By(civilClock)),
		validation.Field(&req.EndTime, validation.By(civilClock)),
	)
}

func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req updateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	patch := booking.Patch{Courts: req.Courts, Time: req.Time, EndTime: req.EndTime}
	if req.Status != nil {
		s := booking.Status(*req.Status)
		patch.Status = &s
	}
	b, err := h.bookings.Update(r.Context(), chi.URLParam(r, "bookingID"), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(b))
}

type createNotificationRequest struct {
	UserID              string `json:"userId"`
	Title               string `json:"title"`
	Body                string `json:"body"`
	IsAdminNotification bool   `json:"isAdminNotification"`
	Venue               string `json:"venue"`
	Kind                string `json:"kind"`
}

func (req createNotificationRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.UserID, validation.When(!req.IsAdminNotification, validation.Required)),
	)
}

func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	intent, err := h.notifications.CreateIntent(r.Context(), notification.Intent{
		UserID:              req.UserID,
		Title:               req.Title,
		Body:                req.Body,
		IsAdminNotification: req.IsAdminNotification,
		Venue:               req.Venue,
		Kind:                req.Kind,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": intent.ID, "createdAt": intent.CreatedAt})
}

type registerDeviceRequest struct {
	Token string `json:"token"`
}

func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if !h.decode(w, r, &req) {
		return
	}
	platform := push.ParsePlatform(chi.URLParam(r, "platform"))
	if err := h.devices.Register(r.Context(), chi.URLParam(r, "userID"), platform, req.Token); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	platform := push.ParsePlatform(chi.URLParam(r, "platform"))
	if err := h.devices.Unregister(r.Context(), chi.URLParam(r, "userID"), platform); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) IssueTelegramLink(w http.ResponseWriter, r *http.Request) {
	code, err := h.devices.IssueTelegramLink(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"code":      code.Code,
		"command":   "/start " + code.Code,
		"expiresAt": code.ExpiresAt,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return false
	}
	return true
}

func statusValues() []any {
	out := make([]any, 0, len(booking.Statuses))
	for _, s := range booking.Statuses {
		out = append(out, string(s))
	}
	return out
}

func civilDate(v any) error {
	s, err := stringValue(v)
	if err != nil || s == "" {
		return err
	}
	if _, err := schedule.ParseDate(s); err != nil {
		return errors.New("must be YYYY-MM-DD or DD/MM/YYYY")
	}
	return nil
}

func civilClock(v any) error {
	s, err := stringValue(v)
	if err != nil || s == "" {
		return err
	}
	if _, err := schedule.ParseClock(s); err != nil {
		return errors.New("must look like 7:45 PM")
	}
	return nil
}

func stringValue(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case *string:
		if s == nil {
			return "", nil
		}
		return *s, nil
	}
	return "", errors.New("must be a string")
}
