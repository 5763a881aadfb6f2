package database

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrLocationNotFound     = errors.New("location not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrDeviceNotFound       = errors.New("device not found")
	ErrLinkCodeNotFound     = errors.New("link code not found or expired")
)
