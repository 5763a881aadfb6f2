package push

import "strings"

// Platform is the closed set of device platforms a token can belong to.
type Platform string

const (
	PlatformIOS      Platform = "ios"
	PlatformAndroid  Platform = "android"
	PlatformWeb      Platform = "web"
	PlatformTelegram Platform = "telegram"
	PlatformLegacy   Platform = "legacy"
	PlatformUnknown  Platform = "unknown"
)

// ParsePlatform maps a stored platform key to a Platform, falling back to unknown.
func ParsePlatform(s string) Platform {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformIOS, PlatformAndroid, PlatformWeb, PlatformTelegram, PlatformLegacy:
		return p
	}
	return PlatformUnknown
}

// Device is one deliverable address.
type Device struct {
	UserID   string
	Platform Platform
	Token    string
}
