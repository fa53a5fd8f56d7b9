package lifecycle

import (
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// DeviceCookieName is the cookie carrying the client's device identifier.
const DeviceCookieName = "device_id"

// RequestContext is the slice of the ambient HTTP request the login rules
// need: cookie lookup plus the session key and client metadata captured by
// the session layer.
type RequestContext interface {
	Cookie(name string) (string, bool)
	SessionKey() string
	ClientIP() string
	UserAgent() string
}

// NewAuthenticatedSession builds the derived session record from a login
// request. Returns nil when the request carries no session key, in which
// case there is nothing to persist. An empty deviceCookie falls back to
// DeviceCookieName.
func NewAuthenticatedSession(req RequestContext, user *User, deviceCookie string) *AuthenticatedSession {
	if req == nil || user == nil {
		return nil
	}
	key := req.SessionKey()
	if key == "" {
		return nil
	}
	if deviceCookie == "" {
		deviceCookie = DeviceCookieName
	}

	session := &AuthenticatedSession{
		SessionKey:    key,
		UserID:        user.ID,
		LastIP:        req.ClientIP(),
		LastUserAgent: req.UserAgent(),
	}
	if device, ok := req.Cookie(deviceCookie); ok {
		session.DeviceID = device
	}
	return session
}

// BuildDeviceGroup derives the pub/sub group name for a device identifier.
func BuildDeviceGroup(deviceID string) string {
	return "device-events-" + deviceID
}

// SessionKeyID derives a deterministic uuid from an opaque session key,
// useful for callers that need uuid-addressable session records.
func SessionKeyID(key string) uuid.UUID {
	if id, err := hashid.NewUUID(key); err == nil {
		return id
	}
	return uuid.New()
}
