package lifecycle

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Config tunes the lifecycle rules. The zero value is not usable; start
// from NewConfig.
type Config struct {
	// RefreshFlowsAfterAuth enables the realtime device broadcast after a
	// successful login.
	RefreshFlowsAfterAuth bool
	// DeviceCookie is the cookie carrying the device identifier.
	DeviceCookie string
	// PublishTimeout bounds the notifier's publish call.
	PublishTimeout time.Duration
	// Expiry is assigned to expiring entities persisted without one.
	Expiry time.Duration
}

func NewConfig() Config {
	return Config{
		DeviceCookie:   DeviceCookieName,
		PublishTimeout: DefaultPublishTimeout,
		Expiry:         DefaultExpiry,
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.DeviceCookie,
			validation.Required,
		),
		validation.Field(
			&c.PublishTimeout,
			validation.Required,
			validation.Min(time.Millisecond),
		),
		validation.Field(
			&c.Expiry,
			validation.Required,
			validation.Min(time.Second),
		),
	)
}
