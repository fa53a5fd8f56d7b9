package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entity kinds used by rule filters.
const (
	KindUser                 = "user"
	KindGroup                = "group"
	KindApplication          = "application"
	KindSession              = "session"
	KindAuthenticatedSession = "authenticated_session"
	KindProvider             = "provider"
)

// DefaultExpiry is assigned to expiring entities persisted without an
// explicit expiry.
const DefaultExpiry = 30 * time.Minute

// User is an identity-domain account with free-form attributes. Partner
// group assignment reads the tenant_type and isISV attribute keys.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Name          string         `bun:"name" json:"name,omitempty"`
	Email         string         `bun:"email" json:"email,omitempty"`
	Attributes    map[string]any `bun:"attributes,type:jsonb" json:"attributes,omitempty"`
	Groups        []*Group       `bun:"m2m:user_groups,join:User=Group" json:"groups,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

func (u *User) EntityKind() string { return KindUser }
func (u *User) EntityID() string   { return u.ID.String() }

// Attribute returns the named attribute, or nil when unset.
func (u *User) Attribute(key string) any {
	if u.Attributes == nil {
		return nil
	}
	return u.Attributes[key]
}

// SetAttribute stores an attribute, allocating the map on first use.
func (u *User) SetAttribute(key string, val any) *User {
	if u.Attributes == nil {
		u.Attributes = map[string]any{}
	}
	u.Attributes[key] = val
	return u
}

// Group is a named membership bucket. The name is unique and is the lookup
// key used by policy rules; identity is immutable once created.
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:grp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

func (g *Group) EntityKind() string { return KindGroup }
func (g *Group) EntityID() string   { return g.ID.String() }

// UserGroup is the users<->groups join row. The composite primary key keeps
// membership free of duplicates.
type UserGroup struct {
	bun.BaseModel `bun:"table:user_groups,alias:ug"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	GroupID       uuid.UUID `bun:"group_id,pk,type:uuid" json:"group_id,omitempty"`
	Group         *Group    `bun:"rel:belongs-to,join:group_id=id" json:"-"`
}

// Application is an owned entity whose creation drops the per-viewer
// listing cache namespace.
type Application struct {
	bun.BaseModel `bun:"table:applications,alias:app"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Slug          string     `bun:"slug,notnull,unique" json:"slug,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

func (a *Application) EntityKind() string { return KindApplication }
func (a *Application) EntityID() string   { return a.ID.String() }

// Session is the storage-layer session keyed by an opaque session key.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	SessionKey    string     `bun:"session_key,pk" json:"session_key,omitempty"`
	Expiring      bool       `bun:"expiring" json:"expiring,omitempty"`
	Expires       *time.Time `bun:"expires,nullzero" json:"expires,omitempty"`
	LastIP        string     `bun:"last_ip" json:"last_ip,omitempty"`
	LastUserAgent string     `bun:"last_user_agent" json:"last_user_agent,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

func (s *Session) EntityKind() string { return KindSession }
func (s *Session) EntityID() string   { return s.SessionKey }

func (s *Session) IsExpiring() bool        { return s.Expiring }
func (s *Session) GetExpires() *time.Time  { return s.Expires }
func (s *Session) SetExpires(at time.Time) { s.Expires = &at }

// AuthenticatedSession links a Session's key to the user it authenticated,
// plus request metadata captured at login. Deleting it cascades (one-way)
// to the Session with the matching key.
type AuthenticatedSession struct {
	bun.BaseModel `bun:"table:authenticated_sessions,alias:aus"`
	SessionKey    string     `bun:"session_key,pk" json:"session_key,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	DeviceID      string     `bun:"device_id" json:"device_id,omitempty"`
	LastIP        string     `bun:"last_ip" json:"last_ip,omitempty"`
	LastUserAgent string     `bun:"last_user_agent" json:"last_user_agent,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

func (a *AuthenticatedSession) EntityKind() string { return KindAuthenticatedSession }
func (a *AuthenticatedSession) EntityID() string   { return a.SessionKey }

// Provider is a backchannel-capable provider entity. The pre-write rule
// forces IsBackchannel on regardless of the caller-supplied value.
type Provider struct {
	bun.BaseModel `bun:"table:providers,alias:prv"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	IsBackchannel bool       `bun:"is_backchannel,notnull" json:"is_backchannel,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

func (p *Provider) EntityKind() string { return KindProvider }
func (p *Provider) EntityID() string   { return p.ID.String() }

func (p *Provider) MarkBackchannel() { p.IsBackchannel = true }

var (
	_ Entity        = (*User)(nil)
	_ Entity        = (*Group)(nil)
	_ Entity        = (*Application)(nil)
	_ Expirable     = (*Session)(nil)
	_ Entity        = (*AuthenticatedSession)(nil)
	_ Backchanneler = (*Provider)(nil)
)
