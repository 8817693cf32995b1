package domain

import "time"

// CredentialTTL is the freshness window of a rotating credential.
const CredentialTTL = 5 * time.Minute

// Identity is the authenticated principal, linked to a Telegram account.
type Identity struct {
	ID          int64  `json:"id"`
	ExternalID  int64  `json:"telegram_id"`
	DisplayName string `json:"username"`
	Role        Role   `json:"role"`
	// CredentialHash is the keyed digest of the current rotating credential.
	// The plaintext is never stored.
	CredentialHash     string     `json:"-"`
	CredentialIssuedAt *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// HasCredential reports whether a credential has ever been issued.
func (i *Identity) HasCredential() bool {
	return i.CredentialHash != "" && i.CredentialIssuedAt != nil
}

// CredentialStale reports whether the credential must be rotated at now:
// either none was issued yet or it is at least ttl old.
func (i *Identity) CredentialStale(now time.Time, ttl time.Duration) bool {
	if !i.HasCredential() {
		return true
	}
	return now.Sub(*i.CredentialIssuedAt) >= ttl
}

// Snapshot returns the claims view of the identity.
func (i *Identity) Snapshot() IdentitySnapshot {
	return IdentitySnapshot{ID: i.ID, DisplayName: i.DisplayName, Role: i.Role}
}

// IdentitySnapshot is what a session token asserts about its bearer. It is
// a claim taken at issuance, not a guarantee that the identity still exists.
type IdentitySnapshot struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"username"`
	Role        Role   `json:"role"`
}

// IsAdmin reports whether the snapshot carries the ADMIN role.
func (s IdentitySnapshot) IsAdmin() bool { return s.Role == RoleAdmin }

// IdentityPatch is a sparse update; nil fields are left untouched.
// Role is kept raw so an unknown value can be reported as ErrInvalidRole.
type IdentityPatch struct {
	DisplayName        *string
	CredentialHash     *string
	CredentialIssuedAt *time.Time
	Role               *string
}

// Empty reports whether the patch sets no recognised field.
func (p IdentityPatch) Empty() bool {
	return p.DisplayName == nil && p.CredentialHash == nil && p.Role == nil
}

// SessionToken is a signed session token together with its expiry.
type SessionToken struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginAck confirms a login request was accepted. It is returned whether or
// not the credential was rotated, so callers cannot probe credential age.
type LoginAck struct {
	DisplayName string    `json:"username"`
	Channel     string    `json:"channel"`
	AcceptedAt  time.Time `json:"accepted_at"`
}

// CredentialDelivery is an out-of-band message carrying a fresh credential.
type CredentialDelivery struct {
	ExternalID  int64     `json:"telegram_id"`
	DisplayName string    `json:"username"`
	Code        string    `json:"code"`
	IssuedAt    time.Time `json:"issued_at"`
}
