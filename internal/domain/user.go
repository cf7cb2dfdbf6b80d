package domain

import "slices"

// DefaultGroup is the group every registered user belongs to.
const DefaultGroup = "user"

// User represents a registered account.
// Usernames are unique and case-sensitive. Accounts are never physically
// deleted, only soft-deleted via the audit envelope.
type User struct {
	Audit
	Username     string        `json:"username"`
	PasswordHash string        `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Groups       []string      `json:"groups"`
	AccessCtl    AccessControl `json:"access_control,omitempty"`
}

// NewGroups returns the default group set for a fresh registration.
func NewGroups() []string {
	return []string{DefaultGroup}
}

// InGroup reports whether the user belongs to the named group.
func (u *User) InGroup(group string) bool {
	return slices.Contains(u.Groups, group)
}

// Principal is the pre-authenticated identity handed to the core by the
// calling layer. The core performs no credential verification itself.
type Principal struct {
	ID     string
	Groups []string
}

// Principal derives the access-control principal for this user.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Groups: u.Groups}
}
