package domain

import (
	"slices"
	"time"
)

// Action is an operation a principal may attempt on a protected resource.
type Action string

// The four grantable actions. Each action has its own explicit grant:
// write never implies read; composing broader semantics is the caller's job.
const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionModify Action = "modify" // change resource settings / its ACL
	ActionDelete Action = "delete"
)

// Grant is a time-bounded ACL membership. The holder counts as a member
// of the entry only while the clock reads before Expires.
type Grant struct {
	UserID  string    `json:"user_id"`
	Expires time.Time `json:"expires"`
}

// Active reports whether the grant is still valid at the given instant.
func (g Grant) Active(now time.Time) bool {
	return now.Before(g.Expires)
}

// AccessEntry is the allow-list for a single action.
//
// An entry that is present but empty denies exactly like an absent entry;
// it is kept verbatim for inspection and auditing, never normalized away.
type AccessEntry struct {
	Users  []string `json:"users,omitempty"`
	Groups []string `json:"groups,omitempty"`
	Grants []Grant  `json:"grants,omitempty"`
}

// AccessControl maps each action to its allow-list.
// A missing action entry means nobody but the owner may perform it.
type AccessControl map[Action]AccessEntry

// Allows reports whether the entry for the given action admits a user with
// the given id and group memberships at the given instant. Expired grants
// are treated as absent; they are never purged here.
func (ac AccessControl) Allows(action Action, userID string, groups []string, now time.Time) bool {
	entry, ok := ac[action]
	if !ok {
		return false
	}
	if slices.Contains(entry.Users, userID) {
		return true
	}
	for _, g := range entry.Groups {
		if slices.Contains(groups, g) {
			return true
		}
	}
	for _, grant := range entry.Grants {
		if grant.UserID == userID && grant.Active(now) {
			return true
		}
	}
	return false
}
