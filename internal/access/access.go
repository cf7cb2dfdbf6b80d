// Package access resolves whether a principal may perform an action on a
// protected resource.
//
// The evaluator is a pure function: no I/O, no mutation, fully
// deterministic given resource, principal, and a clock reading. It never
// returns an error; callers convert a false result into an UNAUTHORIZED
// failure at their own boundary.
package access

import (
	"time"

	"github.com/crowdtune/crowdtune-server/internal/domain"
)

// Resource is anything guarded by an owner and an ACL.
type Resource interface {
	Owner() string
	ACL() domain.AccessControl
}

// PublicResource is a resource that can additionally be marked
// world-readable. Public only ever affects reads.
type PublicResource interface {
	Resource
	Public() bool
}

// CanAccess reports whether the principal may perform the action on the
// resource at the given instant.
//
// Rules, first match wins:
//  1. Owner bypasses the ACL entirely, for every action.
//  2. A public resource is readable by anyone.
//  3. The action's ACL entry admits the principal directly, by group,
//     or via an unexpired grant.
//  4. Otherwise deny. A missing entry and a present-but-empty entry deny
//     identically; no action ever grants another transitively.
func CanAccess(res Resource, p domain.Principal, action domain.Action, now time.Time) bool {
	if res.Owner() != "" && res.Owner() == p.ID {
		return true
	}

	if action == domain.ActionRead {
		if pub, ok := res.(PublicResource); ok && pub.Public() {
			return true
		}
	}

	return res.ACL().Allows(action, p.ID, p.Groups, now)
}

// CanAccessNow is CanAccess against the wall clock.
func CanAccessNow(res Resource, p domain.Principal, action domain.Action) bool {
	return CanAccess(res, p, action, time.Now())
}
