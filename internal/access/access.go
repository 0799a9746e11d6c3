// Package access holds the administrator principal set. It is configuration
// handed to services at construction; there is no built-in admin.
package access

import (
	"strings"

	"medtransit/pkg/domain"
)

// Admins is an immutable set of administrator principals.
type Admins struct {
	set map[domain.Principal]struct{}
}

// NewAdmins builds the set, ignoring blank entries.
func NewAdmins(principals ...domain.Principal) Admins {
	set := make(map[domain.Principal]struct{}, len(principals))
	for _, p := range principals {
		p = domain.Principal(strings.TrimSpace(string(p)))
		if p.IsNil() {
			continue
		}
		set[p] = struct{}{}
	}
	return Admins{set: set}
}

// ParseAdmins builds the set from a comma separated list.
func ParseAdmins(csv string) Admins {
	var principals []domain.Principal
	for _, part := range strings.Split(csv, ",") {
		principals = append(principals, domain.Principal(part))
	}
	return NewAdmins(principals...)
}

// IsAdmin reports whether p is an administrator. The empty principal never is.
func (a Admins) IsAdmin(p domain.Principal) bool {
	if p.IsNil() {
		return false
	}
	_, ok := a.set[p]
	return ok
}

func (a Admins) Len() int { return len(a.set) }
