// Package access decides, per request, whether an identity may call an endpoint.
// It knows nothing about how the identity was authenticated.
package access

import (
	"net/http"
	"strings"

	"catalog/internal/models"
)

// Decision is the outcome of evaluating a request against the policy.
type Decision int

const (
	Allow Decision = iota
	// Unauthenticated means the request needs an identity and has none.
	Unauthenticated
	// Forbidden means the identity lacks the required role.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Rule matches requests by method and path prefix, ignoring case on both. An
// empty Method matches any method.
// Public rules admit anonymous callers; otherwise an identity holding one of Roles is
// required, or any identity when Roles is empty.
type Rule struct {
	Method string
	Prefix string
	Roles  []models.Role
	Public bool
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	prefix := strings.ToLower(strings.TrimSuffix(r.Prefix, "/"))
	path = strings.ToLower(path)
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Policy is an ordered rule table; the first matching rule wins and unmatched
// requests require any authenticated identity.
type Policy struct {
	rules []Rule
}

// NewPolicy creates a policy from rules evaluated in order.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy is the catalog rule table.
func DefaultPolicy() *Policy {
	anyRole := []models.Role{models.RoleUser, models.RoleAdmin}
	adminOnly := []models.Role{models.RoleAdmin}
	return NewPolicy(
		Rule{Prefix: "/error", Public: true},
		Rule{Method: http.MethodGet, Prefix: "/health", Public: true},
		Rule{Method: http.MethodGet, Prefix: "/products", Roles: anyRole},
		Rule{Method: http.MethodPost, Prefix: "/products", Roles: adminOnly},
		Rule{Method: http.MethodPatch, Prefix: "/products", Roles: adminOnly},
		Rule{Method: http.MethodDelete, Prefix: "/products", Roles: adminOnly},
	)
}

// Evaluate decides whether identity (nil for anonymous callers) may perform method on path.
func (p *Policy) Evaluate(method, path string, identity *models.Identity) Decision {
	for _, rule := range p.rules {
		if !rule.matches(method, path) {
			continue
		}
		if rule.Public {
			return Allow
		}
		if identity == nil {
			return Unauthenticated
		}
		if len(rule.Roles) == 0 || identity.HasRole(rule.Roles...) {
			return Allow
		}
		return Forbidden
	}

	if identity == nil {
		return Unauthenticated
	}
	return Allow
}
