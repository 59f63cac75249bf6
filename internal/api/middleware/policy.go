package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/usermanager/user-management/internal/api/metrics"
	"github.com/usermanager/user-management/internal/core/domain"
)

// Rule is one row of the access table. A Public rule admits anonymous
// requests. Otherwise the caller must be authenticated and, when Authorities
// is non-empty, hold at least one of them.
type Rule struct {
	Prefix      string
	Public      bool
	Authorities []string
}

// Policy is an ordered access table; the first matching rule wins. Paths
// that match no rule require an authenticated caller.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the route table of the API.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Rule{Prefix: "/auth", Public: true},
		Rule{Prefix: "/public", Public: true},
		Rule{Prefix: "/health", Public: true},
		Rule{Prefix: "/metrics", Public: true},
		Rule{Prefix: "/swagger", Public: true},
		Rule{Prefix: "/admin", Authorities: []string{domain.RoleAdmin}},
		Rule{Prefix: "/user", Authorities: []string{domain.RoleUser}},
		Rule{Prefix: "/adminuser", Authorities: []string{domain.RoleAdmin, domain.RoleUser}},
	)
}

// Match returns the first rule whose prefix covers p.
func (p *Policy) Match(urlPath string) (Rule, bool) {
	clean := cleanPath(urlPath)
	for _, r := range p.rules {
		if hasSegmentPrefix(clean, r.Prefix) {
			return r, true
		}
	}
	return Rule{}, false
}

// IsPublic reports whether urlPath is open to anonymous callers.
func (p *Policy) IsPublic(urlPath string) bool {
	r, ok := p.Match(urlPath)
	return ok && r.Public
}

// Authorize enforces p against the identity bound by IdentityGate. It must be
// registered after the gate.
func Authorize(p *Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rule, matched := p.Match(RoutePath(c))
			if matched && rule.Public {
				return next(c)
			}

			id, ok := domain.IdentityFrom(c.Request().Context())
			if !ok || id.IsAnonymous() {
				metrics.GateDecisionsTotal.WithLabelValues("unbound").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthorized.Error())
			}

			if matched && len(rule.Authorities) > 0 && !id.HasAnyAuthority(rule.Authorities...) {
				metrics.GateDecisionsTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrForbidden.Error())
			}

			return next(c)
		}
	}
}

// hasSegmentPrefix matches whole path segments: "/admin" covers "/admin" and
// "/admin/x" but not "/adminuser".
func hasSegmentPrefix(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// RoutePath returns the path the router dispatched on: the matched route
// template, or the still-escaped request path when no route matched.
// Encoded separators such as %2F and %2E%2E are never decoded here.
func RoutePath(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.EscapedPath()
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}
