package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/usermanager/user-management/internal/api/metrics"
	"github.com/usermanager/user-management/internal/core/domain"
	"github.com/usermanager/user-management/internal/core/ports"
)

// GateConfig wires the identity gate to its collaborators.
type GateConfig struct {
	Codec  ports.TokenCodec
	Users  ports.UserLookup
	Policy *Policy
	Log    zerolog.Logger
}

// IdentityGate validates the bearer token of every non-public request and
// binds the resolved domain.RequestIdentity into the request context.
//
// Public paths pass through untouched. A missing or unusable Authorization
// header is rejected with 401, an expired token with 403. If the subject can
// not be resolved the request continues unbound and Authorize rejects it.
func IdentityGate(cfg GateConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if cfg.Policy != nil && cfg.Policy.IsPublic(RoutePath(c)) {
				metrics.GateDecisionsTotal.WithLabelValues("public").Inc()
				return next(c)
			}

			raw, ok := BearerToken(req.Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.GateDecisionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed authorization header")
			}

			parsed, err := cfg.Codec.Parse(raw)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					metrics.GateDecisionsTotal.WithLabelValues("expired_token").Inc()
					return echo.NewHTTPError(http.StatusForbidden, domain.ErrTokenExpired.Error())
				}
				metrics.GateDecisionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if parsed.Kind != domain.TokenKindAccess {
				metrics.GateDecisionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if id, bound := domain.IdentityFrom(req.Context()); bound && !id.IsAnonymous() {
				return next(c)
			}

			user, err := cfg.Users.FindByEmail(req.Context(), parsed.Subject)
			switch {
			case err == nil && cfg.Codec.IsValid(raw, user.Email):
				ctx := domain.WithIdentity(req.Context(), domain.NewRequestIdentity(user))
				c.SetRequest(req.WithContext(ctx))
				metrics.GateDecisionsTotal.WithLabelValues("bound").Inc()
			case err != nil && !errors.Is(err, domain.ErrUserNotFound):
				cfg.Log.Error().Err(err).Str("path", req.URL.Path).Msg("identity lookup failed")
			}

			return next(c)
		}
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. Empty tokens and the literal placeholders "null" and
// "undefined" sent by some clients are rejected.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	switch token {
	case "", "null", "undefined":
		return "", false
	}
	return token, true
}
