package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/usermanager/user-management/internal/core/domain"
)

// currentIdentity returns the identity bound by the identity gate. Handlers
// behind Authorize always have one; the check guards routes registered
// without the gate.
func currentIdentity(c echo.Context) (domain.RequestIdentity, error) {
	id, ok := domain.IdentityFrom(c.Request().Context())
	if !ok || id.IsAnonymous() {
		return domain.RequestIdentity{}, domain.ErrUnauthorized
	}
	return id, nil
}
