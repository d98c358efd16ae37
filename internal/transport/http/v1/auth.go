package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mdossett204/adaptive-health-project/internal/adapter/identity"
)

const identityKey = "identity"

var errForeignUserID = errors.New("user_id does not match the authenticated user")

// RequireIdentity rejects requests without a valid bearer credential and
// stores the verified identity on the context.
func (h *Handler) RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := h.verifier.VerifyHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, identity.ErrMissingToken):
				msg = "missing bearer token"
			case errors.Is(err, identity.ErrTokenExpired):
				msg = "token expired"
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
		}
		c.Set(identityKey, id)
		return next(c)
	}
}

func identityFrom(c echo.Context) *identity.Identity {
	id, _ := c.Get(identityKey).(*identity.Identity)
	return id
}

// resolveUserID fills userID from the verified identity when the caller left
// it out. A user_id naming someone else is refused with 403.
func resolveUserID(c echo.Context, userID string) (string, error) {
	id := identityFrom(c)
	if id == nil {
		return userID, nil
	}
	if userID == "" {
		return id.ID, nil
	}
	if userID != id.ID {
		return "", errForeignUserID
	}
	return userID, nil
}
