package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Arayanmemon/devTube/internal/apperr"
	"github.com/Arayanmemon/devTube/internal/jwthelp"
	"github.com/Arayanmemon/devTube/internal/logging"
	"github.com/Arayanmemon/devTube/internal/models"
)

const (
	CtxUser   = "user"
	CtxUserID = "user_id"
)

type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*models.PublicUser, error)
}

// TokenFromRequest reads the access token from the Authorization bearer
// header, falling back to the access cookie.
func TokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if ck, err := c.Cookie(jwthelp.AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func RequireLogin(v AccessVerifier, cookies jwthelp.Cookies) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			user, err := v.VerifyAccess(ctx, TokenFromRequest(c))
			if err != nil {
				if errors.Is(err, apperr.ErrInvalidToken) {
					c.SetCookie(cookies.Delete(jwthelp.AccessCookie))
					c.SetCookie(cookies.Delete(jwthelp.RefreshCookie))
				}
				return err
			}

			c.Set(CtxUser, user)
			c.Set(CtxUserID, user.ID)

			l := logging.FromContext(ctx).With("user_id", user.ID)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			return next(c)
		}
	}
}

// UserID returns the authenticated account id, empty on public routes.
func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserID).(string)
	return id
}

func User(c echo.Context) *models.PublicUser {
	u, _ := c.Get(CtxUser).(*models.PublicUser)
	return u
}
