package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Arayanmemon/devTube/internal/jwthelp"
	"github.com/Arayanmemon/devTube/internal/middleware/auth"
	"github.com/Arayanmemon/devTube/internal/middleware/csrf"
)

const (
	usersPrefix = "/api/v1/users"
	bodyLimit   = "10M"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	AccountHandler *AccountHTTP
	Verifier       auth.AccessVerifier
	Cookies        jwthelp.Cookies
	Metrics        http.Handler
	// CSRF is nil when the double-submit check is disabled.
	CSRF  *csrf.Config
	Ready func(ctx context.Context) error
}

// CSRFSkipPaths are the routes a client calls before it holds a session.
func CSRFSkipPaths() []string {
	return []string{
		usersPrefix + "/register",
		usersPrefix + "/login",
		usersPrefix + "/refreshToken",
	}
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	users := e.Group(usersPrefix, middleware.BodyLimit(bodyLimit))
	if d.CSRF != nil {
		users.Use(csrf.Middleware(*d.CSRF))
	}

	users.POST("/register", d.AuthHandler.Register)
	users.POST("/login", d.AuthHandler.Login)
	users.POST("/refreshToken", d.AuthHandler.RefreshToken)
	users.GET("/channels/search", d.AccountHandler.SearchChannels)

	private := users.Group("", auth.RequireLogin(d.Verifier, d.Cookies))
	private.POST("/logout", d.AuthHandler.Logout)
	private.POST("/changePass", d.AuthHandler.ChangePassword)
	private.GET("/current-user", d.AccountHandler.CurrentUser)
	private.PATCH("/update-account", d.AccountHandler.UpdateAccount)
	private.PATCH("/avatar", d.AccountHandler.UpdateAvatar)
	private.PATCH("/cover-image", d.AccountHandler.UpdateCover)
	private.GET("/c/:username", d.AccountHandler.Channel)
}
