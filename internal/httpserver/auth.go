package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Arayanmemon/devTube/internal/apperr"
	"github.com/Arayanmemon/devTube/internal/jwthelp"
	"github.com/Arayanmemon/devTube/internal/logging"
	authmw "github.com/Arayanmemon/devTube/internal/middleware/auth"
	"github.com/Arayanmemon/devTube/internal/service"
	"github.com/Arayanmemon/devTube/internal/transport"
)

type AuthHTTP struct {
	Svc       *service.AuthService
	Cookies   jwthelp.Cookies
	UploadDir string
}

func (h *AuthHTTP) setTokenCookies(c echo.Context, p *service.TokenPair) {
	c.SetCookie(h.Cookies.Create(jwthelp.AccessCookie, p.AccessToken, p.AccessExp))
	c.SetCookie(h.Cookies.Create(jwthelp.RefreshCookie, p.RefreshToken, p.RefreshExp))
}

func (h *AuthHTTP) clearTokenCookies(c echo.Context) {
	c.SetCookie(h.Cookies.Delete(jwthelp.AccessCookie))
	c.SetCookie(h.Cookies.Delete(jwthelp.RefreshCookie))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	avatar, err := saveUpload(c, h.UploadDir, "avatar")
	if err != nil {
		l.Warn("register_error", "reason", "avatar upload", "error", err)
		return err
	}
	cover, err := saveUpload(c, h.UploadDir, "coverImage")
	if err != nil {
		h.Svc.Assets.Discard(ctx, avatar)
		l.Warn("register_error", "reason", "cover upload", "error", err)
		return err
	}

	in := service.RegisterInput{
		UserName: c.FormValue("userName"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		FullName: c.FormValue("fullName"),
	}
	user, err := h.Svc.Register(ctx, in, avatar, cover)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, transport.UserResponse{
		Message: "User registered successfully",
		User:    *user,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return apperr.BadRequest("invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Identifier(), req.Password)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, &res.TokenPair)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		Message:      "User logged in successfully",
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.Svc.Logout(ctx, authmw.UserID(c))
	h.clearTokenCookies(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User logged out successfully"})
}

func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var token string
	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		token = ck.Value
	}
	if token == "" {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err != nil {
			l.Warn("refresh_error", "status", 400, "error", err)
			return apperr.BadRequest("invalid body")
		}
		token = req.RefreshToken
	}

	pair, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Status == http.StatusUnauthorized {
			h.clearTokenCookies(c)
		}
		return err
	}

	h.setTokenCookies(c, pair)
	return c.JSON(http.StatusOK, transport.TokenResponse{
		Message:      "Token refreshed successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid body")
	}

	if err := h.Svc.ChangePassword(ctx, authmw.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if h.Svc.RevokeOnPasswordChange {
		h.clearTokenCookies(c)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password changed Successfully"})
}
