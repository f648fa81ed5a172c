package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Arayanmemon/devTube/internal/apperr"
	authmw "github.com/Arayanmemon/devTube/internal/middleware/auth"
	"github.com/Arayanmemon/devTube/internal/service"
	"github.com/Arayanmemon/devTube/internal/transport"
)

type AccountHTTP struct {
	Svc       *service.AuthService
	UploadDir string
}

func (h *AccountHTTP) CurrentUser(c echo.Context) error {
	user, err := h.Svc.CurrentUser(c.Request().Context(), authmw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.UserResponse{Message: "Current User fetched Successfully", User: *user})
}

func (h *AccountHTTP) UpdateAccount(c echo.Context) error {
	var req transport.UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid body")
	}

	user, err := h.Svc.UpdateAccount(c.Request().Context(), authmw.UserID(c), req.Email, req.FullName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.UserResponse{Message: "Account details updated successfully", User: *user})
}

func (h *AccountHTTP) UpdateAvatar(c echo.Context) error {
	path, err := saveUpload(c, h.UploadDir, "avatar")
	if err != nil {
		return err
	}
	user, err := h.Svc.UpdateAvatar(c.Request().Context(), authmw.UserID(c), path)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.UserResponse{Message: "Avatar updated successfully", User: *user})
}

func (h *AccountHTTP) UpdateCover(c echo.Context) error {
	path, err := saveUpload(c, h.UploadDir, "coverImage")
	if err != nil {
		return err
	}
	user, err := h.Svc.UpdateCover(c.Request().Context(), authmw.UserID(c), path)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.UserResponse{Message: "Cover image updated successfully", User: *user})
}

func (h *AccountHTTP) Channel(c echo.Context) error {
	p, err := h.Svc.ChannelProfile(c.Request().Context(), c.Param("username"), authmw.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "channel fetched successfully", "channel": p})
}

func (h *AccountHTTP) SearchChannels(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	res, err := h.Svc.SearchChannels(c.Request().Context(), c.QueryParam("q"), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
