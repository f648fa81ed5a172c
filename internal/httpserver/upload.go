package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/Arayanmemon/devTube/internal/apperr"
)

// saveUpload copies a multipart file field to a temp file under dir and
// returns its path. A missing field yields an empty path and no error.
func saveUpload(c echo.Context, dir, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", apperr.BadRequest(fmt.Sprintf("invalid %s upload", field))
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperr.BadRequest(fmt.Sprintf("invalid %s upload", field))
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", apperr.Internal("could not store upload", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", apperr.Internal("could not store upload", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", apperr.Internal("could not store upload", err)
	}
	return dst.Name(), nil
}
