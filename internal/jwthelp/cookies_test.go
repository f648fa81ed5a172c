package jwthelp

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreate(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	ck := Cookies{Secure: true}.Create(AccessCookie, "tok", exp)

	assert.Equal(t, "accessToken", ck.Name)
	assert.Equal(t, "tok", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, exp, ck.Expires)
}

func TestDelete(t *testing.T) {
	ck := Cookies{Path: "/api"}.Delete(RefreshCookie)

	assert.Equal(t, "refreshToken", ck.Name)
	assert.Empty(t, ck.Value)
	assert.Equal(t, "/api", ck.Path)
	assert.Equal(t, -1, ck.MaxAge)
	assert.False(t, ck.Secure)
}
