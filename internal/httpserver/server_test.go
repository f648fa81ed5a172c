package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Arayanmemon/devTube/internal/assets"
	"github.com/Arayanmemon/devTube/internal/dbtest"
	"github.com/Arayanmemon/devTube/internal/hash"
	"github.com/Arayanmemon/devTube/internal/jwthelp"
	"github.com/Arayanmemon/devTube/internal/metrics"
	"github.com/Arayanmemon/devTube/internal/repo"
	"github.com/Arayanmemon/devTube/internal/service"
	"github.com/Arayanmemon/devTube/internal/tokens"
	"github.com/Arayanmemon/devTube/internal/transport"
)

type memS3 struct {
	mu   sync.Mutex
	keys map[string]int
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[*in.Key] = len(b)
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type testServer struct {
	e   *echo.Echo
	svc *service.AuthService
	s3  *memS3
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	uploadDir := t.TempDir()
	obj := &memS3{keys: map[string]int{}}

	svc := &service.AuthService{
		Repo: &repo.GormRepo{DB: dbtest.New(t), Hasher: hash.New(bcrypt.MinCost)},
		Tokens: tokens.NewIssuer(tokens.Config{
			AccessSecret:  []byte("http-access-secret"),
			AccessTTL:     15 * time.Minute,
			RefreshSecret: []byte("http-refresh-secret"),
			RefreshTTL:    24 * time.Hour,
		}),
		Assets:  assets.NewS3Store(obj, assets.Config{Bucket: "media", PublicURL: "https://cdn.test"}),
		Metrics: metrics.New(),
	}
	cookies := jwthelp.Cookies{Secure: true}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: svc, Cookies: cookies, UploadDir: uploadDir},
		AccountHandler: &AccountHTTP{Svc: svc, UploadDir: uploadDir},
		Verifier:       svc,
		Cookies:        cookies,
		Metrics:        svc.Metrics.Handler(),
	})
	return &testServer{e: e, svc: svc, s3: obj}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, name := range files {
		fw, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) transport.ErrorResponse {
	t.Helper()
	var body transport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func aliceFields() map[string]string {
	return map[string]string{"userName": "alice", "email": "a@x.com", "password": "pw1", "fullName": "Alice A"}
}

func (ts *testServer) registerAlice(t *testing.T) {
	t.Helper()
	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/v1/users/register", aliceFields(), map[string]string{"avatar": "a.png"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (ts *testServer) loginAlice(t *testing.T) transport.LoginResponse {
	t.Helper()
	rec := ts.do(jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "a@x.com", "password": "pw1"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestScenario_RegisterLoginLogoutRefresh(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/v1/users/register", aliceFields(), map[string]string{"avatar": "a.png"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "refreshToken")

	var reg transport.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "alice", reg.User.UserName)
	assert.True(t, strings.HasPrefix(reg.User.Avatar, "https://cdn.test/users/"))
	assert.Len(t, ts.s3.keys, 1)

	rec = ts.do(jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "a@x.com", "password": "pw1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var login transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.NotEmpty(t, login.AccessToken)
	assert.NotEmpty(t, login.RefreshToken)

	cookies := rec.Result().Cookies()
	names := map[string]*http.Cookie{}
	for _, ck := range cookies {
		names[ck.Name] = ck
	}
	require.Contains(t, names, jwthelp.AccessCookie)
	require.Contains(t, names, jwthelp.RefreshCookie)
	assert.True(t, names[jwthelp.RefreshCookie].HttpOnly)
	assert.True(t, names[jwthelp.RefreshCookie].Secure)
	assert.Equal(t, login.RefreshToken, names[jwthelp.RefreshCookie].Value)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+login.AccessToken)
	rec = ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, ck := range rec.Result().Cookies() {
		assert.Empty(t, ck.Value)
		assert.Equal(t, -1, ck.MaxAge)
	}

	rec = ts.do(jsonRequest(t, http.MethodPost, "/api/v1/users/refreshToken", map[string]string{"refreshToken": login.RefreshToken}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusUnauthorized, body.Status)
	assert.Equal(t, "token_revoked", body.Code)
}

func TestRefresh_CookieRotationAndStaleReuse(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAlice(t)
	login := ts.loginAlice(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refreshToken", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: login.RefreshToken})
	rec := ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair transport.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refreshToken", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: login.RefreshToken})
	rec = ts.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_Missing(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/users/refreshToken", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
}

func TestRegister_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAlice(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/v1/users/register", aliceFields(), map[string]string{"avatar": "b.png"}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	fields := aliceFields()
	fields["userName"], fields["email"] = "bob", "b@x.com"
	rec = ts.do(multipartRequest(t, http.MethodPost, "/api/v1/users/register", fields, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeError(t, rec).Code)

	fields["fullName"] = ""
	rec = ts.do(multipartRequest(t, http.MethodPost, "/api/v1/users/register", fields, map[string]string{"avatar": "b.png"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, ts.s3.keys, 1)
}

func TestLogin_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAlice(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{name: "missing password", body: map[string]string{"email": "a@x.com"}, status: http.StatusBadRequest},
		{name: "unknown", body: map[string]string{"email": "z@x.com", "password": "pw1"}, status: http.StatusNotFound},
		{name: "wrong password", body: map[string]string{"email": "a@x.com", "password": "bad"}, status: http.StatusUnauthorized},
		{name: "by username", body: map[string]string{"userName": "alice", "password": "pw1"}, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(jsonRequest(t, http.MethodPost, "/api/v1/users/login", tt.body))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestChangePassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAlice(t)
	login := ts.loginAlice(t)

	send := func(old, next string) *httptest.ResponseRecorder {
		req := jsonRequest(t, http.MethodPost, "/api/v1/users/changePass", map[string]string{"oldPassword": old, "newPassword": next})
		req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: login.AccessToken})
		return ts.do(req)
	}

	assert.Equal(t, http.StatusBadRequest, send("pw1", "pw1").Code)
	assert.Equal(t, http.StatusUnauthorized, send("nope", "pw2").Code)
	assert.Equal(t, http.StatusOK, send("pw1", "pw2").Code)

	rec := ts.do(jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "a@x.com", "password": "pw2"}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not.a.jwt")
	rec = ts.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decodeError(t, rec).Code)
}

func TestAccountRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAlice(t)
	login := ts.loginAlice(t)
	bearer := "Bearer " + login.AccessToken

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer)
	rec := ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userName":"alice"`)

	req = jsonRequest(t, http.MethodPatch, "/api/v1/users/update-account", map[string]string{"email": "new@x.com", "fullName": "Alice N"})
	req.Header.Set(echo.HeaderAuthorization, bearer)
	rec = ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"email":"new@x.com"`)

	req = multipartRequest(t, http.MethodPatch, "/api/v1/users/avatar", nil, map[string]string{"avatar": "n.png"})
	req.Header.Set(echo.HeaderAuthorization, bearer)
	rec = ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, ts.s3.keys, 1, "previous avatar is deleted")

	req = multipartRequest(t, http.MethodPatch, "/api/v1/users/cover-image", nil, nil)
	req.Header.Set(echo.HeaderAuthorization, bearer)
	rec = ts.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/c/alice", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer)
	rec = ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subscribers":0`)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/channels/search?q=ali", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAlice(t)

	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `devtube_auth_operations_total{code="",op="register",outcome="success"} 1`)
}

func TestErrorHandler_UnknownError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(io.ErrUnexpectedEOF, c)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "internal_error", body.Code)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	ts := newTestServer(t)

	fields := aliceFields()
	fields["password"] = strings.Repeat("x", 80)
	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/v1/users/register", fields, map[string]string{"avatar": "a.png"}))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "bad_request", decodeError(t, rec).Code)
	assert.Empty(t, ts.s3.keys)
}
