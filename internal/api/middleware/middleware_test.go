package middleware

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/service"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlacklist struct {
	revoked   map[string]bool
	revokedAt map[uint64]int64
	err       error
	userErr   error
}

func (f *fakeBlacklist) IsRevoked(_ context.Context, signature string) (bool, error) {
	return f.revoked[signature], f.err
}

func (f *fakeBlacklist) UserRevokedAt(_ context.Context, userID uint64) (int64, error) {
	return f.revokedAt[userID], f.userErr
}

func init() {
	gin.SetMode(gin.TestMode)
	security.InitJWT("test-secret", "Inkwell", 1)
}

func newRouter(blacklist TokenBlacklist, perm string) *gin.Engine {
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/admin/comments", AuthMiddleware(blacklist), RequirePermission(perm), func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.Response{Code: 200, Data: service.OperatorFromContext(c.Request.Context())})
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, token string) dto.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/comments", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthMiddleware_PermissionGranted(t *testing.T) {
	token, err := security.GenerateToken(7, []string{consts.RoleModerator}, security.BuiltinRoles[consts.RoleModerator])
	require.NoError(t, err)

	resp := doRequest(t, newRouter(&fakeBlacklist{}, security.PermCommentModerate), token)
	assert.Equal(t, 200, resp.Code)
	assert.EqualValues(t, 7, resp.Data)
}

func TestAuthMiddleware_PermissionDenied(t *testing.T) {
	token, err := security.GenerateToken(8, []string{consts.RoleEditor}, security.BuiltinRoles[consts.RoleEditor])
	require.NoError(t, err)

	resp := doRequest(t, newRouter(&fakeBlacklist{}, security.PermCommentModerate), token)
	assert.Equal(t, 403, resp.Code)
}

func TestAuthMiddleware_MissingOrInvalidToken(t *testing.T) {
	r := newRouter(&fakeBlacklist{}, security.PermCommentRead)
	assert.Equal(t, 401, doRequest(t, r, "").Code)
	assert.Equal(t, 401, doRequest(t, r, "not-a-jwt").Code)
	assert.Equal(t, 401, doRequest(t, r, "a.b.c").Code)
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	token, err := security.GenerateToken(1, []string{consts.RoleAdmin}, []string{security.PermAll})
	require.NoError(t, err)
	signature, err := security.ExtractSignature(token)
	require.NoError(t, err)

	resp := doRequest(t, newRouter(&fakeBlacklist{revoked: map[string]bool{signature: true}}, security.PermCommentRead), token)
	assert.Equal(t, 401, resp.Code)

	resp = doRequest(t, newRouter(&fakeBlacklist{err: errors.New("redis down")}, security.PermCommentRead), token)
	assert.Equal(t, 500, resp.Code)
}

func TestAuthMiddleware_UserSessionsRevoked(t *testing.T) {
	token, err := security.GenerateToken(9, []string{consts.RoleModerator}, security.BuiltinRoles[consts.RoleModerator])
	require.NoError(t, err)

	// 封禁或角色变更发生在签发之后
	revokedNow := &fakeBlacklist{revokedAt: map[uint64]int64{9: time.Now().Unix()}}
	assert.Equal(t, 401, doRequest(t, newRouter(revokedNow, security.PermCommentRead), token).Code)

	// 签发晚于失效时间的新 Token 可以通过
	revokedBefore := &fakeBlacklist{revokedAt: map[uint64]int64{9: time.Now().Add(-time.Hour).Unix()}}
	assert.Equal(t, 200, doRequest(t, newRouter(revokedBefore, security.PermCommentRead), token).Code)

	// 其他用户的失效记录不影响
	other := &fakeBlacklist{revokedAt: map[uint64]int64{10: time.Now().Unix()}}
	assert.Equal(t, 200, doRequest(t, newRouter(other, security.PermCommentRead), token).Code)

	failing := &fakeBlacklist{userErr: errors.New("redis down")}
	assert.Equal(t, 500, doRequest(t, newRouter(failing, security.PermCommentRead), token).Code)
}

func TestCheckRoles(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		c.Set(consts.RolesKey, []string{consts.RoleEditor})
	}, CheckRoles(consts.RoleAdmin, consts.RoleEditor), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/y", func(c *gin.Context) {
		c.Set(consts.RolesKey, []string{consts.RoleEditor})
	}, CheckRoles(consts.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/y", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "403")
}
