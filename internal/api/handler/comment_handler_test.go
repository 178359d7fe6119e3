package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommentService 只实现审核相关方法，其余调用会 panic
type fakeCommentService struct {
	service.CommentService
	called  bool
	cascade bool
}

func (f *fakeCommentService) ApproveComment(_ context.Context, id uint64, cascade bool) (*service.ModerationResult, error) {
	f.called = true
	f.cascade = cascade
	return &service.ModerationResult{Status: "success", AffectedCount: 1}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func doApprove(t *testing.T, body, contentType string) (*fakeCommentService, dto.Response) {
	t.Helper()
	svc := &fakeCommentService{}
	h := NewCommentHandler(svc, nil)
	r := gin.New()
	r.POST("/admin/comments/:id/approve", h.ApproveComment)

	req := httptest.NewRequest(http.MethodPost, "/admin/comments/3/approve", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return svc, resp
}

func TestCommentHandler_ApproveWithoutBody(t *testing.T) {
	for _, contentType := range []string{"application/json", ""} {
		svc, resp := doApprove(t, "", contentType)
		assert.Equal(t, 200, resp.Code, contentType)
		assert.True(t, svc.called, contentType)
		assert.False(t, svc.cascade, contentType)
	}
}

func TestCommentHandler_ApproveWithCascade(t *testing.T) {
	svc, resp := doApprove(t, `{"cascade":true}`, "application/json")
	assert.Equal(t, 200, resp.Code)
	assert.True(t, svc.cascade)
}
