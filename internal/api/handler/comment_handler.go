package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/mongo"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/pkg/util"
	"Inkwell/internal/service"
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentSvc service.CommentService
	postSvc    service.PostService
}

func NewCommentHandler(commentSvc service.CommentService, postSvc service.PostService) *CommentHandler {
	return &CommentHandler{
		commentSvc: commentSvc,
		postSvc:    postSvc,
	}
}

// SubmitComment 访客提交，进入待审核
func (s *CommentHandler) SubmitComment(c *gin.Context) {
	var req dto.CommentCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	comment, err := s.commentSvc.SubmitComment(c.Request.Context(), toCommentInput(c, &req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":     comment.ID,
		"status": consts.CommentStatusName(comment.Status),
	})
}

// CreateComment 后台直接发布，例如作者回复
func (s *CommentHandler) CreateComment(c *gin.Context) {
	var req dto.CommentCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	in := toCommentInput(c, &req)
	in.Status = consts.CommentStatusApproved
	comment, err := s.commentSvc.CreateComment(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

func (s *CommentHandler) GetPostComments(c *gin.Context) {
	postID, err := s.postSvc.ResolvePublishedSlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	tree, err := s.commentSvc.GetPostComments(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tree)
}

func (s *CommentHandler) ListComments(c *gin.Context) {
	var req dto.CommentListQueryDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	query := &service.ListCommentsQuery{
		PostID:       req.PostID,
		TopLevelOnly: req.TopLevelOnly,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}
	if req.Status != "" {
		status, _ := consts.ParseCommentStatus(req.Status)
		query.Status = &status
	}

	page, err := s.commentSvc.ListComments(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *CommentHandler) GetStats(c *gin.Context) {
	stats, err := s.commentSvc.GetCommentStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

func (s *CommentHandler) ApproveComment(c *gin.Context) {
	s.moderate(c, s.commentSvc.ApproveComment)
}

func (s *CommentHandler) RejectComment(c *gin.Context) {
	s.moderate(c, s.commentSvc.RejectComment)
}

func (s *CommentHandler) DeleteComment(c *gin.Context) {
	s.moderate(c, s.commentSvc.DeleteComment)
}

type moderateFunc func(ctx context.Context, id uint64, cascade bool) (*service.ModerationResult, error)

// moderate 业务失败也是 200，结果里 status=error
func (s *CommentHandler) moderate(c *gin.Context, fn moderateFunc) {
	commentID, ok := paramUint64(c, "id")
	if !ok {
		return
	}

	// 请求体可省略，缺省不级联
	var req dto.ModerateDTO
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, err)
		return
	}

	result, err := fn(c.Request.Context(), commentID, req.Cascade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *CommentHandler) BatchApprove(c *gin.Context) {
	s.batch(c, s.commentSvc.BatchApprove)
}

func (s *CommentHandler) BatchDelete(c *gin.Context) {
	s.batch(c, s.commentSvc.BatchDelete)
}

type batchFunc func(ctx context.Context, ids []uint64, cascade bool) (*service.BatchResult, error)

func (s *CommentHandler) batch(c *gin.Context, fn batchFunc) {
	var req dto.BatchModerateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	result, err := fn(c.Request.Context(), req.IDs, req.Cascade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *CommentHandler) ListModerationLogs(c *gin.Context) {
	var req dto.ModerationLogQueryDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	logs, total, err := s.commentSvc.ListModerationLogs(c.Request.Context(), mongo.ModerationLogQuery{
		CommentID: req.CommentID,
		PostID:    req.PostID,
		Action:    req.Action,
		Limit:     int64(pageSize),
		Offset:    int64((page - 1) * pageSize),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.PageDTO[*mongo.ModerationLog]{
		List:     logs,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func toCommentInput(c *gin.Context, req *dto.CommentCreateDTO) *service.CreateCommentInput {
	return &service.CreateCommentInput{
		PostID:      req.PostID,
		ParentID:    req.ParentID,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Content:     req.Content,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}
}
