package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/pkg/util"
	"Inkwell/internal/service"

	"github.com/gin-gonic/gin"
)

// TaxonomyHandler 分类与标签
type TaxonomyHandler struct {
	categorySvc service.CategoryService
	tagSvc      service.TagService
}

func NewTaxonomyHandler(categorySvc service.CategoryService, tagSvc service.TagService) *TaxonomyHandler {
	return &TaxonomyHandler{
		categorySvc: categorySvc,
		tagSvc:      tagSvc,
	}
}

func (s *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, err := s.categorySvc.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, categories)
}

func (s *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryDTO
	if !bindJSON(c, &req) {
		return
	}
	category, err := s.categorySvc.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, category)
}

func (s *TaxonomyHandler) UpdateCategory(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	var req dto.CategoryDTO
	if !bindJSON(c, &req) {
		return
	}
	category, err := s.categorySvc.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, category)
}

func (s *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	if err := s.categorySvc.DeleteCategory(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *TaxonomyHandler) ListTags(c *gin.Context) {
	tags, err := s.tagSvc.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tags)
}

func (s *TaxonomyHandler) CreateTag(c *gin.Context) {
	var req dto.TagDTO
	if !bindJSON(c, &req) {
		return
	}
	tag, err := s.tagSvc.CreateTag(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tag)
}

func (s *TaxonomyHandler) UpdateTag(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	var req dto.TagDTO
	if !bindJSON(c, &req) {
		return
	}
	tag, err := s.tagSvc.UpdateTag(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tag)
}

func (s *TaxonomyHandler) DeleteTag(c *gin.Context) {
	id, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	if err := s.tagSvc.DeleteTag(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// bindJSON 绑定并校验，失败时已写回响应
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, err)
		return false
	}
	if err := util.ValidateDTO(req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return false
	}
	return true
}
