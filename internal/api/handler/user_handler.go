package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc      service.UserService
	userRolesSvc service.UserRolesService
}

func NewUserHandler(userSvc service.UserService, userRolesSvc service.UserRolesService) *UserHandler {
	return &UserHandler{
		userSvc:      userSvc,
		userRolesSvc: userRolesSvc,
	}
}

func (s *UserHandler) Login(c *gin.Context) {
	var loginDTO dto.CredentialDTO
	if !bindJSON(c, &loginDTO) {
		return
	}

	result, err := s.userSvc.Login(c.Request.Context(), &loginDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *UserHandler) Logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := s.userSvc.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) ListUsers(c *gin.Context) {
	var query dto.UserListQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}

	users, err := s.userSvc.ListUsers(c.Request.Context(), query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

func (s *UserHandler) BanUser(c *gin.Context) {
	userID, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	if err := s.userSvc.BanUser(c.Request.Context(), c.GetUint64("user_id"), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) UnbanUser(c *gin.Context) {
	userID, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	if err := s.userSvc.UnBanUser(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) GetAllRoles(c *gin.Context) {
	roles, err := s.userRolesSvc.GetRoles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, roles)
}

func (s *UserHandler) CreateRole(c *gin.Context) {
	var req dto.RoleCreateDTO
	if !bindJSON(c, &req) {
		return
	}
	role, err := s.userRolesSvc.CreateRole(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}

func (s *UserHandler) AddUserRole(c *gin.Context) {
	userID, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	var req dto.UserRoleDTO
	if !bindJSON(c, &req) {
		return
	}
	if err := s.userRolesSvc.AddRoleToUser(c.Request.Context(), userID, req.RoleID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) DeleteUserRole(c *gin.Context) {
	userID, ok := paramUint64(c, "id")
	if !ok {
		return
	}
	roleID, ok := paramUint64(c, "role_id")
	if !ok {
		return
	}
	if err := s.userRolesSvc.DeleteRoleFromUser(c.Request.Context(), userID, roleID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
