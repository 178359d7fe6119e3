package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/repository"
	"context"
	"strings"
)

type UserRolesService interface {
	GetRoles(ctx context.Context) ([]*model.Role, error)
	CreateRole(ctx context.Context, in *dto.RoleCreateDTO) (*model.Role, error)
	AddRoleToUser(ctx context.Context, userId uint64, roleId uint64) error
	DeleteRoleFromUser(ctx context.Context, userId uint64, roleId uint64) error
}

type UserRolesServiceImpl struct {
	userRepo      repository.UserRepo
	roleRepo      repository.RoleRepo
	userRolesRepo repository.UserRolesRepo
	sessions      SessionRevoker
}

func NewUserRolesService(userRepo repository.UserRepo, roleRepo repository.RoleRepo, userRolesRepo repository.UserRolesRepo, sessions SessionRevoker) UserRolesService {
	return &UserRolesServiceImpl{
		userRepo:      userRepo,
		roleRepo:      roleRepo,
		userRolesRepo: userRolesRepo,
		sessions:      sessions,
	}
}

func (s *UserRolesServiceImpl) GetRoles(ctx context.Context) ([]*model.Role, error) {
	return s.userRolesRepo.GetRoles(ctx)
}

// CreateRole 角色名统一转大写
func (s *UserRolesServiceImpl) CreateRole(ctx context.Context, in *dto.RoleCreateDTO) (*model.Role, error) {
	name := strings.ToUpper(strings.TrimSpace(in.Name))
	if name == "" {
		return nil, ErrParamInvalid
	}
	for _, p := range in.Permissions {
		if !security.ValidPermission(strings.TrimSpace(p)) {
			return nil, ErrPermissionInvalid
		}
	}
	role := &model.Role{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Permissions: security.MergePermissions(in.Permissions),
	}
	if err := s.roleRepo.CreateRole(ctx, role); err != nil {
		if isDuplicateError(err) {
			return nil, ErrRoleExist
		}
		return nil, err
	}
	return role, nil
}

func (s *UserRolesServiceImpl) AddRoleToUser(ctx context.Context, userId uint64, roleId uint64) error {
	if err := s.checkUserAndRole(ctx, userId, roleId); err != nil {
		return err
	}
	hasRole, err := s.userRolesRepo.GetUserHasRole(ctx, userId, roleId)
	if err != nil {
		return err
	}
	if hasRole {
		return ErrUserHasRole
	}
	if err = s.userRolesRepo.AddRoleToUser(ctx, userId, roleId); err != nil {
		return err
	}
	// Token 里的权限是签发时展开的，需重新登录
	return revokeSessions(ctx, s.sessions, userId)
}

func (s *UserRolesServiceImpl) DeleteRoleFromUser(ctx context.Context, userId uint64, roleId uint64) error {
	if err := s.checkUserAndRole(ctx, userId, roleId); err != nil {
		return err
	}
	if err := s.userRolesRepo.DeleteRoleFromUser(ctx, userId, roleId); err != nil {
		return err
	}
	return revokeSessions(ctx, s.sessions, userId)
}

func (s *UserRolesServiceImpl) checkUserAndRole(ctx context.Context, userId uint64, roleId uint64) error {
	user, err := s.userRepo.GetUserById(ctx, userId)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	roles, err := s.roleRepo.GetRoleByIDs(ctx, []uint64{roleId})
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return ErrRoleNotFound
	}
	return nil
}
