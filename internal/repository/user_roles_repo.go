package repository

import (
	"Inkwell/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// UserRolesRepo 用户与角色的关联关系
type UserRolesRepo interface {
	GetRoles(ctx context.Context) ([]*model.Role, error)
	GetUserRoles(ctx context.Context, userId uint64) ([]*model.Role, error)
	GetRolesByUserIDs(ctx context.Context, userIds []uint64) (map[uint64][]*model.Role, error)
	GetUserHasRole(ctx context.Context, userId uint64, roleId uint64) (bool, error)
	AddRoleToUser(ctx context.Context, userId uint64, roleId uint64) error
	DeleteRoleFromUser(ctx context.Context, userId uint64, roleId uint64) error
}

type UserRolesRepoImpl struct {
	db *gorm.DB
}

func NewUserRolesRepo(db *gorm.DB) UserRolesRepo {
	return &UserRolesRepoImpl{db: db}
}

func (s *UserRolesRepoImpl) GetRoles(ctx context.Context) ([]*model.Role, error) {
	roles := make([]*model.Role, 0)
	err := withTx(ctx, s.db).Order("id ASC").Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *UserRolesRepoImpl) GetUserRoles(ctx context.Context, userId uint64) ([]*model.Role, error) {
	roles := make([]*model.Role, 0)
	err := withTx(ctx, s.db).
		Table("roles").
		Select("roles.*").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userId).
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *UserRolesRepoImpl) GetUserHasRole(ctx context.Context, userId uint64, roleId uint64) (bool, error) {
	var userRole model.UserRole
	result := withTx(ctx, s.db).
		Where("user_id = ?", userId).
		Where("role_id = ?", roleId).
		First(&userRole)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, result.Error
	}
	return true, nil
}

func (s *UserRolesRepoImpl) AddRoleToUser(ctx context.Context, userId uint64, roleId uint64) error {
	return withTx(ctx, s.db).
		Create(&model.UserRole{
			UserID: userId,
			RoleID: roleId,
		}).Error
}

func (s *UserRolesRepoImpl) DeleteRoleFromUser(ctx context.Context, userId uint64, roleId uint64) error {
	return withTx(ctx, s.db).
		Model(&model.UserRole{}).
		Where("user_id = ?", userId).
		Where("role_id = ?", roleId).
		Delete(&model.UserRole{}).Error
}

// GetRolesByUserIDs 批量查询，key 为用户 ID
func (s *UserRolesRepoImpl) GetRolesByUserIDs(ctx context.Context, userIds []uint64) (map[uint64][]*model.Role, error) {
	result := make(map[uint64][]*model.Role, len(userIds))
	if len(userIds) == 0 {
		return result, nil
	}
	var rows []struct {
		model.Role
		UserID uint64
	}
	err := withTx(ctx, s.db).
		Table("roles").
		Select("roles.*, user_roles.user_id AS user_id").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id IN ?", userIds).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		role := rows[i].Role
		result[rows[i].UserID] = append(result[rows[i].UserID], &role)
	}
	return result, nil
}
