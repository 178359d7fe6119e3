package repository

import (
	"Inkwell/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type RoleRepo interface {
	GetRoleByIDs(ctx context.Context, ids []uint64) ([]*model.Role, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	CreateRole(ctx context.Context, role *model.Role) error
}

type RoleRepoImpl struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepo {
	return &RoleRepoImpl{
		db: db,
	}
}

func (s *RoleRepoImpl) GetRoleByIDs(ctx context.Context, ids []uint64) ([]*model.Role, error) {
	roles := make([]*model.Role, 0)
	if len(ids) == 0 {
		return roles, nil
	}
	err := withTx(ctx, s.db).Model(&model.Role{}).Where("id IN ?", ids).Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *RoleRepoImpl) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := withTx(ctx, s.db).Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (s *RoleRepoImpl) CreateRole(ctx context.Context, role *model.Role) error {
	return withTx(ctx, s.db).Create(role).Error
}
