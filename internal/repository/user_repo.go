package repository

import (
	"Inkwell/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetUserById(ctx context.Context, id uint64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User, roleIDs []uint64) error
	UpdateUserIsBan(ctx context.Context, id uint64, isBan bool) (int64, error)
	ListUsers(ctx context.Context, page, pageSize int) ([]*model.User, int64, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

func (s *UserRepoImpl) GetUserById(ctx context.Context, id uint64) (*model.User, error) {
	user := &model.User{}
	result := withTx(ctx, s.db).
		Preload("UserRoles").
		First(user, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return user, nil
}

func (s *UserRepoImpl) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	result := withTx(ctx, s.db).
		Preload("UserRoles").
		Where("username = ?", username).
		First(user)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return user, nil
}

func (s *UserRepoImpl) CreateUser(ctx context.Context, user *model.User, roleIDs []uint64) error {
	return withTx(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if result := tx.Omit("UserRoles").Create(user); result.Error != nil {
			return result.Error
		}
		if len(roleIDs) == 0 {
			return nil
		}

		roles := make([]*model.UserRole, 0, len(roleIDs))
		for _, roleID := range roleIDs {
			roles = append(roles, &model.UserRole{UserID: user.ID, RoleID: roleID})
		}
		return tx.Create(roles).Error
	})
}

func (s *UserRepoImpl) UpdateUserIsBan(ctx context.Context, id uint64, isBan bool) (int64, error) {
	result := withTx(ctx, s.db).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("is_ban", isBan)

	return result.RowsAffected, result.Error
}

func (s *UserRepoImpl) ListUsers(ctx context.Context, page, pageSize int) ([]*model.User, int64, error) {
	var total int64
	db := withTx(ctx, s.db).Model(&model.User{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*model.User, 0)
	err := db.Preload("UserRoles").
		Order("id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
