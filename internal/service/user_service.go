package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"

	"github.com/jinzhu/copier"
)

const maxUserPageSize = 100

// SessionRevoker 封禁或角色变更后使该用户已签发的 Token 失效
type SessionRevoker interface {
	Revoke(ctx context.Context, userID uint64) error
}

type UserService interface {
	Login(ctx context.Context, in *dto.CredentialDTO) (*dto.LoginResultDTO, error)
	Logout(ctx context.Context, token string) error
	EnsureAdmin(ctx context.Context, username, password string) error
	ListUsers(ctx context.Context, page, pageSize int) (*dto.PageDTO[*dto.UserDTO], error)
	BanUser(ctx context.Context, operatorID uint64, id uint64) error
	UnBanUser(ctx context.Context, id uint64) error
}

type UserServiceImpl struct {
	userRepo      repository.UserRepo
	roleRepo      repository.RoleRepo
	userRolesRepo repository.UserRolesRepo
	sessions      SessionRevoker
}

func NewUserService(userRepo repository.UserRepo, roleRepo repository.RoleRepo, userRolesRepo repository.UserRolesRepo, sessions SessionRevoker) UserService {
	return &UserServiceImpl{
		userRepo:      userRepo,
		roleRepo:      roleRepo,
		userRolesRepo: userRolesRepo,
		sessions:      sessions,
	}
}

func (s *UserServiceImpl) Login(ctx context.Context, in *dto.CredentialDTO) (*dto.LoginResultDTO, error) {
	if in.Username == "" || in.Password == "" {
		return nil, ErrMissingLoginCredentials
	}
	user, err := s.userRepo.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err = security.CheckPasswordHash(in.Password, user.Password); err != nil {
		return nil, ErrPasswordIncorrect
	}
	if user.IsBan {
		return nil, ErrUserBan
	}

	roles, err := s.userRolesRepo.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	roleNames := make([]string, 0, len(roles))
	grants := make([][]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.Name)
		grants = append(grants, role.Permissions)
	}
	permissions := security.MergePermissions(grants...)

	token, err := security.GenerateToken(user.ID, roleNames, permissions)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResultDTO{
		Token:       token,
		ExpiresAt:   time.Now().Add(security.JWTExpirationTime),
		Roles:       roleNames,
		Permissions: permissions,
	}, nil
}

// Logout 签名加入黑名单，有效期与 Token 剩余时间一致
func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	claims, err := security.ValidateToken(token)
	if err != nil {
		return nil
	}
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return err
	}
	ttl := security.RemainingTTL(claims)
	if ttl <= 0 {
		return nil
	}
	return redis.SetWithExpiration(ctx, consts.TokenBlacklistKey+signature, true, ttl)
}

// EnsureAdmin 首次启动时创建管理员账号，已存在则跳过
func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}
	exist, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exist != nil {
		return nil
	}

	role, err := s.roleRepo.GetRoleByName(ctx, consts.RoleAdmin)
	if err != nil {
		return err
	}
	if role == nil {
		return ErrRoleNotFound
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	user := &model.User{
		Username: username,
		Nickname: username,
		Password: hash,
	}
	if err = s.userRepo.CreateUser(ctx, user, []uint64{role.ID}); err != nil {
		if isDuplicateError(err) {
			return nil
		}
		return err
	}
	log.InfoContext(ctx, "admin user created", "username", username)
	return nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, page, pageSize int) (*dto.PageDTO[*dto.UserDTO], error) {
	page, pageSize = normalizePage(page, pageSize, maxUserPageSize)
	users, total, err := s.userRepo.ListUsers(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	roles, err := s.userRolesRepo.GetRolesByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	list := make([]*dto.UserDTO, 0, len(users))
	for _, user := range users {
		userDTO := &dto.UserDTO{}
		if err = copier.Copy(userDTO, user); err != nil {
			return nil, err
		}
		userDTO.Roles = make([]string, 0, len(roles[user.ID]))
		for _, role := range roles[user.ID] {
			userDTO.Roles = append(userDTO.Roles, role.Name)
		}
		list = append(list, userDTO)
	}
	return &dto.PageDTO[*dto.UserDTO]{List: list, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *UserServiceImpl) BanUser(ctx context.Context, operatorID uint64, id uint64) error {
	if operatorID == id {
		return ErrUserBanSelf
	}
	if err := s.updateBan(ctx, id, true); err != nil {
		return err
	}
	return revokeSessions(ctx, s.sessions, id)
}

func (s *UserServiceImpl) UnBanUser(ctx context.Context, id uint64) error {
	return s.updateBan(ctx, id, false)
}

func (s *UserServiceImpl) updateBan(ctx context.Context, id uint64, isBan bool) error {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	_, err = s.userRepo.UpdateUserIsBan(ctx, id, isBan)
	return err
}

func revokeSessions(ctx context.Context, sessions SessionRevoker, userID uint64) error {
	if sessions == nil {
		return nil
	}
	if err := sessions.Revoke(ctx, userID); err != nil {
		log.ErrorContext(ctx, "revoke user sessions failed", "user_id", userID, "err", err)
		return err
	}
	return nil
}
