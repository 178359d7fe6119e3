package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/repository"
	"Inkwell/internal/repository/memory"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserStore 同时实现 UserRepo / RoleRepo / UserRolesRepo
type fakeUserStore struct {
	nextID    uint64
	users     map[uint64]*model.User
	roles     map[uint64]*model.Role
	userRoles map[uint64][]uint64
}

var (
	_ repository.UserRepo      = (*fakeUserStore)(nil)
	_ repository.RoleRepo      = (*fakeUserStore)(nil)
	_ repository.UserRolesRepo = (*fakeUserStore)(nil)
)

func newFakeUserStore() *fakeUserStore {
	s := &fakeUserStore{
		users:     make(map[uint64]*model.User),
		roles:     make(map[uint64]*model.Role),
		userRoles: make(map[uint64][]uint64),
	}
	for _, name := range []string{consts.RoleAdmin, consts.RoleEditor, consts.RoleModerator} {
		_ = s.CreateRole(context.Background(), &model.Role{Name: name, Permissions: security.BuiltinRoles[name]})
	}
	return s
}

func (s *fakeUserStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *fakeUserStore) GetUserById(_ context.Context, id uint64) (*model.User, error) {
	return s.users[id], nil
}

func (s *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) CreateUser(ctx context.Context, user *model.User, roleIDs []uint64) error {
	if exist, _ := s.GetUserByUsername(ctx, user.Username); exist != nil {
		return memory.ErrDuplicate
	}
	user.ID = s.id()
	s.users[user.ID] = user
	s.userRoles[user.ID] = append([]uint64(nil), roleIDs...)
	return nil
}

func (s *fakeUserStore) UpdateUserIsBan(_ context.Context, id uint64, isBan bool) (int64, error) {
	u, ok := s.users[id]
	if !ok {
		return 0, nil
	}
	u.IsBan = isBan
	return 1, nil
}

func (s *fakeUserStore) ListUsers(_ context.Context, page, pageSize int) ([]*model.User, int64, error) {
	list := make([]*model.User, 0, len(s.users))
	for id := uint64(1); id <= s.nextID; id++ {
		if u, ok := s.users[id]; ok {
			list = append(list, u)
		}
	}
	total := int64(len(list))
	start := (page - 1) * pageSize
	if start >= len(list) {
		return []*model.User{}, total, nil
	}
	end := min(start+pageSize, len(list))
	return list[start:end], total, nil
}

func (s *fakeUserStore) GetRoleByIDs(_ context.Context, ids []uint64) ([]*model.Role, error) {
	out := make([]*model.Role, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.roles[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeUserStore) GetRoleByName(_ context.Context, name string) (*model.Role, error) {
	for _, r := range s.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) CreateRole(ctx context.Context, role *model.Role) error {
	if exist, _ := s.GetRoleByName(ctx, role.Name); exist != nil {
		return memory.ErrDuplicate
	}
	role.ID = s.id()
	s.roles[role.ID] = role
	return nil
}

func (s *fakeUserStore) GetRoles(_ context.Context) ([]*model.Role, error) {
	out := make([]*model.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeUserStore) GetUserRoles(ctx context.Context, userId uint64) ([]*model.Role, error) {
	return s.GetRoleByIDs(ctx, s.userRoles[userId])
}

func (s *fakeUserStore) GetRolesByUserIDs(ctx context.Context, userIds []uint64) (map[uint64][]*model.Role, error) {
	out := make(map[uint64][]*model.Role, len(userIds))
	for _, id := range userIds {
		out[id], _ = s.GetUserRoles(ctx, id)
	}
	return out, nil
}

func (s *fakeUserStore) GetUserHasRole(_ context.Context, userId uint64, roleId uint64) (bool, error) {
	for _, id := range s.userRoles[userId] {
		if id == roleId {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) AddRoleToUser(_ context.Context, userId uint64, roleId uint64) error {
	s.userRoles[userId] = append(s.userRoles[userId], roleId)
	return nil
}

func (s *fakeUserStore) DeleteRoleFromUser(_ context.Context, userId uint64, roleId uint64) error {
	kept := s.userRoles[userId][:0]
	for _, id := range s.userRoles[userId] {
		if id != roleId {
			kept = append(kept, id)
		}
	}
	s.userRoles[userId] = kept
	return nil
}

type fakeSessions struct {
	revoked []uint64
	err     error
}

func (f *fakeSessions) Revoke(_ context.Context, userID uint64) error {
	if f.err != nil {
		return f.err
	}
	f.revoked = append(f.revoked, userID)
	return nil
}

func (s *fakeUserStore) addUser(t *testing.T, username, password, role string) *model.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	r, _ := s.GetRoleByName(context.Background(), role)
	require.NotNil(t, r)
	user := &model.User{Username: username, Nickname: username, Password: hash}
	require.NoError(t, s.CreateUser(context.Background(), user, []uint64{r.ID}))
	return user
}

func TestUserService_Login(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, store, store, &fakeSessions{})
	ctx := context.Background()
	store.addUser(t, "mod", "secret-pw", consts.RoleModerator)
	banned := store.addUser(t, "gone", "secret-pw", consts.RoleEditor)
	banned.IsBan = true

	res, err := svc.Login(ctx, &dto.CredentialDTO{Username: "mod", Password: "secret-pw"})
	require.NoError(t, err)
	assert.Equal(t, []string{consts.RoleModerator}, res.Roles)
	assert.True(t, security.HasPermission(res.Permissions, security.PermCommentModerate))

	claims, err := security.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Roles, claims.Roles)

	cases := []struct {
		name string
		in   dto.CredentialDTO
		err  error
	}{
		{"missing password", dto.CredentialDTO{Username: "mod"}, ErrMissingLoginCredentials},
		{"unknown user", dto.CredentialDTO{Username: "nobody", Password: "secret-pw"}, ErrUserNotFound},
		{"wrong password", dto.CredentialDTO{Username: "mod", Password: "wrong-pw"}, ErrPasswordIncorrect},
		{"banned", dto.CredentialDTO{Username: "gone", Password: "secret-pw"}, ErrUserBan},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			_, err := svc.Login(ctx, &in)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestUserService_EnsureAdminIsIdempotent(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, store, store, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, " root ", "root-pass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "root", "other-pass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "", "ignored"))
	require.Len(t, store.users, 1)

	root, err := store.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.NoError(t, security.CheckPasswordHash("root-pass", root.Password))
	roles, err := store.GetUserRoles(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, consts.RoleAdmin, roles[0].Name)
}

func TestUserService_BanRevokesSessions(t *testing.T) {
	store := newFakeUserStore()
	sessions := &fakeSessions{}
	svc := NewUserService(store, store, store, sessions)
	ctx := context.Background()
	admin := store.addUser(t, "admin", "secret-pw", consts.RoleAdmin)
	editor := store.addUser(t, "editor", "secret-pw", consts.RoleEditor)

	assert.ErrorIs(t, svc.BanUser(ctx, admin.ID, admin.ID), ErrUserBanSelf)
	assert.ErrorIs(t, svc.BanUser(ctx, admin.ID, 404), ErrUserNotFound)
	assert.Empty(t, sessions.revoked)

	require.NoError(t, svc.BanUser(ctx, admin.ID, editor.ID))
	assert.True(t, editor.IsBan)
	assert.Equal(t, []uint64{editor.ID}, sessions.revoked)

	require.NoError(t, svc.UnBanUser(ctx, editor.ID))
	assert.False(t, editor.IsBan)

	sessions.err = errors.New("redis down")
	assert.Error(t, svc.BanUser(ctx, admin.ID, editor.ID))
}

func TestUserService_ListUsers(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, store, store, nil)
	store.addUser(t, "admin", "secret-pw", consts.RoleAdmin)
	store.addUser(t, "editor", "secret-pw", consts.RoleEditor)

	page, err := svc.ListUsers(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.List, 2)
	assert.Equal(t, "admin", page.List[0].Username)
	assert.Equal(t, []string{consts.RoleEditor}, page.List[1].Roles)
}

func TestUserRolesService_CreateRole(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserRolesService(store, store, store, nil)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, &dto.RoleCreateDTO{Name: " writer ", Permissions: []string{"post:write", "post:read", "post:write"}})
	require.NoError(t, err)
	assert.Equal(t, "WRITER", role.Name)
	assert.Equal(t, []string{"post:read", "post:write"}, role.Permissions)

	_, err = svc.CreateRole(ctx, &dto.RoleCreateDTO{Name: "Writer", Permissions: []string{"post:read"}})
	assert.ErrorIs(t, err, ErrRoleExist)
	_, err = svc.CreateRole(ctx, &dto.RoleCreateDTO{Name: "bad", Permissions: []string{"post"}})
	assert.ErrorIs(t, err, ErrPermissionInvalid)
	_, err = svc.CreateRole(ctx, &dto.RoleCreateDTO{Name: "  ", Permissions: []string{"post:read"}})
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestUserRolesService_AssignmentRevokesSessions(t *testing.T) {
	store := newFakeUserStore()
	sessions := &fakeSessions{}
	svc := NewUserRolesService(store, store, store, sessions)
	ctx := context.Background()
	user := store.addUser(t, "editor", "secret-pw", consts.RoleEditor)
	moderator, _ := store.GetRoleByName(ctx, consts.RoleModerator)
	editor, _ := store.GetRoleByName(ctx, consts.RoleEditor)

	require.NoError(t, svc.AddRoleToUser(ctx, user.ID, moderator.ID))
	assert.ErrorIs(t, svc.AddRoleToUser(ctx, user.ID, moderator.ID), ErrUserHasRole)
	assert.ErrorIs(t, svc.AddRoleToUser(ctx, 404, moderator.ID), ErrUserNotFound)
	assert.ErrorIs(t, svc.AddRoleToUser(ctx, user.ID, 404), ErrRoleNotFound)

	require.NoError(t, svc.DeleteRoleFromUser(ctx, user.ID, editor.ID))
	roles, err := store.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, consts.RoleModerator, roles[0].Name)

	assert.Equal(t, []uint64{user.ID, user.ID}, sessions.revoked)
}
