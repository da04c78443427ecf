package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink-api/internal/model"
	pkgauth "github.com/carelink/carelink-api/pkg/auth"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
	"github.com/carelink/carelink-api/pkg/logger"
	"github.com/carelink/carelink-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.Conflict("email is already registered", nil)
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return apperrors.NotFound("user", nil)
	}
	u.PasswordHash = hash
	return nil
}

type fakeRevoker struct {
	revoked map[string]bool
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]bool)}
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	f.revoked[tokenID] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], nil
}

func setup() (*Service, *fakeUserRepo, *fakeRevoker) {
	users := newFakeUserRepo()
	revoker := newFakeRevoker()
	jwtSvc := pkgauth.NewJWTService("test-secret", "test-refresh-secret", time.Hour, 24*time.Hour)
	svc := NewService(users, security.NewBcryptHasher(bcrypt.MinCost), jwtSvc, revoker, logger.NewLogger(nil))
	return svc, users, revoker
}

func registerReq(email string, role model.Role) *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:     email,
		Password:  "s3cret-pass",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := setup()

	resp, err := svc.Register(context.Background(), registerReq("doc@example.com", model.RoleDoctor))
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, resp.User.Role)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEqual(t, "s3cret-pass", resp.User.PasswordHash)

	login, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Register(context.Background(), registerReq("dup@example.com", model.RolePatient))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerReq("dup@example.com", model.RoleDoctor))
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Register(context.Background(), registerReq("p@example.com", model.RolePatient))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "p@example.com",
		Password: "wrong-pass",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	// Unknown email reports the same error as a wrong password.
	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ghost@example.com",
		Password: "wrong-pass",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestRefreshRoundTrip(t *testing.T) {
	svc, _, _ := setup()

	resp, err := svc.Register(context.Background(), registerReq("r@example.com", model.RolePatient))
	require.NoError(t, err)

	tokens, err := svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	_, err = svc.Refresh(context.Background(), "garbage")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestUpdateProfileCannotChangeRole(t *testing.T) {
	svc, users, _ := setup()

	resp, err := svc.Register(context.Background(), registerReq("role@example.com", model.RolePatient))
	require.NoError(t, err)

	name := "Changed"
	updated, err := svc.UpdateProfile(context.Background(), resp.User.ID, &model.UpdateUserRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Changed", updated.FirstName)
	assert.Equal(t, model.RolePatient, users.users[resp.User.ID].Role)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := setup()

	resp, err := svc.Register(context.Background(), registerReq("cp@example.com", model.RolePatient))
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), resp.User.ID, &model.ChangePasswordRequest{
		OldPassword: "bad-old",
		NewPassword: "new-password",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	err = svc.ChangePassword(context.Background(), resp.User.ID, &model.ChangePasswordRequest{
		OldPassword: "s3cret-pass",
		NewPassword: "new-password",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "cp@example.com",
		Password: "new-password",
	})
	assert.NoError(t, err)
}
