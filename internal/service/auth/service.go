package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository"
	pkgauth "github.com/carelink/carelink-api/pkg/auth"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
	"github.com/carelink/carelink-api/pkg/logger"
	"github.com/carelink/carelink-api/pkg/security"
)

// Service handles registration, login and token lifecycle. Role is set
// exactly once at registration and is immutable afterwards.
type Service struct {
	users   repository.UserRepository
	hasher  security.PasswordHasher
	jwt     pkgauth.JWTService
	revoker repository.TokenRevoker
	logger  *logger.Logger
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, jwt pkgauth.JWTService, revoker repository.TokenRevoker, log *logger.Logger) *Service {
	return &Service{
		users:   users,
		hasher:  hasher,
		jwt:     jwt,
		revoker: revoker,
		logger:  log,
	}
}

// AuthResponse bundles the created/authenticated user with its tokens.
type AuthResponse struct {
	User   *model.User        `json:"user"`
	Tokens *pkgauth.TokenPair `json:"tokens"`
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*AuthResponse, error) {
	if !req.Role.Valid() {
		return nil, apperrors.Validation("role must be DOCTOR or PATIENT", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordLength) {
			return nil, apperrors.Validation("password too short", err)
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, apperrors.Validation("invalid date of birth", err)
		}
		user.DateOfBirth = &dob
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user registered")

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

// Logout revokes the presented access token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, claims *pkgauth.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*pkgauth.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, apperrors.Unauthorized("token has been revoked")
	}

	// Confirm the account still exists before minting new tokens.
	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return tokens, nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.OldPassword); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordLength) {
			return apperrors.Validation("password too short", err)
		}
		return apperrors.Internal(err)
	}

	return s.users.UpdatePassword(ctx, userID, hash)
}
