package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/identity"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
	"github.com/smartsecurity/access-register/pkg/crypto"
)

// ErrBadCredentials is returned for an unknown email or a wrong password.
var ErrBadCredentials = apperr.Unauthorized("invalid email or password")

// Service handles logins and account bookkeeping.
type Service struct {
	store storage.Store
	jwt   *JWTManager
}

// NewService creates the auth service
func NewService(store storage.Store, jwt *JWTManager) *Service {
	return &Service{store: store, jwt: jwt}
}

// Login checks credentials and issues a token pair. Inactive accounts are
// rejected.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !crypto.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	if !user.IsActive() {
		return nil, apperr.Unauthorized("account is inactive")
	}

	pair, err := s.jwt.GenerateTokenPair(user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	log.Info().Str("userID", user.ID.String()).Str("role", string(user.Role)).Msg("user logged in")
	return pair, nil
}

// Refresh exchanges a refresh token for a fresh pair, reloading the account so
// role and tenant changes take effect.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	if !user.IsActive() {
		return nil, apperr.Unauthorized("account is inactive")
	}
	pair, err := s.jwt.GenerateTokenPair(user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pair, nil
}

// SaveFCMToken stores the caller's push token.
func (s *Service) SaveFCMToken(ctx context.Context, caller identity.Identity, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Validation("fcm token is required")
	}
	user, err := s.store.GetUser(ctx, caller.SubjectID)
	if err != nil {
		return apperr.FromStore(err, "user")
	}
	user.FCMToken = token
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return apperr.FromStore(err, "user")
	}
	return nil
}

// NewAccount is the input for creating a login.
type NewAccount struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	FullName     string `json:"fullName" validate:"required"`
	MobileNumber string `json:"mobileNumber"`
	IDProof      string `json:"idProof"`
}

// CreateSecurityUser registers a gate security account. Only super admins may
// call it.
func (s *Service) CreateSecurityUser(ctx context.Context, caller identity.Identity, req NewAccount) (*models.User, error) {
	if !caller.IsSuperAdmin() {
		return nil, apperr.Unauthorized("only super admins can create security users")
	}
	user, err := NewUser(req, models.RoleSecurityUser, nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, apperr.Conflict("email %s is already registered", user.Email)
		}
		return nil, apperr.Internal(err)
	}
	log.Info().Str("userID", user.ID.String()).Msg("security user created")
	return user, nil
}

// ListSecurityUsers lists gate security accounts.
func (s *Service) ListSecurityUsers(ctx context.Context, caller identity.Identity) ([]*models.User, error) {
	if !caller.IsSuperAdmin() {
		return nil, apperr.Unauthorized("only super admins can list security users")
	}
	users, err := s.store.ListUsersByRole(ctx, models.RoleSecurityUser)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// NewUser builds an active account with a hashed password.
func NewUser(req NewAccount, role models.Role, tenantID *uuid.UUID) (*models.User, error) {
	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     req.FullName,
		MobileNumber: req.MobileNumber,
		IDProof:      req.IDProof,
		PasswordHash: hash,
		Role:         role,
		Status:       models.AccountActive,
		TenantID:     tenantID,
	}, nil
}
