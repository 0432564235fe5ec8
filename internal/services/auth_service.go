package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/taskdesk/internal/auth"
	"github.com/BradenHooton/taskdesk/internal/models"
	pkgauth "github.com/BradenHooton/taskdesk/pkg/auth"
	pkglogger "github.com/BradenHooton/taskdesk/pkg/logger"
)

// UserRepository defines the user persistence operations the auth flow needs
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateCredentials(ctx context.Context, id, role, passwordHash string) (*models.User, error)
}

// RefreshTokenRepository stores hashed refresh tokens
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	Rotate(ctx context.Context, oldID, userID, newHash string, expiresAt time.Time) error
}

// LoginThrottle is the subset of LoginThrottleService used by login
type LoginThrottle interface {
	CheckLoginAllowed(ctx context.Context, ipAddress, email string) models.ThrottleDecision
	RegisterFailedLogin(ctx context.Context, ipAddress, email string)
	ClearFailedLogins(ctx context.Context, ipAddress, email string)
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthService handles authentication business logic
type AuthService struct {
	users       UserRepository
	tokens      RefreshTokenRepository
	throttle    LoginThrottle
	tm          *auth.TokenManager
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewAuthService creates a new AuthService. timing may be nil.
func NewAuthService(
	users UserRepository,
	tokens RefreshTokenRepository,
	throttle LoginThrottle,
	tm *auth.TokenManager,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		throttle:    throttle,
		tm:          tm,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// NormalizeEmail trims and lowercases an address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a regular user. Returns models.ErrConflict for a taken email
// and *pkgauth.PasswordValidationError for a weak password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType:     pkglogger.EventRegister,
				Email:         email,
				FailureReason: "email_taken",
			})
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventRegister,
		UserID:    user.ID,
		Success:   true,
	})
	return user, nil
}

// Login verifies credentials for a client IP. The throttle is consulted before
// the password is checked: a denied attempt returns *models.ThrottledError
// without touching the user store. Failed credentials are counted, a success
// clears the count. An inactive account is neither counted nor cleared.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*TokenResponse, error) {
	start := s.now()

	decision := s.throttle.CheckLoginAllowed(ctx, ipAddress, email)
	if !decision.Allowed {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginThrottled,
			Email:         email,
			IPAddress:     ipAddress,
			FailureReason: "throttled",
			Metadata:      map[string]string{"retry_after": fmt.Sprintf("%d", decision.RetryAfterSeconds())},
		})
		return nil, &models.ThrottledError{Decision: decision}
	}

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user == nil || pkgauth.ComparePassword(user.PasswordHash, password) != nil {
		s.throttle.RegisterFailedLogin(ctx, ipAddress, email)
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLogin,
			Email:         email,
			IPAddress:     ipAddress,
			FailureReason: "invalid_credentials",
		})
		s.timing.WaitFrom(start)
		return nil, models.ErrUnauthorized
	}

	if !user.IsActive {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLogin,
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "inactive",
		})
		return nil, models.ErrUserInactive
	}

	s.throttle.ClearFailedLogins(ctx, ipAddress, email)

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogin,
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})
	return resp, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
// Errors: models.ErrInvalidToken, ErrInvalidTokenType, ErrTokenRevoked,
// ErrTokenExpired, ErrUserInactive.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil {
		return nil, models.ErrInvalidToken
	}
	if claims.Type != models.TokenTypeRefresh {
		return nil, models.ErrInvalidTokenType
	}

	entry, err := s.tokens.GetByHash(ctx, pkgauth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrTokenRevoked
		}
		s.logger.Error("failed to load refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if entry.Revoked {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventTokenRefresh,
			UserID:        entry.UserID,
			FailureReason: "revoked_token_reuse",
		})
		return nil, models.ErrTokenRevoked
	}
	if entry.ExpiresAt.Before(s.now()) {
		return nil, models.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, entry.UserID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to load user for refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if user == nil || !user.IsActive {
		return nil, models.ErrUserInactive
	}

	resp, expiresAt, err := s.mintTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Rotate(ctx, entry.ID, user.ID, pkgauth.HashToken(resp.RefreshToken), expiresAt); err != nil {
		if errors.Is(err, models.ErrTokenRevoked) {
			return nil, models.ErrTokenRevoked
		}
		s.logger.Error("failed to rotate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventTokenRefresh,
		UserID:    user.ID,
		Success:   true,
	})
	return resp, nil
}

// Logout revokes the refresh token if it is known. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	entry, err := s.tokens.GetByHash(ctx, pkgauth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to load refresh token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !entry.Revoked {
		if err := s.tokens.Revoke(ctx, entry.ID); err != nil {
			s.logger.Error("failed to revoke refresh token", slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogout,
		UserID:    entry.UserID,
		Success:   true,
	})
	return nil
}

// EnsureAdmin creates the bootstrap admin, or promotes an existing account
// and resets its password
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	email = NormalizeEmail(email)
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		user, err := s.users.Create(ctx, &models.User{
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			IsActive:     true,
		})
		if err != nil {
			return nil, fmt.Errorf("create admin: %w", err)
		}
		s.auditLogger.LogAccountAction(ctx, pkglogger.EventAdminBootstrap, user.ID, map[string]string{"action": "created"})
		return user, nil
	case err != nil:
		return nil, fmt.Errorf("look up admin: %w", err)
	}

	user, err := s.users.UpdateCredentials(ctx, existing.ID, models.RoleAdmin, hash)
	if err != nil {
		return nil, fmt.Errorf("promote admin: %w", err)
	}
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventAdminBootstrap, user.ID, map[string]string{"action": "promoted"})
	return user, nil
}

// issueTokens mints a token pair and stores the refresh token hash
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenResponse, error) {
	resp, expiresAt, err := s.mintTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Create(ctx, user.ID, pkgauth.HashToken(resp.RefreshToken), expiresAt); err != nil {
		s.logger.Error("failed to store refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return resp, nil
}

func (s *AuthService) mintTokens(user *models.User) (*TokenResponse, time.Time, error) {
	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, time.Time{}, models.ErrInternalServer
	}

	refreshToken, expiresAt, err := s.tm.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, time.Time{}, models.ErrInternalServer
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tm.AccessTokenExpiry() / time.Second),
	}, expiresAt, nil
}
