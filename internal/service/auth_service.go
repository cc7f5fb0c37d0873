package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

// AuthService coordinates login sessions and operator accounts.
type AuthService struct {
	// mu serializes read-modify-write cycles on user records.
	mu sync.Mutex

	users           repository.UserRepository
	tokenMgr        *auth.TokenManager
	bcryptCost      int
	defaultPassword string
	logger          *zap.Logger
	now             func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Logger   *zap.Logger
	Clock    func() time.Time
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
	SessionID string
}

// UserInput describes a new operator account. An empty Password falls back to
// the configured default.
type UserInput struct {
	Name     string
	Email    string
	Role     domain.UserRole
	SectorID *string
	Active   bool
	Password string
}

// UserPatch carries the account fields to change.
type UserPatch struct {
	Name        *string
	Email       *string
	Role        *domain.UserRole
	SectorID    *string
	ClearSector bool
	Active      *bool
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:           deps.UserRepo,
		tokenMgr:        auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:      cfg.BcryptCost,
		defaultPassword: cfg.DefaultPassword,
		logger:          deps.Logger,
		now:             deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Login authenticates an active operator and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewAuthenticationError("invalid credentials or inactive user")
		}
		return nil, err
	}
	if !user.Active || auth.ComparePassword(user.PasswordHash, password) != nil {
		return nil, apperrors.NewAuthenticationError("invalid credentials or inactive user")
	}

	// re-read under the lock; the bcrypt check above stays outside it
	userID := user.ID
	s.mu.Lock()
	user, err = s.users.GetByID(ctx, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, userError(err, userID)
	}
	if !user.Active {
		s.mu.Unlock()
		return nil, apperrors.NewAuthenticationError("invalid credentials or inactive user")
	}
	now := s.now()
	session := domain.Session{ID: uuid.NewString(), UserID: user.ID, LoginTime: now}
	user.Sessions = append(user.Sessions, session)
	user.LastLogin = &now
	user.UpdatedAt = now
	err = s.users.Update(ctx, user)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	return &LoginResult{User: user, Token: token, ExpiresAt: exp, SessionID: session.ID}, nil
}

// Logout closes the session. Closing an already closed session is a no-op.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return userError(err, userID)
	}
	now := s.now()
	found := false
	for i := range user.Sessions {
		if user.Sessions[i].ID != sessionID {
			continue
		}
		found = true
		if user.Sessions[i].Open() {
			user.Sessions[i].LogoutTime = &now
		}
	}
	if !found {
		return apperrors.NewNotFound("session", sessionID)
	}
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("user logged out", zap.String("user_id", userID), zap.String("session_id", sessionID))
	return nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.NewValidationError("new password is required", map[string]any{"newPassword": "required"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return userError(err, userID)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewAuthenticationError("current password is incorrect")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return s.users.Update(ctx, user)
}

// AddUser creates an operator account.
func (s *AuthService) AddUser(ctx context.Context, input UserInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if err := validateUser(name, email, input.Role); err != nil {
		return nil, err
	}
	password := input.Password
	if password == "" {
		password = s.defaultPassword
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         input.Role,
		SectorID:     input.SectorID,
		Active:       input.Active,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
		Sessions:     []domain.Session{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user added", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// UpdateUser merges patch into the account.
func (s *AuthService) UpdateUser(ctx context.Context, id string, patch UserPatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userError(err, id)
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.ClearSector {
		user.SectorID = nil
	} else if patch.SectorID != nil {
		sector := *patch.SectorID
		user.SectorID = &sector
	}
	if patch.Active != nil {
		user.Active = *patch.Active
	}
	if err := validateUser(user.Name, user.Email, user.Role); err != nil {
		return nil, err
	}
	if patch.Email != nil {
		if err := s.ensureEmailFree(ctx, user.Email, user.ID); err != nil {
			return nil, err
		}
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, userError(err, id)
	}
	return user, nil
}

// DeleteUser removes an account.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.users.Delete(ctx, id); err != nil {
		return userError(err, id)
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// GetUser returns one account.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userError(err, id)
	}
	return user, nil
}

// ListUsers returns every account.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// SeedUsers creates accounts when the store is empty and reports how many
// were written.
func (s *AuthService) SeedUsers(ctx context.Context, inputs []UserInput) (int, error) {
	existing, err := s.users.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, input := range inputs {
		if _, err := s.AddUser(ctx, input); err != nil {
			return i, err
		}
	}
	return len(inputs), nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	other, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		return apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}
	return nil
}

func validateUser(name, email string, role domain.UserRole) error {
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "invalid"
	}
	if !role.Valid() {
		details["role"] = "must be admin, attendant or receptionist"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid user", details)
	}
	return nil
}

func userError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("user", id)
	}
	return err
}
