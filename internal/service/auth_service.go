package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const SessionTTL = 30 * 24 * time.Hour

type AuthService interface {
	DisplayNameResolver
	LoginStudent(ctx context.Context, req dto.StudentLoginRequest) (*dto.LoginResponse, error)
	LoginWithPassword(ctx context.Context, role string, req dto.CredentialsLoginRequest) (*dto.LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
	Logout(ctx context.Context, token string) error
	EnsureAdmin(ctx context.Context, email, password, name string) error
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository) AuthService {
	return &authService{userRepo: userRepo, sessionRepo: sessionRepo, now: time.Now}
}

func (s *authService) LoginStudent(ctx context.Context, req dto.StudentLoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindStudentByMobileAndBatch(ctx, strings.TrimSpace(req.Mobile), strings.TrimSpace(req.BatchCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid mobile number or batch code: %w", ErrUnauthorized)
		}
		return nil, storageError("find student", err)
	}
	return s.startSession(ctx, user)
}

// LoginWithPassword authenticates a teacher or admin by email and bcrypt password.
func (s *authService) LoginWithPassword(ctx context.Context, role string, req dto.CredentialsLoginRequest) (*dto.LoginResponse, error) {
	if role != model.RoleTeacher && role != model.RoleAdmin {
		return nil, validationError("password login is not available for role %q", role)
	}
	user, err := s.userRepo.FindByEmailAndRole(ctx, strings.ToLower(strings.TrimSpace(req.Email)), role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, storageError("find user", err)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	return s.startSession(ctx, user)
}

func (s *authService) startSession(ctx context.Context, user *model.User) (*dto.LoginResponse, error) {
	now := s.now().UTC()
	session := model.Session{
		Token:     newSessionToken(),
		UserID:    user.ID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, &session); err != nil {
		log.Error().Err(err).Str("userID", user.ID).Msg("Failed to create session")
		return nil, storageError("create session", err)
	}

	resp := dto.LoginResponse{SessionToken: session.Token}
	if err := copier.Copy(&resp.User, user); err != nil {
		return nil, fmt.Errorf("error preparing login response: %w", err)
	}
	resp.User.UserID = user.ID
	log.Info().Str("userID", user.ID).Str("role", user.Role).Msg("User logged in")
	return &resp, nil
}

// Authenticate resolves a session token to its user.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	session, err := s.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storageError("find session", err)
	}
	if session.Expired(s.now().UTC()) {
		return nil, fmt.Errorf("session expired: %w", ErrUnauthorized)
	}
	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storageError("find session user", err)
	}
	return user, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, token); err != nil {
		return storageError("delete session", err)
	}
	return nil
}

func (s *authService) GetDisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, storageError("find users", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// EnsureAdmin creates the admin account once. An existing admin with the same email is left untouched.
func (s *authService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		log.Warn().Msg("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	_, err := s.userRepo.FindByEmailAndRole(ctx, email, model.RoleAdmin)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return storageError("find admin", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := model.User{
		ID:           newID(model.RoleAdmin),
		Name:         name,
		Email:        &email,
		Role:         model.RoleAdmin,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, &admin); err != nil {
		return storageError("create admin", err)
	}
	log.Info().Str("email", email).Msg("Admin user created")
	return nil
}
