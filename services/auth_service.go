package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"roombooking-backend/models"
	"roombooking-backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionTTL = 12 * time.Hour

type AuthService struct {
	Users *UserService
	DB    *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{Users: NewUserService(db), DB: db}
}

// AuthResult is what a successful register or login hands back to the
// transport layer.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type RegisterRequest struct {
	Username string
	Password string
	FullName string
	Phone    string
}

// Register creates the account and logs it in immediately, returning a fresh
// session token. New accounts get the administrator role, matching how the
// directory is bootstrapped.
func (s *AuthService) Register(req RegisterRequest) (AuthResult, error) {
	user, err := s.Users.Create(models.User{
		Username: req.Username,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     "administrator",
	}, req.Password)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issueSession(user)
}

// Login verifies the password and issues a new opaque session token. Locked
// accounts are refused with ErrAccessDenied.
func (s *AuthService) Login(username, password string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("db error loading user: %w", err)
	}

	if user.IsAccountLocked {
		return AuthResult{}, ErrAccessDenied
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issueSession(user)
}

// FindBySessionToken resolves a bearer token to its user. Expired or unknown
// tokens fail with ErrInvalidCredentials; locked accounts with ErrAccessDenied.
func (s *AuthService) FindBySessionToken(token string) (models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	var user models.User
	err := s.DB.
		Where("session_token = ? AND (session_expires IS NULL OR session_expires > ?)", token, now).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("db error loading session: %w", err)
	}

	if user.IsAccountLocked {
		return models.User{}, ErrAccessDenied
	}
	return user, nil
}

func (s *AuthService) issueSession(user models.User) (AuthResult, error) {
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	expiry := time.Now().UTC().Add(sessionTTL)
	if err := s.DB.Model(&user).Updates(map[string]interface{}{
		"session_token":   token,
		"session_expires": expiry,
	}).Error; err != nil {
		return AuthResult{}, fmt.Errorf("failed to store session token: %w", err)
	}

	return AuthResult{Token: token, User: user}, nil
}
