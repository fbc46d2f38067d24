package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, forged or expired bearer tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthService authenticates identities against the configured identity store
// and issues stateless bearer tokens for them.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// TokenTTL is the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// HashPassword returns a bcrypt hash of password. Values that already are bcrypt hashes are kept.
func (s *AuthService) HashPassword(password string) (string, error) {
	if strings.HasPrefix(password, "$2") {
		if _, err := bcrypt.Cost([]byte(password)); err == nil {
			return password, nil
		}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// RegisterUser stores a new identity with a hashed password.
func (s *AuthService) RegisterUser(ctx context.Context, username, password string, role models.Role) error {
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to register user %s: %w", username, err)
	}
	return nil
}

// Authenticate checks a username/password pair and returns the matching identity.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user %s: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &models.Identity{Username: user.Username, Role: user.Role}, nil
}

// IssueToken signs an HS256 token carrying the identity and its role.
func (s *AuthService) IssueToken(identity *models.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  identity.Username,
		"role": string(identity.Role),
		"exp":  now.Add(s.tokenTTL).Unix(),
		"iat":  now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, then resolves its subject
// against the identity store. The stored role wins over the role claim, and a
// subject that no longer exists invalidates the token.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	username, _ := claims["sub"].(string)
	rawRole, _ := claims["role"].(string)
	if _, ok := models.ParseRole(rawRole); username == "" || !ok {
		return nil, fmt.Errorf("%w: missing subject or role", ErrInvalidToken)
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject %s", ErrInvalidToken, username)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", username, err)
	}
	return &models.Identity{Username: user.Username, Role: user.Role}, nil
}
