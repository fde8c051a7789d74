package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stockkeep/apiserver/config"
	"github.com/stockkeep/apiserver/internal/store"
	"github.com/stockkeep/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = 24 * time.Hour
	// bcrypt only reads the first 72 bytes and rejects longer input.
	maxPasswordBytes = 72
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	Token string           `json:"token"`
	User  types.PublicUser `json:"user"`
}

type sessionClaims struct {
	UserID int    `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService registers users, checks credentials and issues and verifies
// session tokens. Tokens are stateless and cannot be revoked before expiry.
type AuthService struct {
	users             UserRepository
	secret            []byte
	tokenTTL          time.Duration
	bcryptCost        int
	minPasswordLength int
	now               func() time.Time
	logger            *slog.Logger
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithClock replaces the time source used for issuing and checking tokens.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

func NewAuthService(users UserRepository, cfg config.AuthConfig, logger *slog.Logger, opts ...AuthOption) (*AuthService, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &AuthService{
		users:             users,
		secret:            []byte(cfg.JWTSecret),
		tokenTTL:          cfg.TokenTTL,
		bcryptCost:        cfg.BcryptCost,
		minPasswordLength: cfg.MinPasswordLength,
		now:               time.Now,
		logger:            logger,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = defaultTokenTTL
	}
	if s.bcryptCost < bcrypt.MinCost || s.bcryptCost > bcrypt.MaxCost {
		s.bcryptCost = bcrypt.DefaultCost
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates an account. The returned user carries its id and
// creation time; its password hash must not leave the process.
func (s *AuthService) Register(ctx context.Context, fullname, email, password string) (types.User, error) {
	fullname = strings.TrimSpace(fullname)
	email = strings.TrimSpace(email)
	if fullname == "" || email == "" || password == "" {
		return types.User{}, invalidf("fullname, email and password are required")
	}
	if s.minPasswordLength > 0 && len(password) < s.minPasswordLength {
		return types.User{}, invalidf("password must be at least %d characters", s.minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return types.User{}, invalidf("password must be at most %d bytes", maxPasswordBytes)
		}
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Fullname:     fullname,
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			s.logger.InfoContext(ctx, "registration rejected", "reason", "duplicate email")
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	user.PasswordHash = ""
	return user, nil
}

// Authenticate checks credentials and mints a session token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return AuthResult{}, invalidf("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.InfoContext(ctx, "login rejected", "reason", "unknown email")
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.InfoContext(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return AuthResult{Token: token, User: user.Public()}, nil
}

// VerifyToken checks the signature and expiry of a session token and
// returns the identity it was issued for.
func (s *AuthService) VerifyToken(tokenString string) (types.Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return types.Identity{}, ErrMissingToken
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return types.Identity{}, ErrExpiredToken
		}
		return types.Identity{}, ErrInvalidToken
	}
	if !token.Valid || claims.UserID < 1 || claims.Subject != strconv.Itoa(claims.UserID) {
		return types.Identity{}, ErrInvalidToken
	}

	return types.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// CurrentUser loads the profile of an authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context, caller types.Identity) (types.PublicUser, error) {
	if caller.UserID < 1 {
		return types.PublicUser{}, ErrMissingToken
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return types.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) issueToken(user types.User) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
