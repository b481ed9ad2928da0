package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ratrace-game/server/internal/dependencies/clock"
	"github.com/ratrace-game/server/internal/dependencies/random"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUsernameExists     = errors.New("username already exists")
)

// PlayerIDLength is the length of the random part of generated player ids
const PlayerIDLength = 16

// Claims is the JWT payload carried by every issued token
type Claims struct {
	jwt.RegisteredClaims
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// Identity is the result of a successful authentication: the account
// plus a signed bearer token for it
type Identity struct {
	Token   string
	Account model.Account
}

// Config holds configuration for the auth service
type Config struct {
	// Secret signs tokens (HS256). Must be non-empty in production.
	Secret string

	// TokenDuration is how long issued tokens stay valid
	TokenDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenDuration: 24 * time.Hour,
	}
}

// Service handles account creation, login and token verification.
// Tokens are stateless JWTs; the only server-side session state is the
// account record itself.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random

	secret        []byte
	tokenDuration time.Duration
}

// New creates a new auth service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config) *Service {
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = DefaultConfig().TokenDuration
	}
	return &Service{
		storage:       storage,
		clock:         clock,
		random:        random,
		secret:        []byte(cfg.Secret),
		tokenDuration: cfg.TokenDuration,
	}
}

// CreateGuest creates an anonymous account and issues a token for it
func (s *Service) CreateGuest(ctx context.Context, displayName, email string) (*Identity, error) {
	account := &model.Account{
		ID:          s.newPlayerID(),
		DisplayName: displayName,
		Email:       email,
		IsGuest:     true,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	return s.issue(account)
}

// Register creates a registered account and issues a token for it
func (s *Service) Register(ctx context.Context, username, password, displayName, email string) (*Identity, error) {
	_, err := s.storage.GetRegisteredAccountByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	account := &model.Account{
		ID:          s.newPlayerID(),
		DisplayName: displayName,
		Email:       email,
		IsGuest:     false,
		CreatedAt:   now,
	}
	registered := &model.RegisteredAccount{
		PlayerID:     account.ID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := s.storage.SaveRegisteredAccount(ctx, registered); err != nil {
		return nil, err
	}

	return s.issue(account)
}

// Login authenticates a registered account and issues a fresh token
func (s *Service) Login(ctx context.Context, username, password string) (*Identity, error) {
	registered, err := s.storage.GetRegisteredAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(registered.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	account, err := s.storage.GetAccount(ctx, registered.PlayerID)
	if err != nil {
		return nil, err
	}

	return s.issue(account)
}

// Verify parses and validates a token, then loads the account it names.
// A token for a deleted account (an expired guest, say) is rejected.
func (s *Service) Verify(ctx context.Context, token string) (*model.Account, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	account, err := s.storage.GetAccount(ctx, model.PlayerID(claims.Subject))
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return account, nil
}

// issue signs a token for an account
func (s *Service) issue(account *model.Account) (*Identity, error) {
	now := s.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(account.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
		},
		DisplayName: account.DisplayName,
		IsGuest:     account.IsGuest,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &Identity{
		Token:   token,
		Account: *account,
	}, nil
}

func (s *Service) newPlayerID() model.PlayerID {
	return model.PlayerID("p_" + s.random.String(PlayerIDLength, random.IDAlphabet))
}
