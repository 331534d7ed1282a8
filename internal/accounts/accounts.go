// Package accounts handles staff credentials: login, logout, token checks and
// the owner's management of admin accounts.
package accounts

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"invoice-settlement/internal/auth"
	"invoice-settlement/internal/logger"
	"invoice-settlement/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account is inactive")
	ErrNotAdmin           = errors.New("only admin accounts can be managed here")
)

// ValidationErrors collects field level messages for rejected input.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string { return "validation failed" }

type Store interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uint64) (*models.User, error)
	ListUsers(ctx context.Context, role models.RoleType) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uint64) error
	RecordLogin(ctx context.Context, userID uint64, ip string, at time.Time) error
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Service struct {
	store  Store
	tokens auth.TokenConfig
	now    func() time.Time
	log    zerolog.Logger
}

func NewService(store Store, tokens auth.TokenConfig) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		now:    time.Now,
		log:    logger.WithComponent("accounts"),
	}
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (s *Service) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	user, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	now := s.now()
	token, claims, err := auth.IssueToken(s.tokens, user, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.RecordLogin(ctx, user.ID, ip, now); err != nil {
		s.log.Warn().Err(err).Uint64("user_id", user.ID).Msg("could not record login")
	}
	s.log.Info().Uint64("user_id", user.ID).Str("role", string(user.Role)).Msg("login")
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	return s.store.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Authenticate resolves a bearer token to the actor it belongs to. The role
// is read from the stored account so demotions apply immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Actor, *auth.Claims, error) {
	claims, err := auth.ParseToken(s.tokens, token)
	if err != nil {
		return auth.Actor{}, nil, err
	}
	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return auth.Actor{}, nil, err
	}
	if revoked {
		return auth.Actor{}, nil, auth.ErrInvalidToken
	}
	user, err := s.store.UserByID(ctx, claims.UserID())
	if errors.Is(err, ErrUserNotFound) {
		return auth.Actor{}, nil, auth.ErrInvalidToken
	}
	if err != nil {
		return auth.Actor{}, nil, err
	}
	if !user.IsActive {
		return auth.Actor{}, nil, ErrInactive
	}
	return auth.Actor{UserID: user.ID, Role: user.Role, Name: user.Name}, claims, nil
}

type AdminInput struct {
	Name     string
	Email    string
	Password string
}

type AdminUpdate struct {
	Name     *string
	Email    *string
	Password *string
	IsActive *bool
}

func (s *Service) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx, models.RoleAdmin)
}

func (s *Service) GetAdmin(ctx context.Context, id uint64) (*models.User, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleAdmin {
		return nil, ErrNotAdmin
	}
	return u, nil
}

// CreateAdmin creates an account with the admin role. Role is never taken
// from input on this path.
func (s *Service) CreateAdmin(ctx context.Context, in AdminInput) (*models.User, error) {
	return s.createUser(ctx, in, models.RoleAdmin)
}

// EnsureOwner creates the owner account when no account uses email yet.
func (s *Service) EnsureOwner(ctx context.Context, in AdminInput) (*models.User, bool, error) {
	existing, err := s.store.UserByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}
	u, err := s.createUser(ctx, in, models.RoleOwner)
	return u, err == nil, err
}

// validEmail accepts a bare address only. Display names and angle brackets
// are rejected.
func validEmail(email string) bool {
	if len(email) > 255 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *Service) createUser(ctx context.Context, in AdminInput, role models.RoleType) (*models.User, error) {
	v := ValidationErrors{}
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		v["name"] = append(v["name"], "name is required")
	}
	if !validEmail(email) {
		v["email"] = append(v["email"], "a valid email is required")
	}
	if len(in.Password) < 8 {
		v["password"] = append(v["password"], "password must be at least 8 characters")
	}
	if len(v) > 0 {
		return nil, v
	}
	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Name: name, Email: email, PasswordHash: hashed, Role: role, IsActive: true}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Uint64("user_id", u.ID).Str("role", string(role)).Msg("account created")
	return u, nil
}

func (s *Service) UpdateAdmin(ctx context.Context, id uint64, in AdminUpdate) (*models.User, error) {
	u, err := s.GetAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	v := ValidationErrors{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			v["name"] = append(v["name"], "name must not be empty")
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if !validEmail(email) {
			v["email"] = append(v["email"], "a valid email is required")
		}
		u.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			v["password"] = append(v["password"], "password must be at least 8 characters")
		} else if u.PasswordHash, err = auth.HashPassword(*in.Password); err != nil {
			return nil, err
		}
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if len(v) > 0 {
		return nil, v
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteAdmin(ctx context.Context, id uint64) error {
	if _, err := s.GetAdmin(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
