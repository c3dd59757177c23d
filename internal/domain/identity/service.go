package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prms/prms-api/internal/platform/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrNotFound           = errors.New("user not found")
	ErrNotStaff           = errors.New("account is not a staff account")
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Login verifies credentials against an active account. The login value may
// be a username or an email address.
func (s *Service) Login(ctx context.Context, login, password string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Role == "" {
		u.Role = RoleStaff
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile validates and persists the editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id int, p ProfileUpdate) error {
	var problems []string
	if strings.TrimSpace(p.FullName) == "" {
		problems = append(problems, "Full name is required")
	}
	switch {
	case strings.TrimSpace(p.Email) == "":
		problems = append(problems, "Email is required")
	case !strings.Contains(p.Email, "@") || strings.HasPrefix(p.Email, "@") || strings.HasSuffix(p.Email, "@"):
		problems = append(problems, "Invalid email format")
	}
	if strings.TrimSpace(p.Phone) == "" {
		problems = append(problems, "Phone number is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return s.repo.UpdateProfile(ctx, id, p)
}

// ChangePassword re-hashes after verifying the current password.
func (s *Service) ChangePassword(ctx context.Context, id int, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return &ValidationError{Problems: []string{"Old and new passwords are required"}}
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// FirstActiveStaff and ResolveDevUser let the auth strategies resolve staff
// accounts without depending on this package directly.

func (s *Service) FirstActiveStaff(ctx context.Context) (*auth.Identity, error) {
	u, err := s.repo.FirstActiveByRole(ctx, RoleStaff)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toIdentity(u), nil
}

// ResolveDevUser returns the named staff account, provisioning it with an
// unguessable password when absent.
func (s *Service) ResolveDevUser(ctx context.Context, username string) (*auth.Identity, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		if u.Role != RoleStaff || u.Status != StatusActive {
			return nil, ErrNotStaff
		}
		return toIdentity(u), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u = &User{
		Username:     username,
		Email:        username + "@localhost",
		PasswordHash: string(hash),
		Role:         RoleStaff,
		FullName:     username,
		Status:       StatusActive,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("provision dev user: %w", err)
	}
	s.logger.Warn().Str("username", username).Int("user_id", u.ID).
		Msg("provisioned dev fallback user")
	return toIdentity(u), nil
}

func toIdentity(u *User) *auth.Identity {
	return &auth.Identity{ID: u.ID, Username: u.Username, Role: u.Role, Name: u.DisplayName()}
}

// ValidationError carries the list of user-facing field problems.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}
