package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/alaya/internal/config"
	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/users"
	"github.com/mrlokans/alaya/internal/entities"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUserExists         = errors.New("user already exists")
	ErrSignupsDisabled    = errors.New("signups are disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service handles account creation and credential checks.
type Service struct {
	users  *users.Repository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// SignupsDisabled reports whether self-service account creation is turned off.
func (s *Service) SignupsDisabled() bool {
	return s.config.DisableSignups
}

// Signup validates a signup form and creates the account.
func (s *Service) Signup(username, password, confirm string) (*entities.User, error) {
	if s.SignupsDisabled() {
		return nil, ErrSignupsDisabled
	}
	if strings.TrimSpace(username) == "" {
		return nil, ErrUsernameRequired
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	return s.CreateUser(username, password)
}

// CreateUser creates an account regardless of the signup switch. It backs the
// create-user command.
func (s *Service) CreateUser(username, password string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(username, passwordHash)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id string) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// HasUsers returns true if any account exists.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
