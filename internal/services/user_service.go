package services

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/surveypipe/surveypipe/internal/domain"
)

// TokenSigner issues an auth token for a user id.
type TokenSigner func(uid, email string, ttl time.Duration) (string, error)

// UserService manages the minimal identity layer: account registration,
// login, and the active flag.
type UserService struct {
	users     UserStore
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token  string
	UserID string
}

func NewUserService(users UserStore, signer TokenSigner, tokenTTL time.Duration) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * 24 * time.Hour
	}
	return &UserService{
		users:     users,
		signToken: signer,
		tokenTTL:  tokenTTL,
	}
}

// RegisterAdministrator creates an administrator account.
func (s *UserService) RegisterAdministrator(name, email, password string) (*domain.User, error) {
	return s.register(name, email, password, domain.UserAdministrator)
}

// RegisterPublicUser creates a public respondent account.
func (s *UserService) RegisterPublicUser(name, email, password string) (*domain.User, error) {
	return s.register(name, email, password, domain.UserPublic)
}

func (s *UserService) register(name, email, password string, userType domain.UserType) (*domain.User, error) {
	if strings.TrimSpace(password) == "" {
		return nil, domain.NewValidationError("", "password cannot be empty")
	}

	var user *domain.User
	var err error
	if userType == domain.UserAdministrator {
		user, err = domain.NewAdministrator(name, email)
	} else {
		user, err = domain.NewPublicUser(name, email)
	}
	if err != nil {
		return nil, err
	}

	existing, _, err := s.users.FindUserByEmail(user.Email())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewDuplicateError(user.Email(),
			fmt.Sprintf("user with email %q already exists", user.Email()))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.InsertUser(user, hash); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, domain.NewValidationError("", "email and password are required")
	}
	user, hash, err := s.users.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewAuthorizationError("", "invalid credentials")
	}
	if !user.IsActive() {
		return nil, domain.NewAuthorizationError(user.ID(), "account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, domain.NewAuthorizationError("", "invalid credentials")
	}
	token, err := s.signToken(user.ID(), user.Email(), s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: user.ID()}, nil
}

func (s *UserService) Get(id string) (*domain.User, error) {
	user, err := s.users.GetUser(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFoundError(id, fmt.Sprintf("user %q not found", id))
	}
	return user, nil
}

func (s *UserService) List() ([]*domain.User, error) {
	return s.users.ListUsers()
}

func (s *UserService) Update(id, name, email string) (*domain.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := user.Update(name, email); err != nil {
		return nil, err
	}
	if err := s.users.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Activate(id string) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := user.Activate(); err != nil {
		return err
	}
	return s.users.UpdateUser(user)
}

func (s *UserService) Deactivate(id string) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := user.Deactivate(); err != nil {
		return err
	}
	return s.users.UpdateUser(user)
}

func (s *UserService) TokenTTL() time.Duration { return s.tokenTTL }
