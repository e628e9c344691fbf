package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// UserType distinguishes respondents from questionnaire administrators.
type UserType string

const (
	UserPublic        UserType = "public"
	UserAdministrator UserType = "administrator"
)

const (
	userNameMinLength = 3
	userNameMaxLength = 100
	emailMaxLength    = 200
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is the minimal identity the core needs: who someone is and whether
// they administer questionnaires or respond to them.
type User struct {
	entity
	name     string
	email    string
	userType UserType
	isActive bool
}

// NewAdministrator creates an active administrator account.
func NewAdministrator(name, email string) (*User, error) {
	return newUser(name, email, UserAdministrator)
}

// NewPublicUser creates an active public respondent account.
func NewPublicUser(name, email string) (*User, error) {
	return newUser(name, email, UserPublic)
}

func newUser(name, email string, userType UserType) (*User, error) {
	u := &User{entity: newEntity(), userType: userType, isActive: true}
	if err := u.setName(name); err != nil {
		return nil, err
	}
	if err := u.setEmail(email); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) setName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < userNameMinLength {
		return NewValidationError(u.id,
			fmt.Sprintf("name must be at least %d characters", userNameMinLength))
	}
	if len(trimmed) > userNameMaxLength {
		return NewValidationError(u.id,
			fmt.Sprintf("name cannot exceed %d characters", userNameMaxLength))
	}
	u.name = trimmed
	return nil
}

func (u *User) setEmail(email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return NewValidationError(u.id, "email cannot be empty")
	}
	if len(normalized) > emailMaxLength {
		return NewValidationError(u.id,
			fmt.Sprintf("email cannot exceed %d characters", emailMaxLength))
	}
	if !emailPattern.MatchString(normalized) {
		return NewValidationError(u.id, "invalid email format")
	}
	u.email = normalized
	return nil
}

// Update replaces name and email, re-validating both.
func (u *User) Update(name, email string) error {
	if err := u.setName(name); err != nil {
		return err
	}
	if err := u.setEmail(email); err != nil {
		return err
	}
	u.touch()
	return nil
}

// Deactivate disables the account.
func (u *User) Deactivate() error {
	if !u.isActive {
		return NewStateConflictError(u.id, fmt.Sprintf("user %q is already inactive", u.id))
	}
	u.isActive = false
	u.touch()
	return nil
}

// Activate re-enables the account.
func (u *User) Activate() error {
	if u.isActive {
		return NewStateConflictError(u.id, fmt.Sprintf("user %q is already active", u.id))
	}
	u.isActive = true
	u.touch()
	return nil
}

func (u *User) Name() string          { return u.name }
func (u *User) Email() string         { return u.email }
func (u *User) Type() UserType        { return u.userType }
func (u *User) IsActive() bool        { return u.isActive }
func (u *User) IsAdministrator() bool { return u.userType == UserAdministrator }
func (u *User) IsPublicUser() bool    { return u.userType == UserPublic }

// RestoreUser rebuilds a stored user. It bypasses validation and exists for
// persistence code only.
func RestoreUser(id, name, email string, userType UserType, isActive bool) *User {
	return &User{
		entity:   entity{id: id},
		name:     name,
		email:    email,
		userType: userType,
		isActive: isActive,
	}
}
