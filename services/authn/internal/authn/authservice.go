package authn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/event"
)

const MinPasswordLength = 8

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is not active")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidStatus      = errors.New("invalid status")
)

// ValidationError lists the fields rejected in a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Service holds the account rules shared by the HTTP handlers and seeding.
type Service struct {
	repo      UserRepo
	issuer    *auth.TokenIssuer
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo UserRepo, issuer *auth.TokenIssuer, publisher events.Publisher) *Service {
	return &Service{repo: repo, issuer: issuer, publisher: publisher, now: time.Now}
}

type SignUpInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

func (in SignUpInput) Validate() error {
	fields := map[string]string{}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if len(in.Password) < MinPasswordLength {
		fields["password"] = fmt.Sprintf("must be at least %d characters", MinPasswordLength)
	}
	if strings.TrimSpace(in.FirstName) == "" {
		fields["first_name"] = "is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// SignUp registers a customer account and announces it on users.registered.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user := NewUser()
	user.Email = in.Email
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Phone = in.Phone
	user.CompanyName = in.CompanyName
	if err := s.create(ctx, user, in.Password); err != nil {
		return nil, err
	}

	s.announce(ctx, user)
	return user, nil
}

type StaffInput struct {
	SignUpInput
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

// CreateStaff creates an account with any role, used by admins and seeding.
func (s *Service) CreateStaff(ctx context.Context, in StaffInput, createdBy string) (*User, error) {
	if err := in.SignUpInput.Validate(); err != nil {
		return nil, err
	}
	if !role.Valid(in.Role) {
		return nil, ErrInvalidRole
	}

	user := NewUser()
	user.Email = in.Email
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Phone = in.Phone
	user.CompanyName = in.CompanyName
	user.Role = in.Role
	user.Department = in.Department
	user.EmailVerified = true
	user.CreatedBy = createdBy
	if err := s.create(ctx, user, in.Password); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) create(ctx context.Context, user *User, password string) error {
	existing, err := s.repo.GetByEmail(ctx, NormalizeEmail(user.Email))
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.BeforeCreate()

	if err := s.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SignIn checks the credentials and returns the user with a signed token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, "", ErrInactiveAccount
	}

	token, err := s.issuer.Issue(user.Principal())
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

type ProfileInput struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	PostalCode  *string `json:"postal_code,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, &ValidationError{Fields: map[string]string{"first_name": "is required"}}
		}
		user.FirstName = *in.FirstName
	}
	setIf(&user.LastName, in.LastName)
	setIf(&user.Phone, in.Phone)
	setIf(&user.Address, in.Address)
	setIf(&user.City, in.City)
	setIf(&user.PostalCode, in.PostalCode)
	setIf(&user.CompanyName, in.CompanyName)
	user.UpdatedBy = id.String()
	user.BeforeUpdate()

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

type AdminUpdateInput struct {
	Role       *string `json:"role,omitempty"`
	Status     *string `json:"status,omitempty"`
	Department *string `json:"department,omitempty"`
}

func (s *Service) AdminUpdate(ctx context.Context, id uuid.UUID, in AdminUpdateInput, updatedBy string) (*User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Role != nil {
		if !role.Valid(*in.Role) {
			return nil, ErrInvalidRole
		}
		user.Role = *in.Role
	}
	if in.Status != nil {
		if *in.Status != StatusActive && *in.Status != StatusInactive {
			return nil, ErrInvalidStatus
		}
		user.Status = *in.Status
	}
	setIf(&user.Department, in.Department)
	user.UpdatedBy = updatedBy
	user.BeforeUpdate()

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, filter UserFilter) ([]*User, error) {
	if filter.Role != "" && !role.Valid(filter.Role) {
		return nil, ErrInvalidRole
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// announce is best effort, a lost event only skips the welcome promo.
func (s *Service) announce(ctx context.Context, user *User) {
	if s.publisher == nil {
		return
	}
	evt := event.UserRegisteredEvent{
		EventType:  event.EventUserRegistered,
		OccurredAt: s.now().UTC(),
		UserID:     user.ID.String(),
		Email:      user.Email,
		Name:       user.FullName(),
		Role:       user.Role,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	_ = s.publisher.Publish(ctx, event.UsersRegisteredTopic, data)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
