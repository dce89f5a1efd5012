package authn

import (
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/role"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is the aggregate root for the User domain.
type User struct {
	ID            uuid.UUID `json:"id" bson:"_id"`
	Email         string    `json:"email" bson:"email"`
	FirstName     string    `json:"first_name" bson:"first_name"`
	LastName      string    `json:"last_name" bson:"last_name"`
	Phone         string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Address       string    `json:"address,omitempty" bson:"address,omitempty"`
	City          string    `json:"city,omitempty" bson:"city,omitempty"`
	PostalCode    string    `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
	CompanyName   string    `json:"company_name,omitempty" bson:"company_name,omitempty"`
	Department    string    `json:"department,omitempty" bson:"department,omitempty"`
	Role          string    `json:"role" bson:"role"`
	Status        string    `json:"status" bson:"status"`
	EmailVerified bool      `json:"email_verified" bson:"email_verified"`
	PasswordHash  []byte    `json:"-" bson:"pass_hash"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	CreatedBy     string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy     string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) ResourceType() string {
	return "user"
}

func NewUser() *User {
	return &User{
		ID:     apt.GenerateNewID(),
		Role:   role.Roles.Customer.Code(),
		Status: StatusActive,
		City:   "Montreal",
	}
}

func (u *User) EnsureID() {
	if u.ID == uuid.Nil {
		u.ID = apt.GenerateNewID()
	}
}

func (u *User) BeforeCreate() {
	u.EnsureID()
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.normalize()
}

func (u *User) BeforeUpdate() {
	u.UpdatedAt = time.Now()
	u.normalize()
}

func (u *User) normalize() {
	u.Email = NormalizeEmail(u.Email)
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Phone = strings.TrimSpace(u.Phone)
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Principal returns the token subject for this user.
func (u *User) Principal() auth.Principal {
	return auth.Principal{
		UserID: u.ID.String(),
		Role:   u.Role,
		Email:  u.Email,
		Name:   u.FullName(),

		Department: u.Department,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
