package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/onboardme/backend/core"
)

// Role names as seeded in the `rol` table.
const (
	RoleAdmin    = "Admin"
	RoleRRHH     = "RRHH"
	RoleBuddy    = "Buddy"
	RoleEmpleado = "Empleado"
)

var AllRoleNames = []string{RoleAdmin, RoleRRHH, RoleBuddy, RoleEmpleado}

// user account statuses
const (
	StatusInactive = 0
	StatusActive   = 1
)

type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Area         string    `json:"area"`
	Status       int       `json:"status"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	BirthDate    null.Time `json:"birth_date,omitempty"`
	Role         Role      `json:"role"`

	// BuddyID is a weak self-reference; null means no buddy assigned.
	BuddyID null.Int `json:"buddy_id"`

	CreatedDate time.Time `json:"created_date"` // UTC
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) HasBuddy() bool { return u.BuddyID.Valid }

func (u *User) IsActive() bool { return u.Status == StatusActive }

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	RoleName  string `json:"role" validate:"required"`
	Area      string `json:"area"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.RoleName = core.CleanString(nu.RoleName)
	nu.Area = core.CleanString(nu.Area)
	return validate.Struct(nu)
}
