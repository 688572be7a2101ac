package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrEmailExists  = errors.New("a user with this email already exists")
	ErrRoleNotFound = errors.New("role not found")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsersByBuddyID returns the mentees assigned to the given buddy.
		QueryUsersByBuddyID(ctx context.Context, buddyID int) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)

		GetRoleByName(ctx context.Context, name string) (Role, error)
		QueryAllRoles(ctx context.Context) ([]Role, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	role, err := svc.repo.GetRoleByName(ctx, nu.RoleName)
	if err != nil {
		return User{}, err
	}

	usr := User{
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Email:       nu.Email,
		Area:        nu.Area,
		Status:      StatusActive,
		Role:        role,
		BuddyID:     null.Int{},
		CreatedDate: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// AssignBuddy sets buddyID as usrID's buddy. Both users must exist.
// Cycles are not checked; the original system leaves this to convention.
func (svc *Service) AssignBuddy(ctx context.Context, usrID, buddyID int) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, usrID)
	if err != nil {
		return User{}, err
	}
	buddy, err := svc.repo.GetUserByID(ctx, buddyID)
	if err != nil {
		return User{}, err
	}

	usr.BuddyID = null.IntFrom(buddy.ID)
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) QueryByBuddy(ctx context.Context, buddyID int) ([]User, error) {
	return svc.repo.QueryUsersByBuddyID(ctx, buddyID)
}

func (svc *Service) QueryRoles(ctx context.Context) ([]Role, error) {
	return svc.repo.QueryAllRoles(ctx)
}
