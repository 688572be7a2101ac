package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/onboardme/backend/core/user"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = repo.db.nextID()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsersByBuddyID(_ context.Context, buddyID int) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var mentees []user.User
	for _, usr := range repo.query() {
		if usr.BuddyID.Valid && usr.BuddyID.Int == buddyID {
			mentees = append(mentees, usr)
		}
	}
	return mentees, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetRoleByName(_ context.Context, name string) (user.Role, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, role := range repo.db.roles {
		if strings.EqualFold(role.Name, name) {
			return *role, nil
		}
	}
	return user.Role{}, user.ErrRoleNotFound
}

func (repo *userRepository) QueryAllRoles(_ context.Context) ([]user.Role, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	roles := make([]user.Role, 0, len(repo.db.roles))
	for _, role := range repo.db.roles {
		roles = append(roles, *role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}
