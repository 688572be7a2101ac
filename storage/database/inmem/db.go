package inmemdb

import (
	"sync"

	"github.com/onboardme/backend/core/content"
	"github.com/onboardme/backend/core/course"
	"github.com/onboardme/backend/core/exam"
	"github.com/onboardme/backend/core/notification"
	"github.com/onboardme/backend/core/user"
)

// DB is a map-backed store used by tests and local development. A single
// lock guards all tables; ids are issued from one shared sequence.
type DB struct {
	mutex sync.RWMutex
	seq   int

	users         map[int]*user.User
	roles         map[int]*user.Role
	courses       map[int]*course.Course
	sections      map[int]*course.Section
	enrollments   map[enrollmentKey]*course.Enrollment
	contents      map[int]content.SectionContent // keyed by section id
	examResults   map[int]*exam.Result
	notifications map[int]*notification.Notification
}

type enrollmentKey struct {
	userID   int
	courseID int
}

func Open() *DB {
	db := &DB{
		users:         make(map[int]*user.User),
		roles:         make(map[int]*user.Role),
		courses:       make(map[int]*course.Course),
		sections:      make(map[int]*course.Section),
		enrollments:   make(map[enrollmentKey]*course.Enrollment),
		contents:      make(map[int]content.SectionContent),
		examResults:   make(map[int]*exam.Result),
		notifications: make(map[int]*notification.Notification),
	}
	for _, name := range []string{user.RoleAdmin, user.RoleRRHH, user.RoleBuddy, user.RoleEmpleado} {
		db.roles[db.nextID()] = &user.Role{ID: db.seq, Name: name}
	}
	return db
}

// nextID must be called with the write lock held (or before the DB is
// shared).
func (db *DB) nextID() int {
	db.seq++
	return db.seq
}
