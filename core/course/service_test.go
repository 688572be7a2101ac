package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core/course"
	"github.com/onboardme/backend/core/notification"
	"github.com/onboardme/backend/core/user"
	inmemdb "github.com/onboardme/backend/storage/database/inmem"
)

var ctx = context.Background()

type fixture struct {
	usrRepo  user.Repository
	notifSvc *notification.Service
	svc      *course.Service
}

func newFixture() *fixture {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(db))
	return &fixture{
		usrRepo:  usrRepo,
		notifSvc: notifSvc,
		svc:      course.NewService(crsRepo, enrRepo, usrRepo, notifSvc),
	}
}

func (f *fixture) addUser(t *testing.T, first, last string, buddyID ...int) user.User {
	t.Helper()
	usr := user.User{FirstName: first, LastName: last, Email: first + "." + last + "@test.test", Status: user.StatusActive}
	if len(buddyID) > 0 {
		usr.BuddyID = null.IntFrom(buddyID[0])
	}
	usr, err := f.usrRepo.CreateUser(ctx, usr)
	require.NoError(t, err)
	return usr
}

func (f *fixture) addCourse(t *testing.T, creatorID int, title string, orders ...string) course.Course {
	t.Helper()
	nc := course.NewCourse{Title: title, CreatedByID: creatorID}
	for _, o := range orders {
		nc.Sections = append(nc.Sections, course.NewSection{Title: "Sección " + o, Order: o})
	}
	crs, err := f.svc.Create(ctx, nc)
	require.NoError(t, err)
	return crs
}

func TestServiceCreate(t *testing.T) {
	f := newFixture()
	creator := f.addUser(t, "Rita", "RRHH")

	_, err := f.svc.Create(ctx, course.NewCourse{Title: "Inducción", CreatedByID: 404})
	assert.ErrorIs(t, err, user.ErrNotFound)

	crs := f.addCourse(t, creator.ID, "Inducción", "1", "2", "3")
	assert.NotZero(t, crs.ID)
	assert.Equal(t, creator.ID, crs.CreatedByID)
	require.Len(t, crs.Sections, 3)
	for i, sec := range crs.Sections {
		assert.NotZero(t, sec.ID)
		assert.Equal(t, crs.ID, sec.CourseID)
		assert.Equal(t, i+1, sec.OrderValue())
	}

	got, err := f.svc.GetByID(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, crs.Title, got.Title)
	assert.Len(t, got.Sections, 3)
}

func TestServiceAssign(t *testing.T) {
	f := newFixture()
	buddy := f.addUser(t, "Bea", "Buddy")
	stranger := f.addUser(t, "Saul", "Sinbuddy")
	emp := f.addUser(t, "Emma", "Empleada", buddy.ID)
	crs := f.addCourse(t, buddy.ID, "Onboarding", "1", "2")

	err := f.svc.Assign(ctx, crs.ID, buddy.ID, stranger.ID)
	assert.ErrorIs(t, err, course.ErrBuddyNotAssigned)

	err = f.svc.Assign(ctx, crs.ID, stranger.ID, emp.ID)
	assert.ErrorIs(t, err, course.ErrBuddyNotAssigned)

	err = f.svc.Assign(ctx, 404, buddy.ID, emp.ID)
	assert.ErrorIs(t, err, course.ErrNotFound)

	require.NoError(t, f.svc.Assign(ctx, crs.ID, buddy.ID, emp.ID))
	enr, err := f.svc.GetEnrollment(ctx, crs.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, course.StatusAssigned, enr.Status)
	assert.False(t, enr.IsFinished())
	assert.False(t, enr.SectionID.Valid)
	assert.False(t, enr.EnrolledAt.IsZero())

	notifs, err := f.notifSvc.QueryByUser(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TitleCourseAssigned, notifs[0].Title)
	assert.Contains(t, notifs[0].Message, crs.Title)

	// repeated assignment is a no-op and does not notify again
	require.NoError(t, f.svc.Assign(ctx, crs.ID, buddy.ID, emp.ID))
	notifs, err = f.notifSvc.QueryByUser(ctx, emp.ID)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}

func TestServiceUpdateProgress(t *testing.T) {
	f := newFixture()
	buddy := f.addUser(t, "Bea", "Buddy")
	emp := f.addUser(t, "Emma", "Empleada", buddy.ID)
	crs := f.addCourse(t, buddy.ID, "Onboarding", "1", "2", "3")
	other := f.addCourse(t, buddy.ID, "Otro", "1")
	s1, s2, s3 := crs.Sections[0], crs.Sections[1], crs.Sections[2]

	err := f.svc.UpdateProgress(ctx, crs.ID, emp.ID, s1.ID)
	assert.ErrorIs(t, err, course.ErrEnrollmentNotFound)

	require.NoError(t, f.svc.Assign(ctx, crs.ID, buddy.ID, emp.ID))

	err = f.svc.UpdateProgress(ctx, crs.ID, emp.ID, other.Sections[0].ID)
	assert.ErrorIs(t, err, course.ErrSectionMismatch)

	err = f.svc.UpdateProgress(ctx, crs.ID, emp.ID, 404)
	assert.ErrorIs(t, err, course.ErrSectionNotFound)

	require.NoError(t, f.svc.UpdateProgress(ctx, crs.ID, emp.ID, s2.ID))
	enr, err := f.svc.GetEnrollment(ctx, crs.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, s2.ID, enr.SectionID.Int)
	assert.Equal(t, course.StatusAssigned, enr.Status)
	assert.False(t, enr.IsFinished())

	// going backwards is a silent no-op
	require.NoError(t, f.svc.UpdateProgress(ctx, crs.ID, emp.ID, s1.ID))
	enr, err = f.svc.GetEnrollment(ctx, crs.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, s2.ID, enr.SectionID.Int)

	require.NoError(t, f.svc.UpdateProgress(ctx, crs.ID, emp.ID, s3.ID))
	enr, err = f.svc.GetEnrollment(ctx, crs.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, s3.ID, enr.SectionID.Int)
	assert.Equal(t, course.StatusFinished, enr.Status)
	assert.True(t, enr.IsFinished())
	finishedAt := enr.FinishedDate.Time

	notifs, err := f.notifSvc.QueryByUser(ctx, buddy.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TitleCourseFinished, notifs[0].Title)
	assert.Contains(t, notifs[0].Message, emp.FullName())

	// once finished, further updates never move the pointer or re-notify
	require.NoError(t, f.svc.UpdateProgress(ctx, crs.ID, emp.ID, s3.ID))
	enr, err = f.svc.GetEnrollment(ctx, crs.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, finishedAt, enr.FinishedDate.Time)
	notifs, err = f.notifSvc.QueryByUser(ctx, buddy.ID)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}

func TestServiceProgress(t *testing.T) {
	f := newFixture()
	buddy := f.addUser(t, "Bea", "Buddy")
	emp := f.addUser(t, "Emma", "Empleada", buddy.ID)
	crs := f.addCourse(t, buddy.ID, "Onboarding", "1", "2", "3")
	empty := f.addCourse(t, buddy.ID, "Vacío")

	_, err := f.svc.Progress(ctx, crs.ID, emp.ID)
	assert.ErrorIs(t, err, course.ErrEnrollmentNotFound)

	require.NoError(t, f.svc.Assign(ctx, crs.ID, buddy.ID, emp.ID))
	pct, err := f.svc.Progress(ctx, crs.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)

	require.NoError(t, f.svc.UpdateProgress(ctx, crs.ID, emp.ID, crs.Sections[1].ID))
	pct, err = f.svc.Progress(ctx, crs.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 66.7, pct) // 2 of 3, rounded up to one decimal

	require.NoError(t, f.svc.UpdateProgress(ctx, crs.ID, emp.ID, crs.Sections[2].ID))
	pct, err = f.svc.Progress(ctx, crs.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pct)

	require.NoError(t, f.svc.Assign(ctx, empty.ID, buddy.ID, emp.ID))
	pct, err = f.svc.Progress(ctx, empty.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestServiceFavorites(t *testing.T) {
	f := newFixture()
	buddy := f.addUser(t, "Bea", "Buddy")
	emp := f.addUser(t, "Emma", "Empleada", buddy.ID)
	crs := f.addCourse(t, buddy.ID, "Onboarding", "1")

	// toggling without an enrollment does nothing
	require.NoError(t, f.svc.ToggleFavorite(ctx, crs.ID, emp.ID))
	favs, err := f.svc.QueryFavorites(ctx, emp.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	require.NoError(t, f.svc.Assign(ctx, crs.ID, buddy.ID, emp.ID))
	require.NoError(t, f.svc.ToggleFavorite(ctx, crs.ID, emp.ID))
	favs, err = f.svc.QueryFavorites(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, crs.ID, favs[0].ID)

	require.NoError(t, f.svc.ToggleFavorite(ctx, crs.ID, emp.ID))
	favs, err = f.svc.QueryFavorites(ctx, emp.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestServiceQueryByUser(t *testing.T) {
	f := newFixture()
	buddy := f.addUser(t, "Bea", "Buddy")
	emp := f.addUser(t, "Emma", "Empleada", buddy.ID)
	crs1 := f.addCourse(t, buddy.ID, "Onboarding", "1")
	crs2 := f.addCourse(t, buddy.ID, "Seguridad", "1")

	_, err := f.svc.QueryByUser(ctx, 404)
	assert.ErrorIs(t, err, user.ErrNotFound)

	courses, err := f.svc.QueryByUser(ctx, emp.ID)
	require.NoError(t, err)
	assert.Empty(t, courses)

	require.NoError(t, f.svc.Assign(ctx, crs1.ID, buddy.ID, emp.ID))
	require.NoError(t, f.svc.Assign(ctx, crs2.ID, buddy.ID, emp.ID))
	courses, err = f.svc.QueryByUser(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, crs1.ID, courses[0].ID)
	assert.Equal(t, crs2.ID, courses[1].ID)
}
