package inmemdb

import (
	"context"
	"sort"

	"github.com/onboardme/backend/core/course"
)

type courseRepository struct {
	db *DB
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) sectionsOf(courseID int) []course.Section {
	var secs []course.Section
	for _, sec := range repo.db.sections {
		if sec.CourseID == courseID {
			secs = append(secs, *sec)
		}
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i].OrderValue() < secs[j].OrderValue() })
	return secs
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = repo.db.nextID()
	for i := range crs.Sections {
		crs.Sections[i].ID = repo.db.nextID()
		crs.Sections[i].CourseID = crs.ID
		sec := crs.Sections[i]
		repo.db.sections[sec.ID] = &sec
	}
	stored := crs
	stored.Sections = nil
	repo.db.courses[crs.ID] = &stored
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(_ context.Context) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		c := *crs
		c.Sections = repo.sectionsOf(c.ID)
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id int) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	crs, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c := *crs
	c.Sections = repo.sectionsOf(id)
	return c, nil
}

func (repo *courseRepository) GetSectionByID(_ context.Context, id int) (course.Section, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sec, ok := repo.db.sections[id]; ok {
		return *sec, nil
	}
	return course.Section{}, course.ErrSectionNotFound
}

func (repo *courseRepository) QuerySectionsByCourseID(_ context.Context, courseID int) ([]course.Section, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.sectionsOf(courseID), nil
}

type enrollmentRepository struct {
	db *DB
}

func NewEnrollmentRepository(db *DB) course.EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) query(keep func(course.Enrollment) bool) []course.Enrollment {
	var enrs []course.Enrollment
	for _, enr := range repo.db.enrollments {
		if keep(*enr) {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool {
		if enrs[i].UserID != enrs[j].UserID {
			return enrs[i].UserID < enrs[j].UserID
		}
		return enrs[i].CourseID < enrs[j].CourseID
	})
	return enrs
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.enrollments[enrollmentKey{enr.UserID, enr.CourseID}] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, userID, courseID int) (course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if enr, ok := repo.db.enrollments[enrollmentKey{userID, courseID}]; ok {
		return *enr, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *enrollmentRepository) UpdateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := enrollmentKey{enr.UserID, enr.CourseID}
	if _, ok := repo.db.enrollments[key]; !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	repo.db.enrollments[key] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) QueryEnrollmentsByUserID(_ context.Context, userID int) ([]course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(e course.Enrollment) bool { return e.UserID == userID }), nil
}

func (repo *enrollmentRepository) QueryEnrollmentsByCourseID(_ context.Context, courseID int) ([]course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(e course.Enrollment) bool { return e.CourseID == courseID }), nil
}

func (repo *enrollmentRepository) QueryFavoriteEnrollments(_ context.Context, userID int) ([]course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(e course.Enrollment) bool { return e.UserID == userID && e.Favorite }), nil
}

func (repo *enrollmentRepository) QueryAllEnrollments(_ context.Context) ([]course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(func(course.Enrollment) bool { return true }), nil
}
