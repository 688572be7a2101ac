package course

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core/notification"
	"github.com/onboardme/backend/core/user"
)

var (
	ErrNotFound           = errors.New("course not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrSectionMismatch    = errors.New("section does not belong to course")
	ErrBuddyNotAssigned   = errors.New("buddy not assigned to this user")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		// GetCourseByID returns the course with its sections loaded.
		GetCourseByID(ctx context.Context, id int) (Course, error)
		GetSectionByID(ctx context.Context, id int) (Section, error)
		QuerySectionsByCourseID(ctx context.Context, courseID int) ([]Section, error)
	}

	EnrollmentRepository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID int) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		QueryEnrollmentsByUserID(ctx context.Context, userID int) ([]Enrollment, error)
		QueryEnrollmentsByCourseID(ctx context.Context, courseID int) ([]Enrollment, error)
		QueryFavoriteEnrollments(ctx context.Context, userID int) ([]Enrollment, error)
		QueryAllEnrollments(ctx context.Context) ([]Enrollment, error)
	}

	Service struct {
		repo     Repository
		enrRepo  EnrollmentRepository
		usrRepo  user.Repository
		notifSvc *notification.Service
	}
)

func NewService(repo Repository, enrRepo EnrollmentRepository, usrRepo user.Repository, notifSvc *notification.Service) *Service {
	return &Service{repo: repo, enrRepo: enrRepo, usrRepo: usrRepo, notifSvc: notifSvc}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	creator, err := svc.usrRepo.GetUserByID(ctx, nc.CreatedByID)
	if err != nil {
		return Course{}, err
	}

	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		Area:        nc.Area,
		CreatedDate: time.Now().UTC(),
		ExpiryDate:  nc.ExpiryDate,
		CreatedByID: creator.ID,
	}
	for _, ns := range nc.Sections {
		crs.Sections = append(crs.Sections, Section{Title: ns.Title, Order: ns.Order})
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

// QueryByUser returns the distinct courses the user is enrolled in.
func (svc *Service) QueryByUser(ctx context.Context, userID int) ([]Course, error) {
	if _, err := svc.usrRepo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	enrollments, err := svc.enrRepo.QueryEnrollmentsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return svc.coursesOf(ctx, enrollments)
}

func (svc *Service) QueryFavorites(ctx context.Context, userID int) ([]Course, error) {
	enrollments, err := svc.enrRepo.QueryFavoriteEnrollments(ctx, userID)
	if err != nil {
		return nil, err
	}
	return svc.coursesOf(ctx, enrollments)
}

func (svc *Service) coursesOf(ctx context.Context, enrollments []Enrollment) ([]Course, error) {
	courses := make([]Course, 0, len(enrollments))
	seen := make(map[int]bool, len(enrollments))
	for _, enr := range enrollments {
		if seen[enr.CourseID] {
			continue
		}
		seen[enr.CourseID] = true
		crs, err := svc.repo.GetCourseByID(ctx, enr.CourseID)
		if err != nil {
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, nil
}

// ToggleFavorite flips the favorite flag; no-op if the enrollment is missing.
func (svc *Service) ToggleFavorite(ctx context.Context, courseID, userID int) error {
	enr, err := svc.enrRepo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		if errors.Cause(err) == ErrEnrollmentNotFound {
			return nil
		}
		return err
	}
	enr.Favorite = !enr.Favorite
	_, err = svc.enrRepo.UpdateEnrollment(ctx, enr)
	return err
}

// Assign enrolls userID in courseID on behalf of buddyID. The given buddy
// must be the user's assigned buddy. No-op if the enrollment already exists.
func (svc *Service) Assign(ctx context.Context, courseID, buddyID, userID int) error {
	buddy, err := svc.usrRepo.GetUserByID(ctx, buddyID)
	if err != nil {
		return err
	}
	usr, err := svc.usrRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !usr.HasBuddy() || usr.BuddyID.Int != buddy.ID {
		return ErrBuddyNotAssigned
	}

	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}

	if _, err := svc.enrRepo.GetEnrollment(ctx, userID, courseID); err == nil {
		return nil
	} else if errors.Cause(err) != ErrEnrollmentNotFound {
		return err
	}

	enr := Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
		Status:     StatusAssigned,
	}
	if _, err := svc.enrRepo.CreateEnrollment(ctx, enr); err != nil {
		return err
	}

	msg := fmt.Sprintf("Hola, %s se te ha asignado un nuevo curso: %s", usr.FullName(), crs.Title)
	if _, err := svc.notifSvc.Notify(ctx, usr.ID, notification.TitleCourseAssigned, msg); err != nil {
		return errors.Wrap(err, "notifying assignment")
	}
	return nil
}

// UpdateProgress advances the enrollment's farthest-reached section pointer.
// Progress never regresses: a target at or behind the current section is a
// no-op. Reaching the course's highest section finishes the enrollment
// (finishedDate set once) and notifies the learner's buddy, if any.
//
// The monotonicity and completion checks compare section ids while the
// percent computation in Progress uses parsed order values, exactly as the
// system always has; the two can disagree when ids and orders are created
// out of alignment.
func (svc *Service) UpdateProgress(ctx context.Context, courseID, userID, sectionID int) error {
	enr, err := svc.enrRepo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return err
	}

	target, err := svc.repo.GetSectionByID(ctx, sectionID)
	if err != nil {
		return err
	}
	if target.CourseID != courseID {
		return ErrSectionMismatch
	}

	if enr.SectionID.Valid && target.ID <= enr.SectionID.Int {
		return nil
	}
	enr.SectionID = null.IntFrom(target.ID)

	sections, err := svc.repo.QuerySectionsByCourseID(ctx, courseID)
	if err != nil {
		return err
	}
	var maxID int
	for _, s := range sections {
		if s.ID > maxID {
			maxID = s.ID
		}
	}

	if target.ID == maxID && !enr.FinishedDate.Valid {
		enr.FinishedDate = null.TimeFrom(time.Now().UTC())
		enr.Status = StatusFinished

		if err := svc.notifyCompletion(ctx, courseID, userID); err != nil {
			return err
		}
	}

	_, err = svc.enrRepo.UpdateEnrollment(ctx, enr)
	return err
}

func (svc *Service) notifyCompletion(ctx context.Context, courseID, userID int) error {
	usr, err := svc.usrRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !usr.HasBuddy() {
		return nil
	}
	buddy, err := svc.usrRepo.GetUserByID(ctx, usr.BuddyID.Int)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil
		}
		return err
	}
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf(
		"Hola, %s te informamos que el usuario %s ha finalizado el curso: %s",
		buddy.FullName(), usr.FullName(), crs.Title,
	)
	_, err = svc.notifSvc.Notify(ctx, buddy.ID, notification.TitleCourseFinished, msg)
	return errors.Wrap(err, "notifying completion")
}

// Progress returns the percent complete for the enrollment, one decimal,
// rounded up. 0 when no section has been reached or the course is empty.
func (svc *Service) Progress(ctx context.Context, courseID, userID int) (float64, error) {
	enr, err := svc.enrRepo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}

	sections, err := svc.repo.QuerySectionsByCourseID(ctx, courseID)
	if err != nil {
		return 0, err
	}
	total := len(sections)
	if total == 0 {
		return 0, nil
	}

	var lastOrder int
	if enr.SectionID.Valid {
		sec, err := svc.repo.GetSectionByID(ctx, enr.SectionID.Int)
		if err != nil {
			return 0, err
		}
		lastOrder = sec.OrderValue()
	}

	return math.Ceil(float64(lastOrder)*1000/float64(total)) / 10, nil
}

func (svc *Service) GetEnrollment(ctx context.Context, courseID, userID int) (Enrollment, error) {
	return svc.enrRepo.GetEnrollment(ctx, userID, courseID)
}
