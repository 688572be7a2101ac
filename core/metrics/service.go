package metrics

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/onboardme/backend/core/course"
	"github.com/onboardme/backend/core/user"
)

var (
	ErrUnsupported    = errors.New("métrica no soportada")
	ErrCourseRequired = errors.New("el filtro de curso es obligatorio")
)

// Service computes read-side aggregations over enrollments, users and
// courses. Every metric is an independent query; nothing is cached between
// calls.
type Service struct {
	enrRepo course.EnrollmentRepository
	crsRepo course.Repository
	usrRepo user.Repository
	crsSvc  *course.Service
}

func NewService(enrRepo course.EnrollmentRepository, crsRepo course.Repository, usrRepo user.Repository, crsSvc *course.Service) *Service {
	return &Service{enrRepo: enrRepo, crsRepo: crsRepo, usrRepo: usrRepo, crsSvc: crsSvc}
}

// Query dispatches on the metric type and returns its data points.
func (svc *Service) Query(ctx context.Context, typ Type, f Filter) (Metric, error) {
	var (
		points []DataPoint
		err    error
	)
	switch typ {
	case TypeCourseCompletion:
		points, err = svc.courseCompletion(ctx, f)
	case TypeAvgCompletionTime:
		points, err = svc.avgCompletionTime(ctx, f)
	case TypeSectionDropoff:
		points, err = svc.sectionDropoff(ctx, f)
	case TypeBuddyCoverage:
		points, err = svc.buddyCoverage(ctx, f)
	case TypeCourseUserProgress:
		points, err = svc.courseUserProgress(ctx, typ, f)
	case TypeCourseUserElapsed:
		points, err = svc.courseUserElapsedDays(ctx, typ, f)
	case TypeUserCourseCompletion:
		points, err = svc.userCourseCompletion(ctx, f)
	default:
		return Metric{}, errors.Wrapf(ErrUnsupported, "%s", typ)
	}
	if err != nil {
		return Metric{}, err
	}
	return Metric{MetricType: string(typ), Data: points}, nil
}

// courseCompletion yields one point per course: 100 × finished / total
// enrollments, 0 when the course has none.
func (svc *Service) courseCompletion(ctx context.Context, f Filter) ([]DataPoint, error) {
	courses, err := svc.courses(ctx, f)
	if err != nil {
		return nil, err
	}
	mentees, err := svc.mentees(ctx, f)
	if err != nil {
		return nil, err
	}
	points := make([]DataPoint, 0, len(courses))
	for _, crs := range courses {
		enrs, err := svc.courseEnrollments(ctx, crs.ID, mentees)
		if err != nil {
			return nil, err
		}
		var finished int
		for _, e := range enrs {
			if e.IsFinished() {
				finished++
			}
		}
		var rate float64
		if len(enrs) > 0 {
			rate = 100 * float64(finished) / float64(len(enrs))
		}
		points = append(points, DataPoint{Label: esc(crs.Title), Value: rate})
	}
	return points, nil
}

// avgCompletionTime yields one point per course: mean days between
// enrollment and completion, over finished enrollments only.
func (svc *Service) avgCompletionTime(ctx context.Context, f Filter) ([]DataPoint, error) {
	courses, err := svc.courses(ctx, f)
	if err != nil {
		return nil, err
	}
	mentees, err := svc.mentees(ctx, f)
	if err != nil {
		return nil, err
	}
	points := make([]DataPoint, 0, len(courses))
	for _, crs := range courses {
		enrs, err := svc.courseEnrollments(ctx, crs.ID, mentees)
		if err != nil {
			return nil, err
		}
		var sum float64
		var finished int
		for _, e := range enrs {
			if !e.FinishedDate.Valid {
				continue
			}
			finished++
			sum += daysBetween(e.EnrolledAt, e.FinishedDate.Time)
		}
		var avg float64
		if finished > 0 {
			avg = sum / float64(finished)
		}
		points = append(points, DataPoint{Label: esc(crs.Title), Value: avg})
	}
	return points, nil
}

// sectionDropoff yields one point per section: among enrollments that
// reached the section, the share still unfinished and parked at it.
func (svc *Service) sectionDropoff(ctx context.Context, f Filter) ([]DataPoint, error) {
	courses, err := svc.courses(ctx, f)
	if err != nil {
		return nil, err
	}
	mentees, err := svc.mentees(ctx, f)
	if err != nil {
		return nil, err
	}
	var points []DataPoint
	for _, crs := range courses {
		enrs, err := svc.courseEnrollments(ctx, crs.ID, mentees)
		if err != nil {
			return nil, err
		}
		for _, sec := range crs.Sections {
			var reached, parked int
			for _, e := range enrs {
				if e.IsFinished() {
					reached++
					continue
				}
				if !e.SectionID.Valid {
					continue
				}
				cur := svc.sectionOf(crs, e.SectionID.Int)
				if cur == nil {
					continue
				}
				if cur.OrderValue() >= sec.OrderValue() {
					reached++
				}
				if cur.ID == sec.ID {
					parked++
				}
			}
			var rate float64
			if reached > 0 {
				rate = 100 * float64(parked) / float64(reached)
			}
			points = append(points, DataPoint{
				Label: esc(crs.Title) + "|" + esc(sec.Title),
				Value: rate,
			})
		}
	}
	return points, nil
}

// buddyCoverage yields two points: the percentage of users with a buddy
// assigned, and the mean number of mentees per distinct buddy.
func (svc *Service) buddyCoverage(ctx context.Context, f Filter) ([]DataPoint, error) {
	users, err := svc.users(ctx, f)
	if err != nil {
		return nil, err
	}
	var withBuddy int
	buddies := make(map[int]struct{})
	for _, u := range users {
		if u.HasBuddy() {
			withBuddy++
			buddies[u.BuddyID.Int] = struct{}{}
		}
	}
	var coverage, avgMentees float64
	if len(users) > 0 {
		coverage = 100 * float64(withBuddy) / float64(len(users))
	}
	if len(buddies) > 0 {
		avgMentees = float64(withBuddy) / float64(len(buddies))
	}
	return []DataPoint{
		{Label: "BUDDY_COVERAGE", Value: coverage},
		{Label: "AVG_MENTEES", Value: avgMentees},
	}, nil
}

// courseUserProgress yields one point per enrollment of the course: the
// user's full name and their percent of sections reached, 100 when finished.
func (svc *Service) courseUserProgress(ctx context.Context, typ Type, f Filter) ([]DataPoint, error) {
	if !f.CourseID.Valid {
		return nil, errors.Wrapf(ErrCourseRequired, "idCourse es obligatorio para %s", typ)
	}
	crs, err := svc.crsRepo.GetCourseByID(ctx, f.CourseID.Int)
	if err != nil {
		return nil, err
	}
	mentees, err := svc.mentees(ctx, f)
	if err != nil {
		return nil, err
	}
	enrs, err := svc.courseEnrollments(ctx, crs.ID, mentees)
	if err != nil {
		return nil, err
	}
	total := len(crs.Sections)
	if total < 1 {
		total = 1
	}
	points := make([]DataPoint, 0, len(enrs))
	for _, e := range enrs {
		var pct float64
		switch {
		case e.FinishedDate.Valid:
			pct = 100
		case !e.SectionID.Valid:
			pct = 0
		default:
			sec := svc.sectionOf(crs, e.SectionID.Int)
			if sec != nil {
				pct = clamp(float64(sec.OrderValue()) * 100 / float64(total))
			}
		}
		usr, err := svc.usrRepo.GetUserByID(ctx, e.UserID)
		if err != nil {
			return nil, err
		}
		points = append(points, DataPoint{Label: usr.FullName(), Value: pct})
	}
	return points, nil
}

// courseUserElapsedDays yields one point per enrollment of the course: days
// between enrollment and completion, or until now while still in progress.
func (svc *Service) courseUserElapsedDays(ctx context.Context, typ Type, f Filter) ([]DataPoint, error) {
	if !f.CourseID.Valid {
		return nil, errors.Wrapf(ErrCourseRequired, "idCourse es obligatorio para %s", typ)
	}
	mentees, err := svc.mentees(ctx, f)
	if err != nil {
		return nil, err
	}
	enrs, err := svc.courseEnrollments(ctx, f.CourseID.Int, mentees)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	points := make([]DataPoint, 0, len(enrs))
	for _, e := range enrs {
		end := now
		if e.FinishedDate.Valid {
			end = e.FinishedDate.Time
		}
		usr, err := svc.usrRepo.GetUserByID(ctx, e.UserID)
		if err != nil {
			return nil, err
		}
		points = append(points, DataPoint{Label: usr.FullName(), Value: daysBetween(e.EnrolledAt, end)})
	}
	return points, nil
}

type userCompletion struct {
	userID      int
	fullName    string
	completed   int
	total       int
	pct         float64
	enrollments []course.Enrollment
}

// userCourseCompletion ranks users by how much of their assigned catalogue
// they have completed. The first two points are SUMMARY counts; each user
// then gets a USER point, and users with pending courses additionally get
// one MISSING point per unfinished enrollment. Users who completed
// everything sort last.
func (svc *Service) userCourseCompletion(ctx context.Context, f Filter) ([]DataPoint, error) {
	users, err := svc.users(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]userCompletion, 0, len(users))
	for _, u := range users {
		enrs, err := svc.enrRepo.QueryEnrollmentsByUserID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		it := userCompletion{
			userID:      u.ID,
			fullName:    strings.TrimSpace(u.FullName()),
			total:       len(enrs),
			enrollments: enrs,
		}
		for _, e := range enrs {
			if svc.isCompleted(ctx, e) {
				it.completed++
			}
		}
		if it.total > 0 {
			it.pct = 100 * float64(it.completed) / float64(it.total)
		}
		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if da, db := doneRank(a), doneRank(b); da != db {
			return da < db
		}
		if a.pct != b.pct {
			return a.pct < b.pct
		}
		return strings.ToLower(a.fullName) < strings.ToLower(b.fullName)
	})

	var completedAll, notCompletedAll int
	for _, it := range items {
		if it.total > 0 && it.completed == it.total {
			completedAll++
		} else {
			notCompletedAll++
		}
	}

	points := []DataPoint{
		{Label: "SUMMARY_COMPLETED_ALL", Value: float64(completedAll)},
		{Label: "SUMMARY_NOT_COMPLETED_ALL", Value: float64(notCompletedAll)},
	}
	for _, it := range items {
		points = append(points, DataPoint{
			Label: "USER|" + itoa(it.userID) + "|" + esc(it.fullName) + "|" + itoa(it.completed) + "|" + itoa(it.total),
			Value: math.Round(clamp(it.pct)),
		})
		if it.total > 0 && it.completed == it.total {
			continue
		}
		for _, e := range it.enrollments {
			if svc.isCompleted(ctx, e) {
				continue
			}
			crs, err := svc.crsRepo.GetCourseByID(ctx, e.CourseID)
			if err != nil {
				continue
			}
			points = append(points, DataPoint{
				Label: "MISSING|" + itoa(it.userID) + "|" + itoa(crs.ID) + "|" + esc(crs.Title),
				Value: math.Round(clamp(svc.safeProgress(ctx, e.CourseID, it.userID))),
			})
		}
	}
	return points, nil
}

// An enrollment counts as completed when any of the three signals says so:
// the finished date is set, the status reads COMPLETADO, or computed
// progress reached 100%.
func (svc *Service) isCompleted(ctx context.Context, e course.Enrollment) bool {
	if e.FinishedDate.Valid {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(e.Status), "COMPLETADO") {
		return true
	}
	return svc.safeProgress(ctx, e.CourseID, e.UserID) >= 100
}

func (svc *Service) safeProgress(ctx context.Context, courseID, userID int) float64 {
	pct, err := svc.crsSvc.Progress(ctx, courseID, userID)
	if err != nil {
		return 0
	}
	return pct
}

func (svc *Service) courses(ctx context.Context, f Filter) ([]course.Course, error) {
	if f.CourseID.Valid {
		crs, err := svc.crsRepo.GetCourseByID(ctx, f.CourseID.Int)
		if err != nil {
			return nil, err
		}
		return []course.Course{crs}, nil
	}
	return svc.crsRepo.QueryAllCourses(ctx)
}

func (svc *Service) users(ctx context.Context, f Filter) ([]user.User, error) {
	if f.BuddyID.Valid {
		return svc.usrRepo.QueryUsersByBuddyID(ctx, f.BuddyID.Int)
	}
	return svc.usrRepo.QueryAllUsers(ctx)
}

// mentees resolves the buddy filter to a set of user IDs, or nil when the
// filter is absent.
func (svc *Service) mentees(ctx context.Context, f Filter) (map[int]struct{}, error) {
	if !f.BuddyID.Valid {
		return nil, nil
	}
	users, err := svc.usrRepo.QueryUsersByBuddyID(ctx, f.BuddyID.Int)
	if err != nil {
		return nil, err
	}
	set := make(map[int]struct{}, len(users))
	for _, u := range users {
		set[u.ID] = struct{}{}
	}
	return set, nil
}

func (svc *Service) courseEnrollments(ctx context.Context, courseID int, mentees map[int]struct{}) ([]course.Enrollment, error) {
	enrs, err := svc.enrRepo.QueryEnrollmentsByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if mentees == nil {
		return enrs, nil
	}
	kept := enrs[:0]
	for _, e := range enrs {
		if _, ok := mentees[e.UserID]; ok {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// sectionOf resolves a section from the already-loaded course; a pointer
// into another course's sequence yields nil.
func (svc *Service) sectionOf(crs course.Course, sectionID int) *course.Section {
	for i := range crs.Sections {
		if crs.Sections[i].ID == sectionID {
			return &crs.Sections[i]
		}
	}
	return nil
}

func doneRank(it userCompletion) int {
	if it.completed == it.total {
		return 1
	}
	return 0
}

func daysBetween(from, to time.Time) float64 {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d.Hours() / 24
}

func clamp(pct float64) float64 {
	return math.Max(0, math.Min(100, pct))
}

func esc(s string) string {
	return strings.ReplaceAll(s, "|", "¦")
}

func itoa(n int) string { return strconv.Itoa(n) }
