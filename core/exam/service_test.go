package exam_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core/content"
	"github.com/onboardme/backend/core/course"
	"github.com/onboardme/backend/core/exam"
	"github.com/onboardme/backend/core/notification"
	"github.com/onboardme/backend/core/user"
	inmemdb "github.com/onboardme/backend/storage/database/inmem"
)

var ctx = context.Background()

type fixture struct {
	svc    *exam.Service
	crsSvc *course.Service

	buddy user.User
	emp   user.User
	crs   course.Course
	exm   *content.Exam
}

// newFixture seeds a two-section course with an exam on the last section and
// an enrolled employee. The exam has one single-choice and one
// multiple-choice question.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	contentRepo := inmemdb.NewContentRepository(db)
	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(db))
	crsSvc := course.NewService(crsRepo, enrRepo, usrRepo, notifSvc)
	contentSvc := content.NewService(contentRepo, crsRepo)
	svc := exam.NewService(inmemdb.NewExamRepository(db), contentRepo, crsRepo, crsSvc, usrRepo)

	buddy, err := usrRepo.CreateUser(ctx, user.User{FirstName: "Bea", LastName: "Buddy", Email: "bea@test.test"})
	require.NoError(t, err)
	emp, err := usrRepo.CreateUser(ctx, user.User{FirstName: "Emma", LastName: "Empleada", Email: "emma@test.test", BuddyID: null.IntFrom(buddy.ID)})
	require.NoError(t, err)

	crs, err := crsRepo.CreateCourse(ctx, course.Course{
		Title:       "Onboarding",
		CreatedByID: buddy.ID,
		Sections: []course.Section{
			{Title: "Intro", Order: "1"},
			{Title: "Examen final", Order: "2"},
		},
	})
	require.NoError(t, err)

	c, err := contentSvc.AddExam(ctx, crs.Sections[1].ID, content.NewExam{
		Questions: []content.NewQuestion{
			{
				Text: "¿Capital de Argentina?",
				Options: []content.NewOption{
					{Text: "Buenos Aires", Correct: true},
					{Text: "Montevideo"},
				},
			},
			{
				Text: "Valores de la empresa",
				Type: content.MultipleChoice,
				Options: []content.NewOption{
					{Text: "Respeto", Correct: true},
					{Text: "Colaboración", Correct: true},
					{Text: "Caos"},
				},
			},
		},
	})
	require.NoError(t, err)
	exm := c.(*content.Exam)

	require.NoError(t, crsSvc.Assign(ctx, crs.ID, buddy.ID, emp.ID))

	return &fixture{svc: svc, crsSvc: crsSvc, buddy: buddy, emp: emp, crs: crs, exm: exm}
}

// answers builds a full submission, overriding the selected options for the
// second question.
func (f *fixture) answers(secondChoice []int) exam.Submission {
	q1, q2 := f.exm.Questions[0], f.exm.Questions[1]
	return exam.Submission{Answers: []exam.Answer{
		{QuestionID: q1.ID, SelectedOptionIDs: q1.CorrectOptionIDs()},
		{QuestionID: q2.ID, SelectedOptionIDs: secondChoice},
	}}
}

func TestServiceSubmit(t *testing.T) {
	f := newFixture(t)
	examSec := f.crs.Sections[1]

	res, err := f.svc.Submit(ctx, examSec.ID, f.emp.ID, f.answers(f.exm.Questions[1].CorrectOptionIDs()))
	require.NoError(t, err)
	assert.Equal(t, f.emp.ID, res.UserID)
	assert.Equal(t, f.exm.ID, res.ExamID)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Detail, 2)
	assert.True(t, res.Detail[0].Correct)
	assert.True(t, res.Detail[1].Correct)
	assert.False(t, res.CompletedAt.IsZero())

	// passing the last section's exam finishes the course
	enr, err := f.crsSvc.GetEnrollment(ctx, f.crs.ID, f.emp.ID)
	require.NoError(t, err)
	assert.True(t, enr.IsFinished())
	pct, err := f.crsSvc.Progress(ctx, f.crs.ID, f.emp.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pct)

	// one attempt per user per exam
	_, err = f.svc.Submit(ctx, examSec.ID, f.emp.ID, f.answers(nil))
	assert.ErrorIs(t, err, exam.ErrAlreadyCompleted)
}

func TestServiceSubmitPartialSelection(t *testing.T) {
	tests := []struct {
		name      string
		selection func(q content.ExamQuestion) []int
	}{
		{
			name:      "missing one correct",
			selection: func(q content.ExamQuestion) []int { return q.CorrectOptionIDs()[:1] },
		},
		{
			name: "extra option selected",
			selection: func(q content.ExamQuestion) []int {
				return append(q.CorrectOptionIDs(), q.Options[2].ID)
			},
		},
		{
			name:      "nothing selected",
			selection: func(content.ExamQuestion) []int { return nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sub := f.answers(tt.selection(f.exm.Questions[1]))
			res, err := f.svc.Submit(ctx, f.crs.Sections[1].ID, f.emp.ID, sub)
			require.NoError(t, err)
			// a partial or over-selected answer scores zero for that question
			assert.Equal(t, 1, res.Score)
			assert.True(t, res.Detail[0].Correct)
			assert.False(t, res.Detail[1].Correct)
		})
	}
}

func TestServiceSubmitSingleChoiceOverSelection(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.exm.Questions[0], f.exm.Questions[1]

	// selecting the correct option plus another one fails the question
	sub := exam.Submission{Answers: []exam.Answer{
		{QuestionID: q1.ID, SelectedOptionIDs: []int{q1.Options[0].ID, q1.Options[1].ID}},
		{QuestionID: q2.ID, SelectedOptionIDs: q2.CorrectOptionIDs()},
	}}
	res, err := f.svc.Submit(ctx, f.crs.Sections[1].ID, f.emp.ID, sub)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.False(t, res.Detail[0].Correct)
	assert.True(t, res.Detail[1].Correct)
}

func TestServiceSubmitErrors(t *testing.T) {
	f := newFixture(t)
	plainSec := f.crs.Sections[0]

	_, err := f.svc.Submit(ctx, 404, f.emp.ID, exam.Submission{})
	assert.ErrorIs(t, err, course.ErrSectionNotFound)

	_, err = f.svc.Submit(ctx, plainSec.ID, 404, exam.Submission{})
	assert.ErrorIs(t, err, user.ErrNotFound)

	// a section without exam content cannot be submitted to
	_, err = f.svc.Submit(ctx, plainSec.ID, f.emp.ID, exam.Submission{})
	assert.ErrorIs(t, err, exam.ErrNoExam)
}

func TestServiceGetResult(t *testing.T) {
	f := newFixture(t)
	examSec := f.crs.Sections[1]

	_, err := f.svc.GetResult(ctx, examSec.ID, f.emp.ID)
	assert.ErrorIs(t, err, exam.ErrResultNotFound)

	_, err = f.svc.GetResult(ctx, f.crs.Sections[0].ID, f.emp.ID)
	assert.ErrorIs(t, err, exam.ErrNoExam)

	submitted, err := f.svc.Submit(ctx, examSec.ID, f.emp.ID, f.answers(nil))
	require.NoError(t, err)

	got, err := f.svc.GetResult(ctx, examSec.ID, f.emp.ID)
	require.NoError(t, err)
	assert.Equal(t, submitted.Score, got.Score)
	assert.Equal(t, submitted.ExamID, got.ExamID)
	assert.Len(t, got.Detail, 2)
}
