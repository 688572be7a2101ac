package content_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardme/backend/core/content"
	"github.com/onboardme/backend/core/course"
	inmemdb "github.com/onboardme/backend/storage/database/inmem"
)

var ctx = context.Background()

func newTestService(t *testing.T) (*content.Service, course.Course) {
	t.Helper()
	db := inmemdb.Open()
	crsRepo := inmemdb.NewCourseRepository(db)
	svc := content.NewService(inmemdb.NewContentRepository(db), crsRepo)

	crs, err := crsRepo.CreateCourse(ctx, course.Course{
		Title: "Onboarding",
		Sections: []course.Section{
			{Title: "Intro", Order: "1"},
			{Title: "Cierre", Order: "2"},
		},
	})
	require.NoError(t, err)
	return svc, crs
}

func TestServiceAddURLContent(t *testing.T) {
	svc, crs := newTestService(t)
	sec := crs.Sections[0]

	_, err := svc.AddVideo(ctx, 404, "https://v.test/intro.mp4")
	assert.ErrorIs(t, err, course.ErrSectionNotFound)

	c, err := svc.AddVideo(ctx, sec.ID, "https://v.test/intro.mp4")
	require.NoError(t, err)
	assert.Equal(t, content.TypeVideo, c.Kind())
	assert.NotZero(t, c.ContentID())
	assert.Equal(t, sec.ID, c.ContentSectionID())
	assert.Equal(t, "https://v.test/intro.mp4", c.URL())

	// a section holds at most one content
	_, err = svc.AddDocument(ctx, sec.ID, "https://d.test/guide.pdf")
	assert.ErrorIs(t, err, content.ErrAlreadyExists)

	got, err := svc.GetBySection(ctx, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestServiceAddExam(t *testing.T) {
	svc, crs := newTestService(t)
	sec := crs.Sections[1]

	_, err := svc.GetBySection(ctx, sec.ID)
	assert.ErrorIs(t, err, content.ErrNotFound)

	ne := content.NewExam{
		Questions: []content.NewQuestion{
			{
				Text: "¿Dónde queda la oficina?",
				Options: []content.NewOption{
					{Text: "CABA", Correct: true},
					{Text: "Córdoba", Correct: true}, // demoted: blank type means single choice
					{Text: "Rosario"},
				},
			},
			{
				Text: "Beneficios incluidos",
				Type: content.MultipleChoice,
				Options: []content.NewOption{
					{Text: "OSDE", Correct: true},
					{Text: "Gimnasio", Correct: true},
					{Text: "Jet privado"},
				},
			},
		},
	}
	c, err := svc.AddExam(ctx, sec.ID, ne)
	require.NoError(t, err)

	exm, ok := c.(*content.Exam)
	require.True(t, ok)
	assert.NotZero(t, exm.ID)
	require.Len(t, exm.Questions, 2)

	q1, q2 := exm.Questions[0], exm.Questions[1]
	assert.Equal(t, content.SingleChoice, q1.Type)
	assert.NotZero(t, q1.ID)
	require.Len(t, q1.Options, 3)
	assert.NotZero(t, q1.Options[0].ID)
	assert.Len(t, q1.CorrectOptionIDs(), 1)
	assert.Len(t, q2.CorrectOptionIDs(), 2)
}
