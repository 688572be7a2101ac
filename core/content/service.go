package content

import (
	"context"

	"github.com/pkg/errors"

	"github.com/onboardme/backend/core/course"
)

var (
	ErrNotFound = errors.New("section content not found")
	// ErrAlreadyExists: at most one content per section; replacing is not supported.
	ErrAlreadyExists = errors.New("section already has content")
)

type (
	Repository interface {
		// CreateContent persists the content and assigns its id (and, for
		// exams, question/option ids).
		CreateContent(ctx context.Context, c SectionContent) (SectionContent, error)
		GetContentBySectionID(ctx context.Context, sectionID int) (SectionContent, error)
	}

	Service struct {
		repo    Repository
		crsRepo course.Repository
	}
)

func NewService(repo Repository, crsRepo course.Repository) *Service {
	return &Service{repo: repo, crsRepo: crsRepo}
}

func (svc *Service) AddVideo(ctx context.Context, sectionID int, url string) (SectionContent, error) {
	if err := svc.checkSection(ctx, sectionID); err != nil {
		return nil, err
	}
	return svc.repo.CreateContent(ctx, &Video{Meta: Meta{SectionID: sectionID}, Src: url})
}

func (svc *Service) AddDocument(ctx context.Context, sectionID int, url string) (SectionContent, error) {
	if err := svc.checkSection(ctx, sectionID); err != nil {
		return nil, err
	}
	return svc.repo.CreateContent(ctx, &Document{Meta: Meta{SectionID: sectionID}, Src: url})
}

func (svc *Service) AddImage(ctx context.Context, sectionID int, url string) (SectionContent, error) {
	if err := svc.checkSection(ctx, sectionID); err != nil {
		return nil, err
	}
	return svc.repo.CreateContent(ctx, &Image{Meta: Meta{SectionID: sectionID}, Src: url})
}

func (svc *Service) AddExam(ctx context.Context, sectionID int, ne NewExam) (SectionContent, error) {
	if err := svc.checkSection(ctx, sectionID); err != nil {
		return nil, err
	}

	exam := &Exam{
		Meta:      Meta{SectionID: sectionID},
		TimeLimit: ne.TimeLimit,
	}
	for _, nq := range ne.Questions {
		q := ExamQuestion{Text: nq.Text, Type: nq.Type}
		for _, no := range nq.Options {
			q.Options = append(q.Options, ExamOption{Text: no.Text, Correct: no.Correct})
		}
		q.Normalize()
		exam.Questions = append(exam.Questions, q)
	}
	return svc.repo.CreateContent(ctx, exam)
}

func (svc *Service) GetBySection(ctx context.Context, sectionID int) (SectionContent, error) {
	if _, err := svc.crsRepo.GetSectionByID(ctx, sectionID); err != nil {
		return nil, err
	}
	return svc.repo.GetContentBySectionID(ctx, sectionID)
}

// checkSection verifies the section exists and bears no content yet.
func (svc *Service) checkSection(ctx context.Context, sectionID int) error {
	if _, err := svc.crsRepo.GetSectionByID(ctx, sectionID); err != nil {
		return err
	}
	if _, err := svc.repo.GetContentBySectionID(ctx, sectionID); err == nil {
		return ErrAlreadyExists
	} else if errors.Cause(err) != ErrNotFound {
		return err
	}
	return nil
}
