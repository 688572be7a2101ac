package exam

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/onboardme/backend/core/content"
	"github.com/onboardme/backend/core/course"
	"github.com/onboardme/backend/core/user"
)

var (
	ErrNoExam           = errors.New("section has no exam")
	ErrAlreadyCompleted = errors.New("exam already completed")
	ErrResultNotFound   = errors.New("exam result not found")
)

type Repository interface {
	CreateResult(ctx context.Context, res Result) (Result, error)
	GetResultByUserAndExam(ctx context.Context, userID, examID int) (Result, error)
}

// Service grades exam submissions and records results. A successful
// submission also advances the user's course progress to the exam's section.
type Service struct {
	repo        Repository
	contentRepo content.Repository
	crsRepo     course.Repository
	crsSvc      *course.Service
	usrRepo     user.Repository
}

func NewService(repo Repository, contentRepo content.Repository, crsRepo course.Repository, crsSvc *course.Service, usrRepo user.Repository) *Service {
	return &Service{repo: repo, contentRepo: contentRepo, crsRepo: crsRepo, crsSvc: crsSvc, usrRepo: usrRepo}
}

// Submit grades sub against the exam attached to sectionID and persists the
// result. Each question scores one point when the selected option set equals
// the correct option set exactly; partial matches score zero. A user can
// submit a given exam only once.
func (svc *Service) Submit(ctx context.Context, sectionID, userID int, sub Submission) (Result, error) {
	sec, err := svc.crsRepo.GetSectionByID(ctx, sectionID)
	if err != nil {
		return Result{}, err
	}
	if _, err = svc.usrRepo.GetUserByID(ctx, userID); err != nil {
		return Result{}, err
	}

	exm, err := svc.examOf(ctx, sectionID)
	if err != nil {
		return Result{}, err
	}
	if _, err = svc.repo.GetResultByUserAndExam(ctx, userID, exm.ID); err == nil {
		return Result{}, ErrAlreadyCompleted
	} else if errors.Cause(err) != ErrResultNotFound {
		return Result{}, errors.Wrap(err, "checking prior result")
	}

	selected := make(map[int][]int, len(sub.Answers))
	for _, ans := range sub.Answers {
		selected[ans.QuestionID] = ans.SelectedOptionIDs
	}

	res := Result{
		UserID:      userID,
		ExamID:      exm.ID,
		Total:       len(exm.Questions),
		Detail:      make([]QuestionResult, 0, len(exm.Questions)),
		CompletedAt: time.Now().UTC(),
	}
	for _, q := range exm.Questions {
		qr := QuestionResult{
			QuestionID:        q.ID,
			SelectedOptionIDs: selected[q.ID],
			CorrectOptionIDs:  q.CorrectOptionIDs(),
		}
		qr.Correct = sameIDSet(qr.SelectedOptionIDs, qr.CorrectOptionIDs)
		if qr.Correct {
			res.Score++
		}
		res.Detail = append(res.Detail, qr)
	}

	res, err = svc.repo.CreateResult(ctx, res)
	if err != nil {
		return Result{}, errors.Wrap(err, "saving result")
	}
	if err = svc.crsSvc.UpdateProgress(ctx, sec.CourseID, userID, sectionID); err != nil {
		return Result{}, errors.Wrap(err, "advancing course progress")
	}
	return res, nil
}

// GetResult returns the user's recorded result for the exam attached to
// sectionID.
func (svc *Service) GetResult(ctx context.Context, sectionID, userID int) (Result, error) {
	exm, err := svc.examOf(ctx, sectionID)
	if err != nil {
		return Result{}, err
	}
	return svc.repo.GetResultByUserAndExam(ctx, userID, exm.ID)
}

func (svc *Service) examOf(ctx context.Context, sectionID int) (*content.Exam, error) {
	cnt, err := svc.contentRepo.GetContentBySectionID(ctx, sectionID)
	if err != nil {
		if errors.Cause(err) == content.ErrNotFound {
			return nil, ErrNoExam
		}
		return nil, err
	}
	exm, ok := cnt.(*content.Exam)
	if !ok {
		return nil, ErrNoExam
	}
	return exm, nil
}

func sameIDSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
