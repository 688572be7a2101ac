package inmemdb

import (
	"context"

	"github.com/onboardme/backend/core/exam"
)

type examRepository struct {
	db *DB
}

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateResult(_ context.Context, res exam.Result) (exam.Result, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	res.ID = repo.db.nextID()
	repo.db.examResults[res.ID] = &res
	return res, nil
}

func (repo *examRepository) GetResultByUserAndExam(_ context.Context, userID, examID int) (exam.Result, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, res := range repo.db.examResults {
		if res.UserID == userID && res.ExamID == examID {
			return *res, nil
		}
	}
	return exam.Result{}, exam.ErrResultNotFound
}
