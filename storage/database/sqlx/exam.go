package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/onboardme/backend/core/exam"
)

type examResultRow struct {
	ID          int       `db:"id"`
	UserID      int       `db:"user_id"`
	ExamID      int       `db:"exam_id"`
	Detail      string    `db:"detail"`
	Score       int       `db:"score"`
	Total       int       `db:"total_questions"`
	CompletedAt time.Time `db:"completed_at"`
}

func (r examResultRow) toResult() (exam.Result, error) {
	res := exam.Result{
		ID:          r.ID,
		UserID:      r.UserID,
		ExamID:      r.ExamID,
		Score:       r.Score,
		Total:       r.Total,
		CompletedAt: r.CompletedAt,
	}
	if err := json.Unmarshal([]byte(r.Detail), &res.Detail); err != nil {
		return exam.Result{}, errors.Wrap(err, "decoding result detail")
	}
	return res, nil
}

type examRepository struct {
	db *sqlx.DB
}

func NewExamRepository(db *sqlx.DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateResult(ctx context.Context, res exam.Result) (exam.Result, error) {
	detail, err := json.Marshal(res.Detail)
	if err != nil {
		return exam.Result{}, errors.Wrap(err, "encoding result detail")
	}

	err = repo.db.QueryRowContext(ctx, `
INSERT INTO exam_result (user_id, exam_id, detail, score, total_questions, completed_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		res.UserID, res.ExamID, string(detail), res.Score, res.Total, res.CompletedAt,
	).Scan(&res.ID)
	if err != nil {
		return exam.Result{}, errors.Wrap(err, "inserting result")
	}
	return res, nil
}

func (repo *examRepository) GetResultByUserAndExam(ctx context.Context, userID, examID int) (exam.Result, error) {
	var row examResultRow
	err := repo.db.GetContext(ctx, &row, `
SELECT id, user_id, exam_id, detail, score, total_questions, completed_at
FROM exam_result
WHERE user_id = $1 AND exam_id = $2`,
		userID, examID,
	)
	if err == sql.ErrNoRows {
		return exam.Result{}, exam.ErrResultNotFound
	}
	if err != nil {
		return exam.Result{}, errors.Wrap(err, "getting result")
	}
	return row.toResult()
}
