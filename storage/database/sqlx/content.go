package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core/content"
)

type contentRow struct {
	ID        int         `db:"id"`
	SectionID int         `db:"id_section"`
	Type      string      `db:"content_type"`
	URL       null.String `db:"url"`
	TimeLimit null.Int    `db:"time_limit"`
}

type questionRow struct {
	ID     int    `db:"id"`
	ExamID int    `db:"exam_id"`
	Text   string `db:"text"`
	Type   string `db:"question_type"`
}

type optionRow struct {
	ID         int    `db:"id"`
	QuestionID int    `db:"question_id"`
	Text       string `db:"text"`
	Correct    bool   `db:"correct"`
}

type contentRepository struct {
	db *sqlx.DB
}

func NewContentRepository(db *sqlx.DB) content.Repository {
	return &contentRepository{db: db}
}

func (repo *contentRepository) CreateContent(ctx context.Context, c content.SectionContent) (content.SectionContent, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var created content.SectionContent
	switch v := c.(type) {
	case *content.Video:
		cp := *v
		if cp.ID, err = insertContent(ctx, tx, cp.SectionID, content.TypeVideo, cp.Src, null.Int{}); err != nil {
			return nil, err
		}
		created = &cp
	case *content.Document:
		cp := *v
		if cp.ID, err = insertContent(ctx, tx, cp.SectionID, content.TypeDocument, cp.Src, null.Int{}); err != nil {
			return nil, err
		}
		created = &cp
	case *content.Image:
		cp := *v
		if cp.ID, err = insertContent(ctx, tx, cp.SectionID, content.TypeImage, cp.Src, null.Int{}); err != nil {
			return nil, err
		}
		created = &cp
	case *content.Exam:
		cp := *v
		if cp.ID, err = insertContent(ctx, tx, cp.SectionID, content.TypeExam, "", cp.TimeLimit); err != nil {
			return nil, err
		}
		cp.Questions = make([]content.ExamQuestion, len(v.Questions))
		copy(cp.Questions, v.Questions)
		for i := range cp.Questions {
			q := &cp.Questions[i]
			err = tx.QueryRowContext(ctx,
				"INSERT INTO exam_question (exam_id, text, question_type) VALUES ($1, $2, $3) RETURNING id",
				cp.ID, q.Text, q.Type,
			).Scan(&q.ID)
			if err != nil {
				return nil, errors.Wrap(err, "inserting question")
			}
			opts := make([]content.ExamOption, len(q.Options))
			copy(opts, q.Options)
			for j := range opts {
				err = tx.QueryRowContext(ctx,
					"INSERT INTO exam_option (question_id, text, correct) VALUES ($1, $2, $3) RETURNING id",
					q.ID, opts[j].Text, opts[j].Correct,
				).Scan(&opts[j].ID)
				if err != nil {
					return nil, errors.Wrap(err, "inserting option")
				}
			}
			q.Options = opts
		}
		created = &cp
	default:
		return nil, content.ErrUnknownType
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing content")
	}
	return created, nil
}

func insertContent(ctx context.Context, tx *sqlx.Tx, sectionID int, typ content.Type, url string, timeLimit null.Int) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx, `
INSERT INTO section_content (id_section, content_type, url, time_limit)
VALUES ($1, $2, NULLIF($3, ''), $4)
RETURNING id`,
		sectionID, typ, url, timeLimit,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return 0, content.ErrAlreadyExists
		}
		return 0, errors.Wrap(err, "inserting content")
	}
	return id, nil
}

func (repo *contentRepository) GetContentBySectionID(ctx context.Context, sectionID int) (content.SectionContent, error) {
	var row contentRow
	err := repo.db.GetContext(ctx, &row,
		"SELECT id, id_section, content_type, url, time_limit FROM section_content WHERE id_section = $1",
		sectionID,
	)
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting content")
	}

	meta := content.Meta{ID: row.ID, SectionID: row.SectionID}
	switch content.Type(row.Type) {
	case content.TypeVideo:
		return &content.Video{Meta: meta, Src: row.URL.String}, nil
	case content.TypeDocument:
		return &content.Document{Meta: meta, Src: row.URL.String}, nil
	case content.TypeImage:
		return &content.Image{Meta: meta, Src: row.URL.String}, nil
	case content.TypeExam:
		questions, err := repo.queryQuestions(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		return &content.Exam{Meta: meta, TimeLimit: row.TimeLimit, Questions: questions}, nil
	}
	return nil, content.ErrUnknownType
}

func (repo *contentRepository) queryQuestions(ctx context.Context, examID int) ([]content.ExamQuestion, error) {
	var qRows []questionRow
	err := repo.db.SelectContext(ctx, &qRows,
		"SELECT id, exam_id, text, question_type FROM exam_question WHERE exam_id = $1 ORDER BY id", examID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}

	questions := make([]content.ExamQuestion, 0, len(qRows))
	for _, qr := range qRows {
		var oRows []optionRow
		err = repo.db.SelectContext(ctx, &oRows,
			"SELECT id, question_id, text, correct FROM exam_option WHERE question_id = $1 ORDER BY id", qr.ID)
		if err != nil {
			return nil, errors.Wrap(err, "querying options")
		}
		opts := make([]content.ExamOption, 0, len(oRows))
		for _, or := range oRows {
			opts = append(opts, content.ExamOption{ID: or.ID, Text: or.Text, Correct: or.Correct})
		}
		questions = append(questions, content.ExamQuestion{
			ID:      qr.ID,
			Text:    qr.Text,
			Type:    content.QuestionType(qr.Type),
			Options: opts,
		})
	}
	return questions, nil
}
