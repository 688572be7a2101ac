package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core/course"
)

type courseRow struct {
	ID          int       `db:"id"`
	Title       string    `db:"titulo"`
	Description string    `db:"descripcion"`
	Area        string    `db:"area"`
	CreatedDate time.Time `db:"fecha_creacion"`
	ExpiryDate  null.Time `db:"fecha_vencimiento"`
	CreatedByID int       `db:"id_usuario_creador"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Area:        r.Area,
		CreatedDate: r.CreatedDate,
		ExpiryDate:  r.ExpiryDate,
		CreatedByID: r.CreatedByID,
	}
}

type sectionRow struct {
	ID       int    `db:"id"`
	Title    string `db:"titulo"`
	Order    string `db:"orden"`
	CourseID int    `db:"curso_id"`
}

func (r sectionRow) toSection() course.Section {
	return course.Section{ID: r.ID, Title: r.Title, Order: r.Order, CourseID: r.CourseID}
}

const (
	selectCourse  = "SELECT id, titulo, descripcion, area, fecha_creacion, fecha_vencimiento, id_usuario_creador FROM curso"
	selectSection = "SELECT id, titulo, orden, curso_id FROM seccion"
)

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "opening transaction")
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
INSERT INTO curso (titulo, descripcion, area, fecha_creacion, fecha_vencimiento, id_usuario_creador)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		crs.Title, crs.Description, crs.Area, crs.CreatedDate, crs.ExpiryDate, crs.CreatedByID,
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}

	for i := range crs.Sections {
		crs.Sections[i].CourseID = crs.ID
		err = tx.QueryRowContext(ctx,
			"INSERT INTO seccion (titulo, orden, curso_id) VALUES ($1, $2, $3) RETURNING id",
			crs.Sections[i].Title, crs.Sections[i].Order, crs.ID,
		).Scan(&crs.Sections[i].ID)
		if err != nil {
			return course.Course{}, errors.Wrap(err, "inserting section")
		}
	}

	if err = tx.Commit(); err != nil {
		return course.Course{}, errors.Wrap(err, "committing course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, selectCourse+" ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		crs := r.toCourse()
		secs, err := repo.QuerySectionsByCourseID(ctx, crs.ID)
		if err != nil {
			return nil, err
		}
		crs.Sections = secs
		courses = append(courses, crs)
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id int) (course.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row, selectCourse+" WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return course.Course{}, course.ErrNotFound
	}
	if err != nil {
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	crs := row.toCourse()
	if crs.Sections, err = repo.QuerySectionsByCourseID(ctx, id); err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) GetSectionByID(ctx context.Context, id int) (course.Section, error) {
	var row sectionRow
	err := repo.db.GetContext(ctx, &row, selectSection+" WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return course.Section{}, course.ErrSectionNotFound
	}
	if err != nil {
		return course.Section{}, errors.Wrap(err, "getting section")
	}
	return row.toSection(), nil
}

func (repo *courseRepository) QuerySectionsByCourseID(ctx context.Context, courseID int) ([]course.Section, error) {
	var rows []sectionRow
	// orden is a string-encoded integer; cast for a numeric sort.
	err := repo.db.SelectContext(ctx, &rows,
		selectSection+" WHERE curso_id = $1 ORDER BY NULLIF(regexp_replace(orden, '\\D', '', 'g'), '')::int NULLS FIRST, id",
		courseID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	secs := make([]course.Section, 0, len(rows))
	for _, r := range rows {
		secs = append(secs, r.toSection())
	}
	return secs, nil
}

type enrollmentRow struct {
	UserID       int       `db:"id_usuario"`
	CourseID     int       `db:"id_curso"`
	EnrolledAt   time.Time `db:"fecha_asignacion"`
	FinishedDate null.Time `db:"fecha_finalizacion"`
	Status       string    `db:"estado"`
	Favorite     bool      `db:"marca_fav"`
	SectionID    null.Int  `db:"id_seccion"`
}

func (r enrollmentRow) toEnrollment() course.Enrollment {
	return course.Enrollment{
		UserID:       r.UserID,
		CourseID:     r.CourseID,
		EnrolledAt:   r.EnrolledAt,
		FinishedDate: r.FinishedDate,
		Status:       r.Status,
		Favorite:     r.Favorite,
		SectionID:    r.SectionID,
	}
}

const selectEnrollment = `
SELECT id_usuario, id_curso, fecha_asignacion, fecha_finalizacion, estado, marca_fav, id_seccion
FROM usuario_x_curso`

type enrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) course.EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	const q = `
INSERT INTO usuario_x_curso (id_usuario, id_curso, fecha_asignacion, fecha_finalizacion, estado, marca_fav, id_seccion)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := repo.db.ExecContext(ctx, q,
		enr.UserID, enr.CourseID, enr.EnrolledAt, enr.FinishedDate, enr.Status, enr.Favorite, enr.SectionID)
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, userID, courseID int) (course.Enrollment, error) {
	var row enrollmentRow
	err := repo.db.GetContext(ctx, &row, selectEnrollment+" WHERE id_usuario = $1 AND id_curso = $2", userID, courseID)
	if err == sql.ErrNoRows {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	const q = `
UPDATE usuario_x_curso
SET fecha_finalizacion = $3, estado = $4, marca_fav = $5, id_seccion = $6
WHERE id_usuario = $1 AND id_curso = $2`

	res, err := repo.db.ExecContext(ctx, q,
		enr.UserID, enr.CourseID, enr.FinishedDate, enr.Status, enr.Favorite, enr.SectionID)
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	return enr, nil
}

func (repo *enrollmentRepository) QueryEnrollmentsByUserID(ctx context.Context, userID int) ([]course.Enrollment, error) {
	return repo.query(ctx, selectEnrollment+" WHERE id_usuario = $1 ORDER BY id_curso", userID)
}

func (repo *enrollmentRepository) QueryEnrollmentsByCourseID(ctx context.Context, courseID int) ([]course.Enrollment, error) {
	return repo.query(ctx, selectEnrollment+" WHERE id_curso = $1 ORDER BY id_usuario", courseID)
}

func (repo *enrollmentRepository) QueryFavoriteEnrollments(ctx context.Context, userID int) ([]course.Enrollment, error) {
	return repo.query(ctx, selectEnrollment+" WHERE id_usuario = $1 AND marca_fav ORDER BY id_curso", userID)
}

func (repo *enrollmentRepository) QueryAllEnrollments(ctx context.Context) ([]course.Enrollment, error) {
	return repo.query(ctx, selectEnrollment+" ORDER BY id_usuario, id_curso")
}

func (repo *enrollmentRepository) query(ctx context.Context, q string, args ...interface{}) ([]course.Enrollment, error) {
	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, r.toEnrollment())
	}
	return enrs, nil
}
