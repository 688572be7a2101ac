package course

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core"
)

// Enrollment statuses. Loosely typed strings in the schema; these are the two
// values the state machine writes.
const (
	StatusAssigned = "ASIGNADO"
	StatusFinished = "FINALIZADO"
)

type Course struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Area        string    `json:"area"`
	CreatedDate time.Time `json:"created_date"` // UTC
	ExpiryDate  null.Time `json:"expiry_date,omitempty"`
	CreatedByID int       `json:"created_by"`
	Sections    []Section `json:"sections,omitempty"`
}

type Section struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Order    string `json:"order"` // string-encoded integer position
	CourseID int    `json:"course_id"`
}

// OrderValue parses the string-encoded order. Malformed orders count as 0,
// the way the reporting side of the original system treats them.
func (s Section) OrderValue() int {
	n, _ := strconv.Atoi(strings.TrimSpace(s.Order))
	return n
}

// Enrollment tracks a user's assignment to and progress through a course.
// Identified by the (UserID, CourseID) pair; never deleted on its own.
type Enrollment struct {
	UserID     int       `json:"user_id"`
	CourseID   int       `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
	// FinishedDate is set exactly once, when the farthest-reached section is
	// the course's highest section.
	FinishedDate null.Time `json:"finished_date,omitempty"`
	Status       string    `json:"status"`
	Favorite     bool      `json:"favorite"`
	// SectionID points at the farthest section reached, not the one being
	// viewed. Null until the first progress update.
	SectionID null.Int `json:"section_id,omitempty"`
}

func (e Enrollment) IsFinished() bool { return e.FinishedDate.Valid }

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	Area        string       `json:"area"`
	ExpiryDate  null.Time    `json:"expiry_date"`
	CreatedByID int          `json:"created_by" validate:"required"`
	Sections    []NewSection `json:"sections" validate:"dive"`
}

type NewSection struct {
	Title string `json:"title" validate:"required"`
	Order string `json:"order" validate:"required,sectionorder"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Area = core.CleanString(nc.Area)
	for i := range nc.Sections {
		nc.Sections[i].Title = core.CleanString(nc.Sections[i].Title)
		nc.Sections[i].Order = core.CleanString(nc.Sections[i].Order)
	}
	return validate.Struct(nc)
}
