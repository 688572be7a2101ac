package content

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core"
)

// Type discriminates the section content variants on the wire and in storage.
type Type string

const (
	TypeVideo    Type = "VIDEO"
	TypeDocument Type = "DOCUMENT"
	TypeImage    Type = "IMAGE"
	TypeExam     Type = "EXAM"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "SINGLE_CHOICE"
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
)

// SectionContent is the polymorphic content attached 1:1 to a section.
// URL and Question form a uniform accessor pair so section-rendering code
// needs no type switches; each returns its zero value where inapplicable.
type SectionContent interface {
	Kind() Type
	ContentID() int
	ContentSectionID() int
	URL() string
	Question() *string
}

// Meta carries the identity fields common to every variant.
type Meta struct {
	ID        int `json:"content_id"`
	SectionID int `json:"section_id"`
}

func (m Meta) ContentID() int        { return m.ID }
func (m Meta) ContentSectionID() int { return m.SectionID }

type (
	Video struct {
		Meta
		Src string `json:"url"`
	}

	Document struct {
		Meta
		Src string `json:"url"`
	}

	Image struct {
		Meta
		Src string `json:"url"`
	}

	Exam struct {
		Meta
		TimeLimit null.Int       `json:"time_limit,omitempty"` // minutes
		Questions []ExamQuestion `json:"questions"`
	}
)

func (v *Video) Kind() Type    { return TypeVideo }
func (d *Document) Kind() Type { return TypeDocument }
func (i *Image) Kind() Type    { return TypeImage }
func (e *Exam) Kind() Type     { return TypeExam }

func (v *Video) URL() string    { return v.Src }
func (d *Document) URL() string { return d.Src }
func (i *Image) URL() string    { return i.Src }
func (e *Exam) URL() string     { return "" }

// Question is vestigial on every current variant; renderers null-check it.
func (v *Video) Question() *string    { return nil }
func (d *Document) Question() *string { return nil }
func (i *Image) Question() *string    { return nil }
func (e *Exam) Question() *string     { return nil }

var (
	_ SectionContent = (*Video)(nil)
	_ SectionContent = (*Document)(nil)
	_ SectionContent = (*Image)(nil)
	_ SectionContent = (*Exam)(nil)
)

type ExamQuestion struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []ExamOption `json:"options"`
}

type ExamOption struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Normalize defaults a blank question type to SINGLE_CHOICE and, for
// single-choice questions, demotes all correct options past the first.
func (q *ExamQuestion) Normalize() {
	if q.Type == "" {
		q.Type = SingleChoice
	}
	if q.Type != SingleChoice {
		return
	}
	var kept bool
	for i := range q.Options {
		if q.Options[i].Correct {
			if kept {
				q.Options[i].Correct = false
			}
			kept = true
		}
	}
}

func (q ExamQuestion) CorrectOptionIDs() []int {
	ids := make([]int, 0, len(q.Options))
	for _, o := range q.Options {
		if o.Correct {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// NewExam contains information needed to attach exam content to a section.
type NewExam struct {
	TimeLimit null.Int      `json:"time_limit"`
	Questions []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

type NewQuestion struct {
	Text    string       `json:"text" validate:"required"`
	Type    QuestionType `json:"type" validate:"omitempty,oneof=SINGLE_CHOICE MULTIPLE_CHOICE"`
	Options []NewOption  `json:"options" validate:"required,min=2,dive"`
}

type NewOption struct {
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"correct"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	for i := range ne.Questions {
		ne.Questions[i].Text = core.CleanString(ne.Questions[i].Text)
		for j := range ne.Questions[i].Options {
			ne.Questions[i].Options[j].Text = core.CleanString(ne.Questions[i].Options[j].Text)
		}
	}
	return validate.Struct(ne)
}
