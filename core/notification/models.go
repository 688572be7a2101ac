package notification

import "time"

// Notification titles emitted by the enrollment state machine.
const (
	TitleCourseAssigned = "CURSO ASIGNADO"
	TitleCourseFinished = "CURSO FINALIZADO"
)

type Notification struct {
	ID       int       `json:"id"`
	UserID   int       `json:"user_id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	SentDate time.Time `json:"sent_date"` // UTC
	Seen     bool      `json:"seen"`
}
