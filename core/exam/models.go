package exam

import "time"

// Result is one user's graded submission for one exam. Immutable after
// creation: there is no update path, and resubmission is rejected.
type Result struct {
	ID          int              `json:"-"`
	UserID      int              `json:"user_id"`
	ExamID      int              `json:"exam_id"`
	Score       int              `json:"score"`
	Total       int              `json:"totalQuestions"`
	Detail      []QuestionResult `json:"results"`
	CompletedAt time.Time        `json:"completed_at"` // UTC
}

// QuestionResult is the per-question breakdown persisted as the result's
// detail blob.
type QuestionResult struct {
	QuestionID        int   `json:"questionId"`
	SelectedOptionIDs []int `json:"selectedOptionIds"`
	CorrectOptionIDs  []int `json:"correctOptionIds"`
	Correct           bool  `json:"isCorrect"`
}

type Submission struct {
	Answers []Answer `json:"answers"`
}

type Answer struct {
	QuestionID        int   `json:"question_id"`
	SelectedOptionIDs []int `json:"selected_option_ids"`
}
