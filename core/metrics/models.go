package metrics

import "github.com/volatiletech/null/v8"

type Type string

const (
	TypeCourseCompletion     Type = "COURSE_COMPLETION"
	TypeAvgCompletionTime    Type = "AVG_COMPLETION_TIME"
	TypeSectionDropoff       Type = "SECTION_DROPOFF"
	TypeBuddyCoverage        Type = "BUDDY_COVERAGE"
	TypeCourseUserProgress   Type = "COURSE_USER_PROGRESS"
	TypeCourseUserElapsed    Type = "COURSE_USER_ELAPSED_DAYS"
	TypeUserCourseCompletion Type = "USER_COURSE_COMPLETION"
)

// Filter narrows a metric to one buddy's mentees and/or one course. Both
// fields are optional; some metric types require CourseID.
type Filter struct {
	BuddyID  null.Int
	CourseID null.Int
}

type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Metric struct {
	MetricType string      `json:"metricType"`
	Data       []DataPoint `json:"data"`
}
