package models

import "time"

// GradeStatus is the submission state of a graded assignment.
type GradeStatus string

const (
	GradeSubmitted  GradeStatus = "SUBMITTED"
	GradeMissing    GradeStatus = "MISSING"
	GradeExcused    GradeStatus = "EXCUSED"
	GradeIncomplete GradeStatus = "INCOMPLETE"
)

// Valid reports whether the status is a known value.
func (s GradeStatus) Valid() bool {
	switch s {
	case GradeSubmitted, GradeMissing, GradeExcused, GradeIncomplete:
		return true
	}
	return false
}

// ScoreForbidden reports whether the status forbids a numeric score.
func (s GradeStatus) ScoreForbidden() bool {
	return s == GradeMissing || s == GradeExcused
}

// Grade records a student's score on an assignment.
// Identity is (student_id, assignment_id); writes are upserts.
type Grade struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	ClassID      string      `db:"class_id" json:"class_id"`
	AssignmentID string      `db:"assignment_id" json:"assignment_id"`
	Score        *float64    `db:"score" json:"score,omitempty"`
	MaxScore     float64     `db:"max_score" json:"max_score"`
	Status       GradeStatus `db:"status" json:"status"`
	Comment      *string     `db:"comment" json:"comment,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// LetterGrade derives the letter band for the grade, or empty when no score.
func (g Grade) LetterGrade() string {
	if g.Score == nil || g.MaxScore <= 0 {
		return ""
	}
	return Letter(*g.Score, g.MaxScore)
}

// Letter maps a score/max ratio onto the A-F scale. Boundaries sit exactly
// at 90, 80, 70 and 60 percent.
func Letter(score, maxScore float64) string {
	if maxScore <= 0 {
		return ""
	}
	pct := score / maxScore * 100
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}

// GradeDetail enriches Grade with the student name and derived letter.
type GradeDetail struct {
	Grade
	StudentName string `db:"student_name" json:"student_name"`
	Letter      string `db:"-" json:"letter"`
}

// GradeFilter narrows grade listings.
type GradeFilter struct {
	ClassID      string
	StudentID    string
	AssignmentID string
	Status       GradeStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
