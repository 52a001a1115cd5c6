package models

import "time"

// SectionStatus is the lifecycle state of a section.
type SectionStatus string

const (
	SectionStatusOpen   SectionStatus = "OPEN"
	SectionStatusFull   SectionStatus = "FULL"
	SectionStatusClosed SectionStatus = "CLOSED"
)

// Valid reports whether the status is a known value.
func (s SectionStatus) Valid() bool {
	switch s {
	case SectionStatusOpen, SectionStatusFull, SectionStatusClosed:
		return true
	}
	return false
}

// Section is a sub-division of a class with its own capacity, teacher and room.
type Section struct {
	ID               string        `db:"id" json:"id"`
	ClassID          string        `db:"class_id" json:"class_id"`
	Name             string        `db:"name" json:"name"`
	Capacity         int           `db:"capacity" json:"capacity"`
	EnrolledStudents int           `db:"enrolled_students" json:"enrolled_students"`
	Room             string        `db:"room" json:"room"`
	TeacherID        *string       `db:"teacher_id" json:"teacher_id,omitempty"`
	Status           SectionStatus `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// SectionDetail extends Section with class and teacher context.
type SectionDetail struct {
	Section
	CourseName  string  `db:"course_name" json:"course_name"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// SectionFilter defines filter criteria for listing sections.
type SectionFilter struct {
	ClassID   string
	Status    SectionStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
