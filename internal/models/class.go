package models

import "time"

// ClassStatus is the scheduling state of a class offering.
type ClassStatus string

const (
	ClassStatusScheduled ClassStatus = "SCHEDULED"
	ClassStatusActive    ClassStatus = "ACTIVE"
	ClassStatusCompleted ClassStatus = "COMPLETED"
	ClassStatusCancelled ClassStatus = "CANCELLED"
)

// Valid reports whether the status is a known value.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusScheduled, ClassStatusActive, ClassStatusCompleted, ClassStatusCancelled:
		return true
	}
	return false
}

// Class is a scheduled offering of a course within a term.
type Class struct {
	ID               string      `db:"id" json:"id"`
	CourseID         string      `db:"course_id" json:"course_id"`
	TermID           string      `db:"term_id" json:"term_id"`
	TeacherID        *string     `db:"teacher_id" json:"teacher_id,omitempty"`
	Room             string      `db:"room" json:"room"`
	Building         string      `db:"building" json:"building"`
	DayOfWeek        string      `db:"day_of_week" json:"day_of_week"`
	StartTime        string      `db:"start_time" json:"start_time"`
	EndTime          string      `db:"end_time" json:"end_time"`
	Capacity         int         `db:"capacity" json:"capacity"`
	EnrolledStudents int         `db:"enrolled_students" json:"enrolled_students"`
	WaitlistCount    int         `db:"waitlist_count" json:"waitlist_count"`
	Status           ClassStatus `db:"status" json:"status"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with course, term and teacher context.
type ClassDetail struct {
	Class
	CourseCode  string  `db:"course_code" json:"course_code"`
	CourseName  string  `db:"course_name" json:"course_name"`
	TermName    string  `db:"term_name" json:"term_name"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	CourseID  string
	TermID    string
	TeacherID string
	Status    ClassStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// RosterEntry is one student row on a class roster.
type RosterEntry struct {
	StudentID   string           `db:"student_id" json:"student_id"`
	FullName    string           `db:"full_name" json:"full_name"`
	Email       string           `db:"email" json:"email"`
	GradeLevel  string           `db:"grade_level" json:"grade_level"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	SectionName *string          `db:"section_name" json:"section_name,omitempty"`
}

// ScheduleAdjustmentKind selects what a batch schedule adjustment changes.
type ScheduleAdjustmentKind string

const (
	AdjustmentKindRoom ScheduleAdjustmentKind = "room"
	AdjustmentKindTime ScheduleAdjustmentKind = "time"
)
