package models

import (
	"time"

	"github.com/lib/pq"
)

// TeacherStatus is the employment state of a teacher.
type TeacherStatus string

const (
	TeacherStatusActive   TeacherStatus = "ACTIVE"
	TeacherStatusInactive TeacherStatus = "INACTIVE"
	TeacherStatusOnLeave  TeacherStatus = "ON_LEAVE"
)

// Valid reports whether the status is a known value.
func (s TeacherStatus) Valid() bool {
	switch s {
	case TeacherStatusActive, TeacherStatusInactive, TeacherStatusOnLeave:
		return true
	}
	return false
}

// Teacher represents a member of the teaching staff.
type Teacher struct {
	ID             string         `db:"id" json:"id"`
	FullName       string         `db:"full_name" json:"full_name"`
	Email          string         `db:"email" json:"email"`
	Phone          string         `db:"phone" json:"phone"`
	Department     string         `db:"department" json:"department"`
	Position       string         `db:"position" json:"position"`
	Status         TeacherStatus  `db:"status" json:"status"`
	HireDate       time.Time      `db:"hire_date" json:"hire_date"`
	TeachingHours  int            `db:"teaching_hours" json:"teaching_hours"`
	Qualifications pq.StringArray `db:"qualifications" json:"qualifications"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// TeacherFilter defines filter criteria for listing teachers.
type TeacherFilter struct {
	Search     string
	Department string
	Status     TeacherStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
