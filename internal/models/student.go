package models

import "time"

// StudentStatus is the enrollment lifecycle state of a student.
type StudentStatus string

const (
	StudentStatusActive      StudentStatus = "ACTIVE"
	StudentStatusInactive    StudentStatus = "INACTIVE"
	StudentStatusGraduated   StudentStatus = "GRADUATED"
	StudentStatusTransferred StudentStatus = "TRANSFERRED"
	StudentStatusWithdrawn   StudentStatus = "WITHDRAWN"
)

// Valid reports whether the status is a known value.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive, StudentStatusGraduated,
		StudentStatusTransferred, StudentStatusWithdrawn:
		return true
	}
	return false
}

// Student represents a learner registered in the institution.
type Student struct {
	ID             string        `db:"id" json:"id"`
	FullName       string        `db:"full_name" json:"full_name"`
	Email          *string       `db:"email" json:"email,omitempty"`
	Phone          string        `db:"phone" json:"phone"`
	Address        string        `db:"address" json:"address"`
	BirthDate      time.Time     `db:"birth_date" json:"birth_date"`
	GradeLevel     string        `db:"grade_level" json:"grade_level"`
	Status         StudentStatus `db:"status" json:"status"`
	EnrollmentDate time.Time     `db:"enrollment_date" json:"enrollment_date"`
	GuardianName   string        `db:"guardian_name" json:"guardian_name"`
	GuardianPhone  string        `db:"guardian_phone" json:"guardian_phone"`
	GuardianEmail  *string       `db:"guardian_email" json:"guardian_email,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Grade     string
	Status    StudentStatus
	SectionID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with current enrollment context.
type StudentDetail struct {
	Student
	CurrentSectionID   *string `db:"current_section_id" json:"current_section_id,omitempty"`
	CurrentSectionName *string `db:"current_section_name" json:"current_section_name,omitempty"`
	CurrentTermID      *string `db:"current_term_id" json:"current_term_id,omitempty"`
}
