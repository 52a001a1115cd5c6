package models

import "time"

// TermType represents the type of academic term.
type TermType string

const (
	TermTypeSemester  TermType = "SEMESTER"
	TermTypeQuarter   TermType = "QUARTER"
	TermTypeTrimester TermType = "TRIMESTER"
)

// Valid reports whether the term type is known.
func (t TermType) Valid() bool {
	switch t {
	case TermTypeSemester, TermTypeQuarter, TermTypeTrimester:
		return true
	}
	return false
}

// Term models an academic period bounding class scheduling and registration.
type Term struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Code              string    `db:"code" json:"code"`
	Type              TermType  `db:"type" json:"type"`
	AcademicYear      string    `db:"academic_year" json:"academic_year"`
	StartDate         time.Time `db:"start_date" json:"start_date"`
	EndDate           time.Time `db:"end_date" json:"end_date"`
	RegistrationStart time.Time `db:"registration_start" json:"registration_start"`
	RegistrationEnd   time.Time `db:"registration_end" json:"registration_end"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	IsCurrent         bool      `db:"is_current" json:"is_current"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// TermFilter defines filters supported by term list endpoints.
type TermFilter struct {
	AcademicYear string
	Type         TermType
	IsActive     *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
