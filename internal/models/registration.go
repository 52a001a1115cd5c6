package models

import (
	"time"

	"github.com/lib/pq"
)

// RegistrationStatus is the lifecycle of an admission application.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "PENDING"
	RegistrationStatusAccepted RegistrationStatus = "ACCEPTED"
	RegistrationStatusRejected RegistrationStatus = "REJECTED"
)

// Valid reports whether the status is a known value.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusAccepted, RegistrationStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transition.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationStatusAccepted || s == RegistrationStatusRejected
}

// Registration is a prospective-student application prior to becoming a Student.
type Registration struct {
	ID               string             `db:"id" json:"id"`
	ApplicantName    string             `db:"applicant_name" json:"applicant_name"`
	BirthDate        time.Time          `db:"birth_date" json:"birth_date"`
	Email            *string            `db:"email" json:"email,omitempty"`
	Phone            string             `db:"phone" json:"phone"`
	Address          string             `db:"address" json:"address"`
	GuardianName     string             `db:"guardian_name" json:"guardian_name"`
	GuardianPhone    string             `db:"guardian_phone" json:"guardian_phone"`
	DesiredGrade     string             `db:"desired_grade" json:"desired_grade"`
	DesiredSectionID *string            `db:"desired_section_id" json:"desired_section_id,omitempty"`
	Subjects         pq.StringArray     `db:"subjects" json:"subjects"`
	DocumentURLs     pq.StringArray     `db:"document_urls" json:"document_urls"`
	Status           RegistrationStatus `db:"status" json:"status"`
	AdminNote        *string            `db:"admin_note" json:"admin_note,omitempty"`
	StudentID        *string            `db:"student_id" json:"student_id,omitempty"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// RegistrationDetail enriches Registration with the resolved section name.
type RegistrationDetail struct {
	Registration
	DesiredSectionName *string `db:"desired_section_name" json:"desired_section_name,omitempty"`
}

// RegistrationFilter narrows registration listings.
type RegistrationFilter struct {
	Status    RegistrationStatus
	Search    string
	Grade     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
