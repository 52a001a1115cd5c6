package models

import (
	"time"

	"github.com/lib/pq"
)

// Course is a catalog entry referenced by classes.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	Name          string         `db:"name" json:"name"`
	Department    string         `db:"department" json:"department"`
	Credits       int            `db:"credits" json:"credits"`
	GradeLevels   pq.StringArray `db:"grade_levels" json:"grade_levels"`
	Prerequisites pq.StringArray `db:"prerequisites" json:"prerequisites"`
	Active        bool           `db:"active" json:"active"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Search     string
	Department string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
