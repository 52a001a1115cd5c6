package models

// BatchClassCreateRequest creates classes for a set of courses in one shot.
// Every course receives SectionsPerCourse classes; rooms are generated from
// the prefix as "<prefix>-<n>".
type BatchClassCreateRequest struct {
	CourseIDs         []string `json:"course_ids" validate:"required,min=1,dive,required"`
	TermID            string   `json:"term_id" validate:"required"`
	SectionsPerCourse int      `json:"sections_per_course" validate:"required,min=1,max=10"`
	RoomPrefix        string   `json:"room_prefix" validate:"required"`
	Building          string   `json:"building"`
	DefaultCapacity   int      `json:"default_capacity" validate:"required,min=1,max=500"`
	DayOfWeek         string   `json:"day_of_week"`
	StartTime         string   `json:"start_time"`
	EndTime           string   `json:"end_time"`
}

// BatchClassCreateResult reports the outcome of a batch class creation.
type BatchClassCreateResult struct {
	CreatedCount int      `json:"created_count"`
	ClassIDs     []string `json:"class_ids"`
}

// ScheduleBatchRequest applies one uniform adjustment to a set of classes.
type ScheduleBatchRequest struct {
	ClassIDs  []string               `json:"class_ids" validate:"required,min=1,dive,required"`
	Kind      ScheduleAdjustmentKind `json:"kind" validate:"required"`
	Room      string                 `json:"room"`
	Building  string                 `json:"building"`
	DayOfWeek string                 `json:"day_of_week"`
	StartTime string                 `json:"start_time"`
	EndTime   string                 `json:"end_time"`
}

// ScheduleBatchResult reports how many classes were adjusted.
type ScheduleBatchResult struct {
	UpdatedCount int `json:"updated_count"`
}

// TermTransitionRequest clones the schedule of one term into another.
// Enrollments are never carried over.
type TermTransitionRequest struct {
	SourceTermID  string `json:"source_term_id" validate:"required"`
	TargetTermID  string `json:"target_term_id" validate:"required"`
	KeepTeachers  bool   `json:"keep_teachers"`
	KeepRooms     bool   `json:"keep_rooms"`
	KeepSchedules bool   `json:"keep_schedules"`
	CapacityDelta int    `json:"capacity_delta" validate:"min=-100,max=100"`
}

// TermTransitionResult summarises what a term transition preserved and reset.
type TermTransitionResult struct {
	CreatedCount int      `json:"created_count"`
	ClassIDs     []string `json:"class_ids"`
	Preserved    []string `json:"preserved"`
	Reset        []string `json:"reset"`
}
