package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
	ListByTerm(ctx context.Context, termID string) ([]models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	CreateBatch(ctx context.Context, classes []*models.Class) error
	Update(ctx context.Context, class *models.Class) error
	AdjustScheduleBatch(ctx context.Context, req models.ScheduleBatchRequest) (int, error)
	CountDependents(ctx context.Context, classID string) (enrollments, sections int, err error)
	Delete(ctx context.Context, id string) error
	Roster(ctx context.Context, classID string) ([]models.RosterEntry, error)
}

type classCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type classTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// ClassRequest holds payload for creating and updating classes.
type ClassRequest struct {
	CourseID  string             `json:"course_id" validate:"required"`
	TermID    string             `json:"term_id" validate:"required"`
	TeacherID *string            `json:"teacher_id"`
	Room      string             `json:"room" validate:"required"`
	Building  string             `json:"building"`
	DayOfWeek string             `json:"day_of_week" validate:"required"`
	StartTime string             `json:"start_time" validate:"required"`
	EndTime   string             `json:"end_time" validate:"required"`
	Capacity  int                `json:"capacity" validate:"required,min=1,max=500"`
	Status    models.ClassStatus `json:"status"`
}

// ClassService handles class scheduling use-cases, including the batch
// operations used during term setup.
type ClassService struct {
	repo      classRepository
	courses   classCourseReader
	terms     classTermReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, courses classCourseReader, terms classTermReader, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, courses: courses, terms: terms, validator: validate, logger: logger}
}

// List returns classes and pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a class by ID with its course, term and teacher context.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *ClassService) checkReferences(ctx context.Context, courseID, termID string) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "course does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course")
	}
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "term does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term")
	}
	return nil
}

// Create schedules a single class.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown class status")
	}
	if err := s.checkReferences(ctx, req.CourseID, req.TermID); err != nil {
		return nil, err
	}
	class := &models.Class{
		CourseID:  req.CourseID,
		TermID:    req.TermID,
		TeacherID: req.TeacherID,
		Room:      req.Room,
		Building:  req.Building,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Capacity:  req.Capacity,
		Status:    req.Status,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return s.Get(ctx, class.ID)
}

// Update modifies a scheduled class.
func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown class status")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.CourseID, req.TermID); err != nil {
		return nil, err
	}
	class := detail.Class
	class.CourseID = req.CourseID
	class.TermID = req.TermID
	class.TeacherID = req.TeacherID
	class.Room = req.Room
	class.Building = req.Building
	class.DayOfWeek = req.DayOfWeek
	class.StartTime = req.StartTime
	class.EndTime = req.EndTime
	class.Capacity = req.Capacity
	if req.Status != "" {
		class.Status = req.Status
	}
	if err := s.repo.Update(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return s.Get(ctx, id)
}

// Delete removes a class that has no active enrollments or sections.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	enrollments, sections, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class dependents")
	}
	if enrollments > 0 {
		return appErrors.Clone(appErrors.ErrHasDependents, "class has enrolled students")
	}
	if sections > 0 {
		return appErrors.Clone(appErrors.ErrHasDependents, "class has sections")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

// CreateBatch schedules SectionsPerCourse classes for every listed course in
// one transaction. Rooms are named "<prefix>-<n>" with a running sequence.
func (s *ClassService) CreateBatch(ctx context.Context, req models.BatchClassCreateRequest) (*models.BatchClassCreateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "term does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term")
	}

	classes := make([]*models.Class, 0, len(req.CourseIDs)*req.SectionsPerCourse)
	seq := 0
	for _, courseID := range req.CourseIDs {
		if _, err := s.courses.FindByID(ctx, courseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s does not exist", courseID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course")
		}
		for i := 0; i < req.SectionsPerCourse; i++ {
			seq++
			classes = append(classes, &models.Class{
				CourseID:  courseID,
				TermID:    req.TermID,
				Room:      fmt.Sprintf("%s-%d", req.RoomPrefix, seq),
				Building:  req.Building,
				DayOfWeek: req.DayOfWeek,
				StartTime: req.StartTime,
				EndTime:   req.EndTime,
				Capacity:  req.DefaultCapacity,
			})
		}
	}

	if err := s.repo.CreateBatch(ctx, classes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class batch")
	}

	result := &models.BatchClassCreateResult{CreatedCount: len(classes), ClassIDs: make([]string, 0, len(classes))}
	for _, class := range classes {
		result.ClassIDs = append(result.ClassIDs, class.ID)
	}
	return result, nil
}

// AdjustScheduleBatch applies one uniform room or time change across classes.
func (s *ClassService) AdjustScheduleBatch(ctx context.Context, req models.ScheduleBatchRequest) (*models.ScheduleBatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule batch payload")
	}
	switch req.Kind {
	case models.AdjustmentKindRoom:
		if req.Room == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "room is required for a room adjustment")
		}
	case models.AdjustmentKindTime:
		if req.DayOfWeek == "" || req.StartTime == "" || req.EndTime == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day, start and end times are required for a time adjustment")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "adjustment kind must be room or time")
	}

	updated, err := s.repo.AdjustScheduleBatch(ctx, req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to adjust schedules")
	}
	return &models.ScheduleBatchResult{UpdatedCount: updated}, nil
}

// TransitionTerm clones the source term's classes into the target term.
// Teacher, room and schedule assignments are preserved or reset according to
// the request toggles; enrollments are never carried over.
func (s *ClassService) TransitionTerm(ctx context.Context, req models.TermTransitionRequest) (*models.TermTransitionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	if req.SourceTermID == req.TargetTermID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source and target terms must differ")
	}
	for _, termID := range []string{req.SourceTermID, req.TargetTermID} {
		if _, err := s.terms.FindByID(ctx, termID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("term %s does not exist", termID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term")
		}
	}

	source, err := s.repo.ListByTerm(ctx, req.SourceTermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load source term classes")
	}
	if len(source) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source term has no classes")
	}

	clones := make([]*models.Class, 0, len(source))
	for _, class := range source {
		clone := &models.Class{
			CourseID: class.CourseID,
			TermID:   req.TargetTermID,
			Capacity: class.Capacity + req.CapacityDelta,
		}
		if clone.Capacity < 1 {
			clone.Capacity = 1
		}
		if req.KeepTeachers {
			clone.TeacherID = class.TeacherID
		}
		if req.KeepRooms {
			clone.Room = class.Room
			clone.Building = class.Building
		}
		if req.KeepSchedules {
			clone.DayOfWeek = class.DayOfWeek
			clone.StartTime = class.StartTime
			clone.EndTime = class.EndTime
		}
		clones = append(clones, clone)
	}

	if err := s.repo.CreateBatch(ctx, clones); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create target term classes")
	}

	result := &models.TermTransitionResult{CreatedCount: len(clones), ClassIDs: make([]string, 0, len(clones))}
	for _, clone := range clones {
		result.ClassIDs = append(result.ClassIDs, clone.ID)
	}
	for _, toggle := range []struct {
		name string
		keep bool
	}{
		{"teachers", req.KeepTeachers},
		{"rooms", req.KeepRooms},
		{"schedules", req.KeepSchedules},
	} {
		if toggle.keep {
			result.Preserved = append(result.Preserved, toggle.name)
		} else {
			result.Reset = append(result.Reset, toggle.name)
		}
	}
	result.Reset = append(result.Reset, "enrollments")
	return result, nil
}

// Roster lists a class's enrolled and waitlisted students.
func (s *ClassService) Roster(ctx context.Context, classID string) (*models.ClassDetail, []models.RosterEntry, error) {
	class, err := s.Get(ctx, classID)
	if err != nil {
		return nil, nil, err
	}
	roster, err := s.repo.Roster(ctx, classID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return class, roster, nil
}
