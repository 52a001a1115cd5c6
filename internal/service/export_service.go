package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
	"github.com/campushq/sis-api/pkg/export"
)

type exportStudentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error)
}

type exportRosterReader interface {
	Roster(ctx context.Context, classID string) (*models.ClassDetail, []models.RosterEntry, error)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders student and roster exports.
type ExportService struct {
	students exportStudentLister
	classes  exportRosterReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(students exportStudentLister, classes exportRosterReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students: students,
		classes:  classes,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// StudentsCSV exports the filtered student list as CSV. The page size is
// raised to the maximum so one page covers typical exports.
func (s *ExportService) StudentsCSV(ctx context.Context, filter models.StudentFilter) (*ExportFile, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	students, _, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Columns: []export.Column{
			{Header: "ID", Key: "id"},
			{Header: "Full Name", Key: "name"},
			{Header: "Email", Key: "email"},
			{Header: "Grade", Key: "grade"},
			{Header: "Status", Key: "status"},
			{Header: "Guardian", Key: "guardian"},
			{Header: "Guardian Phone", Key: "guardian_phone"},
		},
	}
	for _, student := range students {
		email := ""
		if student.Email != nil {
			email = *student.Email
		}
		data.Rows = append(data.Rows, map[string]string{
			"id":             student.ID,
			"name":           student.FullName,
			"email":          email,
			"grade":          student.GradeLevel,
			"status":         string(student.Status),
			"guardian":       student.GuardianName,
			"guardian_phone": student.GuardianPhone,
		})
	}

	content, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render student export")
	}
	return &ExportFile{
		FileName:    "students.csv",
		ContentType: "text/csv",
		Content:     content,
	}, nil
}

// RosterPDF exports a class roster as PDF.
func (s *ExportService) RosterPDF(ctx context.Context, classID string) (*ExportFile, error) {
	class, roster, err := s.classes.Roster(ctx, classID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Columns: []export.Column{
			{Header: "Student", Key: "student"},
			{Header: "Email", Key: "email"},
			{Header: "Grade", Key: "grade"},
			{Header: "Status", Key: "status"},
			{Header: "Section", Key: "section"},
		},
	}
	for _, entry := range roster {
		section := ""
		if entry.SectionName != nil {
			section = *entry.SectionName
		}
		data.Rows = append(data.Rows, map[string]string{
			"student": entry.FullName,
			"email":   entry.Email,
			"grade":   entry.GradeLevel,
			"status":  string(entry.Status),
			"section": section,
		})
	}

	title := fmt.Sprintf("%s %s roster", class.CourseCode, class.TermName)
	content, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}
	fileName := fmt.Sprintf("roster-%s.pdf", strings.ToLower(class.CourseCode))
	return &ExportFile{
		FileName:    fileName,
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}
