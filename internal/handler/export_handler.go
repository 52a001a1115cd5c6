package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/sis-api/internal/service"
	"github.com/campushq/sis-api/pkg/response"
)

// ExportHandler exposes file export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

func writeFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// StudentsCSV godoc
// @Summary Export the student list as CSV
// @Tags Exports
// @Produce text/csv
// @Param search query string false "Search by name or email"
// @Param grade query string false "Filter by grade level"
// @Param status query string false "Filter by status"
// @Success 200 {string} string "CSV file"
// @Security BearerAuth
// @Router /students/export [get]
func (h *ExportHandler) StudentsCSV(c *gin.Context) {
	file, err := h.exports.StudentsCSV(c.Request.Context(), studentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeFile(c, file)
}

// RosterPDF godoc
// @Summary Export a class roster as PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Class ID"
// @Success 200 {string} string "PDF file"
// @Security BearerAuth
// @Router /classes/{id}/roster/export [get]
func (h *ExportHandler) RosterPDF(c *gin.Context) {
	file, err := h.exports.RosterPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeFile(c, file)
}
