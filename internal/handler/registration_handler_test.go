package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/middleware"
	"github.com/campushq/sis-api/internal/models"
	"github.com/campushq/sis-api/internal/service"
	"github.com/campushq/sis-api/pkg/jobs"
)

type registrationRepoStub struct {
	detail          *models.RegistrationDetail
	acceptedStudent *models.Student
}

func (s *registrationRepoStub) List(_ context.Context, _ models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	return nil, 0, nil
}

func (s *registrationRepoStub) FindByID(_ context.Context, _ string) (*models.RegistrationDetail, error) {
	return s.detail, nil
}

func (s *registrationRepoStub) Create(_ context.Context, reg *models.Registration) error {
	reg.ID = "reg-1"
	return nil
}

func (s *registrationRepoStub) Accept(_ context.Context, _ string, _ *string, student *models.Student) error {
	s.acceptedStudent = student
	s.detail.Status = models.RegistrationStatusAccepted
	return nil
}

func (s *registrationRepoStub) Reject(_ context.Context, _ string, _ *string) error {
	return nil
}

type enqueuerStub struct {
	jobs []jobs.Job
}

func (s *enqueuerStub) Enqueue(job jobs.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}

func buildRegistrationRouter(repo *registrationRepoStub, queue *enqueuerStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(middleware.ContextUserKey, &models.JWTClaims{
				UserID: "reviewer-1",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	svc := service.NewRegistrationService(repo, nil, queue, nil, nil)
	h := NewRegistrationHandler(svc)

	adminRegistrar := middleware.RBAC(string(models.RoleAdmin), string(models.RoleRegistrar))
	router.PUT("/registrations/:id/status", adminRegistrar, h.UpdateStatus)
	return router
}

func pendingDetail() *models.RegistrationDetail {
	email := "jane@example.com"
	return &models.RegistrationDetail{
		Registration: models.Registration{
			ID:            "reg-1",
			ApplicantName: "Jane Doe",
			BirthDate:     time.Date(2012, 4, 1, 0, 0, 0, 0, time.UTC),
			Email:         &email,
			DesiredGrade:  "7",
			Status:        models.RegistrationStatusPending,
		},
	}
}

func TestRegistrationStatusEndpoint(t *testing.T) {
	t.Run("accept creates student and queues mail", func(t *testing.T) {
		repo := &registrationRepoStub{detail: pendingDetail()}
		queue := &enqueuerStub{}
		router := buildRegistrationRouter(repo, queue)

		req, _ := http.NewRequest(http.MethodPut, "/registrations/reg-1/status", bytes.NewBufferString(`{"status":"accepted"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleRegistrar))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"ACCEPTED"`)
		require.NotNil(t, repo.acceptedStudent)
		require.Equal(t, "Jane Doe", repo.acceptedStudent.FullName)
		require.Len(t, queue.jobs, 1)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		router := buildRegistrationRouter(&registrationRepoStub{detail: pendingDetail()}, &enqueuerStub{})

		req, _ := http.NewRequest(http.MethodPut, "/registrations/reg-1/status", bytes.NewBufferString(`{"status":"pending"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing claims unauthorized", func(t *testing.T) {
		router := buildRegistrationRouter(&registrationRepoStub{detail: pendingDetail()}, &enqueuerStub{})

		req, _ := http.NewRequest(http.MethodPut, "/registrations/reg-1/status", bytes.NewBufferString(`{"status":"accepted"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("teacher forbidden", func(t *testing.T) {
		router := buildRegistrationRouter(&registrationRepoStub{detail: pendingDetail()}, &enqueuerStub{})

		req, _ := http.NewRequest(http.MethodPut, "/registrations/reg-1/status", bytes.NewBufferString(`{"status":"accepted"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTeacher))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
	})
}
