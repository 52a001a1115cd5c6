package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/handler"
	"github.com/campushq/sis-api/internal/middleware"
	"github.com/campushq/sis-api/internal/models"
	"github.com/campushq/sis-api/internal/repository"
	"github.com/campushq/sis-api/internal/service"
	"github.com/campushq/sis-api/pkg/config"
	"github.com/campushq/sis-api/pkg/logger"
	corsmiddleware "github.com/campushq/sis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/sis-api/pkg/middleware/requestid"
)

// Deps carries everything the router needs to wire routes.
type Deps struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Cache  *redis.Client

	UserRepo *repository.UserRepository

	Auth          *service.AuthService
	Users         *service.UserService
	Registrations *service.RegistrationService
	Students      *service.StudentService
	Teachers      *service.TeacherService
	Courses       *service.CourseService
	Terms         *service.TermService
	Classes       *service.ClassService
	Sections      *service.SectionService
	Enrollments   *service.EnrollmentService
	Attendance    *service.AttendanceService
	Grades        *service.GradeService
	Notifications *service.NotificationService
	Exports       *service.ExportService
	Metrics       *service.MetricsService
}

// New assembles the gin engine with all middleware and routes.
func New(d Deps) *gin.Engine {
	if d.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.Logger))
	r.Use(corsmiddleware.New(d.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.Metrics))

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	registrationHandler := handler.NewRegistrationHandler(d.Registrations)
	studentHandler := handler.NewStudentHandler(d.Students)
	teacherHandler := handler.NewTeacherHandler(d.Teachers)
	courseHandler := handler.NewCourseHandler(d.Courses)
	termHandler := handler.NewTermHandler(d.Terms)
	classHandler := handler.NewClassHandler(d.Classes)
	sectionHandler := handler.NewSectionHandler(d.Sections)
	enrollmentHandler := handler.NewEnrollmentHandler(d.Enrollments)
	attendanceHandler := handler.NewAttendanceHandler(d.Attendance)
	gradeHandler := handler.NewGradeHandler(d.Grades)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	exportHandler := handler.NewExportHandler(d.Exports)
	metricsHandler := handler.NewMetricsHandler(d.Metrics, d.DB, d.Cache)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)

	if d.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.Config.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Admission applications come in from the public site without a token.
	api.POST("/registrations", registrationHandler.Create)

	authed := api.Group("")
	authed.Use(middleware.JWT(d.Auth))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	adminRegistrar := middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar)
	teaching := middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar, models.RoleTeacher)
	anyStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar, models.RoleTeacher, models.RoleStaff)

	users := authed.Group("/users")
	{
		users.GET("", adminOnly, userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", adminOnly, middleware.Audit(d.UserRepo, "create", "user"), userHandler.Create)
		users.DELETE("/:id", adminOnly, middleware.Audit(d.UserRepo, "deactivate", "user"), userHandler.Deactivate)
	}

	registrations := authed.Group("/registrations")
	{
		registrations.GET("", adminRegistrar, registrationHandler.List)
		registrations.GET("/:id", adminRegistrar, registrationHandler.Get)
		registrations.POST("/:id/accept", adminRegistrar, middleware.Audit(d.UserRepo, "accept", "registration"), registrationHandler.Accept)
		registrations.POST("/:id/reject", adminRegistrar, middleware.Audit(d.UserRepo, "reject", "registration"), registrationHandler.Reject)
		registrations.PUT("/:id/status", adminRegistrar, middleware.Audit(d.UserRepo, "review", "registration"), registrationHandler.UpdateStatus)
	}

	students := authed.Group("/students")
	{
		students.GET("", anyStaff, studentHandler.List)
		students.GET("/export", adminRegistrar, exportHandler.StudentsCSV)
		students.GET("/:id", anyStaff, studentHandler.Get)
		students.POST("", adminRegistrar, middleware.Audit(d.UserRepo, "create", "student"), studentHandler.Create)
		students.PUT("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "update", "student"), studentHandler.Update)
		students.DELETE("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "withdraw", "student"), studentHandler.Delete)
	}

	teachers := authed.Group("/teachers")
	{
		teachers.GET("", anyStaff, teacherHandler.List)
		teachers.GET("/:id", anyStaff, teacherHandler.Get)
		teachers.POST("", adminOnly, middleware.Audit(d.UserRepo, "create", "teacher"), teacherHandler.Create)
		teachers.PUT("/:id", adminOnly, middleware.Audit(d.UserRepo, "update", "teacher"), teacherHandler.Update)
		teachers.DELETE("/:id", adminOnly, middleware.Audit(d.UserRepo, "deactivate", "teacher"), teacherHandler.Delete)
	}

	courses := authed.Group("/courses")
	{
		courses.GET("", anyStaff, courseHandler.List)
		courses.GET("/:id", anyStaff, courseHandler.Get)
		courses.POST("", adminRegistrar, middleware.Audit(d.UserRepo, "create", "course"), courseHandler.Create)
		courses.PUT("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "update", "course"), courseHandler.Update)
		courses.DELETE("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "delete", "course"), courseHandler.Delete)
	}

	terms := authed.Group("/terms")
	{
		terms.GET("", anyStaff, termHandler.List)
		terms.GET("/current", anyStaff, termHandler.Current)
		terms.POST("/transition", adminRegistrar, middleware.Audit(d.UserRepo, "transition", "term"), classHandler.TransitionTerm)
		terms.GET("/:id", anyStaff, termHandler.Get)
		terms.POST("", adminRegistrar, middleware.Audit(d.UserRepo, "create", "term"), termHandler.Create)
		terms.PUT("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "update", "term"), termHandler.Update)
		terms.POST("/:id/current", adminRegistrar, middleware.Audit(d.UserRepo, "set-current", "term"), termHandler.SetCurrent)
		terms.DELETE("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "delete", "term"), termHandler.Delete)
	}

	classes := authed.Group("/classes")
	{
		classes.GET("", anyStaff, classHandler.List)
		classes.GET("/:id", anyStaff, classHandler.Get)
		classes.GET("/:id/roster", teaching, classHandler.Roster)
		classes.GET("/:id/roster/export", teaching, exportHandler.RosterPDF)
		classes.POST("", adminRegistrar, middleware.Audit(d.UserRepo, "create", "class"), classHandler.Create)
		classes.POST("/batch", adminRegistrar, middleware.Audit(d.UserRepo, "batch-create", "class"), classHandler.CreateBatch)
		classes.POST("/schedule/batch", adminRegistrar, middleware.Audit(d.UserRepo, "batch-schedule", "class"), classHandler.AdjustScheduleBatch)
		classes.PUT("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "update", "class"), classHandler.Update)
		classes.DELETE("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "delete", "class"), classHandler.Delete)
	}

	sections := authed.Group("/classes/sections")
	{
		sections.GET("", anyStaff, sectionHandler.List)
		sections.GET("/:id", anyStaff, sectionHandler.Get)
		sections.POST("", adminRegistrar, middleware.Audit(d.UserRepo, "create", "section"), sectionHandler.Create)
		sections.PUT("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "update", "section"), sectionHandler.Update)
		sections.DELETE("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "delete", "section"), sectionHandler.Delete)
	}

	enrollments := authed.Group("/enrollments")
	{
		enrollments.GET("", anyStaff, enrollmentHandler.List)
		enrollments.POST("", adminRegistrar, middleware.Audit(d.UserRepo, "enroll", "enrollment"), enrollmentHandler.Enroll)
		enrollments.DELETE("/:id", adminRegistrar, middleware.Audit(d.UserRepo, "drop", "enrollment"), enrollmentHandler.Drop)
	}

	attendance := authed.Group("/attendance")
	{
		attendance.GET("", teaching, attendanceHandler.List)
		attendance.POST("/bulk", teaching, attendanceHandler.RecordBulk)
	}

	grades := authed.Group("/grades")
	{
		grades.GET("", teaching, gradeHandler.List)
		grades.POST("/bulk", teaching, gradeHandler.RecordBulk)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		notifications.GET("/preferences", notificationHandler.GetPreferences)
		notifications.PUT("/preferences", notificationHandler.UpdatePreferences)
	}

	authed.GET("/metrics", adminOnly, metricsHandler.Prometheus)

	return r
}
