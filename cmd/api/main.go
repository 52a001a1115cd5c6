package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	_ "github.com/campushq/sis-api/api/swagger"
	"github.com/campushq/sis-api/internal/repository"
	"github.com/campushq/sis-api/internal/router"
	"github.com/campushq/sis-api/internal/service"
	"github.com/campushq/sis-api/pkg/cache"
	"github.com/campushq/sis-api/pkg/config"
	"github.com/campushq/sis-api/pkg/database"
	"github.com/campushq/sis-api/pkg/jobs"
	"github.com/campushq/sis-api/pkg/logger"
	"github.com/campushq/sis-api/pkg/mailer"
)

// @title CampusHQ SIS API
// @version 1.0.0
// @description Student information system backend: admissions, people, scheduling, enrollment, attendance, grades and notifications.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	termRepo := repository.NewTermRepository(db)
	classRepo := repository.NewClassRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()

	mail := mailer.New(cfg.Mail, logr)
	mailQueue := jobs.NewQueue("mail", service.NewMailJobHandler(mail, logr), jobs.QueueConfig{
		Workers:    cfg.Registrations.MailWorkers,
		MaxRetries: cfg.Registrations.MailMaxRetries,
		RetryDelay: cfg.Registrations.MailRetryDelay,
		Logger:     logr,
	})

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	notificationService := service.NewNotificationService(notificationRepo, cacheRepo, cfg.Notifications.UnreadCountTTL, validate, logr)
	registrationService := service.NewRegistrationService(registrationRepo, notificationService, mailQueue, validate, logr)
	studentService := service.NewStudentService(studentRepo, validate, logr)
	teacherService := service.NewTeacherService(teacherRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, validate, logr)
	termService := service.NewTermService(termRepo, validate, logr)
	classService := service.NewClassService(classRepo, courseRepo, termRepo, validate, logr)
	sectionService := service.NewSectionService(sectionRepo, classRepo, validate, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, classRepo, validate, logr)
	gradeService := service.NewGradeService(gradeRepo, classRepo, notificationService, validate, logr)
	exportService := service.NewExportService(studentService, classService, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	engine := router.New(router.Deps{
		Config:        cfg,
		Logger:        logr,
		DB:            db,
		Cache:         redisClient,
		UserRepo:      userRepo,
		Auth:          authService,
		Users:         userService,
		Registrations: registrationService,
		Students:      studentService,
		Teachers:      teacherService,
		Courses:       courseService,
		Terms:         termService,
		Classes:       classService,
		Sections:      sectionService,
		Enrollments:   enrollmentService,
		Attendance:    attendanceService,
		Grades:        gradeService,
		Notifications: notificationService,
		Exports:       exportService,
		Metrics:       metricsService,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logr.Sugar().Warnw("failed to close redis", "error", err)
		}
	}
}
