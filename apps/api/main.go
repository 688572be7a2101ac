package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/onboardme/backend/apps/api/echo"
	"github.com/onboardme/backend/core"
	"github.com/onboardme/backend/core/content"
	"github.com/onboardme/backend/core/course"
	"github.com/onboardme/backend/core/exam"
	"github.com/onboardme/backend/core/metrics"
	"github.com/onboardme/backend/core/notification"
	"github.com/onboardme/backend/core/user"
	emailsvc "github.com/onboardme/backend/services/email"
	logsvc "github.com/onboardme/backend/services/logger"
	"github.com/onboardme/backend/storage/database"
	sqlxrepos "github.com/onboardme/backend/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	crsRepo := sqlxrepos.NewCourseRepository(db)
	enrRepo := sqlxrepos.NewEnrollmentRepository(db)
	cntRepo := sqlxrepos.NewContentRepository(db)
	exmRepo := sqlxrepos.NewExamRepository(db)
	ntfRepo := sqlxrepos.NewNotificationRepository(db)

	notifSvc := notification.NewService(ntfRepo)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	crsSvc := course.NewService(crsRepo, enrRepo, usrRepo, notifSvc)
	contentSvc := content.NewService(cntRepo, crsRepo)
	examSvc := exam.NewService(exmRepo, cntRepo, crsRepo, crsSvc, usrRepo)
	metricsSvc := metrics.NewService(enrRepo, crsRepo, usrRepo, crsSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:    conf.ServerAddress(),
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		UserSvc:    usrSvc,
		CourseSvc:  crsSvc,
		ContentSvc: contentSvc,
		ExamSvc:    examSvc,
		MetricsSvc: metricsSvc,
		NotifSvc:   notifSvc,
		SignalShutdown: func() {
			shutdown <- syscall.SIGTERM
		},
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
