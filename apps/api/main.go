package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	echoapi "github.com/edusign/screener/apps/api/echo"
	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/report"
	"github.com/edusign/screener/core/result"
	"github.com/edusign/screener/core/student"
	"github.com/edusign/screener/core/user"
	emailsvc "github.com/edusign/screener/services/email"
	logsvc "github.com/edusign/screener/services/logger"
	"github.com/edusign/screener/storage/database"
	sqlxrepos "github.com/edusign/screener/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)
	if err := run(std); err != nil {
		std.Fatalf("%+v", err)
	}
}

func run(std *log.Logger) error {
	conf, err := core.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = logsvc.NewStdLogger(std)
	}

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	if err = database.Ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, logger)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))
	assessmentSvc := assessment.NewService(sqlxrepos.NewAssessmentRepository(db))
	resultSvc := result.NewService(sqlxrepos.NewResultRepository(db))
	reportSvc := report.NewService(sqlxrepos.NewReportRepository(db), usrSvc, resultSvc)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       conf.Server.Address(),
			Logger:        logger,
			UserSvc:       usrSvc,
			StudentSvc:    studentSvc,
			AssessmentSvc: assessmentSvc,
			ResultSvc:     resultSvc,
			ReportSvc:     reportSvc,
		},
	)

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- app.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")
	case <-app.ShutdownSignal():
		std.Println("integrity issue detected: shutting down")
	case sig := <-quit:
		std.Printf("%v: shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		return errors.Wrap(err, "stopping server")
	}
	return nil
}
