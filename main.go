// Package main library loan API.
//
// @title           Library Loan API
// @version         1.0
// @description     Library service: authors, books, loans, stats.
// @BasePath        /
// @schemes         http
package main

import (
	"context"
	"log/slog"
	"os"

	"biblio/app/echoServer"
	authorctrl "biblio/app/echoServer/controller/author"
	bookctrl "biblio/app/echoServer/controller/book"
	loanctrl "biblio/app/echoServer/controller/loan"
	statsctrl "biblio/app/echoServer/controller/stats"
	"biblio/app/echoServer/validation"
	"biblio/config"
	authorrepo "biblio/repository/author"
	bookrepo "biblio/repository/book"
	loanrepo "biblio/repository/loan"
	statsrepo "biblio/repository/stats"
	authorsvc "biblio/service/author"
	booksvc "biblio/service/book"
	loansvc "biblio/service/loan"
	statssvc "biblio/service/stats"
	"biblio/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	// repos
	ar := authorrepo.New(db)
	br := bookrepo.New(db)
	lr := loanrepo.New(db)
	sr := statsrepo.New(db)

	// services
	as := authorsvc.New(ar)
	bs := booksvc.New(db, br)
	ls := loansvc.New(db, lr, br, cfg.Loans)
	ss := statssvc.New(sr)

	// controllers
	v := validator.New()
	authorC := &authorctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	loanC := &loanctrl.Controller{Svc: ls, V: v, Log: log}
	statsC := &statsctrl.Controller{Svc: ss, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Author: authorC,
		Book:   bookC,
		Loan:   loanC,
		Stats:  statsC,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
