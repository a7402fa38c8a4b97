package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"course_review/internal/adapters/appwrite"
	server "course_review/internal/adapters/http_server"
	"course_review/internal/adapters/observability"
	redisad "course_review/internal/adapters/redis"
	"course_review/internal/app"
	"course_review/internal/authstate"
	"course_review/internal/domain"
	"course_review/internal/shared"
	mysqlstore "course_review/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// auth always talks to the managed service, whichever document store runs
	client, err := appwrite.New(cfg.AppwriteEndpoint, cfg.AppwriteProject, cfg.AppwriteKey, cfg.AppwriteRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize appwrite client")
	}
	sessions := appwrite.NewAccount(client)

	var store domain.DocumentStore
	switch cfg.Backend {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		store = mysqlstore.New(db)
	default:
		docs, err := appwrite.NewDocuments(client, cfg.AppwriteDB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize document store")
		}
		store = docs
	}

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ratings := app.NewRatingService(store, cache)
	queries := app.NewCourseQueryService(store, cache, cfg.CacheTTL)

	auth := authstate.New(sessions)
	go auth.Init(ctx) // resolve the session in the background; guards answer 503 until it lands

	workflow := app.NewSubmissionWorkflow(ratings, auth, cfg.MinReviewChars)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q: queries, R: ratings, W: workflow, Auth: auth,
		OAuthSuccessURL: cfg.OAuthSuccessURL,
		OAuthFailureURL: cfg.OAuthFailureURL,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.Backend).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
