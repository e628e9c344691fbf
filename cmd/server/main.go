package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/surveypipe/surveypipe/internal/api"
	"github.com/surveypipe/surveypipe/internal/config"
	dbstore "github.com/surveypipe/surveypipe/internal/db"
	"github.com/surveypipe/surveypipe/internal/middleware"
	"github.com/surveypipe/surveypipe/internal/queue"
	"github.com/surveypipe/surveypipe/internal/services"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	stores, cleanup, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	auth := middleware.NewAuth(cfg.Auth.JWTSecret)

	userService := services.NewUserService(stores.users, auth.SignToken, cfg.Auth.TokenTTL)
	questionnaireService := services.NewQuestionnaireService(stores.questionnaires, stores.users)

	q := queue.New(cfg.Queue.Buffer, cfg.Queue.MaxAttempts)
	submissionService := services.NewSubmissionService(
		stores.submissions, stores.questionnaires, stores.users, q)
	processor := services.NewProcessor(stores.submissions, stores.questionnaires)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		q.Run(ctx, processor.Handle)
	}()

	mux := http.NewServeMux()
	api.NewRouter(userService, questionnaireService, submissionService).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "name": "SurveyPipe API"})
	})

	handler := middleware.SecureHeaders(middleware.CORS(auth.WithAuth(mux)))
	server := &http.Server{Addr: cfg.Server.Addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("SurveyPipe server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	q.Close()
	<-workerDone
	return nil
}

type storeSet struct {
	questionnaires services.QuestionnaireStore
	submissions    services.SubmissionStore
	users          services.UserStore
}

func openStores(cfg *config.Config) (*storeSet, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		m := dbstore.NewMemoryStore()
		return &storeSet{questionnaires: m, submissions: m, users: m}, func() {}, nil
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", cfg.Database.DSN)
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := dbstore.RunMigrations(sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		store, err := dbstore.NewSQLiteStore(sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("close sqlite db: %v", err)
			}
		}
		return &storeSet{questionnaires: store, submissions: store, users: store}, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
