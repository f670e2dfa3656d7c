package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"padsync-server/internal/config"
	"padsync-server/internal/handler"
	"padsync-server/internal/middleware"
	"padsync-server/internal/repository"
	"padsync-server/internal/service"
	"padsync-server/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "padsync-server",
	Short: "Collaborative note pad synchronization server",
	Long: `padsync-server persists URL-addressed notes as their owners type,
keeps an explicit version history per note, and gates protected notes
behind bcrypt-hashed passwords.`,
	RunE: runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func openStores(cfg *config.Config, logger zerolog.Logger) (repository.NoteRepository, repository.VersionRepository, func(), error) {
	switch cfg.Store.Backend {
	case "bolt":
		store, err := repository.NewBoltStore(cfg.Store.BoltPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open embedded store: %w", err)
		}
		logger.Info().Str("path", cfg.Store.BoltPath).Msg("using embedded store")
		return store.Notes(), store.Versions(), func() { store.Close() }, nil

	case "couch":
		couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
		)

		client, err := kivik.New("couch", couchURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
		}

		exists, err := client.DBExists(context.Background(), cfg.Database.Name)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to check database existence: %w", err)
		}
		if !exists {
			if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
				return nil, nil, nil, fmt.Errorf("failed to create database: %w", err)
			}
			logger.Info().Str("database", cfg.Database.Name).Msg("created database")
		}

		logger.Info().Str("host", cfg.Database.Host).Str("port", cfg.Database.Port).Msg("using CouchDB store")
		return repository.NewCouchNoteRepository(client, cfg.Database.Name),
			repository.NewCouchVersionRepository(client, cfg.Database.Name),
			func() { client.Close() },
			nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Logging.Level)

	noteRepo, versionRepo, closeStore, err := openStores(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	versionService := service.NewVersionService(noteRepo, versionRepo, cfg.Session.VersionHistoryLimit)
	sessionService := service.NewSessionService(noteRepo, versionService, cfg.Session.SaveDebounce)
	accessService := service.NewAccessService(noteRepo, cfg.Access.BcryptCost, cfg.Access.UnlockSecret, cfg.Access.UnlockTTL)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerNote,
		cfg.WebSocket.MaxMessageSize,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
		logger,
	)
	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler(versionService))
	go wsManager.Run()

	noteHandler := handler.NewNoteHandler(sessionService, accessService)
	versionHandler := handler.NewVersionHandler(sessionService, versionService, accessService)
	accessHandler := handler.NewAccessHandler(sessionService, accessService)
	wsHandler := handler.NewWebSocketHandler(wsManager, sessionService, accessService, logger)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/notes", noteHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/notes/{id}", noteHandler.Open).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}", noteHandler.Save).Methods("PUT", "OPTIONS")

	api.HandleFunc("/notes/{id}/versions", versionHandler.Snapshot).Methods("POST", "OPTIONS")
	api.HandleFunc("/notes/{id}/versions", versionHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}/versions/{number}", versionHandler.Restore).Methods("GET", "OPTIONS")

	api.HandleFunc("/notes/{id}/password", accessHandler.SetPassword).Methods("POST", "OPTIONS")
	api.HandleFunc("/notes/{id}/password", accessHandler.RemovePassword).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/notes/{id}/unlock", accessHandler.Unlock).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Server.Env).Msg("starting padsync server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped gracefully")
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"padsync-server"}`))
}
