package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/liftlog/liftlog/internal/backup"
	"github.com/liftlog/liftlog/internal/chat"
	"github.com/liftlog/liftlog/internal/envstruct"
	"github.com/liftlog/liftlog/internal/errors"
	"github.com/liftlog/liftlog/internal/logging"
	"github.com/liftlog/liftlog/internal/profile"
	"github.com/liftlog/liftlog/internal/series"
	"github.com/liftlog/liftlog/internal/sqlite"
	"github.com/liftlog/liftlog/internal/withings"
	"github.com/liftlog/liftlog/internal/workout"
)

const appVersion = "1.0"

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	workouts       *workout.Service
	profiles       *profile.Service
	trackers       *series.Service
	chats          *chat.Service
	withingsSync   *withings.Service
	backups        *backup.Service
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"LIFTLOG_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"LIFTLOG_SQLITE_URL" envDefault:"./liftlog.sqlite3"`
	// OpenAIKey authorizes the AI chat and workout generation endpoints.
	OpenAIKey string `env:"OPENAI_API_KEY" envDefault:""`
	// WithingsClientID and WithingsClientSecret identify the app towards the Withings token API.
	WithingsClientID     string `env:"LIFTLOG_WITHINGS_CLIENT_ID" envDefault:""`
	WithingsClientSecret string `env:"LIFTLOG_WITHINGS_CLIENT_SECRET" envDefault:""`
	// WithingsBaseURL overrides the Withings API host, mainly for testing.
	WithingsBaseURL string `env:"LIFTLOG_WITHINGS_BASE_URL" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	app := newApplication(cfg, db, logger)
	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func newApplication(cfg config, db *sqlite.Database, logger *slog.Logger) *application {
	workouts := workout.NewService(db, logger)
	profiles := profile.NewService(db, logger)
	withingsClient := withings.NewClient(withings.ClientConfig{
		BaseURL:      cfg.WithingsBaseURL,
		ClientID:     cfg.WithingsClientID,
		ClientSecret: cfg.WithingsClientSecret,
	}, logger)

	return &application{
		logger:         logger,
		sessionManager: initializeSessionManager(db),
		workouts:       workouts,
		profiles:       profiles,
		trackers:       series.NewService(db, logger),
		chats:          chat.NewService(cfg.OpenAIKey, workouts, logger),
		withingsSync:   withings.NewService(withingsClient, db, profiles, logger),
		backups:        backup.NewService(db, appVersion, logger),
	}
}

func initializeSessionManager(dbs *sqlite.Database) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 12 * time.Hour                                                //nolint:mnd // half a day
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
