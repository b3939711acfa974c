package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/imagix/accounts"
	"github.com/imagix/accounts/mailer"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	appLog := lgr.GetLogger("main")

	cfg := ConfigFromEnv()
	if cfg.SigningKey == "" {
		appLog.Error("TOKEN_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := setupPersistence(ctx, cfg, lgr)
	if err != nil {
		appLog.Error("persistence setup failed", "error", err)
		os.Exit(1)
	}

	repo := accounts.NewRepositoryManager(db)

	tokens := accounts.NewTokenServiceFromConfig(cfg, lgr.GetLogger("tokens"))

	sender, err := mailer.NewSMTPSender(cfg.SMTP)
	if err != nil {
		appLog.Error("mailer setup failed", "error", err)
		os.Exit(1)
	}

	dispatcher := mailer.NewDispatcher(sender,
		mailer.WithLogger(lgr.GetLogger("mailer")),
	)
	defer dispatcher.Close()

	auth := accounts.NewCoordinator(repo, tokens, dispatcher,
		accounts.WithLogger(lgr.GetLogger("auth")),
		accounts.WithConfig(cfg),
	)

	controller := accounts.NewHTTPController(auth, tokens,
		accounts.WithControllerLogger(lgr.GetLogger("http")),
		accounts.WithControllerDebug(cfg.Debug),
	)

	app := fiber.New(fiber.Config{
		AppName: "imagix-accounts",
	})

	accounts.RegisterRoutes(app, controller)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			appLog.Error("server stopped", "error", err)
		}
	}()

	appLog.Info("listening", "addr", cfg.ListenAddr)

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		appLog.Error("shutdown error", "error", err)
	}
}

func setupPersistence(ctx context.Context, cfg *Config, lgr *glog.BaseLogger) (*bun.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.Persistence.GetDSN())
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*accounts.User)(nil))

	client, err := persistence.New(cfg.GetPersistence(), db, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	client.SetLogger(lgr.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return client.DB(), nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
