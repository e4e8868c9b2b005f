package app

import (
	"context"
	"database/sql"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/linemk/storefront/internal/config"
	"github.com/linemk/storefront/internal/payment"
	"github.com/linemk/storefront/internal/storage/objectstore"
	"github.com/pkg/errors"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sql.DB
	Objects objectstore.ObjectStorage
	Gateway payment.Gateway
}

// NewApp создаёт новый экземпляр App: подключение к БД, объектное хранилище и платёжный шлюз
func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	app := &App{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Gateway: payment.NewStripeGateway(cfg.Payment),
	}

	// без endpoint загрузка фото отключена, остальное API работает
	if cfg.Storage.Endpoint != "" {
		objects, err := objectstore.NewMinioStorage(ctx, cfg.Storage)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to init object storage")
		}
		app.Objects = objects
	} else {
		log.Warn("object storage is not configured, photo upload disabled")
	}

	return app, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
