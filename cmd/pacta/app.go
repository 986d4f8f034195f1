package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/pacta/internal/db"
	"github.com/nkiryanov/pacta/internal/handlers"
	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/repository"
	"github.com/nkiryanov/pacta/internal/repository/mongodb"
	"github.com/nkiryanov/pacta/internal/repository/postgres"
	"github.com/nkiryanov/pacta/internal/service/archive"
	"github.com/nkiryanov/pacta/internal/service/debt"
	"github.com/nkiryanov/pacta/internal/service/push"
	"github.com/nkiryanov/pacta/internal/service/reminder"
	"github.com/nkiryanov/pacta/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	ListenAddr string
	Handler    http.Handler
	Scheduler  *reminder.Scheduler

	logger logger.Logger
	close  func()
}

func NewApp(ctx context.Context, c *Config) (*App, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	storage, closeStorage, err := openStorage(ctx, c)
	if err != nil {
		return nil, err
	}

	sender, err := newSender(ctx, c, l)
	if err != nil {
		closeStorage()
		return nil, err
	}

	opts := []reminder.Option{reminder.WithPushWorkers(c.PushWorkers)}
	if c.S3Endpoint != "" {
		a, err := archive.Connect(ctx, archive.ConnectionInfo{
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			UseSSL:    c.S3UseSSL,
		}, l)
		if err != nil {
			closeStorage()
			return nil, err
		}
		opts = append(opts, reminder.WithArchive(a))
	}

	// Initialize services
	processor := reminder.NewProcessor(storage, sender, c.Location(), l, opts...)
	scheduler, err := reminder.NewScheduler(c.ReminderSchedule, c.Location(), processor, l)
	if err != nil {
		closeStorage()
		return nil, err
	}
	userService := user.NewService(storage.User(), storage.Notification())
	debtService := debt.NewService(storage, sender, l)

	mux := handlers.NewRouter(userService, debtService, processor, storage, l)

	return &App{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Scheduler:  scheduler,
		logger:     l,
		close:      closeStorage,
	}, nil
}

func openStorage(ctx context.Context, c *Config) (repository.Storage, func(), error) {
	switch c.StorageDriver {
	case StorageDriverMongo:
		mdb, err := db.ConnectMongoAndIndex(ctx, c.MongoURI, c.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("error while connecting to mongo. Err: %w", err)
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = mdb.Client().Disconnect(ctx)
		}
		return mongodb.NewStorage(mdb), closeFn, nil

	default:
		// Connect to the database and run migrations
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		return postgres.NewStorage(pool), pool.Close, nil
	}
}

// Device tokens go to FCM, "telegram:" tokens to the bot. Not configured services only log messages
func newSender(ctx context.Context, c *Config, l logger.Logger) (push.Sender, error) {
	logSender := push.LogSender{Logger: l}

	var fallback push.Sender = logSender
	if c.FirebaseCredentials != "" {
		fcm, err := push.NewFCMSender(ctx, c.FirebaseCredentials, l)
		if err != nil {
			return nil, err
		}
		fallback = fcm
	}

	var telegram push.Sender = logSender
	if c.TelegramBotToken != "" {
		tg, err := push.NewTelegramSender(c.TelegramBotToken, l)
		if err != nil {
			return nil, err
		}
		telegram = tg
	}

	return push.NewRouter(fallback).Handle(push.TelegramPrefix, telegram), nil
}

// Run starts scheduler and http server; both stop gracefully on context cancellation
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	httpServer := &http.Server{
		Addr:    a.ListenAddr,
		Handler: a.Handler,
	}

	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	schedulerStopped := a.Scheduler.Start(srvCtx)

	idleConnsClosed := make(chan struct{})
	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			a.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		a.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	a.logger.Info("Starting server", "address", a.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-schedulerStopped

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
