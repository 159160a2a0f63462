package main

import (
	"context"

	"mindhaven/config"
	"mindhaven/cron"
	"mindhaven/database"
	"mindhaven/database/repository"
	"mindhaven/services/lifecycle"
	"mindhaven/services/meeting"
	"mindhaven/services/notification"
	"mindhaven/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// openStores connects the record store selected by DB_DRIVER.
func openStores(cfg config.Config, logger *zap.Logger) (*repository.Stores, []utils.Pinger, func()) {
	switch cfg.DBDriver {
	case "postgres", "sqlite":
		db, err := database.OpenGorm(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("main: failed to open SQL store", zap.Error(err))
		}
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("main: failed to migrate SQL store", zap.Error(err))
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return repository.NewGormStores(db), []utils.Pinger{database.GormPinger(db)}, closeFn

	default:
		database.InitDB()
		stores, err := repository.NewMongoStores(database.MongoDatabase())
		if err != nil {
			logger.Fatal("main: failed to prepare Mongo store", zap.Error(err))
		}
		closeFn := func() {
			database.MongoClient.Disconnect(context.Background())
		}
		return stores, []utils.Pinger{database.MongoPinger(database.MongoClient)}, closeFn
	}
}

// newDispatcher builds the notification dispatcher selected by NOTIFY_MODE.
func newDispatcher(cfg config.Config, principals notification.TokenLookup, logger *zap.Logger) (notification.Dispatcher, func()) {
	var deliverer interface {
		notification.Dispatcher
		notification.Deliverer
	} = &notification.LogDispatcher{Logger: logger}

	if cfg.FirebaseCredentials != "" {
		utils.FirebaseInit()
		push, err := notification.NewPushDispatcher(principals, utils.FCMClient, logger)
		if err != nil {
			logger.Fatal("main: failed to build push dispatcher", zap.Error(err))
		}
		deliverer = push
	}

	switch cfg.NotifyMode {
	case "queue":
		client := asynq.NewClient(cron.RedisOpt())
		worker := cron.InitNotificationWorker(deliverer, logger)
		return notification.NewQueueDispatcher(client), func() {
			worker.Shutdown()
			client.Close()
		}
	case "push":
		if cfg.FirebaseCredentials == "" {
			logger.Fatal("main: NOTIFY_MODE=push needs FIREBASE_CREDENTIALS")
		}
		return deliverer, func() {}
	default:
		return deliverer, func() {}
	}
}

// newProvisioner builds the meeting provisioner selected by MEETING_PROVIDER.
func newProvisioner(cfg config.Config) meeting.Provisioner {
	if cfg.MeetingProvider == "zoom" {
		return meeting.NewZoomProvisioner(meeting.ZoomConfig{
			AccountID:    cfg.ZoomAccountID,
			ClientID:     cfg.ZoomClientID,
			ClientSecret: cfg.ZoomClientSecret,
			APIBaseURL:   cfg.ZoomAPIBaseURL,
			TokenURL:     cfg.ZoomTokenURL,
		})
	}
	return &meeting.JitsiProvisioner{BaseURL: cfg.JitsiBaseURL}
}

// newLeaser builds the sweep lease selected by LEASE_BACKEND.
func newLeaser(cfg config.Config) (lifecycle.Leaser, []utils.Pinger) {
	if cfg.LeaseBackend == "redis" {
		utils.InitLeaseCache()
		client := utils.GetLeaseClient()
		return lifecycle.NewRedisLeaser(client, utils.GetLogger()), []utils.Pinger{database.RedisPinger("redis", client)}
	}
	return lifecycle.NewLocalLeaser(), nil
}
