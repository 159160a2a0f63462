package cron

import (
	"context"
	"time"

	"mindhaven/config"
	"mindhaven/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt is the asynq connection shared by the queue dispatcher and the worker.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitNotificationWorker runs the queued-notification worker in background.
func InitNotificationWorker(deliverer notification.Deliverer, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"notifications": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeNotificationSend, HandleNotificationTask(deliverer, logger))

	go func() {
		logger.Info("[NotificationWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Warn("[NotificationWorker] worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("[NotificationWorker] max retry attempts reached")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()

	return srv
}

// HandleNotificationTask delivers one queued notification. Delivery errors are returned so
// asynq retries the task.
func HandleNotificationTask(deliverer notification.Deliverer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		msg, err := notification.ParseNotificationTask(task)
		if err != nil {
			logger.Error("[NotificationHandler] invalid payload", zap.Error(err))
			return asynq.SkipRetry
		}

		if err := deliverer.Deliver(ctx, msg); err != nil {
			logger.Warn("[NotificationHandler] delivery failed",
				zap.String("recipientID", msg.RecipientID),
				zap.String("template", string(msg.Template)),
				zap.Error(err))
			return err
		}
		return nil
	}
}
