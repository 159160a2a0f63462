package database

import (
	"context"

	"mindhaven/utils"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

type mongoPinger struct{ client *mongo.Client }

func (p mongoPinger) Name() string                   { return "mongo" }
func (p mongoPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx, nil) }

type gormPinger struct{ db *gorm.DB }

func (p gormPinger) Name() string { return "sql" }

func (p gormPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type redisPinger struct {
	name   string
	client *redis.Client
}

func (p redisPinger) Name() string                   { return p.name }
func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

func MongoPinger(c *mongo.Client) utils.Pinger { return mongoPinger{client: c} }
func GormPinger(db *gorm.DB) utils.Pinger      { return gormPinger{db: db} }
func RedisPinger(name string, c *redis.Client) utils.Pinger {
	return redisPinger{name: name, client: c}
}
